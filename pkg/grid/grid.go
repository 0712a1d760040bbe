package grid

import (
	"math"

	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/types"
)

// CellSize is the width and height of one grid cell in track units
const CellSize = 14.0

// Version selects the line-to-cell rasterization algorithm. The labels follow
// the historical player releases; 6.7 rasterizes like 6.2 and only differs in
// the engine's gravity scalar.
type Version int

const (
	V6_2 Version = iota
	V6_1
	V6_0
	V6_7
)

// Grid is a versioned spatial index mapping cell coordinates to ordered line
// lists.
type Grid struct {
	Version  Version
	CellSize float64
	cells    map[int64]*Cell
}

// New creates an empty grid for the given rasterization version
func New(version Version, cellSize float64) *Grid {
	return &Grid{
		Version:  version,
		CellSize: cellSize,
		cells:    make(map[int64]*Cell),
	}
}

// hashIntPair packs a cell coordinate pair into one key: x in the high 32 bits,
// y in the low 32 bits, so distinct pairs within the int32 range never collide.
func hashIntPair(x, y int64) int64 {
	return (x << 32) ^ int64(uint32(y))
}

// GetCellPosition resolves a world position to its cell. Coordinates floor so
// the remainder is always nonnegative.
func (g *Grid) GetCellPosition(position types.Vector2) CellPosition {
	x := int64(math.Floor(position.X / g.CellSize))
	y := int64(math.Floor(position.Y / g.CellSize))

	return CellPosition{
		CX:    x,
		CY:    y,
		World: position,
		Remainder: types.Vector2{
			X: position.X - float64(x)*g.CellSize,
			Y: position.Y - float64(y)*g.CellSize,
		},
	}
}

// GetCell returns the cell containing a world position, or nil if no line was
// ever registered there. A cell whose lines were all removed stays, empty.
func (g *Grid) GetCell(position types.Vector2) *Cell {
	cellPosition := g.GetCellPosition(position)
	if cell, ok := g.cells[hashIntPair(cellPosition.CX, cellPosition.CY)]; ok {
		return cell
	}
	return nil
}

// AddLine registers a line in every cell its segment passes through
func (g *Grid) AddLine(l *line.Line) {
	for _, position := range g.GetCellPositionsBetween(l.P1, l.P2) {
		g.register(l, position)
	}
}

// RemoveLine unregisters a line from every cell its segment passes through
func (g *Grid) RemoveLine(l *line.Line) {
	for _, position := range g.GetCellPositionsBetween(l.P1, l.P2) {
		g.unregister(l, position)
	}
}

// MoveLine re-registers a line whose endpoints were edited. The old endpoints
// must be the ones the line was registered under.
func (g *Grid) MoveLine(l *line.Line, oldP1, oldP2 types.Vector2) {
	for _, position := range g.GetCellPositionsBetween(oldP1, oldP2) {
		g.unregister(l, position)
	}
	for _, position := range g.GetCellPositionsBetween(l.P1, l.P2) {
		g.register(l, position)
	}
}

func (g *Grid) register(l *line.Line, position CellPosition) {
	cellKey := hashIntPair(position.CX, position.CY)
	cell, ok := g.cells[cellKey]
	if !ok {
		cell = NewCell(position)
		g.cells[cellKey] = cell
	}
	cell.AddLine(l)
}

func (g *Grid) unregister(l *line.Line, position CellPosition) {
	if cell, ok := g.cells[hashIntPair(position.CX, position.CY)]; ok {
		cell.RemoveLine(l.ID)
	}
}

// CellCount returns how many cells currently hold at least one registration
func (g *Grid) CellCount() int {
	count := 0
	for _, cell := range g.cells {
		if cell.Len() > 0 {
			count++
		}
	}
	return count
}

// GetLinesNearPosition collects the lines of every cell in the neighborhood
// of a position: a 3x3 block at the default sizes, wider if the line hitbox
// reaches past one cell. Cells are visited in row-major offset order and each
// cell's lines in stored order; duplicates across cells are intentional and
// observable.
func (g *Grid) GetLinesNearPosition(position types.Vector2) []*line.Line {
	var involvedLines []*line.Line
	boundsSize := int(1 + line.HitboxHeight/g.CellSize)
	for xOffset := -boundsSize; xOffset <= boundsSize; xOffset++ {
		for yOffset := -boundsSize; yOffset <= boundsSize; yOffset++ {
			offset := types.Vector2{X: float64(xOffset), Y: float64(yOffset)}
			cell := g.GetCell(position.Add(offset.MultiplyScalar(g.CellSize)))

			if cell != nil {
				involvedLines = append(involvedLines, cell.Lines...)
			}
		}
	}
	return involvedLines
}
