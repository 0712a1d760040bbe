package grid

import (
	"math"

	"github.com/bxrne/sledline/pkg/types"
)

// GetCellPositionsBetween rasterizes a line segment into the cells it passes
// through using the grid's version-specific algorithm. The historical players
// disagree here, which is why tracks diverge between versions; each branch is
// reproduced bug-for-bug.
func (g *Grid) GetCellPositionsBetween(pos1, pos2 types.Vector2) []CellPosition {
	delta := pos2.Subtract(pos1)
	initialCell := g.GetCellPosition(pos1)
	finalCell := g.GetCellPosition(pos2)

	if initialCell.CX == finalCell.CX && initialCell.CY == finalCell.CY {
		return []CellPosition{initialCell}
	}

	switch g.Version {
	case V6_0:
		return g.rasterBoundingBox(pos1, delta, initialCell, finalCell)
	case V6_1:
		return g.rasterSlopeIntercept(pos1, delta, initialCell, finalCell)
	default:
		return g.rasterDDA(pos1, delta, initialCell, finalCell)
	}
}

// xBoundaryStep is the signed distance to the next vertical cell boundary.
func (g *Grid) xBoundaryStep(forwards bool, cx int64, remainderX float64) float64 {
	if forwards {
		if cx < 0 {
			return g.CellSize + remainderX
		}
		return g.CellSize - remainderX
	}
	if cx < 0 {
		return -(g.CellSize + remainderX)
	}
	return -1 - remainderX
}

// yBoundaryStep is the signed distance to the next horizontal cell boundary.
// The negative-cy branches read the x remainder; the reference players do the
// same, so "fixing" it would change which cells steep lines land in.
func (g *Grid) yBoundaryStep(forwards bool, cy int64, remainderX, remainderY float64) float64 {
	if forwards {
		if cy < 0 {
			return g.CellSize + remainderX
		}
		return g.CellSize - remainderY
	}
	if cy < 0 {
		return -(g.CellSize + remainderX)
	}
	return -1 - remainderY
}

type cellBounds struct {
	lowX, lowY, highX, highY int64
}

func boundsOf(initialCell, finalCell CellPosition) cellBounds {
	return cellBounds{
		lowX:  min(initialCell.CX, finalCell.CX),
		lowY:  min(initialCell.CY, finalCell.CY),
		highX: max(initialCell.CX, finalCell.CX),
		highY: max(initialCell.CY, finalCell.CY),
	}
}

func (b cellBounds) contains(cell CellPosition) bool {
	return b.lowX <= cell.CX && cell.CX <= b.highX &&
		b.lowY <= cell.CY && cell.CY <= b.highY
}

// rasterDDA is the 6.2 (and 6.7) stepping algorithm: walk from p1, at each
// cell stepping to whichever axis boundary is closer along the segment.
func (g *Grid) rasterDDA(pos1, delta types.Vector2, initialCell, finalCell CellPosition) []CellPosition {
	cells := []CellPosition{initialCell}
	bounds := boundsOf(initialCell, finalCell)

	currentPosition := pos1
	currentCell := initialCell
	xForwards := delta.X > 0
	yForwards := delta.Y > 0

	for {
		dx := g.xBoundaryStep(xForwards, currentCell.CX, currentCell.Remainder.X)
		dy := g.yBoundaryStep(yForwards, currentCell.CY, currentCell.Remainder.X, currentCell.Remainder.Y)

		var step types.Vector2
		switch {
		case delta.Y == 0:
			step = types.Vector2{X: dx, Y: 0}
		case delta.X == 0:
			step = types.Vector2{X: 0, Y: dy}
		default:
			yBasedDx := dy * delta.X / delta.Y
			xBasedDy := dx * delta.Y / delta.X
			switch {
			case math.Abs(xBasedDy) < math.Abs(dy):
				step = types.Vector2{X: dx, Y: xBasedDy}
			case math.Abs(xBasedDy) == math.Abs(dy):
				step = types.Vector2{X: dx, Y: dy}
			default:
				step = types.Vector2{X: yBasedDx, Y: dy}
			}
		}

		currentPosition = currentPosition.Add(step)
		nextCell := g.GetCellPosition(currentPosition)

		// A zero-cell step would loop forever (the 6.1 player crashed here)
		if nextCell.CX == currentCell.CX && nextCell.CY == currentCell.CY {
			return cells
		}
		if !bounds.contains(nextCell) {
			return cells
		}

		cells = append(cells, nextCell)
		currentCell = nextCell
	}
}

// rasterSlopeIntercept is the 6.1 algorithm: the same stepping skeleton, but
// the next cell comes from the segment's slope-intercept form with the
// candidate boundary intersections rounded to integer coordinates.
func (g *Grid) rasterSlopeIntercept(pos1, delta types.Vector2, initialCell, finalCell CellPosition) []CellPosition {
	cells := []CellPosition{initialCell}
	bounds := boundsOf(initialCell, finalCell)

	slope := delta.Y / delta.X
	intercept := pos1.Y - slope*pos1.X

	currentPosition := pos1
	currentCell := initialCell
	xForwards := delta.X > 0
	yForwards := delta.Y > 0

	for {
		dx := g.xBoundaryStep(xForwards, currentCell.CX, currentCell.Remainder.X)
		dy := g.yBoundaryStep(yForwards, currentCell.CY, currentCell.Remainder.X, currentCell.Remainder.Y)

		var nextPosition types.Vector2
		switch {
		case delta.X == 0:
			nextPosition = types.Vector2{X: currentPosition.X, Y: currentPosition.Y + dy}
		case delta.Y == 0:
			nextPosition = types.Vector2{X: currentPosition.X + dx, Y: currentPosition.Y}
		default:
			nextX := currentPosition.X + dx
			yAtNextX := math.Round(slope*nextX + intercept)
			nextY := currentPosition.Y + dy
			xAtNextY := math.Round((nextY - intercept) / slope)

			if math.Abs(yAtNextX-currentPosition.Y) < math.Abs(dy) {
				nextPosition = types.Vector2{X: nextX, Y: yAtNextX}
			} else {
				nextPosition = types.Vector2{X: xAtNextY, Y: nextY}
			}
		}

		currentPosition = nextPosition
		nextCell := g.GetCellPosition(currentPosition)

		// The original 6.1 player hangs when the rounded intersection lands
		// in the same cell; break instead of crashing
		if nextCell.CX == currentCell.CX && nextCell.CY == currentCell.CY {
			return cells
		}
		if !bounds.contains(nextCell) {
			return cells
		}

		cells = append(cells, nextCell)
		currentCell = nextCell
	}
}

// rasterBoundingBox is the 6.0 algorithm: visit every cell in the AABB of the
// segment's endpoint cells and keep the ones the line's hitbox overlaps.
func (g *Grid) rasterBoundingBox(pos1, delta types.Vector2, initialCell, finalCell CellPosition) []CellPosition {
	var cells []CellPosition
	bounds := boundsOf(initialCell, finalCell)

	half := types.Vector2{X: math.Abs(delta.X) * 0.5, Y: math.Abs(delta.Y) * 0.5}
	mid := pos1.Add(delta.MultiplyScalar(0.5))

	normal := delta.MultiplyScalar(1 / delta.Magnitude()).RotCCW()
	absNormal := types.Vector2{X: math.Abs(normal.X), Y: math.Abs(normal.Y)}

	for cx := bounds.lowX; cx <= bounds.highX; cx++ {
		for cy := bounds.lowY; cy <= bounds.highY; cy++ {
			center := g.GetCellPosition(types.Vector2{
				X: float64(cx)*g.CellSize + 0.5*g.CellSize,
				Y: float64(cy)*g.CellSize + 0.5*g.CellSize,
			})

			d := mid.Subtract(center.World)
			dFromCenter := absNormal.Dot(center.Remainder)
			overlapIntoHitbox := types.Vector2{X: dFromCenter, Y: dFromCenter}.Dot(absNormal)
			t := normal.Dot(d)
			dFromLine := math.Abs(t*normal.X) + math.Abs(t*normal.Y)

			if half.X+center.Remainder.X >= math.Abs(d.X) &&
				half.Y+center.Remainder.Y >= math.Abs(d.Y) &&
				overlapIntoHitbox >= dFromLine {
				cells = append(cells, center)
			}
		}
	}

	return cells
}
