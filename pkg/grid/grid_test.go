package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/types"
)

func newGrid(version grid.Version) *grid.Grid {
	return grid.New(version, grid.CellSize)
}

func TestGetCellPositionFloors(t *testing.T) {
	g := newGrid(grid.V6_2)

	tests := []struct {
		pos    types.Vector2
		cx, cy int64
	}{
		{types.Vector2{X: 0, Y: 0}, 0, 0},
		{types.Vector2{X: 13.9, Y: 13.9}, 0, 0},
		{types.Vector2{X: 14, Y: 14}, 1, 1},
		{types.Vector2{X: -0.1, Y: -0.1}, -1, -1},
		{types.Vector2{X: -14, Y: -14}, -1, -1},
		{types.Vector2{X: -14.1, Y: -14.1}, -2, -2},
	}

	for _, tc := range tests {
		cell := g.GetCellPosition(tc.pos)
		assert.Equal(t, tc.cx, cell.CX, "cx of %v", tc.pos)
		assert.Equal(t, tc.cy, cell.CY, "cy of %v", tc.pos)
		assert.GreaterOrEqual(t, cell.Remainder.X, 0.0, "remainder x of %v", tc.pos)
		assert.GreaterOrEqual(t, cell.Remainder.Y, 0.0, "remainder y of %v", tc.pos)
		assert.Less(t, cell.Remainder.X, grid.CellSize+1e-9)
	}
}

func TestCellKeepsDescendingIDOrder(t *testing.T) {
	g := newGrid(grid.V6_2)

	// All three lines land only in cell (0,0)
	for _, id := range []int64{2, 7, 5} {
		g.AddLine(line.New(id, types.Vector2{X: 1, Y: 1}, types.Vector2{X: 12, Y: 12}, false, false, false, 0))
	}

	cell := g.GetCell(types.Vector2{X: 1, Y: 1})
	require.NotNil(t, cell)
	require.Equal(t, 3, cell.Len())

	ids := []int64{cell.Lines[0].ID, cell.Lines[1].ID, cell.Lines[2].ID}
	assert.Equal(t, []int64{7, 5, 2}, ids)
}

func TestAddRemoveRestoresCells(t *testing.T) {
	g := newGrid(grid.V6_2)

	base := line.New(1, types.Vector2{X: 0, Y: 0}, types.Vector2{X: 50, Y: 20}, false, false, false, 0)
	g.AddLine(base)
	before := g.CellCount()

	extra := line.New(2, types.Vector2{X: -30, Y: 4}, types.Vector2{X: 60, Y: -25}, false, false, false, 0)
	g.AddLine(extra)
	g.RemoveLine(extra)

	assert.Equal(t, before, g.CellCount())
	for _, pos := range g.GetCellPositionsBetween(extra.P1, extra.P2) {
		cell := g.GetCell(pos.World)
		if cell != nil {
			assert.False(t, cell.Contains(extra.ID))
		}
	}
}

func TestMoveLineReRegisters(t *testing.T) {
	g := newGrid(grid.V6_2)

	l := line.New(9, types.Vector2{X: 0, Y: 0}, types.Vector2{X: 10, Y: 0}, false, false, false, 0)
	g.AddLine(l)

	oldP1, oldP2 := l.P1, l.P2
	l.SetEndpoints(types.Vector2{X: 140, Y: 140}, types.Vector2{X: 150, Y: 140})
	g.MoveLine(l, oldP1, oldP2)

	if old := g.GetCell(types.Vector2{X: 5, Y: 0}); old != nil {
		assert.False(t, old.Contains(l.ID))
		assert.Equal(t, 0, old.Len())
	}

	cell := g.GetCell(types.Vector2{X: 145, Y: 140})
	require.NotNil(t, cell)
	assert.True(t, cell.Contains(l.ID))
}

func TestNeighborhoodIncludesAdjacentCells(t *testing.T) {
	g := newGrid(grid.V6_2)

	// Line fully inside cell (2,2); a point in cell (1,1) still sees it
	l := line.New(0, types.Vector2{X: 30, Y: 30}, types.Vector2{X: 40, Y: 40}, false, false, false, 0)
	g.AddLine(l)

	near := g.GetLinesNearPosition(types.Vector2{X: 20, Y: 20})
	require.Len(t, near, 1)
	assert.Equal(t, l.ID, near[0].ID)

	far := g.GetLinesNearPosition(types.Vector2{X: 200, Y: 200})
	assert.Empty(t, far)
}

func TestNeighborhoodDuplicatesAreObservable(t *testing.T) {
	g := newGrid(grid.V6_2)

	// A segment spanning several cells appears once per registered cell in
	// the neighborhood; the duplicates are part of replay semantics
	l := line.New(0, types.Vector2{X: 0, Y: 7}, types.Vector2{X: 40, Y: 7}, false, false, false, 0)
	g.AddLine(l)

	near := g.GetLinesNearPosition(types.Vector2{X: 14.5, Y: 7})
	assert.Greater(t, len(near), 1)
	for _, got := range near {
		assert.Equal(t, l.ID, got.ID)
	}
}

func TestRasterDegenerateSegment(t *testing.T) {
	for _, version := range []grid.Version{grid.V6_0, grid.V6_1, grid.V6_2, grid.V6_7} {
		g := newGrid(version)

		cells := g.GetCellPositionsBetween(types.Vector2{X: 3, Y: 3}, types.Vector2{X: 3, Y: 3})
		require.Len(t, cells, 1)
		assert.Equal(t, int64(0), cells[0].CX)
		assert.Equal(t, int64(0), cells[0].CY)

		// Different points, same cell
		cells = g.GetCellPositionsBetween(types.Vector2{X: 1, Y: 1}, types.Vector2{X: 12, Y: 9})
		require.Len(t, cells, 1)
	}
}

func TestRasterDDAWalksTheSegment(t *testing.T) {
	g := newGrid(grid.V6_2)

	cells := g.GetCellPositionsBetween(types.Vector2{X: 1, Y: 1}, types.Vector2{X: 55, Y: 1})
	require.Len(t, cells, 4)
	for i, cell := range cells {
		assert.Equal(t, int64(i), cell.CX)
		assert.Equal(t, int64(0), cell.CY)
	}

	// Vertical segment
	cells = g.GetCellPositionsBetween(types.Vector2{X: 1, Y: 1}, types.Vector2{X: 1, Y: 55})
	require.Len(t, cells, 4)
	for i, cell := range cells {
		assert.Equal(t, int64(0), cell.CX)
		assert.Equal(t, int64(i), cell.CY)
	}
}

func TestRasterDDADiagonalStaysInBounds(t *testing.T) {
	g := newGrid(grid.V6_2)

	p1 := types.Vector2{X: 1, Y: 1}
	p2 := types.Vector2{X: 100, Y: 60}
	cells := g.GetCellPositionsBetween(p1, p2)

	initial := g.GetCellPosition(p1)
	final := g.GetCellPosition(p2)
	require.NotEmpty(t, cells)
	assert.Equal(t, initial.CX, cells[0].CX)
	assert.Equal(t, initial.CY, cells[0].CY)

	for _, cell := range cells {
		assert.GreaterOrEqual(t, cell.CX, initial.CX)
		assert.LessOrEqual(t, cell.CX, final.CX)
		assert.GreaterOrEqual(t, cell.CY, initial.CY)
		assert.LessOrEqual(t, cell.CY, final.CY)
	}
}

func TestRasterBoundingBoxCoversSegmentCells(t *testing.T) {
	g := newGrid(grid.V6_0)

	p1 := types.Vector2{X: 1, Y: 1}
	p2 := types.Vector2{X: 55, Y: 40}
	cells := g.GetCellPositionsBetween(p1, p2)
	require.NotEmpty(t, cells)

	// 6.0 includes every AABB cell the hitbox overlaps, so the DDA cells of
	// the same segment are a subset
	seen := make(map[[2]int64]bool)
	for _, cell := range cells {
		seen[[2]int64{cell.CX, cell.CY}] = true
	}

	dda := grid.New(grid.V6_2, grid.CellSize)
	for _, cell := range dda.GetCellPositionsBetween(p1, p2) {
		assert.True(t, seen[[2]int64{cell.CX, cell.CY}],
			"6.0 should cover DDA cell (%d,%d)", cell.CX, cell.CY)
	}
}

func TestGridVersionsDiverge(t *testing.T) {
	// A steep diagonal across cell corners rasterizes differently between
	// the bounding-box and DDA algorithms
	p1 := types.Vector2{X: 0.5, Y: 0.5}
	p2 := types.Vector2{X: 28, Y: 112}

	count := func(version grid.Version) int {
		return len(grid.New(version, grid.CellSize).GetCellPositionsBetween(p1, p2))
	}

	assert.NotEqual(t, count(grid.V6_0), count(grid.V6_2))
}

func TestNegativeRowWalkDiffersFromOverlap(t *testing.T) {
	// Below y=0 the 6.2 walk reads the x remainder for its y boundary steps,
	// so its cell set is not the geometric overlap set that 6.0 computes
	p1 := types.Vector2{X: -40, Y: -60}
	p2 := types.Vector2{X: 60, Y: 10}

	collect := func(version grid.Version) map[[2]int64]bool {
		cells := make(map[[2]int64]bool)
		for _, cell := range grid.New(version, grid.CellSize).GetCellPositionsBetween(p1, p2) {
			cells[[2]int64{cell.CX, cell.CY}] = true
		}
		return cells
	}

	assert.NotEqual(t, collect(grid.V6_0), collect(grid.V6_2))
}

func TestHashUniquenessOnSmallRange(t *testing.T) {
	g := newGrid(grid.V6_2)

	// cell_key must be injective over the workload's realistic range; probe
	// it through single-cell registrations
	seen := make(map[[2]int64]bool)
	id := int64(0)
	for cx := int64(-10); cx <= 10; cx++ {
		for cy := int64(-10); cy <= 10; cy++ {
			pos := types.Vector2{X: float64(cx)*grid.CellSize + 1, Y: float64(cy)*grid.CellSize + 1}
			g.AddLine(line.New(id, pos, pos.Add(types.Vector2{X: 2, Y: 2}), false, false, false, 0))
			id++
			seen[[2]int64{cx, cy}] = true
		}
	}

	for key := range seen {
		cell := g.GetCell(types.Vector2{X: float64(key[0])*grid.CellSize + 1, Y: float64(key[1])*grid.CellSize + 1})
		require.NotNil(t, cell, "cell (%d,%d)", key[0], key[1])
		assert.Equal(t, 1, cell.Len(), "cell (%d,%d) collided with another", key[0], key[1])
	}
}
