package grid

import (
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/types"
)

// CellPosition identifies a grid cell along with the world position that
// resolved to it and the position's offset into the cell.
type CellPosition struct {
	CX, CY    int64
	World     types.Vector2
	Remainder types.Vector2
}

// Cell is one grid bucket. Lines are kept in descending id order; collisions
// are applied sequentially and mutate point state, so the order is observable
// and must not change.
type Cell struct {
	Position CellPosition
	Lines    []*line.Line
	ids      map[int64]struct{}
}

// NewCell creates an empty cell at the given position
func NewCell(position CellPosition) *Cell {
	return &Cell{
		Position: position,
		ids:      make(map[int64]struct{}),
	}
}

// AddLine inserts a line keeping the descending id order
func (c *Cell) AddLine(newLine *line.Line) {
	for i, l := range c.Lines {
		if l.ID < newLine.ID {
			c.Lines = append(c.Lines, nil)
			copy(c.Lines[i+1:], c.Lines[i:])
			c.Lines[i] = newLine
			c.ids[newLine.ID] = struct{}{}
			return
		}
	}

	c.Lines = append(c.Lines, newLine)
	c.ids[newLine.ID] = struct{}{}
}

// RemoveLine deletes a line by id, preserving the order of the rest
func (c *Cell) RemoveLine(lineID int64) {
	for i, l := range c.Lines {
		if l.ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			delete(c.ids, lineID)
			return
		}
	}
}

// Contains reports whether a line id is registered in this cell
func (c *Cell) Contains(lineID int64) bool {
	_, ok := c.ids[lineID]
	return ok
}

// Len returns how many lines the cell holds
func (c *Cell) Len() int {
	return len(c.Lines)
}
