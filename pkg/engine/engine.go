package engine

import (
	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/rider"
	"github.com/bxrne/sledline/pkg/types"
)

const (
	// FramesPerSecond is the playback convention; the engine itself has no
	// notion of real time
	FramesPerSecond = 40
	// GravityScale is the per-frame gravity of every release except the 6.3
	// and 6.7 betas
	GravityScale = 0.175
	// GravityScaleV67 is the beta gravity, one bit off
	GravityScaleV67 = 0.17500000000000002
)

// Frame exposes the entities' states after a physics step for inspection.
// Mutating them corrupts the cache; callers that need scratch copies clone.
type Frame struct {
	Entities []*rider.Entity
}

// Engine owns the line grid and the ordered cache of computed frames. It is
// not re-entrant: GetFrame, AddLine, and RemoveLine must not run concurrently.
type Engine struct {
	grid    *grid.Grid
	gravity types.Vector2
	lines   []*line.Line
	// cache[n] is the state after processing frame n; cache[0] is the
	// initial snapshot
	cache [][]*rider.Entity
}

// New builds an engine over a grid at the standard cell size, seeds the frame
// cache with deep copies of the entities, and registers every line.
func New(version grid.Version, entities []*rider.Entity, lines []*line.Line) *Engine {
	gravityScale := GravityScale
	if version == grid.V6_7 {
		gravityScale = GravityScaleV67
	}

	e := &Engine{
		grid:    grid.New(version, grid.CellSize),
		gravity: types.Vector2{X: 0, Y: 1}.MultiplyScalar(gravityScale),
	}

	initial := make([]*rider.Entity, len(entities))
	for i, entity := range entities {
		initial[i] = entity.Copy()
	}
	e.cache = [][]*rider.Entity{initial}

	for _, l := range lines {
		e.lines = append(e.lines, l)
		e.grid.AddLine(l)
	}

	return e
}

// Grid returns the engine's spatial index
func (e *Engine) Grid() *grid.Grid { return e.grid }

// Lines returns the registered lines
func (e *Engine) Lines() []*line.Line { return e.lines }

// MaxLineID returns the highest registered line id, or -1 with no lines
func (e *Engine) MaxLineID() int64 {
	maxID := int64(-1)
	for _, l := range e.lines {
		if l.ID > maxID {
			maxID = l.ID
		}
	}
	return maxID
}

// GetFrame returns the state after frame n, computing and caching any frames
// not yet processed. Negative indices return nil.
func (e *Engine) GetFrame(targetFrame int64) *Frame {
	if targetFrame < 0 {
		return nil
	}

	for frame := int64(len(e.cache)) - 1; frame < targetFrame; frame++ {
		newEntities := make([]*rider.Entity, len(e.cache[frame]))
		for i, entity := range e.cache[frame] {
			newEntities[i] = entity.Copy()
		}

		for _, entity := range newEntities {
			entity.ProcessSkeleton(e.gravity, e.grid)
		}

		// The full list is passed so a lone rider can remount its own sled;
		// a self-swap exchanges nothing
		for _, entity := range newEntities {
			entity.ProcessRemount(newEntities)
		}

		e.cache = append(e.cache, newEntities)
	}

	return &Frame{Entities: e.cache[targetFrame]}
}

// invalidate drops every computed frame, keeping the initial snapshot. A
// finer invalidator could keep frames that never touched the edited line's
// cells; full reset is the conservative contract.
func (e *Engine) invalidate() {
	e.cache = e.cache[:1]
}

// AddLine assigns the next free id to the line, invalidates the frame cache,
// and registers the line in the grid.
func (e *Engine) AddLine(l *line.Line) {
	l.ID = e.MaxLineID() + 1
	e.invalidate()
	e.lines = append(e.lines, l)
	e.grid.AddLine(l)
}

// RemoveLine drops a line by id. Unknown ids are a no-op.
func (e *Engine) RemoveLine(id int64) {
	for i, l := range e.lines {
		if l.ID == id {
			e.invalidate()
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			e.grid.RemoveLine(l)
			return
		}
	}
}
