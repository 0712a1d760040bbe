package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/bxrne/sledline/pkg/engine"
)

// FrameRow is one contact point sample of a processed frame
type FrameRow struct {
	Frame     int64   `csv:"frame"`
	Entity    int     `csv:"entity"`
	Point     int     `csv:"point"`
	PositionX float64 `csv:"position_x"`
	PositionY float64 `csv:"position_y"`
	VelocityX float64 `csv:"velocity_x"`
	VelocityY float64 `csv:"velocity_y"`
	Phase     string  `csv:"mount_phase"`
	Sled      bool    `csv:"sled_intact"`
}

// Recorder accumulates frame rows and marshals them to CSV in one pass
type Recorder struct {
	rows []*FrameRow
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record samples every entity's contact points of one frame
func (r *Recorder) Record(frameIndex int64, frame *engine.Frame) {
	for entityIndex, entity := range frame.Entities {
		for pointIndex := 0; pointIndex < entity.NumContact; pointIndex++ {
			p := entity.Points[pointIndex]
			r.rows = append(r.rows, &FrameRow{
				Frame:     frameIndex,
				Entity:    entityIndex,
				Point:     pointIndex,
				PositionX: p.Pos.X,
				PositionY: p.Pos.Y,
				VelocityX: p.Vel.X,
				VelocityY: p.Vel.Y,
				Phase:     string(entity.State.Phase()),
				Sled:      entity.State.SledIntact,
			})
		}
	}
}

// Len returns the number of buffered rows
func (r *Recorder) Len() int {
	return len(r.rows)
}

// WriteFile marshals the buffered rows to a CSV file
func (r *Recorder) WriteFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create telemetry directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create telemetry file %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&r.rows, f); err != nil {
		return "", fmt.Errorf("failed to marshal telemetry rows: %w", err)
	}
	return path, nil
}
