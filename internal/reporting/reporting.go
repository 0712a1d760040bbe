package reporting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/bxrne/sledline/pkg/engine"
)

// tailIndex is the point used to represent a rider in reports
const tailIndex = 1

// RunSummary aggregates a run's speeds and final state
type RunSummary struct {
	Frames      int64
	Entities    int
	MeanSpeed   float64
	MaxSpeed    float64
	StdDevSpeed float64
	SledsIntact int
}

// Summarize walks the computed frames and aggregates tail-point speeds with
// gonum's descriptive statistics.
func Summarize(eng *engine.Engine, frames int64) (*RunSummary, error) {
	if frames < 1 {
		return nil, fmt.Errorf("cannot summarize %d frames", frames)
	}

	var speeds []float64
	for n := int64(1); n <= frames; n++ {
		frame := eng.GetFrame(n)
		if frame == nil {
			return nil, fmt.Errorf("frame %d was not computable", n)
		}
		for _, entity := range frame.Entities {
			speeds = append(speeds, entity.Points[tailIndex].Vel.Magnitude())
		}
	}
	if len(speeds) == 0 {
		return nil, fmt.Errorf("track has no riders to summarize")
	}

	final := eng.GetFrame(frames)
	summary := &RunSummary{
		Frames:      frames,
		Entities:    len(final.Entities),
		MeanSpeed:   stat.Mean(speeds, nil),
		MaxSpeed:    floats.Max(speeds),
		StdDevSpeed: stat.StdDev(speeds, nil),
	}
	if math.IsNaN(summary.StdDevSpeed) {
		summary.StdDevSpeed = 0
	}
	for _, entity := range final.Entities {
		if entity.State.SledIntact {
			summary.SledsIntact++
		}
	}
	return summary, nil
}

// WriteTrajectoryPlot renders each rider's tail-point path into one image.
// The y axis is inverted so the image matches the track's screen orientation.
func WriteTrajectoryPlot(eng *engine.Engine, frames int64, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Rider trajectory"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y (inverted)"
	p.Add(plotter.NewGrid())

	entityCount := len(eng.GetFrame(0).Entities)
	for entityIndex := 0; entityIndex < entityCount; entityIndex++ {
		pts := make(plotter.XYs, 0, frames+1)
		for n := int64(0); n <= frames; n++ {
			frame := eng.GetFrame(n)
			if frame == nil {
				return fmt.Errorf("frame %d was not computable", n)
			}
			tail := frame.Entities[entityIndex].Points[tailIndex]
			pts = append(pts, plotter.XY{X: tail.Pos.X, Y: -tail.Pos.Y})
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to create line plotter: %w", err)
		}
		p.Add(line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outputPath); err != nil {
		return fmt.Errorf("failed to save trajectory plot: %w", err)
	}
	return nil
}
