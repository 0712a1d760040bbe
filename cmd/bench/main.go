package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"

	"github.com/bxrne/sledline/internal/logger"
	"github.com/bxrne/sledline/internal/track"
)

func main() {
	trackPath := flag.String("track", "fixtures/flat.track.json", "Track file to benchmark.")
	frames := flag.Int64("frames", 1200, "How many frames to compute per run.")
	runs := flag.Int("runs", 5, "How many cold-cache runs to time.")
	lra := flag.Bool("lra", false, "Use LRA remount rules.")
	flag.Parse()

	log := logger.GetLogger("info")

	if *runs < 1 || *frames < 1 {
		log.Fatal("runs and frames must both be at least 1")
	}

	durations := make([]float64, 0, *runs)
	for i := 0; i < *runs; i++ {
		eng, err := track.BuildEngine(*trackPath, *lra, "")
		if err != nil {
			log.Fatal("Failed to build engine", "track", *trackPath, "error", err)
		}

		start := time.Now()
		if eng.GetFrame(*frames) == nil {
			log.Fatal("Frame was not computable", "frame", *frames)
		}
		elapsed := time.Since(start)
		durations = append(durations, elapsed.Seconds())
		log.Info("Run complete", "run", i+1, "duration", elapsed.String())
	}

	mean := stat.Mean(durations, nil)
	stddev := 0.0
	if len(durations) > 1 {
		stddev = stat.StdDev(durations, nil)
	}
	framesPerSecond := float64(*frames) / mean

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Metric", "Value"})
	_ = table.Append([]string{"Track", *trackPath})
	_ = table.Append([]string{"Frames per run", fmt.Sprintf("%d", *frames)})
	_ = table.Append([]string{"Runs", fmt.Sprintf("%d", *runs)})
	_ = table.Append([]string{"Mean duration", fmt.Sprintf("%.4fs", mean)})
	_ = table.Append([]string{"Stddev", fmt.Sprintf("%.4fs", stddev)})
	_ = table.Append([]string{"Frames/sec", fmt.Sprintf("%.0f", framesPerSecond)})
	_ = table.Render()
}
