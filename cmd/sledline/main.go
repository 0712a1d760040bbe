package main

import (
	"crypto/sha1"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bxrne/sledline/internal/config"
	"github.com/bxrne/sledline/internal/fixture"
	"github.com/bxrne/sledline/internal/logger"
	"github.com/bxrne/sledline/internal/reporting"
	"github.com/bxrne/sledline/internal/simulation"
	"github.com/bxrne/sledline/internal/storage"
)

func main() {
	fixtureList := flag.String("fixtures", "", "Path to a fixture list JSON; runs it and exits 0/1 instead of simulating.")
	flag.Parse()

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Printf("Critical error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger(cfg.Logging.Level)
	log.Info("Logger initialized", "level", cfg.Logging.Level)

	if *fixtureList != "" {
		passed, failures, err := fixture.RunAll(*fixtureList, cfg.Simulation.LRA)
		if err != nil {
			log.Fatal("Failed to run fixtures", "error", err)
		}
		for _, failure := range failures {
			fmt.Println(failure)
		}
		fmt.Println("Passed", passed)
		fmt.Println("Failed", len(failures))
		if len(failures) > 0 {
			os.Exit(1)
		}
		return
	}

	// Generate unique run ID based on timestamp
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	sum := sha1.Sum([]byte(ts))
	runID := hex.EncodeToString(sum[:])[:8] // short hash
	runDir := filepath.Join(cfg.Simulation.OutputDir, runID)
	log.Info("Creating simulation run directory", "runID", runID, "path", runDir)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		log.Fatal("Failed to create simulation run directory", "path", runDir, "error", err)
	}

	stores, err := openStores(runDir)
	if err != nil {
		log.Fatal("Failed to create run storage", "error", err)
	}
	defer stores.Close()

	simManager := simulation.NewManager(cfg, *log)
	if err := simManager.Initialize(stores); err != nil {
		log.Fatal("Failed to initialize simulation", "error", err)
	}
	if err := simManager.Run(); err != nil {
		log.Fatal("Simulation failed", "error", err)
	}

	telemetryPath, err := simManager.Recorder().WriteFile(runDir, "telemetry.csv")
	if err != nil {
		log.Fatal("Failed to write telemetry", "error", err)
	}
	log.Info("Telemetry written", "path", telemetryPath, "rows", simManager.Recorder().Len())

	summary, err := reporting.Summarize(simManager.Engine(), cfg.Simulation.FrameCount)
	if err != nil {
		log.Fatal("Failed to summarize run", "error", err)
	}

	plotPath := filepath.Join(runDir, "trajectory.png")
	if err := reporting.WriteTrajectoryPlot(simManager.Engine(), cfg.Simulation.FrameCount, plotPath); err != nil {
		log.Fatal("Failed to write trajectory plot", "error", err)
	}
	log.Info("Trajectory plot written", "path", plotPath)

	printSummary(summary)
}

func openStores(runDir string) (*storage.Stores, error) {
	pointStore, err := storage.NewStorage(runDir, storage.POINTS)
	if err != nil {
		return nil, err
	}
	if err := pointStore.Init(); err != nil {
		_ = pointStore.Close()
		return nil, err
	}

	stateStore, err := storage.NewStorage(runDir, storage.STATES)
	if err != nil {
		_ = pointStore.Close()
		return nil, err
	}
	if err := stateStore.Init(); err != nil {
		_ = pointStore.Close()
		_ = stateStore.Close()
		return nil, err
	}

	return &storage.Stores{Points: pointStore, States: stateStore}, nil
}

func printSummary(summary *reporting.RunSummary) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Metric", "Value"})
	_ = table.Append([]string{"Frames", p.Sprintf("%d", summary.Frames)})
	_ = table.Append([]string{"Riders", p.Sprintf("%d", summary.Entities)})
	_ = table.Append([]string{"Sleds intact", p.Sprintf("%d", summary.SledsIntact)})
	_ = table.Append([]string{"Mean speed", p.Sprintf("%.4f", summary.MeanSpeed)})
	_ = table.Append([]string{"Max speed", p.Sprintf("%.4f", summary.MaxSpeed)})
	_ = table.Append([]string{"Speed stddev", p.Sprintf("%.4f", summary.StdDevSpeed)})
	_ = table.Render()
}
