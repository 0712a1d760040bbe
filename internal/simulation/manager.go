package simulation

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/zerodha/logf"

	"github.com/bxrne/sledline/internal/config"
	"github.com/bxrne/sledline/internal/storage"
	"github.com/bxrne/sledline/internal/telemetry"
	"github.com/bxrne/sledline/internal/track"
	"github.com/bxrne/sledline/pkg/engine"
)

// ManagerStatus represents the status of the simulation manager.
type ManagerStatus string

const (
	StatusIdle         ManagerStatus = "idle"
	StatusInitializing ManagerStatus = "initializing"
	StatusRunning      ManagerStatus = "running"
	StatusCompleted    ManagerStatus = "completed"
	StatusFailed       ManagerStatus = "failed"
)

// Manager handles the overall simulation lifecycle: it loads the track,
// steps the engine through the configured frame window, and records every
// frame to the run's stores.
type Manager struct {
	cfg      *config.Config
	log      logf.Logger
	mu       sync.Mutex
	status   ManagerStatus
	eng      *engine.Engine
	stores   *storage.Stores
	recorder *telemetry.Recorder
}

// NewManager creates a new simulation manager.
func NewManager(cfg *config.Config, log logf.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		log:      log,
		status:   StatusIdle,
		recorder: telemetry.NewRecorder(),
	}
}

// Status returns the manager's current lifecycle status
func (m *Manager) Status() ManagerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Engine returns the engine built during Initialize
func (m *Manager) Engine() *engine.Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eng
}

// Recorder returns the telemetry recorder for the run
func (m *Manager) Recorder() *telemetry.Recorder {
	return m.recorder
}

// Initialize sets up the simulation manager.
// It accepts the storage.Stores instance created externally.
func (m *Manager) Initialize(stores *storage.Stores) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusInitializing

	m.stores = stores

	if m.cfg.Simulation.FrameCount < 1 {
		m.status = StatusFailed
		return fmt.Errorf("invalid frame_count: must be >=1, got %d", m.cfg.Simulation.FrameCount)
	}

	eng, err := track.BuildEngine(m.cfg.Simulation.TrackFile, m.cfg.Simulation.LRA, m.cfg.Simulation.GridVersion)
	if err != nil {
		m.status = StatusFailed
		return fmt.Errorf("failed to build engine from '%s': %w", m.cfg.Simulation.TrackFile, err)
	}
	m.eng = eng
	m.log.Debug("Engine built", "track", m.cfg.Simulation.TrackFile, "lines", len(eng.Lines()))

	m.status = StatusIdle // Ready to run
	return nil
}

// Run steps through every configured frame, recording as it goes.
func (m *Manager) Run() error {
	m.mu.Lock()
	if m.eng == nil {
		m.mu.Unlock()
		return fmt.Errorf("manager is not initialized")
	}
	m.status = StatusRunning
	m.mu.Unlock()

	frameCount := m.cfg.Simulation.FrameCount
	for n := int64(1); n <= frameCount; n++ {
		frame := m.eng.GetFrame(n)
		if frame == nil {
			m.setStatus(StatusFailed)
			return fmt.Errorf("frame %d was not computable", n)
		}

		if err := m.recordFrame(n, frame); err != nil {
			m.setStatus(StatusFailed)
			return err
		}
		m.recorder.Record(n, frame)
	}

	if m.stores != nil {
		if err := m.stores.Points.Flush(); err != nil {
			m.setStatus(StatusFailed)
			return fmt.Errorf("failed to flush point storage: %w", err)
		}
		if err := m.stores.States.Flush(); err != nil {
			m.setStatus(StatusFailed)
			return fmt.Errorf("failed to flush state storage: %w", err)
		}
	}

	m.setStatus(StatusCompleted)
	m.log.Info("Simulation completed", "frames", frameCount)
	return nil
}

func (m *Manager) setStatus(status ManagerStatus) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Manager) recordFrame(n int64, frame *engine.Frame) error {
	if m.stores == nil {
		return nil
	}

	for entityIndex, entity := range frame.Entities {
		for pointIndex := 0; pointIndex < entity.NumContact; pointIndex++ {
			p := entity.Points[pointIndex]
			err := m.stores.Points.Write([]string{
				strconv.FormatInt(n, 10),
				strconv.Itoa(entityIndex),
				strconv.Itoa(pointIndex),
				strconv.FormatFloat(p.Pos.X, 'g', -1, 64),
				strconv.FormatFloat(p.Pos.Y, 'g', -1, 64),
				strconv.FormatFloat(p.Vel.X, 'g', -1, 64),
				strconv.FormatFloat(p.Vel.Y, 'g', -1, 64),
			})
			if err != nil {
				return fmt.Errorf("failed to write point row: %w", err)
			}
		}

		err := m.stores.States.Write([]string{
			strconv.FormatInt(n, 10),
			strconv.Itoa(entityIndex),
			string(entity.State.Phase()),
			strconv.FormatBool(entity.State.SledIntact),
		})
		if err != nil {
			return fmt.Errorf("failed to write state row: %w", err)
		}
	}
	return nil
}
