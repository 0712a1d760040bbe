package fixture

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/bxrne/sledline/internal/track"
	"github.com/bxrne/sledline/pkg/engine"
	"github.com/bxrne/sledline/pkg/rider"
)

// EntityState is the expected state of one entity in a fixture
type EntityState struct {
	// Points holds one 64-hex-char string per contact point: the big-endian
	// binary64 encodings of pos.x, pos.y, vel.x, vel.y concatenated
	Points     []string `json:"points"`
	MountState string   `json:"mount_state,omitempty"`
	SledState  string   `json:"sled_state,omitempty"`
}

// State is the expected frame state of a fixture
type State struct {
	Entities []EntityState `json:"entities"`
}

// Fixture is one recorded expectation against a track file
type Fixture struct {
	File  string `json:"file"`
	Test  string `json:"test"`
	Frame int64  `json:"frame"`
	State *State `json:"state,omitempty"`
}

// EncodePoint renders a contact point the way fixtures store it
func EncodePoint(p rider.Point) string {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:], math.Float64bits(p.Pos.X))
	binary.BigEndian.PutUint64(buf[8:], math.Float64bits(p.Pos.Y))
	binary.BigEndian.PutUint64(buf[16:], math.Float64bits(p.Vel.X))
	binary.BigEndian.PutUint64(buf[24:], math.Float64bits(p.Vel.Y))
	return hex.EncodeToString(buf[:])
}

// DecodePoint parses a fixture point string back into its four values
func DecodePoint(s string) (posX, posY, velX, velY float64, err error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad point encoding %q: %w", s, err)
	}
	if len(raw) != 32 {
		return 0, 0, 0, 0, fmt.Errorf("point encoding %q is %d bytes, want 32", s, len(raw))
	}
	posX = math.Float64frombits(binary.BigEndian.Uint64(raw[0:]))
	posY = math.Float64frombits(binary.BigEndian.Uint64(raw[8:]))
	velX = math.Float64frombits(binary.BigEndian.Uint64(raw[16:]))
	velY = math.Float64frombits(binary.BigEndian.Uint64(raw[24:]))
	return posX, posY, velX, velY, nil
}

func mountStateName(phase rider.MountPhase) string {
	switch phase {
	case rider.PhaseMounted:
		return "MOUNTED"
	case rider.PhaseDismounting:
		return "DISMOUNTING"
	case rider.PhaseDismounted:
		return "DISMOUNTED"
	default:
		return "REMOUNTING"
	}
}

func sledStateName(intact bool) string {
	if intact {
		return "INTACT"
	}
	return "BROKEN"
}

// CompareFrame checks a computed frame against a fixture's expected state.
// Every mismatch becomes one message; point comparison is exact-bit.
func CompareFrame(frame *engine.Frame, fix *Fixture) []string {
	var failures []string

	if frame == nil {
		if fix.State != nil {
			failures = append(failures, fmt.Sprintf("%s: '%s' - engine returned no frame", fix.File, fix.Test))
		}
		return failures
	}
	if fix.State == nil {
		failures = append(failures, fmt.Sprintf("%s: '%s' - engine returned a frame, expected none", fix.File, fix.Test))
		return failures
	}

	if len(frame.Entities) != len(fix.State.Entities) {
		failures = append(failures, fmt.Sprintf("%s: '%s' - entity count %d, want %d",
			fix.File, fix.Test, len(frame.Entities), len(fix.State.Entities)))
		return failures
	}

	for i, want := range fix.State.Entities {
		got := frame.Entities[i]

		if want.MountState != "" && mountStateName(got.State.Phase()) != want.MountState {
			failures = append(failures, fmt.Sprintf("%s: '%s' - entity %d mount state %s, want %s",
				fix.File, fix.Test, i, mountStateName(got.State.Phase()), want.MountState))
		}
		if want.SledState != "" && sledStateName(got.State.SledIntact) != want.SledState {
			failures = append(failures, fmt.Sprintf("%s: '%s' - entity %d sled state %s, want %s",
				fix.File, fix.Test, i, sledStateName(got.State.SledIntact), want.SledState))
		}

		if len(want.Points) > got.NumContact {
			failures = append(failures, fmt.Sprintf("%s: '%s' - entity %d has %d contact points, fixture wants %d",
				fix.File, fix.Test, i, got.NumContact, len(want.Points)))
			continue
		}
		for j, encoded := range want.Points {
			if actual := EncodePoint(got.Points[j]); actual != encoded {
				failures = append(failures, fmt.Sprintf("%s: '%s' - entity %d point %d is %s, want %s",
					fix.File, fix.Test, i, j, actual, encoded))
			}
		}
	}

	return failures
}

// Runner executes fixtures, reusing one engine per track file so sequential
// frame lookups hit the cache.
type Runner struct {
	fixtureDir string
	lra        bool
	engines    map[string]*engine.Engine
}

// NewRunner creates a runner that resolves track files under fixtureDir
func NewRunner(fixtureDir string, lra bool) *Runner {
	return &Runner{
		fixtureDir: fixtureDir,
		lra:        lra,
		engines:    make(map[string]*engine.Engine),
	}
}

func (r *Runner) engineFor(file string) (*engine.Engine, error) {
	if eng, ok := r.engines[file]; ok {
		return eng, nil
	}
	eng, err := track.BuildEngine(filepath.Join(r.fixtureDir, file+".track.json"), r.lra, "")
	if err != nil {
		return nil, err
	}
	r.engines[file] = eng
	return eng, nil
}

// Run executes one fixture and returns its failure messages
func (r *Runner) Run(fix *Fixture) []string {
	eng, err := r.engineFor(fix.File)
	if err != nil {
		return []string{fmt.Sprintf("%s: '%s' - %v", fix.File, fix.Test, err)}
	}
	return CompareFrame(eng.GetFrame(fix.Frame), fix)
}

// RunAll executes a fixture list file. It returns the pass count and every
// failure message; an empty failure list means exit code zero for the caller.
func RunAll(listPath string, lra bool) (int, []string, error) {
	data, err := os.ReadFile(listPath)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read fixture list '%s': %w", listPath, err)
	}

	var fixtures []Fixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return 0, nil, fmt.Errorf("failed to parse fixture list '%s': %w", listPath, err)
	}

	runner := NewRunner(filepath.Dir(listPath), lra)
	passed := 0
	var failures []string
	for i := range fixtures {
		if fs := runner.Run(&fixtures[i]); len(fs) > 0 {
			failures = append(failures, fs...)
		} else {
			passed++
		}
	}
	return passed, failures, nil
}
