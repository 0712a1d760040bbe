package track

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bxrne/sledline/pkg/engine"
	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/rider"
	"github.com/bxrne/sledline/pkg/types"
)

// Line types in the .track.json format
const (
	lineTypeNormal       = 0
	lineTypeAcceleration = 1
	lineTypeScenery      = 2
)

// Point is an x/y pair in the track file
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rider is one rider entry of the track file. Remountable is a three-valued
// tag: absent or false selects no remount, boolean true the v1 rules, and a
// number the v2 rules.
type Rider struct {
	StartPosition Point           `json:"startPosition"`
	StartVelocity Point           `json:"startVelocity"`
	StartAngle    float64         `json:"startAngle"`
	Remountable   json.RawMessage `json:"remountable"`
}

// Line is one line entry of the track file
type Line struct {
	ID            int64    `json:"id"`
	X1            float64  `json:"x1"`
	Y1            float64  `json:"y1"`
	X2            float64  `json:"x2"`
	Y2            float64  `json:"y2"`
	Type          int      `json:"type"`
	Flipped       bool     `json:"flipped"`
	LeftExtended  bool     `json:"leftExtended"`
	RightExtended bool     `json:"rightExtended"`
	Multiplier    *float64 `json:"multiplier"`
}

// Track is a parsed .track.json document
type Track struct {
	Version string  `json:"version"`
	Riders  []Rider `json:"riders"`
	Lines   []Line  `json:"lines"`
}

// Load reads and parses a .track.json file
func Load(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file '%s': %w", path, err)
	}

	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse track file '%s': %w", path, err)
	}
	return &t, nil
}

// ParseVersion maps a version string to a grid version. Unknown strings fall
// back to 6.2, matching the players.
func ParseVersion(s string) grid.Version {
	switch s {
	case "6.0":
		return grid.V6_0
	case "6.1":
		return grid.V6_1
	case "6.7":
		return grid.V6_7
	default:
		return grid.V6_2
	}
}

// ConvertLines filters and converts the track's lines: scenery and
// zero-length lines drop out, acceleration lines default their multiplier
// to 1.
func ConvertLines(lines []Line) []*line.Line {
	var converted []*line.Line
	for _, l := range lines {
		if l.Type == lineTypeScenery {
			continue
		}
		if l.X1 == l.X2 && l.Y1 == l.Y2 {
			continue
		}

		acceleration := 0.0
		if l.Type == lineTypeAcceleration {
			acceleration = 1.0
			if l.Multiplier != nil {
				acceleration = *l.Multiplier
			}
		}

		converted = append(converted, line.New(
			l.ID,
			types.Vector2{X: l.X1, Y: l.Y1},
			types.Vector2{X: l.X2, Y: l.Y2},
			l.Flipped,
			l.LeftExtended,
			l.RightExtended,
			acceleration,
		))
	}
	return converted
}

// remountVersion decodes the three-valued remountable tag into a remount
// version and whether remounting is enabled at all.
func remountVersion(raw json.RawMessage, lra bool) (rider.RemountVersion, bool) {
	version := rider.RemountNone
	canRemount := false

	if len(raw) > 0 {
		var b bool
		var n float64
		if err := json.Unmarshal(raw, &b); err == nil {
			if b {
				version = rider.RemountComV1
				canRemount = true
			}
		} else if err := json.Unmarshal(raw, &n); err == nil {
			version = rider.RemountComV2
			canRemount = n != 0
		}
	}

	if lra {
		version = rider.RemountLra
	}
	return version, canRemount
}

// ConvertRiders builds the entities in track order. The lra flag overrides
// every rider's remount rules with LRA's.
func ConvertRiders(riders []Rider, lra bool) []*rider.Entity {
	var converted []*rider.Entity
	for _, r := range riders {
		version, canRemount := remountVersion(r.Remountable, lra)

		converted = append(converted, rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{
			Position:   types.Vector2{X: r.StartPosition.X, Y: r.StartPosition.Y},
			Velocity:   types.Vector2{X: r.StartVelocity.X, Y: r.StartVelocity.Y},
			Rotation:   r.StartAngle,
			CanRemount: canRemount,
		}, version)))
	}
	return converted
}

// BuildEngine loads a track file and assembles an engine for it. An empty
// versionOverride uses the track's own version string.
func BuildEngine(path string, lra bool, versionOverride string) (*engine.Engine, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}

	versionString := t.Version
	if versionOverride != "" {
		versionString = versionOverride
	}

	return engine.New(ParseVersion(versionString), ConvertRiders(t.Riders, lra), ConvertLines(t.Lines)), nil
}
