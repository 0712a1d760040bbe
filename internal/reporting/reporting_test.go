package reporting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxrne/sledline/internal/reporting"
	"github.com/bxrne/sledline/pkg/engine"
	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/line"
	"github.com/bxrne/sledline/pkg/rider"
	"github.com/bxrne/sledline/pkg/types"
)

func fallEngine() *engine.Engine {
	entity := rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{}, rider.RemountNone))
	floor := line.New(0, types.Vector2{X: -200, Y: 15}, types.Vector2{X: 200, Y: 15}, false, false, false, 0)
	return engine.New(grid.V6_2, []*rider.Entity{entity}, []*line.Line{floor})
}

func TestSummarize(t *testing.T) {
	summary, err := reporting.Summarize(fallEngine(), 30)
	require.NoError(t, err)

	assert.Equal(t, int64(30), summary.Frames)
	assert.Equal(t, 1, summary.Entities)
	assert.Equal(t, 1, summary.SledsIntact)
	assert.Greater(t, summary.MaxSpeed, 0.0)
	assert.GreaterOrEqual(t, summary.MaxSpeed, summary.MeanSpeed)
}

func TestSummarizeRejectsEmptyWindow(t *testing.T) {
	_, err := reporting.Summarize(fallEngine(), 0)
	assert.Error(t, err)
}

func TestWriteTrajectoryPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report", "trajectory.png")
	require.NoError(t, reporting.WriteTrajectoryPlot(fallEngine(), 20, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
