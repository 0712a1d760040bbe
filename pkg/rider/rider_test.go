package rider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/rider"
	"github.com/bxrne/sledline/pkg/types"
)

func defaultEntity(version rider.RemountVersion, canRemount bool) *rider.Entity {
	return rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{
		CanRemount: canRemount,
	}, version))
}

func TestEntityTemplateShape(t *testing.T) {
	e := defaultEntity(rider.RemountNone, false)

	assert.Len(t, e.Points, 17)
	assert.Equal(t, 10, e.NumContact)
	assert.Len(t, e.StructuralBones, 22)
	assert.Len(t, e.FlutterBones, 7)
	assert.Len(t, e.MountJoints, 2)
	assert.Len(t, e.BreakJoints, 1)

	for i, p := range e.Points {
		if i < e.NumContact {
			assert.Equal(t, rider.ContactPoint, p.Kind, "point %d", i)
		} else {
			assert.Equal(t, rider.FlutterPoint, p.Kind, "point %d", i)
		}
	}
}

func TestRestLengthsFixedBeforeTransform(t *testing.T) {
	rotated := rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{
		Position: types.Vector2{X: 100, Y: -30},
		Rotation: 50,
	}, rider.RemountNone))
	flat := defaultEntity(rider.RemountNone, false)

	require.Equal(t, len(flat.StructuralBones), len(rotated.StructuralBones))
	for i := range flat.StructuralBones {
		assert.Equal(t, flat.StructuralBones[i].RestLength, rotated.StructuralBones[i].RestLength,
			"bone %d rest length must come from the template, not the transformed pose", i)
	}

	// Sled back bone spans peg (0,0) to tail (0,5)
	assert.Equal(t, 5.0, flat.StructuralBones[0].RestLength)
}

func TestApplyInitialStateTranslatesAndSeedsVelocity(t *testing.T) {
	e := rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{
		Position: types.Vector2{X: 10, Y: 20},
		Velocity: types.Vector2{X: 1, Y: 2},
	}, rider.RemountNone))

	tail := e.Points[1]
	assert.Equal(t, types.Vector2{X: 10, Y: 25}, tail.Pos)
	assert.Equal(t, types.Vector2{X: 1, Y: 2}, tail.Vel)
	assert.Equal(t, types.Vector2{X: 9, Y: 23}, tail.Prev)
}

func TestPointInitialStep(t *testing.T) {
	gravity := types.Vector2{X: 0, Y: 0.175}

	p := rider.Point{Kind: rider.ContactPoint}
	p.InitialStep(gravity)
	assert.Equal(t, gravity, p.Vel)
	assert.Equal(t, gravity, p.Pos)
	assert.Equal(t, types.Vector2{}, p.Prev)

	// Flutter points damp the carried velocity before gravity
	f := rider.Point{
		Kind:        rider.FlutterPoint,
		Pos:         types.Vector2{X: 2, Y: 0},
		AirFriction: 0.5,
	}
	f.InitialStep(gravity)
	// carried velocity (2,0) * 0.5 + gravity
	assert.Equal(t, types.Vector2{X: 1, Y: 0.175}, f.Vel)
	assert.Equal(t, types.Vector2{X: 3, Y: 0.175}, f.Pos)
}

func TestNormalBoneRelaxation(t *testing.T) {
	points := []rider.Point{
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 0, Y: 0}},
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 10, Y: 0}},
	}

	bone := rider.NewBone(rider.NormalBone, 0, 1, 5, 0)
	bone.Process(points, 1)

	assert.Equal(t, types.Vector2{X: 2.5, Y: 0}, points[0].Pos)
	assert.Equal(t, types.Vector2{X: 7.5, Y: 0}, points[1].Pos)
	// Velocity and previous position are untouched by relaxation
	assert.Equal(t, types.Vector2{}, points[0].Vel)
	assert.Equal(t, types.Vector2{}, points[0].Prev)
}

func TestRepelBoneOnlyPushesApart(t *testing.T) {
	points := []rider.Point{
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 0, Y: 0}},
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 6, Y: 0}},
	}

	// Scaled rest of 5: at distance 6 the bone does nothing
	bone := rider.NewBone(rider.RepelBone, 0, 1, 5, 0)
	bone.Process(points, 1)
	assert.Equal(t, types.Vector2{X: 0, Y: 0}, points[0].Pos)
	assert.Equal(t, types.Vector2{X: 6, Y: 0}, points[1].Pos)

	// Below the scaled rest it pushes both points apart
	points[1].Pos = types.Vector2{X: 4, Y: 0}
	bone.Process(points, 1)
	assert.Less(t, points[0].Pos.X, 0.0)
	assert.Greater(t, points[1].Pos.X, 4.0)
}

func TestFlutterBoneMovesOnlySecondPoint(t *testing.T) {
	points := []rider.Point{
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 0, Y: 0}},
		{Kind: rider.FlutterPoint, Pos: types.Vector2{X: 10, Y: 0}},
	}

	bone := rider.NewBone(rider.FlutterBone, 0, 1, 5, 0)
	bone.Process(points, 1)

	assert.Equal(t, types.Vector2{X: 0, Y: 0}, points[0].Pos)
	assert.Equal(t, types.Vector2{X: 5, Y: 0}, points[1].Pos)
}

func TestMountBoneIntact(t *testing.T) {
	points := []rider.Point{
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 0, Y: 0}},
		{Kind: rider.ContactPoint, Pos: types.Vector2{X: 5, Y: 0}},
	}
	bone := rider.NewBone(rider.MountBone, 0, 1, 5, 0.057)

	assert.True(t, bone.GetIntact(points, false))

	// Stretch far past the endurance
	points[1].Pos = types.Vector2{X: 8, Y: 0}
	assert.False(t, bone.GetIntact(points, false))
	// The doubled remount endurance still holds it
	assert.True(t, bone.GetIntact(points, true))
}

func TestJointTriggersOnCrossFlip(t *testing.T) {
	points := []rider.Point{
		{Pos: types.Vector2{X: 0, Y: 0}},
		{Pos: types.Vector2{X: 1, Y: 0}},
		{Pos: types.Vector2{X: 0, Y: 1}},
	}
	bones := []rider.Bone{
		rider.NewBone(rider.NormalBone, 1, 0, 1, 0),
		rider.NewBone(rider.NormalBone, 2, 0, 1, 0),
	}
	joint := rider.Joint{BoneA: 0, BoneB: 1}

	// (1,0) x (0,1) = 1: no trigger
	assert.False(t, joint.ShouldBreak(points, bones))

	// Flip the second bone below the first
	points[2].Pos = types.Vector2{X: 0, Y: -1}
	assert.True(t, joint.ShouldBreak(points, bones))
}

func TestDismountWithoutRemountGoesStraightToDismounted(t *testing.T) {
	e := defaultEntity(rider.RemountNone, false)
	require.Equal(t, rider.PhaseMounted, e.State.Phase())

	e.State.Dismount()
	assert.Equal(t, rider.PhaseDismounted, e.State.Phase())
	assert.False(t, e.State.IsMounted())
}

func TestRemountPhaseSequenceComV2(t *testing.T) {
	e := defaultEntity(rider.RemountComV2, true)
	donor := defaultEntity(rider.RemountComV2, true)
	donor.State.Dismount() // donor must not be mounted to lend its sled
	others := []*rider.Entity{donor}

	e.State.Dismount()
	require.Equal(t, rider.PhaseDismounting, e.State.Phase())
	require.Equal(t, 30, e.State.FramesUntilDismounted)

	phases := make(map[rider.MountPhase]int)
	for i := 0; i < 40 && e.State.Phase() != rider.PhaseMounted; i++ {
		phases[e.State.Phase()]++
		e.ProcessRemount(others)
	}

	assert.Equal(t, rider.PhaseMounted, e.State.Phase())
	assert.Equal(t, 30, phases[rider.PhaseDismounting])
	assert.Equal(t, 3, phases[rider.PhaseDismounted])
	assert.Equal(t, 3, phases[rider.PhaseRemounting])
}

func TestSelfRemountWithOwnSled(t *testing.T) {
	// A lone rider remounts its own sled: the candidate list contains the
	// rider itself and the swap exchanges nothing
	e := defaultEntity(rider.RemountComV2, true)
	e.State.Dismount()

	for i := 0; i < 40 && e.State.Phase() != rider.PhaseMounted; i++ {
		e.ProcessRemount([]*rider.Entity{e})
	}

	assert.Equal(t, rider.PhaseMounted, e.State.Phase())
	assert.True(t, e.State.SledIntact)
}

func TestMirroredSledBreaksAndDismounts(t *testing.T) {
	// Mirroring every contact point preserves all bone lengths but flips
	// every joint's cross product: the fakie condition
	e := defaultEntity(rider.RemountNone, false)
	for i := 0; i < e.NumContact; i++ {
		e.Points[i].Pos.X = 17.5 - e.Points[i].Pos.X
		e.Points[i].Prev = e.Points[i].Pos
	}

	g := grid.New(grid.V6_2, grid.CellSize)
	e.ProcessSkeleton(types.Vector2{}, g)

	assert.False(t, e.State.SledIntact)
	assert.False(t, e.State.IsMounted())
	assert.Equal(t, rider.PhaseDismounted, e.State.Phase())
}

func TestSledSwapExchangesPointsByValue(t *testing.T) {
	a := rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{}, rider.RemountComV2))
	b := rider.NewEntity(rider.NewEntityState(rider.InitialEntityParams{
		Position: types.Vector2{X: 500, Y: 0},
	}, rider.RemountComV2))

	aPeg := a.Points[0].Pos
	bPeg := b.Points[0].Pos

	a.SwapSleds(b)
	assert.Equal(t, bPeg, a.Points[0].Pos)
	assert.Equal(t, aPeg, b.Points[0].Pos)
	// Rider points stay put
	assert.Equal(t, types.Vector2{X: 5, Y: 0}, a.Points[4].Pos)

	a.SwapSleds(b)
	assert.Equal(t, aPeg, a.Points[0].Pos)
}

func TestSledIntactNeverRecovers(t *testing.T) {
	e := defaultEntity(rider.RemountNone, false)
	require.True(t, e.State.SledIntact)

	e.State.BreakSled()
	assert.False(t, e.State.SledIntact)
}

func TestCopySharesNothingMutable(t *testing.T) {
	e := defaultEntity(rider.RemountComV2, true)
	clone := e.Copy()

	clone.Points[0].Pos = types.Vector2{X: 999, Y: 999}
	clone.State.BreakSled()
	clone.State.Dismount()

	assert.Equal(t, types.Vector2{X: 0, Y: 0}, e.Points[0].Pos)
	assert.True(t, e.State.SledIntact)
	assert.Equal(t, rider.PhaseMounted, e.State.Phase())
}
