package rider

import (
	"math"

	"github.com/EngoEngine/ecs"

	"github.com/bxrne/sledline/pkg/grid"
	"github.com/bxrne/sledline/pkg/types"
)

const (
	mountEndurance    = 0.057
	repelLengthFactor = 0.5
	scarfFriction     = 0.1
	comScarfFriction  = 0.2

	remountStrengthFactor    = 0.1
	lraRemountStrengthFactor = 0.5
)

// Entity is one articulated rider+sled body. Points, bones, and joints are
// arenas addressed by index; their order is frozen at construction and is
// load-bearing for replay determinism.
type Entity struct {
	ecs.BasicEntity

	State *EntityState

	// Points holds the contact points first, then the flutter points
	Points     []Point
	NumContact int

	StructuralBones []Bone
	FlutterBones    []Bone
	MountJoints     []Joint
	BreakJoints     []Joint

	dismountedThisFrame bool
}

// NewEntity assembles the default rider and sled. The template order matches
// the linerider.com player, and hard-coded parts (tail origin, sled point
// range) depend on it. A custom-skeleton system would separate rider and sled
// into general skeletons joined by a mount description.
func NewEntity(state *EntityState) *Entity {
	e := &Entity{
		BasicEntity: ecs.NewBasic(),
		State:       state,
	}

	flutterFriction := scarfFriction
	if ComScarf {
		flutterFriction = comScarfFriction
	}

	// Sled points
	peg := e.addContactPoint(types.Vector2{X: 0.0, Y: 0.0}, 0.8)
	tail := e.addContactPoint(types.Vector2{X: 0.0, Y: 5.0}, 0.0)
	nose := e.addContactPoint(types.Vector2{X: 15.0, Y: 5.0}, 0.0)
	str := e.addContactPoint(types.Vector2{X: 17.5, Y: 0.0}, 0.0)

	// Rider points
	butt := e.addContactPoint(types.Vector2{X: 5.0, Y: 0.0}, 0.8)
	shoulder := e.addContactPoint(types.Vector2{X: 5.0, Y: -5.5}, 0.8)
	rightHand := e.addContactPoint(types.Vector2{X: 11.5, Y: -5.0}, 0.1)
	leftHand := e.addContactPoint(types.Vector2{X: 11.5, Y: -5.0}, 0.1)
	leftFoot := e.addContactPoint(types.Vector2{X: 10.0, Y: 5.0}, 0.0)
	rightFoot := e.addContactPoint(types.Vector2{X: 10.0, Y: 5.0}, 0.0)
	scarf0 := e.addFlutterPoint(types.Vector2{X: 3, Y: -5.5}, flutterFriction)
	scarf1 := e.addFlutterPoint(types.Vector2{X: 1, Y: -5.5}, flutterFriction)
	scarf2 := e.addFlutterPoint(types.Vector2{X: -1, Y: -5.5}, flutterFriction)
	scarf3 := e.addFlutterPoint(types.Vector2{X: -3, Y: -5.5}, flutterFriction)
	scarf4 := e.addFlutterPoint(types.Vector2{X: -5, Y: -5.5}, flutterFriction)
	scarf5 := e.addFlutterPoint(types.Vector2{X: -7, Y: -5.5}, flutterFriction)
	scarf6 := e.addFlutterPoint(types.Vector2{X: -9, Y: -5.5}, flutterFriction)

	if OffsetBeforeBones {
		e.applyInitialState()
	}

	// Sled bones
	sledBack := e.addNormalBone(peg, tail)
	e.addNormalBone(tail, nose)
	e.addNormalBone(nose, str)
	sledFront := e.addNormalBone(str, peg)
	e.addNormalBone(peg, nose)
	e.addNormalBone(str, tail)
	e.addMountBone(peg, butt, mountEndurance)
	e.addMountBone(tail, butt, mountEndurance)
	e.addMountBone(nose, butt, mountEndurance)

	// Rider bones
	torso := e.addNormalBone(shoulder, butt)
	e.addNormalBone(shoulder, leftHand)
	e.addNormalBone(shoulder, rightHand)
	e.addNormalBone(butt, leftFoot)
	e.addNormalBone(butt, rightFoot)
	e.addNormalBone(shoulder, rightHand)
	e.addMountBone(shoulder, peg, mountEndurance)
	e.addMountBone(leftHand, str, mountEndurance)
	e.addMountBone(rightHand, str, mountEndurance)
	e.addMountBone(leftFoot, nose, mountEndurance)
	e.addMountBone(rightFoot, nose, mountEndurance)
	e.addRepelBone(shoulder, leftFoot, repelLengthFactor)
	e.addRepelBone(shoulder, rightFoot, repelLengthFactor)
	e.addFlutterBone(shoulder, scarf0)
	e.addFlutterBone(scarf0, scarf1)
	e.addFlutterBone(scarf1, scarf2)
	e.addFlutterBone(scarf2, scarf3)
	e.addFlutterBone(scarf3, scarf4)
	e.addFlutterBone(scarf4, scarf5)
	e.addFlutterBone(scarf5, scarf6)

	if !OffsetBeforeBones {
		e.applyInitialState()
	}

	e.addMountJoint(sledBack, sledFront)
	e.addMountJoint(torso, sledFront)
	e.addBreakJoint(sledBack, sledFront)

	return e
}

func (e *Entity) addContactPoint(position types.Vector2, friction float64) int {
	e.Points = append(e.Points, Point{
		Kind:     ContactPoint,
		Pos:      position,
		Prev:     position,
		Friction: friction,
	})
	e.NumContact++
	return len(e.Points) - 1
}

func (e *Entity) addFlutterPoint(position types.Vector2, airFriction float64) int {
	e.Points = append(e.Points, Point{
		Kind:        FlutterPoint,
		Pos:         position,
		Prev:        position,
		AirFriction: airFriction,
	})
	return len(e.Points) - 1
}

func (e *Entity) addNormalBone(p1, p2 int) int {
	rest := e.Points[p1].Pos.DistanceFrom(e.Points[p2].Pos)
	e.StructuralBones = append(e.StructuralBones, NewBone(NormalBone, p1, p2, rest, 0))
	return len(e.StructuralBones) - 1
}

func (e *Entity) addMountBone(p1, p2 int, endurance float64) int {
	rest := e.Points[p1].Pos.DistanceFrom(e.Points[p2].Pos)
	e.StructuralBones = append(e.StructuralBones, NewBone(MountBone, p1, p2, rest, endurance))
	return len(e.StructuralBones) - 1
}

func (e *Entity) addRepelBone(p1, p2 int, lengthFactor float64) int {
	rest := e.Points[p1].Pos.DistanceFrom(e.Points[p2].Pos) * lengthFactor
	e.StructuralBones = append(e.StructuralBones, NewBone(RepelBone, p1, p2, rest, 0))
	return len(e.StructuralBones) - 1
}

func (e *Entity) addFlutterBone(p1, p2 int) int {
	rest := e.Points[p1].Pos.DistanceFrom(e.Points[p2].Pos)
	e.FlutterBones = append(e.FlutterBones, NewBone(FlutterBone, p1, p2, rest, 0))
	return len(e.FlutterBones) - 1
}

func (e *Entity) addMountJoint(bone1, bone2 int) {
	e.MountJoints = append(e.MountJoints, Joint{BoneA: bone1, BoneB: bone2})
}

func (e *Entity) addBreakJoint(bone1, bone2 int) {
	e.BreakJoints = append(e.BreakJoints, Joint{BoneA: bone1, BoneB: bone2})
}

// applyInitialState rotates the whole body about the tail, then translates it
// and seeds the starting velocity. cos and sin here are the one place the
// assembly depends on libm; the reference angle of 50 degrees happens to
// round identically across the platforms tested.
func (e *Entity) applyInitialState() {
	cosTheta := math.Cos(e.State.Init.Rotation * math.Pi / 180)
	sinTheta := math.Sin(e.State.Init.Rotation * math.Pi / 180)
	origin := e.Points[1].Pos // tail

	for i := range e.Points {
		offset := e.Points[i].Pos.Subtract(origin)
		e.Points[i].Pos = types.Vector2{
			X: origin.X + float64(offset.X*cosTheta) - float64(offset.Y*sinTheta),
			Y: origin.Y + float64(offset.X*sinTheta) + float64(offset.Y*cosTheta),
		}
	}

	for i := range e.Points {
		startPosition := e.Points[i].Pos.Add(e.State.Init.Position)
		startVelocity := e.Points[i].Vel.Add(e.State.Init.Velocity)
		e.Points[i].Pos = startPosition
		e.Points[i].Vel = startVelocity
		e.Points[i].Prev = startPosition.Subtract(startVelocity)
	}
}

// Copy deep-copies the mutable per-frame state. Bones and joints never change
// after construction, so the clones share them.
func (e *Entity) Copy() *Entity {
	points := make([]Point, len(e.Points))
	copy(points, e.Points)

	return &Entity{
		BasicEntity:     e.BasicEntity,
		State:           e.State.Copy(),
		Points:          points,
		NumContact:      e.NumContact,
		StructuralBones: e.StructuralBones,
		FlutterBones:    e.FlutterBones,
		MountJoints:     e.MountJoints,
		BreakJoints:     e.BreakJoints,
	}
}

// sledPointCount is how many leading points belong to the sled
const sledPointCount = 4

// SwapSleds exchanges the sled contact points of two entities by value;
// remount v2 also trades sled integrity.
func (e *Entity) SwapSleds(other *Entity) {
	if e.State.RemountVersion == RemountComV2 {
		e.State.SledIntact, other.State.SledIntact = other.State.SledIntact, e.State.SledIntact
	}
	for i := 0; i < sledPointCount; i++ {
		e.Points[i].Pos, other.Points[i].Pos = other.Points[i].Pos, e.Points[i].Pos
		e.Points[i].Vel, other.Points[i].Vel = other.Points[i].Vel, e.Points[i].Vel
		e.Points[i].Prev, other.Points[i].Prev = other.Points[i].Prev, e.Points[i].Prev
	}
}

func (e *Entity) processInitialPoints(gravity types.Vector2) {
	for i := range e.Points {
		e.Points[i].InitialStep(gravity)
	}
}

// processBones runs one relaxation pass over the structural bones. LRA keys
// the mount handling off the phase known at the start of the frame, while the
// .com players read the current phase, which can change mid-frame.
func (e *Entity) processBones(initialPhase MountPhase) {
	lra := e.State.RemountVersion == RemountLra

	for i := range e.StructuralBones {
		bone := &e.StructuralBones[i]

		if bone.Kind != MountBone {
			strength := 1.0
			if lra && initialPhase == PhaseRemounting {
				// Non-mount bones also soften during an LRA remount
				strength = lraRemountStrengthFactor
			}
			bone.Process(e.Points, strength)
			continue
		}

		active := e.State.IsMounted()
		if lra {
			active = initialPhase == PhaseMounted || initialPhase == PhaseRemounting
		}
		if !active {
			continue
		}

		var intact bool
		strength := 1.0
		switch {
		case lra && initialPhase == PhaseRemounting:
			intact = bone.GetIntact(e.Points, true)
			strength = lraRemountStrengthFactor
		case !lra && e.State.Phase() == PhaseRemounting:
			intact = bone.GetIntact(e.Points, true)
			strength = remountStrengthFactor
		default:
			intact = bone.GetIntact(e.Points, false)
		}

		if e.dismountedThisFrame {
			continue
		}
		if intact {
			bone.Process(e.Points, strength)
		} else {
			e.dismountedThisFrame = true
			e.State.Dismount()
		}
	}
}

// processCollisions collides every contact point with the lines around it.
// Later lines see the state earlier lines produced, and a line registered in
// several cells of the neighborhood is deliberately processed once per cell.
func (e *Entity) processCollisions(g *grid.Grid) {
	for i := 0; i < e.NumContact; i++ {
		point := &e.Points[i]
		for _, l := range g.GetLinesNearPosition(point.Pos) {
			newPos, newPrev, _ := l.Interact(point.Pos, point.Vel, point.Prev, point.Friction)
			point.Pos = newPos
			point.Prev = newPrev
		}
	}
}

func (e *Entity) processFlutterBones() {
	for i := range e.FlutterBones {
		e.FlutterBones[i].Process(e.Points, 1)
	}
}

func (e *Entity) processMountJoints() {
	if !e.State.IsMounted() {
		return
	}
	if LraLegacyFakieCheck && e.dismountedThisFrame {
		return
	}

	for i := range e.MountJoints {
		if e.MountJoints[i].ShouldBreak(e.Points, e.StructuralBones) && !e.dismountedThisFrame {
			e.dismountedThisFrame = true
			e.State.Dismount()
			if e.State.RemountVersion == RemountLra {
				// LRA also breaks the sled on a mount joint trigger
				e.State.BreakSled()
			}
		}
	}
}

func (e *Entity) processBreakJoints() {
	if e.State.RemountVersion == RemountLra || e.State.RemountVersion == RemountComV1 {
		if !e.State.IsMounted() {
			return
		}
		if LraLegacyFakieCheck && e.dismountedThisFrame {
			return
		}
	}

	for i := range e.BreakJoints {
		if e.State.SledIntact && e.BreakJoints[i].ShouldBreak(e.Points, e.StructuralBones) {
			e.State.BreakSled()
		}
	}
}

// ProcessSkeleton advances the entity one frame: integration, six rounds of
// bone relaxation and collision, the scarf, then the joint checks.
func (e *Entity) ProcessSkeleton(gravity types.Vector2, g *grid.Grid) {
	e.processInitialPoints(gravity)

	initialPhase := e.State.Phase()
	for iter := 0; iter < 6; iter++ {
		e.processBones(initialPhase)
		e.processCollisions(g)
	}

	e.processFlutterBones()

	e.processMountJoints()
	e.processBreakJoints()
}

// ProcessRemount advances the mount phase machine at the frame's end. The
// .com players decrement their counters before testing them; LRA tests first,
// which shifts every phase change by a frame.
func (e *Entity) ProcessRemount(others []*Entity) {
	s := e.State

	if s.RemountVersion == RemountNone || !s.Init.CanRemount {
		return
	}

	if e.dismountedThisFrame {
		e.dismountedThisFrame = false
		return
	}

	if s.RemountVersion == RemountLra {
		if !s.SledIntact {
			s.enterMountPhase(PhaseDismounted, false)
			return
		}

		switch s.Phase() {
		case PhaseMounted:
		case PhaseDismounting:
			if s.FramesUntilDismounted <= 0 {
				s.enterMountPhase(PhaseDismounted, true)
			} else {
				s.FramesUntilDismounted--
			}
		case PhaseDismounted:
			if s.CanEnterRemounting(e, others) {
				if s.FramesUntilRemounting <= 0 {
					s.enterMountPhase(PhaseRemounting, true)
				} else {
					s.FramesUntilRemounting--
				}
			} else {
				s.enterMountPhase(PhaseDismounted, true)
			}
		default:
			if s.CanEnterMountPhase(e, PhaseMounted) {
				if s.FramesUntilMounted <= 0 {
					s.enterMountPhase(PhaseMounted, true)
				} else {
					s.FramesUntilMounted--
				}
			} else {
				s.enterMountPhase(PhaseRemounting, true)
			}
		}
		return
	}

	switch s.Phase() {
	case PhaseMounted:
	case PhaseDismounting:
		s.FramesUntilDismounted--
		if s.FramesUntilDismounted <= 0 {
			s.enterMountPhase(PhaseDismounted, true)
		}
	case PhaseDismounted:
		if s.CanEnterRemounting(e, others) {
			s.FramesUntilRemounting--
		} else {
			s.enterMountPhase(PhaseDismounted, true)
		}
		if s.FramesUntilRemounting <= 0 {
			s.enterMountPhase(PhaseRemounting, true)
		}
	default:
		if s.CanEnterMountPhase(e, PhaseMounted) {
			s.FramesUntilMounted--
		} else {
			s.enterMountPhase(PhaseRemounting, true)
		}
		if s.FramesUntilMounted <= 0 {
			s.enterMountPhase(PhaseMounted, true)
		}
	}
}
