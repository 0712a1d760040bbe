package rider

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/bxrne/sledline/pkg/types"
)

// MountPhase is one of the rider/sled attachment states
type MountPhase string

const (
	// PhaseMounted means connected to the sled
	PhaseMounted MountPhase = "mounted"
	// PhaseDismounting means just disconnected, not yet ready to reconnect
	PhaseDismounting MountPhase = "dismounting"
	// PhaseDismounted means fully disconnected, ready to reconnect
	PhaseDismounted MountPhase = "dismounted"
	// PhaseRemounting means currently reconnecting
	PhaseRemounting MountPhase = "remounting"
)

// RemountVersion selects which player's remount rules apply
type RemountVersion int

const (
	// RemountNone: pre-remount tracks; the tail fakie breaks the sled after
	// dismount
	RemountNone RemountVersion = iota
	// RemountComV1: "remountable": true; the tail fakie does not break the
	// sled after dismount (a player bug)
	RemountComV1
	// RemountComV2: "remountable": 1; the tail fakie breaks the sled after
	// dismount (fixed)
	RemountComV2
	// RemountLra: LRA implements its own remount ordering and bone strengths
	RemountLra
)

const (
	framesUntilDismountedReset = 30
	framesUntilRemountingReset = 3
	framesUntilMountedReset    = 3
)

// InitialEntityParams positions a new entity on the track
type InitialEntityParams struct {
	Position   types.Vector2
	Velocity   types.Vector2
	Rotation   float64 // degrees
	CanRemount bool
}

// mountMachine wraps the phase graph; transitions with timers are driven by
// EntityState. The events name the usual phase changes; enterMountPhase sets
// the target phase directly when no event applies, so no change is refused.
type mountMachine struct {
	*fsm.FSM
}

func newMountMachine(initial MountPhase) *mountMachine {
	return &mountMachine{
		FSM: fsm.NewFSM(
			string(initial),
			fsm.Events{
				{Name: "dismount", Src: []string{string(PhaseMounted)}, Dst: string(PhaseDismounting)},
				{Name: "eject", Src: []string{string(PhaseMounted), string(PhaseDismounting), string(PhaseRemounting)}, Dst: string(PhaseDismounted)},
				{Name: "settle", Src: []string{string(PhaseDismounting)}, Dst: string(PhaseDismounted)},
				{Name: "grab", Src: []string{string(PhaseDismounted)}, Dst: string(PhaseRemounting)},
				{Name: "complete", Src: []string{string(PhaseRemounting)}, Dst: string(PhaseMounted)},
			},
			fsm.Callbacks{},
		),
	}
}

// eventFor picks the event that moves the machine to the target phase.
func (m *mountMachine) eventFor(target MountPhase) string {
	switch target {
	case PhaseDismounting:
		return "dismount"
	case PhaseDismounted:
		if MountPhase(m.Current()) == PhaseDismounting {
			return "settle"
		}
		return "eject"
	case PhaseRemounting:
		return "grab"
	default:
		return "complete"
	}
}

// EntityState tracks sled integrity and the mount phase machine with its
// countdown timers.
type EntityState struct {
	Init           InitialEntityParams
	RemountVersion RemountVersion
	SledIntact     bool

	machine *mountMachine

	FramesUntilDismounted int
	FramesUntilRemounting int
	FramesUntilMounted    int
}

// NewEntityState starts mounted with an intact sled
func NewEntityState(init InitialEntityParams, remountVersion RemountVersion) *EntityState {
	return &EntityState{
		Init:           init,
		RemountVersion: remountVersion,
		SledIntact:     true,
		machine:        newMountMachine(PhaseMounted),
	}
}

// Phase returns the current mount phase
func (s *EntityState) Phase() MountPhase {
	return MountPhase(s.machine.Current())
}

// IsMounted reports whether mount bones and mount joints are active
func (s *EntityState) IsMounted() bool {
	phase := s.Phase()
	return phase == PhaseMounted || phase == PhaseRemounting
}

// AvailableToSwapSled reports whether another rider may take this sled
func (s *EntityState) AvailableToSwapSled() bool {
	return s.SledIntact && !s.IsMounted()
}

// BreakSled marks the sled broken; it never becomes intact again
func (s *EntityState) BreakSled() {
	s.SledIntact = false
}

// enterMountPhase sets the new phase while safely resetting timers
func (s *EntityState) enterMountPhase(target MountPhase, resetTimer bool) {
	if resetTimer {
		switch target {
		case PhaseDismounting:
			s.FramesUntilDismounted = framesUntilDismountedReset
		case PhaseDismounted:
			s.FramesUntilRemounting = framesUntilRemountingReset
		case PhaseRemounting:
			s.FramesUntilMounted = framesUntilMountedReset
		}
	}

	if s.Phase() == target {
		return
	}
	if err := s.machine.Event(context.Background(), s.machine.eventFor(target)); err != nil {
		s.machine.SetState(string(target))
	}
}

// Dismount reacts to a broken mount bone or a triggered mount joint
func (s *EntityState) Dismount() {
	if s.RemountVersion == RemountNone || !s.Init.CanRemount {
		s.enterMountPhase(PhaseDismounted, false)
		return
	}

	switch s.Phase() {
	case PhaseMounted:
		s.enterMountPhase(PhaseDismounting, true)
	case PhaseRemounting:
		s.enterMountPhase(PhaseDismounted, true)
	}
}

// Copy deep-copies the state including the machine's current phase
func (s *EntityState) Copy() *EntityState {
	return &EntityState{
		Init:                  s.Init,
		RemountVersion:        s.RemountVersion,
		SledIntact:            s.SledIntact,
		machine:               newMountMachine(s.Phase()),
		FramesUntilDismounted: s.FramesUntilDismounted,
		FramesUntilRemounting: s.FramesUntilRemounting,
		FramesUntilMounted:    s.FramesUntilMounted,
	}
}

// CanEnterMountPhase checks that every mount bone stays intact with the
// endurance of the target phase; the .com players additionally require that
// no joint is triggering.
func (s *EntityState) CanEnterMountPhase(e *Entity, target MountPhase) bool {
	for i := range e.StructuralBones {
		bone := &e.StructuralBones[i]
		if bone.Kind != MountBone {
			continue
		}
		if !bone.GetIntact(e.Points, target == PhaseRemounting) {
			return false
		}
	}

	if s.RemountVersion != RemountLra {
		for i := range e.BreakJoints {
			if e.BreakJoints[i].ShouldBreak(e.Points, e.StructuralBones) {
				return false
			}
		}
		for i := range e.MountJoints {
			if e.MountJoints[i].ShouldBreak(e.Points, e.StructuralBones) {
				return false
			}
		}
	}

	return true
}

// CanEnterRemounting looks for another entity whose sled can be taken: the
// sleds are swapped by value, tested, and swapped back on failure.
func (s *EntityState) CanEnterRemounting(e *Entity, others []*Entity) bool {
	for _, other := range others {
		if !other.State.AvailableToSwapSled() {
			continue
		}

		e.SwapSleds(other)

		if s.CanEnterMountPhase(e, PhaseRemounting) {
			return true
		}

		e.SwapSleds(other)
	}

	return false
}
