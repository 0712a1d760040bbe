package line

import (
	"math"

	"github.com/bxrne/sledline/pkg/types"
)

const (
	// HitboxHeight is how far above a line's surface a contact point interacts
	HitboxHeight = 10.0
	// MaxExtensionRatio caps how far an extension grows the active segment
	MaxExtensionRatio = 0.25
	// AccelerationMult scales a line's multiplier into per-iteration velocity
	AccelerationMult = 0.1
)

// Line is a physics line with precomputed collision data. The derived fields
// are only ever written by updateComputed, so a Line is immutable between
// explicit edits.
type Line struct {
	ID            int64
	P1, P2        types.Vector2
	Flipped       bool
	LeftExtended  bool
	RightExtended bool
	// Acceleration is the red-line multiplier, zero for blue lines
	Acceleration float64

	vector      types.Vector2
	length      float64
	invLengthSq float64
	unit        types.Vector2
	normalUnit  types.Vector2
	extRatio    float64
	limitLeft   float64
	limitRight  float64
	accelVector types.Vector2
}

// New builds a line and precomputes its collision data. Coincident endpoints
// are filtered by the track loader, so length is assumed to be nonzero.
func New(id int64, p1, p2 types.Vector2, flipped, leftExt, rightExt bool, acceleration float64) *Line {
	l := &Line{
		ID:            id,
		P1:            p1,
		P2:            p2,
		Flipped:       flipped,
		LeftExtended:  leftExt,
		RightExtended: rightExt,
		Acceleration:  acceleration,
	}
	l.updateComputed()
	return l
}

func (l *Line) updateComputed() {
	l.vector = l.P2.Subtract(l.P1)
	l.length = l.vector.Magnitude()
	l.invLengthSq = 1 / l.vector.MagnitudeSq()
	// Intentional multiplication, matching the replay players
	l.unit = l.vector.MultiplyScalar(1 / l.length)
	l.normalUnit = l.unit.RotCCW()
	l.extRatio = math.Min(MaxExtensionRatio, HitboxHeight/l.length)
	l.limitLeft = 0.0
	l.limitRight = 1.0
	l.accelVector = l.unit.MultiplyScalar(l.Acceleration).MultiplyScalar(AccelerationMult)

	if l.Flipped {
		l.normalUnit = l.normalUnit.MultiplyScalar(-1)
	}
	if l.LeftExtended {
		l.limitLeft -= l.extRatio
	}
	if l.RightExtended {
		l.limitRight += l.extRatio
	}
}

// SetEndpoints moves the line and recomputes its collision data
func (l *Line) SetEndpoints(p1, p2 types.Vector2) {
	l.P1 = p1
	l.P2 = p2
	l.updateComputed()
}

// SetFlipped flips which side of the line is collidable
func (l *Line) SetFlipped(flipped bool) {
	l.Flipped = flipped
	l.updateComputed()
}

// SetExtensions toggles the endpoint extensions
func (l *Line) SetExtensions(left, right bool) {
	l.LeftExtended = left
	l.RightExtended = right
	l.updateComputed()
}

// Vector returns p2 - p1
func (l *Line) Vector() types.Vector2 { return l.vector }

// Length returns the line's length
func (l *Line) Length() float64 { return l.length }

// NormalUnit returns the unit vector pointing out of the collidable side
func (l *Line) NormalUnit() types.Vector2 { return l.normalUnit }

// Limits returns the active segment range in line-parameter space
func (l *Line) Limits() (float64, float64) { return l.limitLeft, l.limitRight }

// AccelerationVector returns the per-iteration velocity boost of a red line
func (l *Line) AccelerationVector() types.Vector2 { return l.accelVector }

// Interact collides a contact point with the line. It returns the point's new
// position and previous position; when the point is outside the hitbox or
// moving away from the surface both are returned unchanged. Velocity is left
// alone so the next frame's integration re-derives it.
func (l *Line) Interact(pos, vel, prev types.Vector2, friction float64) (types.Vector2, types.Vector2, bool) {
	offsetFromPoint := pos.Subtract(l.P1)
	movingIntoLine := l.normalUnit.Dot(vel) > 0
	distFromLineTop := l.normalUnit.Dot(offsetFromPoint)
	posBetweenEnds := l.vector.Dot(offsetFromPoint) * l.invLengthSq

	if !(movingIntoLine &&
		0 < distFromLineTop && distFromLineTop < HitboxHeight &&
		l.limitLeft <= posBetweenEnds && posBetweenEnds <= l.limitRight) {
		return pos, prev, false
	}

	newPosition := l.normalUnit.MultiplyScalar(distFromLineTop).Subtract(pos).MultiplyScalar(-1)
	frictionVector := l.normalUnit.RotCW().MultiplyScalar(friction).MultiplyScalar(distFromLineTop)

	if prev.X >= newPosition.X {
		frictionVector.X *= -1
	}
	if prev.Y < newPosition.Y {
		frictionVector.Y *= -1
	}

	newPreviousPosition := prev.Add(frictionVector).Subtract(l.accelVector)

	return newPosition, newPreviousPosition, true
}
