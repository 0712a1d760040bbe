package rider

import (
	"math"

	"github.com/bxrne/sledline/pkg/types"
)

// PointKind separates colliding contact points from air-only flutter points
type PointKind int

const (
	// ContactPoint collides with lines
	ContactPoint PointKind = iota
	// FlutterPoint only feels gravity and flutter bones; used for the scarf
	FlutterPoint
)

// Point is one mass point of an entity. Prev is not necessarily Pos minus
// Vel: it records the effective state after collision forces and is what the
// next frame derives velocity from.
type Point struct {
	Kind PointKind
	Pos  types.Vector2
	Vel  types.Vector2
	Prev types.Vector2
	// Friction applies on line contact (contact points)
	Friction float64
	// AirFriction damps velocity every frame (flutter points)
	AirFriction float64
}

// InitialStep advances the point one frame of Verlet-style integration
func (p *Point) InitialStep(gravity types.Vector2) {
	computedVelocity := p.Pos.Subtract(p.Prev)

	var newVelocity types.Vector2
	if p.Kind == FlutterPoint {
		newVelocity = computedVelocity.MultiplyScalar(1 - p.AirFriction).Add(gravity)
	} else {
		newVelocity = computedVelocity.Add(gravity)
	}

	currentPosition := p.Pos
	newPosition := currentPosition.Add(newVelocity)

	if p.Kind == FlutterPoint && ComScarf {
		newPosition = newPosition.Add(getFlutter(newVelocity, currentPosition))
	}

	p.Pos = newPosition
	p.Vel = newVelocity
	p.Prev = currentPosition
}

// glsl pseudo-randomness
func flutterRand(seed types.Vector2) float64 {
	next := math.Sin(seed.Dot(types.Vector2{X: 12.9898, Y: 78.233})) * 43758.5453
	return next - math.Trunc(next)
}

func getFlutter(velocity, seedValue types.Vector2) types.Vector2 {
	// Smaller value means more flutter as speed increases
	const speedThreshold = 40.0
	// Intensity of length change
	const intensity = 2.0

	speed := math.Pow(velocity.MagnitudeSq(), 0.25)
	randomLength := flutterRand(velocity)
	randomAngle := flutterRand(seedValue)
	randomLength *= intensity * speed * -math.Expm1(-speed/speedThreshold)
	randomAngle *= 2 * math.Pi
	return types.Vector2{X: math.Cos(randomAngle), Y: math.Sin(randomAngle)}.MultiplyScalar(randomLength)
}
