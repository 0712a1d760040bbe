package rider

import "github.com/bxrne/sledline/pkg/types"

// BoneKind selects the constraint a bone enforces
type BoneKind int

const (
	// NormalBone keeps two points at rest length
	NormalBone BoneKind = iota
	// MountBone keeps rider and sled together while mounted; breaks past its
	// endurance
	MountBone
	// RepelBone only pushes points apart below a fraction of rest length
	RepelBone
	// FlutterBone pulls only its second point, for the scarf chain
	FlutterBone
)

// Bone is a length constraint between two points, addressed by index into the
// owning entity's point arena. RestLength is frozen at construction; for
// repel bones it is already scaled by the length factor.
type Bone struct {
	Kind       BoneKind
	P1, P2     int
	RestLength float64
	// Endurance is the strain threshold of mount bones
	Endurance float64
	bias      float64
}

// NewBone builds a bone over the given point indices. The rest length is
// frozen here; repel bones receive it already scaled.
func NewBone(kind BoneKind, p1, p2 int, restLength, endurance float64) Bone {
	bias := 0.5
	if kind == FlutterBone {
		bias = 1.0
	}
	return Bone{
		Kind:       kind,
		P1:         p1,
		P2:         p2,
		RestLength: restLength,
		Endurance:  endurance,
		bias:       bias,
	}
}

// Vector returns point1 minus point2
func (b *Bone) Vector(points []Point) types.Vector2 {
	return points[b.P1].Pos.Subtract(points[b.P2].Pos)
}

// adjustment is the relative strain of the bone; zero-length bones yield zero
// so the relaxation never divides by zero.
func (b *Bone) adjustment(points []Point) float64 {
	currentLength := b.Vector(points).Magnitude()
	if currentLength == 0 {
		return 0
	}
	return (currentLength - b.RestLength) / currentLength
}

// GetIntact reports whether a mount bone holds at its current strain. The
// endurance doubles while remounting so a grabbing rider is not immediately
// shaken off.
func (b *Bone) GetIntact(points []Point, remounting bool) bool {
	endurance := b.Endurance
	if remounting {
		endurance = b.Endurance * 2
	}
	return b.adjustment(points) <= endurance*b.RestLength
}

// Process relaxes the bone one step, moving positions only; velocity and
// previous position are untouched. Repel bones skip entirely above their
// scaled rest length.
func (b *Bone) Process(points []Point, strength float64) {
	if b.Kind == RepelBone && b.Vector(points).Magnitude() >= b.RestLength {
		return
	}

	adjustment := b.adjustment(points)
	boneVector := b.Vector(points)

	if b.Kind == FlutterBone {
		points[b.P2].Pos = boneVector.MultiplyScalar(adjustment).MultiplyScalar(b.bias).Add(points[b.P2].Pos)
		return
	}

	points[b.P1].Pos = points[b.P1].Pos.Subtract(boneVector.MultiplyScalar(adjustment).MultiplyScalar(b.bias).MultiplyScalar(strength))
	points[b.P2].Pos = points[b.P2].Pos.Add(boneVector.MultiplyScalar(adjustment).MultiplyScalar(1 - b.bias).MultiplyScalar(strength))
}
