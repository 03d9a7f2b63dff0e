// Package geometry provides the collision shapes and queries the simulation
// pipeline is built on: shape types with mass properties, world-space AABBs,
// contact manifold generation, and the distance/time-of-impact queries used
// by continuous collision detection.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Rotation is a 2D rotation stored as cos/sin to avoid repeated trig calls.
type Rotation struct {
	Cos, Sin float64
}

// NewRotation builds a rotation from an angle in radians.
func NewRotation(angle float64) Rotation {
	return Rotation{Cos: math.Cos(angle), Sin: math.Sin(angle)}
}

// IdentityRotation is the zero-angle rotation.
func IdentityRotation() Rotation { return Rotation{Cos: 1} }

// Angle returns the rotation angle in radians in (-pi, pi].
func (r Rotation) Angle() float64 { return math.Atan2(r.Sin, r.Cos) }

// Apply rotates v.
func (r Rotation) Apply(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{r.Cos*v.X() - r.Sin*v.Y(), r.Sin*v.X() + r.Cos*v.Y()}
}

// Inverse applies the inverse rotation to v.
func (r Rotation) Inverse(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{r.Cos*v.X() + r.Sin*v.Y(), -r.Sin*v.X() + r.Cos*v.Y()}
}

// Mul composes two rotations.
func (r Rotation) Mul(o Rotation) Rotation {
	return Rotation{
		Cos: r.Cos*o.Cos - r.Sin*o.Sin,
		Sin: r.Sin*o.Cos + r.Cos*o.Sin,
	}
}

// Isometry is a rigid transform: rotation followed by translation.
type Isometry struct {
	Translation mgl64.Vec2
	Rotation    Rotation
}

// NewIsometry builds an isometry from a translation and an angle in radians.
func NewIsometry(translation mgl64.Vec2, angle float64) Isometry {
	return Isometry{Translation: translation, Rotation: NewRotation(angle)}
}

// IdentityIsometry returns the identity transform.
func IdentityIsometry() Isometry { return Isometry{Rotation: IdentityRotation()} }

// Point maps a local point to world space.
func (iso Isometry) Point(p mgl64.Vec2) mgl64.Vec2 {
	return iso.Rotation.Apply(p).Add(iso.Translation)
}

// InversePoint maps a world point to local space.
func (iso Isometry) InversePoint(p mgl64.Vec2) mgl64.Vec2 {
	return iso.Rotation.Inverse(p.Sub(iso.Translation))
}

// Vector maps a local direction to world space (rotation only).
func (iso Isometry) Vector(v mgl64.Vec2) mgl64.Vec2 { return iso.Rotation.Apply(v) }

// Mul composes two isometries: (iso * o)(p) == iso(o(p)).
func (iso Isometry) Mul(o Isometry) Isometry {
	return Isometry{
		Translation: iso.Point(o.Translation),
		Rotation:    iso.Rotation.Mul(o.Rotation),
	}
}

// Angle returns the rotation angle in radians.
func (iso Isometry) Angle() float64 { return iso.Rotation.Angle() }

// IsFinite reports whether all components are finite numbers.
func (iso Isometry) IsFinite() bool {
	return isFinite(iso.Translation.X()) && isFinite(iso.Translation.Y()) &&
		isFinite(iso.Rotation.Cos) && isFinite(iso.Rotation.Sin)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Lerp interpolates between two isometries at t in [0, 1], interpolating the
// angle linearly along the shorter arc.
func Lerp(a, b Isometry, t float64) Isometry {
	translation := a.Translation.Add(b.Translation.Sub(a.Translation).Mul(t))
	da := WrapAngle(b.Angle() - a.Angle())
	return NewIsometry(translation, a.Angle()+t*da)
}

// WrapAngle maps an angle to (-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Perp returns v rotated by +90 degrees.
func Perp(v mgl64.Vec2) mgl64.Vec2 { return mgl64.Vec2{-v.Y(), v.X()} }

// Cross returns the 2D scalar cross product a x b.
func Cross(a, b mgl64.Vec2) float64 { return a.X()*b.Y() - a.Y()*b.X() }

// CrossScalar returns the 2D cross product of a scalar (angular velocity)
// with a vector: w x v.
func CrossScalar(w float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-w * v.Y(), w * v.X()}
}
