package dynamics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/geometry"
)

// InteractionGroups is a collision-group bitmask filter. Two colliders may
// interact only if each one's memberships intersect the other's filter.
type InteractionGroups struct {
	Memberships uint32
	Filter      uint32
}

// DefaultInteractionGroups interacts with everything.
func DefaultInteractionGroups() InteractionGroups {
	return InteractionGroups{Memberships: ^uint32(0), Filter: ^uint32(0)}
}

// Test reports whether two groups allow interaction.
func (g InteractionGroups) Test(o InteractionGroups) bool {
	return g.Memberships&o.Filter != 0 && o.Memberships&g.Filter != 0
}

// Collider attaches a collision shape to a rigid body.
type Collider struct {
	Shape   geometry.Shape
	Parent  BodyHandle
	PoseRel geometry.Isometry

	// Pose is the collider's world pose, refreshed by the broad phase at the
	// start of each step from the parent body's pose.
	Pose geometry.Isometry

	// Density contributes mass and inertia to the parent body when non-zero.
	Density float64

	// Friction and Restitution combine with the other collider's
	// coefficients by geometric mean when a contact forms.
	Friction    float64
	Restitution float64

	// Sensor colliders detect overlap but generate no contact forces, only
	// intersection events.
	Sensor bool

	Groups InteractionGroups
}

// ColliderDesc configures a collider before insertion; start from
// [NewColliderDesc] and override fields, validation happens at
// [ColliderSet.Insert].
type ColliderDesc struct {
	Shape       geometry.Shape
	Position    mgl64.Vec2 // relative to the parent body
	Rotation    float64
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool
	Groups      InteractionGroups
}

// NewColliderDesc returns a descriptor with the documented defaults:
// density 1, friction 0.5, no restitution, non-sensor, interacts with all.
func NewColliderDesc(shape geometry.Shape) ColliderDesc {
	return ColliderDesc{
		Shape:    shape,
		Density:  1,
		Friction: 0.5,
		Groups:   DefaultInteractionGroups(),
	}
}

func (d ColliderDesc) validate() error {
	if d.Shape == nil {
		return ErrNilShape
	}
	if !geometry.NewIsometry(d.Position, d.Rotation).IsFinite() {
		return fmt.Errorf("%w: collider pose %v / %v", ErrNonFinite, d.Position, d.Rotation)
	}
	if d.Density < 0 || math.IsNaN(d.Density) || math.IsInf(d.Density, 0) {
		return fmt.Errorf("%w: density %v", ErrNegativeMass, d.Density)
	}
	if d.Friction < 0 || math.IsNaN(d.Friction) {
		return fmt.Errorf("%w: friction %v", ErrBadCoefficient, d.Friction)
	}
	if d.Restitution < 0 || d.Restitution > 1 || math.IsNaN(d.Restitution) {
		return fmt.Errorf("%w: restitution %v", ErrBadCoefficient, d.Restitution)
	}
	return nil
}
