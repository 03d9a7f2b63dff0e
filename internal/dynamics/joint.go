package dynamics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// JointKind discriminates the constraint a joint enforces between its two
// endpoint bodies.
type JointKind int

const (
	// JointRevolute pins two local anchor points together, leaving relative
	// rotation free (a hinge).
	JointRevolute JointKind = iota
	// JointDistance keeps the two anchor points at a fixed distance.
	JointDistance
	// JointPrismatic restricts relative motion to a single axis fixed in the
	// first body's frame, and locks relative rotation.
	JointPrismatic
)

func (k JointKind) String() string {
	switch k {
	case JointRevolute:
		return "revolute"
	case JointDistance:
		return "distance"
	case JointPrismatic:
		return "prismatic"
	default:
		return "unknown"
	}
}

// Joint constrains the relative motion of two bodies. It references its
// endpoints by handle: the relation is non-owning, and removing either body
// removes the joint.
type Joint struct {
	Kind         JointKind
	BodyA, BodyB BodyHandle

	// Anchor points in each body's local frame.
	LocalAnchorA, LocalAnchorB mgl64.Vec2

	// RestLength is the target anchor distance for distance joints.
	RestLength float64

	// LocalAxisA is the sliding axis for prismatic joints, unit length, in
	// body A's frame.
	LocalAxisA mgl64.Vec2

	// ReferenceAngle is the locked relative angle for prismatic joints,
	// captured at insertion.
	ReferenceAngle float64
}

// RevoluteJoint builds a hinge pinning the two local anchors together.
func RevoluteJoint(bodyA, bodyB BodyHandle, localAnchorA, localAnchorB mgl64.Vec2) Joint {
	return Joint{
		Kind:         JointRevolute,
		BodyA:        bodyA,
		BodyB:        bodyB,
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
	}
}

// DistanceJoint builds a rigid rod keeping the anchors restLength apart.
func DistanceJoint(bodyA, bodyB BodyHandle, localAnchorA, localAnchorB mgl64.Vec2, restLength float64) Joint {
	return Joint{
		Kind:         JointDistance,
		BodyA:        bodyA,
		BodyB:        bodyB,
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		RestLength:   restLength,
	}
}

// PrismaticJoint builds a slider along localAxisA in body A's frame.
func PrismaticJoint(bodyA, bodyB BodyHandle, localAnchorA, localAnchorB, localAxisA mgl64.Vec2) Joint {
	return Joint{
		Kind:         JointPrismatic,
		BodyA:        bodyA,
		BodyB:        bodyB,
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		LocalAxisA:   localAxisA,
	}
}

func (j Joint) validate() error {
	if j.BodyA == j.BodyB {
		return ErrSelfJoint
	}
	for _, v := range []mgl64.Vec2{j.LocalAnchorA, j.LocalAnchorB} {
		if math.IsNaN(v.X()) || math.IsNaN(v.Y()) || math.IsInf(v.X(), 0) || math.IsInf(v.Y(), 0) {
			return fmt.Errorf("%w: joint anchor %v", ErrNonFinite, v)
		}
	}
	switch j.Kind {
	case JointDistance:
		if !(j.RestLength > 0) || math.IsInf(j.RestLength, 0) {
			return fmt.Errorf("%w: rest length %v", ErrNonFinite, j.RestLength)
		}
	case JointPrismatic:
		if l := j.LocalAxisA.Len(); !(l > 1e-9) || math.IsNaN(l) || math.IsInf(l, 0) {
			return fmt.Errorf("%w: prismatic axis %v", ErrInvalidAxis, j.LocalAxisA)
		}
	}
	return nil
}
