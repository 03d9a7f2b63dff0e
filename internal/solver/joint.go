package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
)

// jointConstraint solves one joint at the velocity level. Positional drift
// is removed with a stabilization bias folded into the velocity target, so
// joints need no separate position pass.
type jointConstraint struct {
	joint        *dynamics.Joint
	bodyA, bodyB *dynamics.RigidBody

	// world-space state captured at the start of the step
	rA, rB mgl64.Vec2
	axis   mgl64.Vec2 // prismatic slide axis in world space
	perp   mgl64.Vec2

	biasFactor float64 // ERP / dt
}

func prepareJoint(j *dynamics.Joint, bodyA, bodyB *dynamics.RigidBody, params *dynamics.IntegrationParams) jointConstraint {
	jc := jointConstraint{
		joint:      j,
		bodyA:      bodyA,
		bodyB:      bodyB,
		biasFactor: params.ERP / params.Dt,
	}
	jc.rA = bodyA.Pose.Point(j.LocalAnchorA).Sub(bodyA.WorldCom())
	jc.rB = bodyB.Pose.Point(j.LocalAnchorB).Sub(bodyB.WorldCom())
	if j.Kind == dynamics.JointPrismatic {
		jc.axis = bodyA.Pose.Vector(j.LocalAxisA)
		jc.perp = geometry.Perp(jc.axis)
	}
	return jc
}

func (jc *jointConstraint) solveVelocity() {
	switch jc.joint.Kind {
	case dynamics.JointRevolute:
		jc.solveRevolute()
	case dynamics.JointDistance:
		jc.solveDistance()
	case dynamics.JointPrismatic:
		jc.solvePrismatic()
	}
}

// solveRevolute pins the two anchors with a 2x2 block solve: both axes of
// the point-to-point constraint are satisfied simultaneously, which
// converges far faster than solving x and y as separate rows.
func (jc *jointConstraint) solveRevolute() {
	a, b := jc.bodyA, jc.bodyB

	anchorA := a.WorldCom().Add(jc.rA)
	anchorB := b.WorldCom().Add(jc.rB)
	c := anchorB.Sub(anchorA)

	cdot := b.LinVel.Add(geometry.CrossScalar(b.AngVel, jc.rB)).
		Sub(a.LinVel).Sub(geometry.CrossScalar(a.AngVel, jc.rA))
	rhs := cdot.Add(c.Mul(jc.biasFactor))

	imA, imB := a.InvMass(), b.InvMass()
	iiA, iiB := a.InvInertia(), b.InvInertia()

	k11 := imA + imB + iiA*jc.rA.Y()*jc.rA.Y() + iiB*jc.rB.Y()*jc.rB.Y()
	k12 := -iiA*jc.rA.X()*jc.rA.Y() - iiB*jc.rB.X()*jc.rB.Y()
	k22 := imA + imB + iiA*jc.rA.X()*jc.rA.X() + iiB*jc.rB.X()*jc.rB.X()

	det := k11*k22 - k12*k12
	if math.Abs(det) < 1e-12 {
		return
	}
	inv := 1 / det
	impulse := mgl64.Vec2{
		-inv * (k22*rhs.X() - k12*rhs.Y()),
		-inv * (k11*rhs.Y() - k12*rhs.X()),
	}
	applyImpulse(a, b, jc.rA, jc.rB, impulse)
}

// solveDistance is a single row along the anchor-to-anchor direction.
func (jc *jointConstraint) solveDistance() {
	a, b := jc.bodyA, jc.bodyB

	anchorA := a.WorldCom().Add(jc.rA)
	anchorB := b.WorldCom().Add(jc.rB)
	d := anchorB.Sub(anchorA)
	length := d.Len()
	if length < 1e-9 {
		return
	}
	u := d.Mul(1 / length)

	c := length - jc.joint.RestLength
	cdot := relativeVelocityAlong(a, b, jc.rA, jc.rB, u)

	mass := effectiveMass(a, b, jc.rA, jc.rB, u)
	lambda := -mass * (cdot + jc.biasFactor*c)
	applyImpulse(a, b, jc.rA, jc.rB, u.Mul(lambda))
}

// solvePrismatic locks relative rotation and motion perpendicular to the
// slide axis; travel along the axis stays free.
func (jc *jointConstraint) solvePrismatic() {
	a, b := jc.bodyA, jc.bodyB
	imA, imB := a.InvMass(), b.InvMass()
	iiA, iiB := a.InvInertia(), b.InvInertia()

	// Angular lock.
	if k := iiA + iiB; k > 0 {
		c := geometry.WrapAngle(b.Pose.Angle() - a.Pose.Angle() - jc.joint.ReferenceAngle)
		cdot := b.AngVel - a.AngVel
		lambda := -(cdot + jc.biasFactor*c) / k
		if a.IsDynamic() {
			a.AngVel -= iiA * lambda
		}
		if b.IsDynamic() {
			b.AngVel += iiB * lambda
		}
	}

	// Perpendicular translation lock.
	anchorA := a.WorldCom().Add(jc.rA)
	anchorB := b.WorldCom().Add(jc.rB)
	d := anchorB.Sub(anchorA)

	s1 := geometry.Cross(jc.rA.Add(d), jc.perp)
	s2 := geometry.Cross(jc.rB, jc.perp)

	k := imA + imB + iiA*s1*s1 + iiB*s2*s2
	if k <= 0 {
		return
	}
	c := jc.perp.Dot(d)
	cdot := jc.perp.Dot(b.LinVel.Sub(a.LinVel)) + s2*b.AngVel - s1*a.AngVel
	lambda := -(cdot + jc.biasFactor*c) / k

	p := jc.perp.Mul(lambda)
	if a.IsDynamic() {
		a.LinVel = a.LinVel.Sub(p.Mul(imA))
		a.AngVel -= iiA * s1 * lambda
	}
	if b.IsDynamic() {
		b.LinVel = b.LinVel.Add(p.Mul(imB))
		b.AngVel += iiB * s2 * lambda
	}
}
