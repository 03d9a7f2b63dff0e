package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
)

// contactConstraint is the solver-internal form of one contact manifold:
// per-point effective masses, restitution targets and accumulated impulses.
type contactConstraint struct {
	bodyA, bodyB *dynamics.RigidBody
	normal       mgl64.Vec2
	tangent      mgl64.Vec2
	friction     float64

	points [2]contactPoint
	count  int
}

type contactPoint struct {
	rA, rB      mgl64.Vec2
	penetration float64

	normalMass  float64
	tangentMass float64

	// restitutionBias is the post-impact separating speed target; zero for
	// slow impacts below the restitution cutoff.
	restitutionBias float64

	// speculativeBias lets a separated point keep approaching at up to
	// gap/dt without an impulse.
	speculativeBias float64

	normalImpulse  float64
	tangentImpulse float64
}

// prepareContact builds the velocity constraint from a fresh manifold. It
// captures the pre-solve relative velocity for restitution.
func prepareContact(c *narrowphase.Contact, bodyA, bodyB *dynamics.RigidBody, params *dynamics.IntegrationParams) contactConstraint {
	cc := contactConstraint{
		bodyA:    bodyA,
		bodyB:    bodyB,
		normal:   c.Manifold.Normal,
		tangent:  geometry.Perp(c.Manifold.Normal),
		friction: c.Friction,
		count:    c.Manifold.Count,
	}
	invDt := 1 / params.Dt
	comA := bodyA.WorldCom()
	comB := bodyB.WorldCom()

	for i := 0; i < cc.count; i++ {
		mp := c.Manifold.Points[i]
		p := &cc.points[i]
		p.rA = mp.Point.Sub(comA)
		p.rB = mp.Point.Sub(comB)
		p.penetration = mp.Penetration

		p.normalMass = effectiveMass(bodyA, bodyB, p.rA, p.rB, cc.normal)
		p.tangentMass = effectiveMass(bodyA, bodyB, p.rA, p.rB, cc.tangent)

		vn := relativeVelocityAlong(bodyA, bodyB, p.rA, p.rB, cc.normal)
		if vn < -params.RestitutionCutoff {
			p.restitutionBias = -c.Restitution * vn
		}
		if gap := -mp.Penetration; gap > 0 {
			p.speculativeBias = gap * invDt
		}
	}
	return cc
}

// solveVelocity runs one impulse pass over the constraint: friction first
// against the previous normal impulse, then the non-penetration impulse with
// accumulated clamping.
func (cc *contactConstraint) solveVelocity() {
	a, b := cc.bodyA, cc.bodyB
	for i := 0; i < cc.count; i++ {
		p := &cc.points[i]

		// Friction, clamped to the Coulomb cone of the accumulated normal
		// impulse.
		vt := relativeVelocityAlong(a, b, p.rA, p.rB, cc.tangent)
		lambda := -p.tangentMass * vt
		maxFriction := cc.friction * p.normalImpulse
		newImpulse := clamp(p.tangentImpulse+lambda, -maxFriction, maxFriction)
		lambda = newImpulse - p.tangentImpulse
		p.tangentImpulse = newImpulse
		applyImpulse(a, b, p.rA, p.rB, cc.tangent.Mul(lambda))

		// Non-penetration.
		vn := relativeVelocityAlong(a, b, p.rA, p.rB, cc.normal)
		lambda = -p.normalMass * (vn + p.speculativeBias - p.restitutionBias)
		newImpulse = math.Max(p.normalImpulse+lambda, 0)
		lambda = newImpulse - p.normalImpulse
		p.normalImpulse = newImpulse
		applyImpulse(a, b, p.rA, p.rB, cc.normal.Mul(lambda))
	}
}

// solvePosition shifts body translations apart proportionally to inverse
// mass, removing a fraction of the residual penetration beyond the slop.
// Penetrations are taken from the start-of-step manifolds.
func (cc *contactConstraint) solvePosition(params *dynamics.IntegrationParams) {
	a, b := cc.bodyA, cc.bodyB
	invMassSum := a.InvMass() + b.InvMass()
	if invMassSum == 0 {
		return
	}
	for i := 0; i < cc.count; i++ {
		overlap := cc.points[i].penetration - params.AllowedPenetration
		if overlap <= 0 {
			continue
		}
		correction := cc.normal.Mul(params.ERP * overlap / invMassSum)
		if im := a.InvMass(); im > 0 {
			a.Pose.Translation = a.Pose.Translation.Sub(correction.Mul(im))
		}
		if im := b.InvMass(); im > 0 {
			b.Pose.Translation = b.Pose.Translation.Add(correction.Mul(im))
		}
	}
}

// relativeVelocityAlong is the velocity of B's contact point relative to
// A's, projected on dir.
func relativeVelocityAlong(a, b *dynamics.RigidBody, rA, rB, dir mgl64.Vec2) float64 {
	dv := b.LinVel.Add(geometry.CrossScalar(b.AngVel, rB)).
		Sub(a.LinVel).Sub(geometry.CrossScalar(a.AngVel, rA))
	return dv.Dot(dir)
}

// effectiveMass is the inverse of the constraint-space mass along dir.
func effectiveMass(a, b *dynamics.RigidBody, rA, rB, dir mgl64.Vec2) float64 {
	crossA := geometry.Cross(rA, dir)
	crossB := geometry.Cross(rB, dir)
	k := a.InvMass() + b.InvMass() + a.InvInertia()*crossA*crossA + b.InvInertia()*crossB*crossB
	if k <= 0 {
		return 0
	}
	return 1 / k
}

// applyImpulse applies an equal and opposite impulse at the contact offsets.
// Non-dynamic bodies are never written: a static anchor may be shared by
// islands solved on different goroutines.
func applyImpulse(a, b *dynamics.RigidBody, rA, rB, impulse mgl64.Vec2) {
	if a.IsDynamic() {
		a.LinVel = a.LinVel.Sub(impulse.Mul(a.InvMass()))
		a.AngVel -= a.InvInertia() * geometry.Cross(rA, impulse)
	}
	if b.IsDynamic() {
		b.LinVel = b.LinVel.Add(impulse.Mul(b.InvMass()))
		b.AngVel += b.InvInertia() * geometry.Cross(rB, impulse)
	}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
