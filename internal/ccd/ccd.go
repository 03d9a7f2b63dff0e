// Package ccd stops fast bodies from tunneling through thin obstacles. The
// discrete solver integrates poses first; the resolver then sweeps each
// flagged body from its pre-step pose to its integrated pose, finds the
// earliest time of impact against nearby colliders and clamps the body's
// pose to it. The speculative contact created at the clamped pose lets the
// next step resolve the collision normally.
package ccd

import (
	"math"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
)

// Resolver carries the pre-step pose snapshots between the two pipeline
// calls of a step.
type Resolver struct {
	prev map[dynamics.BodyHandle]geometry.Isometry
}

// New returns an empty resolver.
func New() *Resolver {
	return &Resolver{prev: make(map[dynamics.BodyHandle]geometry.Isometry)}
}

// CapturePoses snapshots the poses of all CCD-enabled dynamic bodies. The
// pipeline calls this before the solver integrates.
func (r *Resolver) CapturePoses(bodies *dynamics.RigidBodySet) {
	clear(r.prev)
	bodies.ForEach(func(h dynamics.BodyHandle, body *dynamics.RigidBody) bool {
		if body.IsDynamic() && body.CCDEnabled() && !body.IsSleeping() {
			r.prev[h] = body.Pose
		}
		return true
	})
}

// Resolve sweeps every captured body and clamps those that would have
// tunneled. Rounds repeat while clamps keep occurring — a clamped body may
// change the outcome for another fast body — bounded by MaxCCDSubsteps.
func (r *Resolver) Resolve(bodies *dynamics.RigidBodySet, colliders *dynamics.ColliderSet, bp *broadphase.BroadPhase, params *dynamics.IntegrationParams) {
	if len(r.prev) == 0 {
		return
	}
	for round := 0; round < params.MaxCCDSubsteps; round++ {
		clamped := false
		bodies.ForEach(func(h dynamics.BodyHandle, body *dynamics.RigidBody) bool {
			from, ok := r.prev[h]
			if !ok {
				return true
			}
			if r.resolveBody(h, body, from, bodies, colliders, bp, params) {
				clamped = true
			}
			return true
		})
		if !clamped {
			return
		}
	}
}

// resolveBody sweeps one body and reports whether its pose was clamped.
func (r *Resolver) resolveBody(h dynamics.BodyHandle, body *dynamics.RigidBody, from geometry.Isometry, bodies *dynamics.RigidBodySet, colliders *dynamics.ColliderSet, bp *broadphase.BroadPhase, params *dynamics.IntegrationParams) bool {
	to := body.Pose
	displacement := to.Translation.Sub(from.Translation).Len()
	if displacement <= minColliderExtent(body, colliders) {
		// The discrete step cannot have skipped anything thinner than the
		// body itself.
		return false
	}

	target := math.Max(params.AllowedPenetration, 1e-4)
	earliest := 1.0
	hit := false

	for _, ch := range body.Colliders() {
		collider, ok := colliders.Get(ch)
		if !ok || collider.Sensor {
			continue
		}
		fromPose := from.Mul(collider.PoseRel)
		toPose := to.Mul(collider.PoseRel)
		swept := collider.Shape.ComputeAABB(fromPose).Merge(collider.Shape.ComputeAABB(toPose))

		bp.QueryAABB(swept, func(otherH dynamics.ColliderHandle) bool {
			other, ok := colliders.Get(otherH)
			if !ok || other.Parent == h || other.Sensor {
				return true
			}
			if !collider.Groups.Test(other.Groups) {
				return true
			}
			// Pairs already in contact at the start of the step belong to
			// the discrete solver; clamping against them would pin resting
			// bodies in place.
			if geometry.Distance(collider.Shape, fromPose, other.Shape, other.Pose) <= target {
				return true
			}
			toi, found := geometry.TimeOfImpact(
				collider.Shape, fromPose, toPose,
				other.Shape, other.Pose, other.Pose,
				target,
			)
			if found && toi < earliest {
				earliest = toi
				hit = true
			}
			return true
		})
	}

	if !hit || earliest >= 1 {
		return false
	}

	body.Pose = geometry.Lerp(from, to, earliest)
	r.cancelApproach(body, colliders, bp)
	return true
}

// cancelApproach removes the velocity component still driving the body into
// whatever it was clamped against, so the next discrete step starts from a
// non-penetrating state instead of tunneling again.
func (r *Resolver) cancelApproach(body *dynamics.RigidBody, colliders *dynamics.ColliderSet, bp *broadphase.BroadPhase) {
	for _, ch := range body.Colliders() {
		collider, ok := colliders.Get(ch)
		if !ok || collider.Sensor {
			continue
		}
		pose := body.Pose.Mul(collider.PoseRel)
		aabb := collider.Shape.ComputeAABB(pose).Inflate(broadphase.Margin)

		bp.QueryAABB(aabb, func(otherH dynamics.ColliderHandle) bool {
			other, ok := colliders.Get(otherH)
			if !ok || other.Parent == collider.Parent || other.Sensor {
				return true
			}
			if !collider.Groups.Test(other.Groups) {
				return true
			}
			dist, pa, pb := geometry.ClosestPoints(collider.Shape, pose, other.Shape, other.Pose)
			if dist > broadphase.Margin {
				return true
			}
			n := pb.Sub(pa)
			if l := n.Len(); l > 1e-9 {
				n = n.Mul(1 / l)
			} else {
				return true
			}
			if vn := body.LinVel.Dot(n); vn > 0 {
				body.LinVel = body.LinVel.Sub(n.Mul(vn))
			}
			return true
		})
	}
}

// minColliderExtent returns the smallest half-extent over the body's
// colliders; displacements below it cannot tunnel.
func minColliderExtent(body *dynamics.RigidBody, colliders *dynamics.ColliderSet) float64 {
	extent := math.Inf(1)
	for _, ch := range body.Colliders() {
		collider, ok := colliders.Get(ch)
		if !ok {
			continue
		}
		he := collider.Shape.ComputeAABB(geometry.IdentityIsometry()).HalfExtents()
		extent = math.Min(extent, math.Min(he.X(), he.Y()))
	}
	if math.IsInf(extent, 1) {
		return 0
	}
	return extent
}
