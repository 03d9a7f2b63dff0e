// Package solver advances the simulation by one time step: it partitions
// awake bodies into islands, runs a sequential-impulse velocity solver with
// accumulated clamping over each island's contacts and joints, integrates
// poses, corrects residual penetration and puts inactive islands to sleep.
//
// Islands share no dynamic bodies, so they are independent: with more than
// one thread they are solved on a chunked worker pool. Within an island the
// iteration order is fixed (canonical contact order, joint insertion order),
// so results are reproducible for a given thread count.
package solver

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
)

// Solver holds the island and constraint scratch reused across steps.
type Solver struct {
	builder *islandBuilder
}

// New returns a solver with empty scratch buffers.
func New() *Solver {
	return &Solver{builder: newIslandBuilder()}
}

// Solve advances all bodies by params.Dt under the given gravity. Contacts
// are consumed from the narrow phase's current manifolds. numThreads bounds
// the worker count for island solving; values below 2 mean sequential.
func (s *Solver) Solve(gravity mgl64.Vec2, params *dynamics.IntegrationParams, bodies *dynamics.RigidBodySet, joints *dynamics.JointSet, np *narrowphase.NarrowPhase, numThreads int) {
	islands := s.builder.build(bodies, joints, np)

	if numThreads < 2 || len(islands) < 2 {
		for i := range islands {
			solveIsland(&islands[i], gravity, params, bodies, joints)
		}
	} else {
		workers := min(numThreads, len(islands))
		chunk := (len(islands) + workers - 1) / workers
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			start := w * chunk
			end := min(start+chunk, len(islands))
			if start >= end {
				break
			}
			wg.Add(1)
			go func(isls []island) {
				defer wg.Done()
				for i := range isls {
					solveIsland(&isls[i], gravity, params, bodies, joints)
				}
			}(islands[start:end])
		}
		wg.Wait()
	}

	integrateKinematic(bodies, params.Dt)
}

func solveIsland(isl *island, gravity mgl64.Vec2, params *dynamics.IntegrationParams, bodies *dynamics.RigidBodySet, joints *dynamics.JointSet) {
	dt := params.Dt

	// Integrate external forces. Island bodies are dynamic and awake.
	for _, h := range isl.bodies {
		body, ok := bodies.Get(h)
		if !ok {
			continue
		}
		accel := gravity.Add(body.Force().Mul(body.InvMass()))
		body.LinVel = body.LinVel.Add(accel.Mul(dt))
		body.AngVel += dt * body.InvInertia() * body.Torque()
	}

	contacts := make([]contactConstraint, 0, len(isl.contacts))
	for _, c := range isl.contacts {
		bodyA, okA := bodies.Get(c.BodyA)
		bodyB, okB := bodies.Get(c.BodyB)
		if !okA || !okB {
			continue
		}
		contacts = append(contacts, prepareContact(c, bodyA, bodyB, params))
	}

	jcs := make([]jointConstraint, 0, len(isl.joints))
	for _, jh := range isl.joints {
		j, ok := joints.Get(jh)
		if !ok {
			continue
		}
		bodyA, okA := bodies.Get(j.BodyA)
		bodyB, okB := bodies.Get(j.BodyB)
		if !okA || !okB {
			continue
		}
		jcs = append(jcs, prepareJoint(j, bodyA, bodyB, params))
	}

	for iter := 0; iter < params.VelocityIterations; iter++ {
		for i := range jcs {
			jcs[i].solveVelocity()
		}
		for i := range contacts {
			contacts[i].solveVelocity()
		}
	}

	for _, h := range isl.bodies {
		if body, ok := bodies.Get(h); ok {
			integratePose(body, dt)
		}
	}

	for iter := 0; iter < params.PositionIterations; iter++ {
		for i := range contacts {
			contacts[i].solvePosition(params)
		}
	}

	updateIslandSleep(isl, params, bodies)
}

// integratePose advances the body pose by its velocities, rotating about the
// center of mass rather than the body origin.
func integratePose(body *dynamics.RigidBody, dt float64) {
	com := body.WorldCom().Add(body.LinVel.Mul(dt))
	angle := body.Pose.Angle() + body.AngVel*dt
	rot := geometry.NewRotation(angle)
	body.Pose = geometry.Isometry{
		Translation: com.Sub(rot.Apply(body.Mass().LocalCom)),
		Rotation:    rot,
	}
}

// integrateKinematic moves kinematic bodies by the velocities the pipeline
// inferred from their target poses.
func integrateKinematic(bodies *dynamics.RigidBodySet, dt float64) {
	bodies.ForEach(func(_ dynamics.BodyHandle, body *dynamics.RigidBody) bool {
		if !body.IsKinematic() {
			return true
		}
		if target, ok := body.NextKinematicPose(); ok {
			// Land exactly on the target to avoid drift from the
			// velocity round trip. The inferred velocity was only
			// valid for this step; the body stops until the caller
			// provides the next target.
			body.Pose = target
			body.LinVel = mgl64.Vec2{}
			body.AngVel = 0
			body.ClearNextKinematicPose()
			return true
		}
		if body.LinVel != (mgl64.Vec2{}) || body.AngVel != 0 {
			body.Pose = geometry.Isometry{
				Translation: body.Pose.Translation.Add(body.LinVel.Mul(dt)),
				Rotation:    geometry.NewRotation(body.Pose.Angle() + body.AngVel*dt),
			}
		}
		return true
	})
}

// updateIslandSleep puts the whole island to sleep once every member has
// stayed below the velocity thresholds for long enough. A single active
// body keeps the entire island awake.
func updateIslandSleep(isl *island, params *dynamics.IntegrationParams, bodies *dynamics.RigidBodySet) {
	linTolSq := params.SleepLinearSpeed * params.SleepLinearSpeed
	minSleep := math.Inf(1)

	for _, h := range isl.bodies {
		body, ok := bodies.Get(h)
		if !ok {
			continue
		}
		if !body.CanSleep() ||
			body.LinVel.Dot(body.LinVel) > linTolSq ||
			math.Abs(body.AngVel) > params.SleepAngularSpeed {
			body.ResetSleepTimer()
			minSleep = 0
			continue
		}
		body.AdvanceSleep(params.Dt)
		minSleep = math.Min(minSleep, body.SleepTime())
	}

	if minSleep >= params.TimeUntilSleep {
		for _, h := range isl.bodies {
			if body, ok := bodies.Get(h); ok {
				body.Sleep()
			}
		}
	}
}
