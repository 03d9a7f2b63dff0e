// Package pipeline drives one full physics step: broad phase, narrow phase,
// island solve, pose integration and the continuous-collision pass, in a
// fixed order. The pipeline owns no simulation state beyond reusable
// workspace; all entities live in the sets passed to Step, so a pipeline can
// be discarded and recreated freely.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/ccd"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
	"github.com/impel-engine/impel/internal/solver"
)

// ErrConfig reports an invalid pipeline configuration.
var ErrConfig = errors.New("pipeline: invalid configuration")

// Config selects the execution mode of the pipeline.
type Config struct {
	// StrictDeterminism guarantees bit-identical results for identical
	// inputs. It requires the sequential path: combined with NumThreads > 1
	// the configuration is rejected rather than silently degraded.
	StrictDeterminism bool

	// NumThreads bounds the workers used for parallel island solving.
	// Values below 2 select the sequential path.
	NumThreads int
}

// DefaultConfig is sequential and deterministic.
func DefaultConfig() Config {
	return Config{StrictDeterminism: true, NumThreads: 1}
}

// Validate rejects contradictory settings.
func (c Config) Validate() error {
	if c.NumThreads < 0 {
		return fmt.Errorf("%w: NumThreads %d", ErrConfig, c.NumThreads)
	}
	if c.StrictDeterminism && c.NumThreads > 1 {
		return fmt.Errorf("%w: strict determinism requires a single thread, got %d", ErrConfig, c.NumThreads)
	}
	return nil
}

// Pipeline holds the per-step workspace. Create one per simulation; it is
// not safe for concurrent Step calls.
type Pipeline struct {
	cfg    Config
	solver *solver.Solver
}

// New validates cfg and builds a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, solver: solver.New()}, nil
}

// Step advances the whole simulation by params.Dt. It always completes: bad
// contacts degrade to residual overlap, never to an abort. hooks and sink
// may be nil. resolver may be nil to disable continuous collision detection.
func (p *Pipeline) Step(
	gravity mgl64.Vec2,
	params *dynamics.IntegrationParams,
	bp *broadphase.BroadPhase,
	np *narrowphase.NarrowPhase,
	bodies *dynamics.RigidBodySet,
	colliders *dynamics.ColliderSet,
	joints *dynamics.JointSet,
	resolver *ccd.Resolver,
	hooks narrowphase.Hooks,
	sink events.Sink,
) {
	if hooks == nil {
		hooks = narrowphase.NopHooks{}
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	if stepper, ok := sink.(events.Stepper); ok {
		stepper.BeginStep()
	}

	inferKinematicVelocities(bodies, params.Dt)

	pairEvents := bp.Update(colliders, bodies, params)
	np.RegisterPairEvents(pairEvents, bodies, colliders, hooks, sink)
	np.UpdateContacts(bodies, colliders, params, hooks, sink)

	if resolver != nil {
		resolver.CapturePoses(bodies)
	}

	p.solver.Solve(gravity, params, bodies, joints, np, p.cfg.NumThreads)

	if resolver != nil {
		resolver.Resolve(bodies, colliders, bp, params)
	}

	bodies.ForEach(func(_ dynamics.BodyHandle, body *dynamics.RigidBody) bool {
		body.ClearForces()
		return true
	})
}

// inferKinematicVelocities converts a kinematic body's target pose into the
// velocity that reaches it this step, so contacting dynamic bodies see the
// platform's true motion in the solver.
func inferKinematicVelocities(bodies *dynamics.RigidBodySet, dt float64) {
	invDt := 1 / dt
	bodies.ForEach(func(_ dynamics.BodyHandle, body *dynamics.RigidBody) bool {
		if !body.IsKinematic() {
			return true
		}
		target, ok := body.NextKinematicPose()
		if !ok {
			return true
		}
		body.LinVel = target.Translation.Sub(body.Pose.Translation).Mul(invDt)
		body.AngVel = geometry.WrapAngle(target.Angle()-body.Pose.Angle()) * invDt
		return true
	})
}
