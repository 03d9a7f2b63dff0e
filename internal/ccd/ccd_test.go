package ccd

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
	"github.com/impel-engine/impel/internal/solver"
)

type world struct {
	bodies    *dynamics.RigidBodySet
	colliders *dynamics.ColliderSet
	joints    *dynamics.JointSet
	bp        *broadphase.BroadPhase
	np        *narrowphase.NarrowPhase
	solver    *solver.Solver
	ccd       *Resolver
	params    dynamics.IntegrationParams
}

func newWorld() *world {
	return &world{
		bodies:    dynamics.NewRigidBodySet(),
		colliders: dynamics.NewColliderSet(),
		joints:    dynamics.NewJointSet(),
		bp:        broadphase.New(),
		np:        narrowphase.New(),
		solver:    solver.New(),
		ccd:       New(),
		params:    dynamics.DefaultIntegrationParams(),
	}
}

// step runs the full detection and solve sequence of one tick, with the
// continuous pass enabled or not.
func (w *world) step(continuous bool) {
	ev := w.bp.Update(w.colliders, w.bodies, &w.params)
	w.np.RegisterPairEvents(ev, w.bodies, w.colliders, narrowphase.NopHooks{}, events.NopSink{})
	w.np.UpdateContacts(w.bodies, w.colliders, &w.params, narrowphase.NopHooks{}, events.NopSink{})
	if continuous {
		w.ccd.CapturePoses(w.bodies)
	}
	w.solver.Solve(mgl64.Vec2{}, &w.params, w.bodies, w.joints, w.np, 1)
	if continuous {
		w.ccd.Resolve(w.bodies, w.colliders, w.bp, &w.params)
	}
}

func (w *world) addThinWall(t *testing.T, x float64) {
	t.Helper()
	desc := dynamics.StaticBody()
	desc.Position = mgl64.Vec2{x, 0}
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert wall: %v", err)
	}
	wall, err := geometry.NewCuboid(0.05, 5)
	if err != nil {
		t.Fatalf("cuboid: %v", err)
	}
	if _, err := w.colliders.Insert(dynamics.NewColliderDesc(wall), bh, w.bodies); err != nil {
		t.Fatalf("insert wall collider: %v", err)
	}
}

func (w *world) addBullet(t *testing.T, speed float64, ccdEnabled bool) dynamics.BodyHandle {
	t.Helper()
	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0}
	desc.LinVel = mgl64.Vec2{speed, 0}
	desc.CCDEnabled = ccdEnabled
	desc.CanSleep = false
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert bullet: %v", err)
	}
	ball, err := geometry.NewBall(0.1)
	if err != nil {
		t.Fatalf("ball: %v", err)
	}
	if _, err := w.colliders.Insert(dynamics.NewColliderDesc(ball), bh, w.bodies); err != nil {
		t.Fatalf("insert bullet collider: %v", err)
	}
	return bh
}

// A 0.1-thick wall and a bullet covering 2 units per step: the discrete
// solver alone must tunnel, the continuous pass must stop the bullet at the
// wall.
func TestBulletTunnelsWithoutCCD(t *testing.T) {
	w := newWorld()
	w.addThinWall(t, 5)
	bullet := w.addBullet(t, 120, false)

	for i := 0; i < 10; i++ {
		w.step(false)
	}

	body, _ := w.bodies.Get(bullet)
	if body.Pose.Translation.X() < 5.5 {
		t.Fatalf("bullet at %v, expected it to pass through the thin wall", body.Pose.Translation)
	}
}

func TestBulletStopsWithCCD(t *testing.T) {
	w := newWorld()
	w.addThinWall(t, 5)
	bullet := w.addBullet(t, 120, true)

	for i := 0; i < 10; i++ {
		w.step(true)
	}

	body, _ := w.bodies.Get(bullet)
	x := body.Pose.Translation.X()
	if x > 5 {
		t.Fatalf("bullet tunneled to %v", body.Pose.Translation)
	}
	if x < 4.5 {
		t.Fatalf("bullet stopped short at %v", body.Pose.Translation)
	}
}

// A fast body already resting on a surface must not be pinned by its own
// resting contact.
func TestRollingContactNotPinned(t *testing.T) {
	w := newWorld()

	groundDesc := dynamics.StaticBody()
	groundDesc.Position = mgl64.Vec2{0, -0.5}
	gb, err := w.bodies.Insert(groundDesc)
	if err != nil {
		t.Fatalf("insert ground: %v", err)
	}
	slab, err := geometry.NewCuboid(500, 0.5)
	if err != nil {
		t.Fatalf("cuboid: %v", err)
	}
	if _, err := w.colliders.Insert(dynamics.NewColliderDesc(slab), gb, w.bodies); err != nil {
		t.Fatalf("insert ground collider: %v", err)
	}

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0.1}
	desc.LinVel = mgl64.Vec2{120, 0}
	desc.CCDEnabled = true
	desc.CanSleep = false
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert body: %v", err)
	}
	ball, err := geometry.NewBall(0.1)
	if err != nil {
		t.Fatalf("ball: %v", err)
	}
	if _, err := w.colliders.Insert(dynamics.NewColliderDesc(ball), bh, w.bodies); err != nil {
		t.Fatalf("insert collider: %v", err)
	}

	for i := 0; i < 10; i++ {
		w.step(true)
	}

	body, _ := w.bodies.Get(bh)
	if body.Pose.Translation.X() < 15 {
		t.Fatalf("sliding body pinned at %v", body.Pose.Translation)
	}
}
