package solver

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/geometry"
	"github.com/impel-engine/impel/internal/narrowphase"
)

var gravity = mgl64.Vec2{0, -9.81}

type world struct {
	bodies    *dynamics.RigidBodySet
	colliders *dynamics.ColliderSet
	joints    *dynamics.JointSet
	np        *narrowphase.NarrowPhase
	solver    *Solver
	params    dynamics.IntegrationParams
}

func newWorld() *world {
	return &world{
		bodies:    dynamics.NewRigidBodySet(),
		colliders: dynamics.NewColliderSet(),
		joints:    dynamics.NewJointSet(),
		np:        narrowphase.New(),
		solver:    New(),
		params:    dynamics.DefaultIntegrationParams(),
	}
}

// step refreshes manifolds from current poses and advances one tick. Pairs
// must have been registered beforehand.
func (w *world) step(threads int) {
	w.colliders.RefreshPoses(w.bodies)
	w.np.UpdateContacts(w.bodies, w.colliders, &w.params, narrowphase.NopHooks{}, events.NopSink{})
	w.solver.Solve(gravity, &w.params, w.bodies, w.joints, w.np, threads)
}

func (w *world) registerPair(a, b dynamics.ColliderHandle) {
	ev := broadphase.PairEvents{Added: []dynamics.ColliderPair{dynamics.MakeColliderPair(a, b)}}
	w.np.RegisterPairEvents(ev, w.bodies, w.colliders, narrowphase.NopHooks{}, events.NopSink{})
}

func (w *world) addBall(t *testing.T, desc dynamics.RigidBodyDesc, radius, restitution float64) (dynamics.BodyHandle, dynamics.ColliderHandle) {
	t.Helper()
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert body: %v", err)
	}
	ball, err := geometry.NewBall(radius)
	if err != nil {
		t.Fatalf("ball: %v", err)
	}
	cd := dynamics.NewColliderDesc(ball)
	cd.Restitution = restitution
	ch, err := w.colliders.Insert(cd, bh, w.bodies)
	if err != nil {
		t.Fatalf("insert collider: %v", err)
	}
	return bh, ch
}

func (w *world) addGround(t *testing.T, y float64) (dynamics.BodyHandle, dynamics.ColliderHandle) {
	t.Helper()
	desc := dynamics.StaticBody()
	desc.Position = mgl64.Vec2{0, y - 0.5}
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert ground: %v", err)
	}
	slab, err := geometry.NewCuboid(50, 0.5)
	if err != nil {
		t.Fatalf("cuboid: %v", err)
	}
	ch, err := w.colliders.Insert(dynamics.NewColliderDesc(slab), bh, w.bodies)
	if err != nil {
		t.Fatalf("insert ground collider: %v", err)
	}
	return bh, ch
}

func TestFreeFall(t *testing.T) {
	w := newWorld()
	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 10}
	bh, _ := w.addBall(t, desc, 0.5, 0)

	for i := 0; i < 60; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(bh)
	// After one second of 60 Hz semi-implicit Euler the speed is g and the
	// drop is slightly more than g/2 (by half a step of velocity lead).
	if math.Abs(body.LinVel.Y()+9.81) > 1e-9 {
		t.Fatalf("speed = %v, want -9.81", body.LinVel.Y())
	}
	drop := 10 - body.Pose.Translation.Y()
	if drop < 4.7 || drop > 5.2 {
		t.Fatalf("drop = %v, want about 4.99", drop)
	}
}

func TestRestingBallStopsAndSleeps(t *testing.T) {
	w := newWorld()
	_, ground := w.addGround(t, 0)

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0.5}
	bh, ball := w.addBall(t, desc, 0.5, 0)
	w.registerPair(ground, ball)

	for i := 0; i < 120; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(bh)
	if !body.IsSleeping() {
		t.Fatalf("body still awake after 2s at rest, sleepTime=%v", body.SleepTime())
	}
	if dy := math.Abs(body.Pose.Translation.Y() - 0.5); dy > 0.01 {
		t.Fatalf("rest height drifted by %v", dy)
	}

	// An external force must wake it and move it again.
	body.ApplyForce(mgl64.Vec2{0, 500})
	w.step(1)
	if body.IsSleeping() {
		t.Fatal("forced body still sleeping")
	}
	if body.LinVel.Y() <= 0 {
		t.Fatalf("forced body not moving up: %v", body.LinVel)
	}
}

func TestRestitutionBounce(t *testing.T) {
	w := newWorld()
	_, ground := w.addGround(t, 0)
	// Coefficients combine by geometric mean; both sides need restitution 1
	// for a perfectly elastic bounce.
	groundCol, _ := w.colliders.Get(ground)
	groundCol.Restitution = 1

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0.5}
	desc.LinVel = mgl64.Vec2{0, -5}
	bh, ball := w.addBall(t, desc, 0.5, 1.0)
	w.registerPair(ground, ball)

	w.step(1)

	body, _ := w.bodies.Get(bh)
	if body.LinVel.Y() < 4.5 {
		t.Fatalf("bounce speed = %v, want close to impact speed", body.LinVel.Y())
	}
}

func TestPenetrationCorrection(t *testing.T) {
	w := newWorld()
	_, ground := w.addGround(t, 0)

	// Start 0.05 into the ground; the position passes must push the ball
	// out over a few steps without launching it.
	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0.45}
	bh, ball := w.addBall(t, desc, 0.5, 0)
	w.registerPair(ground, ball)

	for i := 0; i < 30; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(bh)
	y := body.Pose.Translation.Y()
	if y < 0.48 || y > 0.52 {
		t.Fatalf("height = %v, want near 0.5", y)
	}
	if body.LinVel.Y() > 0.5 {
		t.Fatalf("correction launched the ball: v=%v", body.LinVel)
	}
}

func TestDistanceJointHoldsLength(t *testing.T) {
	w := newWorld()

	anchorDesc := dynamics.StaticBody()
	anchor, err := w.bodies.Insert(anchorDesc)
	if err != nil {
		t.Fatalf("insert anchor: %v", err)
	}

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{1, 0}
	desc.CanSleep = false
	bob, _ := w.addBall(t, desc, 0.1, 0)

	if _, err := w.joints.Insert(dynamics.DistanceJoint(anchor, bob, mgl64.Vec2{}, mgl64.Vec2{}, 1), w.bodies); err != nil {
		t.Fatalf("insert joint: %v", err)
	}

	for i := 0; i < 180; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(bob)
	length := body.Pose.Translation.Len()
	if math.Abs(length-1) > 0.05 {
		t.Fatalf("rod length = %v, want 1", length)
	}
	// The bob must have swung below its start.
	if body.Pose.Translation.Y() > -0.1 {
		t.Fatalf("pendulum did not swing down: %v", body.Pose.Translation)
	}
}

func TestRevoluteJointPinsAnchors(t *testing.T) {
	w := newWorld()

	anchorDesc := dynamics.StaticBody()
	anchor, err := w.bodies.Insert(anchorDesc)
	if err != nil {
		t.Fatalf("insert anchor: %v", err)
	}

	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{1, 0}
	desc.CanSleep = false
	arm, _ := w.addBall(t, desc, 0.2, 0)

	// Hinge at the world origin: body-local anchor (-1, 0).
	if _, err := w.joints.Insert(dynamics.RevoluteJoint(anchor, arm, mgl64.Vec2{}, mgl64.Vec2{-1, 0}), w.bodies); err != nil {
		t.Fatalf("insert joint: %v", err)
	}

	for i := 0; i < 180; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(arm)
	pin := body.Pose.Point(mgl64.Vec2{-1, 0})
	if pin.Len() > 0.05 {
		t.Fatalf("hinge anchor drifted to %v", pin)
	}
}

func TestPrismaticJointConstrainsMotion(t *testing.T) {
	w := newWorld()

	railDesc := dynamics.StaticBody()
	rail, err := w.bodies.Insert(railDesc)
	if err != nil {
		t.Fatalf("insert rail: %v", err)
	}

	// Slider on a horizontal rail: gravity must not move it vertically,
	// an initial horizontal velocity keeps it sliding.
	desc := dynamics.DynamicBody()
	desc.Position = mgl64.Vec2{0, 0}
	desc.LinVel = mgl64.Vec2{2, 0}
	desc.CanSleep = false
	slider, _ := w.addBall(t, desc, 0.2, 0)

	if _, err := w.joints.Insert(dynamics.PrismaticJoint(rail, slider, mgl64.Vec2{}, mgl64.Vec2{}, mgl64.Vec2{1, 0}), w.bodies); err != nil {
		t.Fatalf("insert joint: %v", err)
	}

	for i := 0; i < 120; i++ {
		w.step(1)
	}

	body, _ := w.bodies.Get(slider)
	if math.Abs(body.Pose.Translation.Y()) > 0.02 {
		t.Fatalf("slider left the rail: %v", body.Pose.Translation)
	}
	if body.Pose.Translation.X() < 3 {
		t.Fatalf("slider did not travel: %v", body.Pose.Translation)
	}
	if math.Abs(body.Pose.Angle()) > 0.02 {
		t.Fatalf("slider rotated: %v", body.Pose.Angle())
	}
}

// Two disjoint islands must produce bit-identical results whether they are
// solved sequentially or on the worker pool.
func TestParallelIslandsMatchSequential(t *testing.T) {
	build := func() (*world, []dynamics.BodyHandle) {
		w := newWorld()
		var tracked []dynamics.BodyHandle
		for i := 0; i < 4; i++ {
			x := float64(i) * 200
			groundDesc := dynamics.StaticBody()
			groundDesc.Position = mgl64.Vec2{x, -0.5}
			gb, err := w.bodies.Insert(groundDesc)
			if err != nil {
				t.Fatalf("ground: %v", err)
			}
			slab, err := geometry.NewCuboid(5, 0.5)
			if err != nil {
				t.Fatalf("cuboid: %v", err)
			}
			gc, err := w.colliders.Insert(dynamics.NewColliderDesc(slab), gb, w.bodies)
			if err != nil {
				t.Fatalf("ground collider: %v", err)
			}

			desc := dynamics.DynamicBody()
			desc.Position = mgl64.Vec2{x + 0.1, 2}
			bh, ch := w.addBall(t, desc, 0.5, 0.3)
			w.registerPair(gc, ch)
			tracked = append(tracked, bh)
		}
		return w, tracked
	}

	seq, seqBodies := build()
	par, parBodies := build()

	for i := 0; i < 240; i++ {
		seq.step(1)
		par.step(4)
	}

	for i := range seqBodies {
		a, _ := seq.bodies.Get(seqBodies[i])
		b, _ := par.bodies.Get(parBodies[i])
		if a.Pose.Translation != b.Pose.Translation || a.LinVel != b.LinVel {
			t.Fatalf("island %d diverged: %v/%v vs %v/%v",
				i, a.Pose.Translation, a.LinVel, b.Pose.Translation, b.LinVel)
		}
	}
}

func TestIslandWakesSleepingNeighbor(t *testing.T) {
	w := newWorld()
	_, ground := w.addGround(t, 0)

	restDesc := dynamics.DynamicBody()
	restDesc.Position = mgl64.Vec2{0, 0.5}
	sleeper, sleeperCol := w.addBall(t, restDesc, 0.5, 0)
	w.registerPair(ground, sleeperCol)

	for i := 0; i < 120; i++ {
		w.step(1)
	}
	if body, _ := w.bodies.Get(sleeper); !body.IsSleeping() {
		t.Fatal("precondition: sleeper should be asleep")
	}

	// Drop a second ball onto the sleeper.
	dropDesc := dynamics.DynamicBody()
	dropDesc.Position = mgl64.Vec2{0, 1.6}
	dropDesc.LinVel = mgl64.Vec2{0, -3}
	_, dropCol := w.addBall(t, dropDesc, 0.5, 0)
	w.registerPair(sleeperCol, dropCol)

	for i := 0; i < 5; i++ {
		w.step(1)
	}
	if body, _ := w.bodies.Get(sleeper); body.IsSleeping() {
		t.Fatal("impact did not wake the sleeping ball")
	}
}
