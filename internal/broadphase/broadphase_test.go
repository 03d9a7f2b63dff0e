package broadphase

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
)

type world struct {
	bodies    *dynamics.RigidBodySet
	colliders *dynamics.ColliderSet
}

func newWorld() *world {
	return &world{bodies: dynamics.NewRigidBodySet(), colliders: dynamics.NewColliderSet()}
}

func (w *world) addBox(t *testing.T, desc dynamics.RigidBodyDesc, hx, hy float64) (dynamics.BodyHandle, dynamics.ColliderHandle) {
	t.Helper()
	bh, err := w.bodies.Insert(desc)
	if err != nil {
		t.Fatalf("insert body: %v", err)
	}
	shape, err := geometry.NewCuboid(hx, hy)
	if err != nil {
		t.Fatalf("cuboid: %v", err)
	}
	ch, err := w.colliders.Insert(dynamics.NewColliderDesc(shape), bh, w.bodies)
	if err != nil {
		t.Fatalf("insert collider: %v", err)
	}
	return bh, ch
}

func TestUpdateReportsAddedAndRemoved(t *testing.T) {
	w := newWorld()
	params := dynamics.DefaultIntegrationParams()

	a := dynamics.DynamicBody()
	a.Position = mgl64.Vec2{0, 0}
	_, ca := w.addBox(t, a, 0.5, 0.5)

	b := dynamics.DynamicBody()
	b.Position = mgl64.Vec2{0.8, 0}
	bh, cb := w.addBox(t, b, 0.5, 0.5)

	bp := New()
	ev := bp.Update(w.colliders, w.bodies, &params)
	want := dynamics.MakeColliderPair(ca, cb)
	if len(ev.Added) != 1 || ev.Added[0] != want {
		t.Fatalf("added = %v, want [%v]", ev.Added, want)
	}
	if len(ev.Removed) != 0 {
		t.Fatalf("removed = %v, want empty", ev.Removed)
	}

	// Same configuration, no deltas.
	ev = bp.Update(w.colliders, w.bodies, &params)
	if len(ev.Added) != 0 || len(ev.Removed) != 0 {
		t.Fatalf("steady state deltas = %v / %v", ev.Added, ev.Removed)
	}

	// Move B far away; the pair must be retired.
	body, _ := w.bodies.Get(bh)
	body.Pose = geometry.NewIsometry(mgl64.Vec2{10, 0}, 0)
	ev = bp.Update(w.colliders, w.bodies, &params)
	if len(ev.Removed) != 1 || ev.Removed[0] != want {
		t.Fatalf("removed = %v, want [%v]", ev.Removed, want)
	}
	if len(ev.Added) != 0 {
		t.Fatalf("added = %v, want empty", ev.Added)
	}
}

func TestPairsIncludePredictionMargin(t *testing.T) {
	w := newWorld()
	params := dynamics.DefaultIntegrationParams()

	a := dynamics.StaticBody()
	a.Position = mgl64.Vec2{0, 0}
	w.addBox(t, a, 0.5, 0.5)

	// Gap of 0.1 between surfaces: within the combined inflation of
	// 2*(Margin + prediction) = 0.14, so a candidate pair is expected.
	b := dynamics.StaticBody()
	b.Position = mgl64.Vec2{1.1, 0}
	w.addBox(t, b, 0.5, 0.5)

	// Gap of 0.5: outside the inflation, never a candidate.
	c := dynamics.StaticBody()
	c.Position = mgl64.Vec2{-1.5, 0}
	w.addBox(t, c, 0.5, 0.5)

	bp := New()
	ev := bp.Update(w.colliders, w.bodies, &params)
	if len(ev.Added) != 1 {
		t.Fatalf("added = %v, want exactly the near pair", ev.Added)
	}
}

func TestFastBodySweptExtension(t *testing.T) {
	w := newWorld()
	params := dynamics.DefaultIntegrationParams()

	wall := dynamics.StaticBody()
	wall.Position = mgl64.Vec2{3, 0}
	w.addBox(t, wall, 0.1, 2)

	// 2.4 units of gap; at 150 u/s the body covers 2.5 units this step, so
	// the velocity-extended proxy must reach the wall.
	bullet := dynamics.DynamicBody()
	bullet.Position = mgl64.Vec2{0, 0}
	bullet.LinVel = mgl64.Vec2{150, 0}
	w.addBox(t, bullet, 0.5, 0.5)

	bp := New()
	ev := bp.Update(w.colliders, w.bodies, &params)
	if len(ev.Added) != 1 {
		t.Fatalf("added = %v, want the swept pair", ev.Added)
	}
}

func TestQueryAABB(t *testing.T) {
	w := newWorld()
	params := dynamics.DefaultIntegrationParams()

	for i := 0; i < 5; i++ {
		d := dynamics.StaticBody()
		d.Position = mgl64.Vec2{float64(i) * 3, 0}
		w.addBox(t, d, 0.5, 0.5)
	}

	bp := New()
	bp.Update(w.colliders, w.bodies, &params)

	var hits int
	bp.QueryAABB(geometry.AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{4, 1}}, func(dynamics.ColliderHandle) bool {
		hits++
		return true
	})
	if hits != 2 {
		t.Fatalf("hits = %d, want 2", hits)
	}

	// Early stop.
	hits = 0
	bp.QueryAABB(geometry.AABB{Min: mgl64.Vec2{-100, -100}, Max: mgl64.Vec2{100, 100}}, func(dynamics.ColliderHandle) bool {
		hits++
		return false
	})
	if hits != 1 {
		t.Fatalf("early stop hits = %d, want 1", hits)
	}
}

func TestSleepingBodySkipsVelocityExtension(t *testing.T) {
	w := newWorld()
	params := dynamics.DefaultIntegrationParams()

	d := dynamics.DynamicBody()
	d.Position = mgl64.Vec2{0, 0}
	d.LinVel = mgl64.Vec2{1000, 0}
	bh, _ := w.addBox(t, d, 0.5, 0.5)
	body, _ := w.bodies.Get(bh)
	body.Sleep()
	body.LinVel = mgl64.Vec2{1000, 0}

	far := dynamics.StaticBody()
	far.Position = mgl64.Vec2{5, 0}
	w.addBox(t, far, 0.5, 0.5)

	bp := New()
	ev := bp.Update(w.colliders, w.bodies, &params)
	if len(ev.Added) != 0 {
		t.Fatalf("added = %v, want empty for sleeping body", ev.Added)
	}
}
