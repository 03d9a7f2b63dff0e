package dynamics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/geometry"
)

func newWorld() (*RigidBodySet, *ColliderSet, *JointSet) {
	return NewRigidBodySet(), NewColliderSet(), NewJointSet()
}

func mustBody(t *testing.T, bodies *RigidBodySet, desc RigidBodyDesc) BodyHandle {
	t.Helper()
	h, err := bodies.Insert(desc)
	if err != nil {
		t.Fatalf("body insert: %v", err)
	}
	return h
}

func mustBallCollider(t *testing.T, colliders *ColliderSet, bodies *RigidBodySet, parent BodyHandle, radius, density float64) ColliderHandle {
	t.Helper()
	ball, err := geometry.NewBall(radius)
	if err != nil {
		t.Fatal(err)
	}
	desc := NewColliderDesc(ball)
	desc.Density = density
	h, err := colliders.Insert(desc, parent, bodies)
	if err != nil {
		t.Fatalf("collider insert: %v", err)
	}
	return h
}

func TestBodyDescValidation(t *testing.T) {
	bodies := NewRigidBodySet()

	desc := DynamicBody()
	desc.Position = mgl64.Vec2{math.NaN(), 0}
	if _, err := bodies.Insert(desc); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NaN position: err = %v, want ErrNonFinite", err)
	}

	desc = DynamicBody()
	desc.AdditionalMass = -1
	if _, err := bodies.Insert(desc); !errors.Is(err, ErrNegativeMass) {
		t.Errorf("negative mass: err = %v, want ErrNegativeMass", err)
	}

	if bodies.Len() != 0 {
		t.Errorf("rejected descriptors were inserted: len = %d", bodies.Len())
	}
}

func TestColliderContributesMass(t *testing.T) {
	bodies, colliders, _ := newWorld()
	body := mustBody(t, bodies, DynamicBody())

	ch := mustBallCollider(t, colliders, bodies, body, 1, 2)

	b, _ := bodies.Get(body)
	wantMass := 2 * math.Pi
	if math.Abs(b.Mass().Mass-wantMass) > 1e-9 {
		t.Errorf("mass = %v, want %v", b.Mass().Mass, wantMass)
	}
	if b.InvMass() <= 0 {
		t.Error("dynamic body with collider has zero inverse mass")
	}

	colliders.Remove(ch, bodies)
	if b.Mass().Mass != 0 {
		t.Errorf("mass after collider removal = %v, want 0", b.Mass().Mass)
	}
}

func TestZeroDensityColliderAddsNoMass(t *testing.T) {
	bodies, colliders, _ := newWorld()
	body := mustBody(t, bodies, DynamicBody())
	mustBallCollider(t, colliders, bodies, body, 1, 0)

	b, _ := bodies.Get(body)
	if b.Mass().Mass != 0 {
		t.Errorf("zero-density collider contributed mass %v", b.Mass().Mass)
	}
}

func TestColliderValidation(t *testing.T) {
	bodies, colliders, _ := newWorld()
	body := mustBody(t, bodies, DynamicBody())

	if _, err := colliders.Insert(ColliderDesc{}, body, bodies); !errors.Is(err, ErrNilShape) {
		t.Errorf("nil shape: err = %v, want ErrNilShape", err)
	}

	ball, _ := geometry.NewBall(1)
	desc := NewColliderDesc(ball)
	desc.Density = -2
	if _, err := colliders.Insert(desc, body, bodies); !errors.Is(err, ErrNegativeMass) {
		t.Errorf("negative density: err = %v, want ErrNegativeMass", err)
	}

	desc = NewColliderDesc(ball)
	desc.Restitution = 1.5
	if _, err := colliders.Insert(desc, body, bodies); !errors.Is(err, ErrBadCoefficient) {
		t.Errorf("restitution > 1: err = %v, want ErrBadCoefficient", err)
	}

	desc = NewColliderDesc(ball)
	if _, err := colliders.Insert(desc, BodyHandle{}, bodies); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("stale parent: err = %v, want ErrUnknownBody", err)
	}
}

func TestInteractionGroups(t *testing.T) {
	a := InteractionGroups{Memberships: 0b01, Filter: 0b10}
	b := InteractionGroups{Memberships: 0b10, Filter: 0b01}
	c := InteractionGroups{Memberships: 0b01, Filter: 0b01}

	if !a.Test(b) {
		t.Error("complementary groups do not interact")
	}
	if a.Test(c) {
		t.Error("filtered-out groups interact")
	}
	if !DefaultInteractionGroups().Test(DefaultInteractionGroups()) {
		t.Error("default groups do not interact")
	}
}

func TestBodyRemovalCascades(t *testing.T) {
	bodies, colliders, joints := newWorld()

	bodyA := mustBody(t, bodies, DynamicBody())
	bodyB := mustBody(t, bodies, DynamicBody())
	colA := mustBallCollider(t, colliders, bodies, bodyA, 1, 1)
	colB := mustBallCollider(t, colliders, bodies, bodyB, 1, 1)

	jh, err := joints.Insert(RevoluteJoint(bodyA, bodyB, mgl64.Vec2{}, mgl64.Vec2{}), bodies)
	if err != nil {
		t.Fatal(err)
	}

	if !bodies.Remove(bodyA, colliders, joints) {
		t.Fatal("remove failed")
	}

	if colliders.Contains(colA) {
		t.Error("collider of removed body still live")
	}
	if !colliders.Contains(colB) {
		t.Error("unrelated collider removed")
	}
	if joints.Contains(jh) {
		t.Error("joint referencing removed body still live")
	}
	if bodies.Contains(bodyA) {
		t.Error("removed body still resolvable")
	}
	if got := joints.IncidentJoints(bodyB); len(got) != 0 {
		t.Errorf("bodyB still has %d incident joints", len(got))
	}
}

func TestJointValidation(t *testing.T) {
	bodies, _, joints := newWorld()
	body := mustBody(t, bodies, DynamicBody())

	if _, err := joints.Insert(RevoluteJoint(body, body, mgl64.Vec2{}, mgl64.Vec2{}), bodies); !errors.Is(err, ErrSelfJoint) {
		t.Errorf("self joint: err = %v, want ErrSelfJoint", err)
	}

	other := mustBody(t, bodies, DynamicBody())
	if _, err := joints.Insert(PrismaticJoint(body, other, mgl64.Vec2{}, mgl64.Vec2{}, mgl64.Vec2{}), bodies); !errors.Is(err, ErrInvalidAxis) {
		t.Errorf("zero axis: err = %v, want ErrInvalidAxis", err)
	}

	if _, err := joints.Insert(DistanceJoint(body, other, mgl64.Vec2{}, mgl64.Vec2{}, 0), bodies); err == nil {
		t.Error("zero rest length accepted")
	}

	stale := BodyHandle{}
	if _, err := joints.Insert(RevoluteJoint(body, stale, mgl64.Vec2{}, mgl64.Vec2{}), bodies); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("stale endpoint: err = %v, want ErrUnknownBody", err)
	}
}

func TestKinematicNextPose(t *testing.T) {
	bodies, _, _ := newWorld()
	kin := mustBody(t, bodies, KinematicBody())
	dyn := mustBody(t, bodies, DynamicBody())

	kb, _ := bodies.Get(kin)
	target := geometry.NewIsometry(mgl64.Vec2{1, 0}, 0)
	kb.SetNextKinematicPose(target)
	if _, ok := kb.NextKinematicPose(); !ok {
		t.Fatal("next kinematic pose not recorded")
	}

	db, _ := bodies.Get(dyn)
	db.SetNextKinematicPose(target)
	if _, ok := db.NextKinematicPose(); ok {
		t.Error("dynamic body accepted a kinematic target pose")
	}
}

func TestSleepWake(t *testing.T) {
	bodies, _, _ := newWorld()
	h := mustBody(t, bodies, DynamicBody())

	b, _ := bodies.Get(h)
	b.LinVel = mgl64.Vec2{1, 0}
	b.Sleep()
	if !b.IsSleeping() || b.LinVel.Len() != 0 {
		t.Error("Sleep did not deactivate and zero velocity")
	}

	b.ApplyImpulse(mgl64.Vec2{1, 0})
	if b.IsSleeping() {
		t.Error("impulse did not wake the body")
	}
}
