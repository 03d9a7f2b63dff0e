// Package dynamics holds the simulation entities — rigid bodies, colliders
// and joints — and the handle-indexed sets that own them. All mutation goes
// through the owning set; handles held by callers stay valid until the entity
// is removed and never alias a recycled slot.
package dynamics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/impel-engine/impel/internal/geometry"
)

// BodyStatus selects how a rigid body participates in the simulation.
type BodyStatus int

const (
	// BodyDynamic bodies are moved by gravity, contacts and joints.
	BodyDynamic BodyStatus = iota
	// BodyStatic bodies never move and collide with dynamic bodies only.
	BodyStatic
	// BodyKinematic bodies follow externally driven poses; the solver infers
	// their velocity from pose deltas but never alters it.
	BodyKinematic
)

func (s BodyStatus) String() string {
	switch s {
	case BodyDynamic:
		return "dynamic"
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

// RigidBody is a simulated body. Pose and velocities may be read freely;
// they are written by the solver during a step. Structural state (attached
// colliders, mass) is managed by the owning sets.
type RigidBody struct {
	Pose   geometry.Isometry
	LinVel mgl64.Vec2
	AngVel float64
	Status BodyStatus

	mass      MassProps
	extraMass float64

	force  mgl64.Vec2
	torque float64

	sleeping   bool
	sleepTime  float64
	canSleep   bool
	ccdEnabled bool

	colliders []ColliderHandle

	nextPose    geometry.Isometry
	hasNextPose bool
}

// IsDynamic reports whether the body reacts to forces and contacts.
func (b *RigidBody) IsDynamic() bool { return b.Status == BodyDynamic }

// IsStatic reports whether the body is a fixed anchor.
func (b *RigidBody) IsStatic() bool { return b.Status == BodyStatic }

// IsKinematic reports whether the body's pose is externally driven.
func (b *RigidBody) IsKinematic() bool { return b.Status == BodyKinematic }

// IsSleeping reports whether the body's island has been deactivated.
func (b *RigidBody) IsSleeping() bool { return b.sleeping }

// Mass returns the body's effective mass properties, combining the
// descriptor's additional mass with the attached colliders' contributions.
func (b *RigidBody) Mass() MassProps { return b.mass }

// InvMass returns the inverse mass used by the solver: zero for static and
// kinematic bodies, which act as infinite-mass anchors.
func (b *RigidBody) InvMass() float64 {
	if b.Status != BodyDynamic {
		return 0
	}
	return b.mass.InvMass
}

// InvInertia returns the solver's inverse rotational inertia, zero for
// non-dynamic bodies.
func (b *RigidBody) InvInertia() float64 {
	if b.Status != BodyDynamic {
		return 0
	}
	return b.mass.InvInertia
}

// WorldCom returns the body's center of mass in world space.
func (b *RigidBody) WorldCom() mgl64.Vec2 { return b.Pose.Point(b.mass.LocalCom) }

// Colliders returns the handles of the colliders attached to this body.
// The slice is owned by the set and must not be mutated.
func (b *RigidBody) Colliders() []ColliderHandle { return b.colliders }

// CCDEnabled reports whether continuous collision detection applies.
func (b *RigidBody) CCDEnabled() bool { return b.ccdEnabled }

// EnableCCD toggles continuous collision detection for this body.
func (b *RigidBody) EnableCCD(enabled bool) { b.ccdEnabled = enabled }

// WakeUp reactivates a sleeping body and resets its inactivity timer.
func (b *RigidBody) WakeUp() {
	b.sleeping = false
	b.sleepTime = 0
}

// Sleep deactivates the body and zeroes its velocity. The solver calls this
// for whole islands; callers may force it too.
func (b *RigidBody) Sleep() {
	b.sleeping = true
	b.LinVel = mgl64.Vec2{}
	b.AngVel = 0
	b.force = mgl64.Vec2{}
	b.torque = 0
}

// CanSleep reports whether the body is allowed to be deactivated.
func (b *RigidBody) CanSleep() bool { return b.canSleep }

// SleepTime returns how long the body has been below the sleep thresholds.
func (b *RigidBody) SleepTime() float64 { return b.sleepTime }

// AdvanceSleep accumulates inactivity time; used by the solver.
func (b *RigidBody) AdvanceSleep(dt float64) { b.sleepTime += dt }

// ResetSleepTimer marks the body as recently active.
func (b *RigidBody) ResetSleepTimer() { b.sleepTime = 0 }

// ApplyForce accumulates a force through the center of mass for the next
// step and wakes the body.
func (b *RigidBody) ApplyForce(force mgl64.Vec2) {
	if b.Status != BodyDynamic {
		return
	}
	b.force = b.force.Add(force)
	b.WakeUp()
}

// ApplyTorque accumulates a torque for the next step and wakes the body.
func (b *RigidBody) ApplyTorque(torque float64) {
	if b.Status != BodyDynamic {
		return
	}
	b.torque += torque
	b.WakeUp()
}

// ApplyImpulse changes the body's linear velocity immediately.
func (b *RigidBody) ApplyImpulse(impulse mgl64.Vec2) {
	if b.Status != BodyDynamic {
		return
	}
	b.LinVel = b.LinVel.Add(impulse.Mul(b.mass.InvMass))
	b.WakeUp()
}

// ApplyImpulseAt applies an impulse at a world point, affecting both linear
// and angular velocity.
func (b *RigidBody) ApplyImpulseAt(impulse, point mgl64.Vec2) {
	if b.Status != BodyDynamic {
		return
	}
	b.LinVel = b.LinVel.Add(impulse.Mul(b.mass.InvMass))
	b.AngVel += b.mass.InvInertia * geometry.Cross(point.Sub(b.WorldCom()), impulse)
	b.WakeUp()
}

// Force returns the force accumulated for the next step.
func (b *RigidBody) Force() mgl64.Vec2 { return b.force }

// Torque returns the torque accumulated for the next step.
func (b *RigidBody) Torque() float64 { return b.torque }

// ClearForces resets the accumulators; the pipeline calls this at the end of
// each step.
func (b *RigidBody) ClearForces() {
	b.force = mgl64.Vec2{}
	b.torque = 0
}

// VelocityAt returns the velocity of the world point p as carried by this body.
func (b *RigidBody) VelocityAt(p mgl64.Vec2) mgl64.Vec2 {
	return b.LinVel.Add(geometry.CrossScalar(b.AngVel, p.Sub(b.WorldCom())))
}

// SetNextKinematicPose sets the pose a kinematic body must reach by the end
// of the next step. The pipeline converts the delta into an implied velocity
// so dynamic bodies in contact react realistically.
func (b *RigidBody) SetNextKinematicPose(pose geometry.Isometry) {
	if b.Status != BodyKinematic {
		return
	}
	b.nextPose = pose
	b.hasNextPose = true
}

// NextKinematicPose returns the externally driven target pose, if one was set
// since the last step.
func (b *RigidBody) NextKinematicPose() (geometry.Isometry, bool) {
	return b.nextPose, b.hasNextPose
}

// ClearNextKinematicPose consumes the target pose after integration.
func (b *RigidBody) ClearNextKinematicPose() { b.hasNextPose = false }

// RigidBodyDesc configures a rigid body before insertion. Build one with
// [DynamicBody], [StaticBody] or [KinematicBody] and override fields as
// needed; validation happens once at [RigidBodySet.Insert].
type RigidBodyDesc struct {
	Status   BodyStatus
	Position mgl64.Vec2
	Rotation float64
	LinVel   mgl64.Vec2
	AngVel   float64

	// AdditionalMass is added at the body origin on top of whatever the
	// attached colliders contribute.
	AdditionalMass float64

	CanSleep   bool
	CCDEnabled bool
}

// DynamicBody returns a descriptor for a dynamic body with default settings.
func DynamicBody() RigidBodyDesc {
	return RigidBodyDesc{Status: BodyDynamic, CanSleep: true}
}

// StaticBody returns a descriptor for a static body.
func StaticBody() RigidBodyDesc {
	return RigidBodyDesc{Status: BodyStatic}
}

// KinematicBody returns a descriptor for a kinematic body.
func KinematicBody() RigidBodyDesc {
	return RigidBodyDesc{Status: BodyKinematic}
}

func (d RigidBodyDesc) validate() error {
	pose := geometry.NewIsometry(d.Position, d.Rotation)
	if !pose.IsFinite() {
		return fmt.Errorf("%w: body pose %v / %v", ErrNonFinite, d.Position, d.Rotation)
	}
	if !geometry.NewIsometry(d.LinVel, d.AngVel).IsFinite() {
		return fmt.Errorf("%w: body velocity %v / %v", ErrNonFinite, d.LinVel, d.AngVel)
	}
	if d.AdditionalMass < 0 {
		return fmt.Errorf("%w: additional mass %v", ErrNegativeMass, d.AdditionalMass)
	}
	return nil
}
