package dynamics

import (
	"github.com/impel-engine/impel/internal/arena"
	"github.com/impel-engine/impel/internal/geometry"
)

// RigidBodySet owns the rigid bodies of one simulation.
type RigidBodySet struct {
	bodies arena.Arena[RigidBody]
}

// NewRigidBodySet returns an empty set.
func NewRigidBodySet() *RigidBodySet { return &RigidBodySet{} }

// Insert validates desc and adds the body, returning its handle.
func (s *RigidBodySet) Insert(desc RigidBodyDesc) (BodyHandle, error) {
	if err := desc.validate(); err != nil {
		return BodyHandle{}, err
	}
	body := RigidBody{
		Pose:      geometry.NewIsometry(desc.Position, desc.Rotation),
		LinVel:    desc.LinVel,
		AngVel:    desc.AngVel,
		Status:    desc.Status,
		extraMass: desc.AdditionalMass,

		canSleep:   desc.CanSleep && desc.Status == BodyDynamic,
		ccdEnabled: desc.CCDEnabled,
	}
	if desc.AdditionalMass > 0 {
		body.mass = MassProps{
			Mass:    desc.AdditionalMass,
			InvMass: 1 / desc.AdditionalMass,
		}
	}
	return BodyHandle{s.bodies.Insert(body)}, nil
}

// Get returns the body addressed by h, or false for a stale handle.
func (s *RigidBodySet) Get(h BodyHandle) (*RigidBody, bool) {
	return s.bodies.Get(h.Handle)
}

// Contains reports whether h addresses a live body.
func (s *RigidBodySet) Contains(h BodyHandle) bool {
	return s.bodies.Contains(h.Handle)
}

// Len returns the number of live bodies.
func (s *RigidBodySet) Len() int { return s.bodies.Len() }

// ForEach visits every body in ascending handle order.
func (s *RigidBodySet) ForEach(fn func(BodyHandle, *RigidBody) bool) {
	s.bodies.Each(func(h arena.Handle, b *RigidBody) bool {
		return fn(BodyHandle{h}, b)
	})
}

// Handles returns all live body handles in ascending order.
func (s *RigidBodySet) Handles() []BodyHandle {
	out := make([]BodyHandle, 0, s.bodies.Len())
	s.ForEach(func(h BodyHandle, _ *RigidBody) bool {
		out = append(out, h)
		return true
	})
	return out
}

// Remove deletes the body and cascades: its attached colliders are removed
// from colliders, and all joints referencing it are removed from joints.
// The body handle, its collider handles and the incident joint handles are
// all invalid afterwards.
func (s *RigidBodySet) Remove(h BodyHandle, colliders *ColliderSet, joints *JointSet) bool {
	body, ok := s.bodies.Remove(h.Handle)
	if !ok {
		return false
	}
	for _, ch := range body.colliders {
		colliders.removeOrphan(ch)
	}
	if joints != nil {
		joints.removeIncident(h, s)
	}
	return true
}
