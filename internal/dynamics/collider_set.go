package dynamics

import (
	"github.com/impel-engine/impel/internal/arena"
	"github.com/impel-engine/impel/internal/geometry"
)

// ColliderSet owns the colliders of one simulation.
type ColliderSet struct {
	colliders arena.Arena[Collider]
}

// NewColliderSet returns an empty set.
func NewColliderSet() *ColliderSet { return &ColliderSet{} }

// Insert validates desc, attaches the collider to parent and returns its
// handle. The parent body's mass properties are recomputed to include the
// new collider's contribution.
func (s *ColliderSet) Insert(desc ColliderDesc, parent BodyHandle, bodies *RigidBodySet) (ColliderHandle, error) {
	if err := desc.validate(); err != nil {
		return ColliderHandle{}, err
	}
	body, ok := bodies.Get(parent)
	if !ok {
		return ColliderHandle{}, ErrUnknownBody
	}

	poseRel := geometry.NewIsometry(desc.Position, desc.Rotation)
	collider := Collider{
		Shape:       desc.Shape,
		Parent:      parent,
		PoseRel:     poseRel,
		Pose:        body.Pose.Mul(poseRel),
		Density:     desc.Density,
		Friction:    desc.Friction,
		Restitution: desc.Restitution,
		Sensor:      desc.Sensor,
		Groups:      desc.Groups,
	}
	h := ColliderHandle{s.colliders.Insert(collider)}

	body.colliders = append(body.colliders, h)
	body.mass = computeMassProps(body, s)
	body.WakeUp()
	return h, nil
}

// Get returns the collider addressed by h, or false for a stale handle.
func (s *ColliderSet) Get(h ColliderHandle) (*Collider, bool) {
	return s.colliders.Get(h.Handle)
}

// Contains reports whether h addresses a live collider.
func (s *ColliderSet) Contains(h ColliderHandle) bool {
	return s.colliders.Contains(h.Handle)
}

// Len returns the number of live colliders.
func (s *ColliderSet) Len() int { return s.colliders.Len() }

// ForEach visits every collider in ascending handle order.
func (s *ColliderSet) ForEach(fn func(ColliderHandle, *Collider) bool) {
	s.colliders.Each(func(h arena.Handle, c *Collider) bool {
		return fn(ColliderHandle{h}, c)
	})
}

// Parent returns the handle of the body the collider is attached to.
func (s *ColliderSet) Parent(h ColliderHandle) (BodyHandle, bool) {
	c, ok := s.colliders.Get(h.Handle)
	if !ok {
		return BodyHandle{}, false
	}
	return c.Parent, true
}

// Remove detaches and deletes the collider, updating the parent body's
// collider list and mass properties.
func (s *ColliderSet) Remove(h ColliderHandle, bodies *RigidBodySet) bool {
	collider, ok := s.colliders.Remove(h.Handle)
	if !ok {
		return false
	}
	if body, ok := bodies.Get(collider.Parent); ok {
		for i, ch := range body.colliders {
			if ch == h {
				body.colliders = append(body.colliders[:i], body.colliders[i+1:]...)
				break
			}
		}
		body.mass = computeMassProps(body, s)
		body.WakeUp()
	}
	return true
}

// removeOrphan deletes a collider whose parent body is already gone; used by
// the body-removal cascade.
func (s *ColliderSet) removeOrphan(h ColliderHandle) {
	s.colliders.Remove(h.Handle)
}

// RefreshPoses recomputes every collider's world pose from its parent body.
// The broad phase calls this at the start of each step.
func (s *ColliderSet) RefreshPoses(bodies *RigidBodySet) {
	s.ForEach(func(_ ColliderHandle, c *Collider) bool {
		if body, ok := bodies.Get(c.Parent); ok {
			c.Pose = body.Pose.Mul(c.PoseRel)
		}
		return true
	})
}
