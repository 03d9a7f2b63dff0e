package dynamics

import (
	"github.com/impel-engine/impel/internal/arena"
)

// JointSet owns the joints of one simulation and indexes them by endpoint
// body for cascade removal and island linking.
type JointSet struct {
	joints   arena.Arena[Joint]
	incident map[BodyHandle][]JointHandle
}

// NewJointSet returns an empty set.
func NewJointSet() *JointSet {
	return &JointSet{incident: make(map[BodyHandle][]JointHandle)}
}

// Insert validates the joint, checks both endpoint bodies exist, and adds it.
// Both bodies are woken.
func (s *JointSet) Insert(j Joint, bodies *RigidBodySet) (JointHandle, error) {
	if err := j.validate(); err != nil {
		return JointHandle{}, err
	}
	bodyA, okA := bodies.Get(j.BodyA)
	bodyB, okB := bodies.Get(j.BodyB)
	if !okA || !okB {
		return JointHandle{}, ErrUnknownBody
	}
	if j.Kind == JointPrismatic {
		j.LocalAxisA = j.LocalAxisA.Normalize()
		j.ReferenceAngle = bodyB.Pose.Angle() - bodyA.Pose.Angle()
	}

	h := JointHandle{s.joints.Insert(j)}
	s.incident[j.BodyA] = append(s.incident[j.BodyA], h)
	s.incident[j.BodyB] = append(s.incident[j.BodyB], h)
	bodyA.WakeUp()
	bodyB.WakeUp()
	return h, nil
}

// Get returns the joint addressed by h, or false for a stale handle.
func (s *JointSet) Get(h JointHandle) (*Joint, bool) {
	return s.joints.Get(h.Handle)
}

// Contains reports whether h addresses a live joint.
func (s *JointSet) Contains(h JointHandle) bool {
	return s.joints.Contains(h.Handle)
}

// Len returns the number of live joints.
func (s *JointSet) Len() int { return s.joints.Len() }

// ForEach visits every joint in ascending handle order.
func (s *JointSet) ForEach(fn func(JointHandle, *Joint) bool) {
	s.joints.Each(func(h arena.Handle, j *Joint) bool {
		return fn(JointHandle{h}, j)
	})
}

// IncidentJoints returns the handles of all joints attached to body. The
// slice is owned by the set and must not be mutated.
func (s *JointSet) IncidentJoints(body BodyHandle) []JointHandle {
	return s.incident[body]
}

// Remove deletes the joint and wakes its endpoint bodies so a structure that
// lost support does not stay asleep.
func (s *JointSet) Remove(h JointHandle, bodies *RigidBodySet) (Joint, bool) {
	j, ok := s.joints.Remove(h.Handle)
	if !ok {
		return Joint{}, false
	}
	s.dropIncident(j.BodyA, h)
	s.dropIncident(j.BodyB, h)
	for _, bh := range []BodyHandle{j.BodyA, j.BodyB} {
		if body, ok := bodies.Get(bh); ok {
			body.WakeUp()
		}
	}
	return j, true
}

// removeIncident removes every joint referencing body; part of the
// body-removal cascade.
func (s *JointSet) removeIncident(body BodyHandle, bodies *RigidBodySet) {
	handles := s.incident[body]
	delete(s.incident, body)
	for _, h := range handles {
		j, ok := s.joints.Remove(h.Handle)
		if !ok {
			continue
		}
		other := j.BodyA
		if other == body {
			other = j.BodyB
		}
		s.dropIncident(other, h)
		if b, ok := bodies.Get(other); ok {
			b.WakeUp()
		}
	}
}

func (s *JointSet) dropIncident(body BodyHandle, h JointHandle) {
	list := s.incident[body]
	for i, jh := range list {
		if jh == h {
			s.incident[body] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.incident[body]) == 0 {
		delete(s.incident, body)
	}
}
