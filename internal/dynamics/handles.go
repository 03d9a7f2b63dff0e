package dynamics

import "github.com/impel-engine/impel/internal/arena"

// BodyHandle identifies a rigid body in a [RigidBodySet].
type BodyHandle struct{ arena.Handle }

// ColliderHandle identifies a collider in a [ColliderSet].
type ColliderHandle struct{ arena.Handle }

// JointHandle identifies a joint in a [JointSet].
type JointHandle struct{ arena.Handle }

// ColliderPair is an unordered pair of collider handles in canonical order.
type ColliderPair struct {
	A, B ColliderHandle
}

// MakeColliderPair canonicalizes the pair so that (a, b) and (b, a) compare
// equal and sort identically.
func MakeColliderPair(a, b ColliderHandle) ColliderPair {
	if b.Before(a.Handle) {
		a, b = b, a
	}
	return ColliderPair{A: a, B: b}
}

// Before orders pairs lexicographically; the deterministic solver and event
// paths use it as their tie-break.
func (p ColliderPair) Before(o ColliderPair) bool {
	if p.A != o.A {
		return p.A.Before(o.A.Handle)
	}
	return p.B.Before(o.B.Handle)
}
