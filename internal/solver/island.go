package solver

import (
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/narrowphase"
)

// island is a connected component of awake dynamic bodies linked by contacts
// or joints. Static and kinematic bodies anchor constraints but never join
// two islands: propagation stops at them.
type island struct {
	bodies   []dynamics.BodyHandle
	contacts []*narrowphase.Contact
	joints   []dynamics.JointHandle
}

func (isl *island) reset() {
	isl.bodies = isl.bodies[:0]
	isl.contacts = isl.contacts[:0]
	isl.joints = isl.joints[:0]
}

// islandBuilder holds the flood-fill scratch reused across steps.
type islandBuilder struct {
	islands []island

	stack          []dynamics.BodyHandle
	visitedBodies  map[dynamics.BodyHandle]bool
	visitedContact map[dynamics.ColliderPair]bool
	visitedJoint   map[dynamics.JointHandle]bool

	// contact adjacency, rebuilt each step in canonical pair order so the
	// fill visits edges deterministically.
	contactsOf map[dynamics.BodyHandle][]*narrowphase.Contact
}

func newIslandBuilder() *islandBuilder {
	return &islandBuilder{
		visitedBodies:  make(map[dynamics.BodyHandle]bool),
		visitedContact: make(map[dynamics.ColliderPair]bool),
		visitedJoint:   make(map[dynamics.JointHandle]bool),
		contactsOf:     make(map[dynamics.BodyHandle][]*narrowphase.Contact),
	}
}

// build partitions the awake part of the world into islands. Sleeping bodies
// reached from an awake island are woken and absorbed; islands made only of
// sleeping bodies are not formed at all.
func (ib *islandBuilder) build(bodies *dynamics.RigidBodySet, joints *dynamics.JointSet, np *narrowphase.NarrowPhase) []island {
	clear(ib.visitedBodies)
	clear(ib.visitedContact)
	clear(ib.visitedJoint)
	for k := range ib.contactsOf {
		ib.contactsOf[k] = ib.contactsOf[k][:0]
	}

	np.ForEachContact(func(c *narrowphase.Contact) bool {
		if c.Manifold.Count == 0 {
			return true
		}
		ib.contactsOf[c.BodyA] = append(ib.contactsOf[c.BodyA], c)
		ib.contactsOf[c.BodyB] = append(ib.contactsOf[c.BodyB], c)
		return true
	})

	islandCount := 0
	bodies.ForEach(func(seed dynamics.BodyHandle, body *dynamics.RigidBody) bool {
		if !body.IsDynamic() || body.IsSleeping() || ib.visitedBodies[seed] {
			return true
		}

		if islandCount == len(ib.islands) {
			ib.islands = append(ib.islands, island{})
		}
		isl := &ib.islands[islandCount]
		isl.reset()
		islandCount++

		ib.stack = append(ib.stack[:0], seed)
		ib.visitedBodies[seed] = true
		for len(ib.stack) > 0 {
			h := ib.stack[len(ib.stack)-1]
			ib.stack = ib.stack[:len(ib.stack)-1]
			b, ok := bodies.Get(h)
			if !ok {
				continue
			}
			isl.bodies = append(isl.bodies, h)

			// A sleeping body pulled into an awake island participates in
			// this step from rest.
			if b.IsSleeping() {
				b.WakeUp()
			}

			for _, contact := range ib.contactsOf[h] {
				if ib.visitedContact[contact.Pair] {
					continue
				}
				ib.visitedContact[contact.Pair] = true
				isl.contacts = append(isl.contacts, contact)
				ib.pushNeighbor(bodies, otherBody(contact, h))
			}
			for _, jh := range joints.IncidentJoints(h) {
				if ib.visitedJoint[jh] {
					continue
				}
				joint, ok := joints.Get(jh)
				if !ok {
					continue
				}
				ib.visitedJoint[jh] = true
				isl.joints = append(isl.joints, jh)
				other := joint.BodyA
				if other == h {
					other = joint.BodyB
				}
				ib.pushNeighbor(bodies, other)
			}
		}
		return true
	})

	return ib.islands[:islandCount]
}

// pushNeighbor queues a body for expansion. Static and kinematic bodies are
// anchors: their constraints were already collected by the body that reached
// them, and they must not merge islands.
func (ib *islandBuilder) pushNeighbor(bodies *dynamics.RigidBodySet, h dynamics.BodyHandle) {
	if ib.visitedBodies[h] {
		return
	}
	body, ok := bodies.Get(h)
	if !ok || !body.IsDynamic() {
		return
	}
	ib.visitedBodies[h] = true
	ib.stack = append(ib.stack, h)
}

func otherBody(c *narrowphase.Contact, h dynamics.BodyHandle) dynamics.BodyHandle {
	if c.BodyA == h {
		return c.BodyB
	}
	return c.BodyA
}
