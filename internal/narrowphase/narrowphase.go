// Package narrowphase turns broad-phase candidate pairs into exact contact
// manifolds and sensor overlaps. Pairs persist across steps as edges in two
// graphs — one for solid contacts, one for intersections involving sensors —
// so that gained/lost transitions can be detected and reported as events.
package narrowphase

import (
	"math"
	"sort"

	"github.com/impel-engine/impel/internal/broadphase"
	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/events"
	"github.com/impel-engine/impel/internal/geometry"
)

// Hooks let the caller veto or edit pairs. FilterContactPair and
// FilterIntersectionPair run once when a candidate pair first appears; a
// false return keeps the pair out of its graph for as long as the broad
// phase reports it. ModifyContacts runs after every manifold computation and
// may edit the manifold in place.
type Hooks interface {
	FilterContactPair(a, b dynamics.ColliderHandle, ca, cb *dynamics.Collider) bool
	FilterIntersectionPair(a, b dynamics.ColliderHandle, ca, cb *dynamics.Collider) bool
	ModifyContacts(a, b dynamics.ColliderHandle, m *geometry.Manifold)
}

// NopHooks accepts every pair and leaves manifolds untouched.
type NopHooks struct{}

func (NopHooks) FilterContactPair(_, _ dynamics.ColliderHandle, _, _ *dynamics.Collider) bool {
	return true
}

func (NopHooks) FilterIntersectionPair(_, _ dynamics.ColliderHandle, _, _ *dynamics.Collider) bool {
	return true
}

func (NopHooks) ModifyContacts(_, _ dynamics.ColliderHandle, _ *geometry.Manifold) {}

// Contact is a persistent contact edge between two non-sensor colliders.
// The manifold is recomputed each step; Touching tracks whether any point
// actually overlaps (speculative points alone do not count).
type Contact struct {
	Pair     dynamics.ColliderPair
	BodyA    dynamics.BodyHandle
	BodyB    dynamics.BodyHandle
	Manifold geometry.Manifold
	Touching bool

	// Combined material coefficients, refreshed each step.
	Friction    float64
	Restitution float64
}

// Intersection is a persistent overlap edge for a pair with at least one
// sensor collider.
type Intersection struct {
	Pair         dynamics.ColliderPair
	Intersecting bool
}

// graph stores edges keyed by canonical pair plus a per-collider adjacency
// index for the ContactsWith/IntersectionsWith queries.
type graph[E any] struct {
	edges    map[dynamics.ColliderPair]*E
	incident map[dynamics.ColliderHandle][]dynamics.ColliderPair
}

func newGraph[E any]() graph[E] {
	return graph[E]{
		edges:    make(map[dynamics.ColliderPair]*E),
		incident: make(map[dynamics.ColliderHandle][]dynamics.ColliderPair),
	}
}

func (g *graph[E]) add(pair dynamics.ColliderPair, edge *E) {
	if _, ok := g.edges[pair]; ok {
		return
	}
	g.edges[pair] = edge
	g.incident[pair.A] = append(g.incident[pair.A], pair)
	g.incident[pair.B] = append(g.incident[pair.B], pair)
}

func (g *graph[E]) remove(pair dynamics.ColliderPair) (*E, bool) {
	edge, ok := g.edges[pair]
	if !ok {
		return nil, false
	}
	delete(g.edges, pair)
	g.dropIncident(pair.A, pair)
	g.dropIncident(pair.B, pair)
	return edge, true
}

func (g *graph[E]) dropIncident(h dynamics.ColliderHandle, pair dynamics.ColliderPair) {
	list := g.incident[h]
	for i, p := range list {
		if p == pair {
			list[i] = list[len(list)-1]
			g.incident[h] = list[:len(list)-1]
			break
		}
	}
	if len(g.incident[h]) == 0 {
		delete(g.incident, h)
	}
}

// sortedPairs returns the edge keys in canonical order, reusing scratch.
func (g *graph[E]) sortedPairs(scratch []dynamics.ColliderPair) []dynamics.ColliderPair {
	scratch = scratch[:0]
	for pair := range g.edges {
		scratch = append(scratch, pair)
	}
	sort.Slice(scratch, func(i, j int) bool { return scratch[i].Before(scratch[j]) })
	return scratch
}

// NarrowPhase owns the contact and intersection graphs of one simulation.
type NarrowPhase struct {
	contacts      graph[Contact]
	intersections graph[Intersection]

	contactOrder      []dynamics.ColliderPair
	intersectionOrder []dynamics.ColliderPair
}

// New returns an empty narrow phase.
func New() *NarrowPhase {
	return &NarrowPhase{
		contacts:      newGraph[Contact](),
		intersections: newGraph[Intersection](),
	}
}

// RegisterPairEvents applies one step's broad-phase deltas to the graphs.
// Added pairs are classified (sensor involvement routes to the intersection
// graph) and filtered by parentage, interaction groups and the user hooks.
// Removed pairs retire their edges; a retired edge that was touching or
// intersecting emits its stopped event immediately.
func (np *NarrowPhase) RegisterPairEvents(ev broadphase.PairEvents, bodies *dynamics.RigidBodySet, colliders *dynamics.ColliderSet, hooks Hooks, sink events.Sink) {
	for _, pair := range ev.Added {
		ca, okA := colliders.Get(pair.A)
		cb, okB := colliders.Get(pair.B)
		if !okA || !okB {
			continue
		}
		if ca.Parent == cb.Parent {
			continue
		}
		if !ca.Groups.Test(cb.Groups) {
			continue
		}
		if ca.Sensor || cb.Sensor {
			if !hooks.FilterIntersectionPair(pair.A, pair.B, ca, cb) {
				continue
			}
			np.intersections.add(pair, &Intersection{Pair: pair})
			continue
		}
		bodyA, okA := bodies.Get(ca.Parent)
		bodyB, okB := bodies.Get(cb.Parent)
		if !okA || !okB {
			continue
		}
		// A pair with no dynamic body can never produce forces.
		if !bodyA.IsDynamic() && !bodyB.IsDynamic() {
			continue
		}
		if !hooks.FilterContactPair(pair.A, pair.B, ca, cb) {
			continue
		}
		np.contacts.add(pair, &Contact{Pair: pair, BodyA: ca.Parent, BodyB: cb.Parent})
	}

	for _, pair := range ev.Removed {
		if contact, ok := np.contacts.remove(pair); ok && contact.Touching {
			sink.HandleContactEvent(events.ContactEvent{
				ColliderA: pair.A, ColliderB: pair.B, Started: false,
			})
			wakePair(bodies, contact.BodyA, contact.BodyB)
		}
		if inter, ok := np.intersections.remove(pair); ok && inter.Intersecting {
			sink.HandleIntersectionEvent(events.IntersectionEvent{
				ColliderA: pair.A, ColliderB: pair.B, Intersecting: false,
			})
		}
	}
}

// UpdateContacts recomputes every edge's manifold or overlap state and emits
// transition events. Edges whose bodies are all sleeping keep their previous
// state untouched. Iteration follows canonical pair order so event emission
// and manifold contents are reproducible run to run.
func (np *NarrowPhase) UpdateContacts(bodies *dynamics.RigidBodySet, colliders *dynamics.ColliderSet, params *dynamics.IntegrationParams, hooks Hooks, sink events.Sink) {
	np.contactOrder = np.contacts.sortedPairs(np.contactOrder)
	for _, pair := range np.contactOrder {
		contact := np.contacts.edges[pair]
		ca, okA := colliders.Get(pair.A)
		cb, okB := colliders.Get(pair.B)
		if !okA || !okB {
			np.contacts.remove(pair)
			continue
		}
		bodyA, _ := bodies.Get(contact.BodyA)
		bodyB, _ := bodies.Get(contact.BodyB)
		if bodyA == nil || bodyB == nil {
			np.contacts.remove(pair)
			continue
		}
		if asleep(bodyA) && asleep(bodyB) {
			continue
		}

		// Both material coefficients combine by geometric mean.
		contact.Friction = math.Sqrt(ca.Friction * cb.Friction)
		contact.Restitution = math.Sqrt(ca.Restitution * cb.Restitution)

		manifold := geometry.Collide(ca.Shape, ca.Pose, cb.Shape, cb.Pose, params.PredictionDistance)
		hooks.ModifyContacts(pair.A, pair.B, &manifold)
		contact.Manifold = manifold

		touching := overlapping(&manifold)
		if touching && !contact.Touching {
			sink.HandleContactEvent(events.ContactEvent{
				ColliderA: pair.A, ColliderB: pair.B, Started: true,
			})
			wakePair(bodies, contact.BodyA, contact.BodyB)
		} else if !touching && contact.Touching {
			sink.HandleContactEvent(events.ContactEvent{
				ColliderA: pair.A, ColliderB: pair.B, Started: false,
			})
		}
		contact.Touching = touching
	}

	np.intersectionOrder = np.intersections.sortedPairs(np.intersectionOrder)
	for _, pair := range np.intersectionOrder {
		inter := np.intersections.edges[pair]
		ca, okA := colliders.Get(pair.A)
		cb, okB := colliders.Get(pair.B)
		if !okA || !okB {
			np.intersections.remove(pair)
			continue
		}
		if bothParentsAsleep(bodies, ca.Parent, cb.Parent) {
			continue
		}

		intersecting := geometry.Intersects(ca.Shape, ca.Pose, cb.Shape, cb.Pose)
		if intersecting != inter.Intersecting {
			sink.HandleIntersectionEvent(events.IntersectionEvent{
				ColliderA: pair.A, ColliderB: pair.B, Intersecting: intersecting,
			})
		}
		inter.Intersecting = intersecting
	}
}

// ForEachContact visits the contact edges in canonical pair order. The
// solver consumes contacts through this; edge pointers stay valid for the
// rest of the step.
func (np *NarrowPhase) ForEachContact(fn func(*Contact) bool) {
	np.contactOrder = np.contacts.sortedPairs(np.contactOrder)
	for _, pair := range np.contactOrder {
		if !fn(np.contacts.edges[pair]) {
			return
		}
	}
}

// ContactsWith visits every contact edge incident to the collider.
func (np *NarrowPhase) ContactsWith(h dynamics.ColliderHandle, fn func(*Contact) bool) {
	for _, pair := range np.contacts.incident[h] {
		if !fn(np.contacts.edges[pair]) {
			return
		}
	}
}

// IntersectionsWith visits every intersection edge incident to the collider.
func (np *NarrowPhase) IntersectionsWith(h dynamics.ColliderHandle, fn func(*Intersection) bool) {
	for _, pair := range np.intersections.incident[h] {
		if !fn(np.intersections.edges[pair]) {
			return
		}
	}
}

// ContactPair returns the contact edge for two colliders, if one exists.
func (np *NarrowPhase) ContactPair(a, b dynamics.ColliderHandle) (*Contact, bool) {
	c, ok := np.contacts.edges[dynamics.MakeColliderPair(a, b)]
	return c, ok
}

// IntersectionPair returns the intersection edge for two colliders, if one
// exists.
func (np *NarrowPhase) IntersectionPair(a, b dynamics.ColliderHandle) (*Intersection, bool) {
	i, ok := np.intersections.edges[dynamics.MakeColliderPair(a, b)]
	return i, ok
}

// overlapping reports whether the manifold has at least one point of real
// penetration, as opposed to speculative points within the prediction
// distance.
func overlapping(m *geometry.Manifold) bool {
	for i := 0; i < m.Count; i++ {
		if m.Points[i].Penetration >= 0 {
			return true
		}
	}
	return false
}

// asleep reports whether a body cannot move this step: static bodies never
// move, dynamic bodies are pinned while sleeping, kinematic bodies always
// count as moving.
func asleep(b *dynamics.RigidBody) bool {
	if b.IsKinematic() {
		return false
	}
	return b.IsStatic() || b.IsSleeping()
}

func bothParentsAsleep(bodies *dynamics.RigidBodySet, a, b dynamics.BodyHandle) bool {
	ba, okA := bodies.Get(a)
	bb, okB := bodies.Get(b)
	if !okA || !okB {
		return false
	}
	return asleep(ba) && asleep(bb)
}

func wakePair(bodies *dynamics.RigidBodySet, a, b dynamics.BodyHandle) {
	if body, ok := bodies.Get(a); ok && body.IsDynamic() {
		body.WakeUp()
	}
	if body, ok := bodies.Get(b); ok && body.IsDynamic() {
		body.WakeUp()
	}
}
