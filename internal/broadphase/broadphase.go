// Package broadphase maintains inflated bounding-box proxies for all
// colliders and produces the candidate pairs the narrow phase tests exactly.
// It is a conservative superset: pairs reported here may not touch, but no
// touching pair is ever missed while inside the prediction margin.
//
// Candidate pairs are found by a one-axis sweep and prune: proxy intervals
// are projected on the x-axis, endpoints sorted, and y-overlap checked
// during the sweep.
package broadphase

import (
	"sort"

	"github.com/impel-engine/impel/internal/dynamics"
	"github.com/impel-engine/impel/internal/geometry"
)

// Margin is the base AABB inflation, independent of velocity prediction.
const Margin = 0.05

// PairEvents are the candidate-pair deltas of one broad-phase update. The
// narrow phase uses Removed to retire stale contact and intersection edges.
type PairEvents struct {
	Added   []dynamics.ColliderPair
	Removed []dynamics.ColliderPair
}

type proxy struct {
	handle dynamics.ColliderHandle
	aabb   geometry.AABB
}

type endpoint struct {
	value float64
	index int32 // into proxies
	isMin bool
}

// BroadPhase tracks collider proxies across steps. The zero value is not
// usable; call New.
type BroadPhase struct {
	pairs map[dynamics.ColliderPair]struct{}

	// reusable scratch
	proxies   []proxy
	endpoints []endpoint
	active    []int32
	added     []dynamics.ColliderPair
	removed   []dynamics.ColliderPair
	current   map[dynamics.ColliderPair]struct{}
}

// New returns an empty broad phase.
func New() *BroadPhase {
	return &BroadPhase{
		pairs:   make(map[dynamics.ColliderPair]struct{}),
		current: make(map[dynamics.ColliderPair]struct{}),
	}
}

// Update refreshes collider world poses and proxies, sweeps for overlapping
// inflated AABBs, and returns the pair set deltas since the previous update.
// The returned slices are reused by the next call.
func (bp *BroadPhase) Update(colliders *dynamics.ColliderSet, bodies *dynamics.RigidBodySet, params *dynamics.IntegrationParams) PairEvents {
	colliders.RefreshPoses(bodies)

	bp.proxies = bp.proxies[:0]
	bp.endpoints = bp.endpoints[:0]

	colliders.ForEach(func(h dynamics.ColliderHandle, c *dynamics.Collider) bool {
		aabb := c.Shape.ComputeAABB(c.Pose).Inflate(Margin + params.PredictionDistance)
		if body, ok := bodies.Get(c.Parent); ok && body.IsDynamic() && !body.IsSleeping() {
			// Grow in the direction of travel so fast movers keep their
			// upcoming contacts in the candidate set.
			aabb = aabb.Extend(body.LinVel.Mul(params.Dt))
		}
		idx := int32(len(bp.proxies))
		bp.proxies = append(bp.proxies, proxy{handle: h, aabb: aabb})
		bp.endpoints = append(bp.endpoints,
			endpoint{value: aabb.Min.X(), index: idx, isMin: true},
			endpoint{value: aabb.Max.X(), index: idx, isMin: false},
		)
		return true
	})

	insertionSortEndpoints(bp.endpoints)
	bp.sweep()

	bp.added = bp.added[:0]
	bp.removed = bp.removed[:0]
	for pair := range bp.current {
		if _, ok := bp.pairs[pair]; !ok {
			bp.added = append(bp.added, pair)
		}
	}
	for pair := range bp.pairs {
		if _, ok := bp.current[pair]; !ok {
			bp.removed = append(bp.removed, pair)
		}
	}

	// Deterministic delta order regardless of map iteration.
	sort.Slice(bp.added, func(i, j int) bool { return bp.added[i].Before(bp.added[j]) })
	sort.Slice(bp.removed, func(i, j int) bool { return bp.removed[i].Before(bp.removed[j]) })

	bp.pairs, bp.current = bp.current, bp.pairs
	clear(bp.current)

	return PairEvents{Added: bp.added, Removed: bp.removed}
}

// sweep walks the sorted endpoints tracking the active interval set and
// records x-overlapping pairs whose y-intervals also overlap.
func (bp *BroadPhase) sweep() {
	bp.active = bp.active[:0]
	for _, ep := range bp.endpoints {
		if ep.isMin {
			pa := &bp.proxies[ep.index]
			for _, other := range bp.active {
				pb := &bp.proxies[other]
				if pa.aabb.Min.Y() <= pb.aabb.Max.Y() && pb.aabb.Min.Y() <= pa.aabb.Max.Y() {
					bp.current[dynamics.MakeColliderPair(pa.handle, pb.handle)] = struct{}{}
				}
			}
			bp.active = append(bp.active, ep.index)
		} else {
			for i, idx := range bp.active {
				if idx == ep.index {
					bp.active[i] = bp.active[len(bp.active)-1]
					bp.active = bp.active[:len(bp.active)-1]
					break
				}
			}
		}
	}
}

// QueryAABB invokes fn for every proxy whose inflated AABB (from the most
// recent Update) overlaps the query box. Returning false stops the query.
func (bp *BroadPhase) QueryAABB(aabb geometry.AABB, fn func(dynamics.ColliderHandle) bool) {
	for i := range bp.proxies {
		if bp.proxies[i].aabb.Overlaps(aabb) {
			if !fn(bp.proxies[i].handle) {
				return
			}
		}
	}
}

// insertionSortEndpoints sorts by value. The endpoint array is rebuilt in
// collider order every step, so this is a full sort of the array rather
// than an incremental fix-up of the previous step's order.
func insertionSortEndpoints(eps []endpoint) {
	for i := 1; i < len(eps); i++ {
		e := eps[i]
		j := i - 1
		for j >= 0 && eps[j].value > e.value {
			eps[j+1] = eps[j]
			j--
		}
		eps[j+1] = e
	}
}
