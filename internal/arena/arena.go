// Package arena provides generational-index storage for simulation entities.
//
// An [Arena] maps a stable [Handle] to a slot holding one value. Slots are
// recycled through a free list, and every recycle bumps the slot's generation,
// so a handle held across a remove/insert cycle keeps resolving to "not found"
// instead of silently aliasing the new occupant.
package arena

import (
	"fmt"
	"sort"
)

// Handle identifies a live entity in an arena. The zero Handle is never
// returned by Insert and always resolves to "not found".
type Handle struct {
	index      uint32
	generation uint32
}

// IsValid reports whether h could have been produced by an Insert call.
// It does not check liveness; use [Arena.Contains] for that.
func (h Handle) IsValid() bool { return h.generation != 0 }

// Before orders handles by slot index, then generation. It is the tie-break
// order used wherever deterministic iteration over handles is required.
func (h Handle) Before(o Handle) bool {
	if h.index != o.index {
		return h.index < o.index
	}
	return h.generation < o.generation
}

func (h Handle) String() string {
	return fmt.Sprintf("%d/%d", h.index, h.generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Arena is a generational arena. The zero value is ready to use.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32 // recycled slot indices, kept sorted ascending
	count int
}

// Insert stores value and returns a fresh handle for it. The lowest recycled
// slot is reused before the arena grows.
func (a *Arena[T]) Insert(value T) Handle {
	var index uint32
	if len(a.free) > 0 {
		index = a.free[0]
		a.free = a.free[1:]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[index]
	s.generation++
	s.value = value
	s.live = true
	a.count++
	return Handle{index: index, generation: s.generation}
}

// Get returns a pointer to the value addressed by h, or false if h is stale
// or was never issued by this arena.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, false
	}
	return &s.value, true
}

// Contains reports whether h addresses a live entity.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Remove deletes the entity addressed by h and returns it. A stale handle is
// a no-op returning false. The freed slot's generation is bumped so h can
// never resolve again.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if int(h.index) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}
	value := s.value
	s.value = zero
	s.live = false
	s.generation++
	a.count--

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i] >= h.index })
	a.free = append(a.free, 0)
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = h.index
	return value, true
}

// Len returns the number of live entities.
func (a *Arena[T]) Len() int { return a.count }

// Each calls fn for every live entity in ascending slot order. Returning
// false from fn stops the iteration. Removing entities other than the one
// being visited during iteration is not supported.
func (a *Arena[T]) Each(fn func(Handle, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{index: uint32(i), generation: s.generation}, &s.value) {
			return
		}
	}
}

// Handles returns the handles of all live entities in ascending slot order.
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, a.count)
	a.Each(func(h Handle, _ *T) bool {
		out = append(out, h)
		return true
	})
	return out
}
