package geometry

import "github.com/go-gl/mathgl/mgl64"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec2
}

// NewAABB builds a box from a center and half-extents.
func NewAABB(center, halfExtents mgl64.Vec2) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

// Overlaps reports whether the boxes intersect, boundary included.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X() <= o.Max.X() && o.Min.X() <= b.Max.X() &&
		b.Min.Y() <= o.Max.Y() && o.Min.Y() <= b.Max.Y()
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p mgl64.Vec2) bool {
	return b.Min.X() <= p.X() && p.X() <= b.Max.X() &&
		b.Min.Y() <= p.Y() && p.Y() <= b.Max.Y()
}

// Inflate grows the box by margin on every side.
func (b AABB) Inflate(margin float64) AABB {
	m := mgl64.Vec2{margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Extend grows the box in the direction of motion, covering the swept volume
// of a translation by delta.
func (b AABB) Extend(delta mgl64.Vec2) AABB {
	out := b
	if delta.X() < 0 {
		out.Min[0] += delta.X()
	} else {
		out.Max[0] += delta.X()
	}
	if delta.Y() < 0 {
		out.Min[1] += delta.Y()
	} else {
		out.Max[1] += delta.Y()
	}
	return out
}

// Merge returns the smallest box covering both.
func (b AABB) Merge(o AABB) AABB {
	return AABB{
		Min: mgl64.Vec2{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y())},
		Max: mgl64.Vec2{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y())},
	}
}

// Center returns the box center.
func (b AABB) Center() mgl64.Vec2 { return b.Min.Add(b.Max).Mul(0.5) }

// HalfExtents returns the box half-extents.
func (b AABB) HalfExtents() mgl64.Vec2 { return b.Max.Sub(b.Min).Mul(0.5) }
