package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Domain errors for shape construction.
var (
	// ErrDegenerateShape indicates a shape with non-positive or non-finite extents.
	ErrDegenerateShape = errors.New("geometry: degenerate shape")

	// ErrNonConvex indicates a polygon whose vertices do not form a convex hull.
	ErrNonConvex = errors.New("geometry: polygon is not convex")
)

// ShapeType discriminates the concrete shape behind the [Shape] interface.
type ShapeType int

const (
	ShapeBall ShapeType = iota
	ShapeCuboid
	ShapeCapsule
	ShapeConvexPolygon
)

func (t ShapeType) String() string {
	switch t {
	case ShapeBall:
		return "ball"
	case ShapeCuboid:
		return "cuboid"
	case ShapeCapsule:
		return "capsule"
	case ShapeConvexPolygon:
		return "convex-polygon"
	default:
		return "unknown"
	}
}

// ShapeMass holds the mass properties of a shape at unit scale: total mass,
// rotational inertia about the centroid, and the centroid in shape-local space.
type ShapeMass struct {
	Mass    float64
	Inertia float64
	Center  mgl64.Vec2
}

// Shape is a convex collision shape. All concrete shapes are represented
// internally as a convex core polygon with a border radius: a ball is one
// point with a radius, a capsule a segment with a radius, a cuboid or convex
// polygon its vertices with radius zero. Collision queries operate uniformly
// on this representation.
type Shape interface {
	Type() ShapeType

	// ComputeAABB returns the world-space bounding box under pose.
	ComputeAABB(pose Isometry) AABB

	// MassProperties returns the mass, inertia and centroid at the given density.
	MassProperties(density float64) ShapeMass

	core() roundedPolygon
}

// roundedPolygon is the shared convex-core representation. Vertices are in
// shape-local space, counter-clockwise; normals[i] is the outward normal of
// the edge from verts[i] to verts[(i+1)%n].
type roundedPolygon struct {
	verts   []mgl64.Vec2
	normals []mgl64.Vec2
	radius  float64
}

// boundingRadius returns the radius of the smallest origin-centered circle
// containing the shape. Used as a rotation bound by time-of-impact queries.
func (p roundedPolygon) boundingRadius() float64 {
	r := 0.0
	for _, v := range p.verts {
		r = max(r, v.Len())
	}
	return r + p.radius
}

func coreAABB(p roundedPolygon, pose Isometry) AABB {
	first := pose.Point(p.verts[0])
	box := AABB{Min: first, Max: first}
	for _, v := range p.verts[1:] {
		w := pose.Point(v)
		box.Min = mgl64.Vec2{min(box.Min.X(), w.X()), min(box.Min.Y(), w.Y())}
		box.Max = mgl64.Vec2{max(box.Max.X(), w.X()), max(box.Max.Y(), w.Y())}
	}
	return box.Inflate(p.radius)
}

// Ball is a circle of the given radius centered on the shape origin.
type Ball struct {
	Radius float64
}

// NewBall validates and builds a ball shape.
func NewBall(radius float64) (Ball, error) {
	if !(radius > 0) || !isFinite(radius) {
		return Ball{}, fmt.Errorf("%w: ball radius %v", ErrDegenerateShape, radius)
	}
	return Ball{Radius: radius}, nil
}

func (b Ball) Type() ShapeType { return ShapeBall }

func (b Ball) ComputeAABB(pose Isometry) AABB {
	return NewAABB(pose.Translation, mgl64.Vec2{b.Radius, b.Radius})
}

func (b Ball) MassProperties(density float64) ShapeMass {
	mass := density * math.Pi * b.Radius * b.Radius
	return ShapeMass{Mass: mass, Inertia: 0.5 * mass * b.Radius * b.Radius}
}

func (b Ball) core() roundedPolygon {
	return roundedPolygon{verts: []mgl64.Vec2{{0, 0}}, radius: b.Radius}
}

// Cuboid is a rectangle described by its half-extents.
type Cuboid struct {
	HalfExtents mgl64.Vec2
}

// NewCuboid validates and builds a cuboid shape.
func NewCuboid(hx, hy float64) (Cuboid, error) {
	if !(hx > 0) || !(hy > 0) || !isFinite(hx) || !isFinite(hy) {
		return Cuboid{}, fmt.Errorf("%w: cuboid half extents (%v, %v)", ErrDegenerateShape, hx, hy)
	}
	return Cuboid{HalfExtents: mgl64.Vec2{hx, hy}}, nil
}

func (c Cuboid) Type() ShapeType { return ShapeCuboid }

func (c Cuboid) ComputeAABB(pose Isometry) AABB {
	return coreAABB(c.core(), pose)
}

func (c Cuboid) MassProperties(density float64) ShapeMass {
	hx, hy := c.HalfExtents.X(), c.HalfExtents.Y()
	mass := density * 4 * hx * hy
	inertia := mass * (4*hx*hx + 4*hy*hy) / 12
	return ShapeMass{Mass: mass, Inertia: inertia}
}

func (c Cuboid) core() roundedPolygon {
	hx, hy := c.HalfExtents.X(), c.HalfExtents.Y()
	return roundedPolygon{
		verts: []mgl64.Vec2{
			{hx, -hy}, {hx, hy}, {-hx, hy}, {-hx, -hy},
		},
		normals: []mgl64.Vec2{
			{1, 0}, {0, 1}, {-1, 0}, {0, -1},
		},
	}
}

// Capsule is a segment along the local x-axis with rounded caps: the set of
// points within Radius of the segment from (-HalfHeight, 0) to (HalfHeight, 0).
type Capsule struct {
	HalfHeight float64
	Radius     float64
}

// NewCapsule validates and builds a capsule shape.
func NewCapsule(halfHeight, radius float64) (Capsule, error) {
	if !(halfHeight > 0) || !(radius > 0) || !isFinite(halfHeight) || !isFinite(radius) {
		return Capsule{}, fmt.Errorf("%w: capsule half height %v radius %v", ErrDegenerateShape, halfHeight, radius)
	}
	return Capsule{HalfHeight: halfHeight, Radius: radius}, nil
}

func (c Capsule) Type() ShapeType { return ShapeCapsule }

func (c Capsule) ComputeAABB(pose Isometry) AABB {
	return coreAABB(c.core(), pose)
}

func (c Capsule) MassProperties(density float64) ShapeMass {
	hh, r := c.HalfHeight, c.Radius

	// Rectangle part plus the two half discs treated as a full disc whose
	// mass sits at the segment endpoints.
	rectMass := density * 4 * hh * r
	rectInertia := rectMass * (4*hh*hh + 4*r*r) / 12
	discMass := density * math.Pi * r * r
	discInertia := discMass * (0.5*r*r + hh*hh)

	return ShapeMass{Mass: rectMass + discMass, Inertia: rectInertia + discInertia}
}

func (c Capsule) core() roundedPolygon {
	return roundedPolygon{
		verts:   []mgl64.Vec2{{-c.HalfHeight, 0}, {c.HalfHeight, 0}},
		normals: []mgl64.Vec2{{0, -1}, {0, 1}},
		radius:  c.Radius,
	}
}

// ConvexPolygon is an arbitrary convex polygon given by its vertices.
type ConvexPolygon struct {
	verts   []mgl64.Vec2
	normals []mgl64.Vec2
}

// NewConvexPolygon validates and builds a convex polygon shape. Vertices must
// describe a convex, non-degenerate polygon; both winding orders are accepted
// and normalized to counter-clockwise.
func NewConvexPolygon(verts []mgl64.Vec2) (ConvexPolygon, error) {
	if len(verts) < 3 {
		return ConvexPolygon{}, fmt.Errorf("%w: polygon with %d vertices", ErrDegenerateShape, len(verts))
	}
	vs := make([]mgl64.Vec2, len(verts))
	copy(vs, verts)

	if signedArea(vs) < 0 {
		for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
			vs[i], vs[j] = vs[j], vs[i]
		}
	}
	if area := signedArea(vs); !(area > 1e-12) || !isFinite(area) {
		return ConvexPolygon{}, fmt.Errorf("%w: polygon area %v", ErrDegenerateShape, signedArea(vs))
	}

	n := len(vs)
	normals := make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		edge := vs[(i+1)%n].Sub(vs[i])
		if edge.Len() < 1e-12 {
			return ConvexPolygon{}, fmt.Errorf("%w: repeated polygon vertex %d", ErrDegenerateShape, i)
		}
		next := vs[(i+2)%n].Sub(vs[(i+1)%n])
		if Cross(edge, next) < -1e-12 {
			return ConvexPolygon{}, ErrNonConvex
		}
		normals[i] = mgl64.Vec2{edge.Y(), -edge.X()}.Normalize()
	}
	return ConvexPolygon{verts: vs, normals: normals}, nil
}

func (p ConvexPolygon) Type() ShapeType { return ShapeConvexPolygon }

// Vertices returns the polygon vertices in counter-clockwise order.
func (p ConvexPolygon) Vertices() []mgl64.Vec2 { return p.verts }

func (p ConvexPolygon) ComputeAABB(pose Isometry) AABB {
	return coreAABB(p.core(), pose)
}

func (p ConvexPolygon) MassProperties(density float64) ShapeMass {
	// Decompose into triangles fanned from the first vertex; standard
	// polygon mass integrals.
	var area, inertia float64
	var center mgl64.Vec2
	ref := p.verts[0]
	for i := 1; i < len(p.verts)-1; i++ {
		e1 := p.verts[i].Sub(ref)
		e2 := p.verts[i+1].Sub(ref)
		triArea := 0.5 * Cross(e1, e2)
		area += triArea

		triCenter := ref.Add(e1.Add(e2).Mul(1.0 / 3.0))
		center = center.Add(triCenter.Mul(triArea))

		// Inertia of the triangle about ref.
		intx2 := e1.X()*e1.X() + e1.X()*e2.X() + e2.X()*e2.X()
		inty2 := e1.Y()*e1.Y() + e1.Y()*e2.Y() + e2.Y()*e2.Y()
		inertia += (0.5 * Cross(e1, e2) / 6) * (intx2 + inty2)
	}
	center = center.Mul(1 / area)
	mass := density * area

	// Shift inertia from ref to the centroid.
	inertiaAboutRef := density * inertia
	d := center.Sub(ref)
	inertiaAboutCenter := inertiaAboutRef - mass*d.Dot(d)
	return ShapeMass{Mass: mass, Inertia: inertiaAboutCenter, Center: center}
}

func (p ConvexPolygon) core() roundedPolygon {
	return roundedPolygon{verts: p.verts, normals: p.normals}
}

func signedArea(verts []mgl64.Vec2) float64 {
	var area float64
	for i := range verts {
		j := (i + 1) % len(verts)
		area += Cross(verts[i], verts[j])
	}
	return area / 2
}
