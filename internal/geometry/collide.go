package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ContactPoint is one point of a contact manifold. Penetration is positive
// when the shapes overlap at this point and negative (down to the prediction
// distance) when they are merely close.
type ContactPoint struct {
	Point       mgl64.Vec2
	Penetration float64
}

// Manifold describes the contact region between two shapes. Normal is a unit
// vector in world space pointing from the first shape toward the second.
type Manifold struct {
	Normal mgl64.Vec2
	Points [2]ContactPoint
	Count  int
}

// IsTouching reports whether the manifold carries at least one contact point.
func (m *Manifold) IsTouching() bool { return m.Count > 0 }

func (m *Manifold) push(p mgl64.Vec2, penetration float64) {
	if m.Count < len(m.Points) {
		m.Points[m.Count] = ContactPoint{Point: p, Penetration: penetration}
		m.Count++
	}
}

// worldPoly is a shape core transformed to world space.
type worldPoly struct {
	verts   []mgl64.Vec2
	normals []mgl64.Vec2
	radius  float64
}

func worldCore(s Shape, pose Isometry) worldPoly {
	c := s.core()
	w := worldPoly{
		verts:  make([]mgl64.Vec2, len(c.verts)),
		radius: c.radius,
	}
	for i, v := range c.verts {
		w.verts[i] = pose.Point(v)
	}
	if len(c.normals) > 0 {
		w.normals = make([]mgl64.Vec2, len(c.normals))
		for i, n := range c.normals {
			w.normals[i] = pose.Vector(n)
		}
	}
	return w
}

// Collide computes the contact manifold between two posed shapes. Contacts
// are generated while the shapes are within prediction distance of touching;
// such speculative points carry a negative penetration.
func Collide(a Shape, poseA Isometry, b Shape, poseB Isometry, prediction float64) Manifold {
	wa := worldCore(a, poseA)
	wb := worldCore(b, poseB)

	switch {
	case len(wa.verts) == 1 && len(wb.verts) == 1:
		return circleCircle(wa.verts[0], wa.radius, wb.verts[0], wb.radius, prediction)

	case len(wa.verts) == 1:
		m := circleVsPoly(wa.verts[0], wa.radius, wb, prediction)
		// circleVsPoly orients poly->circle, which here is B->A.
		m.Normal = m.Normal.Mul(-1)
		return m

	case len(wb.verts) == 1:
		m := circleVsPoly(wb.verts[0], wb.radius, wa, prediction)
		return m

	case len(wa.verts) == 2 && len(wb.verts) == 2:
		return segmentSegment(wa, wb, prediction)

	default:
		return polyVsPoly(wa, wb, prediction)
	}
}

func circleCircle(ca mgl64.Vec2, ra float64, cb mgl64.Vec2, rb, prediction float64) Manifold {
	var m Manifold
	delta := cb.Sub(ca)
	dist := delta.Len()

	if dist > ra+rb+prediction {
		return m
	}
	if dist < 1e-12 {
		// Coincident centers: pick an arbitrary axis.
		m.Normal = mgl64.Vec2{1, 0}
		m.push(ca, ra+rb)
		return m
	}
	m.Normal = delta.Mul(1 / dist)
	pen := ra + rb - dist
	m.push(ca.Add(m.Normal.Mul(ra - 0.5*pen)), pen)
	return m
}

// circleVsPoly collides a circle against a rounded convex polygon. The
// returned normal points from the polygon toward the circle.
func circleVsPoly(center mgl64.Vec2, radius float64, poly worldPoly, prediction float64) Manifold {
	var m Manifold
	total := radius + poly.radius

	// Face of least penetration, as in SAT against a point.
	sep := math.Inf(-1)
	face := 0
	for i, n := range poly.normals {
		s := n.Dot(center.Sub(poly.verts[i]))
		if s > total+prediction {
			return m
		}
		if s > sep {
			sep = s
			face = i
		}
	}

	n := len(poly.verts)
	v1 := poly.verts[face]
	v2 := poly.verts[(face+1)%n]

	if sep < 1e-12 {
		// Center inside the core polygon.
		normal := poly.normals[face]
		m.Normal = normal
		m.push(center.Sub(normal.Mul(radius)), total-sep)
		return m
	}

	// Voronoi region of the reference edge.
	dot1 := center.Sub(v1).Dot(v2.Sub(v1))
	dot2 := center.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case dot1 <= 0:
		delta := center.Sub(v1)
		dist := delta.Len()
		if dist > total+prediction {
			return m
		}
		m.Normal = delta.Mul(1 / dist)
		m.push(v1.Add(m.Normal.Mul(poly.radius)), total-dist)

	case dot2 <= 0:
		delta := center.Sub(v2)
		dist := delta.Len()
		if dist > total+prediction {
			return m
		}
		m.Normal = delta.Mul(1 / dist)
		m.push(v2.Add(m.Normal.Mul(poly.radius)), total-dist)

	default:
		normal := poly.normals[face]
		m.Normal = normal
		m.push(center.Sub(normal.Mul(radius)), total-sep)
	}
	return m
}

func segmentSegment(wa, wb worldPoly, prediction float64) Manifold {
	var m Manifold
	pa, pb := closestSegmentPoints(wa.verts[0], wa.verts[1], wb.verts[0], wb.verts[1])
	delta := pb.Sub(pa)
	dist := delta.Len()
	total := wa.radius + wb.radius

	if dist > total+prediction {
		return m
	}
	if dist < 1e-12 {
		// Crossing segments: separate along the first segment's normal.
		dir := wa.verts[1].Sub(wa.verts[0])
		m.Normal = Perp(dir).Normalize()
		m.push(pa, total)
		return m
	}
	m.Normal = delta.Mul(1 / dist)
	pen := total - dist
	m.push(pa.Add(m.Normal.Mul(wa.radius - 0.5*pen)), pen)
	return m
}

// closestSegmentPoints returns the closest pair of points between segments
// p1-q1 and p2-q2.
func closestSegmentPoints(p1, q1, p2, q2 mgl64.Vec2) (mgl64.Vec2, mgl64.Vec2) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float64
	const eps = 1e-12
	switch {
	case a <= eps && e <= eps:
		// Both degenerate.
	case a <= eps:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

func clamp01(v float64) float64 { return max(0, min(1, v)) }

// findMaxSeparation returns the face of a whose outward normal yields the
// greatest core separation from b, and that separation.
func findMaxSeparation(a, b worldPoly) (float64, int) {
	best := math.Inf(-1)
	bestFace := 0
	for i, n := range a.normals {
		v := a.verts[i]
		si := math.Inf(1)
		for _, vb := range b.verts {
			si = min(si, n.Dot(vb.Sub(v)))
		}
		if si > best {
			best = si
			bestFace = i
		}
	}
	return best, bestFace
}

// findIncidentEdge returns the edge of inc most anti-parallel to refNormal.
func findIncidentEdge(inc worldPoly, refNormal mgl64.Vec2) [2]mgl64.Vec2 {
	minDot := math.Inf(1)
	face := 0
	for i, n := range inc.normals {
		if d := refNormal.Dot(n); d < minDot {
			minDot = d
			face = i
		}
	}
	n := len(inc.verts)
	return [2]mgl64.Vec2{inc.verts[face], inc.verts[(face+1)%n]}
}

// clipSegment clips the segment to the half-plane dot(normal, p) <= offset,
// returning the number of points kept.
func clipSegment(points *[2]mgl64.Vec2, normal mgl64.Vec2, offset float64) int {
	var out [2]mgl64.Vec2
	sp := 0

	dA := normal.Dot(points[0]) - offset
	dB := normal.Dot(points[1]) - offset

	if dA <= 0 {
		out[sp] = points[0]
		sp++
	}
	if dB <= 0 {
		out[sp] = points[1]
		sp++
	}
	if dA*dB < 0 && sp < 2 {
		alpha := dA / (dA - dB)
		out[sp] = points[0].Add(points[1].Sub(points[0]).Mul(alpha))
		sp++
	}
	points[0] = out[0]
	points[1] = out[1]
	return sp
}

// polyVsPoly collides two rounded convex polygons (two or more core vertices
// each) with SAT and reference-face clipping.
func polyVsPoly(wa, wb worldPoly, prediction float64) Manifold {
	var m Manifold
	total := wa.radius + wb.radius

	sepA, faceA := findMaxSeparation(wa, wb)
	if sepA > total+prediction {
		return m
	}
	sepB, faceB := findMaxSeparation(wb, wa)
	if sepB > total+prediction {
		return m
	}

	var ref, inc worldPoly
	var refFace int
	flip := false
	// Prefer the first shape's face unless the second is meaningfully deeper,
	// keeping the reference choice stable across frames.
	if sepB > sepA*0.95+math.Abs(sepA)*0.01+1e-9 {
		ref, inc = wb, wa
		refFace = faceB
		flip = true
	} else {
		ref, inc = wa, wb
		refFace = faceA
	}

	refNormal := ref.normals[refFace]
	incident := findIncidentEdge(inc, refNormal)

	n := len(ref.verts)
	v1 := ref.verts[refFace]
	v2 := ref.verts[(refFace+1)%n]

	side := v2.Sub(v1).Normalize()
	negSide := -side.Dot(v1)
	posSide := side.Dot(v2)

	if clipSegment(&incident, side.Mul(-1), negSide) < 2 {
		return m
	}
	if clipSegment(&incident, side, posSide) < 2 {
		return m
	}

	refOffset := refNormal.Dot(v1)
	for _, p := range incident {
		sep := refNormal.Dot(p) - refOffset - total
		if sep <= prediction {
			// Place the point on the incident shape's surface.
			m.push(p.Sub(refNormal.Mul(inc.radius)), -sep)
		}
	}
	if m.Count == 0 {
		return m
	}

	if flip {
		m.Normal = refNormal.Mul(-1)
	} else {
		m.Normal = refNormal
	}
	return m
}
