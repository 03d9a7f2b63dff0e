package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// supportPoint is a Minkowski-difference vertex with its witness points on
// each shape core.
type supportPoint struct {
	w, a, b mgl64.Vec2
}

func supportVert(p worldPoly, dir mgl64.Vec2) mgl64.Vec2 {
	best := p.verts[0]
	bestDot := best.Dot(dir)
	for _, v := range p.verts[1:] {
		if d := v.Dot(dir); d > bestDot {
			bestDot = d
			best = v
		}
	}
	return best
}

func minkowskiSupport(a, b worldPoly, dir mgl64.Vec2) supportPoint {
	pa := supportVert(a, dir)
	pb := supportVert(b, dir.Mul(-1))
	return supportPoint{w: pa.Sub(pb), a: pa, b: pb}
}

// Distance returns the distance between two posed shapes' surfaces, or zero
// if they intersect.
func Distance(a Shape, poseA Isometry, b Shape, poseB Isometry) float64 {
	d, _, _ := ClosestPoints(a, poseA, b, poseB)
	return d
}

// Intersects reports whether two posed shapes overlap or touch.
func Intersects(a Shape, poseA Isometry, b Shape, poseB Isometry) bool {
	return Distance(a, poseA, b, poseB) <= 0
}

// ClosestPoints returns the separation distance between two posed shapes and
// the closest point on each shape's surface. A zero distance means the shapes
// intersect; the witness points are then meaningless.
//
// This is a GJK distance query run on the shapes' convex cores; the border
// radii are subtracted at the end.
func ClosestPoints(a Shape, poseA Isometry, b Shape, poseB Isometry) (float64, mgl64.Vec2, mgl64.Vec2) {
	wa := worldCore(a, poseA)
	wb := worldCore(b, poseB)

	dir := wb.verts[0].Sub(wa.verts[0])
	if dir.Len() < 1e-12 {
		dir = mgl64.Vec2{1, 0}
	}

	simplex := []supportPoint{minkowskiSupport(wa, wb, dir)}

	var v mgl64.Vec2
	var bary []float64
	for iter := 0; iter < 32; iter++ {
		v, bary, simplex = closestOnSimplex(simplex)
		if v.Len() < 1e-10 {
			// Origin inside the Minkowski difference: cores intersect.
			return 0, mgl64.Vec2{}, mgl64.Vec2{}
		}

		w := minkowskiSupport(wa, wb, v.Mul(-1))
		// Terminate when the new support cannot move the simplex closer.
		if v.Dot(v)-v.Dot(w.w) <= 1e-10*v.Dot(v) {
			break
		}
		simplex = append(simplex, w)
	}

	// The iteration cap can leave an un-reduced simplex behind.
	v, bary, simplex = closestOnSimplex(simplex)
	if v.Len() < 1e-10 {
		return 0, mgl64.Vec2{}, mgl64.Vec2{}
	}

	var pa, pb mgl64.Vec2
	for i, sp := range simplex {
		pa = pa.Add(sp.a.Mul(bary[i]))
		pb = pb.Add(sp.b.Mul(bary[i]))
	}

	coreDist := v.Len()
	dist := coreDist - wa.radius - wb.radius
	if dist <= 0 {
		return 0, pa, pb
	}

	// Push the witness points from the cores onto the rounded surfaces.
	n := pb.Sub(pa).Mul(1 / coreDist)
	return dist, pa.Add(n.Mul(wa.radius)), pb.Sub(n.Mul(wb.radius))
}

// closestOnSimplex returns the point of the simplex closest to the origin,
// its barycentric coordinates, and the simplex reduced to the supporting
// feature.
func closestOnSimplex(s []supportPoint) (mgl64.Vec2, []float64, []supportPoint) {
	switch len(s) {
	case 1:
		return s[0].w, []float64{1}, s

	case 2:
		a, b := s[0].w, s[1].w
		ab := b.Sub(a)
		t := 0.0
		if d := ab.Dot(ab); d > 1e-18 {
			t = clamp01(-a.Dot(ab) / d)
		}
		switch {
		case t <= 0:
			return a, []float64{1}, s[:1]
		case t >= 1:
			return b, []float64{1}, s[1:]
		default:
			return a.Add(ab.Mul(t)), []float64{1 - t, t}, s
		}

	default:
		return closestOnTriangle(s)
	}
}

func closestOnTriangle(s []supportPoint) (mgl64.Vec2, []float64, []supportPoint) {
	a, b, c := s[0].w, s[1].w, s[2].w
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, []float64{1}, s[:1]
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, []float64{1}, s[1:2]
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		return a.Add(ab.Mul(t)), []float64{1 - t, t}, s[:2]
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, []float64{1}, s[2:3]
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		return a.Add(ac.Mul(t)), []float64{1 - t, t}, []supportPoint{s[0], s[2]}
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(t)), []float64{1 - t, t}, s[1:3]
	}

	// Origin inside the triangle.
	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return mgl64.Vec2{}, []float64{1 - v - w, v, w}, s
}

// boundingRadiusOf returns the rotation bound of a shape used by
// conservative advancement.
func boundingRadiusOf(s Shape) float64 {
	return s.core().boundingRadius()
}

// TimeOfImpact computes the earliest normalized time t in [0, 1] at which the
// two shapes, each moving linearly between its from and to pose, come within
// target distance of each other. It reports false if they stay farther apart
// for the whole motion.
//
// Conservative advancement: at each iteration the shapes are advanced by the
// current separation divided by an upper bound on their approach speed, so
// the returned time never overshoots the true impact.
func TimeOfImpact(a Shape, fromA, toA Isometry, b Shape, fromB, toB Isometry, target float64) (float64, bool) {
	if target <= 0 {
		target = 1e-6
	}

	relDisp := toA.Translation.Sub(fromA.Translation).
		Sub(toB.Translation.Sub(fromB.Translation))
	angBound := math.Abs(angleDelta(fromA.Angle(), toA.Angle()))*boundingRadiusOf(a) +
		math.Abs(angleDelta(fromB.Angle(), toB.Angle()))*boundingRadiusOf(b)
	speed := relDisp.Len() + angBound
	if speed < 1e-12 {
		return 0, Distance(a, fromA, b, fromB) <= target
	}

	t := 0.0
	for iter := 0; iter < 64; iter++ {
		poseA := Lerp(fromA, toA, t)
		poseB := Lerp(fromB, toB, t)
		d := Distance(a, poseA, b, poseB)
		if d <= target {
			return t, true
		}

		advance := (d - 0.5*target) / speed
		if advance < 1e-9 {
			advance = 1e-9
		}
		t += advance
		if t >= 1 {
			return 1, false
		}
	}
	return t, false
}

func angleDelta(from, to float64) float64 { return WrapAngle(to - from) }
