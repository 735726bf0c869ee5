// Copyright 2023 John Slee <jslee@jslee.io>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

// Package geometry implements the point, rotation, arc and convex-hull
// utilities shared by the aperture, macro and graphic packages. Vector
// and affine-matrix storage is backed by github.com/gmlewis/go3d so that
// the deprecated Gerber image-transform commands (IR/MI/SF/OF) can be
// composed into a single matrix instead of threaded through the object
// model by hand.
package geometry

import (
	"math"
	"sort"

	"github.com/gmlewis/go3d/mat3"
	"github.com/gmlewis/go3d/vec2"
)

// Point is a 2D coordinate, backed by a go3d vec2.T so that rotation and
// affine-transform math can reuse go3d's vector arithmetic.
type Point struct {
	v vec2.T
}

// Pt constructs a Point from plain x/y components.
func Pt(x, y float64) Point { return Point{v: vec2.T{x, y}} }

// X returns the point's X component.
func (p Point) X() float64 { return p.v[0] }

// Y returns the point's Y component.
func (p Point) Y() float64 { return p.v[1] }

// Add returns p+o.
func (p Point) Add(o Point) Point { return Point{v: vec2.T{p.v[0] + o.v[0], p.v[1] + o.v[1]}} }

// Sub returns p-o.
func (p Point) Sub(o Point) Point { return Point{v: vec2.T{p.v[0] - o.v[0], p.v[1] - o.v[1]}} }

// Scale returns p scaled uniformly by f.
func (p Point) Scale(f float64) Point { return Point{v: vec2.T{p.v[0] * f, p.v[1] * f}} }

// Dist returns the Euclidean distance between p and o.
func (p Point) Dist(o Point) float64 {
	dx, dy := p.v[0]-o.v[0], p.v[1]-o.v[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// RotatedAround returns p rotated clockwise by angleRad radians around
// center. Gerber/Excellon angles are clockwise-radian outside of macro
// source
func (p Point) RotatedAround(center Point, angleRad float64) Point {
	dx, dy := p.v[0]-center.v[0], p.v[1]-center.v[1]
	sin, cos := math.Sin(angleRad), math.Cos(angleRad)
	// clockwise rotation in a Y-up plane is a standard rotation by -angle;
	// equivalently, swap the sign of sin here so callers pass positive
	// angles for clockwise sweeps.
	rx := dx*cos + dy*sin
	ry := -dx*sin + dy*cos
	return Pt(center.v[0]+rx, center.v[1]+ry)
}

// AffineTransform is a composed 2x3 affine matrix built from translation,
// scale, mirror and rotation steps. The Gerber parser folds the deprecated
// offset (OF) and mirroring (MI) commands into one; the result is not
// applied to parsed coordinates and is never carried into the object model.
type AffineTransform struct {
	m mat3.T
}

// IdentityTransform returns the no-op transform.
func IdentityTransform() AffineTransform {
	return AffineTransform{m: mat3.Ident}
}

// Translate composes a translation into t.
func (t AffineTransform) Translate(dx, dy float64) AffineTransform {
	var m mat3.T
	m.AssignMul(&t.m, translationMat(dx, dy))
	return AffineTransform{m: m}
}

// ScaleXY composes a non-uniform scale into t.
func (t AffineTransform) ScaleXY(sx, sy float64) AffineTransform {
	var m mat3.T
	m.AssignMul(&t.m, scaleMat(sx, sy))
	return AffineTransform{m: m}
}

// Mirror composes an axis mirror (x, y, or both) into t.
func (t AffineTransform) Mirror(mirrorX, mirrorY bool) AffineTransform {
	sx, sy := 1.0, 1.0
	if mirrorX {
		sx = -1
	}
	if mirrorY {
		sy = -1
	}
	return t.ScaleXY(sx, sy)
}

// Rotate composes a counter-clockwise rotation by angleRad into t. The
// deprecated IR command specifies image rotation in degrees CCW.
func (t AffineTransform) Rotate(angleRad float64) AffineTransform {
	var m mat3.T
	m.AssignMul(&t.m, rotateMat(angleRad))
	return AffineTransform{m: m}
}

// Apply maps a coordinate through the composed transform.
func (t AffineTransform) Apply(x, y float64) (float64, float64) {
	v := vec2.T{x, y}
	out := t.m.MulVec2(&v)
	return out[0], out[1]
}

func translationMat(dx, dy float64) *mat3.T {
	m := mat3.Ident
	m[2][0] = dx
	m[2][1] = dy
	return &m
}

func scaleMat(sx, sy float64) *mat3.T {
	m := mat3.Ident
	m[0][0] = sx
	m[1][1] = sy
	return &m
}

func rotateMat(angleRad float64) *mat3.T {
	m := mat3.Ident
	sin, cos := math.Sin(angleRad), math.Cos(angleRad)
	m[0][0], m[0][1] = cos, sin
	m[1][0], m[1][1] = -sin, cos
	return &m
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty reports whether the bounds have never been extended.
func (b Bounds) Empty() bool { return b.MinX > b.MaxX || b.MinY > b.MaxY }

// EmptyBounds returns a Bounds value ready for repeated Extend calls.
func EmptyBounds() Bounds {
	return Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Extend grows b to include (x, y).
func (b Bounds) Extend(x, y float64) Bounds {
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
	return b
}

// Union returns the bounding box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return b.Extend(o.MinX, o.MinY).Extend(o.MaxX, o.MaxY)
}

// Translated returns b shifted by (dx, dy).
func (b Bounds) Translated(dx, dy float64) Bounds {
	if b.Empty() {
		return b
	}
	return Bounds{MinX: b.MinX + dx, MinY: b.MinY + dy, MaxX: b.MaxX + dx, MaxY: b.MaxY + dy}
}

// ArcBounds computes the bounding box of a circular arc: it always
// contains both endpoints, plus any cardinal-direction
// extremum (N/S/E/W from center at radius r) that the arc actually
// sweeps over. clockwise indicates the sweep direction from start to end.
func ArcBounds(start, end, center Point, clockwise bool) Bounds {
	b := EmptyBounds().Extend(start.X(), start.Y()).Extend(end.X(), end.Y())
	r := center.Dist(start)
	startAngle := math.Atan2(start.Y()-center.Y(), start.X()-center.X())
	endAngle := math.Atan2(end.Y()-center.Y(), end.X()-center.X())
	for _, cardinal := range []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
		if angleInSweep(cardinal, startAngle, endAngle, clockwise) {
			b = b.Extend(center.X()+r*math.Cos(cardinal), center.Y()+r*math.Sin(cardinal))
		}
	}
	return b
}

// angleInSweep reports whether angle lies on the arc swept from startAngle
// to endAngle in the given direction (all angles in radians, any range).
func angleInSweep(angle, startAngle, endAngle float64, clockwise bool) bool {
	norm := func(a float64) float64 {
		for a < 0 {
			a += 2 * math.Pi
		}
		for a >= 2*math.Pi {
			a -= 2 * math.Pi
		}
		return a
	}
	a, s, e := norm(angle), norm(startAngle), norm(endAngle)
	if clockwise {
		s, e = e, s
	}
	if s <= e {
		return a >= s && a <= e
	}
	return a >= s || a <= e
}

// SweepAngle returns the non-negative clockwise-radian sweep from start to
// end around center. Equal start/end represents a full 2*pi sweep.
func SweepAngle(start, end, center Point, clockwise bool) float64 {
	startAngle := math.Atan2(start.Y()-center.Y(), start.X()-center.X())
	endAngle := math.Atan2(end.Y()-center.Y(), end.X()-center.X())
	var sweep float64
	if clockwise {
		sweep = startAngle - endAngle
	} else {
		sweep = endAngle - startAngle
	}
	for sweep < 0 {
		sweep += 2 * math.Pi
	}
	for sweep > 2*math.Pi {
		sweep -= 2 * math.Pi
	}
	if sweep == 0 && start != end {
		// endpoints coincide in angle but not position: rounding noise,
		// treat as a zero sweep rather than a full circle.
		return 0
	}
	if start == end {
		return 2 * math.Pi
	}
	return sweep
}

// ApproximateArc returns a polyline of points approximating the arc from
// start to end around center, staying within maxError of the true arc.
// The segment count is chosen from the chord-sagitta relation for the
// worst-case segment: for a circle of radius r split into n segments, the
// sagitta (max deviation) is r*(1-cos(sweep/(2n))).
func ApproximateArc(start, end, center Point, clockwise bool, maxError float64) []Point {
	r := center.Dist(start)
	sweep := SweepAngle(start, end, center, clockwise)
	if r <= 0 || sweep <= 0 {
		return []Point{start, end}
	}
	n := 1
	for {
		sagitta := r * (1 - math.Cos(sweep/(2*float64(n))))
		if sagitta <= maxError || n > 4096 {
			break
		}
		n++
	}
	points := make([]Point, 0, n+1)
	startAngle := math.Atan2(start.Y()-center.Y(), start.X()-center.X())
	for i := 0; i <= n; i++ {
		frac := float64(i) / float64(n)
		var angle float64
		if clockwise {
			angle = startAngle - sweep*frac
		} else {
			angle = startAngle + sweep*frac
		}
		points = append(points, Pt(center.X()+r*math.Cos(angle), center.Y()+r*math.Sin(angle)))
	}
	return points
}

// ConvexHull computes the convex hull of a point set using the monotone
// chain algorithm, returned in counter-clockwise order starting from the
// leftmost-then-lowest point.
func ConvexHull(points []Point) []Point {
	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X() != pts[j].X() {
			return pts[i].X() < pts[j].X()
		}
		return pts[i].Y() < pts[j].Y()
	})
	cross := func(o, a, b Point) float64 {
		return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
	}
	n := len(pts)
	if n < 3 {
		return pts
	}
	hull := make([]Point, 0, 2*n)
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
