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

// Package graphic implements the graphic object model:
// Flash, Line, Arc and Region, each able to report its bounding box,
// flatten to render primitives, and be offset/rotated/scaled in place.
package graphic

import (
	"math"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic/primitive"
	"github.com/jsleeio/gerbonara/units"
	"github.com/pkg/errors"
)

// Object is the common interface satisfied by every graphic object
// variant recorded while parsing a Gerber or Excellon file.
type Object interface {
	// Offset translates the object by (dx, dy) in the object's own unit.
	Offset(dx, dy float64) Object
	// Rotated rotates the object clockwise by angleRad around center.
	Rotated(center geometry.Point, angleRad float64) Object
	// Scaled multiplies every length-bearing field by factor.
	Scaled(factor float64) Object
	// Converted returns the object expressed in dst units.
	Converted(dst units.Unit) Object
	// BoundingBox returns the object's bounds in unit.
	BoundingBox(unit units.Unit) (geometry.Bounds, error)
	// ToPrimitives flattens the object to render primitives in unit.
	ToPrimitives(unit units.Unit) ([]primitive.Primitive, error)
	// IsDark reports the object's polarity (dark/clear).
	IsDark() bool
	// Unit returns the unit the object's coordinate fields are tagged with.
	Unit() units.Unit
}

// Flash stamps an aperture at a single point.
type Flash struct {
	Point    geometry.Point
	Aperture aperture.Aperture
	Dark     bool
	U        units.Unit
}

func (f Flash) Unit() units.Unit { return f.U }
func (f Flash) IsDark() bool     { return f.Dark }

func (f Flash) Offset(dx, dy float64) Object {
	f.Point = f.Point.Add(geometry.Pt(dx, dy))
	return f
}

func (f Flash) Rotated(center geometry.Point, angleRad float64) Object {
	f.Point = f.Point.RotatedAround(center, angleRad)
	return f
}

func (f Flash) Scaled(factor float64) Object {
	f.Point = geometry.Pt(f.Point.X()*factor, f.Point.Y()*factor)
	f.Aperture = f.Aperture.Scaled(factor)
	return f
}

func (f Flash) Converted(dst units.Unit) Object {
	x := units.Convert(f.Point.X(), f.U, dst)
	y := units.Convert(f.Point.Y(), f.U, dst)
	f.Point = geometry.Pt(x, y)
	f.U = dst
	return f
}

func (f Flash) ToPrimitives(unit units.Unit) ([]primitive.Primitive, error) {
	x := units.Convert(f.Point.X(), f.U, unit)
	y := units.Convert(f.Point.Y(), f.U, unit)
	return f.Aperture.Flash(x, y, unit, f.Dark)
}

func (f Flash) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	b, err := f.Aperture.BoundingBox(unit)
	if err != nil {
		return geometry.Bounds{}, err
	}
	x := units.Convert(f.Point.X(), f.U, unit)
	y := units.Convert(f.Point.Y(), f.U, unit)
	return b.Translated(x, y), nil
}

// Line is a G01-interpolated stroke between two points, drawn with a
// circular (or circle-equivalent) aperture's width.
type Line struct {
	Start, End geometry.Point
	Aperture   aperture.Aperture
	Dark       bool
	U          units.Unit
}

func (l Line) Unit() units.Unit { return l.U }
func (l Line) IsDark() bool     { return l.Dark }

func (l Line) Offset(dx, dy float64) Object {
	off := geometry.Pt(dx, dy)
	l.Start = l.Start.Add(off)
	l.End = l.End.Add(off)
	return l
}

func (l Line) Rotated(center geometry.Point, angleRad float64) Object {
	l.Start = l.Start.RotatedAround(center, angleRad)
	l.End = l.End.RotatedAround(center, angleRad)
	return l
}

func (l Line) Scaled(factor float64) Object {
	l.Start = geometry.Pt(l.Start.X()*factor, l.Start.Y()*factor)
	l.End = geometry.Pt(l.End.X()*factor, l.End.Y()*factor)
	l.Aperture = l.Aperture.Scaled(factor)
	return l
}

func (l Line) Converted(dst units.Unit) Object {
	l.Start = geometry.Pt(units.Convert(l.Start.X(), l.U, dst), units.Convert(l.Start.Y(), l.U, dst))
	l.End = geometry.Pt(units.Convert(l.End.X(), l.U, dst), units.Convert(l.End.Y(), l.U, dst))
	l.U = dst
	return l
}

func (l Line) ToPrimitives(unit units.Unit) ([]primitive.Primitive, error) {
	w := units.Convert(l.Aperture.EquivalentWidth(), l.Aperture.Unit(), unit)
	start := convertPoint(l.Start, l.U, unit)
	end := convertPoint(l.End, l.U, unit)
	return []primitive.Primitive{primitive.Line{Start: start, End: end, Width: w, Dark: l.Dark}}, nil
}

func (l Line) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	prims, err := l.ToPrimitives(unit)
	if err != nil {
		return geometry.Bounds{}, err
	}
	return prims[0].Bounds(), nil
}

// Arc is a G02/G03-interpolated circular stroke from Start to End swept
// around Center in the direction given by Clockwise.
type Arc struct {
	Start, End, Center geometry.Point
	Clockwise          bool
	Aperture           aperture.Aperture
	Dark               bool
	U                  units.Unit
}

func (a Arc) Unit() units.Unit { return a.U }
func (a Arc) IsDark() bool     { return a.Dark }

func (a Arc) Offset(dx, dy float64) Object {
	off := geometry.Pt(dx, dy)
	a.Start = a.Start.Add(off)
	a.End = a.End.Add(off)
	a.Center = a.Center.Add(off)
	return a
}

func (a Arc) Rotated(center geometry.Point, angleRad float64) Object {
	a.Start = a.Start.RotatedAround(center, angleRad)
	a.End = a.End.RotatedAround(center, angleRad)
	a.Center = a.Center.RotatedAround(center, angleRad)
	return a
}

func (a Arc) Scaled(factor float64) Object {
	scale := func(p geometry.Point) geometry.Point { return geometry.Pt(p.X()*factor, p.Y()*factor) }
	a.Start, a.End, a.Center = scale(a.Start), scale(a.End), scale(a.Center)
	a.Aperture = a.Aperture.Scaled(factor)
	return a
}

func (a Arc) Converted(dst units.Unit) Object {
	a.Start = convertPoint(a.Start, a.U, dst)
	a.End = convertPoint(a.End, a.U, dst)
	a.Center = convertPoint(a.Center, a.U, dst)
	a.U = dst
	return a
}

// NumericError is the difference between the start and end radii: a
// well-formed arc has this at (or very near) zero. A large value signals
// an over-determined or malformed I/J/end-point triple.
func (a Arc) NumericError() float64 {
	return math.Abs(a.Center.Dist(a.Start) - a.Center.Dist(a.End))
}

// SweepAngle returns the non-negative clockwise-radian angle swept.
func (a Arc) SweepAngle() float64 {
	return geometry.SweepAngle(a.Start, a.End, a.Center, a.Clockwise)
}

// Approximate returns a polyline approximation of the arc accurate to
// within maxError (in the arc's own unit).
func (a Arc) Approximate(maxError float64) []geometry.Point {
	return geometry.ApproximateArc(a.Start, a.End, a.Center, a.Clockwise, maxError)
}

func (a Arc) ToPrimitives(unit units.Unit) ([]primitive.Primitive, error) {
	w := units.Convert(a.Aperture.EquivalentWidth(), a.Aperture.Unit(), unit)
	start := convertPoint(a.Start, a.U, unit)
	end := convertPoint(a.End, a.U, unit)
	center := convertPoint(a.Center, a.U, unit)
	return []primitive.Primitive{primitive.Arc{
		Start: start, End: end, Center: center, Width: w, Clockwise: a.Clockwise, Dark: a.Dark,
	}}, nil
}

func (a Arc) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	start := convertPoint(a.Start, a.U, unit)
	end := convertPoint(a.End, a.U, unit)
	center := convertPoint(a.Center, a.U, unit)
	w := units.Convert(a.Aperture.EquivalentWidth(), a.Aperture.Unit(), unit)
	b := geometry.ArcBounds(start, end, center, a.Clockwise)
	return geometry.Bounds{MinX: b.MinX - w/2, MinY: b.MinY - w/2, MaxX: b.MaxX + w/2, MaxY: b.MaxY + w/2}, nil
}

func convertPoint(p geometry.Point, src, dst units.Unit) geometry.Point {
	return geometry.Pt(units.Convert(p.X(), src, dst), units.Convert(p.Y(), src, dst))
}

// ArcCenter records, for one segment of a Region's outline, whether that
// segment is an arc (and around what center) or a straight line (nil).
type ArcCenter = primitive.ArcCenter

// Region is a filled area bounded by a closed outline (G36/G37), each
// segment either a straight line or an arc. Outline must have at least
// two points; Close appends a closing point equal to Outline[0] if one
// isn't already present, and is idempotent.
type Region struct {
	Outline    []geometry.Point
	ArcCenters []*ArcCenter // len(ArcCenters) == len(Outline)-1; nil entry = straight segment
	Dark       bool
	U          units.Unit
}

func (r Region) Unit() units.Unit { return r.U }
func (r Region) IsDark() bool     { return r.Dark }

// IsClosed reports whether the outline's last point equals its first.
func (r Region) IsClosed() bool {
	if len(r.Outline) < 2 {
		return false
	}
	first, last := r.Outline[0], r.Outline[len(r.Outline)-1]
	return closeEnough(first, last)
}

func closeEnough(a, b geometry.Point) bool {
	const eps = 1e-9
	return math.Abs(a.X()-b.X()) < eps && math.Abs(a.Y()-b.Y()) < eps
}

// Close returns a region whose outline is closed, appending Outline[0]
// (and a nil, straight-segment ArcCenters entry) if not already closed.
func (r Region) Close() Region {
	if r.IsClosed() || len(r.Outline) == 0 {
		return r
	}
	acs := append([]*ArcCenter{}, r.ArcCenters...)
	for len(acs) < len(r.Outline)-1 {
		acs = append(acs, nil)
	}
	r.Outline = append(append([]geometry.Point{}, r.Outline...), r.Outline[0])
	r.ArcCenters = append(acs, nil)
	return r
}

func (r Region) Offset(dx, dy float64) Object {
	off := geometry.Pt(dx, dy)
	out := make([]geometry.Point, len(r.Outline))
	for i, p := range r.Outline {
		out[i] = p.Add(off)
	}
	r.Outline = out
	r.ArcCenters = offsetArcCenters(r.ArcCenters, off)
	return r
}

func offsetArcCenters(acs []*ArcCenter, off geometry.Point) []*ArcCenter {
	out := make([]*ArcCenter, len(acs))
	for i, ac := range acs {
		if ac == nil {
			continue
		}
		moved := &ArcCenter{Clockwise: ac.Clockwise, Center: ac.Center.Add(off)}
		out[i] = moved
	}
	return out
}

func (r Region) Rotated(center geometry.Point, angleRad float64) Object {
	out := make([]geometry.Point, len(r.Outline))
	for i, p := range r.Outline {
		out[i] = p.RotatedAround(center, angleRad)
	}
	r.Outline = out
	acs := make([]*ArcCenter, len(r.ArcCenters))
	for i, ac := range r.ArcCenters {
		if ac == nil {
			continue
		}
		acs[i] = &ArcCenter{Clockwise: ac.Clockwise, Center: ac.Center.RotatedAround(center, angleRad)}
	}
	r.ArcCenters = acs
	return r
}

func (r Region) Scaled(factor float64) Object {
	out := make([]geometry.Point, len(r.Outline))
	for i, p := range r.Outline {
		out[i] = geometry.Pt(p.X()*factor, p.Y()*factor)
	}
	r.Outline = out
	acs := make([]*ArcCenter, len(r.ArcCenters))
	for i, ac := range r.ArcCenters {
		if ac == nil {
			continue
		}
		acs[i] = &ArcCenter{Clockwise: ac.Clockwise, Center: geometry.Pt(ac.Center.X()*factor, ac.Center.Y()*factor)}
	}
	r.ArcCenters = acs
	return r
}

func (r Region) Converted(dst units.Unit) Object {
	out := make([]geometry.Point, len(r.Outline))
	for i, p := range r.Outline {
		out[i] = convertPoint(p, r.U, dst)
	}
	acs := make([]*ArcCenter, len(r.ArcCenters))
	for i, ac := range r.ArcCenters {
		if ac == nil {
			continue
		}
		acs[i] = &ArcCenter{Clockwise: ac.Clockwise, Center: convertPoint(ac.Center, r.U, dst)}
	}
	r.Outline, r.ArcCenters, r.U = out, acs, dst
	return r
}

func (r Region) ToPrimitives(unit units.Unit) ([]primitive.Primitive, error) {
	if len(r.Outline) < 2 {
		return nil, errors.New("region outline must have at least two points")
	}
	closed := r.Close()
	out := make([]geometry.Point, len(closed.Outline))
	for i, p := range closed.Outline {
		out[i] = convertPoint(p, r.U, unit)
	}
	acs := make([]*ArcCenter, len(closed.ArcCenters))
	for i, ac := range closed.ArcCenters {
		if ac == nil {
			continue
		}
		acs[i] = &ArcCenter{Clockwise: ac.Clockwise, Center: convertPoint(ac.Center, r.U, unit)}
	}
	return []primitive.Primitive{primitive.ArcPoly{Points: out, ArcCenters: acs, Dark: r.Dark}}, nil
}

func (r Region) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	prims, err := r.ToPrimitives(unit)
	if err != nil {
		return geometry.Bounds{}, err
	}
	return prims[0].Bounds(), nil
}
