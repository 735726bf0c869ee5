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

// Package aperture implements the Aperture tagged union:
// built-in circle/rectangle/obround/polygon shapes, macro instances, and
// Excellon tools, each able to flash itself to render primitives, rotate,
// dilate, scale, and serialize to Gerber/XNC.
package aperture

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic/primitive"
	"github.com/jsleeio/gerbonara/macro"
	"github.com/jsleeio/gerbonara/units"
	"github.com/pkg/errors"
)

// Aperture is the common interface satisfied by every shape variant.
// Each built-in field is interpreted in the aperture's own Unit.
type Aperture interface {
	// Flash returns the render primitives for stamping this aperture at
	// (x, y) with the given polarity.
	Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error)
	// BoundingBox returns the bounds of a flash at the origin, in the
	// requested unit. Implementations memoize this per receiver+unit.
	BoundingBox(unit units.Unit) (geometry.Bounds, error)
	// Rotated returns an aperture rotated by angleRad clockwise radians.
	// Circles return themselves; axis-aligned shapes may swap dimensions;
	// anything else falls back to a macro-instance expansion.
	Rotated(angleRad float64) (Aperture, error)
	// Dilated returns an aperture grown (or shrunk) by offset.
	Dilated(offset float64) (Aperture, []string, error)
	// Scaled returns an aperture with every length field multiplied by factor.
	Scaled(factor float64) Aperture
	// EquivalentWidth is the effective stroke width when this aperture is
	// dragged to form a line.
	EquivalentWidth() float64
	// ToGerber renders the aperture definition body (after "%ADDnn").
	ToGerber(fs units.FileSettings) (string, error)
	// Unit returns the unit that this aperture's length fields are tagged with.
	Unit() units.Unit
}

// bboxCache memoizes BoundingBox results per aperture value, per unit.
type bboxCache struct {
	mu    sync.Mutex
	cache map[units.Unit]geometry.Bounds
}

func (c *bboxCache) get(u units.Unit) (geometry.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		return geometry.Bounds{}, false
	}
	b, ok := c.cache[u]
	return b, ok
}

func (c *bboxCache) put(u units.Unit, b geometry.Bounds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache == nil {
		c.cache = map[units.Unit]geometry.Bounds{}
	}
	c.cache[u] = b
}

// Circle is the built-in circular aperture. Hole, if non-nil, must be
// strictly smaller than Diameter; this is not enforced here (callers'
// responsibility).
type Circle struct {
	Diameter float64
	Hole     *float64
	U        units.Unit
	cache    bboxCache
}

func (c *Circle) Unit() units.Unit { return c.U }

func (c *Circle) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	dia := units.Convert(c.Diameter, c.U, unit)
	center := geometry.Pt(units.Convert(x, unit, unit), units.Convert(y, unit, unit))
	prims := []primitive.Primitive{primitive.Circle{Center: center, Diameter: dia, Dark: dark}}
	if c.Hole != nil {
		hd := units.Convert(*c.Hole, c.U, unit)
		prims = append(prims, primitive.Circle{Center: center, Diameter: hd, Dark: !dark})
	}
	return prims, nil
}

func (c *Circle) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := c.cache.get(unit); ok {
		return b, nil
	}
	prims, err := c.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := prims[0].Bounds()
	c.cache.put(unit, b)
	return b, nil
}

// Rotated returns c unchanged: circles have no orientation.
func (c *Circle) Rotated(angleRad float64) (Aperture, error) { return c, nil }

func (c *Circle) Dilated(offset float64) (Aperture, []string, error) {
	return &Circle{Diameter: c.Diameter + 2*offset, Hole: c.Hole, U: c.U}, nil, nil
}

func (c *Circle) Scaled(factor float64) Aperture {
	var hole *float64
	if c.Hole != nil {
		h := *c.Hole * factor
		hole = &h
	}
	return &Circle{Diameter: c.Diameter * factor, Hole: hole, U: c.U}
}

func (c *Circle) EquivalentWidth() float64 { return c.Diameter }

func (c *Circle) ToGerber(fs units.FileSettings) (string, error) {
	dia := units.Convert(c.Diameter, c.U, fs.Unit)
	if c.Hole != nil {
		hole := units.Convert(*c.Hole, c.U, fs.Unit)
		return fmt.Sprintf("C,%sX%s", trimNum(dia), trimNum(hole)), nil
	}
	return fmt.Sprintf("C,%s", trimNum(dia)), nil
}

// Rectangle is the built-in rectangular aperture.
type Rectangle struct {
	Width, Height float64
	Hole          *float64
	U             units.Unit
	cache         bboxCache
}

func (r *Rectangle) Unit() units.Unit { return r.U }

func (r *Rectangle) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	w := units.Convert(r.Width, r.U, unit)
	h := units.Convert(r.Height, r.U, unit)
	center := geometry.Pt(x, y)
	prims := []primitive.Primitive{primitive.Rectangle{Center: center, Width: w, Height: h, Dark: dark}}
	if r.Hole != nil {
		hd := units.Convert(*r.Hole, r.U, unit)
		prims = append(prims, primitive.Circle{Center: center, Diameter: hd, Dark: !dark})
	}
	return prims, nil
}

func (r *Rectangle) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := r.cache.get(unit); ok {
		return b, nil
	}
	prims, err := r.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := prims[0].Bounds()
	r.cache.put(unit, b)
	return b, nil
}

// Rotated returns r unchanged at 0 or 180 degrees and swaps width/height
// at 90 or 270 degrees; any other angle falls back to a macro-instance
// expansion via to_macro.
func (r *Rectangle) Rotated(angleRad float64) (Aperture, error) {
	deg := math.Mod(angleRad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	switch {
	case closeTo(deg, 0) || closeTo(deg, 180):
		return r, nil
	case closeTo(deg, 90) || closeTo(deg, 270):
		var hole *float64
		if r.Hole != nil {
			h := *r.Hole
			hole = &h
		}
		return &Rectangle{Width: r.Height, Height: r.Width, Hole: hole, U: r.U}, nil
	}
	return r.toMacroInstance(angleRad)
}

func (r *Rectangle) toMacroInstance(angleRad float64) (Aperture, error) {
	hole := 0.0
	if r.Hole != nil {
		hole = *r.Hole
	}
	deg := -angleRad * 180 / math.Pi
	return &MacroInstance{
		Macro: macro.GNR,
		Params: map[int]float64{1: r.Width, 2: r.Height, 3: hole, 4: deg},
		U:      r.U,
	}, nil
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func (r *Rectangle) Dilated(offset float64) (Aperture, []string, error) {
	return &Rectangle{Width: r.Width + 2*offset, Height: r.Height + 2*offset, Hole: r.Hole, U: r.U}, nil, nil
}

func (r *Rectangle) Scaled(factor float64) Aperture {
	var hole *float64
	if r.Hole != nil {
		h := *r.Hole * factor
		hole = &h
	}
	return &Rectangle{Width: r.Width * factor, Height: r.Height * factor, Hole: hole, U: r.U}
}

func (r *Rectangle) EquivalentWidth() float64 { return math.Min(r.Width, r.Height) }

func (r *Rectangle) ToGerber(fs units.FileSettings) (string, error) {
	w := units.Convert(r.Width, r.U, fs.Unit)
	h := units.Convert(r.Height, r.U, fs.Unit)
	if r.Hole != nil {
		hole := units.Convert(*r.Hole, r.U, fs.Unit)
		return fmt.Sprintf("R,%sX%sX%s", trimNum(w), trimNum(h), trimNum(hole)), nil
	}
	return fmt.Sprintf("R,%sX%s", trimNum(w), trimNum(h)), nil
}

// Obround is the built-in stadium-shaped aperture.
type Obround struct {
	Width, Height float64
	Hole          *float64
	U             units.Unit
	cache         bboxCache
}

func (o *Obround) Unit() units.Unit { return o.U }

func (o *Obround) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	w := units.Convert(o.Width, o.U, unit)
	h := units.Convert(o.Height, o.U, unit)
	center := geometry.Pt(x, y)
	var prims []primitive.Primitive
	if w >= h {
		stroke := h
		half := (w - h) / 2
		prims = append(prims, primitive.Line{
			Start: geometry.Pt(x-half, y), End: geometry.Pt(x+half, y), Width: stroke, Dark: dark,
		})
	} else {
		stroke := w
		half := (h - w) / 2
		prims = append(prims, primitive.Line{
			Start: geometry.Pt(x, y-half), End: geometry.Pt(x, y+half), Width: stroke, Dark: dark,
		})
	}
	if o.Hole != nil {
		hd := units.Convert(*o.Hole, o.U, unit)
		prims = append(prims, primitive.Circle{Center: center, Diameter: hd, Dark: !dark})
	}
	return prims, nil
}

func (o *Obround) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := o.cache.get(unit); ok {
		return b, nil
	}
	prims, err := o.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := prims[0].Bounds()
	o.cache.put(unit, b)
	return b, nil
}

func (o *Obround) Rotated(angleRad float64) (Aperture, error) {
	deg := math.Mod(angleRad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	switch {
	case closeTo(deg, 0) || closeTo(deg, 180):
		return o, nil
	case closeTo(deg, 90) || closeTo(deg, 270):
		var hole *float64
		if o.Hole != nil {
			h := *o.Hole
			hole = &h
		}
		return &Obround{Width: o.Height, Height: o.Width, Hole: hole, U: o.U}, nil
	}
	hole := 0.0
	if o.Hole != nil {
		hole = *o.Hole
	}
	deg2 := -angleRad * 180 / math.Pi
	return &MacroInstance{Macro: macro.GNO, Params: map[int]float64{1: o.Width, 2: o.Height, 3: hole, 4: deg2}, U: o.U}, nil
}

func (o *Obround) Dilated(offset float64) (Aperture, []string, error) {
	return &Obround{Width: o.Width + 2*offset, Height: o.Height + 2*offset, Hole: o.Hole, U: o.U}, nil, nil
}

func (o *Obround) Scaled(factor float64) Aperture {
	var hole *float64
	if o.Hole != nil {
		h := *o.Hole * factor
		hole = &h
	}
	return &Obround{Width: o.Width * factor, Height: o.Height * factor, Hole: hole, U: o.U}
}

func (o *Obround) EquivalentWidth() float64 { return math.Min(o.Width, o.Height) }

func (o *Obround) ToGerber(fs units.FileSettings) (string, error) {
	w := units.Convert(o.Width, o.U, fs.Unit)
	h := units.Convert(o.Height, o.U, fs.Unit)
	if o.Hole != nil {
		hole := units.Convert(*o.Hole, o.U, fs.Unit)
		return fmt.Sprintf("O,%sX%sX%s", trimNum(w), trimNum(h), trimNum(hole)), nil
	}
	return fmt.Sprintf("O,%sX%s", trimNum(w), trimNum(h)), nil
}

// Polygon is the built-in regular-polygon aperture.
type Polygon struct {
	Diameter float64
	Vertices int
	Rotation float64 // clockwise radians
	Hole     *float64
	U        units.Unit
	cache    bboxCache
}

func (p *Polygon) Unit() units.Unit { return p.U }

func (p *Polygon) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	dia := units.Convert(p.Diameter, p.U, unit)
	r := dia / 2
	pts := make([]geometry.Point, p.Vertices)
	for i := 0; i < p.Vertices; i++ {
		angle := -p.Rotation + float64(i)*(2*math.Pi/float64(p.Vertices))
		pts[i] = geometry.Pt(x+r*math.Cos(angle), y+r*math.Sin(angle))
	}
	prims := []primitive.Primitive{primitive.ArcPoly{Points: append(pts, pts[0]), Dark: dark}}
	if p.Hole != nil {
		hd := units.Convert(*p.Hole, p.U, unit)
		prims = append(prims, primitive.Circle{Center: geometry.Pt(x, y), Diameter: hd, Dark: !dark})
	}
	return prims, nil
}

func (p *Polygon) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := p.cache.get(unit); ok {
		return b, nil
	}
	prims, err := p.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := prims[0].Bounds()
	p.cache.put(unit, b)
	return b, nil
}

// Rotated composes rotation directly; polygons have a closed-form rotated
// representation.
func (p *Polygon) Rotated(angleRad float64) (Aperture, error) {
	var hole *float64
	if p.Hole != nil {
		h := *p.Hole
		hole = &h
	}
	return &Polygon{Diameter: p.Diameter, Vertices: p.Vertices, Rotation: p.Rotation + angleRad, Hole: hole, U: p.U}, nil
}

func (p *Polygon) Dilated(offset float64) (Aperture, []string, error) {
	return &Polygon{Diameter: p.Diameter + 2*offset, Vertices: p.Vertices, Rotation: p.Rotation, Hole: p.Hole, U: p.U}, nil, nil
}

func (p *Polygon) Scaled(factor float64) Aperture {
	var hole *float64
	if p.Hole != nil {
		h := *p.Hole * factor
		hole = &h
	}
	return &Polygon{Diameter: p.Diameter * factor, Vertices: p.Vertices, Rotation: p.Rotation, Hole: hole, U: p.U}
}

func (p *Polygon) EquivalentWidth() float64 { return p.Diameter }

func (p *Polygon) ToGerber(fs units.FileSettings) (string, error) {
	dia := units.Convert(p.Diameter, p.U, fs.Unit)
	degCCW := -p.Rotation * 180 / math.Pi
	if p.Hole != nil {
		hole := units.Convert(*p.Hole, p.U, fs.Unit)
		return fmt.Sprintf("P,%sX%dX%sX%s", trimNum(dia), p.Vertices, trimNum(degCCW), trimNum(hole)), nil
	}
	return fmt.Sprintf("P,%sX%dX%s", trimNum(dia), p.Vertices, trimNum(degCCW)), nil
}

// MacroInstance is an aperture bound to a user-defined macro, carrying
// concrete parameter values keyed by macro variable index.
type MacroInstance struct {
	Macro  macro.Macro
	Params map[int]float64
	U      units.Unit
	cache  bboxCache
}

func (m *MacroInstance) Unit() units.Unit { return m.U }

func (m *MacroInstance) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	scale := units.Convert(1, m.U, unit)
	scaled := m.Macro.Scaled(scale)
	return scaled.Flash(geometry.Pt(x, y), 0, m.Params, unit, dark)
}

func (m *MacroInstance) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := m.cache.get(unit); ok {
		return b, nil
	}
	prims, err := m.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := geometry.EmptyBounds()
	for _, p := range prims {
		b = b.Union(p.Bounds())
	}
	m.cache.put(unit, b)
	return b, nil
}

// Rotated composes rotation into a new bound macro. angleRad
// is clockwise radians (the object-model convention); macro primitives
// store rotation as source-form degrees CCW, so it's negated and converted
// before being folded in.
func (m *MacroInstance) Rotated(angleRad float64) (Aperture, error) {
	extraDeg := -angleRad * 180 / math.Pi
	return &MacroInstance{Macro: m.Macro.Rotated(extraDeg), Params: m.Params, U: m.U}, nil
}

func (m *MacroInstance) Dilated(offset float64) (Aperture, []string, error) {
	dilated, warnings := m.Macro.Dilated(offset, m.U)
	return &MacroInstance{Macro: dilated, Params: m.Params, U: m.U}, warnings, nil
}

func (m *MacroInstance) Scaled(factor float64) Aperture {
	return &MacroInstance{Macro: m.Macro.Scaled(factor), Params: m.Params, U: m.U}
}

func (m *MacroInstance) EquivalentWidth() float64 {
	b, err := m.BoundingBox(m.U)
	if err != nil {
		return 0
	}
	return math.Min(b.MaxX-b.MinX, b.MaxY-b.MinY)
}

// ToGerber renders "{macroName},{params}" using the macro's own
// declared-variable order; the dedup pass in the serializer may instead
// substitute parameters into the macro body and synthesize a
// parameter-less macro with a new name.
func (m *MacroInstance) ToGerber(fs units.FileSettings) (string, error) {
	keys := make([]int, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sortInts(keys)
	parts := ""
	for i, k := range keys {
		if i > 0 {
			parts += "X"
		}
		parts += trimNum(m.Params[k])
	}
	if parts == "" {
		return m.Macro.Name, nil
	}
	return fmt.Sprintf("%s,%s", m.Macro.Name, parts), nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ExcellonTool is an aperture variant used only in Excellon files: a
// drill/rout diameter with a plating status.
type ExcellonTool struct {
	Diameter float64
	Plated   Plating
	U        units.Unit
	cache    bboxCache
}

// Plating is the per-tool plated/non-plated/unknown status.
type Plating int

const (
	PlatingUnknown Plating = iota
	PlatingPlated
	PlatingNonPlated
)

func (t *ExcellonTool) Unit() units.Unit { return t.U }

func (t *ExcellonTool) Flash(x, y float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	dia := units.Convert(t.Diameter, t.U, unit)
	return []primitive.Primitive{primitive.Circle{Center: geometry.Pt(x, y), Diameter: dia, Dark: dark}}, nil
}

func (t *ExcellonTool) BoundingBox(unit units.Unit) (geometry.Bounds, error) {
	if b, ok := t.cache.get(unit); ok {
		return b, nil
	}
	prims, err := t.Flash(0, 0, unit, true)
	if err != nil {
		return geometry.Bounds{}, err
	}
	b := prims[0].Bounds()
	t.cache.put(unit, b)
	return b, nil
}

func (t *ExcellonTool) Rotated(angleRad float64) (Aperture, error) { return t, nil }

func (t *ExcellonTool) Dilated(offset float64) (Aperture, []string, error) {
	return &ExcellonTool{Diameter: t.Diameter + 2*offset, Plated: t.Plated, U: t.U}, nil, nil
}

func (t *ExcellonTool) Scaled(factor float64) Aperture {
	return &ExcellonTool{Diameter: t.Diameter * factor, Plated: t.Plated, U: t.U}
}

func (t *ExcellonTool) EquivalentWidth() float64 { return t.Diameter }

// ToGerber is unused for Excellon tools under this name; ToXNC is the
// format-appropriate emitter ("C{diameter}" as part of a tool definition
// line).
func (t *ExcellonTool) ToGerber(fs units.FileSettings) (string, error) {
	return "", errors.New("ExcellonTool has no Gerber representation; use ToXNC")
}

// ToolTable is a tool-number-to-tool map, the shape excellon.File.Tools
// carries and the shape an Allegro nc_param.txt sidecar resolves to.
type ToolTable map[int]*ExcellonTool

// ToXNC renders the "C{diameter}" fragment of an XNC tool-definition line.
// XNC carries no implicit zero-suppression state, so the diameter is
// always written with an explicit decimal point rather than through fs's
// fixed-width zero-suppressed format.
func (t *ExcellonTool) ToXNC(fs units.FileSettings) (string, error) {
	if fs.IntegerDigits > 6 || fs.FractionDigits > 7 {
		return "", errors.Errorf("precision %d.%d exceeds maximum of 6 integer / 7 fractional digits",
			fs.IntegerDigits, fs.FractionDigits)
	}
	dia := units.Convert(t.Diameter, t.U, fs.Unit)
	s := trimNum(dia)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return "C" + s, nil
}

// ToMacro converts any built-in to a generic macro instance so
// non-axis-aligned rotations can be emitted.
func ToMacro(a Aperture) (*MacroInstance, error) {
	switch v := a.(type) {
	case *MacroInstance:
		return v, nil
	case *Circle:
		hole := 0.0
		if v.Hole != nil {
			hole = *v.Hole
		}
		return &MacroInstance{Macro: macro.GNC, Params: map[int]float64{1: v.Diameter, 2: hole, 3: 0}, U: v.U}, nil
	case *Rectangle:
		hole := 0.0
		if v.Hole != nil {
			hole = *v.Hole
		}
		return &MacroInstance{Macro: macro.GNR, Params: map[int]float64{1: v.Width, 2: v.Height, 3: hole, 4: 0}, U: v.U}, nil
	case *Obround:
		hole := 0.0
		if v.Hole != nil {
			hole = *v.Hole
		}
		return &MacroInstance{Macro: macro.GNO, Params: map[int]float64{1: v.Width, 2: v.Height, 3: hole, 4: 0}, U: v.U}, nil
	case *Polygon:
		hole := 0.0
		if v.Hole != nil {
			hole = *v.Hole
		}
		deg := -v.Rotation * 180 / math.Pi
		return &MacroInstance{Macro: macro.GNP, Params: map[int]float64{1: v.Diameter, 2: float64(v.Vertices), 3: hole, 4: deg}, U: v.U}, nil
	}
	return nil, errors.Errorf("aperture type %T has no macro conversion", a)
}

func trimNum(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	for len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
