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

package macro

import (
	"sort"
	"strings"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic/primitive"
	"github.com/jsleeio/gerbonara/macro/expr"
	"github.com/jsleeio/gerbonara/units"
)

// Macro is a named, ordered collection of variable definitions and
// primitives. A macro's identity for equality and hashing is
// its canonical Gerber serialization, not its name: two macros with
// different names but the same canonical body are interchangeable.
type Macro struct {
	Name       string
	Variables  map[int]expr.Expression
	Primitives []Primitive
}

// ToGerber renders the full "%AMname*block*block*%" source, minus the
// surrounding "%AM"/"*%" which the serializer adds.
func (m Macro) ToGerber(unit units.Unit) string {
	var blocks []string
	keys := make([]int, 0, len(m.Variables))
	for k := range m.Variables {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		blocks = append(blocks, "$"+itoa(k)+"="+m.Variables[k].Optimized(nil).ToGerber())
	}
	for _, p := range m.Primitives {
		blocks = append(blocks, p.ToGerber(unit))
	}
	return strings.Join(blocks, "*")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}

// CanonicalKey returns the string used as the macro's identity for
// equality, hashing and dedup: its canonical Gerber serialization.
func (m Macro) CanonicalKey(unit units.Unit) string { return m.ToGerber(unit) }

// Flash evaluates every primitive, in order, substituting binding (the
// aperture-instance parameters keyed by $1.. index) and returns the
// flattened render primitives, rotated by rotationRad and translated to
// offset. polarityDark is the flash's own polarity (dark/clear); a
// primitive renders dark when its own exposure matches it (exposure on in
// a dark flash, or off in a clear one).
func (m Macro) Flash(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, polarityDark bool) ([]primitive.Primitive, error) {
	merged := map[int]float64{}
	for k, v := range m.Variables {
		val, err := v.Optimized(binding).Eval(binding)
		if err == nil {
			merged[k] = val
		}
	}
	for k, v := range binding {
		merged[k] = v
	}
	var out []primitive.Primitive
	for _, p := range m.Primitives {
		prims, err := p.ToGraphicPrimitives(offset, rotationRad, merged, unit, polarityDark)
		if err != nil {
			return nil, err
		}
		out = append(out, prims...)
	}
	return out, nil
}

// Rotated returns a new macro with every primitive's fixed-angle rotation
// field composed with extra degrees of additional CCW rotation, used when
// an aperture instance needs a rotation baked into the macro body itself
// (e.g. a non-axis-aligned built-in shape converted to a macro instance).
func (m Macro) Rotated(extraDegreesCCW float64) Macro {
	primitives := make([]Primitive, len(m.Primitives))
	extra := expr.Const(extraDegreesCCW)
	for i, p := range m.Primitives {
		primitives[i] = addRotation(p, extra)
	}
	return Macro{Name: m.Name, Variables: m.Variables, Primitives: primitives}
}

// addRotation composes extraDegreesCCW into a primitive's own Rotation field.
func addRotation(p Primitive, extra expr.Expression) Primitive {
	plus := func(e expr.Expression) expr.Expression {
		return expr.OperatorExpr(expr.Add, e, extra)
	}
	switch v := p.(type) {
	case Circle:
		v.Rotation = plus(v.Rotation)
		return v
	case VectorLine:
		v.Rotation = plus(v.Rotation)
		return v
	case CenteredRect:
		v.Rotation = plus(v.Rotation)
		return v
	case Outline:
		v.Rotation = plus(v.Rotation)
		return v
	case RegularPolygon:
		v.Rotation = plus(v.Rotation)
		return v
	case Moire:
		v.Rotation = plus(v.Rotation)
		return v
	case Thermal:
		v.Rotation = plus(v.Rotation)
		return v
	}
	return p
}

// Dilated grows every primitive by offset; primitives that don't support
// dilation (thermal, moiré, outline) pass through unchanged and
// contribute a warning string.
func (m Macro) Dilated(offset float64, unit units.Unit) (Macro, []string) {
	var warnings []string
	primitives := make([]Primitive, len(m.Primitives))
	for i, p := range m.Primitives {
		dilated, warns := p.Dilated(offset, unit)
		primitives[i] = dilated
		warnings = append(warnings, warns...)
	}
	return Macro{Name: m.Name, Variables: m.Variables, Primitives: primitives}, warnings
}

// Scaled multiplies every length-bearing field of every primitive by factor.
func (m Macro) Scaled(factor float64) Macro {
	primitives := make([]Primitive, len(m.Primitives))
	for i, p := range m.Primitives {
		primitives[i] = p.Scaled(factor)
	}
	return Macro{Name: m.Name, Variables: m.Variables, Primitives: primitives}
}
