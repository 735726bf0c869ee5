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
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/macro/expr"
	"github.com/pkg/errors"
)

// Parse parses an aperture-macro body (the text between "%AMname*" and
// the closing "%", not including the AM/name header): the
// body is split on "*", each block dispatched by its first token — "0 …"
// is a comment, "$n=expr" a variable definition (duplicate definitions
// error), and integer codes map to primitive constructors taking the
// comma-separated expression list.
func Parse(name, body string) (Macro, error) {
	m := Macro{Name: name, Variables: map[int]expr.Expression{}}
	for _, raw := range strings.Split(body, "*") {
		block := strings.TrimSpace(raw)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "0") && (len(block) == 1 || block[1] == ' ') {
			continue // comment block
		}
		if strings.HasPrefix(block, "$") {
			idx, val, err := parseVariableDef(block)
			if err != nil {
				return Macro{}, err
			}
			if _, dup := m.Variables[idx]; dup {
				return Macro{}, errors.Errorf("macro %q redefines variable $%d", name, idx)
			}
			m.Variables[idx] = val
			continue
		}
		prim, err := parsePrimitiveBlock(block)
		if err != nil {
			return Macro{}, errors.Wrapf(err, "macro %q", name)
		}
		m.Primitives = append(m.Primitives, prim)
	}
	return m, nil
}

func parseVariableDef(block string) (int, expr.Expression, error) {
	eq := strings.Index(block, "=")
	if eq < 0 {
		return 0, nil, errors.Errorf("malformed variable definition %q", block)
	}
	name := strings.TrimSpace(block[1:eq])
	idx, err := strconv.Atoi(name)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "parsing variable index in %q", block)
	}
	val, err := expr.Parse(block[eq+1:])
	if err != nil {
		return 0, nil, errors.Wrapf(err, "parsing variable value in %q", block)
	}
	return idx, val, nil
}

func parsePrimitiveBlock(block string) (Primitive, error) {
	fields := strings.Split(block, ",")
	code, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing primitive code in %q", block)
	}
	exprs := make([]expr.Expression, 0, len(fields)-1)
	for _, f := range fields[1:] {
		e, err := expr.Parse(f)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing field %q", f)
		}
		exprs = append(exprs, e)
	}
	return buildPrimitive(Code(code), exprs)
}

func buildPrimitive(code Code, f []expr.Expression) (Primitive, error) {
	need := func(n int) error {
		if len(f) < n {
			return errors.Errorf("primitive code %d needs %d fields, got %d", code, n, len(f))
		}
		return nil
	}
	switch code {
	case CodeCircle:
		if err := need(5); err != nil {
			return nil, err
		}
		return Circle{Exposure: f[0], Diameter: f[1], CenterX: f[2], CenterY: f[3], Rotation: f[4]}, nil
	case CodeVectorLine2, CodeVectorLine20:
		if err := need(7); err != nil {
			return nil, err
		}
		return NewVectorLine(code, f[0], f[1], f[2], f[3], f[4], f[5], f[6]), nil
	case CodeCenteredRect:
		if err := need(6); err != nil {
			return nil, err
		}
		return CenteredRect{Exposure: f[0], Width: f[1], Height: f[2], CenterX: f[3], CenterY: f[4], Rotation: f[5]}, nil
	case CodePolygon:
		if err := need(6); err != nil {
			return nil, err
		}
		return RegularPolygon{Exposure: f[0], Vertices: f[1], CenterX: f[2], CenterY: f[3], Diameter: f[4], Rotation: f[5]}, nil
	case CodeMoire:
		if err := need(9); err != nil {
			return nil, err
		}
		return Moire{
			CenterX: f[0], CenterY: f[1], OuterDiameter: f[2], RingThickness: f[3], RingGap: f[4],
			MaxRings: f[5], CrosshairThickness: f[6], CrosshairLength: f[7], Rotation: f[8],
		}, nil
	case CodeThermal:
		if err := need(6); err != nil {
			return nil, err
		}
		return Thermal{CenterX: f[0], CenterY: f[1], OuterDiameter: f[2], InnerDiameter: f[3], GapThickness: f[4], Rotation: f[5]}, nil
	case CodeOutline:
		if len(f) < 3 {
			return nil, errors.Errorf("outline primitive needs at least 3 fields, got %d", len(f))
		}
		nPoints, err := f[1].Optimized(nil).Eval(nil)
		if err != nil {
			return nil, errors.Wrap(err, "outline point count must be resolvable at parse time")
		}
		count := int(nPoints + 0.5)
		needLen := 2 + 2*(count+1) + 1
		if len(f) < needLen {
			return nil, errors.Errorf("outline primitive declares %d points but only has %d fields", count, len(f))
		}
		points := make([][2]expr.Expression, count+1)
		for i := 0; i <= count; i++ {
			points[i] = [2]expr.Expression{f[2+2*i], f[3+2*i]}
		}
		return Outline{Exposure: f[0], Rotation: f[len(f)-1], Points: points}, nil
	}
	return nil, errors.Errorf("unrecognized aperture macro primitive code %d", code)
}
