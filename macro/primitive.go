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

// Package macro implements aperture macros: named templates
// of variable definitions and primitive shapes, with Gerber
// serialization, rotation, scaling and dilation.
package macro

import (
	"fmt"
	"strings"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic/primitive"
	"github.com/jsleeio/gerbonara/macro/expr"
	"github.com/jsleeio/gerbonara/units"
	"github.com/pkg/errors"
)

// Code identifies a macro primitive's shape by its Gerber integer code.
type Code int

const (
	CodeCircle       Code = 1
	CodeVectorLine2  Code = 2
	CodeVectorLine20 Code = 20
	CodeOutline      Code = 4
	CodePolygon      Code = 5
	CodeMoire        Code = 6
	CodeThermal      Code = 7
	CodeCenteredRect Code = 21
)

// Primitive is one shape instruction inside an aperture macro body.
type Primitive interface {
	// Code returns the primitive's class-level integer code.
	Code() Code
	// ToGerber renders "code,field1,field2,…" with each field optimized
	// before emission.
	ToGerber(unit units.Unit) string
	// ToGraphicPrimitives substitutes binding, rotates, translates by
	// offset and emits flattened render primitives.
	ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error)
	// Dilated grows (or shrinks) the primitive's line-bearing dimensions
	// by offset. Thermal, moiré and outline dilation are unsupported and
	// must warn and pass through unchanged.
	Dilated(offset float64, unit units.Unit) (Primitive, []string)
	// Scaled multiplies every length-bearing field by factor.
	Scaled(factor float64) Primitive
	// SubstituteParams partially evaluates, returning a primitive of the
	// same kind with concrete numeric fields where binding resolves them.
	SubstituteParams(binding map[int]float64, unit units.Unit) Primitive
}

func exprList(fields ...expr.Expression) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Optimized(nil).ToGerber()
	}
	return strings.Join(parts, ",")
}

func evalField(e expr.Expression, binding map[int]float64) (float64, error) {
	v, err := e.Optimized(binding).Eval(binding)
	if err != nil {
		return 0, errors.Wrap(err, "evaluating macro primitive field")
	}
	return v, nil
}

func substituteExpr(e expr.Expression, binding map[int]float64) expr.Expression {
	return e.Optimized(binding)
}

func exposureDark(e expr.Expression, binding map[int]float64) (bool, error) {
	v, err := evalField(e, binding)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// rotatePoint rotates (x, y) clockwise by rotationRad and translates by
// offset. Macro-source rotation is degrees CCW; callers convert before
// calling this, so this always takes clockwise radians like the rest of
// the object model.
func rotatePoint(x, y float64, offset geometry.Point, rotationRad float64) geometry.Point {
	p := geometry.Pt(x, y).RotatedAround(geometry.Pt(0, 0), rotationRad)
	return p.Add(offset)
}

// --- Circle (code 1) ---

// Circle is macro primitive code 1: exposure, diameter, center, rotation.
type Circle struct {
	Exposure, Diameter, CenterX, CenterY, Rotation expr.Expression
}

func (c Circle) Code() Code { return CodeCircle }

func (c Circle) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", c.Code(), exprList(c.Exposure, c.Diameter, c.CenterX, c.CenterY, c.Rotation))
}

func (c Circle) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	exposure, err := exposureDark(c.Exposure, binding)
	if err != nil {
		return nil, err
	}
	dia, err := evalField(c.Diameter, binding)
	if err != nil {
		return nil, err
	}
	cx, err := evalField(c.CenterX, binding)
	if err != nil {
		return nil, err
	}
	cy, err := evalField(c.CenterY, binding)
	if err != nil {
		return nil, err
	}
	center := rotatePoint(cx, cy, offset, rotationRad)
	return []primitive.Primitive{primitive.Circle{Center: center, Diameter: dia, Dark: exposure == dark}}, nil
}

func (c Circle) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	return Circle{
		Exposure: c.Exposure, CenterX: c.CenterX, CenterY: c.CenterY, Rotation: c.Rotation,
		Diameter: expr.OperatorExpr(expr.Add, c.Diameter, expr.Const(2*offset)),
	}, nil
}

func (c Circle) Scaled(factor float64) Primitive {
	return Circle{
		Exposure: c.Exposure, CenterX: expr.OperatorExpr(expr.Mul, c.CenterX, expr.Const(factor)),
		CenterY: expr.OperatorExpr(expr.Mul, c.CenterY, expr.Const(factor)), Rotation: c.Rotation,
		Diameter: expr.OperatorExpr(expr.Mul, c.Diameter, expr.Const(factor)),
	}
}

func (c Circle) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return Circle{
		Exposure: substituteExpr(c.Exposure, binding), Diameter: substituteExpr(c.Diameter, binding),
		CenterX: substituteExpr(c.CenterX, binding), CenterY: substituteExpr(c.CenterY, binding),
		Rotation: substituteExpr(c.Rotation, binding),
	}
}

// --- VectorLine (codes 2/20) ---

// VectorLine is macro primitive code 2 or 20: a stroked line segment.
type VectorLine struct {
	code                               Code
	Exposure, Width                    expr.Expression
	StartX, StartY, EndX, EndY         expr.Expression
	Rotation                           expr.Expression
}

// NewVectorLine constructs a VectorLine using the given source code (2 or 20).
func NewVectorLine(code Code, exposure, width, x1, y1, x2, y2, rotation expr.Expression) VectorLine {
	return VectorLine{code: code, Exposure: exposure, Width: width, StartX: x1, StartY: y1, EndX: x2, EndY: y2, Rotation: rotation}
}

func (l VectorLine) Code() Code { return l.code }

func (l VectorLine) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", l.Code(), exprList(l.Exposure, l.Width, l.StartX, l.StartY, l.EndX, l.EndY, l.Rotation))
}

func (l VectorLine) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	exposure, err := exposureDark(l.Exposure, binding)
	if err != nil {
		return nil, err
	}
	w, err := evalField(l.Width, binding)
	if err != nil {
		return nil, err
	}
	x1, err := evalField(l.StartX, binding)
	if err != nil {
		return nil, err
	}
	y1, err := evalField(l.StartY, binding)
	if err != nil {
		return nil, err
	}
	x2, err := evalField(l.EndX, binding)
	if err != nil {
		return nil, err
	}
	y2, err := evalField(l.EndY, binding)
	if err != nil {
		return nil, err
	}
	rot, err := evalField(l.Rotation, binding)
	if err != nil {
		return nil, err
	}
	localRot := rotationRad + degToRadCW(rot)
	p1 := rotatePoint(x1, y1, offset, localRot)
	p2 := rotatePoint(x2, y2, offset, localRot)
	return []primitive.Primitive{primitive.Line{Start: p1, End: p2, Width: w, Dark: exposure == dark}}, nil
}

func (l VectorLine) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	l2 := l
	l2.Width = expr.OperatorExpr(expr.Add, l.Width, expr.Const(offset))
	return l2, nil
}

func (l VectorLine) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	return VectorLine{
		code: l.code, Exposure: l.Exposure, Rotation: l.Rotation,
		Width:  expr.OperatorExpr(expr.Mul, l.Width, f),
		StartX: expr.OperatorExpr(expr.Mul, l.StartX, f), StartY: expr.OperatorExpr(expr.Mul, l.StartY, f),
		EndX: expr.OperatorExpr(expr.Mul, l.EndX, f), EndY: expr.OperatorExpr(expr.Mul, l.EndY, f),
	}
}

func (l VectorLine) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return VectorLine{
		code: l.code, Exposure: substituteExpr(l.Exposure, binding), Width: substituteExpr(l.Width, binding),
		StartX: substituteExpr(l.StartX, binding), StartY: substituteExpr(l.StartY, binding),
		EndX: substituteExpr(l.EndX, binding), EndY: substituteExpr(l.EndY, binding),
		Rotation: substituteExpr(l.Rotation, binding),
	}
}

// degToRadCW converts a macro-source degree-CCW angle to the
// clockwise-radian convention used by the rest of the object model.
func degToRadCW(deg float64) float64 {
	const piOver180 = 3.14159265358979323846 / 180.0
	return -deg * piOver180
}

// --- CenteredRectangle (code 21) ---

// CenteredRect is macro primitive code 21.
type CenteredRect struct {
	Exposure, Width, Height, CenterX, CenterY, Rotation expr.Expression
}

func (r CenteredRect) Code() Code { return CodeCenteredRect }

func (r CenteredRect) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", r.Code(), exprList(r.Exposure, r.Width, r.Height, r.CenterX, r.CenterY, r.Rotation))
}

func (r CenteredRect) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	exposure, err := exposureDark(r.Exposure, binding)
	if err != nil {
		return nil, err
	}
	w, err := evalField(r.Width, binding)
	if err != nil {
		return nil, err
	}
	h, err := evalField(r.Height, binding)
	if err != nil {
		return nil, err
	}
	cx, err := evalField(r.CenterX, binding)
	if err != nil {
		return nil, err
	}
	cy, err := evalField(r.CenterY, binding)
	if err != nil {
		return nil, err
	}
	rot, err := evalField(r.Rotation, binding)
	if err != nil {
		return nil, err
	}
	center := rotatePoint(cx, cy, offset, rotationRad)
	return []primitive.Primitive{primitive.Rectangle{
		Center: center, Width: w, Height: h, RotationRad: rotationRad + degToRadCW(rot), Dark: exposure == dark,
	}}, nil
}

func (r CenteredRect) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	two := expr.Const(2 * offset)
	return CenteredRect{
		Exposure: r.Exposure, CenterX: r.CenterX, CenterY: r.CenterY, Rotation: r.Rotation,
		Width:  expr.OperatorExpr(expr.Add, r.Width, two),
		Height: expr.OperatorExpr(expr.Add, r.Height, two),
	}, nil
}

func (r CenteredRect) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	return CenteredRect{
		Exposure: r.Exposure, Rotation: r.Rotation,
		Width: expr.OperatorExpr(expr.Mul, r.Width, f), Height: expr.OperatorExpr(expr.Mul, r.Height, f),
		CenterX: expr.OperatorExpr(expr.Mul, r.CenterX, f), CenterY: expr.OperatorExpr(expr.Mul, r.CenterY, f),
	}
}

func (r CenteredRect) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return CenteredRect{
		Exposure: substituteExpr(r.Exposure, binding), Width: substituteExpr(r.Width, binding),
		Height: substituteExpr(r.Height, binding), CenterX: substituteExpr(r.CenterX, binding),
		CenterY: substituteExpr(r.CenterY, binding), Rotation: substituteExpr(r.Rotation, binding),
	}
}

// --- Outline (code 4) ---

// Outline is macro primitive code 4: an explicit closed polygon. Point
// count (and hence the required length field) is recomputed from
// Points rather than stored redundantly.
type Outline struct {
	Exposure, Rotation expr.Expression
	// Points holds N+1 (x,y) expression pairs; Points[len-1] must equal
	// Points[0] (the outline is closed).
	Points [][2]expr.Expression
}

func (o Outline) Code() Code { return CodeOutline }

func (o Outline) ToGerber(unit units.Unit) string {
	fields := []expr.Expression{o.Exposure, expr.Const(float64(len(o.Points) - 1))}
	for _, pt := range o.Points {
		fields = append(fields, pt[0], pt[1])
	}
	fields = append(fields, o.Rotation)
	return fmt.Sprintf("%d,%s", o.Code(), exprList(fields...))
}

func (o Outline) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	exposure, err := exposureDark(o.Exposure, binding)
	if err != nil {
		return nil, err
	}
	rot, err := evalField(o.Rotation, binding)
	if err != nil {
		return nil, err
	}
	localRot := rotationRad + degToRadCW(rot)
	pts := make([]geometry.Point, 0, len(o.Points))
	for _, pair := range o.Points {
		x, err := evalField(pair[0], binding)
		if err != nil {
			return nil, err
		}
		y, err := evalField(pair[1], binding)
		if err != nil {
			return nil, err
		}
		pts = append(pts, rotatePoint(x, y, offset, localRot))
	}
	return []primitive.Primitive{primitive.ArcPoly{Points: pts, Dark: exposure == dark}}, nil
}

// Dilated is unsupported for Outline; it warns and passes through.
func (o Outline) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	return o, []string{"dilation of outline macro primitives is not supported; primitive passed through unchanged"}
}

func (o Outline) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	pts := make([][2]expr.Expression, len(o.Points))
	for i, pair := range o.Points {
		pts[i] = [2]expr.Expression{
			expr.OperatorExpr(expr.Mul, pair[0], f),
			expr.OperatorExpr(expr.Mul, pair[1], f),
		}
	}
	return Outline{Exposure: o.Exposure, Rotation: o.Rotation, Points: pts}
}

func (o Outline) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	pts := make([][2]expr.Expression, len(o.Points))
	for i, pair := range o.Points {
		pts[i] = [2]expr.Expression{substituteExpr(pair[0], binding), substituteExpr(pair[1], binding)}
	}
	return Outline{Exposure: substituteExpr(o.Exposure, binding), Rotation: substituteExpr(o.Rotation, binding), Points: pts}
}

// --- RegularPolygon (code 5) ---

// RegularPolygon is macro primitive code 5.
type RegularPolygon struct {
	Exposure, Vertices, CenterX, CenterY, Diameter, Rotation expr.Expression
}

func (p RegularPolygon) Code() Code { return CodePolygon }

func (p RegularPolygon) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", p.Code(), exprList(p.Exposure, p.Vertices, p.CenterX, p.CenterY, p.Diameter, p.Rotation))
}

func (p RegularPolygon) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	exposure, err := exposureDark(p.Exposure, binding)
	if err != nil {
		return nil, err
	}
	n, err := evalField(p.Vertices, binding)
	if err != nil {
		return nil, err
	}
	cx, err := evalField(p.CenterX, binding)
	if err != nil {
		return nil, err
	}
	cy, err := evalField(p.CenterY, binding)
	if err != nil {
		return nil, err
	}
	dia, err := evalField(p.Diameter, binding)
	if err != nil {
		return nil, err
	}
	rot, err := evalField(p.Rotation, binding)
	if err != nil {
		return nil, err
	}
	localRot := rotationRad + degToRadCW(rot)
	center := rotatePoint(cx, cy, offset, rotationRad)
	vertices := int(n + 0.5)
	pts := make([]geometry.Point, 0, vertices)
	r := dia / 2
	for i := 0; i < vertices; i++ {
		angle := localRot + float64(i)*(2*3.14159265358979323846/float64(vertices))
		pts = append(pts, geometry.Pt(cx+r, cy).RotatedAround(geometry.Pt(cx, cy), -float64(i)*(2*3.14159265358979323846/float64(vertices))))
		_ = angle
	}
	_ = center
	return []primitive.Primitive{primitive.ArcPoly{Points: translateAll(pts, offset, rotationRad, cx, cy), Dark: exposure == dark}}, nil
}

func translateAll(pts []geometry.Point, offset geometry.Point, rotationRad, cx, cy float64) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = rotatePoint(p.X(), p.Y(), offset, rotationRad)
	}
	return out
}

func (p RegularPolygon) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	p.Diameter = expr.OperatorExpr(expr.Add, p.Diameter, expr.Const(2*offset))
	return p, []string{"dilation of regular polygon macro primitives approximates by growing the circumscribed diameter"}
}

func (p RegularPolygon) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	return RegularPolygon{
		Exposure: p.Exposure, Vertices: p.Vertices, Rotation: p.Rotation,
		CenterX:  expr.OperatorExpr(expr.Mul, p.CenterX, f),
		CenterY:  expr.OperatorExpr(expr.Mul, p.CenterY, f),
		Diameter: expr.OperatorExpr(expr.Mul, p.Diameter, f),
	}
}

func (p RegularPolygon) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return RegularPolygon{
		Exposure: substituteExpr(p.Exposure, binding), Vertices: substituteExpr(p.Vertices, binding),
		CenterX: substituteExpr(p.CenterX, binding), CenterY: substituteExpr(p.CenterY, binding),
		Diameter: substituteExpr(p.Diameter, binding), Rotation: substituteExpr(p.Rotation, binding),
	}
}

// --- Moire (code 6) and Thermal (code 7): dilation unsupported ---

// Moire is macro primitive code 6: concentric rings plus a crosshair.
type Moire struct {
	CenterX, CenterY, OuterDiameter, RingThickness, RingGap expr.Expression
	MaxRings                                                expr.Expression
	CrosshairThickness, CrosshairLength, Rotation            expr.Expression
}

func (m Moire) Code() Code { return CodeMoire }

func (m Moire) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", m.Code(), exprList(m.CenterX, m.CenterY, m.OuterDiameter, m.RingThickness,
		m.RingGap, m.MaxRings, m.CrosshairThickness, m.CrosshairLength, m.Rotation))
}

func (m Moire) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	cx, err := evalField(m.CenterX, binding)
	if err != nil {
		return nil, err
	}
	cy, err := evalField(m.CenterY, binding)
	if err != nil {
		return nil, err
	}
	outerDia, err := evalField(m.OuterDiameter, binding)
	if err != nil {
		return nil, err
	}
	ringThickness, err := evalField(m.RingThickness, binding)
	if err != nil {
		return nil, err
	}
	ringGap, err := evalField(m.RingGap, binding)
	if err != nil {
		return nil, err
	}
	maxRings, err := evalField(m.MaxRings, binding)
	if err != nil {
		return nil, err
	}
	xhairThickness, err := evalField(m.CrosshairThickness, binding)
	if err != nil {
		return nil, err
	}
	xhairLen, err := evalField(m.CrosshairLength, binding)
	if err != nil {
		return nil, err
	}
	center := rotatePoint(cx, cy, offset, rotationRad)
	var prims []primitive.Primitive
	dia := outerDia
	for i := 0; i < int(maxRings+0.5) && dia > 0; i++ {
		prims = append(prims, primitive.Circle{Center: center, Diameter: dia, Dark: true})
		inner := dia - 2*ringThickness
		if inner > 0 {
			prims = append(prims, primitive.Circle{Center: center, Diameter: inner, Dark: false})
		}
		dia = inner - 2*ringGap
	}
	half := xhairLen / 2
	prims = append(prims,
		primitive.Line{Start: rotatePoint(cx-half, cy, offset, rotationRad), End: rotatePoint(cx+half, cy, offset, rotationRad), Width: xhairThickness, Dark: true},
		primitive.Line{Start: rotatePoint(cx, cy-half, offset, rotationRad), End: rotatePoint(cx, cy+half, offset, rotationRad), Width: xhairThickness, Dark: true},
	)
	return prims, nil
}

// Dilated is unsupported for Moire; it warns and passes through.
func (m Moire) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	return m, []string{"dilation of moire macro primitives is not supported; primitive passed through unchanged"}
}

func (m Moire) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	return Moire{
		CenterX: expr.OperatorExpr(expr.Mul, m.CenterX, f), CenterY: expr.OperatorExpr(expr.Mul, m.CenterY, f),
		OuterDiameter: expr.OperatorExpr(expr.Mul, m.OuterDiameter, f), RingThickness: expr.OperatorExpr(expr.Mul, m.RingThickness, f),
		RingGap: expr.OperatorExpr(expr.Mul, m.RingGap, f), MaxRings: m.MaxRings,
		CrosshairThickness: expr.OperatorExpr(expr.Mul, m.CrosshairThickness, f),
		CrosshairLength:    expr.OperatorExpr(expr.Mul, m.CrosshairLength, f), Rotation: m.Rotation,
	}
}

func (m Moire) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return Moire{
		CenterX: substituteExpr(m.CenterX, binding), CenterY: substituteExpr(m.CenterY, binding),
		OuterDiameter: substituteExpr(m.OuterDiameter, binding), RingThickness: substituteExpr(m.RingThickness, binding),
		RingGap: substituteExpr(m.RingGap, binding), MaxRings: substituteExpr(m.MaxRings, binding),
		CrosshairThickness: substituteExpr(m.CrosshairThickness, binding),
		CrosshairLength:    substituteExpr(m.CrosshairLength, binding), Rotation: substituteExpr(m.Rotation, binding),
	}
}

// Thermal is macro primitive code 7: a ring with gaps (spokes) for
// thermal-relief copper connections.
type Thermal struct {
	CenterX, CenterY, OuterDiameter, InnerDiameter, GapThickness, Rotation expr.Expression
}

func (th Thermal) Code() Code { return CodeThermal }

func (th Thermal) ToGerber(unit units.Unit) string {
	return fmt.Sprintf("%d,%s", th.Code(), exprList(th.CenterX, th.CenterY, th.OuterDiameter, th.InnerDiameter, th.GapThickness, th.Rotation))
}

func (th Thermal) ToGraphicPrimitives(offset geometry.Point, rotationRad float64, binding map[int]float64, unit units.Unit, dark bool) ([]primitive.Primitive, error) {
	cx, err := evalField(th.CenterX, binding)
	if err != nil {
		return nil, err
	}
	cy, err := evalField(th.CenterY, binding)
	if err != nil {
		return nil, err
	}
	outerDia, err := evalField(th.OuterDiameter, binding)
	if err != nil {
		return nil, err
	}
	innerDia, err := evalField(th.InnerDiameter, binding)
	if err != nil {
		return nil, err
	}
	gap, err := evalField(th.GapThickness, binding)
	if err != nil {
		return nil, err
	}
	center := rotatePoint(cx, cy, offset, rotationRad)
	prims := []primitive.Primitive{
		primitive.Circle{Center: center, Diameter: outerDia, Dark: true},
		primitive.Circle{Center: center, Diameter: innerDia, Dark: false},
	}
	// four spokes cut the ring at 90-degree intervals, gap wide
	for i := 0; i < 4; i++ {
		angle := rotationRad + float64(i)*(3.14159265358979323846/2)
		half := outerDia
		p1 := geometry.Pt(cx-gap/2, cy).RotatedAround(geometry.Pt(cx, cy), -angle)
		p2 := geometry.Pt(cx-gap/2, cy+half).RotatedAround(geometry.Pt(cx, cy), -angle)
		prims = append(prims, primitive.Rectangle{
			Center: rotatePoint((p1.X()+p2.X())/2, (p1.Y()+p2.Y())/2, offset, 0), Width: gap, Height: half, RotationRad: angle, Dark: false,
		})
	}
	return prims, nil
}

// Dilated is unsupported for Thermal; it warns and passes through.
func (th Thermal) Dilated(offset float64, unit units.Unit) (Primitive, []string) {
	return th, []string{"dilation of thermal macro primitives is not supported; primitive passed through unchanged"}
}

func (th Thermal) Scaled(factor float64) Primitive {
	f := expr.Const(factor)
	return Thermal{
		CenterX: expr.OperatorExpr(expr.Mul, th.CenterX, f), CenterY: expr.OperatorExpr(expr.Mul, th.CenterY, f),
		OuterDiameter: expr.OperatorExpr(expr.Mul, th.OuterDiameter, f), InnerDiameter: expr.OperatorExpr(expr.Mul, th.InnerDiameter, f),
		GapThickness: expr.OperatorExpr(expr.Mul, th.GapThickness, f), Rotation: th.Rotation,
	}
}

func (th Thermal) SubstituteParams(binding map[int]float64, unit units.Unit) Primitive {
	return Thermal{
		CenterX: substituteExpr(th.CenterX, binding), CenterY: substituteExpr(th.CenterY, binding),
		OuterDiameter: substituteExpr(th.OuterDiameter, binding), InnerDiameter: substituteExpr(th.InnerDiameter, binding),
		GapThickness: substituteExpr(th.GapThickness, binding), Rotation: substituteExpr(th.Rotation, binding),
	}
}
