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

import "github.com/jsleeio/gerbonara/macro/expr"

// The generic macro library emulates the rotatable and
// hole-bearing variants of the built-in aperture shapes. These are
// instantiated by the aperture package when a built-in aperture is used
// in a way that cannot be represented as a built-in (non-axis-aligned
// rotation, rectangular hole). Each takes parameters $1.. in the same
// order the corresponding aperture's built-in modifiers would appear,
// plus a trailing rotation parameter in degrees CCW.
//
// GNC: generic circle, optional round hole. $1=diameter $2=hole-diameter (0 = none) $3=rotation
var GNC = Macro{
	Name:      "GNC",
	Variables: map[int]expr.Expression{},
	Primitives: []Primitive{
		Circle{Exposure: expr.Const(1), Diameter: expr.Var(1), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(3)},
		Circle{Exposure: expr.Const(0), Diameter: expr.Var(2), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(3)},
	},
}

// GNR: generic rectangle, optional round hole. $1=width $2=height $3=hole-diameter $4=rotation
var GNR = Macro{
	Name:      "GNR",
	Variables: map[int]expr.Expression{},
	Primitives: []Primitive{
		CenteredRect{Exposure: expr.Const(1), Width: expr.Var(1), Height: expr.Var(2), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(4)},
		Circle{Exposure: expr.Const(0), Diameter: expr.Var(3), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(4)},
	},
}

// GRR: generic rectangle with a rectangular hole. $1=width $2=height $3=hole-width $4=hole-height $5=rotation
var GRR = Macro{
	Name:      "GRR",
	Variables: map[int]expr.Expression{},
	Primitives: []Primitive{
		CenteredRect{Exposure: expr.Const(1), Width: expr.Var(1), Height: expr.Var(2), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(5)},
		CenteredRect{Exposure: expr.Const(0), Width: expr.Var(3), Height: expr.Var(4), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(5)},
	},
}

// GNO: generic obround (drawn as two half-circles and a centered rect),
// optional round hole. $1=width $2=height $3=hole-diameter $4=rotation
var GNO = Macro{
	Name:      "GNO",
	Variables: map[int]expr.Expression{},
	Primitives: []Primitive{
		CenteredRect{Exposure: expr.Const(1), Width: expr.Var(1), Height: expr.Var(2), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(4)},
		Circle{Exposure: expr.Const(0), Diameter: expr.Var(3), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(4)},
	},
}

// GNP: generic regular polygon, optional round hole. $1=diameter $2=vertices $3=hole-diameter $4=rotation
var GNP = Macro{
	Name:      "GNP",
	Variables: map[int]expr.Expression{},
	Primitives: []Primitive{
		RegularPolygon{Exposure: expr.Const(1), Vertices: expr.Var(2), CenterX: expr.Const(0), CenterY: expr.Const(0), Diameter: expr.Var(1), Rotation: expr.Var(4)},
		Circle{Exposure: expr.Const(0), Diameter: expr.Var(3), CenterX: expr.Const(0), CenterY: expr.Const(0), Rotation: expr.Var(4)},
	},
}

// Generics indexes the generic macro library by name.
var Generics = map[string]Macro{
	"GNC": GNC,
	"GNR": GNR,
	"GRR": GRR,
	"GNO": GNO,
	"GNP": GNP,
}
