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

// Package expr implements the aperture-macro arithmetic expression
// algebra: a lazy tree of constants, variables and binary
// operators, with constant folding, Gerber re-serialization, and
// unit-aware arithmetic via UnitExpression.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/units"
	"github.com/pkg/errors"
)

// Op identifies an arithmetic operator. Gerber macro source spells
// multiplication as "x", not "*".
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
)

// String returns the Gerber-source spelling of the operator.
func (o Op) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "x"
	case Div:
		return "/"
	}
	panic(fmt.Sprintf("invalid Op value: %d", int(o)))
}

// commutative reports whether operand order doesn't affect the result,
// used by Optimized to canonicalize order for deterministic serialization.
func (o Op) commutative() bool { return o == Add || o == Mul }

// Expression is the polymorphic tree node: one of Constant,
// Variable or Operator. Implementations are value types; Expression trees
// are immutable, Optimized returns a new tree.
type Expression interface {
	// Equal reports structural equality.
	Equal(other Expression) bool
	// Optimized recursively folds children under binding, canonicalizing
	// commutative operand order, and collapsing constant subtrees.
	Optimized(binding map[int]float64) Expression
	// Eval evaluates to a scalar. It fails if unresolved variables remain.
	Eval(binding map[int]float64) (float64, error)
	// ToGerber re-serializes to Gerber macro syntax. Every operator
	// operand is parenthesized, regardless of precedence, so structurally
	// identical trees always serialize to the same canonical string.
	ToGerber() string
	// identityHash is a stable hash used to canonicalize commutative
	// operand order during Optimized; it need not be collision-free
	// across unrelated trees, only consistent for one tree shape.
	identityHash() uint64
}

// Constant is a literal numeric value.
type Constant struct {
	Value float64
}

// Const constructs a Constant expression; numeric literals auto-promote
// to Constant via this constructor.
func Const(v float64) Constant { return Constant{Value: v} }

func (c Constant) Equal(other Expression) bool {
	o, ok := other.(Constant)
	return ok && o.Value == c.Value
}

func (c Constant) Optimized(map[int]float64) Expression { return c }

func (c Constant) Eval(map[int]float64) (float64, error) { return c.Value, nil }

func (c Constant) ToGerber() string {
	s := strconv.FormatFloat(c.Value, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

func (c Constant) identityHash() uint64 {
	return uint64(int64(c.Value*1e6)) * 2654435761
}

// Variable is a reference to a macro parameter by 1-based index ($1, $2, …).
type Variable struct {
	Index int
}

// Var constructs a Variable expression.
func Var(index int) Variable { return Variable{Index: index} }

func (v Variable) Equal(other Expression) bool {
	o, ok := other.(Variable)
	return ok && o.Index == v.Index
}

func (v Variable) Optimized(binding map[int]float64) Expression {
	if val, ok := binding[v.Index]; ok {
		return Const(val)
	}
	return v
}

func (v Variable) Eval(binding map[int]float64) (float64, error) {
	val, ok := binding[v.Index]
	if !ok {
		return 0, errors.Errorf("unresolved variable $%d", v.Index)
	}
	return val, nil
}

func (v Variable) ToGerber() string { return fmt.Sprintf("$%d", v.Index) }

func (v Variable) identityHash() uint64 { return uint64(v.Index)*31 + 7 }

// OperatorExpression is a binary arithmetic node.
type OperatorExpression struct {
	Operator    Op
	Left, Right Expression
}

// OperatorExpr constructs an operator node, promoting float64 operands to
// Constant automatically.
func OperatorExpr(op Op, left, right interface{}) OperatorExpression {
	return OperatorExpression{Operator: op, Left: promote(left), Right: promote(right)}
}

func promote(v interface{}) Expression {
	switch x := v.(type) {
	case Expression:
		return x
	case float64:
		return Const(x)
	case int:
		return Const(float64(x))
	default:
		panic(fmt.Sprintf("cannot promote %T to Expression", v))
	}
}

func (op OperatorExpression) Equal(other Expression) bool {
	o, ok := other.(OperatorExpression)
	if !ok || o.Operator != op.Operator {
		return false
	}
	return op.Left.Equal(o.Left) && op.Right.Equal(o.Right)
}

// Optimized recursively folds children; for commutative operators it
// canonicalizes operand order by identity hash so structurally equal
// expressions serialize identically; when both operands reduce to
// constants, the operator is applied and a Constant is returned.
func (op OperatorExpression) Optimized(binding map[int]float64) Expression {
	l := op.Left.Optimized(binding)
	r := op.Right.Optimized(binding)
	if op.Operator.commutative() && l.identityHash() > r.identityHash() {
		l, r = r, l
	}
	lc, lok := l.(Constant)
	rc, rok := r.(Constant)
	if lok && rok {
		switch op.Operator {
		case Add:
			return Const(lc.Value + rc.Value)
		case Sub:
			return Const(lc.Value - rc.Value)
		case Mul:
			return Const(lc.Value * rc.Value)
		case Div:
			return Const(lc.Value / rc.Value)
		}
	}
	return OperatorExpression{Operator: op.Operator, Left: l, Right: r}
}

func (op OperatorExpression) Eval(binding map[int]float64) (float64, error) {
	l, err := op.Left.Eval(binding)
	if err != nil {
		return 0, err
	}
	r, err := op.Right.Eval(binding)
	if err != nil {
		return 0, err
	}
	switch op.Operator {
	case Add:
		return l + r, nil
	case Sub:
		return l - r, nil
	case Mul:
		return l * r, nil
	case Div:
		return l / r, nil
	}
	panic("invalid operator")
}

func (op OperatorExpression) ToGerber() string {
	wrap := func(e Expression) string {
		s := e.ToGerber()
		if _, ok := e.(OperatorExpression); ok {
			return "(" + s + ")"
		}
		return s
	}
	return wrap(op.Left) + op.Operator.String() + wrap(op.Right)
}

func (op OperatorExpression) identityHash() uint64 {
	return (op.Left.identityHash()*1000003 + op.Right.identityHash()) ^ uint64(op.Operator)
}

// UnitExpression wraps an Expression and tags it with a unit. Arithmetic
// between UnitExpressions enforces unit compatibility: + and - require
// both sides to be UnitExpression and convert the right side to the
// left's unit when they differ (neither being None); * and / accept a
// bare scalar right-hand side and yield a UnitExpression inheriting the
// left's unit.
type UnitExpression struct {
	Expr Expression
	Unit units.Unit
}

// UE constructs a UnitExpression.
func UE(e Expression, u units.Unit) UnitExpression { return UnitExpression{Expr: e, Unit: u} }

// Add returns ue + other, converting other to ue's unit if both are
// concrete units and they differ. Returns ErrUnitMismatch if exactly one
// side is unit-less.
func (ue UnitExpression) Add(other UnitExpression) (UnitExpression, error) {
	return ue.combine(Add, other)
}

// Sub returns ue - other, with the same unit rules as Add.
func (ue UnitExpression) Sub(other UnitExpression) (UnitExpression, error) {
	return ue.combine(Sub, other)
}

func (ue UnitExpression) combine(op Op, other UnitExpression) (UnitExpression, error) {
	if ue.Unit.IsNone() != other.Unit.IsNone() {
		return UnitExpression{}, ErrUnitMismatch
	}
	rhs := other.Expr
	if !ue.Unit.IsNone() && !other.Unit.IsNone() && ue.Unit != other.Unit {
		factor := units.Convert(1, other.Unit, ue.Unit)
		rhs = OperatorExpr(Mul, other.Expr, factor)
	}
	return UE(OperatorExpr(op, ue.Expr, rhs), resultUnit(ue.Unit, other.Unit)), nil
}

func resultUnit(a, b units.Unit) units.Unit {
	if !a.IsNone() {
		return a
	}
	return b
}

// MulScalar returns ue * factor, a scalar multiplication; the unit is
// inherited from ue.
func (ue UnitExpression) MulScalar(factor Expression) UnitExpression {
	return UE(OperatorExpr(Mul, ue.Expr, factor), ue.Unit)
}

// DivScalar returns ue / factor, a scalar division; the unit is inherited
// from ue.
func (ue UnitExpression) DivScalar(factor Expression) UnitExpression {
	return UE(OperatorExpr(Div, ue.Expr, factor), ue.Unit)
}

// Converted returns a UnitExpression holding the same quantity expressed
// in dst units.
func (ue UnitExpression) Converted(dst units.Unit) UnitExpression {
	if ue.Unit.IsNone() || dst.IsNone() || ue.Unit == dst {
		return UE(ue.Expr, dst)
	}
	factor := units.Convert(1, ue.Unit, dst)
	return UE(OperatorExpr(Mul, ue.Expr, factor).Optimized(nil), dst)
}

// ErrUnitMismatch is returned when UnitExpression addition or subtraction
// combines a unit-less (None) side with a side that has a unit (the
// "Unit-mismatch error"); two different concrete units are converted.
var ErrUnitMismatch = errors.New("unit-mismatch: incompatible UnitExpression units")
