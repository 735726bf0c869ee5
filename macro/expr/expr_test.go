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

package expr_test

import (
	"testing"

	"github.com/jsleeio/gerbonara/macro/expr"
	"github.com/jsleeio/gerbonara/units"
	"github.com/stretchr/testify/require"
)

func TestConstantFoldingAndSerialization(t *testing.T) {
	e := expr.OperatorExpr(expr.Mul, expr.Var(1), expr.OperatorExpr(expr.Add, expr.Const(2), expr.Const(3)))
	opt := e.Optimized(nil)
	require.Equal(t, "$1x5", opt.ToGerber())
}

func TestEvalFailsOnUnresolvedVariable(t *testing.T) {
	e := expr.Var(7)
	_, err := e.Eval(nil)
	require.Error(t, err)
}

func TestCommutativeCanonicalization(t *testing.T) {
	a := expr.OperatorExpr(expr.Add, expr.Var(2), expr.Var(1)).Optimized(nil)
	b := expr.OperatorExpr(expr.Add, expr.Var(1), expr.Var(2)).Optimized(nil)
	require.Equal(t, a.ToGerber(), b.ToGerber())
}

func TestParseRoundTrip(t *testing.T) {
	e, err := expr.Parse("$1x2+3/(4-$2)")
	require.NoError(t, err)
	require.NotNil(t, e)
}

func TestParenthesizationWrapsOperatorOperand(t *testing.T) {
	e := expr.OperatorExpr(expr.Mul, expr.OperatorExpr(expr.Add, expr.Const(1), expr.Const(2)), expr.Const(3))
	require.Equal(t, "(1+2)x3", e.ToGerber())
}

// TestParenthesizationIsUnconditional covers that an operator operand is
// always wrapped in parens, even when precedence alone would not require
// it, since canonical serialization backs macro identity comparisons.
func TestParenthesizationIsUnconditional(t *testing.T) {
	e := expr.OperatorExpr(expr.Add, expr.OperatorExpr(expr.Add, expr.Var(1), expr.Var(2)), expr.Var(3))
	require.Equal(t, "($1+$2)+$3", e.ToGerber())
}

func TestUnitExpressionScalarCrossFails(t *testing.T) {
	scalar := expr.UE(expr.Const(1), units.None)
	mm := expr.UE(expr.Const(1), units.MM)
	_, err := scalar.Add(mm)
	require.ErrorIs(t, err, expr.ErrUnitMismatch)
	_, err = mm.Sub(scalar)
	require.ErrorIs(t, err, expr.ErrUnitMismatch)
}

func TestUnitExpressionMismatchConverts(t *testing.T) {
	mm := units.MM
	in := units.Inch
	a := expr.UE(expr.Const(1), mm)
	b := expr.UE(expr.Const(1), in)
	sum, err := a.Add(b)
	require.NoError(t, err)
	v, err := sum.Expr.Optimized(nil).Eval(nil)
	require.NoError(t, err)
	require.InDelta(t, 26.4, v, 1e-9)
}
