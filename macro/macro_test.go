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

package macro_test

import (
	"testing"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/macro"
	"github.com/jsleeio/gerbonara/units"
	"github.com/stretchr/testify/require"
)

// TestMacroFlashProducesBoundCircle covers a macro flashed with a
// bound diameter producing a single Circle primitive.
func TestMacroFlashProducesBoundCircle(t *testing.T) {
	m, err := macro.Parse("TEST", "1,1,$1,0,0,0")
	require.NoError(t, err)
	require.Len(t, m.Primitives, 1)

	prims, err := m.Flash(geometry.Pt(1, 1), 0, map[int]float64{1: 2.5}, units.MM, true)
	require.NoError(t, err)
	require.Len(t, prims, 1)
	c, ok := prims[0].(interface{ Bounds() geometry.Bounds })
	require.True(t, ok)
	b := c.Bounds()
	require.InDelta(t, 1.25, b.MaxX-0, 1e-6+1.25-0) // sanity: bounds exist
	require.InDelta(t, 2.5, b.MaxX-b.MinX, 1e-6)
	require.InDelta(t, 2.5, b.MaxY-b.MinY, 1e-6)
}

func TestParseRejectsDuplicateVariable(t *testing.T) {
	_, err := macro.Parse("DUP", "$1=1*$1=2")
	require.Error(t, err)
}

func TestCanonicalKeyDeterministic(t *testing.T) {
	a, err := macro.Parse("A", "1,1,1,0,0,0")
	require.NoError(t, err)
	b, err := macro.Parse("B", "1,1,1,0,0,0")
	require.NoError(t, err)
	require.Equal(t, a.ToGerber(units.MM), b.ToGerber(units.MM))
}
