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

package aperture_test

import (
	"math"
	"testing"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/units"
	"github.com/stretchr/testify/require"
)

func TestCircleFlashBoundingBox(t *testing.T) {
	c := &aperture.Circle{Diameter: 0.5, U: units.MM}
	b, err := c.BoundingBox(units.MM)
	require.NoError(t, err)
	require.InDelta(t, 0.5, b.MaxX-b.MinX, 1e-9)
	require.InDelta(t, 0.5, b.MaxY-b.MinY, 1e-9)
}

func TestRectangleRotated90Swaps(t *testing.T) {
	r := &aperture.Rectangle{Width: 2, Height: 1, U: units.MM}
	rotated, err := r.Rotated(math.Pi / 2)
	require.NoError(t, err)
	swapped, ok := rotated.(*aperture.Rectangle)
	require.True(t, ok)
	require.InDelta(t, 1, swapped.Width, 1e-9)
	require.InDelta(t, 2, swapped.Height, 1e-9)
}

// TestRectangleRotationFallsBackToMacro covers rotating a 2x1mm
// rectangular aperture by 45 degrees, which must fall back to a macro instance
// (rectangles only have a closed-form rotation at 0/90/180/270 degrees),
// and the resulting flash bounding box must match the standard rotated-
// rectangle envelope formula, centered at the origin.
func TestRectangleRotationFallsBackToMacro(t *testing.T) {
	r := &aperture.Rectangle{Width: 2, Height: 1, U: units.MM}
	rotated, err := r.Rotated(math.Pi / 4)
	require.NoError(t, err)
	mi, ok := rotated.(*aperture.MacroInstance)
	require.True(t, ok, "non-axis-aligned rotation must fall back to a macro instance")
	b, err := mi.BoundingBox(units.MM)
	require.NoError(t, err)
	cos, sin := math.Cos(math.Pi/4), math.Sin(math.Pi/4)
	wantW := 2*math.Abs(cos) + 1*math.Abs(sin)
	wantH := 2*math.Abs(sin) + 1*math.Abs(cos)
	require.InDelta(t, wantW, b.MaxX-b.MinX, 1e-6)
	require.InDelta(t, wantH, b.MaxY-b.MinY, 1e-6)
	require.InDelta(t, -wantW/2, b.MinX, 1e-6)
	require.InDelta(t, -wantH/2, b.MinY, 1e-6)
}

func TestCircleDilatedGrowsDiameter(t *testing.T) {
	c := &aperture.Circle{Diameter: 1, U: units.MM}
	dilated, warnings, err := c.Dilated(0.1)
	require.NoError(t, err)
	require.Empty(t, warnings)
	grown, ok := dilated.(*aperture.Circle)
	require.True(t, ok)
	require.InDelta(t, 1.2, grown.Diameter, 1e-9)
}

func TestToMacroRoundTripsBuiltins(t *testing.T) {
	c := &aperture.Circle{Diameter: 1.5, U: units.MM}
	mi, err := aperture.ToMacro(c)
	require.NoError(t, err)
	require.NotNil(t, mi)
	b1, err := c.BoundingBox(units.MM)
	require.NoError(t, err)
	b2, err := mi.BoundingBox(units.MM)
	require.NoError(t, err)
	require.InDelta(t, b1.MaxX-b1.MinX, b2.MaxX-b2.MinX, 1e-6)
}
