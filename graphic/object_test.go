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

package graphic_test

import (
	"math"
	"testing"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/units"
	"github.com/stretchr/testify/require"
)

// TestLineFlattensToBoundedStroke covers a line from (0,0) to
// (10,0)mm drawn with a 0.5mm circular aperture.
func TestLineFlattensToBoundedStroke(t *testing.T) {
	ap := &aperture.Circle{Diameter: 0.5, U: units.MM}
	line := graphic.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0), Aperture: ap, Dark: true, U: units.MM}
	prims, err := line.ToPrimitives(units.MM)
	require.NoError(t, err)
	require.Len(t, prims, 1)
	b := prims[0].Bounds()
	require.InDelta(t, -0.25, b.MinY, 1e-9)
	require.InDelta(t, 0.25, b.MaxY, 1e-9)
	require.InDelta(t, -0.25, b.MinX, 1e-9)
	require.InDelta(t, 10.25, b.MaxX, 1e-9)
}

// TestArcSweepAndBounds covers a counter-clockwise arc
// from (1,0) to (0,1)mm around (0,0), sweep angle pi/2, bounding box
// ((0,0),(1,1))mm.
func TestArcSweepAndBounds(t *testing.T) {
	ap := &aperture.Circle{Diameter: 0, U: units.MM}
	arc := graphic.Arc{
		Start: geometry.Pt(1, 0), End: geometry.Pt(0, 1), Center: geometry.Pt(0, 0),
		Clockwise: false, Aperture: ap, Dark: true, U: units.MM,
	}
	require.InDelta(t, 0, arc.NumericError(), 1e-9)
	require.InDelta(t, math.Pi/2, arc.SweepAngle(), 1e-9)
	b, err := arc.BoundingBox(units.MM)
	require.NoError(t, err)
	require.InDelta(t, 0, b.MinX, 1e-9)
	require.InDelta(t, 0, b.MinY, 1e-9)
	require.InDelta(t, 1, b.MaxX, 1e-9)
	require.InDelta(t, 1, b.MaxY, 1e-9)
}

// TestRegionClosesAndFlattens covers a triangular region with
// no arc segments; only the object-model shape is checked here (the
// Gerber statement text is verified in the gerber package tests).
func TestRegionClosesAndFlattens(t *testing.T) {
	region := graphic.Region{
		Outline: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(5, 10), geometry.Pt(0, 0)},
		Dark:    true,
		U:       units.MM,
	}
	require.True(t, region.IsClosed())
	closedAgain := region.Close()
	require.Equal(t, region.Outline, closedAgain.Outline, "Close must be idempotent")

	prims, err := region.ToPrimitives(units.MM)
	require.NoError(t, err)
	b := prims[0].Bounds()
	require.InDelta(t, 0, b.MinX, 1e-9)
	require.InDelta(t, 0, b.MinY, 1e-9)
	require.InDelta(t, 10, b.MaxX, 1e-9)
	require.InDelta(t, 10, b.MaxY, 1e-9)
}

func TestRegionCloseAppendsMissingPoint(t *testing.T) {
	region := graphic.Region{
		Outline: []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(0, 1)},
		U:       units.MM,
	}
	require.False(t, region.IsClosed())
	closed := region.Close()
	require.True(t, closed.IsClosed())
	require.Len(t, closed.Outline, 4)
	require.Len(t, closed.ArcCenters, 3)
}

func TestFlashOffsetAndBoundingBox(t *testing.T) {
	ap := &aperture.Circle{Diameter: 1, U: units.MM}
	f := graphic.Flash{Point: geometry.Pt(0, 0), Aperture: ap, Dark: true, U: units.MM}
	moved := f.Offset(2, 3)
	b, err := moved.BoundingBox(units.MM)
	require.NoError(t, err)
	require.InDelta(t, 1.5, b.MinX, 1e-9)
	require.InDelta(t, 2.5, b.MinY, 1e-9)
	require.InDelta(t, 2.5, b.MaxX, 1e-9)
	require.InDelta(t, 3.5, b.MaxY, 1e-9)
}
