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

package cam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/gerber"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/units"
)

func TestToSVGEmitsViewport(t *testing.T) {
	f := gerber.NewFile()
	ap := &aperture.Circle{Diameter: 0.5, U: units.MM}
	f.Apertures[10] = ap
	f.Objects = append(f.Objects, graphic.Flash{Point: geometry.Pt(0, 0), Aperture: ap, Dark: true, U: units.MM})

	out, err := ToSVG(f, DefaultRenderOptions())
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<svg"))
	assert.True(t, strings.Contains(out, "<circle"))
}

func TestCoalesceMergesContiguousLines(t *testing.T) {
	ap := &aperture.Circle{Diameter: 0.2, U: units.MM}
	f := gerber.NewFile()
	f.Objects = append(f.Objects,
		graphic.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(1, 0), Aperture: ap, Dark: true, U: units.MM},
		graphic.Line{Start: geometry.Pt(1, 0), End: geometry.Pt(1, 1), Aperture: ap, Dark: true, U: units.MM},
	)
	out, err := ToSVG(f, DefaultRenderOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "<path"))
}

func TestNoCoalesceKeepsSeparatePaths(t *testing.T) {
	ap := &aperture.Circle{Diameter: 0.2, U: units.MM}
	f := gerber.NewFile()
	f.Objects = append(f.Objects,
		graphic.Line{Start: geometry.Pt(0, 0), End: geometry.Pt(1, 0), Aperture: ap, Dark: true, U: units.MM},
		graphic.Line{Start: geometry.Pt(1, 0), End: geometry.Pt(1, 1), Aperture: ap, Dark: true, U: units.MM},
	)
	opts := DefaultRenderOptions()
	opts.NoCoalesce = true
	out, err := ToSVG(f, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<path"))
}

func TestDecodeRenderOptionsOverlaysDefaults(t *testing.T) {
	opts, err := DecodeRenderOptions(map[string]interface{}{
		"margin":     "2.5",
		"foreground": "red",
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, opts.Margin, 1e-9)
	assert.Equal(t, "red", opts.Foreground)
	assert.Equal(t, DefaultRenderOptions().Background, opts.Background)
}

func TestForceBoundsOverridesFolding(t *testing.T) {
	ap := &aperture.Circle{Diameter: 0.2, U: units.MM}
	f := gerber.NewFile()
	f.Objects = append(f.Objects, graphic.Flash{Point: geometry.Pt(100, 100), Aperture: ap, Dark: true, U: units.MM})

	opts := DefaultRenderOptions()
	forced := geometry.Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	opts.ForceBounds = &forced
	opts.Margin = 0

	out, err := ToSVG(f, opts)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `width="10mm"`))
}
