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

package gerber

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

func TestParseDraw(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n%ADD10C,0.25*%\nD10*\nX0Y0D02*\nX10000000Y0D01*\nM02*\n"
	f, err := Parse("draw.gbr", src)
	require.NoError(t, err)
	require.Len(t, f.Objects, 1)
	line, ok := f.Objects[0].(graphic.Line)
	require.True(t, ok)
	assert.Equal(t, 0.0, line.Start.X())
	assert.Equal(t, 0.0, line.Start.Y())
	assert.InDelta(t, 10.0, line.End.X(), 1e-9)
	assert.Equal(t, 0.0, line.End.Y())

	bounds, err := f.Bounds()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, bounds.MaxX, 1e-9)
}

func TestParseArc(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n%ADD10C,0.25*%\nD10*\nG75*\nX1000000Y0D02*\nG03*\nX0Y1000000I-1000000J0D01*\nM02*\n"
	f, err := Parse("arc.gbr", src)
	require.NoError(t, err)
	require.Len(t, f.Objects, 1)
	arc, ok := f.Objects[0].(graphic.Arc)
	require.True(t, ok)
	assert.InDelta(t, 0.0, arc.NumericError(), 1e-6)
	assert.InDelta(t, 1.5707963267948966, arc.SweepAngle(), 1e-6)
	assert.False(t, arc.Clockwise)
}

func TestParseRegion(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\nG36*\nG01*\nX0Y0D02*\nX10000000Y0D01*\nX5000000Y10000000D01*\nX0Y0D01*\nG37*\nM02*\n"
	f, err := Parse("region.gbr", src)
	require.NoError(t, err)
	require.Len(t, f.Objects, 1)
	region, ok := f.Objects[0].(graphic.Region)
	require.True(t, ok)
	assert.True(t, region.IsClosed())
	bounds, err := region.BoundingBox(units.MM)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, bounds.MinX, 1e-6)
	assert.InDelta(t, 10.0, bounds.MaxX, 1e-6)
	assert.InDelta(t, 10.0, bounds.MaxY, 1e-6)
}

func TestStepRepeatExpandsFlashesNotStoredAsObject(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n%ADD10C,0.25*%\nD10*\n%SRX2Y1I5J0*%\nX0Y0D03*\n%SR*%\nM02*\n"
	f, err := Parse("sr.gbr", src)
	require.NoError(t, err)
	require.Len(t, f.Objects, 2)
	for _, obj := range f.Objects {
		_, ok := obj.(graphic.Flash)
		assert.True(t, ok, "step-repeat must expand to plain flashes, not a distinct object kind")
	}
	flash0 := f.Objects[0].(graphic.Flash)
	flash1 := f.Objects[1].(graphic.Flash)
	assert.Equal(t, 0.0, flash0.Point.X())
	assert.InDelta(t, 5.0, flash1.Point.X(), 1e-9)
}

func TestDeprecatedOFWarns(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n%OFA1B2*%\nM02*\n"
	f, err := Parse("of.gbr", src)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Warnings.Warnings)
}

func TestMissingTerminatorWarns(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n"
	f, err := Parse("noterm.gbr", src)
	require.NoError(t, err)
	found := false
	for _, w := range f.Warnings.Warnings {
		if w.Kind == gerberr.EndOfFileMissing || strings.Contains(w.Message, "terminator") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRoundTripParseSerializeParse(t *testing.T) {
	src := "%FSLAX26Y26*%\n%MOMM*%\n%ADD10C,0.25*%\nD10*\nX0Y0D02*\nX10000000Y0D01*\nX10000000Y10000000D03*\nM02*\n"
	f1, err := Parse("rt.gbr", src)
	require.NoError(t, err)

	out, err := f1.ToGerber()
	require.NoError(t, err)

	f2, err := Parse("rt2.gbr", out)
	require.NoError(t, err)

	b1, err := f1.Bounds()
	require.NoError(t, err)
	b2, err := f2.Bounds()
	require.NoError(t, err)
	assert.InDelta(t, b1.MinX, b2.MinX, 1e-6)
	assert.InDelta(t, b1.MaxX, b2.MaxX, 1e-6)
	assert.InDelta(t, b1.MaxY, b2.MaxY, 1e-6)
	require.Equal(t, len(f1.Objects), len(f2.Objects))
}
