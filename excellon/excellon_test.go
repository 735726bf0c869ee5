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

package excellon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/units"
)

func TestParseDrillFlashWithExternalSettings(t *testing.T) {
	settings := units.FileSettings{
		Unit:            units.MM,
		ZeroSuppression: units.LeadingSuppression,
		IntegerDigits:   3,
		FractionDigits:  3,
	}
	src := "M48\nMETRIC,LZ,000.000\nT1C0.8\n%\nT1\nX1000Y2000\nM30"
	f, err := Parse("drill.drl", src, settings)
	require.NoError(t, err)
	require.Len(t, f.Objects, 1)
	flash, ok := f.Objects[0].(graphic.Flash)
	require.True(t, ok)
	assert.InDelta(t, 1.0, flash.Point.X(), 1e-6)
	assert.InDelta(t, 2.0, flash.Point.Y(), 1e-6)
	assert.InDelta(t, 0.8, flash.Aperture.EquivalentWidth(), 1e-6)
}

func TestRoundTripParseSerializeParse(t *testing.T) {
	settings := units.FileSettings{
		Unit:            units.MM,
		ZeroSuppression: units.LeadingSuppression,
		IntegerDigits:   3,
		FractionDigits:  3,
	}
	src := "M48\nMETRIC,LZ,000.000\nT1C0.8\n%\nT1\nX1000Y2000\nX5000Y2000\nM30"
	f1, err := Parse("rt.drl", src, settings)
	require.NoError(t, err)

	out, err := f1.ToXNC()
	require.NoError(t, err)

	f2, err := Parse("rt2.drl", out, settings)
	require.NoError(t, err)

	b1, err := f1.Bounds()
	require.NoError(t, err)
	b2, err := f2.Bounds()
	require.NoError(t, err)
	assert.InDelta(t, b1.MinX, b2.MinX, 1e-6)
	assert.InDelta(t, b1.MaxX, b2.MaxX, 1e-6)
	require.Equal(t, len(f1.Objects), len(f2.Objects))
}

func TestZuchenM00DialectHint(t *testing.T) {
	src := "M48\nMETRIC,LZ,000.000\nT1C0.8\n%\nT1\nX1000Y2000\nM00"
	f, err := Parse("zuken.drl", src, units.FileSettings{Unit: units.MM, ZeroSuppression: units.LeadingSuppression, IntegerDigits: 3, FractionDigits: 3})
	require.NoError(t, err)
	found := false
	for _, d := range f.Dialects {
		if d == DialectZuken {
			found = true
		}
	}
	assert.True(t, found)
}
