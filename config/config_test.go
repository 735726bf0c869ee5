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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsleeio/gerbonara/units"
)

func TestLoadSidecarOverlaysOnlySetFields(t *testing.T) {
	s, err := LoadSidecar([]byte("unit: in\nfraction_digits: 4\n"))
	require.NoError(t, err)

	fs, err := s.Apply(units.Default())
	require.NoError(t, err)
	assert.Equal(t, units.Inch, fs.Unit)
	assert.Equal(t, 4, fs.FractionDigits)
	assert.Equal(t, units.Default().IntegerDigits, fs.IntegerDigits)
	assert.Equal(t, units.Default().Notation, fs.Notation)
}

func TestLoadSidecarZeroSuppressionAndNotation(t *testing.T) {
	s, err := LoadSidecar([]byte("notation: incremental\nzero_suppression: tz\n"))
	require.NoError(t, err)

	fs, err := s.Apply(units.Default())
	require.NoError(t, err)
	assert.Equal(t, units.Incremental, fs.Notation)
	assert.Equal(t, units.TrailingSuppression, fs.ZeroSuppression)
}

func TestLoadSidecarRejectsUnknownNotation(t *testing.T) {
	s, err := LoadSidecar([]byte("notation: sideways\n"))
	require.NoError(t, err)
	_, err = s.Apply(units.Default())
	assert.Error(t, err)
}

func TestLoadAllegroToolTableParsesBareForm(t *testing.T) {
	table, err := LoadAllegroToolTable("UNITS INCH\nT01 0.0135\nT02 0.0200\n")
	require.NoError(t, err)
	require.Contains(t, table, 1)
	require.Contains(t, table, 2)
	assert.InDelta(t, 0.0135, table[1].Diameter, 1e-9)
	assert.Equal(t, units.Inch, table[1].U)
}

func TestLoadAllegroToolTableParsesToolPrefixedForm(t *testing.T) {
	table, err := LoadAllegroToolTable("UNITS MM\nTOOL T01 0.3500\n")
	require.NoError(t, err)
	require.Contains(t, table, 1)
	assert.InDelta(t, 0.35, table[1].Diameter, 1e-9)
	assert.Equal(t, units.MM, table[1].U)
}

func TestLoadAllegroToolTableIgnoresJunkLines(t *testing.T) {
	table, err := LoadAllegroToolTable("; some vendor header\nUNITS INCH\n\nT01 0.0135\n")
	require.NoError(t, err)
	assert.Len(t, table, 1)
}
