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

package ipc356

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsleeio/gerbonara/units"
)

func TestParseTestRecordThroughHole(t *testing.T) {
	src := "P  UNITS CUST 0\n" +
		"317NET1             U1     1   -D0040PA00X012700 Y006350           R000         \n" +
		"999\n"
	nl, err := Parse("t.ipc", src)
	require.NoError(t, err)
	require.Len(t, nl.TestRecords, 1)
	rec := nl.TestRecords[0]
	assert.Equal(t, ThroughHole, rec.PadType)
	assert.Equal(t, "NET1", rec.NetName)
	assert.True(t, rec.IsConnected)
	assert.Equal(t, "U1", rec.RefDes)
	assert.Equal(t, "1", rec.PinNum)
	require.NotNil(t, rec.HoleDia)
	assert.InDelta(t, 0.004, *rec.HoleDia, 1e-9)
	require.NotNil(t, rec.IsPlated)
	assert.True(t, *rec.IsPlated)
	require.NotNil(t, rec.X)
	assert.InDelta(t, 1.27, *rec.X, 1e-9)
	require.NotNil(t, rec.Y)
	assert.InDelta(t, 0.635, *rec.Y, 1e-9)
}

func TestParseAdjacency(t *testing.T) {
	src := "379NET1         NET2 NET3\n999\n"
	nl, err := Parse("a.ipc", src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"NET2", "NET3"}, nl.Adjacency["NET1"])
	assert.Contains(t, nl.Adjacency["NET2"], "NET1")
	assert.Contains(t, nl.Adjacency["NET3"], "NET1")
}

func TestParseConductor(t *testing.T) {
	src := "378NET1           L01 X001000Y001000 X000000Y000000 X001000Y000000\n999\n"
	nl, err := Parse("c.ipc", src)
	require.NoError(t, err)
	require.Len(t, nl.Conductors, 1)
	cond := nl.Conductors[0]
	assert.Equal(t, "NET1", cond.NetName)
	assert.Equal(t, 1, cond.Layer)
	require.Len(t, cond.Chain, 2)
	assert.InDelta(t, 0.0, cond.Chain[0].X(), 1e-9)
	assert.InDelta(t, 1.0, cond.Chain[1].X(), 1e-9)
}

func TestParseOutlineBoardEdge(t *testing.T) {
	src := "389BOARD_EDGE         X000000Y000000*X001000Y000000*X001000Y001000*\n999\n"
	nl, err := Parse("o.ipc", src)
	require.NoError(t, err)
	require.Len(t, nl.Outlines, 3)
	assert.Equal(t, BoardEdge, nl.Outlines[0].Type)
}

func TestContinuationLineStitching(t *testing.T) {
	src := "317NET1            U1    1  D0040PA00X  012700Y  006350                    \n" +
		"0                   R000   \n" +
		"999\n"
	nl, err := Parse("cont.ipc", src)
	require.NoError(t, err)
	require.Len(t, nl.TestRecords, 1)
}

func TestRoundTripParseFormat(t *testing.T) {
	nl := NewNetlist()
	nl.Settings.Unit = units.MM
	plated := true
	dia := 0.8
	x, y := 10.0, 20.0
	nl.TestRecords = append(nl.TestRecords, TestRecord{
		PadType: ThroughHole, NetName: "GND", IsConnected: true, RefDes: "U1", PinNum: "1",
		HoleDia: &dia, IsPlated: &plated, X: &x, Y: &y, Unit: units.MM,
	})
	out, err := nl.ToIPC356()
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "317"))

	nl2, err := Parse("rt.ipc", out)
	require.NoError(t, err)
	require.Len(t, nl2.TestRecords, 1)
	rec := nl2.TestRecords[0]
	assert.Equal(t, "GND", rec.NetName)
	assert.Equal(t, "U1", rec.RefDes)
	require.NotNil(t, rec.X)
	assert.InDelta(t, 10.0, *rec.X, 1e-6)
	require.NotNil(t, rec.Y)
	assert.InDelta(t, 20.0, *rec.Y, 1e-6)
}

func TestDataAfterEndOfFileMarkerWarns(t *testing.T) {
	src := "999\n317NET1            U1    1  D0040PA00X  012700Y  006350                    R000   \n"
	nl, err := Parse("eof.ipc", src)
	require.NoError(t, err)
	assert.NotEmpty(t, nl.Warnings.Warnings)
}
