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
	"fmt"
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/units"
)

// ToIPC356 renders nl as IPC-D-356 source text: P/C header lines, then
// test, conductor, adjacency and outline records, then a trailing "999"
// end-of-file marker.
func (nl *Netlist) ToIPC356() (string, error) {
	var sb strings.Builder
	for _, c := range nl.Comments {
		fmt.Fprintf(&sb, "C  %s\n", c)
	}
	if nl.Settings.Unit == units.MM {
		sb.WriteString("P  UNITS CUST 1\n")
	} else {
		sb.WriteString("P  UNITS CUST 0\n")
	}
	for _, name := range sortedParamKeys(nl.Params) {
		fmt.Fprintf(&sb, "P  %s %s\n", name, nl.Params[name])
	}
	for _, rec := range nl.TestRecords {
		line, err := formatTestRecord(rec)
		if err != nil {
			return "", err
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, cond := range nl.Conductors {
		lines := formatConductor(cond)
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	for _, net := range sortedAdjacencyKeys(nl.Adjacency) {
		others := nl.Adjacency[net]
		fmt.Fprintf(&sb, "379%-14s%s\n", net, strings.Join(others, " "))
	}
	for _, outline := range nl.Outlines {
		lines := formatOutline(outline)
		sb.WriteString(strings.Join(lines, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString("999\n")
	return sb.String(), nil
}

func sortedParamKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

func sortedAdjacencyKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	return keys
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// formatIPCLength renders value as a fixed-width digit run (with a
// leading '-' when negative) in
// ten-thousandths of an inch or thousandths of a millimeter, the inverse
// of parseIPCLength.
func formatIPCLength(value float64, unit units.Unit, width int) string {
	scale := 10000.0
	if unit == units.MM {
		scale = 1000.0
	}
	scaled := int64(value*scale + signedHalf(value))
	s := strconv.FormatInt(abs64(scaled), 10)
	if scaled < 0 {
		return padLeftZero("-"+s, width)
	}
	return padLeftZero(s, width)
}

func signedHalf(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func padLeftZero(s string, width int) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

func formatTestRecord(rec TestRecord) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "3%d7", int(rec.PadType))
	b.WriteString(padRight(rec.netNameField(), 14))
	b.WriteString(strings.Repeat(" ", 3))
	if rec.IsVia {
		b.WriteString(padRight("VIA", 6))
	} else {
		b.WriteString(padRight(rec.RefDes, 6))
	}
	b.WriteString(" ")
	b.WriteString(padRight(rec.PinNum, 4))
	if rec.IsMiddle {
		b.WriteString("M")
	} else {
		b.WriteString("-")
	}
	if rec.HoleDia != nil {
		b.WriteString("D")
		b.WriteString(formatIPCLength(*rec.HoleDia, rec.Unit, 4))
	} else {
		b.WriteString(strings.Repeat(" ", 5))
	}
	if rec.IsPlated != nil {
		if *rec.IsPlated {
			b.WriteString("P")
		} else {
			b.WriteString("U")
		}
	} else {
		b.WriteString(" ")
	}
	if rec.AccessLayer != nil {
		fmt.Fprintf(&b, "A%02d", *rec.AccessLayer)
	} else {
		b.WriteString(strings.Repeat(" ", 3))
	}
	if rec.X != nil {
		b.WriteString("X")
		b.WriteString(formatIPCLength(*rec.X, rec.Unit, 7))
	} else {
		b.WriteString(strings.Repeat(" ", 8))
	}
	if rec.Y != nil {
		b.WriteString("Y")
		b.WriteString(formatIPCLength(*rec.Y, rec.Unit, 7))
	} else {
		b.WriteString(strings.Repeat(" ", 8))
	}
	if rec.W != nil {
		b.WriteString("X")
		b.WriteString(formatIPCLength(*rec.W, rec.Unit, 4))
	} else {
		b.WriteString(strings.Repeat(" ", 5))
	}
	if rec.H != nil {
		b.WriteString("Y")
		b.WriteString(formatIPCLength(*rec.H, rec.Unit, 4))
	} else {
		b.WriteString(strings.Repeat(" ", 5))
	}
	if rec.RotationDeg != 0 {
		fmt.Fprintf(&b, "R%03d", int(rec.RotationDeg))
	} else {
		b.WriteString(strings.Repeat(" ", 4))
	}
	b.WriteString(" ")
	if rec.SolderMask != nil {
		fmt.Fprintf(&b, "S%d", int(*rec.SolderMask))
	} else {
		b.WriteString("  ")
	}
	b.WriteString(padRight(rec.Leftover, 6))
	return b.String(), nil
}

func (rec TestRecord) netNameField() string {
	if !rec.IsConnected {
		return "N/C"
	}
	return rec.NetName
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func formatConductor(cond Conductor) []string {
	head := fmt.Sprintf("378%-14s L%02d %s", cond.NetName, cond.Layer, formatXYToken(cond.Aperture, cond.Unit))
	chain := formatCoordChain(cond.Chain, cond.Unit)
	return wrapContinuation(head + " " + chain)
}

func formatOutline(o Outline) []string {
	name := "BOARD_EDGE"
	switch o.Type {
	case PanelEdge:
		name = "PANEL_EDGE"
	case ScoreLine:
		name = "SCORE_LINE"
	case OtherFab:
		name = "OTHER_FAB"
	}
	head := fmt.Sprintf("389%-14s", name) + strings.Repeat(" ", 5)
	chain := formatCoordChain(o.Chain, o.Unit)
	return wrapContinuation(head + chain + "*")
}

func formatXYToken(p geometry.Point, unit units.Unit) string {
	return "X" + formatIPCLength(p.X(), unit, 6) + "Y" + formatIPCLength(p.Y(), unit, 6)
}

func formatCoordChain(chain []geometry.Point, unit units.Unit) string {
	parts := make([]string, 0, len(chain))
	for _, p := range chain {
		parts = append(parts, formatXYToken(p, unit))
	}
	return strings.Join(parts, " ")
}

// wrapContinuation splits a logical record line into 80-column physical
// lines, prefixing every line after the first with "0  " per the
// continuation convention parse.go undoes.
func wrapContinuation(line string) []string {
	const width = 80
	const contPrefix = "0  "
	var out []string
	for len(line) > width {
		out = append(out, line[:width])
		line = contPrefix + line[width:]
	}
	out = append(out, line)
	return out
}
