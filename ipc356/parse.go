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
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

type parser struct {
	file string
	nl   *Netlist
	eof  bool
	wr   gerberr.Bag
}

// Parse parses IPC-D-356 source text into a Netlist.
// Continuation lines (beginning with '0') are joined onto the previous
// logical line before dispatch, matching the format's multi-line record
// convention.
func Parse(filename, src string) (*Netlist, error) {
	p := &parser{file: filename, nl: NewNetlist()}
	var pending string
	flush := func() {
		if pending != "" {
			p.dispatchLine(pending)
			pending = ""
		}
	}
	for _, raw := range strings.Split(src, "\n") {
		line := strings.TrimRight(raw, "\r")
		if line == "" {
			continue
		}
		if pending != "" && len(line) > 0 && line[0] == '0' {
			pending = strings.TrimRight(pending, " ") + strings.TrimRight(line[3:], " ")
			continue
		}
		flush()
		pending = line
	}
	flush()
	p.nl.Warnings = p.wr
	return p.nl, nil
}

func (p *parser) dispatchLine(line string) {
	if p.eof {
		p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "data following IPC-356 end-of-file marker")
	}
	switch {
	case line[0] == 'C':
		p.nl.Comments = append(p.nl.Comments, strings.TrimSpace(line[2:]))
	case line[0] == 'P':
		p.parseParam(line)
	case line[0] == '9':
		p.eof = true
	case len(line) >= 3 && (line[0:3] == "317" || line[0:3] == "327" || line[0:3] == "367"):
		rec, err := parseTestRecord(line, p.nl.Settings)
		if err != nil {
			p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "%v", err)
			return
		}
		p.nl.TestRecords = append(p.nl.TestRecords, rec)
	case len(line) >= 3 && line[0:3] == "378":
		cond, err := parseConductor(line, p.nl.Settings)
		if err != nil {
			p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "%v", err)
			return
		}
		p.nl.Conductors = append(p.nl.Conductors, cond)
	case len(line) >= 3 && line[0:3] == "379":
		parseAdjacency(line, p.nl.Adjacency)
	case len(line) >= 3 && line[0:3] == "389":
		outlines, err := parseOutline(line, p.nl.Settings)
		if err != nil {
			p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "%v", err)
			return
		}
		p.nl.Outlines = append(p.nl.Outlines, outlines...)
	default:
		code := line
		if len(line) >= 3 {
			code = line[0:3]
		}
		p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "unknown IPC-356 record type %q", code)
	}
}

func (p *parser) parseParam(line string) {
	rest := strings.TrimSpace(line[2:])
	name, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	switch {
	case name == "UNITS":
		switch value {
		case "CUST", "CUST 0", "CUST 2":
			p.nl.Settings.Unit = units.Inch
		case "CUST 1":
			p.nl.Settings.Unit = units.MM
		default:
			p.wr.Warnf(p.file, 0, gerberr.UnknownStatement, "unsupported IPC-356 unit specification %q", line)
		}
	default:
		p.nl.Params[name] = value
	}
}

func parseAdjacency(line string, adjacency map[string][]string) {
	fields := strings.Fields(strings.TrimSpace(line[3:]))
	if len(fields) == 0 {
		return
	}
	net := fields[0]
	for _, other := range fields[1:] {
		adjacency[net] = appendUnique(adjacency[net], other)
		adjacency[other] = appendUnique(adjacency[other], net)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// parseIPCLength parses a fixed-width decimal digit run (optionally
// signed, no explicit decimal point) as ten-thousandths of an inch or thousandths
// of a millimeter, according to unit.
func parseIPCLength(digits string, unit units.Unit) (float64, error) {
	digits = strings.TrimSpace(digits)
	if digits == "" {
		return 0, nil
	}
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, err
	}
	if unit == units.MM {
		v /= 1000.0
	} else {
		v /= 10000.0
	}
	if neg {
		v = -v
	}
	return v, nil
}

func padTo(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func field(line string, i int) byte {
	if i < len(line) {
		return line[i]
	}
	return ' '
}

func slice(line string, a, b int) string {
	if a >= len(line) {
		return ""
	}
	if b > len(line) {
		b = len(line)
	}
	return line[a:b]
}

func parseTestRecord(raw string, settings units.FileSettings) (TestRecord, error) {
	line := padTo(raw, 80)
	var rec TestRecord
	rec.Unit = settings.Unit
	padDigit, err := strconv.Atoi(string(line[1]))
	if err != nil {
		return rec, gerberr.Syntaxf("", 0, "malformed IPC-356 pad type in %q", raw)
	}
	rec.PadType = PadType(padDigit)

	netName := strings.TrimSpace(slice(line, 3, 17))
	if netName == "N/C" || netName == "" {
		rec.IsConnected = false
	} else {
		rec.NetName = netName
		rec.IsConnected = true
	}

	refDes := strings.TrimSpace(slice(line, 20, 26))
	if refDes == "VIA" {
		rec.IsVia = true
	} else {
		rec.RefDes = refDes
	}
	rec.PinNum = strings.TrimSpace(slice(line, 27, 31))
	rec.IsMiddle = field(line, 31) == 'M'

	if field(line, 32) == 'D' {
		v, err := parseIPCLength(slice(line, 33, 37), rec.Unit)
		if err != nil {
			return rec, err
		}
		rec.HoleDia = &v
	}
	if field(line, 37) == 'P' || field(line, 37) == 'U' {
		plated := field(line, 37) == 'P'
		rec.IsPlated = &plated
	}
	if field(line, 38) == 'A' {
		v, err := strconv.Atoi(strings.TrimSpace(slice(line, 39, 41)))
		if err == nil {
			rec.AccessLayer = &v
		}
	}
	if field(line, 41) == 'X' {
		v, err := parseIPCLength(slice(line, 42, 49), rec.Unit)
		if err != nil {
			return rec, err
		}
		rec.X = &v
	}
	if field(line, 49) == 'Y' {
		v, err := parseIPCLength(slice(line, 50, 57), rec.Unit)
		if err != nil {
			return rec, err
		}
		rec.Y = &v
	}
	if field(line, 57) == 'X' {
		v, err := parseIPCLength(slice(line, 58, 62), rec.Unit)
		if err != nil {
			return rec, err
		}
		rec.W = &v
	}
	if field(line, 62) == 'Y' {
		v, err := parseIPCLength(slice(line, 63, 67), rec.Unit)
		if err != nil {
			return rec, err
		}
		rec.H = &v
	}
	if field(line, 67) == 'R' {
		v, err := strconv.Atoi(strings.TrimSpace(slice(line, 68, 71)))
		if err == nil {
			rec.RotationDeg = float64(v)
		}
	}
	if field(line, 72) == 'S' {
		v, err := strconv.Atoi(string(field(line, 73)))
		if err == nil {
			sm := SoldermaskInfo(v)
			rec.SolderMask = &sm
		}
	}
	rec.Leftover = strings.TrimSpace(slice(line, 74, 80))
	return rec, nil
}

func parseConductor(raw string, settings units.FileSettings) (Conductor, error) {
	netName := strings.TrimSpace(slice(raw, 3, 17))
	if field(raw, 18) != 'L' {
		return Conductor{}, gerberr.Syntaxf("", 0, "invalid IPC-356 layer specification in %q", raw)
	}
	layer, err := strconv.Atoi(strings.TrimSpace(slice(raw, 19, 21)))
	if err != nil {
		return Conductor{}, err
	}
	rest := slice(raw, 22, len(raw))
	apertureField, coordsField, _ := strings.Cut(strings.TrimSpace(rest), " ")
	x, y, err := parseXYToken(apertureField, settings.Unit)
	if err != nil {
		return Conductor{}, err
	}
	chain, err := parseCoordChain(coordsField, settings.Unit, 0, 0)
	if err != nil {
		return Conductor{}, err
	}
	return Conductor{NetName: netName, Layer: layer, Aperture: geometry.Pt(x, y), Chain: chain, Unit: settings.Unit}, nil
}

func parseOutline(raw string, settings units.FileSettings) ([]Outline, error) {
	typeName := strings.TrimSpace(slice(raw, 3, 17))
	var outlineType OutlineType
	switch typeName {
	case "BOARD_EDGE":
		outlineType = BoardEdge
	case "PANEL_EDGE":
		outlineType = PanelEdge
	case "SCORE_LINE":
		outlineType = ScoreLine
	default:
		outlineType = OtherFab
	}
	chains, err := parseCoordChains(slice(raw, 22, len(raw)), settings.Unit)
	if err != nil {
		return nil, err
	}
	out := make([]Outline, 0, len(chains))
	for _, chain := range chains {
		out = append(out, Outline{Type: outlineType, Chain: chain, Unit: settings.Unit})
	}
	return out, nil
}

// parseCoordChains splits a coordinate-chain field on "*" (each "*"-
// delimited segment is an independent chain, per the original format).
func parseCoordChains(field string, unit units.Unit) ([][]geometry.Point, error) {
	var out [][]geometry.Point
	for _, segment := range strings.Split(field, "*") {
		chain, err := parseCoordChain(segment, unit, 0, 0)
		if err != nil {
			return nil, err
		}
		if len(chain) > 0 {
			out = append(out, chain)
		}
	}
	return out, nil
}

func parseCoordChain(field string, unit units.Unit, startX, startY float64) ([]geometry.Point, error) {
	var chain []geometry.Point
	x, y := startX, startY
	haveX, haveY := false, false
	for _, tok := range strings.Fields(field) {
		tx, ty, err := parseXYToken(tok, unit)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(tok, "X") || strings.Contains(tok, "X") {
			x, haveX = tx, true
		}
		if strings.Contains(tok, "Y") {
			y, haveY = ty, true
		}
		if !haveX || !haveY {
			return nil, gerberr.Syntaxf("", 0, "coordinate chain missing leading X/Y in %q", field)
		}
		chain = append(chain, geometry.Pt(x, y))
	}
	return chain, nil
}

func parseXYToken(tok string, unit units.Unit) (x, y float64, err error) {
	xi := strings.IndexByte(tok, 'X')
	yi := strings.IndexByte(tok, 'Y')
	if xi >= 0 {
		end := len(tok)
		if yi > xi {
			end = yi
		}
		x, err = parseIPCLength(tok[xi+1:end], unit)
		if err != nil {
			return 0, 0, err
		}
	}
	if yi >= 0 {
		y, err = parseIPCLength(tok[yi+1:], unit)
		if err != nil {
			return 0, 0, err
		}
	}
	return x, y, nil
}
