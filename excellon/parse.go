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
	"regexp"
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

// programState is the Excellon program state machine.
type programState int

const (
	stateNone programState = iota
	stateHeader
	stateDrilling
	stateRouting
	stateFinished
)

var (
	reHeaderUnits = regexp.MustCompile(`^(METRIC|INCH)(?:,([LT]Z))?(?:,(\d)\.(\d))?`)
	reToolDef     = regexp.MustCompile(`^T(\d+)C([-\d.]+)(?:F\d+)?(?:S\d+)?$`)
	reToolSelect  = regexp.MustCompile(`^T(\d+)$`)
	reGCode       = regexp.MustCompile(`^G0?(\d{1,2})$`)
	reCoord       = regexp.MustCompile(`^(?:X(-?\d+(?:\.\d+)?))?(?:Y(-?\d+(?:\.\d+)?))?(?:I(-?\d+(?:\.\d+)?))?(?:J(-?\d+(?:\.\d+)?))?$`)
)

type parser struct {
	file string
	st   parseState
}

type parseState struct {
	settings      units.FileSettings
	tools         map[int]*aperture.ExcellonTool
	warnings      gerberr.Bag
	dialects      []Dialect
	state         programState
	currentTool   int
	curX, curY    float64
	interpolation int // 1=linear, 2=cw, 3=ccw
	multiQuadrant bool
	drillDown     bool
	objects       []graphic.Object
	done          bool
}

// Parse parses Excellon/XNC source text into a File.
// settings carries the externally-supplied number format to use when the
// source text itself declares none (many Allegro exports omit it); a
// zero-value FileSettings falls back to the library default.
func Parse(filename, src string, settings units.FileSettings) (*File, error) {
	if settings.IntegerDigits == 0 && settings.FractionDigits == 0 {
		settings = units.Default()
	}
	p := &parser{file: filename, st: parseState{
		settings:      settings,
		tools:         map[int]*aperture.ExcellonTool{},
		interpolation: 1,
		multiQuadrant: true,
	}}
	detectDialects(&p.st, src)
	for _, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := p.dispatch(line); err != nil {
			return nil, err
		}
		if p.st.done {
			break
		}
	}
	if !p.st.done {
		p.st.warnings.Warnf(filename, 0, gerberr.EndOfFileMissing, "file has no M30/M00 terminator")
	}
	return &File{
		Settings: p.st.settings,
		Tools:    p.st.tools,
		Objects:  p.st.objects,
		Dialects: p.st.dialects,
		Warnings: p.st.warnings,
	}, nil
}

// detectDialects accumulates hints from structural clues.
// These never change how the rest of the file is parsed; they are
// informational only and are surfaced to callers through File.Dialects.
func detectDialects(st *parseState, src string) {
	switch {
	case strings.Contains(src, "ALLEGRO"):
		st.dialects = append(st.dialects, DialectAllegro)
	}
	switch {
	case strings.Contains(src, "EasyEDA"):
		st.dialects = append(st.dialects, DialectEasyEDA)
	}
	switch {
	case strings.Contains(src, "SIEMENS") || strings.Contains(src, "Siemens"):
		st.dialects = append(st.dialects, DialectSiemens)
	}
	switch {
	case strings.Contains(src, "Fritzing"):
		st.dialects = append(st.dialects, DialectFritzing)
	}
	lines := strings.Split(strings.TrimSpace(src), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "M00" {
		st.dialects = append(st.dialects, DialectZuken)
	}
}

func (p *parser) dispatch(line string) error {
	switch {
	case line == "M48":
		p.st.state = stateHeader
		return nil
	case line == "%":
		if p.st.state == stateHeader {
			p.st.state = stateDrilling
		}
		return nil
	case line == "M95":
		p.st.state = stateDrilling
		return nil
	case line == "M30" || line == "M00":
		p.st.state = stateFinished
		p.st.done = true
		return nil
	case line == "M15":
		p.st.drillDown = true
		return nil
	case line == "M16" || line == "M17":
		p.st.drillDown = false
		return nil
	case strings.HasPrefix(line, ";"):
		return nil // comment
	}
	if p.st.state == stateNone || p.st.state == stateHeader {
		if handled, err := p.dispatchHeaderLine(line); handled {
			return err
		}
	}
	if strings.HasPrefix(line, "G00") && strings.ContainsAny(line[3:], "XY") {
		// G00 with coordinates: enter routing mode and plunge at the point.
		p.st.state = stateRouting
		p.st.drillDown = false
		return p.dispatchCoordinate(line[3:])
	}
	if m := reGCode.FindStringSubmatch(line); m != nil {
		return p.dispatchGCode(m[1])
	}
	if m := reToolSelect.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		p.st.currentTool = n
		return nil
	}
	if strings.ContainsAny(line, "XYIJ") {
		return p.dispatchCoordinate(line)
	}
	p.st.warnings.Warnf(p.file, 0, gerberr.UnknownStatement, "unrecognized Excellon statement %q", line)
	return nil
}

func (p *parser) dispatchHeaderLine(line string) (bool, error) {
	if m := reHeaderUnits.FindStringSubmatch(line); m != nil {
		if m[1] == "METRIC" {
			p.st.settings.Unit = units.MM
		} else {
			p.st.settings.Unit = units.Inch
		}
		if m[2] == "LZ" {
			p.st.settings.ZeroSuppression = units.LeadingSuppression
		} else if m[2] == "TZ" {
			p.st.settings.ZeroSuppression = units.TrailingSuppression
		}
		if m[3] != "" && m[4] != "" {
			i, _ := strconv.Atoi(m[3])
			f, _ := strconv.Atoi(m[4])
			p.st.settings.IntegerDigits, p.st.settings.FractionDigits = i, f
		}
		return true, nil
	}
	if m := reToolDef.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		dia, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return true, gerberr.Syntaxf(p.file, 0, "malformed tool diameter in %q", line)
		}
		p.st.tools[n] = &aperture.ExcellonTool{Diameter: dia, Plated: aperture.PlatingUnknown, U: p.st.settings.Unit}
		return true, nil
	}
	return false, nil
}

func (p *parser) dispatchGCode(code string) error {
	switch code {
	case "1", "01":
		p.st.interpolation = 1
	case "2", "02":
		p.st.interpolation = 2
	case "3", "03":
		p.st.interpolation = 3
	case "5", "05":
		if p.st.drillDown {
			p.st.drillDown = false
		}
		p.st.state = stateDrilling
	case "0", "00":
		p.st.state = stateRouting
	}
	return nil
}

func (p *parser) dispatchCoordinate(line string) error {
	m := reCoord.FindStringSubmatch(line)
	if m == nil {
		p.st.warnings.Warnf(p.file, 0, gerberr.UnknownStatement, "unrecognized coordinate line %q", line)
		return nil
	}
	x, y := p.st.curX, p.st.curY
	if m[1] != "" {
		v, err := p.st.settings.ParseCoordinate(m[1])
		if err != nil {
			return gerberr.NewSyntax(p.file, 0, err)
		}
		x = v
	}
	if m[2] != "" {
		v, err := p.st.settings.ParseCoordinate(m[2])
		if err != nil {
			return gerberr.NewSyntax(p.file, 0, err)
		}
		y = v
	}
	var i, j float64
	hasIJ := m[3] != "" || m[4] != ""
	if m[3] != "" {
		v, err := p.st.settings.ParseCoordinate(m[3])
		if err != nil {
			return gerberr.NewSyntax(p.file, 0, err)
		}
		i = v
	}
	if m[4] != "" {
		v, err := p.st.settings.ParseCoordinate(m[4])
		if err != nil {
			return gerberr.NewSyntax(p.file, 0, err)
		}
		j = v
	}
	tool := p.st.tools[p.st.currentTool]
	startX, startY := p.st.curX, p.st.curY
	switch p.st.state {
	case stateRouting:
		if !p.st.drillDown {
			p.st.drillDown = true
			p.st.curX, p.st.curY = x, y
			return nil
		}
		if hasIJ {
			center := geometry.Pt(startX+i, startY+j)
			clockwise := p.st.interpolation == 2
			if startX == x && startY == y {
				if !p.st.multiQuadrant {
					p.st.warnings.Warnf(p.file, 0, gerberr.Ambiguity, "zero-length arc in single-quadrant mode treated as a full circle is not supported; skipped")
				}
				// zero-length arc: skipped
			} else {
				p.st.objects = append(p.st.objects, graphic.Arc{
					Start: geometry.Pt(startX, startY), End: geometry.Pt(x, y), Center: center,
					Clockwise: clockwise, Aperture: tool, Dark: true, U: p.st.settings.Unit,
				})
			}
		} else {
			p.st.objects = append(p.st.objects, graphic.Line{
				Start: geometry.Pt(startX, startY), End: geometry.Pt(x, y),
				Aperture: tool, Dark: true, U: p.st.settings.Unit,
			})
		}
	default:
		if tool == nil {
			p.st.warnings.Warnf(p.file, 0, gerberr.Ambiguity, "drill with no selected tool")
		}
		p.st.objects = append(p.st.objects, graphic.Flash{
			Point: geometry.Pt(x, y), Aperture: tool, Dark: true, U: p.st.settings.Unit,
		})
	}
	p.st.curX, p.st.curY = x, y
	return nil
}
