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
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/macro"
	"github.com/jsleeio/gerbonara/units"
	"github.com/pkg/errors"
)

var (
	reFS         = regexp.MustCompile(`^FS([LTD]?)([AI]?)X(\d)(\d)Y(\d)(\d)$`)
	reMO         = regexp.MustCompile(`^MO(MM|IN)$`)
	reAD         = regexp.MustCompile(`^ADD(\d+)([A-Za-z_$][A-Za-z0-9_.$-]*),?(.*)$`)
	reAMHeader   = regexp.MustCompile(`^AM([A-Za-z_$][A-Za-z0-9_.$-]*)\*([\s\S]*)$`)
	reLP         = regexp.MustCompile(`^LP([CD])$`)
	reSROpen     = regexp.MustCompile(`^SRX(\d+)Y(\d+)I([-\d.]+)J([-\d.]+)$`)
	reOF         = regexp.MustCompile(`^OFA([-\d.]+)B([-\d.]+)$`)
	reMI         = regexp.MustCompile(`^MIA(\d)B(\d)$`)
	reIP         = regexp.MustCompile(`^IP(POS|NEG)$`)
	reOperation  = regexp.MustCompile(`^(?:X(-?\d+(?:\.\d+)?))?(?:Y(-?\d+(?:\.\d+)?))?(?:I(-?\d+(?:\.\d+)?))?(?:J(-?\d+(?:\.\d+)?))?D0?([123])$`)
	reApertureSel = regexp.MustCompile(`^D(\d+)$`)
	reGCode      = regexp.MustCompile(`^G0?(\d{1,2})$`)
)

type parser struct {
	file string
	st   parseState
}

type parseState struct {
	settings      units.FileSettings
	apertures     map[int]aperture.Aperture
	macros        map[string]macro.Macro
	attributes    map[string]string
	warnings      gerberr.Bag
	currentD      int
	curX, curY    float64
	interpolation int // 1=linear, 2=cw, 3=ccw
	multiQuadrant bool
	polarityDark  bool
	inRegion      bool
	regionPts     []geometry.Point
	regionArcs    []*graphic.ArcCenter
	deprecated    geometry.AffineTransform
	objects       []graphic.Object
	srActive      bool
	srNX, srNY    int
	srI, srJ      float64
	srStart       int
	done          bool
}

// Parse parses Gerber source text into a File. filename is
// used only to attribute warnings/errors to a source name.
func Parse(filename, src string) (*File, error) {
	p := &parser{file: filename, st: parseState{
		settings:     units.Default(),
		apertures:    map[int]aperture.Aperture{},
		macros:       map[string]macro.Macro{},
		attributes:   map[string]string{},
		interpolation: 1,
		multiQuadrant: true,
		polarityDark:  true,
		deprecated:    geometry.IdentityTransform(),
	}}
	for _, stmt := range tokenize(src) {
		if err := p.dispatch(stmt); err != nil {
			return nil, err
		}
		if p.st.done {
			break
		}
	}
	if !p.st.done {
		p.st.warnings.Warnf(filename, 0, gerberr.EndOfFileMissing, "file has no M02/M00 terminator")
	}
	return &File{
		Settings:   p.st.settings,
		Apertures:  p.st.apertures,
		Macros:     p.st.macros,
		Objects:    p.st.objects,
		Attributes: p.st.attributes,
		Warnings:   p.st.warnings,
	}, nil
}

func (p *parser) dispatch(stmt statement) error {
	body := strings.TrimSpace(stmt.raw)
	if body == "" {
		return nil
	}
	if stmt.extended {
		return p.dispatchExtended(body, stmt.line)
	}
	return p.dispatchFunction(body, stmt.line)
}

func (p *parser) dispatchExtended(body string, line int) error {
	switch {
	case strings.HasPrefix(body, "FS"):
		return p.parseFS(body, line)
	case strings.HasPrefix(body, "MO"):
		return p.parseMO(body, line)
	case strings.HasPrefix(body, "AD"):
		return p.parseAD(body, line)
	case strings.HasPrefix(body, "AM"):
		return p.parseAM(body, line)
	case strings.HasPrefix(body, "LP"):
		return p.parseLP(body, line)
	case strings.HasPrefix(body, "SR"):
		return p.parseSR(body, line)
	case strings.HasPrefix(body, "TF") || strings.HasPrefix(body, "TA") ||
		strings.HasPrefix(body, "TO") || strings.HasPrefix(body, "TD"):
		p.parseAttribute(body)
		return nil
	case strings.HasPrefix(body, "OF"):
		return p.parseOF(body, line)
	case strings.HasPrefix(body, "MI"):
		return p.parseMI(body, line)
	case strings.HasPrefix(body, "IP"):
		return p.parseIP(body, line)
	case strings.HasPrefix(body, "IR") || strings.HasPrefix(body, "SF") || strings.HasPrefix(body, "AS"):
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated transform command %q ignored", body)
		return nil
	case strings.HasPrefix(body, "IN") || strings.HasPrefix(body, "LN"):
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated naming command %q ignored", body)
		return nil
	case strings.HasPrefix(body, "IF"):
		p.st.warnings.Warnf(p.file, line, gerberr.UnknownStatement, "include-file command %q is not supported", body)
		return nil
	}
	p.st.warnings.Warnf(p.file, line, gerberr.UnknownStatement, "unrecognized extended command %q", body)
	return nil
}

func (p *parser) parseFS(body string, line int) error {
	m := reFS.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed format spec %q", body)
	}
	switch m[1] {
	case "T":
		p.st.settings.ZeroSuppression = units.TrailingSuppression
	case "D":
		p.st.settings.ZeroSuppression = units.NoSuppression
	default:
		p.st.settings.ZeroSuppression = units.LeadingSuppression
	}
	if m[2] == "I" {
		p.st.settings.Notation = units.Incremental
	} else {
		p.st.settings.Notation = units.Absolute
	}
	xInt, _ := strconv.Atoi(m[3])
	xFrac, _ := strconv.Atoi(m[4])
	p.st.settings.IntegerDigits = xInt
	p.st.settings.FractionDigits = xFrac
	return nil
}

func (p *parser) parseMO(body string, line int) error {
	m := reMO.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed unit mode %q", body)
	}
	if m[1] == "IN" {
		p.st.settings.Unit = units.Inch
	} else {
		p.st.settings.Unit = units.MM
	}
	return nil
}

func (p *parser) parseAD(body string, line int) error {
	m := reAD.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed aperture definition %q", body)
	}
	dcode, _ := strconv.Atoi(m[1])
	shape := m[2]
	params := splitParams(m[3])
	u := p.st.settings.Unit
	var ap aperture.Aperture
	var err error
	switch shape {
	case "C":
		ap, err = buildCircle(params, u)
	case "R":
		ap, err = buildRectangle(params, u)
	case "O":
		ap, err = buildObround(params, u)
	case "P":
		ap, err = buildPolygon(params, u)
	default:
		ap, err = p.buildMacroInstance(shape, params, u, line)
	}
	if err != nil {
		return gerberr.Syntaxf(p.file, line, "aperture D%d: %v", dcode, err)
	}
	p.st.apertures[dcode] = ap
	return nil
}

func splitParams(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "X")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func buildCircle(params []float64, u units.Unit) (aperture.Aperture, error) {
	if len(params) < 1 {
		return nil, errParam("circle aperture needs a diameter")
	}
	c := &aperture.Circle{Diameter: params[0], U: u}
	if len(params) >= 2 {
		c.Hole = &params[1]
	}
	return c, nil
}

func buildRectangle(params []float64, u units.Unit) (aperture.Aperture, error) {
	if len(params) < 2 {
		return nil, errParam("rectangle aperture needs width and height")
	}
	r := &aperture.Rectangle{Width: params[0], Height: params[1], U: u}
	if len(params) >= 3 {
		r.Hole = &params[2]
	}
	return r, nil
}

func buildObround(params []float64, u units.Unit) (aperture.Aperture, error) {
	if len(params) < 2 {
		return nil, errParam("obround aperture needs width and height")
	}
	o := &aperture.Obround{Width: params[0], Height: params[1], U: u}
	if len(params) >= 3 {
		o.Hole = &params[2]
	}
	return o, nil
}

func buildPolygon(params []float64, u units.Unit) (aperture.Aperture, error) {
	if len(params) < 2 {
		return nil, errParam("polygon aperture needs diameter and vertex count")
	}
	pg := &aperture.Polygon{Diameter: params[0], Vertices: int(params[1] + 0.5), U: u}
	if len(params) >= 3 {
		pg.Rotation = -params[2] * 3.14159265358979323846 / 180
	}
	if len(params) >= 4 {
		pg.Hole = &params[3]
	}
	return pg, nil
}

func (p *parser) buildMacroInstance(name string, params []float64, u units.Unit, line int) (aperture.Aperture, error) {
	m, ok := p.st.macros[name]
	if !ok {
		m, ok = macro.Generics[name]
	}
	if !ok {
		return nil, errParam("unknown aperture macro or shape %q", name)
	}
	bound := map[int]float64{}
	for i, v := range params {
		bound[i+1] = v
	}
	return &aperture.MacroInstance{Macro: m, Params: bound, U: u}, nil
}

func (p *parser) parseAM(body string, line int) error {
	m := reAMHeader.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed aperture macro %q", body)
	}
	mac, err := macro.Parse(m[1], m[2])
	if err != nil {
		return gerberr.NewSyntax(p.file, line, err)
	}
	p.st.macros[m[1]] = mac
	return nil
}

func (p *parser) parseLP(body string, line int) error {
	m := reLP.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed load polarity %q", body)
	}
	p.st.polarityDark = m[1] == "D"
	return nil
}

func (p *parser) parseSR(body string, line int) error {
	if body == "SR" {
		return p.closeSR()
	}
	m := reSROpen.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed step-repeat %q", body)
	}
	nx, _ := strconv.Atoi(m[1])
	ny, _ := strconv.Atoi(m[2])
	i, _ := strconv.ParseFloat(m[3], 64)
	j, _ := strconv.ParseFloat(m[4], 64)
	if p.st.srActive {
		if err := p.closeSR(); err != nil {
			return err
		}
	}
	p.st.srActive = true
	p.st.srNX, p.st.srNY, p.st.srI, p.st.srJ = nx, ny, i, j
	p.st.srStart = len(p.st.objects)
	return nil
}

// closeSR replicates the objects captured since the matching SR open
// across the step-repeat grid, using the parser's own side-buffer of
// captured objects rather than re-walking the source.
func (p *parser) closeSR() error {
	if !p.st.srActive {
		return nil
	}
	base := p.st.objects[p.st.srStart:]
	pattern := make([]graphic.Object, len(base))
	copy(pattern, base)
	for ix := 0; ix < p.st.srNX; ix++ {
		for iy := 0; iy < p.st.srNY; iy++ {
			if ix == 0 && iy == 0 {
				continue
			}
			dx, dy := float64(ix)*p.st.srI, float64(iy)*p.st.srJ
			for _, o := range pattern {
				p.st.objects = append(p.st.objects, o.Offset(dx, dy))
			}
		}
	}
	p.st.srActive = false
	return nil
}

func (p *parser) parseAttribute(body string) {
	rest := body[2:]
	name := rest
	value := ""
	if idx := strings.Index(rest, ","); idx >= 0 {
		name, value = rest[:idx], rest[idx+1:]
	}
	p.st.attributes[body[:2]+name] = value
}

func (p *parser) parseOF(body string, line int) error {
	m := reOF.FindStringSubmatch(body)
	if m == nil {
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "unparseable OF command %q ignored", body)
		return nil
	}
	a, _ := strconv.ParseFloat(m[1], 64)
	b, _ := strconv.ParseFloat(m[2], 64)
	p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated OF offset command recorded but not applied to coordinates")
	p.st.deprecated = p.st.deprecated.Translate(a, b)
	return nil
}

func (p *parser) parseMI(body string, line int) error {
	m := reMI.FindStringSubmatch(body)
	if m == nil {
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "unparseable MI command %q ignored", body)
		return nil
	}
	mirrorX := m[1] == "1"
	mirrorY := m[2] == "1"
	p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated MI mirror command recorded but not applied to coordinates")
	p.st.deprecated = p.st.deprecated.Mirror(mirrorX, mirrorY)
	return nil
}

func (p *parser) parseIP(body string, line int) error {
	m := reIP.FindStringSubmatch(body)
	if m == nil {
		return gerberr.Syntaxf(p.file, line, "malformed image polarity %q", body)
	}
	p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated IP image polarity command applied")
	p.st.polarityDark = m[1] == "POS"
	return nil
}

func (p *parser) dispatchFunction(body string, line int) error {
	switch {
	case body == "M02" || body == "M00" || body == "M01":
		p.st.done = true
		return nil
	case strings.HasPrefix(body, "G04") || strings.HasPrefix(body, "G4 ") || body == "G4":
		return nil // comment
	}
	if m := reGCode.FindStringSubmatch(body); m != nil {
		return p.dispatchGCode(m[1], line)
	}
	if m := reApertureSel.FindStringSubmatch(body); m != nil {
		dcode, _ := strconv.Atoi(m[1])
		if dcode >= 10 {
			p.st.currentD = dcode
			return nil
		}
	}
	if m := reOperation.FindStringSubmatch(body); m != nil {
		return p.dispatchOperation(m, line)
	}
	p.st.warnings.Warnf(p.file, line, gerberr.UnknownStatement, "unrecognized statement %q", body)
	return nil
}

func (p *parser) dispatchGCode(code string, line int) error {
	switch code {
	case "1", "01":
		p.st.interpolation = 1
	case "2", "02":
		p.st.interpolation = 2
	case "3", "03":
		p.st.interpolation = 3
	case "36":
		p.st.inRegion = true
		p.st.regionPts = nil
		p.st.regionArcs = nil
	case "37":
		p.st.inRegion = false
		if len(p.st.regionPts) >= 2 {
			p.st.objects = append(p.st.objects, graphic.Region{
				Outline: p.st.regionPts, ArcCenters: p.st.regionArcs,
				Dark: p.st.polarityDark, U: p.st.settings.Unit,
			}.Close())
		}
	case "74":
		p.st.multiQuadrant = false
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "single-quadrant arc mode (G74) is deprecated")
	case "75":
		p.st.multiQuadrant = true
	case "70", "71", "90", "91":
		p.st.warnings.Warnf(p.file, line, gerberr.DeprecatedConstruct, "deprecated G%s ignored", code)
	}
	return nil
}

func (p *parser) dispatchOperation(m []string, line int) error {
	hasX, hasY := m[1] != "", m[2] != ""
	hasI, hasJ := m[3] != "", m[4] != ""
	x, y := p.st.curX, p.st.curY
	if hasX {
		v, err := p.st.settings.ParseCoordinate(m[1])
		if err != nil {
			return gerberr.NewSyntax(p.file, line, err)
		}
		x = v
	}
	if hasY {
		v, err := p.st.settings.ParseCoordinate(m[2])
		if err != nil {
			return gerberr.NewSyntax(p.file, line, err)
		}
		y = v
	}
	var i, j float64
	if hasI {
		v, err := p.st.settings.ParseCoordinate(m[3])
		if err != nil {
			return gerberr.NewSyntax(p.file, line, err)
		}
		i = v
	}
	if hasJ {
		v, err := p.st.settings.ParseCoordinate(m[4])
		if err != nil {
			return gerberr.NewSyntax(p.file, line, err)
		}
		j = v
	}
	dcode := m[5]
	startX, startY := p.st.curX, p.st.curY
	switch dcode {
	case "1":
		if p.st.inRegion {
			p.appendRegionSegment(startX, startY, x, y, i, j, hasI || hasJ)
		} else if p.st.interpolation == 1 {
			ap := p.st.apertures[p.st.currentD]
			if ap == nil {
				p.st.warnings.Warnf(p.file, line, gerberr.Ambiguity, "draw with no selected aperture")
			}
			p.st.objects = append(p.st.objects, graphic.Line{
				Start: geometry.Pt(startX, startY), End: geometry.Pt(x, y),
				Aperture: ap, Dark: p.st.polarityDark, U: p.st.settings.Unit,
			})
		} else {
			ap := p.st.apertures[p.st.currentD]
			clockwise := p.st.interpolation == 2
			start, end := geometry.Pt(startX, startY), geometry.Pt(x, y)
			var center geometry.Point
			if p.st.multiQuadrant {
				center = geometry.Pt(startX+i, startY+j)
			} else {
				center = resolveSingleQuadrantCenter(start, end, i, j, clockwise)
			}
			p.st.objects = append(p.st.objects, graphic.Arc{
				Start: start, End: end, Center: center,
				Clockwise: clockwise, Aperture: ap, Dark: p.st.polarityDark, U: p.st.settings.Unit,
			})
		}
	case "2":
		// move, no object
	case "3":
		ap := p.st.apertures[p.st.currentD]
		if ap == nil {
			p.st.warnings.Warnf(p.file, line, gerberr.Ambiguity, "flash with no selected aperture")
		}
		p.st.objects = append(p.st.objects, graphic.Flash{
			Point: geometry.Pt(x, y), Aperture: ap, Dark: p.st.polarityDark, U: p.st.settings.Unit,
		})
	}
	p.st.curX, p.st.curY = x, y
	return nil
}

func (p *parser) appendRegionSegment(x0, y0, x1, y1, i, j float64, hasIJ bool) {
	if len(p.st.regionPts) == 0 {
		p.st.regionPts = append(p.st.regionPts, geometry.Pt(x0, y0))
	}
	p.st.regionPts = append(p.st.regionPts, geometry.Pt(x1, y1))
	if hasIJ {
		clockwise := p.st.interpolation == 2
		var center geometry.Point
		if p.st.multiQuadrant {
			center = geometry.Pt(x0+i, y0+j)
		} else {
			center = resolveSingleQuadrantCenter(geometry.Pt(x0, y0), geometry.Pt(x1, y1), i, j, clockwise)
		}
		p.st.regionArcs = append(p.st.regionArcs, &graphic.ArcCenter{Clockwise: clockwise, Center: center})
	} else {
		p.st.regionArcs = append(p.st.regionArcs, nil)
	}
}

// resolveSingleQuadrantCenter picks the arc center for G74 (single-quadrant)
// mode, where I/J are unsigned magnitudes and the true center is one of the
// four sign combinations relative to start. Among the candidates whose sweep
// angle (in the given direction) is at most 90 degrees, it picks the one
// with the smallest radius mismatch between start and end
// (graphic.Arc.NumericError). If none has a valid sweep angle (malformed
// input), it falls back to the candidate with the smallest mismatch overall.
func resolveSingleQuadrantCenter(start, end geometry.Point, i, j float64, clockwise bool) geometry.Point {
	const maxValidSweep = math.Pi/2 + 1e-6
	type candidate struct {
		center     geometry.Point
		err        float64
		sweepValid bool
	}
	var best, bestValid candidate
	bestErr, bestValidErr := math.Inf(1), math.Inf(1)
	haveValid := false
	for _, sign := range [][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
		center := geometry.Pt(start.X()+i*sign[0], start.Y()+j*sign[1])
		arc := graphic.Arc{Start: start, End: end, Center: center, Clockwise: clockwise}
		sweep := arc.SweepAngle()
		errv := arc.NumericError()
		if errv < bestErr {
			bestErr = errv
			best = candidate{center: center, err: errv}
		}
		if sweep <= maxValidSweep && errv < bestValidErr {
			bestValidErr = errv
			bestValid = candidate{center: center, err: errv, sweepValid: true}
			haveValid = true
		}
	}
	if haveValid {
		return bestValid.center
	}
	return best.center
}

func errParam(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
