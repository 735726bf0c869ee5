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
	"fmt"
	"sort"
	"strings"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/macro"
	"github.com/jsleeio/gerbonara/units"
)

// ToGerber serializes f back to Gerber source text: a format
// spec and unit mode header, aperture macro and definition blocks
// (deduplicated and D-code-assigned), the object stream, and a trailing
// M02.
func (f *File) ToGerber() (string, error) {
	var sb strings.Builder
	fs := f.Settings

	fmt.Fprintf(&sb, "%%FS%s%sX%d%dY%d%d*%%\n", zeroSuppressionLetter(fs.ZeroSuppression), notationLetter(fs.Notation),
		fs.IntegerDigits, fs.FractionDigits, fs.IntegerDigits, fs.FractionDigits)
	unitWord := "MM"
	if fs.Unit == units.Inch {
		unitWord = "IN"
	}
	fmt.Fprintf(&sb, "%%MO%s*%%\n", unitWord)

	dcodes, order, err := assignDCodes(f)
	if err != nil {
		return "", err
	}

	emittedMacros := map[string]bool{}
	for _, name := range sortedKeys(f.Macros) {
		fmt.Fprintf(&sb, "%%AM%s*%s*%%\n", name, f.Macros[name].ToGerber(fs.Unit))
		emittedMacros[name] = true
	}
	for _, d := range order {
		ap := dcodes[d]
		if mi, ok := ap.(*aperture.MacroInstance); ok && !emittedMacros[mi.Macro.Name] {
			fmt.Fprintf(&sb, "%%AM%s*%s*%%\n", mi.Macro.Name, mi.Macro.ToGerber(fs.Unit))
			emittedMacros[mi.Macro.Name] = true
		}
	}
	for _, d := range order {
		body, err := dcodes[d].ToGerber(fs)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%%ADD%d%s*%%\n", d, body)
	}

	reverse := map[aperture.Aperture]int{}
	byKey := map[string]int{}
	for d, ap := range dcodes {
		reverse[ap] = d
		key, _ := apertureKey(ap, fs) // already computed without error by assignDCodes
		byKey[key] = d
	}
	for _, obj := range f.Objects {
		// an aperture folded onto an equivalent D-code is found by its canonical key
		if ap := objectAperture(obj); ap != nil {
			if _, ok := reverse[ap]; !ok {
				key, _ := apertureKey(ap, fs)
				reverse[ap] = byKey[key]
			}
		}
	}

	state := serializeState{fs: fs, polarityDark: true, interpolation: 1, currentD: -1}
	for _, obj := range f.Objects {
		if err := state.emit(&sb, obj, reverse); err != nil {
			return "", err
		}
	}
	sb.WriteString("M02*\n")
	return sb.String(), nil
}

func zeroSuppressionLetter(z units.ZeroSuppression) string {
	switch z {
	case units.TrailingSuppression:
		return "T"
	case units.NoSuppression:
		return "D"
	}
	return "L"
}

func notationLetter(n units.Notation) string {
	if n == units.Incremental {
		return "I"
	}
	return "A"
}

func sortedKeys(m map[string]macro.Macro) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// assignDCodes builds the final D-code table: every aperture already in
// f.Apertures keeps its code; apertures referenced directly by an object
// but absent from f.Apertures (or duplicated) are folded onto a matching
// existing D-code by canonical key, or assigned a fresh one starting at 10.
func assignDCodes(f *File) (map[int]aperture.Aperture, []int, error) {
	table := map[int]aperture.Aperture{}
	byKey := map[string]int{}
	next := 10
	add := func(ap aperture.Aperture) (int, error) {
		key, err := apertureKey(ap, f.Settings)
		if err != nil {
			return 0, err
		}
		if d, ok := byKey[key]; ok {
			return d, nil
		}
		for table[next] != nil {
			next++
		}
		d := next
		table[d] = ap
		byKey[key] = d
		next++
		return d, nil
	}
	for _, d := range sortedIntKeys(f.Apertures) {
		ap := f.Apertures[d]
		key, err := apertureKey(ap, f.Settings)
		if err != nil {
			return nil, nil, err
		}
		if existing, ok := byKey[key]; ok {
			_ = existing // duplicate definition in the source table; reuse the first
			continue
		}
		table[d] = ap
		byKey[key] = d
		if d >= next {
			next = d + 1
		}
	}
	for _, obj := range f.Objects {
		ap := objectAperture(obj)
		if ap == nil {
			continue
		}
		if _, err := add(ap); err != nil {
			return nil, nil, err
		}
	}
	order := sortedIntKeys(table)
	return table, order, nil
}

func objectAperture(obj graphic.Object) aperture.Aperture {
	switch v := obj.(type) {
	case graphic.Flash:
		return v.Aperture
	case graphic.Line:
		return v.Aperture
	case graphic.Arc:
		return v.Aperture
	}
	return nil
}

func apertureKey(ap aperture.Aperture, fs units.FileSettings) (string, error) {
	if mi, ok := ap.(*aperture.MacroInstance); ok {
		keys := sortedIntFloatKeys(mi.Params)
		var sb strings.Builder
		sb.WriteString(mi.Macro.CanonicalKey(fs.Unit))
		for _, k := range keys {
			fmt.Fprintf(&sb, ";%d=%g", k, mi.Params[k])
		}
		return sb.String(), nil
	}
	body, err := ap.ToGerber(fs)
	if err != nil {
		return "", err
	}
	return body, nil
}

func sortedIntKeys(m map[int]aperture.Aperture) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedIntFloatKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type serializeState struct {
	fs            units.FileSettings
	polarityDark  bool
	interpolation int
	currentD      int
	curX, curY    float64
}

func (s *serializeState) selectAperture(sb *strings.Builder, ap aperture.Aperture, reverse map[aperture.Aperture]int) error {
	d, ok := reverse[ap]
	if !ok {
		return fmt.Errorf("object references an aperture not present in the file's aperture table")
	}
	if d != s.currentD {
		fmt.Fprintf(sb, "D%d*\n", d)
		s.currentD = d
	}
	return nil
}

func (s *serializeState) setPolarity(sb *strings.Builder, dark bool) {
	if dark != s.polarityDark {
		if dark {
			sb.WriteString("%LPD*%\n")
		} else {
			sb.WriteString("%LPC*%\n")
		}
		s.polarityDark = dark
	}
}

func (s *serializeState) coord(sb *strings.Builder, letter string, value float64) error {
	str, err := s.fs.FormatCoordinate(value)
	if err != nil {
		return err
	}
	sb.WriteString(letter)
	sb.WriteString(str)
	return nil
}

func (s *serializeState) emit(sb *strings.Builder, obj graphic.Object, reverse map[aperture.Aperture]int) error {
	switch v := obj.(type) {
	case graphic.Flash:
		s.setPolarity(sb, v.Dark)
		if err := s.selectAperture(sb, v.Aperture, reverse); err != nil {
			return err
		}
		if err := s.coord(sb, "X", v.Point.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "Y", v.Point.Y()); err != nil {
			return err
		}
		sb.WriteString("D03*\n")
		s.curX, s.curY = v.Point.X(), v.Point.Y()
	case graphic.Line:
		s.setPolarity(sb, v.Dark)
		if err := s.selectAperture(sb, v.Aperture, reverse); err != nil {
			return err
		}
		if s.interpolation != 1 {
			sb.WriteString("G01*\n")
			s.interpolation = 1
		}
		if err := s.moveTo(sb, v.Start); err != nil {
			return err
		}
		if err := s.coord(sb, "X", v.End.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "Y", v.End.Y()); err != nil {
			return err
		}
		sb.WriteString("D01*\n")
		s.curX, s.curY = v.End.X(), v.End.Y()
	case graphic.Arc:
		s.setPolarity(sb, v.Dark)
		if err := s.selectAperture(sb, v.Aperture, reverse); err != nil {
			return err
		}
		mode, code := 2, "G02*\n"
		if !v.Clockwise {
			mode, code = 3, "G03*\n"
		}
		if s.interpolation != mode {
			sb.WriteString(code)
			s.interpolation = mode
		}
		if err := s.moveTo(sb, v.Start); err != nil {
			return err
		}
		if err := s.coord(sb, "X", v.End.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "Y", v.End.Y()); err != nil {
			return err
		}
		if err := s.coord(sb, "I", v.Center.X()-v.Start.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "J", v.Center.Y()-v.Start.Y()); err != nil {
			return err
		}
		sb.WriteString("D01*\n")
		s.curX, s.curY = v.End.X(), v.End.Y()
	case graphic.Region:
		return s.emitRegion(sb, v)
	}
	return nil
}

func (s *serializeState) moveTo(sb *strings.Builder, p geometry.Point) error {
	if p.X() == s.curX && p.Y() == s.curY {
		return nil
	}
	if s.interpolation != 1 {
		sb.WriteString("G01*\n")
	}
	mode := s.interpolation
	s.interpolation = 1
	if err := s.coord(sb, "X", p.X()); err != nil {
		return err
	}
	if err := s.coord(sb, "Y", p.Y()); err != nil {
		return err
	}
	sb.WriteString("D02*\n")
	s.curX, s.curY = p.X(), p.Y()
	s.interpolation = mode
	if s.interpolation != 1 {
		if s.interpolation == 2 {
			sb.WriteString("G02*\n")
		} else {
			sb.WriteString("G03*\n")
		}
	}
	return nil
}

func (s *serializeState) emitRegion(sb *strings.Builder, r graphic.Region) error {
	s.setPolarity(sb, r.Dark)
	closed := r.Close()
	if len(closed.Outline) < 2 {
		return nil
	}
	sb.WriteString("G36*\n")
	sb.WriteString("G01*\n")
	s.interpolation = 1
	if err := s.coord(sb, "X", closed.Outline[0].X()); err != nil {
		return err
	}
	if err := s.coord(sb, "Y", closed.Outline[0].Y()); err != nil {
		return err
	}
	sb.WriteString("D02*\n")
	s.curX, s.curY = closed.Outline[0].X(), closed.Outline[0].Y()
	for i := 1; i < len(closed.Outline); i++ {
		p := closed.Outline[i]
		var ac *graphic.ArcCenter
		if i-1 < len(closed.ArcCenters) {
			ac = closed.ArcCenters[i-1]
		}
		if ac != nil {
			mode, code := 2, "G02*\n"
			if !ac.Clockwise {
				mode, code = 3, "G03*\n"
			}
			if s.interpolation != mode {
				sb.WriteString(code)
				s.interpolation = mode
			}
			if err := s.coord(sb, "X", p.X()); err != nil {
				return err
			}
			if err := s.coord(sb, "Y", p.Y()); err != nil {
				return err
			}
			if err := s.coord(sb, "I", ac.Center.X()-s.curX); err != nil {
				return err
			}
			if err := s.coord(sb, "J", ac.Center.Y()-s.curY); err != nil {
				return err
			}
			sb.WriteString("D01*\n")
		} else {
			if s.interpolation != 1 {
				sb.WriteString("G01*\n")
				s.interpolation = 1
			}
			if err := s.coord(sb, "X", p.X()); err != nil {
				return err
			}
			if err := s.coord(sb, "Y", p.Y()); err != nil {
				return err
			}
			sb.WriteString("D01*\n")
		}
		s.curX, s.curY = p.X(), p.Y()
	}
	sb.WriteString("G37*\n")
	return nil
}
