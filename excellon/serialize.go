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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/units"
)

// ToXNC serializes f to the restrictive XNC subset: M48,
// METRIC|INCH, one tool definition per unique tool with an optional
// plating comment, %, the object stream with state-minimizing tool,
// mode and current-point tracking, and M30.
func (f *File) ToXNC() (string, error) {
	var sb strings.Builder
	fs := f.Settings

	sb.WriteString("M48\n")
	if fs.Unit == units.Inch {
		sb.WriteString("INCH\n")
	} else {
		sb.WriteString("METRIC\n")
	}

	numbers, toolNumber, err := assignToolNumbers(f)
	if err != nil {
		return "", err
	}
	mixedPlating := hasMixedPlating(numbers)
	for _, n := range sortedToolNumbers(numbers) {
		t := numbers[n]
		if mixedPlating {
			switch t.Plated {
			case aperture.PlatingPlated:
				sb.WriteString(";TYPE=PLATED\n")
			case aperture.PlatingNonPlated:
				sb.WriteString(";TYPE=NON_PLATED\n")
			}
		}
		body, err := t.ToXNC(fs)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "T%02d%s\n", n, body)
	}
	sb.WriteString("%\n")

	state := serializeState{fs: fs, interpolation: 1, currentTool: -1, mode: stateDrilling}
	for _, obj := range f.Objects {
		if err := state.emit(&sb, obj, toolNumber); err != nil {
			return "", err
		}
	}
	sb.WriteString("M30\n")
	return sb.String(), nil
}

func assignToolNumbers(f *File) (map[int]*aperture.ExcellonTool, map[*aperture.ExcellonTool]int, error) {
	numbers := map[int]*aperture.ExcellonTool{}
	toolNumber := map[*aperture.ExcellonTool]int{}
	for n, t := range f.Tools {
		numbers[n] = t
		toolNumber[t] = n
	}
	next := 1
	for _, obj := range f.Objects {
		t := objectTool(obj)
		if t == nil {
			continue
		}
		if _, ok := toolNumber[t]; ok {
			continue
		}
		for numbers[next] != nil {
			next++
		}
		numbers[next] = t
		toolNumber[t] = next
		next++
	}
	return numbers, toolNumber, nil
}

func objectTool(obj graphic.Object) *aperture.ExcellonTool {
	var ap aperture.Aperture
	switch v := obj.(type) {
	case graphic.Flash:
		ap = v.Aperture
	case graphic.Line:
		ap = v.Aperture
	case graphic.Arc:
		ap = v.Aperture
	}
	t, _ := ap.(*aperture.ExcellonTool)
	return t
}

func hasMixedPlating(numbers map[int]*aperture.ExcellonTool) bool {
	seen := map[aperture.Plating]bool{}
	for _, t := range numbers {
		seen[t.Plated] = true
	}
	return len(seen) > 1
}

func sortedToolNumbers(numbers map[int]*aperture.ExcellonTool) []int {
	keys := make([]int, 0, len(numbers))
	for k := range numbers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type serializeState struct {
	fs            units.FileSettings
	interpolation int
	currentTool   int
	mode          programState
	curX, curY    float64
	haveCurrent   bool
}

func (s *serializeState) selectTool(sb *strings.Builder, t *aperture.ExcellonTool, toolNumber map[*aperture.ExcellonTool]int) error {
	n, ok := toolNumber[t]
	if !ok {
		return fmt.Errorf("object references a tool not present in the file's tool table")
	}
	if n != s.currentTool {
		fmt.Fprintf(sb, "T%02d\n", n)
		s.currentTool = n
	}
	return nil
}

// coord writes an XNC coordinate with an explicit decimal point (XNC
// carries no implicit zero-suppression state), unlike the fixed-width
// zero-suppressed tokens legacy Excellon dialects parse.
func (s *serializeState) coord(sb *strings.Builder, letter string, value float64) error {
	sb.WriteString(letter)
	sb.WriteString(formatExplicitDecimal(value))
	return nil
}

func formatExplicitDecimal(value float64) string {
	s := strconv.FormatFloat(value, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "" || s == "-" {
		s += "0"
	}
	return s
}

func (s *serializeState) drillMode(sb *strings.Builder) {
	if s.mode != stateDrilling {
		sb.WriteString("G05\n")
		s.mode = stateDrilling
	}
}

func (s *serializeState) routeModePlunge(sb *strings.Builder, p geometry.Point) error {
	sb.WriteString("G00")
	if err := s.coord(sb, "X", p.X()); err != nil {
		return err
	}
	if err := s.coord(sb, "Y", p.Y()); err != nil {
		return err
	}
	sb.WriteString("\nM15\n")
	s.mode = stateRouting
	s.curX, s.curY = p.X(), p.Y()
	return nil
}

func (s *serializeState) emit(sb *strings.Builder, obj graphic.Object, toolNumber map[*aperture.ExcellonTool]int) error {
	switch v := obj.(type) {
	case graphic.Flash:
		s.drillMode(sb)
		if err := s.selectTool(sb, v.Aperture.(*aperture.ExcellonTool), toolNumber); err != nil {
			return err
		}
		if err := s.coord(sb, "X", v.Point.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "Y", v.Point.Y()); err != nil {
			return err
		}
		sb.WriteString("\n")
		s.curX, s.curY = v.Point.X(), v.Point.Y()
	case graphic.Line:
		if err := s.selectTool(sb, v.Aperture.(*aperture.ExcellonTool), toolNumber); err != nil {
			return err
		}
		if !s.haveCurrent || s.curX != v.Start.X() || s.curY != v.Start.Y() {
			if err := s.routeModePlunge(sb, v.Start); err != nil {
				return err
			}
			s.haveCurrent = true
		}
		if s.interpolation != 1 {
			sb.WriteString("G01\n")
			s.interpolation = 1
		}
		if err := s.coord(sb, "X", v.End.X()); err != nil {
			return err
		}
		if err := s.coord(sb, "Y", v.End.Y()); err != nil {
			return err
		}
		sb.WriteString("\n")
		s.curX, s.curY = v.End.X(), v.End.Y()
	case graphic.Arc:
		if err := s.selectTool(sb, v.Aperture.(*aperture.ExcellonTool), toolNumber); err != nil {
			return err
		}
		if !s.haveCurrent || s.curX != v.Start.X() || s.curY != v.Start.Y() {
			if err := s.routeModePlunge(sb, v.Start); err != nil {
				return err
			}
			s.haveCurrent = true
		}
		mode, code := 2, "G02\n"
		if !v.Clockwise {
			mode, code = 3, "G03\n"
		}
		if s.interpolation != mode {
			sb.WriteString(code)
			s.interpolation = mode
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
		sb.WriteString("\n")
		s.curX, s.curY = v.End.X(), v.End.Y()
	}
	return nil
}
