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
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/units"
)

// LoadAllegroToolTable reads an nc_param.txt-shaped sidecar: one
// whitespace-separated record per line, a "UNITS INCH|MM" line setting
// the scale for every diameter that follows, and "T<nn> <diameter>"
// lines assigning a diameter to a tool number. Blank lines, and lines
// whose first field isn't recognized, are ignored rather than rejected —
// the format is a convention, not a standard, and real files carry
// vendor-specific header junk this helper has no business rejecting.
func LoadAllegroToolTable(data string) (aperture.ToolTable, error) {
	table := aperture.ToolTable{}
	unit := units.Inch
	for _, raw := range strings.Split(data, "\n") {
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "UNITS":
			if len(fields) < 2 {
				continue
			}
			u, err := units.ParseShorthand(fields[1])
			if err != nil {
				return nil, errors.Wrapf(err, "parsing UNITS line %q", raw)
			}
			unit = u
		default:
			num, dia, ok, err := parseToolLine(fields)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing tool line %q", raw)
			}
			if !ok {
				continue
			}
			table[num] = &aperture.ExcellonTool{Diameter: dia, Plated: aperture.PlatingUnknown, U: unit}
		}
	}
	return table, nil
}

// parseToolLine recognizes "T<nn> <diameter>" and "TOOL T<nn> <diameter>"
// forms, both seen in the wild. ok is false when fields doesn't look like
// a tool line at all (rather than an error, so callers can skip it).
func parseToolLine(fields []string) (num int, dia float64, ok bool, err error) {
	if len(fields) == 2 && strings.HasPrefix(strings.ToUpper(fields[0]), "T") {
		return parseToolFields(fields[0], fields[1])
	}
	if len(fields) == 3 && strings.EqualFold(fields[0], "TOOL") && strings.HasPrefix(strings.ToUpper(fields[1]), "T") {
		return parseToolFields(fields[1], fields[2])
	}
	return 0, 0, false, nil
}

func parseToolFields(numField, diaField string) (int, float64, bool, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(numField), "T"))
	if err != nil {
		return 0, 0, false, nil
	}
	d, err := strconv.ParseFloat(diaField, 64)
	if err != nil {
		return 0, 0, true, errors.Wrapf(err, "parsing diameter %q", diaField)
	}
	return n, d, true, nil
}
