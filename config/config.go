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

// Package config reads the optional sidecar files that pin down settings
// a bare Gerber or Excellon file leaves ambiguous: a YAML FileSettings
// override, and an Allegro nc_param.txt tool table for drill files whose
// only unit/tool information lives outside the drill program itself.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/jsleeio/gerbonara/units"
)

// Sidecar is the YAML shape of a settings override file. Every field is
// optional; a zero value leaves the corresponding units.FileSettings
// field at whatever the caller's default was.
type Sidecar struct {
	Unit            string `yaml:"unit"`
	Notation        string `yaml:"notation"`
	ZeroSuppression string `yaml:"zero_suppression"`
	IntegerDigits   int    `yaml:"integer_digits"`
	FractionDigits  int    `yaml:"fraction_digits"`
}

// LoadSidecar parses a YAML settings-override document.
func LoadSidecar(data []byte) (Sidecar, error) {
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(err, "parsing config sidecar")
	}
	return s, nil
}

// Apply overlays s onto base, field by field, and returns the merged
// result. Fields left at their zero value in s do not override base.
func (s Sidecar) Apply(base units.FileSettings) (units.FileSettings, error) {
	fs := base
	if s.Unit != "" {
		u, err := units.ParseShorthand(s.Unit)
		if err != nil {
			return fs, errors.Wrap(err, "sidecar unit")
		}
		fs.Unit = u
	}
	if s.Notation != "" {
		switch strings.ToLower(s.Notation) {
		case "absolute", "a":
			fs.Notation = units.Absolute
		case "incremental", "i":
			fs.Notation = units.Incremental
		default:
			return fs, errors.Errorf("unrecognized notation %q", s.Notation)
		}
	}
	if s.ZeroSuppression != "" {
		switch strings.ToLower(s.ZeroSuppression) {
		case "none", "no":
			fs.ZeroSuppression = units.NoSuppression
		case "leading", "lz":
			fs.ZeroSuppression = units.LeadingSuppression
		case "trailing", "tz":
			fs.ZeroSuppression = units.TrailingSuppression
		default:
			return fs, errors.Errorf("unrecognized zero-suppression %q", s.ZeroSuppression)
		}
	}
	if s.IntegerDigits != 0 {
		fs.IntegerDigits = s.IntegerDigits
	}
	if s.FractionDigits != 0 {
		fs.FractionDigits = s.FractionDigits
	}
	return fs, nil
}
