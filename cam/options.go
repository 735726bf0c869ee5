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

package cam

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/units"
)

// RenderOptions configures ToSVG. Margin is in ArgUnit; a caller may also
// pin ForceBounds (in SVGUnit) instead of letting the renderer fold the
// file's own objects.
type RenderOptions struct {
	Margin      float64          `mapstructure:"margin"`
	ArgUnit     units.Unit       `mapstructure:"-"`
	SVGUnit     units.Unit       `mapstructure:"-"`
	ForceBounds *geometry.Bounds `mapstructure:"-"`
	Foreground  string           `mapstructure:"foreground"`
	Background  string           `mapstructure:"background"`
	NoCoalesce  bool             `mapstructure:"no_coalesce"`
}

// DefaultRenderOptions returns the conventional Gerber-viewer palette:
// copper traces in a dark gold on a near-black background, millimeters
// throughout, a 1mm margin.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Margin:     1.0,
		ArgUnit:    units.MM,
		SVGUnit:    units.MM,
		Foreground: "#c87137",
		Background: "#1a1a1a",
	}
}

// DecodeRenderOptions builds a RenderOptions from a loosely-typed option
// bag (e.g. parsed from JSON/YAML or passed by a scripting caller),
// overlaying onto DefaultRenderOptions so callers only need to specify
// the fields they care about.
func DecodeRenderOptions(bag map[string]interface{}) (RenderOptions, error) {
	opts := DefaultRenderOptions()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, errors.Wrap(err, "building render-options decoder")
	}
	if err := dec.Decode(bag); err != nil {
		return opts, errors.Wrap(err, "decoding render options")
	}
	if unitName, ok := bag["arg_unit"].(string); ok {
		u, err := units.ParseShorthand(unitName)
		if err != nil {
			return opts, err
		}
		opts.ArgUnit = u
	}
	if unitName, ok := bag["svg_unit"].(string); ok {
		u, err := units.ParseShorthand(unitName)
		if err != nil {
			return opts, err
		}
		opts.SVGUnit = u
	}
	return opts, nil
}
