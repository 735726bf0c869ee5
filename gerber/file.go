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

// Package gerber implements the RS-274X/X2 Gerber parser and serializer:
// tokenizer, graphics-state machine, and a state-minimizing encoder.
package gerber

import (
	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/macro"
	"github.com/jsleeio/gerbonara/units"
)

// File is a parsed Gerber layer: the graphics-state machine's final
// object list, its aperture table, any user macros it defined, and the
// file settings (unit/format) it was parsed under.
type File struct {
	Settings  units.FileSettings
	Apertures map[int]aperture.Aperture
	Macros    map[string]macro.Macro
	Objects   []graphic.Object
	// Attributes holds file (TF), aperture (TA) and object (TO) attribute
	// values and TD deletion commands, keyed by the two-letter command plus
	// the attribute name, last-write-wins (the attribute
	// plumbing is informational; it does not affect geometry).
	Attributes map[string]string
	Warnings   gerberr.Bag
}

// NewFile returns an empty file with the default settings and no
// apertures, macros or objects. Parse populates a File from source text;
// callers assembling one programmatically can start here.
func NewFile() *File {
	return &File{
		Settings:   units.Default(),
		Apertures:  map[int]aperture.Aperture{},
		Macros:     map[string]macro.Macro{},
		Attributes: map[string]string{},
	}
}

// GraphicObjects satisfies cam.CamFile.
func (f *File) GraphicObjects() []graphic.Object { return f.Objects }

// FileUnit satisfies cam.CamFile.
func (f *File) FileUnit() units.Unit { return f.Settings.Unit }

// Bounds returns the union of every object's bounding box, in the file's
// own unit. An empty file has empty Bounds.
func (f *File) Bounds() (geometry.Bounds, error) {
	b := geometry.EmptyBounds()
	for _, o := range f.Objects {
		ob, err := o.BoundingBox(f.Settings.Unit)
		if err != nil {
			return geometry.Bounds{}, err
		}
		b = b.Union(ob)
	}
	return b, nil
}
