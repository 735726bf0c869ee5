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

// Package excellon implements the Excellon/XNC drill-and-rout parser and
// serializer: a dialect-hinting tokenizer, a tool table, a program-state
// machine, and a restrictive XNC emitter.
package excellon

import (
	"github.com/jsleeio/gerbonara/aperture"
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

// Dialect is a hint accumulated from structural clues in the source text
// about which CAD tool generated it. It never changes parsing behavior
// on its own; it exists so callers know when to distrust the file's own
// format claims.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectAllegro
	DialectSiemens
	DialectEasyEDA
	DialectZuken
	DialectFritzing
)

// File is a parsed Excellon/XNC program: its tool table, the drilled and
// routed objects, and the dialect hints observed while tokenizing.
type File struct {
	Settings units.FileSettings
	Tools    map[int]*aperture.ExcellonTool
	Objects  []graphic.Object
	Dialects []Dialect
	Warnings gerberr.Bag
}

// NewFile returns an empty file with the default settings.
func NewFile() *File {
	return &File{
		Settings: units.Default(),
		Tools:    map[int]*aperture.ExcellonTool{},
	}
}

// GraphicObjects satisfies cam.CamFile.
func (f *File) GraphicObjects() []graphic.Object { return f.Objects }

// FileUnit satisfies cam.CamFile.
func (f *File) FileUnit() units.Unit { return f.Settings.Unit }

// Bounds returns the union of every object's bounding box, in the file's
// own unit.
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

// UsedTools returns the set of tool numbers actually referenced by an
// object in the file, derived from Objects rather than from Tools (a
// tool may be defined in the header but never selected).
func (f *File) UsedTools() map[int]*aperture.ExcellonTool {
	used := map[int]*aperture.ExcellonTool{}
	for _, o := range f.Objects {
		var ap aperture.Aperture
		switch v := o.(type) {
		case graphic.Flash:
			ap = v.Aperture
		case graphic.Line:
			ap = v.Aperture
		case graphic.Arc:
			ap = v.Aperture
		}
		if t, ok := ap.(*aperture.ExcellonTool); ok && t != nil {
			for n, candidate := range f.Tools {
				if candidate == t {
					used[n] = t
				}
			}
		}
	}
	return used
}
