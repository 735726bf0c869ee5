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

// Package cam implements the shared rendering layer
// sitting above the parsed Gerber/Excellon object models: bounding-box
// folding across a file's objects, polyline coalescing, and SVG assembly.
package cam

import (
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic"
	"github.com/jsleeio/gerbonara/units"
)

// CamFile is the common surface a parsed layer exposes to the renderer:
// its flattened graphic objects, their union bounding box, and the unit
// its coordinates are tagged with. gerber.File and excellon.File both
// satisfy this directly; it is the single abstraction ToSVG renders
// against so one render path serves both formats.
type CamFile interface {
	// GraphicObjects returns the file's objects in file order.
	GraphicObjects() []graphic.Object
	// Bounds returns the union bounding box of every object, in FileUnit.
	Bounds() (geometry.Bounds, error)
	// FileUnit returns the unit the file's coordinates are tagged with.
	FileUnit() units.Unit
}
