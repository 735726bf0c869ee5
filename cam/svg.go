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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/graphic/primitive"
	"github.com/jsleeio/gerbonara/units"
)

// ToSVG renders f as an SVG document: fold the bounding box
// (or use opts.ForceBounds), flatten every object to primitives in
// opts.SVGUnit, coalesce adjacent same-width same-polarity Lines into a
// single path, and wrap the result in a viewport that flips the Y axis
// (Gerber's Y points up, SVG's down).
func ToSVG(f CamFile, opts RenderOptions) (string, error) {
	bounds, err := resolveBounds(f, opts)
	if err != nil {
		return "", err
	}
	margin := units.Convert(opts.Margin, opts.ArgUnit, opts.SVGUnit)
	bounds = geometry.Bounds{
		MinX: bounds.MinX - margin, MinY: bounds.MinY - margin,
		MaxX: bounds.MaxX + margin, MaxY: bounds.MaxY + margin,
	}

	prims, err := flatten(f, opts.SVGUnit)
	if err != nil {
		return "", err
	}
	if !opts.NoCoalesce {
		prims = coalesce(prims)
	}

	var body strings.Builder
	for _, p := range prims {
		body.WriteString(p.ToSVG(opts.Foreground, opts.Background))
		body.WriteString("\n")
	}

	width, height := bounds.MaxX-bounds.MinX, bounds.MaxY-bounds.MinY
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s%s" height="%s%s" viewBox="%s %s %s %s">`,
		fnum(width), opts.SVGUnit.String(), fnum(height), opts.SVGUnit.String(),
		fnum(bounds.MinX), fnum(-bounds.MaxY), fnum(width), fnum(height))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		fnum(bounds.MinX), fnum(-bounds.MaxY), fnum(width), fnum(height), opts.Background)
	sb.WriteString("\n")
	sb.WriteString(`<g transform="scale(1,-1)">`)
	sb.WriteString("\n")
	sb.WriteString(body.String())
	sb.WriteString("</g>\n</svg>\n")
	return sb.String(), nil
}

func resolveBounds(f CamFile, opts RenderOptions) (geometry.Bounds, error) {
	if opts.ForceBounds != nil {
		return *opts.ForceBounds, nil
	}
	fileBounds, err := f.Bounds()
	if err != nil {
		return geometry.Bounds{}, errors.Wrap(err, "folding bounds")
	}
	if fileBounds.Empty() {
		return geometry.Bounds{}, nil
	}
	x0, y0 := units.Convert(fileBounds.MinX, f.FileUnit(), opts.SVGUnit), units.Convert(fileBounds.MinY, f.FileUnit(), opts.SVGUnit)
	x1, y1 := units.Convert(fileBounds.MaxX, f.FileUnit(), opts.SVGUnit), units.Convert(fileBounds.MaxY, f.FileUnit(), opts.SVGUnit)
	return geometry.Bounds{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}, nil
}

func flatten(f CamFile, svgUnit units.Unit) ([]primitive.Primitive, error) {
	var out []primitive.Primitive
	for _, obj := range f.GraphicObjects() {
		prims, err := obj.ToPrimitives(svgUnit)
		if err != nil {
			return nil, errors.Wrap(err, "flattening object to primitives")
		}
		out = append(out, prims...)
	}
	return out, nil
}

// coalesce merges a run of Line primitives into a single polyline path
// when each line's start coincides with the previous line's end and
// both share width and polarity. This is purely an
// output-size optimization: the rendered image is unchanged.
func coalesce(prims []primitive.Primitive) []primitive.Primitive {
	var out []primitive.Primitive
	var run []primitive.Line

	flush := func() {
		switch len(run) {
		case 0:
			return
		case 1:
			out = append(out, run[0])
		default:
			points := make([]geometry.Point, 0, len(run)+1)
			points = append(points, run[0].Start)
			for _, l := range run {
				points = append(points, l.End)
			}
			out = append(out, polyline{points: points, width: run[0].Width, dark: run[0].Dark})
		}
		run = nil
	}

	for _, p := range prims {
		l, ok := p.(primitive.Line)
		if !ok {
			flush()
			out = append(out, p)
			continue
		}
		if len(run) > 0 {
			last := run[len(run)-1]
			if last.End != l.Start || last.Width != l.Width || last.Dark != l.Dark {
				flush()
			}
		}
		run = append(run, l)
	}
	flush()
	return out
}

// polyline is the coalesced run of Lines step 3: a
// single stroked path in place of N separate <path> elements, used only
// when every segment in the run shares width and polarity.
type polyline struct {
	points []geometry.Point
	width  float64
	dark   bool
}

func (p polyline) IsDark() bool { return p.dark }

func (p polyline) Bounds() geometry.Bounds {
	b := geometry.EmptyBounds()
	r := p.width / 2
	for _, pt := range p.points {
		b = b.Extend(pt.X(), pt.Y())
	}
	return geometry.Bounds{MinX: b.MinX - r, MinY: b.MinY - r, MaxX: b.MaxX + r, MaxY: b.MaxY + r}
}

func (p polyline) ToSVG(fg, bg string) string {
	color := fg
	if !p.dark {
		color = bg
	}
	var d strings.Builder
	fmt.Fprintf(&d, "M %s %s", fnum(p.points[0].X()), fnum(p.points[0].Y()))
	for _, pt := range p.points[1:] {
		fmt.Fprintf(&d, " L %s %s", fnum(pt.X()), fnum(pt.Y()))
	}
	return fmt.Sprintf(`<path d="%s" stroke-width="%s" stroke-linecap="round" stroke="%s" fill="none"/>`,
		d.String(), fnum(p.width), color)
}

func fnum(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
