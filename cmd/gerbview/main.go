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

// Command gerbview reads a single Gerber or Excellon file and writes its
// rendered SVG to stdout (or -out), warts and all --- any non-fatal
// diagnostics collected while parsing are printed to stderr afterwards.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsleeio/gerbonara/cam"
	"github.com/jsleeio/gerbonara/config"
	"github.com/jsleeio/gerbonara/excellon"
	"github.com/jsleeio/gerbonara/gerber"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

type options struct {
	in, out, kind, sidecar string
	margin                 float64
	fg, bg                 string
	noCoalesce             bool
}

func configure() (o options, err error) {
	flag.StringVar(&o.in, "in", "", "input Gerber or Excellon file (required)")
	flag.StringVar(&o.out, "out", "", "output SVG file (default: stdout)")
	flag.StringVar(&o.kind, "kind", "auto", "input kind: auto, gerber, excellon")
	flag.StringVar(&o.sidecar, "config", "", "optional YAML settings-override sidecar")
	flag.Float64Var(&o.margin, "margin", 1.0, "render margin, in millimeters")
	flag.StringVar(&o.fg, "foreground", "", "render foreground color (default: renderer's own)")
	flag.StringVar(&o.bg, "background", "", "render background color (default: renderer's own)")
	flag.BoolVar(&o.noCoalesce, "no-coalesce", false, "don't merge contiguous same-width lines into one path")
	flag.Parse()
	if o.in == "" {
		return o, errStr("-in is required")
	}
	return o, nil
}

type errStr string

func (e errStr) Error() string { return string(e) }

func detectKind(kind, path string) string {
	if kind != "auto" {
		return kind
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".drl", ".xln", ".txt", ".nc", ".tap":
		return "excellon"
	default:
		return "gerber"
	}
}

func main() {
	o, err := configure()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	raw, err := os.ReadFile(o.in)
	if err != nil {
		log.Fatalf("reading %s: %v", o.in, err)
	}

	settings := units.Default()
	if o.sidecar != "" {
		sraw, err := os.ReadFile(o.sidecar)
		if err != nil {
			log.Fatalf("reading sidecar %s: %v", o.sidecar, err)
		}
		sc, err := config.LoadSidecar(sraw)
		if err != nil {
			log.Fatalf("parsing sidecar %s: %v", o.sidecar, err)
		}
		settings, err = sc.Apply(settings)
		if err != nil {
			log.Fatalf("applying sidecar %s: %v", o.sidecar, err)
		}
	}

	var camFile cam.CamFile
	var warnings gerberr.Bag
	switch detectKind(o.kind, o.in) {
	case "gerber":
		f, err := gerber.Parse(o.in, string(raw))
		if err != nil {
			log.Fatalf("parsing %s as Gerber: %v", o.in, err)
		}
		camFile, warnings = f, f.Warnings
	case "excellon":
		f, err := excellon.Parse(o.in, string(raw), settings)
		if err != nil {
			log.Fatalf("parsing %s as Excellon: %v", o.in, err)
		}
		camFile, warnings = f, f.Warnings
	default:
		log.Fatalf("unrecognized -kind %q", o.kind)
	}

	opts := cam.DefaultRenderOptions()
	opts.Margin = o.margin
	opts.NoCoalesce = o.noCoalesce
	if o.fg != "" {
		opts.Foreground = o.fg
	}
	if o.bg != "" {
		opts.Background = o.bg
	}

	svg, err := cam.ToSVG(camFile, opts)
	if err != nil {
		log.Fatalf("rendering %s: %v", o.in, err)
	}

	if o.out == "" {
		os.Stdout.WriteString(svg)
	} else if err := os.WriteFile(o.out, []byte(svg), 0644); err != nil {
		log.Fatalf("writing %s: %v", o.out, err)
	}

	for _, w := range warnings.Warnings {
		log.Println(w.String())
	}
}
