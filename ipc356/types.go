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

// Package ipc356 implements the IPC-D-356 netlist record format:
// fixed-column test, conductor, adjacency and outline records, plus
// the P/C/9 parameter, comment and end-of-file lines that frame them.
package ipc356

import (
	"github.com/jsleeio/gerbonara/geometry"
	"github.com/jsleeio/gerbonara/internal/gerberr"
	"github.com/jsleeio/gerbonara/units"
)

// PadType is the test record's pad classification (the record keyword's
// middle digit, e.g. the "1" in "317").
type PadType int

const (
	ThroughHole    PadType = 1
	SMDPad         PadType = 2
	ToolingFeature PadType = 3
	ToolingHole    PadType = 4
	NonplatedHole  PadType = 6
)

// SoldermaskInfo is the test record's optional soldermask coverage field.
type SoldermaskInfo int

const (
	SoldermaskNone SoldermaskInfo = iota
	SoldermaskPrimary
	SoldermaskSecondary
	SoldermaskBoth
)

// TestRecord is a 317/327/367 record: one test point on a net.
type TestRecord struct {
	PadType     PadType
	NetName     string
	IsConnected bool
	RefDes      string
	IsVia       bool
	PinNum      string
	IsMiddle    bool
	HoleDia     *float64
	IsPlated    *bool
	AccessLayer *int
	X, Y        *float64
	W, H        *float64
	RotationDeg float64
	SolderMask  *SoldermaskInfo
	Leftover    string
	Unit        units.Unit
}

// OutlineType classifies a 389 outline record.
type OutlineType int

const (
	BoardEdge OutlineType = iota
	PanelEdge
	ScoreLine
	OtherFab
)

// Outline is a 389 record: a closed or open polyline of a given kind.
type Outline struct {
	Type  OutlineType
	Chain []geometry.Point
	Unit  units.Unit
}

// Conductor is a 378 record: one routed trace segment chain on a net
// and layer, carrying the aperture (stroke width) it was drawn with.
type Conductor struct {
	NetName  string
	Layer    int
	Aperture geometry.Point
	Chain    []geometry.Point
	Unit     units.Unit
}

// Netlist is a parsed IPC-D-356 file: its test records, conductors,
// outlines, net-adjacency graph (379 records), free-form parameters (P
// records) and comments (C records).
type Netlist struct {
	Settings    units.FileSettings
	TestRecords []TestRecord
	Conductors  []Conductor
	Outlines    []Outline
	Adjacency   map[string][]string
	Params      map[string]string
	Comments    []string
	Warnings    gerberr.Bag
}

// NewNetlist returns an empty netlist with the default settings.
func NewNetlist() *Netlist {
	return &Netlist{
		Settings:  units.Default(),
		Adjacency: map[string][]string{},
		Params:    map[string]string{},
	}
}
