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

// Package units implements the length-unit singleton and the file-settings
// record that mediates every fixed-point coordinate parsed or emitted by
// the gerber and excellon packages.
package units

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Unit is a process-wide immutable singleton identifying a length unit.
// The zero value is None, which is treated as a wildcard: arithmetic and
// conversion involving None pass the other operand through unchanged.
type Unit struct {
	shorthand string
	toMM      float64
}

// None is the unit-less wildcard.
var None = Unit{shorthand: ""}

// MM is the millimeter unit.
var MM = Unit{shorthand: "mm", toMM: 1.0}

// Inch is the inch unit.
var Inch = Unit{shorthand: "in", toMM: 25.4}

// String satisfies the Stringer interface, returning the unit's shorthand.
func (u Unit) String() string { return u.shorthand }

// IsNone reports whether u is the unit-less wildcard.
func (u Unit) IsNone() bool { return u == None }

// ToMM returns the factor that converts a value in u to millimeters.
func (u Unit) ToMM() float64 {
	if u.IsNone() {
		return 1.0
	}
	return u.toMM
}

// ParseShorthand resolves a unit shorthand string ("mm", "in", "inch") to
// a Unit singleton, by identity of the string, not of the Unit value.
func ParseShorthand(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "mm", "millimeter", "millimeters", "millimetre", "millimetres":
		return MM, nil
	case "in", "inch", "inches":
		return Inch, nil
	case "":
		return None, nil
	}
	return None, errors.Errorf("unrecognized unit shorthand %q", s)
}

// Convert converts value from src to dst. If either side is None, or
// src == dst, value is returned unchanged (conversion is idempotent when
// source and target match).
func Convert(value float64, src, dst Unit) float64 {
	if src.IsNone() || dst.IsNone() || src == dst {
		return value
	}
	return value * src.ToMM() / dst.ToMM()
}

// ConvertBounds applies Convert componentwise to a ((x0,y0),(x1,y1)) pair.
func ConvertBounds(x0, y0, x1, y1 float64, src, dst Unit) (nx0, ny0, nx1, ny1 float64) {
	return Convert(x0, src, dst), Convert(y0, src, dst), Convert(x1, src, dst), Convert(y1, src, dst)
}

// Notation describes whether coordinates in a file are absolute or
// expressed relative to the previous point.
type Notation int

const (
	// Absolute notation: every coordinate is relative to the file origin.
	Absolute Notation = iota
	// Incremental notation: every coordinate is relative to the current point.
	Incremental
)

// ZeroSuppression describes which end of a fixed-point token may have its
// zeros omitted.
type ZeroSuppression int

const (
	// NoSuppression requires every digit: the token is exactly
	// integer+fraction digits wide, with no decimal point.
	NoSuppression ZeroSuppression = iota
	// LeadingSuppression omits leading (most-significant) zeros; the
	// token is left-padded back to full width before splitting the
	// fixed-width fraction off its right end.
	LeadingSuppression
	// TrailingSuppression omits trailing (least-significant) zeros; the
	// token is right-padded back to full width before splitting the
	// fixed-width integer part off its left end.
	TrailingSuppression
)

// FileSettings describes how numbers are serialized in one specific file:
// unit, notation, zero-suppression policy, and a fixed-point format of
// (integer digits, fractional digits), both of which must be <= 9.
type FileSettings struct {
	Unit            Unit
	Notation        Notation
	ZeroSuppression ZeroSuppression
	IntegerDigits   int
	FractionDigits  int
}

// Default returns a reasonable starting-point FileSettings: millimeters,
// absolute notation, leading zero suppression, 3.3 format.
func Default() FileSettings {
	return FileSettings{
		Unit:            MM,
		Notation:        Absolute,
		ZeroSuppression: LeadingSuppression,
		IntegerDigits:   3,
		FractionDigits:  3,
	}
}

// ParseCoordinate parses a raw coordinate token (no sign-stripping is
// performed here; callers pass the full token including any leading '-')
// according to fs's zero-suppression policy. If the token already
// contains a decimal point it is parsed as a plain float.
func (fs FileSettings) ParseCoordinate(token string) (float64, error) {
	if token == "" {
		return 0, errors.New("empty coordinate token")
	}
	if strings.Contains(token, ".") {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parsing explicit-decimal coordinate %q", token)
		}
		return v, nil
	}
	neg := false
	digits := token
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	} else if strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	width := fs.IntegerDigits + fs.FractionDigits
	switch fs.ZeroSuppression {
	case LeadingSuppression:
		// Leading (most-significant) zeros were dropped from the token;
		// restore them on the left so the fixed fraction width from the
		// right stays intact.
		if len(digits) < width {
			digits = strings.Repeat("0", width-len(digits)) + digits
		}
	case TrailingSuppression:
		// Trailing (least-significant) zeros were dropped; restore them
		// on the right so the fixed integer width from the left stays intact.
		if len(digits) < width {
			digits = digits + strings.Repeat("0", width-len(digits))
		}
	case NoSuppression:
		if len(digits) != width {
			return 0, errors.Errorf("coordinate %q does not match %d.%d format with no zero suppression",
				token, fs.IntegerDigits, fs.FractionDigits)
		}
	}
	if len(digits) < width {
		return 0, errors.Errorf("coordinate %q too short for %d.%d format", token, fs.IntegerDigits, fs.FractionDigits)
	}
	intPart := digits[:len(digits)-fs.FractionDigits]
	fracPart := digits[len(digits)-fs.FractionDigits:]
	combined := intPart + "." + fracPart
	v, err := strconv.ParseFloat(combined, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing zero-suppressed coordinate %q", token)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// FormatCoordinate is the inverse of ParseCoordinate: it renders value
// according to fs's notation-independent fixed-point format and
// zero-suppression policy. The value 0 always renders as "0".
func (fs FileSettings) FormatCoordinate(value float64) (string, error) {
	if fs.IntegerDigits > 6 || fs.FractionDigits > 7 {
		return "", errors.Errorf("precision %d.%d exceeds maximum of 6 integer / 7 fractional digits",
			fs.IntegerDigits, fs.FractionDigits)
	}
	if value == 0 {
		return "0", nil
	}
	neg := value < 0
	if neg {
		value = -value
	}
	width := fs.IntegerDigits + fs.FractionDigits
	scale := 1.0
	for i := 0; i < fs.FractionDigits; i++ {
		scale *= 10
	}
	scaled := int64(value*scale + 0.5)
	digits := strconv.FormatInt(scaled, 10)
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	switch fs.ZeroSuppression {
	case LeadingSuppression:
		digits = strings.TrimLeft(digits, "0")
		if digits == "" {
			digits = "0"
		}
	case TrailingSuppression:
		digits = strings.TrimRight(digits, "0")
		if digits == "" {
			digits = "0"
		}
	case NoSuppression:
		// keep full width
	}
	if neg {
		return "-" + digits, nil
	}
	return digits, nil
}
