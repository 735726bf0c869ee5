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

// Package gerberr provides the structured error and warning types shared
// by the parser, serializer and cam packages.
package gerberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// SyntaxError reports input that could not be parsed at all (the
// "Syntax error" kind). It always carries a source location.
type SyntaxError struct {
	File  string
	Line  int
	Cause error
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Cause)
}

// Unwrap allows errors.Is/errors.As to reach the underlying cause.
func (e *SyntaxError) Unwrap() error { return e.Cause }

// NewSyntax wraps cause as a SyntaxError at file:line.
func NewSyntax(file string, line int, cause error) *SyntaxError {
	return &SyntaxError{File: file, Line: line, Cause: cause}
}

// Syntaxf builds a SyntaxError from a format string, the way
// errors.Wrapf builds a wrapped error.
func Syntaxf(file string, line int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{File: file, Line: line, Cause: errors.Errorf(format, args...)}
}

// Kind enumerates the non-fatal warning categories.
type Kind int

const (
	// UnknownStatement is raised when a command line matches none of the
	// known patterns. The offending line is preserved verbatim as a comment.
	UnknownStatement Kind = iota
	// DeprecatedConstruct is raised for a recognized-but-obsolete command
	// (IR, MI, OF, IP, SF, AS, LN, IN, G70, G71, G90, G91, G74).
	DeprecatedConstruct
	// Ambiguity is raised when a dialect heuristic had to resolve an
	// under-specified construct (e.g. a D-code-less coordinate).
	Ambiguity
	// NumericalResolution is raised when an arc's endpoint/center mismatch
	// exceeds the sanity threshold.
	NumericalResolution
	// EndOfFileMissing is raised when a file lacks a terminating M02/M00.
	EndOfFileMissing
)

// String satisfies the Stringer interface to aid debug printing.
func (k Kind) String() string {
	switch k {
	case UnknownStatement:
		return "unknown-statement"
	case DeprecatedConstruct:
		return "deprecated-construct"
	case Ambiguity:
		return "ambiguity"
	case NumericalResolution:
		return "numerical-resolution"
	case EndOfFileMissing:
		return "end-of-file-missing"
	}
	return "unknown-kind"
}

// Warning is a single non-fatal diagnostic emitted by a parser.
type Warning struct {
	File    string
	Line    int
	Kind    Kind
	Message string
}

// String satisfies the Stringer interface to aid debug printing.
func (w Warning) String() string {
	if w.File == "" {
		return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", w.File, w.Line, w.Kind, w.Message)
}

// Bag accumulates warnings during a parse. The zero value is ready to use.
type Bag struct {
	Warnings []Warning
}

// Warnf appends a formatted warning of the given kind.
func (b *Bag) Warnf(file string, line int, kind Kind, format string, args ...interface{}) {
	b.Warnings = append(b.Warnings, Warning{
		File: file, Line: line, Kind: kind, Message: fmt.Sprintf(format, args...),
	})
}

// Wrap re-exports errors.Wrap so callers need only import this package
// at most parse/serialize boundaries.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf re-exports errors.Wrapf.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
