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

package gerber

import "strings"

// statement is one parsed unit of a Gerber file: either a function-code
// block (G/D/M, terminated by "*") or the body of an extended command
// (originally wrapped in "%...%"), plus the source line it started on.
type statement struct {
	raw      string
	extended bool
	line     int
}

// tokenize splits src into statements. Outside a "%...%"
// span, statements are "*"-delimited function codes. Inside, an aperture
// macro definition ("AM...") is kept whole (its body uses "*" internally
// to separate variable definitions and primitive blocks); any other
// extended command content is itself split on "*", since legacy files may
// pack several extended commands into one "%...%" pair.
func tokenize(src string) []statement {
	var out []statement
	line := 1
	var buf strings.Builder
	inExtended := false
	startLine := 1

	flushFunctionCode := func() {
		raw := buf.String()
		buf.Reset()
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			out = append(out, statement{raw: trimmed, extended: false, line: startLine})
		}
	}
	flushExtended := func() {
		content := buf.String()
		buf.Reset()
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return
		}
		if strings.HasPrefix(trimmed, "AM") {
			out = append(out, statement{raw: trimmed, extended: true, line: startLine})
			return
		}
		for _, part := range strings.Split(trimmed, "*") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, statement{raw: p, extended: true, line: startLine})
		}
	}

	for _, r := range src {
		switch r {
		case '\n':
			line++
			buf.WriteRune(r)
		case '%':
			if inExtended {
				flushExtended()
				inExtended = false
			} else {
				flushFunctionCode()
				inExtended = true
				startLine = line
			}
		case '*':
			if inExtended {
				buf.WriteRune(r)
			} else {
				flushFunctionCode()
				startLine = line
			}
		default:
			if strings.TrimSpace(buf.String()) == "" {
				startLine = line
			}
			buf.WriteRune(r)
		}
	}
	flushFunctionCode()
	return out
}
