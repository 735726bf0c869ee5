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

package expr

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Parse parses a Gerber macro arithmetic expression: input is lowercased,
// "x" is treated as multiplication, "$n" as VarN, then parsed with the
// standard precedence (unary +/-; * and / bind tighter than + and -),
// left-associative.
func Parse(input string) (Expression, error) {
	p := &parser{tokens: tokenize(strings.ToLower(input))}
	e, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, errors.Errorf("unexpected trailing input at token %d: %q", p.pos, p.tokens[p.pos].text)
	}
	return e, nil
}

type tokKind int

const (
	tokNumber tokKind = iota
	tokVar
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	op   Op
}

func tokenize(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == '+':
			toks = append(toks, token{kind: tokOp, op: Add, text: "+"})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokOp, op: Sub, text: "-"})
			i++
		case c == 'x' || c == '*':
			toks = append(toks, token{kind: tokOp, op: Mul, text: "x"})
			i++
		case c == '/':
			toks = append(toks, token{kind: tokOp, op: Div, text: "/"})
			i++
		case c == '$':
			j := i + 1
			for j < len(s) && unicode.IsDigit(rune(s[j])) {
				j++
			}
			toks = append(toks, token{kind: tokVar, text: s[i+1 : j]})
			i = j
		case unicode.IsDigit(c) || c == '.':
			j := i
			for j < len(s) && (unicode.IsDigit(rune(s[j])) || s[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:j]})
			i = j
		default:
			i++ // skip unrecognized character rather than fail tokenizing
		}
	}
	return toks
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) parseAddSub() (Expression, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.op != Add && t.op != Sub) {
			return left, nil
		}
		p.pos++
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = OperatorExpr(t.op, left, right)
	}
}

func (p *parser) parseMulDiv() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.op != Mul && t.op != Div) {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = OperatorExpr(t.op, left, right)
	}
}

func (p *parser) parseUnary() (Expression, error) {
	t, ok := p.peek()
	if ok && t.kind == tokOp && t.op == Sub {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return OperatorExpr(Sub, Const(0), operand), nil
	}
	if ok && t.kind == tokOp && t.op == Add {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	t, ok := p.peek()
	if !ok {
		return nil, errors.New("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing numeric literal %q", t.text)
		}
		return Const(v), nil
	case tokVar:
		p.pos++
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing variable index %q", t.text)
		}
		return Var(n), nil
	case tokLParen:
		p.pos++
		e, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		close, ok := p.peek()
		if !ok || close.kind != tokRParen {
			return nil, errors.New("unbalanced parentheses in macro expression")
		}
		p.pos++
		return e, nil
	}
	return nil, errors.Errorf("unexpected token %q", t.text)
}
