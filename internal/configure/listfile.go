// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package configure

import (
	"strings"

	"github.com/aplane-algo/cfgbridge/internal/bridge"
)

// Invocation is one command invocation read from a listfile.
// Argument values are raw: variable references are expanded when the command runs.
type Invocation struct {
	Name string
	Line int
	Args []bridge.Argument
}

// ParseListfile reads listfile source. file is only used in error messages.
//
// Grammar:
//
//	listfile   := { comment | invocation }
//	invocation := name '(' { argument | comment } ')'
//	argument   := quoted | unquoted | '(' | ')'
//	comment    := '#' up to end of line
//
// Quoted arguments support the escapes \" \\ \n \t. Unquoted arguments keep
// backslashes, so "\;" survives for list splitting.
func ParseListfile(file string, src []byte) ([]Invocation, error) {
	p := &parser{file: file, src: src, line: 1}
	var invs []Invocation
	for {
		p.skipSpaceAndComments()
		if p.eof() {
			return invs, nil
		}
		inv, err := p.invocation()
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
}

type parser struct {
	file string
	src  []byte
	pos  int
	line int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) next() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) skipSpaceAndComments() {
	for !p.eof() {
		switch c := p.peek(); {
		case c == '#':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		case isSpace(c):
			p.next()
		default:
			return
		}
	}
}

func (p *parser) invocation() (Invocation, error) {
	line := p.line
	start := p.pos
	if !isNameStart(p.peek()) {
		return Invocation{}, syntaxError(p.file, line, "unexpected character %q", p.peek())
	}
	for !p.eof() && isNameChar(p.peek()) {
		p.next()
	}
	name := string(p.src[start:p.pos])

	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.next()
	}
	if p.eof() || p.peek() != '(' {
		return Invocation{}, syntaxError(p.file, line, "expected '(' after command name `%s`", name)
	}
	p.next()

	inv := Invocation{Name: name, Line: line}
	depth := 0
	for {
		p.skipSpaceAndComments()
		if p.eof() {
			return Invocation{}, syntaxError(p.file, line, "unterminated argument list for `%s`", name)
		}
		switch c := p.peek(); c {
		case ')':
			p.next()
			if depth == 0 {
				return inv, nil
			}
			depth--
			inv.Args = append(inv.Args, bridge.Argument{Value: ")"})
		case '(':
			p.next()
			depth++
			inv.Args = append(inv.Args, bridge.Argument{Value: "("})
		case '"':
			arg, err := p.quoted()
			if err != nil {
				return Invocation{}, err
			}
			inv.Args = append(inv.Args, bridge.Argument{Value: arg, Quoted: true})
		default:
			inv.Args = append(inv.Args, bridge.Argument{Value: p.unquoted()})
		}
	}
}

func (p *parser) quoted() (string, error) {
	line := p.line
	p.next() // opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.next()
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if p.eof() {
				continue
			}
			switch e := p.next(); e {
			case '"', '\\':
				b.WriteByte(e)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\n':
				// line continuation
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", syntaxError(p.file, line, "unterminated quoted argument")
}

func (p *parser) unquoted() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isSpace(c) || c == '(' || c == ')' || c == '"' || c == '#' {
			break
		}
		p.next()
		if c == '\\' && !p.eof() && !isSpace(p.peek()) {
			p.next()
		}
	}
	return string(p.src[start:p.pos])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
