package rule

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	itemStop = "|,{}[]/"
	argStop  = "|,}]"
)

// Parse converts rule text into a Rule.
//
// The empty string parses to an empty Multi. On failure the returned error is a
// *SyntaxError carrying the diagnostic and its byte span.
func Parse(text string) (Rule, error) {
	p := &parser{src: text}
	r, diag := p.parseRule(0)
	if diag != nil {
		return nil, &SyntaxError{Source: text, Diagnostics: []Diagnostic{*diag}}
	}
	return r, nil
}

// MustParse is Parse for rule literals in tests and fixtures.
func MustParse(text string) Rule {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

// parseRule parses a comma-separated clause list up to closer, or to the end of
// input when closer is 0. The closer itself is left for the caller.
func (p *parser) parseRule(closer byte) (Rule, *Diagnostic) {
	var clauses []Rule

	if !p.atListEnd(closer) {
		for {
			clause, diag := p.parseClause()
			if diag != nil {
				return nil, diag
			}
			clauses = append(clauses, clause)

			if p.atListEnd(closer) {
				break
			}
			if p.eof() || p.peek() != ',' {
				return nil, p.unexpected(expectedAfterClause(closer))
			}
			p.pos++
		}
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return Multi{Rules: clauses}, nil
}

func (p *parser) atListEnd(closer byte) bool {
	if p.eof() {
		return closer == 0
	}
	return closer != 0 && p.peek() == closer
}

func expectedAfterClause(closer byte) string {
	if closer == 0 {
		return "',' or end of input"
	}
	return fmt.Sprintf("',' or '%c'", closer)
}

func (p *parser) parseClause() (Rule, *Diagnostic) {
	if p.eof() {
		return nil, p.unexpected("rule")
	}

	switch p.peek() {
	case '$':
		p.pos++
		name, args, diag := p.parseCall()
		if diag != nil {
			return nil, diag
		}
		return Call{Name: name, Args: args}, nil
	case '^':
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '$' {
			p.pos += 2
			name, args, diag := p.parseCall()
			if diag != nil {
				return nil, diag
			}
			return AccessibilityLevelCall{Name: name, Args: args}, nil
		}
	case '@':
		return p.parseReference()
	case '{':
		inner, diag := p.parseGroup('}')
		if diag != nil {
			return nil, diag
		}
		return Checkable{Rule: inner}, nil
	case '[':
		inner, diag := p.parseGroup(']')
		if diag != nil {
			return nil, diag
		}
		return Optional{Rule: inner}, nil
	}

	return p.parseItem()
}

func (p *parser) parseGroup(closer byte) (Rule, *Diagnostic) {
	p.pos++
	inner, diag := p.parseRule(closer)
	if diag != nil {
		return nil, diag
	}
	if p.eof() {
		return nil, p.unexpected(fmt.Sprintf("'%c'", closer))
	}
	p.pos++
	return inner, nil
}

func (p *parser) parseCall() (string, []string, *Diagnostic) {
	start := p.pos
	for !p.eof() && isIdentByte(p.peek(), p.pos == start) {
		p.pos++
	}
	if p.pos == start {
		return "", nil, p.unexpected("function name")
	}
	name := p.src[start:p.pos]

	var args []string
	for !p.eof() && p.peek() == '|' {
		p.pos++
		args = append(args, p.take(argStop))
	}
	return name, args, nil
}

func (p *parser) parseReference() (Rule, *Diagnostic) {
	p.pos++
	location := p.take("/")
	if p.eof() {
		return nil, p.unexpected("'/'")
	}
	p.pos++
	section := p.take(argStop)
	return Reference{Location: location, Section: section}, nil
}

func (p *parser) parseItem() (Rule, *Diagnostic) {
	code := p.take(itemStop)
	if code == "" {
		return nil, p.unexpected("rule")
	}
	return Item{Code: code}, nil
}

// take consumes bytes up to the next byte in stop or the end of input.
func (p *parser) take(stop string) string {
	start := p.pos
	for !p.eof() && strings.IndexByte(stop, p.peek()) < 0 {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) unexpected(expected string) *Diagnostic {
	if p.eof() {
		return &Diagnostic{
			Message: "unexpected end of input, expected " + expected,
			Span:    Span{Start: len(p.src), End: len(p.src)},
		}
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	return &Diagnostic{
		Message: fmt.Sprintf("unexpected %q, expected %s", r, expected),
		Span:    Span{Start: p.pos, End: p.pos + size},
	}
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return false
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return true
}
