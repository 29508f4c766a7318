package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode classifies a ParseError.
type ErrorCode int

const (
	CodeSyntax ErrorCode = iota
	CodeUnclosedTag
	CodeUnescapedBrace
	CodeEmptyTag
	CodeMixedTagAndLiteral
)

// ErrMixedTagAndLiteral matches parse errors for argument slots that combine
// a tag with literal text or hold more than one tag.
var ErrMixedTagAndLiteral = errors.New("argument mixes a tag with literal text")

// ParseError reports a grammar violation at a span of the source.
type ParseError struct {
	Code   ErrorCode
	Msg    string
	Source string
	Span   Span
}

func (e *ParseError) Error() string {
	line, col := position(e.Source, e.Span.Start)
	return fmt.Sprintf("%d:%d: %s in %q", line, col, e.Msg, e.Source)
}

// Is lets errors.Is match ErrMixedTagAndLiteral.
func (e *ParseError) Is(target error) bool {
	return target == ErrMixedTagAndLiteral && e.Code == CodeMixedTagAndLiteral
}

// position converts a byte offset to a 1-based line and column.
func position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}

// Syntax selects the tag grammar of a config file.
type Syntax int

const (
	// SyntaxCurrent is the expression grammar: {$1}, {name[0]?}, {map('%s', $@)}.
	SyntaxCurrent Syntax = iota
	// SyntaxLegacy is the {(prefix)name?(suffix)} grammar of version 0 files.
	SyntaxLegacy
)

func (s Syntax) String() string {
	if s == SyntaxLegacy {
		return "legacy"
	}
	return "current"
}

// Parse parses a script body in syntax s.
func (s Syntax) Parse(src string) (*Template, error) {
	if s == SyntaxLegacy {
		return ParseLegacy(src)
	}
	return Parse(src)
}

// ParseArg parses a single argument slot in syntax s.
func (s Syntax) ParseArg(src string) (*Template, error) {
	if s == SyntaxLegacy {
		return ParseLegacyArg(src)
	}
	return ParseArg(src)
}

// Parse parses a script body made of literal text, tags and comments.
func Parse(src string) (*Template, error) {
	p := &parser{src: src}
	nodes, err := p.parseAll()
	if err != nil {
		return nil, err
	}
	return &Template{Source: src, Nodes: nodes}, nil
}

// ParseArg parses an argument slot. The slot must be exactly one tag or
// literal text only.
func ParseArg(src string) (*Template, error) {
	t, err := Parse(src)
	if err != nil {
		return nil, err
	}
	var tags, literals int
	for _, n := range t.Nodes {
		switch n := n.(type) {
		case *Tag:
			tags++
			if tags > 1 {
				return nil, &ParseError{Code: CodeMixedTagAndLiteral, Msg: "an argument can hold only one tag", Source: src, Span: n.Span}
			}
		case *Literal:
			literals++
		}
	}
	if tags == 1 && literals > 0 {
		return nil, &ParseError{Code: CodeMixedTagAndLiteral, Msg: "an argument cannot mix a tag with literal text", Source: src, Span: Span{0, len(src)}}
	}
	return t, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) at(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) errorf(code ErrorCode, start int, format string, args ...any) error {
	end := p.pos
	if end < start {
		end = start
	}
	return &ParseError{Code: code, Msg: fmt.Sprintf(format, args...), Source: p.src, Span: Span{start, end}}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseAll() ([]Node, error) {
	var nodes []Node
	var lit strings.Builder
	litStart := -1

	flush := func() {
		if litStart >= 0 {
			nodes = append(nodes, &Literal{Text: lit.String(), Span: Span{litStart, p.pos}})
			lit.Reset()
			litStart = -1
		}
	}
	appendLit := func(s string, width int) {
		if litStart < 0 {
			litStart = p.pos
		}
		lit.WriteString(s)
		p.pos += width
	}

	for !p.eof() {
		switch {
		case p.at("{{"):
			appendLit("{", 2)
		case p.at("}}"):
			appendLit("}", 2)
		case p.at("{/"):
			flush()
			c, err := p.parseComment()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, c)
		case p.peek() == '{':
			flush()
			tag, err := p.parseTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, tag)
		case p.peek() == '}':
			return nil, p.errorf(CodeUnescapedBrace, p.pos, "unescaped '}'")
		default:
			appendLit(p.src[p.pos:p.pos+1], 1)
		}
	}
	flush()
	return nodes, nil
}

func (p *parser) parseComment() (*Comment, error) {
	start := p.pos
	end := strings.Index(p.src[p.pos+2:], "/}")
	if end < 0 {
		p.pos = len(p.src)
		return nil, p.errorf(CodeUnclosedTag, start, "unclosed comment")
	}
	text := p.src[p.pos+2 : p.pos+2+end]
	p.pos += 2 + end + 2
	return &Comment{Text: text, Span: Span{start, p.pos}}, nil
}

func (p *parser) parseTag() (*Tag, error) {
	start := p.pos
	p.pos++
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(CodeUnclosedTag, start, "unclosed tag")
	}
	if p.peek() == '}' {
		p.pos++
		return nil, p.errorf(CodeEmptyTag, start, "empty tag")
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf(CodeUnclosedTag, start, "unclosed tag")
	}
	if p.peek() != '}' {
		return nil, p.errorf(CodeSyntax, p.pos, "unexpected %q in tag", p.peek())
	}
	p.pos++
	return &Tag{Expr: e, Span: Span{start, p.pos}}, nil
}

func (p *parser) parseExpression() (*Expression, error) {
	start := p.pos
	inner, err := p.parseInner()
	if err != nil {
		return nil, err
	}
	e := &Expression{Inner: inner}
	for p.peek() == '[' {
		s, err := p.parseSlice()
		if err != nil {
			return nil, err
		}
		e.Slices = append(e.Slices, s)
	}
	if p.peek() == '?' {
		p.pos++
		e.Optional = true
	}
	e.Span = Span{start, p.pos}
	e.Text = p.src[start:p.pos]
	return e, nil
}

func (p *parser) parseInner() (Ref, error) {
	start := p.pos
	c := p.peek()
	switch {
	case c == '$':
		p.pos++
		switch next := p.peek(); {
		case next == '@':
			p.pos++
			return AllArgs{}, nil
		case isDigit(next):
			digits := p.scanWhile(isDigit)
			n, err := strconv.Atoi(digits)
			if err != nil {
				return nil, p.errorf(CodeSyntax, start, "invalid positional argument $%s", digits)
			}
			if n == 0 {
				return nil, p.errorf(CodeSyntax, start, "positional arguments start at $1")
			}
			return PositionalArg{Index: n}, nil
		case isIdentStart(next):
			return EnvVar{Name: p.scanIdent()}, nil
		default:
			return nil, p.errorf(CodeSyntax, start, "expected '@', a number or a name after '$'")
		}
	case c == '\'' || c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return StringLiteral{Value: s}, nil
	case isIdentStart(c):
		name := p.scanIdent()
		save := p.pos
		p.skipSpace()
		if p.peek() == '(' {
			return p.parseCall(name)
		}
		p.pos = save
		return NamedArg{Name: name}, nil
	case c == 0:
		return nil, p.errorf(CodeUnclosedTag, start, "unexpected end of input")
	default:
		return nil, p.errorf(CodeSyntax, start, "unexpected %q, expected an expression", c)
	}
}

func (p *parser) parseCall(name string) (Ref, error) {
	start := p.pos
	p.pos++ // (
	call := FunctionCall{Name: name}
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return call, nil
	}
	for {
		p.skipSpace()
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return call, nil
		case 0:
			return nil, p.errorf(CodeSyntax, start, "unclosed argument list of %s", name)
		default:
			return nil, p.errorf(CodeSyntax, p.pos, "expected ',' or ')' in arguments of %s", name)
		}
	}
}

func (p *parser) parseSlice() (Slice, error) {
	start := p.pos
	p.pos++ // [
	p.skipSpace()
	from, err := p.parseSignedInt()
	if err != nil {
		return Slice{}, err
	}
	p.skipSpace()
	var s Slice
	if p.peek() == ':' {
		p.pos++
		p.skipSpace()
		to, err := p.parseSignedInt()
		if err != nil {
			return Slice{}, err
		}
		s = Slice{IsRange: true, From: from, To: to}
	} else {
		if from == nil {
			return Slice{}, p.errorf(CodeSyntax, start, "expected an index or a range")
		}
		s = Slice{Index: *from}
	}
	p.skipSpace()
	if p.peek() != ']' {
		return Slice{}, p.errorf(CodeSyntax, start, "unclosed slice")
	}
	p.pos++
	return s, nil
}

// parseSignedInt returns nil when no integer starts at the current position.
func (p *parser) parseSignedInt() (*int, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digits := p.scanWhile(isDigit)
	if digits == "" {
		if p.pos > start {
			return nil, p.errorf(CodeSyntax, start, "expected digits after '-'")
		}
		return nil, nil
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return nil, p.errorf(CodeSyntax, start, "invalid index %s", p.src[start:p.pos])
	}
	return &n, nil
}

func (p *parser) parseString() (string, error) {
	start := p.pos
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.eof() || p.peek() == '\n' {
			return "", p.errorf(CodeSyntax, start, "unterminated string literal")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			p.pos++
			if p.eof() {
				return "", p.errorf(CodeSyntax, start, "unterminated string literal")
			}
			r, ok := unescape(p.src[p.pos])
			if !ok {
				return "", p.errorf(CodeSyntax, p.pos-1, "unknown escape sequence \\%c", p.src[p.pos])
			}
			b.WriteByte(r)
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func unescape(c byte) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return c, true
	}
	return 0, false
}

func (p *parser) scanWhile(pred func(byte) bool) string {
	start := p.pos
	for !p.eof() && pred(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) scanIdent() string {
	start := p.pos
	p.pos++
	p.scanWhile(isIdentPart)
	return p.src[start:p.pos]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-'
}
