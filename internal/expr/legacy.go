package expr

import (
	"strconv"
	"strings"
)

// ParseLegacy parses a script body written in the legacy tag syntax:
// {(prefix)name?(suffix)} where name is an identifier, a positional index,
// '*' for all arguments or $NAME for an environment variable.
func ParseLegacy(src string) (*Template, error) {
	p := &parser{src: src}
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

	for !p.eof() {
		switch {
		case p.at("{{"), p.at("}}"):
			if litStart < 0 {
				litStart = p.pos
			}
			lit.WriteByte(p.peek())
			p.pos += 2
		case p.peek() == '{':
			flush()
			tag, err := p.parseLegacyTag()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, tag)
		case p.peek() == '}':
			return nil, p.errorf(CodeUnescapedBrace, p.pos, "unescaped '}'")
		default:
			if litStart < 0 {
				litStart = p.pos
			}
			lit.WriteByte(p.peek())
			p.pos++
		}
	}
	flush()
	return &Template{Source: src, Nodes: nodes}, nil
}

// ParseLegacyArg parses an argument slot in the legacy syntax. Literal text
// may surround a single tag and is applied to every value the tag produces.
func ParseLegacyArg(src string) (*Template, error) {
	t, err := ParseLegacy(src)
	if err != nil {
		return nil, err
	}
	if tags := t.Tags(); len(tags) > 1 {
		return nil, &ParseError{Code: CodeMixedTagAndLiteral, Msg: "an argument can hold only one tag", Source: src, Span: tags[1].Span}
	}
	return t, nil
}

func (p *parser) parseLegacyTag() (*Tag, error) {
	start := p.pos
	p.pos++
	bodyStart := p.pos
	for {
		if p.eof() {
			return nil, p.errorf(CodeUnclosedTag, start, "unclosed tag")
		}
		switch p.peek() {
		case '{':
			return nil, p.errorf(CodeUnescapedBrace, p.pos, "unescaped '{'")
		case '\n':
			return nil, p.errorf(CodeUnclosedTag, start, "unclosed tag")
		}
		if p.peek() == '}' {
			break
		}
		p.pos++
	}
	body := p.src[bodyStart:p.pos]
	p.pos++
	if body == "" {
		return nil, p.errorf(CodeEmptyTag, start, "empty tag")
	}
	e, ok := parseLegacyBody(body)
	if !ok {
		return nil, p.errorf(CodeSyntax, start, "invalid tag {%s}", body)
	}
	e.Span = Span{start, p.pos}
	e.Text = body
	return &Tag{Expr: e, Span: e.Span}, nil
}

func parseLegacyBody(body string) (*Expression, bool) {
	e := &Expression{}
	rest := body
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, false
		}
		e.Prefix = rest[1:end]
		rest = rest[end+1:]
	}
	if strings.HasSuffix(rest, ")") {
		open := strings.LastIndexByte(rest, '(')
		if open < 0 {
			return nil, false
		}
		e.Suffix = rest[open+1 : len(rest)-1]
		rest = rest[:open]
	}
	if strings.HasSuffix(rest, "?") {
		e.Optional = true
		rest = rest[:len(rest)-1]
	}
	switch {
	case rest == "*":
		e.Inner = AllArgs{}
	case strings.HasPrefix(rest, "$") && len(rest) > 1:
		e.Inner = EnvVar{Name: rest[1:]}
	case rest != "" && strings.Trim(rest, "0123456789") == "":
		n, err := strconv.Atoi(rest)
		if err != nil || n == 0 {
			return nil, false
		}
		e.Inner = PositionalArg{Index: n}
	case isLegacyName(rest):
		e.Inner = NamedArg{Name: rest}
	default:
		return nil, false
	}
	return e, true
}

func isLegacyName(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
