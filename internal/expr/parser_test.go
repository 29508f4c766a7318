package expr

import (
	"errors"
	"reflect"
	"testing"
)

func mustTag(t *testing.T, src string) *Expression {
	t.Helper()
	tmpl, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", src, err)
	}
	tags := tmpl.Tags()
	if len(tags) != 1 {
		t.Fatalf("Parse(%q) produced %d tags, want 1", src, len(tags))
	}
	return tags[0].Expr
}

func intp(i int) *int { return &i }

func TestParse_LiteralOnly(t *testing.T) {
	t.Parallel()
	for _, src := range []string{"echo hello", "a = b; c", "multi\nline\ttext", "ünïcödé"} {
		tmpl, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", src, err)
		}
		if len(tmpl.Nodes) != 1 {
			t.Fatalf("Parse(%q) = %d nodes, want 1", src, len(tmpl.Nodes))
		}
		lit, ok := tmpl.Nodes[0].(*Literal)
		if !ok || lit.Text != src {
			t.Errorf("Parse(%q) = %#v, want Literal(%q)", src, tmpl.Nodes[0], src)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	tmpl, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") error = %v", err)
	}
	if len(tmpl.Nodes) != 0 {
		t.Errorf("Parse(\"\") = %d nodes, want 0", len(tmpl.Nodes))
	}
}

func TestParse_EscapedBraces(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want string
	}{
		{"{{", "{"},
		{"}}", "}"},
		{"a {{b}} c", "a {b} c"},
		{"{{/ not a comment /}}", "{/ not a comment /}"},
		{"{{}}", "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tmpl, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(tmpl.Nodes) != 1 {
				t.Fatalf("Parse() = %d nodes, want 1", len(tmpl.Nodes))
			}
			if got := tmpl.Nodes[0].(*Literal).Text; got != tt.want {
				t.Errorf("Parse() literal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_BracesAroundTag(t *testing.T) {
	t.Parallel()
	tmpl, err := Parse("{{{$1}}}")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tmpl.Nodes) != 3 {
		t.Fatalf("Parse() = %d nodes, want 3", len(tmpl.Nodes))
	}
	if tmpl.Nodes[0].(*Literal).Text != "{" || tmpl.Nodes[2].(*Literal).Text != "}" {
		t.Errorf("Parse() literals = %q, %q", tmpl.Nodes[0].(*Literal).Text, tmpl.Nodes[2].(*Literal).Text)
	}
	if got := tmpl.Nodes[1].(*Tag).Expr.Inner; got != (PositionalArg{Index: 1}) {
		t.Errorf("Parse() tag = %#v, want PositionalArg(1)", got)
	}
}

func TestParse_References(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want Ref
	}{
		{"{$1}", PositionalArg{Index: 1}},
		{"{$12}", PositionalArg{Index: 12}},
		{"{$@}", AllArgs{}},
		{"{name}", NamedArg{Name: "name"}},
		{"{out-file}", NamedArg{Name: "out-file"}},
		{"{_x}", NamedArg{Name: "_x"}},
		{"{$HOME}", EnvVar{Name: "HOME"}},
		{"{'single'}", StringLiteral{Value: "single"}},
		{`{"double"}`, StringLiteral{Value: "double"}},
		{`{'a\nb\t\\\'\"\0'}`, StringLiteral{Value: "a\nb\t\\'\"\x00"}},
		{`{"it's"}`, StringLiteral{Value: "it's"}},
		{"{  $1  }", PositionalArg{Index: 1}},
		{"{\n$1\n}", PositionalArg{Index: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := mustTag(t, tt.src)
			if !reflect.DeepEqual(e.Inner, tt.want) {
				t.Errorf("Inner = %#v, want %#v", e.Inner, tt.want)
			}
		})
	}
}

func TestParse_FunctionCall(t *testing.T) {
	t.Parallel()
	e := mustTag(t, "{ map( '%s.txt' , join(',', f?) ) }")
	call, ok := e.Inner.(FunctionCall)
	if !ok {
		t.Fatalf("Inner = %#v, want FunctionCall", e.Inner)
	}
	if call.Name != "map" || len(call.Args) != 2 {
		t.Fatalf("call = %s with %d args", call.Name, len(call.Args))
	}
	if got := call.Args[0].Inner; got != (StringLiteral{Value: "%s.txt"}) {
		t.Errorf("arg 1 = %#v", got)
	}
	inner, ok := call.Args[1].Inner.(FunctionCall)
	if !ok || inner.Name != "join" {
		t.Fatalf("arg 2 = %#v, want join call", call.Args[1].Inner)
	}
	if !inner.Args[1].Optional {
		t.Error("nested f? should be optional")
	}

	e = mustTag(t, "{fmt()}")
	if call := e.Inner.(FunctionCall); len(call.Args) != 0 {
		t.Errorf("fmt() args = %d, want 0", len(call.Args))
	}
}

func TestParse_SlicesAndOptional(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src      string
		slices   []Slice
		optional bool
	}{
		{"{f[0]}", []Slice{{Index: 0}}, false},
		{"{f[-1]?}", []Slice{{Index: -1}}, true},
		{"{f[1:]}", []Slice{{IsRange: true, From: intp(1)}}, false},
		{"{f[:2]}", []Slice{{IsRange: true, To: intp(2)}}, false},
		{"{f[:]}", []Slice{{IsRange: true}}, false},
		{"{f[-2:-1]}", []Slice{{IsRange: true, From: intp(-2), To: intp(-1)}}, false},
		{"{f[1:][0]?}", []Slice{{IsRange: true, From: intp(1)}, {Index: 0}}, true},
		{"{f[ 1 : 2 ]}", []Slice{{IsRange: true, From: intp(1), To: intp(2)}}, false},
		{"{$@?}", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e := mustTag(t, tt.src)
			if !reflect.DeepEqual(e.Slices, tt.slices) {
				t.Errorf("Slices = %#v, want %#v", e.Slices, tt.slices)
			}
			if e.Optional != tt.optional {
				t.Errorf("Optional = %v, want %v", e.Optional, tt.optional)
			}
		})
	}
}

func TestParse_Comment(t *testing.T) {
	t.Parallel()
	tmpl, err := Parse("a{/ note {$1}\n more /}b")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tmpl.Nodes) != 3 {
		t.Fatalf("Parse() = %d nodes, want 3", len(tmpl.Nodes))
	}
	c, ok := tmpl.Nodes[1].(*Comment)
	if !ok {
		t.Fatalf("node 1 = %#v, want Comment", tmpl.Nodes[1])
	}
	if c.Text != " note {$1}\n more " {
		t.Errorf("Comment.Text = %q", c.Text)
	}
	if len(tmpl.Tags()) != 0 {
		t.Error("comment content must not produce tags")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		code ErrorCode
	}{
		{"{", CodeUnclosedTag},
		{"{$1", CodeUnclosedTag},
		{"echo }", CodeUnescapedBrace},
		{"{}", CodeEmptyTag},
		{"{ }", CodeEmptyTag},
		{"{$0}", CodeSyntax},
		{"{$}", CodeSyntax},
		{"{1}", CodeSyntax},
		{"{'abc}", CodeSyntax},
		{"{'a\nb'}", CodeSyntax},
		{`{'\q'}`, CodeSyntax},
		{"{f[}", CodeSyntax},
		{"{f[]}", CodeSyntax},
		{"{f[-]}", CodeSyntax},
		{"{f[1}", CodeSyntax},
		{"{map('%s', $@}", CodeSyntax},
		{"{map('%s' $@)}", CodeSyntax},
		{"{$1 $2}", CodeSyntax},
		{"{/ unclosed", CodeUnclosedTag},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", tt.src, err)
			}
			if pe.Code != tt.code {
				t.Errorf("Parse(%q) code = %d, want %d (%v)", tt.src, pe.Code, tt.code, pe)
			}
		})
	}
}

func TestParseError_Position(t *testing.T) {
	t.Parallel()
	_, err := Parse("line one\nsecond {$0}")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Span.Start != 17 {
		t.Errorf("Span.Start = %d, want 17", pe.Span.Start)
	}
	line, col := position(pe.Source, pe.Span.Start)
	if line != 2 || col != 9 {
		t.Errorf("position = %d:%d, want 2:9", line, col)
	}
}

func TestParseArg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src   string
		mixed bool
	}{
		{"{$1}", false},
		{"--verbose", false},
		{"", false},
		{"a {{b}}", false},
		{"-o{$1}", true},
		{"{$1}.txt", true},
		{"{$1}{$2}", true},
		{"{$1} ", true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := ParseArg(tt.src)
			if tt.mixed {
				if !errors.Is(err, ErrMixedTagAndLiteral) {
					t.Errorf("ParseArg(%q) error = %v, want ErrMixedTagAndLiteral", tt.src, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseArg(%q) error = %v", tt.src, err)
			}
		})
	}
}

func TestTemplate_Slot(t *testing.T) {
	t.Parallel()
	tmpl, err := ParseLegacyArg("--out={(x)f}.txt")
	if err != nil {
		t.Fatalf("ParseLegacyArg() error = %v", err)
	}
	before, tag, after := tmpl.Slot()
	if before != "--out=" || after != ".txt" || tag == nil {
		t.Errorf("Slot() = %q, %v, %q", before, tag, after)
	}

	tmpl, _ = ParseArg("plain")
	before, tag, after = tmpl.Slot()
	if before != "plain" || tag != nil || after != "" {
		t.Errorf("Slot() = %q, %v, %q", before, tag, after)
	}
}
