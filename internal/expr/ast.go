package expr

// Span is a half-open byte range [Start, End) in the parsed source.
type Span struct {
	Start int
	End   int
}

// Node is a top-level unit of a parsed template.
type Node interface {
	node()
	Pos() Span
}

// Literal is verbatim text outside tags, with escaped braces collapsed.
type Literal struct {
	Text string
	Span Span
}

// Tag is a {...} region holding one expression.
type Tag struct {
	Expr *Expression
	Span Span
}

// Comment is a {/ ... /} region. It is kept in the tree but never evaluated.
type Comment struct {
	Text string
	Span Span
}

func (*Literal) node() {}
func (*Tag) node()     {}
func (*Comment) node() {}

func (n *Literal) Pos() Span { return n.Span }
func (n *Tag) Pos() Span     { return n.Span }
func (n *Comment) Pos() Span { return n.Span }

// Ref is the inner reference of an expression.
type Ref interface {
	ref()
}

// PositionalArg references the Index-th (1-based) raw argument.
type PositionalArg struct {
	Index int
}

// AllArgs references the whole raw argument vector.
type AllArgs struct{}

// NamedArg references every value bound to a named argument.
type NamedArg struct {
	Name string
}

// EnvVar references an environment variable.
type EnvVar struct {
	Name string
}

// StringLiteral is a quoted string with its escapes resolved.
type StringLiteral struct {
	Value string
}

// FunctionCall invokes a built-in function.
type FunctionCall struct {
	Name string
	Args []*Expression
}

func (PositionalArg) ref() {}
func (AllArgs) ref()       {}
func (NamedArg) ref()      {}
func (EnvVar) ref()        {}
func (StringLiteral) ref() {}
func (FunctionCall) ref()  {}

// Slice is an [i] or [from:to] postfix. Negative bounds count from the end.
type Slice struct {
	IsRange bool
	Index   int
	From    *int
	To      *int
}

// Expression is a reference followed by slices and an optional marker.
// Prefix and Suffix are only set by the legacy syntax and wrap every
// produced string.
type Expression struct {
	Inner    Ref
	Slices   []Slice
	Optional bool
	Prefix   string
	Suffix   string
	Text     string
	Span     Span
}

// Template is a parsed script body or argument slot.
type Template struct {
	Source string
	Nodes  []Node
}

// Tags returns the tags of t in source order.
func (t *Template) Tags() []*Tag {
	var tags []*Tag
	for _, n := range t.Nodes {
		if tag, ok := n.(*Tag); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Slot splits an argument template into the literal text before its tag,
// the tag itself and the literal text after it. tag is nil for a literal-only
// argument, in which case before holds the whole text.
func (t *Template) Slot() (before string, tag *Tag, after string) {
	for _, n := range t.Nodes {
		switch n := n.(type) {
		case *Literal:
			if tag == nil {
				before += n.Text
			} else {
				after += n.Text
			}
		case *Tag:
			tag = n
		}
	}
	return before, tag, after
}
