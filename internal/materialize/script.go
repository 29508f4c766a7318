package materialize

import (
	"strings"
	"unicode"

	"github.com/tsk-dev/tsk/internal/config"
	"github.com/tsk-dev/tsk/internal/expr"
)

// RenderScript evaluates the tags of a script body. List values are unpacked
// into space separated tokens, each quoted according to quote. Literal text
// is kept verbatim and comments are dropped.
func RenderScript(syntax expr.Syntax, src string, ctx *expr.Context, quote config.QuoteMode) (string, error) {
	tmpl, err := syntax.Parse(src)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(src))
	for _, n := range tmpl.Nodes {
		switch n := n.(type) {
		case *expr.Literal:
			b.WriteString(n.Text)
		case *expr.Tag:
			v, err := expr.Eval(n.Expr, ctx)
			if err != nil {
				return "", err
			}
			if v.IsEmpty() && (v.IsList() || n.Expr.Optional) {
				continue
			}
			for i, item := range v.Items() {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(quoteToken(item, quote))
			}
		}
	}
	return b.String(), nil
}

// quoteToken wraps s in double quotes as required by mode. The value itself
// is not escaped.
func quoteToken(s string, mode config.QuoteMode) string {
	switch mode {
	case config.QuoteNever:
		return s
	case config.QuoteSpaces:
		if !strings.ContainsFunc(s, unicode.IsSpace) {
			return s
		}
	}
	return `"` + s + `"`
}
