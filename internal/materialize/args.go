package materialize

import (
	"fmt"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/tsk-dev/tsk/internal/expr"
)

// slotError is a failure in one argument template.
type slotError struct {
	index int
	err   error
}

func (e *slotError) Error() string {
	return fmt.Sprintf("argument %d: %v", e.index+1, e.err)
}

func (e *slotError) Unwrap() error {
	return e.err
}

// expandArgs evaluates argument templates into an argument vector.
func expandArgs(syntax expr.Syntax, templates []string, ctx *expr.Context) ([]string, error) {
	argv := make([]string, 0, len(templates))
	for i, src := range templates {
		words, err := expandSlot(syntax, src, ctx)
		if err != nil {
			return nil, &slotError{index: i, err: err}
		}
		argv = append(argv, words...)
	}
	return argv, nil
}

// expandSlot evaluates one argument template. A list unpacks into one word
// per element, each wrapped by the literal text around the tag; an empty
// list or an empty optional value produces no word at all.
func expandSlot(syntax expr.Syntax, src string, ctx *expr.Context) ([]string, error) {
	tmpl, err := syntax.ParseArg(src)
	if err != nil {
		return nil, err
	}
	before, tag, after := tmpl.Slot()
	if tag == nil {
		if !hasLiteral(tmpl) && src != "" {
			return nil, nil // comments only
		}
		return []string{before}, nil
	}

	if words, ok, err := expandMapWords(tag.Expr, ctx); ok || err != nil {
		return wrapAll(words, before, after), err
	}

	v, err := expr.Eval(tag.Expr, ctx)
	if err != nil {
		return nil, err
	}
	if v.IsEmpty() && (v.IsList() || tag.Expr.Optional) {
		return nil, nil
	}
	return wrapAll(v.Items(), before, after), nil
}

// expandMapWords handles a slot that is exactly {map('fmt', v)} where fmt
// contains whitespace, such as {map('-o %s', files)}. The format is split
// into shell words and every word is formatted once per element, so that
// each element yields several arguments and element values are never split.
func expandMapWords(e *expr.Expression, ctx *expr.Context) ([]string, bool, error) {
	call, ok := e.Inner.(expr.FunctionCall)
	if !ok || call.Name != "map" || len(call.Args) != 2 || len(e.Slices) > 0 {
		return nil, false, nil
	}
	fmtExpr := call.Args[0]
	lit, ok := fmtExpr.Inner.(expr.StringLiteral)
	if !ok || len(fmtExpr.Slices) > 0 || !strings.ContainsAny(lit.Value, " \t\n") {
		return nil, false, nil
	}
	formats, err := shlex.Split(lit.Value, true)
	if err != nil {
		return nil, true, fmt.Errorf("map format %q: %w", lit.Value, err)
	}

	v, err := expr.Eval(call.Args[1], ctx)
	if err != nil {
		if e.Optional && expr.IsMissing(err) {
			return nil, true, nil
		}
		return nil, true, err
	}
	if v.IsEmpty() && (v.IsList() || e.Optional) {
		return nil, true, nil
	}

	words := make([]string, 0, len(formats)*len(v.Items()))
	for _, item := range v.Items() {
		for _, f := range formats {
			w, err := expr.Format(f, item)
			if err != nil {
				return nil, true, &expr.EvalError{Kind: expr.TypeMismatch, Msg: fmt.Sprintf("map: %v", err)}
			}
			words = append(words, e.Prefix+w+e.Suffix)
		}
	}
	return words, true, nil
}

// evalProgram evaluates the program template, which must produce exactly
// one non-empty word.
func evalProgram(syntax expr.Syntax, src string, ctx *expr.Context) (string, error) {
	words, err := expandSlot(syntax, src, ctx)
	if err != nil {
		return "", err
	}
	if len(words) != 1 || words[0] == "" {
		return "", fmt.Errorf("program %q must evaluate to a single non-empty value, got %d values", src, len(words))
	}
	return words[0], nil
}

func hasLiteral(t *expr.Template) bool {
	for _, n := range t.Nodes {
		if _, ok := n.(*expr.Literal); ok {
			return true
		}
	}
	return false
}

func wrapAll(words []string, before, after string) []string {
	if before == "" && after == "" {
		return words
	}
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = before + w + after
	}
	return out
}
