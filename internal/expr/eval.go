package expr

import (
	"errors"
	"fmt"
	"strings"
)

// EvalErrorKind classifies an EvalError.
type EvalErrorKind int

const (
	MissingValue EvalErrorKind = iota + 1
	IndexOutOfRange
	UnknownFunction
	TypeMismatch
)

func (k EvalErrorKind) String() string {
	switch k {
	case MissingValue:
		return "missing value"
	case IndexOutOfRange:
		return "index out of range"
	case UnknownFunction:
		return "unknown function"
	case TypeMismatch:
		return "type mismatch"
	}
	return "unknown"
}

// EvalError reports a failed evaluation.
type EvalError struct {
	Kind EvalErrorKind
	Msg  string
}

func (e *EvalError) Error() string {
	return e.Msg
}

// Missing reports whether the error is suppressed by an optional marker.
func (e *EvalError) Missing() bool {
	return e.Kind == MissingValue || e.Kind == IndexOutOfRange
}

// IsMissing reports whether err is a MissingValue or IndexOutOfRange error.
func IsMissing(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee) && ee.Missing()
}

func missingf(format string, args ...any) error {
	return &EvalError{Kind: MissingValue, Msg: fmt.Sprintf(format, args...)}
}

// Eval evaluates e against ctx.
func Eval(e *Expression, ctx *Context) (Value, error) {
	v, err := evalRef(e.Inner, ctx)
	for i := 0; err == nil && i < len(e.Slices); i++ {
		v, err = e.Slices[i].apply(v)
	}
	if err != nil {
		if e.Optional && IsMissing(err) {
			return e.emptyValue(), nil
		}
		return Value{}, err
	}
	if e.Prefix != "" || e.Suffix != "" {
		if v.IsEmpty() {
			return v, nil
		}
		v, _ = v.mapItems(func(s string) (string, error) {
			return e.Prefix + s + e.Suffix, nil
		})
	}
	return v, nil
}

func evalRef(r Ref, ctx *Context) (Value, error) {
	switch r := r.(type) {
	case PositionalArg:
		if r.Index > len(ctx.Args) || ctx.Args[r.Index-1] == "" {
			return Value{}, missingf("positional argument $%d is required", r.Index)
		}
		return Str(ctx.Args[r.Index-1]), nil
	case AllArgs:
		if len(ctx.Args) == 0 {
			return Value{}, missingf("at least one argument is required")
		}
		return List(ctx.Args...), nil
	case NamedArg:
		values := ctx.Named[r.Name]
		if len(values) == 0 {
			return Value{}, missingf("argument --%s is required", r.Name)
		}
		return List(values...), nil
	case EnvVar:
		val, ok := ctx.Env[r.Name]
		if !ok || val == "" {
			return Value{}, missingf("environment variable %s is not set", r.Name)
		}
		return Str(val), nil
	case StringLiteral:
		return Str(r.Value), nil
	case FunctionCall:
		fn, ok := functions[r.Name]
		if !ok {
			return Value{}, &EvalError{Kind: UnknownFunction, Msg: fmt.Sprintf("unknown function %s (available: %s)", r.Name, strings.Join(FunctionNames(), ", "))}
		}
		args := make([]Value, 0, len(r.Args))
		for _, a := range r.Args {
			v, err := Eval(a, ctx)
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
		}
		return fn(args)
	}
	return Value{}, fmt.Errorf("unsupported reference %T", r)
}

// emptyValue is the empty value matching the natural shape of e.
func (e *Expression) emptyValue() Value {
	if e.returnsList() {
		return List()
	}
	return Str("")
}

func (e *Expression) returnsList() bool {
	list := false
	switch r := e.Inner.(type) {
	case AllArgs, NamedArg:
		list = true
	case FunctionCall:
		list = r.returnsList()
	}
	for _, s := range e.Slices {
		if !s.IsRange {
			list = false
		}
	}
	return list
}

func (s Slice) apply(v Value) (Value, error) {
	var n int
	var runes []rune
	if v.IsList() {
		n = len(v.items)
	} else {
		runes = []rune(v.str)
		n = len(runes)
	}

	if !s.IsRange {
		i := s.Index
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return Value{}, &EvalError{Kind: IndexOutOfRange, Msg: fmt.Sprintf("index %d out of range for length %d", s.Index, n)}
		}
		if v.IsList() {
			return Str(v.items[i]), nil
		}
		return Str(string(runes[i])), nil
	}

	from, to := clampBound(s.From, 0, n), clampBound(s.To, n, n)
	if from > to {
		from = to
	}
	if v.IsList() {
		return List(v.items[from:to]...), nil
	}
	return Str(string(runes[from:to])), nil
}

func clampBound(b *int, def, n int) int {
	if b == nil {
		return def
	}
	i := *b
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}
