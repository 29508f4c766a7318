package expr

import (
	"fmt"
	"sort"
	"strings"
)

// Function is a built-in operation over evaluated argument values.
type Function func(args []Value) (Value, error)

var functions = map[string]Function{
	"map":   mapFunc,
	"join":  joinFunc,
	"jmap":  flatFunc,
	"flat":  flatFunc,
	"fmt":   fmtFunc,
	"trim":  trimFunc,
	"split": splitFunc,
}

// FunctionNames returns the names of the built-in functions, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeErrorf(format string, args ...any) error {
	return &EvalError{Kind: TypeMismatch, Msg: fmt.Sprintf(format, args...)}
}

func arity(name string, args []Value, want int) error {
	if len(args) != want {
		return typeErrorf("%s expects %d arguments, got %d", name, want, len(args))
	}
	return nil
}

func scalar(name string, args []Value, i int) (string, error) {
	if args[i].IsList() {
		return "", typeErrorf("%s expects a string at argument %d, got a list", name, i+1)
	}
	return args[i].str, nil
}

func mapFunc(args []Value) (Value, error) {
	if err := arity("map", args, 2); err != nil {
		return Value{}, err
	}
	format, err := scalar("map", args, 0)
	if err != nil {
		return Value{}, err
	}
	return args[1].mapItems(func(s string) (string, error) {
		out, err := Format(format, s)
		if err != nil {
			return "", typeErrorf("map: %v", err)
		}
		return out, nil
	})
}

func joinFunc(args []Value) (Value, error) {
	if err := arity("join", args, 2); err != nil {
		return Value{}, err
	}
	sep, err := scalar("join", args, 0)
	if err != nil {
		return Value{}, err
	}
	if !args[1].IsList() {
		return args[1], nil
	}
	return Str(strings.Join(args[1].items, sep)), nil
}

func flatFunc(args []Value) (Value, error) {
	mapped, err := mapFunc(args)
	if err != nil {
		return Value{}, err
	}
	return joinFunc([]Value{Str(""), mapped})
}

func fmtFunc(args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, typeErrorf("fmt expects at least 1 argument, got 0")
	}
	strs := make([]string, len(args))
	for i := range args {
		s, err := scalar("fmt", args, i)
		if err != nil {
			return Value{}, err
		}
		strs[i] = s
	}
	out, err := Format(strs[0], strs[1:]...)
	if err != nil {
		return Value{}, typeErrorf("fmt: %v", err)
	}
	return Str(out), nil
}

func trimFunc(args []Value) (Value, error) {
	if err := arity("trim", args, 1); err != nil {
		return Value{}, err
	}
	return args[0].mapItems(func(s string) (string, error) {
		return strings.TrimSpace(s), nil
	})
}

func splitFunc(args []Value) (Value, error) {
	if err := arity("split", args, 2); err != nil {
		return Value{}, err
	}
	sep, err := scalar("split", args, 0)
	if err != nil {
		return Value{}, err
	}
	s, err := scalar("split", args, 1)
	if err != nil {
		return Value{}, err
	}
	if s == "" {
		return List(), nil
	}
	return List(strings.Split(s, sep)...), nil
}

// returnsList reports the natural shape of a call, used when an optional
// call has to substitute an empty value.
func (c FunctionCall) returnsList() bool {
	switch c.Name {
	case "split":
		return true
	case "map":
		return len(c.Args) == 2 && c.Args[1].returnsList()
	case "trim":
		return len(c.Args) == 1 && c.Args[0].returnsList()
	}
	return false
}
