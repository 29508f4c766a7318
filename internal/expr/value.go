// Package expr implements the tag language embedded in task scripts and
// arguments: parsing templates into an AST, evaluating expressions against a
// runtime context, and the built-in function library.
package expr

import (
	"slices"
	"strings"
)

// Value is the only runtime datatype of the tag language.
// It holds either a single string or an ordered list of strings.
type Value struct {
	list  bool
	str   string
	items []string
}

// Str returns a scalar string value.
func Str(s string) Value {
	return Value{str: s}
}

// List returns a list value holding items in order.
func List(items ...string) Value {
	return Value{list: true, items: slices.Clone(items)}
}

// IsList reports whether v is a list.
func (v Value) IsList() bool {
	return v.list
}

// Items returns the elements of a list, or a single-element slice for a string.
func (v Value) Items() []string {
	if v.list {
		return slices.Clone(v.items)
	}
	return []string{v.str}
}

// IsEmpty reports whether v is the empty string or an empty list.
func (v Value) IsEmpty() bool {
	if v.list {
		return len(v.items) == 0
	}
	return v.str == ""
}

// Equal reports whether two values have the same shape and contents.
func (v Value) Equal(other Value) bool {
	if v.list != other.list {
		return false
	}
	if v.list {
		return slices.Equal(v.items, other.items)
	}
	return v.str == other.str
}

// String returns the scalar string, or the list elements joined by a space.
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, " ")
	}
	return v.str
}

// mapItems applies fn to every string in v, preserving its shape.
func (v Value) mapItems(fn func(string) (string, error)) (Value, error) {
	if !v.list {
		s, err := fn(v.str)
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	}
	out := make([]string, 0, len(v.items))
	for _, item := range v.items {
		s, err := fn(item)
		if err != nil {
			return Value{}, err
		}
		out = append(out, s)
	}
	return Value{list: true, items: out}, nil
}
