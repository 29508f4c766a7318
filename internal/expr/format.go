package expr

import (
	"fmt"
	"strings"
)

// Format substitutes args into the placeholders of format in order.
// Both "{}" and "%s" are placeholders; "{{", "}}" and "%%" are escapes for
// the literal characters. Surplus arguments are ignored.
func Format(format string, args ...string) (string, error) {
	var b strings.Builder
	next := 0
	take := func() (string, error) {
		if next >= len(args) {
			return "", fmt.Errorf("not enough values for format string %q", format)
		}
		next++
		return args[next-1], nil
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		var two string
		if i+1 < len(format) {
			two = format[i : i+2]
		}
		switch {
		case two == "{{", two == "}}", two == "%%":
			b.WriteByte(c)
			i++
		case two == "{}", two == "%s":
			v, err := take()
			if err != nil {
				return "", err
			}
			b.WriteString(v)
			i++
		case c == '{' || c == '}':
			return "", fmt.Errorf("unescaped %q at position %d of format string %q", c, i, format)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
