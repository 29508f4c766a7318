package expr

import (
	"errors"
	"strings"
	"testing"
)

func testContext() *Context {
	return NewContext(
		[]string{"a", "--f=out1.txt", "--f", "out2.txt"},
		map[string]string{"HOME": "/home/user", "EMPTY": ""},
		"/work",
	)
}

func evalSource(t *testing.T, src string, ctx *Context) (Value, error) {
	t.Helper()
	return Eval(mustTag(t, "{"+src+"}"), ctx)
}

func TestEval(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		want Value
	}{
		{"$1", Str("a")},
		{"$3", Str("--f")},
		{"$@", List("a", "--f=out1.txt", "--f", "out2.txt")},
		{"f", List("out1.txt", "out2.txt")},
		{"$HOME", Str("/home/user")},
		{"'lit'", Str("lit")},
		{"$5?", Str("")},
		{"g?", List()},
		{"$NOPE?", Str("")},
		{"$EMPTY?", Str("")},
		{"f[0]", Str("out1.txt")},
		{"f[-1]", Str("out2.txt")},
		{"f[5]?", Str("")},
		{"f[0:0]", List()},
		{"f[:]", List("out1.txt", "out2.txt")},
		{"f[1:10]", List("out2.txt")},
		{"f[-10:1]", List("out1.txt")},
		{"f[2:1]", List()},
		{"f[5:]", List()},
		{"g[1:]?", List()},
		{"$1[0]", Str("a")},
		{"'hello'[1:3]", Str("el")},
		{"'hello'[-1]", Str("o")},
		{"'hello'[:-1]", Str("hell")},
		{"'héllo'[1]", Str("é")},
		{"$HOME[1:5]", Str("home")},
		{"map('%s.txt', f)", List("out1.txt.txt", "out2.txt.txt")},
		{"map('-{}', $1)", Str("-a")},
		{"join(',', f)", Str("out1.txt,out2.txt")},
		{"join(',', $1)", Str("a")},
		{"flat('[{}]', f)", Str("[out1.txt][out2.txt]")},
		{"jmap('{} ', f)", Str("out1.txt out2.txt ")},
		{"fmt('{}-%s', $1, 'b')", Str("a-b")},
		{"fmt('plain')", Str("plain")},
		{"trim('  x \\n')", Str("x")},
		{"trim(split(',', ' a , b '))", List("a", "b")},
		{"split(',', 'a,b,,c')", List("a", "b", "", "c")},
		{"split(',', '')", List()},
		{"join(',', g)?", Str("")},
		{"join(',', g?)", Str("")},
		{"map('{}', g)?", List()},
		{"split(',', $9)?", List()},
		{"map('{}', f)[1]", Str("out2.txt")},
		{"fmt('{}', f[0])", Str("out1.txt")},
	}
	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := evalSource(t, tt.src, ctx)
			if err != nil {
				t.Fatalf("Eval(%s) error = %v", tt.src, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Eval(%s) = %#v, want %#v", tt.src, got, tt.want)
			}
		})
	}
}

func TestEval_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src  string
		kind EvalErrorKind
	}{
		{"$5", MissingValue},
		{"g", MissingValue},
		{"$NOPE", MissingValue},
		{"$EMPTY", MissingValue},
		{"f[5]", IndexOutOfRange},
		{"'abc'[-4]", IndexOutOfRange},
		{"nope('x')", UnknownFunction},
		{"nope('x')?", UnknownFunction},
		{"map('%s')", TypeMismatch},
		{"map(f, 'x')", TypeMismatch},
		{"map('{}{}', f)", TypeMismatch},
		{"map('{', f)", TypeMismatch},
		{"fmt('{}', f)", TypeMismatch},
		{"fmt('{}')", TypeMismatch},
		{"fmt()", TypeMismatch},
		{"split(',', f)", TypeMismatch},
		{"trim()", TypeMismatch},
		{"join(',', f)[50]", IndexOutOfRange},
		{"join(',', g?)[0]", IndexOutOfRange},
		{"fmt('{}', f)?", TypeMismatch},
	}
	ctx := testContext()
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := evalSource(t, tt.src, ctx)
			var ee *EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("Eval(%s) error = %v, want *EvalError", tt.src, err)
			}
			if ee.Kind != tt.kind {
				t.Errorf("Eval(%s) kind = %v, want %v (%v)", tt.src, ee.Kind, tt.kind, ee)
			}
		})
	}
}

func TestEval_UnknownFunctionListsAvailable(t *testing.T) {
	t.Parallel()
	_, err := evalSource(t, "upper(f)", testContext())
	want := "unknown function upper (available: flat, fmt, jmap, join, map, split, trim)"
	if err == nil || err.Error() != want {
		t.Errorf("Eval(upper(f)) error = %v, want %q", err, want)
	}
}

func TestEval_EmptyContext(t *testing.T) {
	t.Parallel()
	ctx := NewContext(nil, nil, "")
	if _, err := evalSource(t, "$@", ctx); !IsMissing(err) {
		t.Errorf("Eval($@) error = %v, want missing value", err)
	}
	got, err := evalSource(t, "$@?", ctx)
	if err != nil || !got.Equal(List()) {
		t.Errorf("Eval($@?) = %#v, %v; want empty list", got, err)
	}
}

func TestEval_LegacyPrefixSuffix(t *testing.T) {
	t.Parallel()
	tmpl, err := ParseLegacy("{(-o )f(.bak)}{(-x)g?}")
	if err != nil {
		t.Fatalf("ParseLegacy() error = %v", err)
	}
	tags := tmpl.Tags()
	ctx := testContext()

	got, err := Eval(tags[0].Expr, ctx)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if want := List("-o out1.txt.bak", "-o out2.txt.bak"); !got.Equal(want) {
		t.Errorf("Eval() = %#v, want %#v", got, want)
	}

	got, err = Eval(tags[1].Expr, ctx)
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("Eval() of missing optional = %#v, want empty", got)
	}
}

func TestEval_SplitJoinRoundTrip(t *testing.T) {
	t.Parallel()
	inputs := []string{"a,b,c", "single", ",leading", "trailing,", "a,,b", "", "x y,z"}
	for _, s := range inputs {
		ctx := NewContext(nil, map[string]string{"S": s}, "")
		got, err := evalSource(t, "join(',', map('%s', split(',', $S?)))", ctx)
		if err != nil {
			t.Fatalf("round trip %q error = %v", s, err)
		}
		if got.String() != s {
			t.Errorf("round trip %q = %q", s, got.String())
		}
	}
}

func TestEval_NegativeIndexMatchesLength(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 5; n++ {
		args := strings.Fields(strings.Repeat("x ", n-1) + "last")
		ctx := NewContext(args, nil, "")
		neg, err := evalSource(t, "$@[-1]", ctx)
		if err != nil {
			t.Fatalf("n=%d: error = %v", n, err)
		}
		pos, err := Eval(&Expression{Inner: AllArgs{}, Slices: []Slice{{Index: n - 1}}}, ctx)
		if err != nil {
			t.Fatalf("n=%d: error = %v", n, err)
		}
		if !neg.Equal(pos) {
			t.Errorf("n=%d: [-1] = %v, [n-1] = %v", n, neg, pos)
		}
	}
}
