package expr

import (
	"maps"
	"regexp"
	"slices"
)

// Context is the immutable per-invocation input of evaluation.
type Context struct {
	// Args holds the raw argument tokens as typed after the task name.
	Args []string
	// Named maps an argument key to every value bound to it, in order.
	Named map[string][]string
	// Env is the merged environment.
	Env map[string]string
	// Dir is the working directory of the invocation.
	Dir string
}

// NewContext builds a Context from raw argument tokens. Named arguments are
// parsed from the same tokens.
func NewContext(args []string, env map[string]string, dir string) *Context {
	return &Context{
		Args:  slices.Clone(args),
		Named: ParseNamedArgs(args),
		Env:   maps.Clone(env),
		Dir:   dir,
	}
}

// WithEnv returns a copy of c whose environment is overlaid with env.
func (c *Context) WithEnv(env map[string]string) *Context {
	merged := make(map[string]string, len(c.Env)+len(env))
	maps.Copy(merged, c.Env)
	maps.Copy(merged, env)
	return &Context{Args: c.Args, Named: c.Named, Env: merged, Dir: c.Dir}
}

var namedArgPattern = regexp.MustCompile(`(?s)^--?([A-Za-z_][A-Za-z0-9_-]*)(=(.*))?$`)

// ParseNamedArgs collects named arguments from raw tokens. "--key=value" and
// "-key=value" bind value; "--key" and "-key" bind the following token.
// Repeated keys accumulate. A trailing key without a value is ignored.
func ParseNamedArgs(tokens []string) map[string][]string {
	named := make(map[string][]string)
	for i := 0; i < len(tokens); i++ {
		m := namedArgPattern.FindStringSubmatch(tokens[i])
		if m == nil {
			continue
		}
		key := m[1]
		if m[2] != "" {
			named[key] = append(named[key], m[3])
			continue
		}
		if i+1 < len(tokens) {
			named[key] = append(named[key], tokens[i+1])
			i++
		}
	}
	return named
}
