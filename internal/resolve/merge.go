package resolve

import (
	"maps"
	"slices"

	"github.com/tsk-dev/tsk/internal/config"
)

// layer is the merged state of one definition and everything it inherits.
// Unset fields are nil.
type layer struct {
	help         *string
	wd           *string
	quote        *config.QuoteMode
	script       *string
	scriptRunner *string
	scriptExt    *string
	program      *string
	args         []string
	cmds         []config.Command
	env          map[string]string
	envFiles     []string
}

// inherit merges base over l. Fields set by base overwrite those of earlier
// bases; env entries are unioned with base winning on collision. A base with
// a mode replaces the mode of earlier bases.
func (l *layer) inherit(base *layer) {
	if base == nil {
		return
	}
	l.dropOtherModes(base.script != nil, base.program != nil, base.cmds != nil)
	for _, f := range []struct{ dst, src **string }{
		{&l.help, &base.help},
		{&l.wd, &base.wd},
		{&l.script, &base.script},
		{&l.scriptRunner, &base.scriptRunner},
		{&l.scriptExt, &base.scriptExt},
		{&l.program, &base.program},
	} {
		setIf(f.dst, *f.src)
	}
	if base.quote != nil {
		l.quote = base.quote
	}
	if base.args != nil {
		l.args = base.args
	}
	if base.cmds != nil {
		l.cmds = base.cmds
	}
	if len(base.env) > 0 {
		if l.env == nil {
			l.env = make(map[string]string, len(base.env))
		}
		maps.Copy(l.env, base.env)
	}
	for _, path := range base.envFiles {
		if !slices.Contains(l.envFiles, path) {
			l.envFiles = append(l.envFiles, path)
		}
	}
}

// dropOtherModes clears the fields of the modes not selected by the flags.
// Nothing is cleared when no mode is selected.
func (l *layer) dropOtherModes(script, program, cmds bool) {
	switch {
	case script:
		l.program, l.args, l.cmds = nil, nil, nil
	case program:
		l.script, l.cmds = nil, nil
	case cmds:
		l.script, l.program, l.args = nil, nil, nil
	}
}

func (l *layer) clone() *layer {
	c := *l
	c.env = maps.Clone(l.env)
	if c.env == nil {
		c.env = make(map[string]string)
	}
	c.envFiles = slices.Clone(l.envFiles)
	return &c
}
