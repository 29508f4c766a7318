package resolve

import (
	"maps"
	"slices"

	"github.com/tsk-dev/tsk/internal/config"
	"github.com/tsk-dev/tsk/internal/expr"
)

// Mode is the way a resolved task runs.
type Mode string

const (
	ModeNone    Mode = "none"
	ModeScript  Mode = "script"
	ModeProgram Mode = "program"
	ModeCmds    Mode = "cmds"
)

// ResolvedTask is a task after inheritance and OS variant selection. It holds
// no reference to other task definitions. Every call to the resolver returns
// its own copy, so callers may modify the slices and maps they get.
type ResolvedTask struct {
	// Name is the name the task was requested by.
	Name string
	// Definition is the key of the selected definition, e.g. "build.linux".
	Definition string
	OS         config.OS
	File       *config.File
	Syntax     expr.Syntax

	Help string
	// Wd is the absolute working directory, or empty to use the directory of
	// the invocation.
	Wd           string
	Quote        config.QuoteMode
	Script       *string
	ScriptRunner string
	ScriptExt    string
	Program      *string
	Args         []string
	Cmds         []config.Command
	// Env holds the variables declared by the config, env files included.
	// The process environment is not part of it.
	Env      map[string]string
	EnvFiles []string
	Private  bool
}

// Mode reports how the task runs.
func (t *ResolvedTask) Mode() Mode {
	switch {
	case t.Script != nil:
		return ModeScript
	case t.Program != nil:
		return ModeProgram
	case t.Cmds != nil:
		return ModeCmds
	}
	return ModeNone
}

// clone returns a copy of t that shares no slices or maps with it. The
// string pointers still refer to the config definitions.
func (t *ResolvedTask) clone() *ResolvedTask {
	c := *t
	c.Args = slices.Clone(t.Args)
	c.Cmds = slices.Clone(t.Cmds)
	c.Env = maps.Clone(t.Env)
	c.EnvFiles = slices.Clone(t.EnvFiles)
	return &c
}
