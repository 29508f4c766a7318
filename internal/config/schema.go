// Package config loads tsk configuration files and interprets them into
// task definitions.
package config

import (
	"path/filepath"
	"sort"

	"github.com/tsk-dev/tsk/internal/expr"
)

// File is a loaded configuration file.
type File struct {
	Path    string            `json:"-" validate:"required"`
	Version string            `json:"version,omitempty" validate:"oneof=0 1"`
	Wd      *string           `json:"wd,omitempty"`
	Quote   *QuoteMode        `json:"quote,omitempty" validate:"omitempty,oneof=always spaces never"`
	Env     map[string]string `json:"env,omitempty"`
	EnvFile *string           `json:"env_file,omitempty"`
	Tasks   map[string]*Entry `json:"tasks,omitempty"`
}

// Entry groups the generic definition of a task with its OS variants.
// Either may be absent, but not both.
type Entry struct {
	Name     string
	Generic  *TaskDefinition
	Variants map[OS]*TaskDefinition
}

// TaskDefinition is a task as authored. Pointer and nil-slice fields are
// unset when the key is absent.
type TaskDefinition struct {
	Name         string            `json:"-" validate:"required"`
	Help         *string           `json:"help,omitempty"`
	Wd           *string           `json:"wd,omitempty"`
	Quote        *QuoteMode        `json:"quote,omitempty" validate:"omitempty,oneof=always spaces never"`
	Script       *string           `json:"script,omitempty"`
	ScriptRunner *string           `json:"script_runner,omitempty" validate:"omitempty,min=1"`
	ScriptExt    *string           `json:"script_ext,omitempty" validate:"omitempty,excludesall=/\\"`
	Program      *string           `json:"program,omitempty" validate:"omitempty,min=1"`
	Args         []string          `json:"args,omitempty"`
	ArgsExtend   []string          `json:"args_extend,omitempty"`
	Cmds         []Command         `json:"cmds,omitempty" validate:"dive"`
	Env          map[string]string `json:"env,omitempty"`
	EnvFile      *string           `json:"env_file,omitempty"`
	Bases        []string          `json:"bases,omitempty" validate:"dive,required"`
	Private      bool              `json:"private,omitempty"`
}

// Command is an entry of a task's cmds list.
type Command struct {
	// Task names a task to run. Set for {task: name} entries and serial lists.
	Task string `validate:"required_without=Line"`
	// Line is a bare string entry: either a task name or an inline command line.
	Line string `validate:"required_without=Task"`
}

// QuoteMode controls quoting of values substituted into scripts.
type QuoteMode string

const (
	QuoteAlways QuoteMode = "always"
	QuoteSpaces QuoteMode = "spaces"
	QuoteNever  QuoteMode = "never"
)

// Dir returns the directory containing the file.
func (f *File) Dir() string {
	return filepath.Dir(f.Path)
}

// Syntax returns the tag syntax selected by the file version.
func (f *File) Syntax() expr.Syntax {
	if f.Version == VersionLegacy {
		return expr.SyntaxLegacy
	}
	return expr.SyntaxCurrent
}

// Lookup returns the definition of name for os: the OS variant when one
// exists, otherwise the generic definition. A name of the form "task.os"
// addresses that variant directly.
func (f *File) Lookup(name string, os OS) (*TaskDefinition, bool) {
	if e, ok := f.Tasks[name]; ok {
		if def := e.Variants[os]; def != nil {
			return def, true
		}
		return e.Generic, e.Generic != nil
	}
	if base, variant, ok := splitVariant(name); ok {
		if e, ok := f.Tasks[base]; ok && e.Variants[variant] != nil {
			return e.Variants[variant], true
		}
	}
	return nil, false
}

// Generic returns the generic definition of name, if any.
func (f *File) Generic(name string) (*TaskDefinition, bool) {
	e, ok := f.Tasks[name]
	if !ok || e.Generic == nil {
		return nil, false
	}
	return e.Generic, true
}

// Has reports whether the file defines name for os.
func (f *File) Has(name string, os OS) bool {
	_, ok := f.Lookup(name, os)
	return ok
}

// TaskNames returns all task names in sorted order.
func (f *File) TaskNames() []string {
	names := make([]string, 0, len(f.Tasks))
	for name := range f.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PublicTaskNames returns the sorted names of tasks runnable on os that are
// not private.
func (f *File) PublicTaskNames(os OS) []string {
	var names []string
	for _, name := range f.TaskNames() {
		if def, ok := f.Lookup(name, os); ok && !def.Private {
			names = append(names, name)
		}
	}
	return names
}
