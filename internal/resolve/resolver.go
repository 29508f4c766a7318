// Package resolve merges task definitions along their bases and OS variants
// into flat resolved tasks.
package resolve

import (
	"errors"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/tsk-dev/tsk/internal/config"
	"github.com/tsk-dev/tsk/internal/logging"
	"github.com/tsk-dev/tsk/internal/topsort"
)

// Resolver resolves tasks of a config set for one operating system.
// Results are memoized per file and task name.
type Resolver struct {
	set    *config.Set
	fs     afero.Fs
	os     config.OS
	logger *slog.Logger

	envFiles map[string]map[string]string
	resolved map[string]*ResolvedTask
}

// New creates a Resolver. Env files are read through fs. A nil logger
// discards debug output.
func New(set *config.Set, fs afero.Fs, os config.OS, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{
		set:      set,
		fs:       fs,
		os:       os,
		logger:   logger,
		envFiles: make(map[string]map[string]string),
		resolved: make(map[string]*ResolvedTask),
	}
}

// OS returns the operating system tasks are resolved for.
func (r *Resolver) OS() config.OS {
	return r.os
}

// Set returns the config files the resolver reads.
func (r *Resolver) Set() *config.Set {
	return r.set
}

// Has reports whether any file of the set defines name.
func (r *Resolver) Has(name string) (bool, error) {
	f, err := r.set.Find(name, r.os)
	return f != nil, err
}

// Resolve resolves name from the first file of the set that defines it.
func (r *Resolver) Resolve(name string) (*ResolvedTask, error) {
	f, err := r.set.Find(name, r.os)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, &Error{Kind: TaskNotFound, Task: name}
	}
	return r.ResolveIn(f, name)
}

// ResolveIn resolves name within f. Bases are looked up in the same file.
// The result is memoized; callers get a copy.
func (r *Resolver) ResolveIn(f *config.File, name string) (*ResolvedTask, error) {
	key := f.Path + "\x00" + name
	if t, ok := r.resolved[key]; ok {
		return t.clone(), nil
	}

	root, ok := f.Lookup(name, r.os)
	if !ok {
		return nil, &Error{Kind: TaskNotFound, Task: name}
	}

	defs, graph, err := r.collect(f, root)
	if err != nil {
		return nil, err
	}
	order, err := topsort.Sort(graph, []string{root.Name})
	if err != nil {
		var (
			cycle   *topsort.CycleError
			missing *topsort.MissingError
		)
		if errors.As(err, &cycle) {
			return nil, &Error{Kind: CircularInheritance, Task: name, Cycle: cycle.Path}
		}
		if errors.As(err, &missing) {
			return nil, &Error{Kind: UnknownBaseTask, Task: missing.Node, Base: missing.Dep}
		}
		return nil, &Error{Kind: UnknownBaseTask, Task: name, Err: err}
	}

	layers := make(map[string]*layer, len(order))
	for _, defName := range order {
		def := defs[defName]
		inherited := &layer{}
		for _, base := range graph[defName] {
			inherited.inherit(layers[base])
		}
		own, err := r.apply(f, inherited, def)
		if err != nil {
			return nil, &Error{Kind: EnvFile, Task: name, Err: err}
		}
		layers[defName] = own
	}

	t, err := r.finish(f, name, root, layers[root.Name])
	if err != nil {
		return nil, &Error{Kind: EnvFile, Task: name, Err: err}
	}
	r.logger.Debug("resolved task",
		"task", name,
		"definition", root.Name,
		"file", f.Path,
		"order", order,
		"mode", t.Mode())
	r.resolved[key] = t
	return t.clone(), nil
}

// collect walks the bases of root and returns every reachable definition
// with the inheritance graph between them, keyed by definition name.
func (r *Resolver) collect(f *config.File, root *config.TaskDefinition) (map[string]*config.TaskDefinition, topsort.Graph, error) {
	defs := map[string]*config.TaskDefinition{root.Name: root}
	graph := make(topsort.Graph)
	queue := []*config.TaskDefinition{root}
	for len(queue) > 0 {
		def := queue[0]
		queue = queue[1:]
		if _, done := graph[def.Name]; done {
			continue
		}
		edges := make([]string, 0, len(def.Bases))
		for _, baseName := range def.Bases {
			base, ok := r.lookupBase(f, def, baseName)
			if !ok {
				return nil, nil, &Error{Kind: UnknownBaseTask, Task: def.Name, Base: baseName}
			}
			edges = append(edges, base.Name)
			if _, seen := defs[base.Name]; !seen {
				defs[base.Name] = base
				queue = append(queue, base)
			}
		}
		graph[def.Name] = edges
	}
	return defs, graph, nil
}

// lookupBase finds a base of def for the resolver's OS. A variant that lists
// its own generic task, as in "build.linux: {bases: [build]}", gets the
// generic definition.
func (r *Resolver) lookupBase(f *config.File, def *config.TaskDefinition, name string) (*config.TaskDefinition, bool) {
	base, ok := f.Lookup(name, r.os)
	if ok && base == def {
		return f.Generic(name)
	}
	return base, ok
}

// apply layers the fields of def over the merged fields of its bases.
func (r *Resolver) apply(f *config.File, inherited *layer, def *config.TaskDefinition) (*layer, error) {
	l := inherited.clone()

	// A task that picks a mode drops what it inherited for the other modes.
	l.dropOtherModes(def.Script != nil, def.Program != nil, def.Cmds != nil)
	setIf(&l.help, def.Help)
	setIf(&l.wd, def.Wd)
	setIf(&l.script, def.Script)
	setIf(&l.scriptRunner, def.ScriptRunner)
	setIf(&l.scriptExt, def.ScriptExt)
	setIf(&l.program, def.Program)
	if def.Quote != nil {
		l.quote = def.Quote
	}
	if def.Args != nil {
		l.args = slices.Clone(def.Args)
	}
	if def.ArgsExtend != nil {
		l.args = append(slices.Clone(l.args), def.ArgsExtend...)
	}
	if def.Cmds != nil {
		l.cmds = slices.Clone(def.Cmds)
	}

	if def.EnvFile != nil {
		path := r.path(f, *def.EnvFile)
		vars, err := r.readEnvFile(path)
		if err != nil {
			return nil, err
		}
		maps.Copy(l.env, vars)
		l.envFiles = append(l.envFiles, path)
	}
	maps.Copy(l.env, def.Env)
	return l, nil
}

// finish applies file defaults and OS defaults to the merged fields of root.
func (r *Resolver) finish(f *config.File, name string, root *config.TaskDefinition, l *layer) (*ResolvedTask, error) {
	t := &ResolvedTask{
		Name:         name,
		Definition:   root.Name,
		OS:           r.os,
		File:         f,
		Syntax:       f.Syntax(),
		Quote:        f.EffectiveQuote(),
		Script:       l.script,
		ScriptRunner: config.DefaultScriptRunner(r.os),
		ScriptExt:    config.DefaultScriptExt(r.os),
		Program:      l.program,
		Args:         l.args,
		Cmds:         l.cmds,
		Env:          make(map[string]string),
		Private:      root.Private,
	}
	if l.help != nil {
		t.Help = *l.help
	}
	if l.quote != nil {
		t.Quote = *l.quote
	}
	if l.scriptRunner != nil {
		t.ScriptRunner = *l.scriptRunner
	}
	if l.scriptExt != nil {
		t.ScriptExt = *l.scriptExt
	}

	switch {
	case l.wd != nil:
		t.Wd = r.path(f, *l.wd)
	case f.Wd != nil:
		t.Wd = r.path(f, *f.Wd)
	}

	if f.EnvFile != nil {
		path := r.path(f, *f.EnvFile)
		vars, err := r.readEnvFile(path)
		if err != nil {
			return nil, err
		}
		maps.Copy(t.Env, vars)
		t.EnvFiles = append(t.EnvFiles, path)
	}
	maps.Copy(t.Env, f.Env)
	maps.Copy(t.Env, l.env)
	t.EnvFiles = append(t.EnvFiles, l.envFiles...)
	return t, nil
}

// path resolves p against the directory of f.
func (r *Resolver) path(f *config.File, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(f.Dir(), p)
}

func (r *Resolver) readEnvFile(path string) (map[string]string, error) {
	if vars, ok := r.envFiles[path]; ok {
		return vars, nil
	}
	vars, err := config.ReadEnvFile(r.fs, path)
	if err != nil {
		return nil, err
	}
	r.envFiles[path] = vars
	return vars, nil
}

func setIf(dst **string, src *string) {
	if src != nil {
		*dst = src
	}
}
