package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tsk-dev/tsk/internal/cache"
	tskerrors "github.com/tsk-dev/tsk/internal/errors"
	"github.com/tsk-dev/tsk/internal/expr"
	"github.com/tsk-dev/tsk/internal/materialize"
	"github.com/tsk-dev/tsk/internal/output"
	"github.com/tsk-dev/tsk/internal/project"
	"github.com/tsk-dev/tsk/internal/resolve"
	"github.com/tsk-dev/tsk/internal/runner"
)

var title = cases.Title(language.English)

// invocation holds the state shared by the actions of one run.
type invocation struct {
	app    *App
	opts   *Options
	out    *output.Writer
	env    map[string]string
	logger *slog.Logger

	proj     *project.Project
	resolver *resolve.Resolver
}

// project returns the config files selected by the flags.
func (inv *invocation) project() (*project.Project, error) {
	if inv.proj != nil {
		return inv.proj, nil
	}
	a := inv.app

	var (
		p   *project.Project
		err error
	)
	switch {
	case inv.opts.File != "":
		p, err = project.FromFile(a.Fs, inv.opts.File, a.Dir)
	case inv.opts.Global:
		if a.Home == "" {
			return nil, tskerrors.Environment("cannot determine the home directory")
		}
		p, err = project.Global(a.Fs, a.Home, a.Dir)
	default:
		p, err = project.Discover(a.Fs, a.Dir)
	}
	if err != nil {
		return nil, err
	}

	p.Set.OnWarnings(func(path string, warnings []string) {
		for _, w := range warnings {
			inv.out.Warning("%s: %s", path, w)
		}
	})
	inv.logger.Debug("config files", "paths", p.Paths)
	inv.proj = p
	return p, nil
}

func (inv *invocation) resolve() (*resolve.Resolver, error) {
	if inv.resolver != nil {
		return inv.resolver, nil
	}
	p, err := inv.project()
	if err != nil {
		return nil, err
	}
	inv.resolver = resolve.New(p.Set, inv.app.Fs, inv.app.OS, inv.logger)
	return inv.resolver, nil
}

// listFiles prints the config files in use.
func (inv *invocation) listFiles() error {
	p, err := inv.project()
	if err != nil {
		return err
	}
	for _, path := range p.Paths {
		inv.out.ConfigFile(path, false)
	}
	return nil
}

// listTasks prints the public tasks of every config file.
func (inv *invocation) listTasks() error {
	p, err := inv.project()
	if err != nil {
		return err
	}
	for i := range p.Set.Len() {
		f, err := p.Set.File(i)
		if err != nil {
			return err
		}
		inv.out.ConfigFile(f.Path, true)
		names := f.PublicTaskNames(inv.app.OS)
		if len(names) == 0 {
			inv.out.Empty("No tasks found.")
			continue
		}
		for _, name := range names {
			inv.out.TaskName(name, false)
		}
	}
	return nil
}

// taskInfo prints the resolved form of a task.
func (inv *invocation) taskInfo(name string) error {
	r, err := inv.resolve()
	if err != nil {
		return err
	}
	task, err := r.Resolve(name)
	if err != nil {
		return err
	}

	w := inv.out
	w.ConfigFile(task.File.Path, true)
	w.TaskName(task.Name, task.Private)
	w.TaskHelp(task.Help)
	w.TaskDetail("mode", title.String(string(task.Mode())))
	w.TaskDetail("os", title.String(string(task.OS)))
	if task.Definition != task.Name {
		w.TaskDetail("variant", task.Definition)
	}
	if task.Wd != "" {
		w.TaskDetail("wd", task.Wd)
	}
	switch task.Mode() {
	case resolve.ModeScript:
		w.TaskDetail("runner", task.ScriptRunner)
		w.TaskDetail("quote", string(task.Quote))
	case resolve.ModeProgram:
		w.TaskDetail("program", *task.Program)
		if len(task.Args) > 0 {
			w.TaskDetail("args", strings.Join(task.Args, " "))
		}
	case resolve.ModeCmds:
		for i, c := range task.Cmds {
			line := c.Line
			if c.Task != "" {
				line = "task " + c.Task
			}
			w.TaskDetail(fmt.Sprintf("cmds[%d]", i), line)
		}
	}
	return nil
}

// runTask resolves, materializes and runs a task.
func (inv *invocation) runTask(ctx context.Context, name string, args []string) error {
	r, err := inv.resolve()
	if err != nil {
		return err
	}
	task, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if task.Private {
		return tskerrors.Newf("task %q is private and cannot be run directly", name)
	}
	inv.logger.Debug("running task", "task", name, "file", task.File.Path, "mode", task.Mode())

	dir := inv.env[cache.DirEnv]
	if dir == "" {
		dir = cache.DefaultDir()
	}
	m := materialize.New(r, cache.New(inv.app.Fs, dir, inv.logger), inv.logger)
	exec, err := m.Materialize(task, expr.NewContext(args, inv.env, inv.app.Dir))
	if err != nil {
		return err
	}

	run := runner.New(inv.app.Spawner, inv.out, inv.logger, runner.Options{
		DryRun:         inv.opts.DryRun,
		ForwardSignals: inv.app.ForwardSignals,
		Stdin:          inv.app.Stdin,
		Stdout:         inv.app.Stdout,
		Stderr:         inv.app.Stderr,
	})
	return run.Run(ctx, exec)
}
