// Package materialize evaluates the templates of resolved tasks against the
// invocation arguments and produces executions: an argument vector, a cached
// script file, or an ordered list of sub-executions.
package materialize

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"github.com/tsk-dev/tsk/internal/cache"
	"github.com/tsk-dev/tsk/internal/config"
	"github.com/tsk-dev/tsk/internal/expr"
	"github.com/tsk-dev/tsk/internal/logging"
	"github.com/tsk-dev/tsk/internal/resolve"
)

// Materializer turns resolved tasks into executions. Task references in
// cmds are resolved through the resolver; scripts are written to the cache.
type Materializer struct {
	resolver *resolve.Resolver
	cache    *cache.Cache
	logger   *slog.Logger
}

// New creates a Materializer. A nil logger discards debug output.
func New(resolver *resolve.Resolver, c *cache.Cache, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Materializer{resolver: resolver, cache: c, logger: logger}
}

// Materialize produces the execution of task for the invocation ctx.
// ctx.Env is the process environment; the task environment is layered over it.
func (m *Materializer) Materialize(task *resolve.ResolvedTask, ctx *expr.Context) (Execution, error) {
	return m.materialize(task, ctx, nil)
}

// MaterializeName resolves name and materializes it.
func (m *Materializer) MaterializeName(name string, ctx *expr.Context) (Execution, error) {
	task, err := m.resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	return m.Materialize(task, ctx)
}

func (m *Materializer) materialize(task *resolve.ResolvedTask, ctx *expr.Context, stack []string) (Execution, error) {
	id := task.File.Path + "\x00" + task.Definition
	for i, seen := range stack {
		if seen == id {
			chain := make([]string, 0, len(stack)-i+1)
			for _, s := range stack[i:] {
				chain = append(chain, s[strings.LastIndexByte(s, 0)+1:])
			}
			chain = append(chain, task.Definition)
			return nil, &Error{Task: task.Name, Field: "cmds", Err: fmt.Errorf("recursive task reference: %s", strings.Join(chain, " -> "))}
		}
	}
	stack = append(stack, id)

	tctx := ctx.WithEnv(task.Env)
	dir := task.Wd
	if dir == "" {
		dir = ctx.Dir
	}

	var (
		exec Execution
		err  error
	)
	switch task.Mode() {
	case resolve.ModeScript:
		exec, err = m.script(task, tctx, dir)
	case resolve.ModeProgram:
		exec, err = m.program(task, tctx, dir)
	case resolve.ModeCmds:
		exec, err = m.serial(task, ctx, tctx, dir, stack)
	default:
		err = &Error{Task: task.Name, Err: ErrNothingToRun}
	}
	if err != nil {
		return nil, err
	}
	m.logger.Debug("materialized task", "task", task.Name, "mode", task.Mode(), "dir", dir)
	return exec, nil
}

func (m *Materializer) program(task *resolve.ResolvedTask, ctx *expr.Context, dir string) (*ProgramExecution, error) {
	program, err := evalProgram(task.Syntax, *task.Program, ctx)
	if err != nil {
		return nil, &Error{Task: task.Name, Field: "program", Err: err}
	}
	args, err := expandArgs(task.Syntax, task.Args, ctx)
	if err != nil {
		var serr *slotError
		if errors.As(err, &serr) {
			return nil, &Error{Task: task.Name, Field: fmt.Sprintf("args[%d]", serr.index), Err: serr.err}
		}
		return nil, &Error{Task: task.Name, Field: "args", Err: err}
	}
	return &ProgramExecution{
		Task:    task.Name,
		Program: program,
		Args:    args,
		Dir:     dir,
		Env:     maps.Clone(ctx.Env),
	}, nil
}

func (m *Materializer) script(task *resolve.ResolvedTask, ctx *expr.Context, dir string) (*ScriptExecution, error) {
	text, err := RenderScript(task.Syntax, *task.Script, ctx, task.Quote)
	if err != nil {
		return nil, &Error{Task: task.Name, Field: "script", Err: err}
	}
	runner, err := shlex.Split(task.ScriptRunner, true)
	if err != nil || len(runner) == 0 {
		if err == nil {
			err = fmt.Errorf("script runner is empty")
		}
		return nil, &Error{Task: task.Name, Field: "script_runner", Err: err}
	}
	path, created, err := m.cache.Ensure(task.ScriptRunner, task.ScriptExt, text)
	if err != nil {
		return nil, &Error{Task: task.Name, Field: "script", Err: err}
	}
	m.logger.Debug("script file", "task", task.Name, "path", path, "created", created)
	return &ScriptExecution{
		Task:       task.Name,
		Runner:     runner,
		ScriptPath: path,
		Script:     text,
		Dir:        dir,
		Env:        maps.Clone(ctx.Env),
	}, nil
}

// serial materializes the cmds of task. Referenced tasks get the invocation
// context; inline commands share the directory and environment of task.
func (m *Materializer) serial(task *resolve.ResolvedTask, ctx, tctx *expr.Context, dir string, stack []string) (*SerialExecution, error) {
	steps := make([]Execution, 0, len(task.Cmds))
	for i, cmd := range task.Cmds {
		field := fmt.Sprintf("cmds[%d]", i)
		name, err := m.taskRef(cmd)
		if err != nil {
			return nil, &Error{Task: task.Name, Field: field, Err: err}
		}
		if name != "" {
			sub, err := m.resolver.Resolve(name)
			if err != nil {
				return nil, &Error{Task: task.Name, Field: field, Err: err}
			}
			step, err := m.materialize(sub, ctx, stack)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
			continue
		}

		step, err := inline(task, cmd.Line, tctx, dir)
		if err != nil {
			return nil, &Error{Task: task.Name, Field: field, Err: err}
		}
		steps = append(steps, step)
	}
	return &SerialExecution{Task: task.Name, Steps: steps}, nil
}

// taskRef returns the task a command refers to, or "" for an inline command.
// A bare line refers to a task when it is exactly the name of one.
func (m *Materializer) taskRef(cmd config.Command) (string, error) {
	if cmd.Task != "" {
		return cmd.Task, nil
	}
	ok, err := m.resolver.Has(cmd.Line)
	if err != nil || !ok {
		return "", err
	}
	return cmd.Line, nil
}

// inline materializes a command line written in cmds. Each shell word is an
// argument template; the first produced word is the program.
func inline(task *resolve.ResolvedTask, line string, ctx *expr.Context, dir string) (*ProgramExecution, error) {
	words, err := shlex.Split(line, true)
	if err != nil {
		return nil, err
	}
	argv, err := expandArgs(task.Syntax, words, ctx)
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command %q is empty", line)
	}
	return &ProgramExecution{
		Task:    task.Name,
		Program: argv[0],
		Args:    argv[1:],
		Dir:     dir,
		Env:     maps.Clone(ctx.Env),
	}, nil
}
