// Package runner executes materialized tasks as child processes.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/alessio/shellescape"

	"github.com/tsk-dev/tsk/internal/logging"
	"github.com/tsk-dev/tsk/internal/materialize"
	"github.com/tsk-dev/tsk/internal/output"
)

// interruptedCode is reported when a child exits cleanly after an interrupt.
const interruptedCode = 130

// ExitError reports a child process that exited with a non-zero code, or a
// run that was interrupted by a signal.
type ExitError struct {
	Task   string
	Code   int
	Signal os.Signal
}

func (e *ExitError) Error() string {
	if e.Signal != nil {
		return fmt.Sprintf("task %q interrupted by %v (exit code %d)", e.Task, e.Signal, e.Code)
	}
	return fmt.Sprintf("task %q failed with exit code %d", e.Task, e.Code)
}

// ExitCode returns the exit code to propagate to the caller of tsk.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// StartError reports a child process that could not be started.
type StartError struct {
	Task    string
	Program string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("cannot start %q: %v", e.Program, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Options configures execution behavior.
type Options struct {
	// DryRun prints every command instead of running it.
	DryRun bool

	// ForwardSignals relays SIGINT and SIGTERM to the running child and
	// cancels the remaining steps.
	ForwardSignals bool

	// Signals replaces the process signal subscription used when
	// ForwardSignals is set.
	Signals <-chan os.Signal

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes materialized tasks.
type Runner struct {
	spawner Spawner
	out     *output.Writer
	logger  *slog.Logger
	opts    Options
}

// New creates a new Runner. A nil spawner starts real processes; a nil
// logger discards debug output.
func New(spawner Spawner, out *output.Writer, logger *slog.Logger, opts Options) *Runner {
	if spawner == nil {
		spawner = ExecSpawner{}
	}
	if out == nil {
		out = output.New()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runner{spawner: spawner, out: out, logger: logger, opts: opts}
}

// Run executes e. Serial steps run in order and stop at the first failure.
func (r *Runner) Run(ctx context.Context, e materialize.Execution) error {
	if !r.opts.ForwardSignals || r.opts.DryRun {
		return r.run(ctx, e, nil)
	}
	if r.opts.Signals != nil {
		return r.run(ctx, e, r.opts.Signals)
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	return r.run(ctx, e, sigs)
}

func (r *Runner) run(ctx context.Context, e materialize.Execution, sigs <-chan os.Signal) error {
	switch e := e.(type) {
	case *materialize.ProgramExecution:
		return r.runCommand(ctx, e.Task, e.Argv(), e.Dir, e.Env, "", sigs)
	case *materialize.ScriptExecution:
		return r.runCommand(ctx, e.Task, e.Argv(), e.Dir, e.Env, e.Script, sigs)
	case *materialize.SerialExecution:
		for i, step := range e.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case sig := <-sigs:
				return &ExitError{Task: e.Task, Code: interruptedCode, Signal: sig}
			default:
			}
			r.logger.Debug("serial step", "task", e.Task, "step", i, "of", len(e.Steps))
			if err := r.run(ctx, step, sigs); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported execution %T", e)
	}
}

type waitResult struct {
	code int
	err  error
}

func (r *Runner) runCommand(ctx context.Context, task string, argv []string, dir string, env map[string]string, script string, sigs <-chan os.Signal) error {
	line := CommandLine(argv)
	if r.opts.DryRun {
		r.out.DryRun(task, line, script)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.out.Command(task, line)
	r.logger.Debug("starting", "task", task, "argv", argv, "dir", dir)

	p, err := r.spawner.Start(&Command{
		Argv:   argv,
		Dir:    dir,
		Env:    EnvList(env),
		Stdin:  r.opts.Stdin,
		Stdout: r.opts.Stdout,
		Stderr: r.opts.Stderr,
	})
	if err != nil {
		return &StartError{Task: task, Program: argv[0], Err: err}
	}

	done := make(chan waitResult, 1)
	go func() {
		code, err := p.Wait()
		done <- waitResult{code: code, err: err}
	}()

	var received os.Signal
	ctxDone := ctx.Done()
	for {
		select {
		case res := <-done:
			r.logger.Debug("exited", "task", task, "code", res.code)
			if res.err != nil {
				return fmt.Errorf("task %q: %w", task, res.err)
			}
			if received != nil {
				code := res.code
				if code == 0 {
					code = interruptedCode
				}
				return &ExitError{Task: task, Code: code, Signal: received}
			}
			if res.code != 0 {
				return &ExitError{Task: task, Code: res.code}
			}
			return nil
		case sig := <-sigs:
			received = sig
			r.logger.Debug("forwarding signal", "task", task, "signal", sig)
			_ = p.Signal(sig)
		case <-ctxDone:
			ctxDone = nil
			if received == nil {
				received = os.Interrupt
				_ = p.Signal(os.Interrupt)
			}
		}
	}
}

// CommandLine renders argv as a shell-like command line for display.
func CommandLine(argv []string) string {
	return shellescape.QuoteCommand(argv)
}

// EnvList converts an environment map to sorted KEY=VALUE pairs.
func EnvList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	slices.Sort(list)
	return list
}
