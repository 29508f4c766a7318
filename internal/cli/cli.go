// Package cli provides the command-line interface of tsk.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tsk-dev/tsk/internal/config"
	tskerrors "github.com/tsk-dev/tsk/internal/errors"
	"github.com/tsk-dev/tsk/internal/logging"
	"github.com/tsk-dev/tsk/internal/output"
	"github.com/tsk-dev/tsk/internal/runner"
)

// Version is set at build time.
var Version = "dev"

// Options holds the parsed flags.
type Options struct {
	File       string
	Global     bool
	List       bool
	ListTasks  bool
	TaskInfo   string
	DryRun     bool
	Quiet      bool
	Completion string
}

// App is one tsk invocation with its environment. The zero value is not
// usable; see NewApp.
type App struct {
	Fs      afero.Fs
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Dir     string
	Home    string
	Environ []string
	OS      config.OS
	Spawner runner.Spawner
	Color   bool
	// ForwardSignals relays SIGINT and SIGTERM to running tasks.
	ForwardSignals bool
}

// NewApp returns an App bound to the current process.
func NewApp() (*App, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	home, _ := os.UserHomeDir()
	w := output.New()
	return &App{
		Fs:             afero.NewOsFs(),
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Dir:            dir,
		Home:           home,
		Environ:        os.Environ(),
		OS:             config.HostOS(),
		Spawner:        runner.ExecSpawner{},
		Color:          w.Color(),
		ForwardSignals: true,
	}, nil
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	app, err := NewApp()
	if err != nil {
		output.New().ErrorPrefix("%v", err)
		return tskerrors.ExitEnvironmentError
	}
	return app.Run(context.Background(), args)
}

// Run executes the CLI for app and returns an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	env := envMap(a.Environ)
	out := output.NewWithWriters(a.Stdout, a.Stderr, a.Color)
	logger := logging.New(a.Stderr, env[logging.DebugEnv] != "")

	opts := &Options{}
	cmd := a.newRootCmd(opts, out, env, logger)
	cmd.SetArgs(args)
	cmd.SetIn(a.Stdin)
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		err = classify(err)
		out.ErrorPrefix("%v", err)
		return tskerrors.GetExitCode(err)
	}
	return tskerrors.ExitSuccess
}

func (a *App) newRootCmd(opts *Options, out *output.Writer, env map[string]string, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsk [flags] <task> [args...]",
		Short: "Run tasks defined in tsk config files",
		Long: `tsk runs tasks defined in local.tsk.*, tsk.* and project.tsk.* files
found in the current directory and its parents (yml, yaml, toml or json).
Arguments after the task name are passed to the task.`,
		Version:           Version,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		ValidArgsFunction: a.completeTasks(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			out.SetQuiet(opts.Quiet)
			inv := &invocation{app: a, opts: opts, out: out, env: env, logger: logger}
			switch {
			case opts.Completion != "":
				return writeCompletion(cmd, opts.Completion)
			case opts.List:
				return inv.listFiles()
			case opts.ListTasks:
				return inv.listTasks()
			case opts.TaskInfo != "":
				return inv.taskInfo(opts.TaskInfo)
			case len(args) == 0:
				return cmd.Help()
			}
			return inv.runTask(cmd.Context(), args[0], args[1:])
		},
	}
	cmd.SetVersionTemplate("tsk {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return tskerrors.WrapKind(tskerrors.KindConfig, err)
	})

	f := cmd.Flags()
	// Flags after the task name belong to the task.
	f.SetInterspersed(false)
	f.StringVarP(&opts.File, "file", "f", "", "search for tasks in the given file")
	f.BoolVarP(&opts.Global, "global", "g", false, "search for tasks in ~/.tsk/tsk.global.{yml,yaml,toml,json}")
	f.BoolVarP(&opts.List, "list", "l", false, "list the config files in use")
	f.BoolVarP(&opts.ListTasks, "list-tasks", "t", false, "list the public tasks of every config file")
	f.StringVarP(&opts.TaskInfo, "task-info", "i", "", "show information about a task")
	f.BoolVar(&opts.DryRun, "dry", false, "print the commands instead of running them")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not announce commands")
	f.StringVar(&opts.Completion, "completion", "", "print a completion script (bash, zsh, fish, powershell)")
	cmd.MarkFlagsMutuallyExclusive("file", "global")
	cmd.MarkFlagsMutuallyExclusive("list", "list-tasks", "task-info", "completion")

	_ = cmd.RegisterFlagCompletionFunc("completion", cobra.FixedCompletions(completionShells, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("task-info", a.completeTasks(opts))
	_ = cmd.MarkFlagFilename("file", config.Extensions...)
	return cmd
}

// envMap converts KEY=VALUE pairs to a map. Later duplicates win.
func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
