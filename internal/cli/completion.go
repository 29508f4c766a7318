package cli

import (
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	tskerrors "github.com/tsk-dev/tsk/internal/errors"
	"github.com/tsk-dev/tsk/internal/logging"
	"github.com/tsk-dev/tsk/internal/output"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// writeCompletion prints the completion script for shell.
func writeCompletion(cmd *cobra.Command, shell string) error {
	root := cmd.Root()
	w := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return tskerrors.Configf("unsupported shell %q (use %s)", shell, strings.Join(completionShells, ", "))
}

// completeTasks completes task names from the config files selected by the
// flags parsed so far. Arguments after the task name complete as files.
func (a *App) completeTasks(opts *Options) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}
		inv := &invocation{
			app:    a,
			opts:   opts,
			out:    output.NewWithWriters(io.Discard, io.Discard, false),
			env:    envMap(a.Environ),
			logger: logging.Discard(),
		}
		names, err := inv.taskNames()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		matches := names[:0]
		for _, name := range names {
			if strings.HasPrefix(name, toComplete) {
				matches = append(matches, name)
			}
		}
		return matches, cobra.ShellCompDirectiveNoFileComp
	}
}

// taskNames returns the public task names of every config file, sorted and
// without duplicates.
func (inv *invocation) taskNames() ([]string, error) {
	p, err := inv.project()
	if err != nil {
		return nil, err
	}
	files, err := p.Set.Files()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range files {
		names = append(names, f.PublicTaskNames(inv.app.OS)...)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
