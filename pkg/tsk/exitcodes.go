// Package tsk provides public constants for tools that invoke the tsk CLI.
package tsk

// Exit codes returned by the tsk CLI for its own failures. When a task fails,
// tsk exits with the task's exit code instead.
const (
	// ExitSuccess indicates the task completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (task not found, missing
	// argument, private task, etc.).
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config file,
	// circular inheritance, unknown base task, bad flags, etc.).
	ExitConfigError = 2

	// ExitEnvError indicates an environment error (no config file found,
	// unwritable script cache, etc.).
	ExitEnvError = 3
)
