package materialize

import "slices"

// Execution is a materialized task, ready to be run by a process spawner.
// It is one of *ProgramExecution, *ScriptExecution or *SerialExecution.
type Execution interface {
	// TaskName is the task the execution was produced for.
	TaskName() string
	execution()
}

// ProgramExecution runs a program directly with an argument vector.
type ProgramExecution struct {
	Task    string
	Program string
	Args    []string
	Dir     string
	Env     map[string]string
}

// ScriptExecution runs a cached script file through a runner command.
type ScriptExecution struct {
	Task       string
	Runner     []string
	ScriptPath string
	Script     string
	Dir        string
	Env        map[string]string
}

// SerialExecution runs its steps one after the other.
type SerialExecution struct {
	Task  string
	Steps []Execution
}

func (e *ProgramExecution) TaskName() string { return e.Task }
func (e *ScriptExecution) TaskName() string  { return e.Task }
func (e *SerialExecution) TaskName() string  { return e.Task }

func (*ProgramExecution) execution() {}
func (*ScriptExecution) execution()  {}
func (*SerialExecution) execution()  {}

// Argv returns the program followed by its arguments.
func (e *ProgramExecution) Argv() []string {
	return append([]string{e.Program}, e.Args...)
}

// Argv returns the runner words followed by the script path.
func (e *ScriptExecution) Argv() []string {
	return append(slices.Clone(e.Runner), e.ScriptPath)
}
