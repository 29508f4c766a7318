package materialize

import (
	"errors"
	"fmt"
)

// ErrNothingToRun is returned for a task with no script, program or cmds.
var ErrNothingToRun = errors.New("nothing to run: the task defines no script, program or cmds")

// Error reports a failure to materialize one field of a task. Parse,
// evaluation and script cache errors are available through errors.As.
type Error struct {
	Task  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("task %q: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("task %q: %s: %v", e.Task, e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
