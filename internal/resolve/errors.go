package resolve

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a resolution Error.
type ErrorKind int

const (
	CircularInheritance ErrorKind = iota + 1
	UnknownBaseTask
	TaskNotFound
	EnvFile
)

func (k ErrorKind) String() string {
	switch k {
	case CircularInheritance:
		return "circular inheritance"
	case UnknownBaseTask:
		return "unknown base task"
	case TaskNotFound:
		return "task not found"
	case EnvFile:
		return "env file"
	}
	return "unknown"
}

// Error is returned when a task cannot be resolved.
type Error struct {
	Kind ErrorKind
	// Task is the task being resolved.
	Task string
	// Base is the missing base for UnknownBaseTask.
	Base string
	// Cycle is the inheritance cycle for CircularInheritance, starting and
	// ending with the same task.
	Cycle []string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case CircularInheritance:
		return fmt.Sprintf("task %q: circular inheritance: %s", e.Task, strings.Join(e.Cycle, " -> "))
	case UnknownBaseTask:
		return fmt.Sprintf("task %q: unknown base task %q", e.Task, e.Base)
	case TaskNotFound:
		return fmt.Sprintf("task %q not found", e.Task)
	case EnvFile:
		return fmt.Sprintf("task %q: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("task %q: %v", e.Task, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
