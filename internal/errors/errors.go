// Package errors provides structured error types and exit codes for tsk.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes. A task that fails propagates its own exit code instead.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (task not found, bad arguments, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, inheritance cycle, etc.)
	ExitEnvironmentError = 3 // Environment error (no config file, cache not writable, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
)

// exitCoder is implemented by errors that carry their own exit code, such as
// a failed child process.
type exitCoder interface {
	ExitCode() int
}

// TskError is the base error type for tsk.
type TskError struct {
	Kind    ErrorKind
	Message string
	Task    string // Task name if applicable
	Cause   error  // Underlying error
}

func (e *TskError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	if e.Task != "" {
		return fmt.Sprintf("[%s] %s", e.Task, msg)
	}
	return msg
}

func (e *TskError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error. Runtime errors
// caused by a failed child report the child's code.
func (e *TskError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	}
	var ec exitCoder
	if e.Cause != nil && stderrors.As(e.Cause, &ec) {
		return ec.ExitCode()
	}
	return ExitRuntimeError
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...any) *TskError {
	return &TskError{
		Kind:    KindRuntime,
		Message: fmt.Sprintf(format, args...),
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...any) *TskError {
	return &TskError{
		Kind:    KindConfig,
		Message: fmt.Sprintf(format, args...),
	}
}

// Environment creates a new environment error.
func Environment(message string) *TskError {
	return &TskError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// WrapKind wraps an error with the given kind. The message is taken from err.
func WrapKind(kind ErrorKind, err error) *TskError {
	return &TskError{
		Kind:  kind,
		Cause: err,
	}
}

// TaskError creates an error for a specific task.
func TaskError(task string, err error) *TskError {
	return &TskError{
		Kind:  KindRuntime,
		Task:  task,
		Cause: err,
	}
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ec exitCoder
	if stderrors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitRuntimeError
}
