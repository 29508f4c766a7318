package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks a loaded file and every task definition in it.
func Validate(f *File) error {
	if err := validateStruct("file", f); err != nil {
		return err
	}
	for _, name := range f.TaskNames() {
		e := f.Tasks[name]
		if err := ValidateTaskName(name); err != nil {
			return err
		}
		if e.Generic != nil {
			if err := ValidateTask(e.Generic); err != nil {
				return err
			}
		}
		for _, os := range OSes {
			if def := e.Variants[os]; def != nil {
				if err := ValidateTask(def); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ValidateTask checks a single task definition: field formats and
// combinations of execution modes.
func ValidateTask(def *TaskDefinition) error {
	field := "tasks." + def.Name
	if err := validateStruct(field, def); err != nil {
		return err
	}

	conflict := func(a, b string) error {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s cannot be combined with %s", a, b)}
	}
	switch {
	case def.Script != nil && def.Program != nil:
		return conflict("script", "program")
	case def.Script != nil && def.Cmds != nil:
		return conflict("script", "cmds")
	case def.Program != nil && def.Cmds != nil:
		return conflict("program", "cmds")
	case def.Script != nil && (def.Args != nil || def.ArgsExtend != nil):
		return conflict("script", "args")
	case def.Cmds != nil && (def.Args != nil || def.ArgsExtend != nil):
		return conflict("cmds", "args")
	case def.Program != nil && def.Quote != nil:
		return conflict("program", "quote")
	}
	return nil
}

// ValidateTaskName checks that a task name can be typed on a command line.
func ValidateTaskName(name string) error {
	if name == "" {
		return &ValidationError{Field: "task name", Message: "is required"}
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return &ValidationError{Field: "tasks." + name, Message: "task names cannot contain whitespace"}
	}
	if strings.HasPrefix(name, "-") {
		return &ValidationError{Field: "tasks." + name, Message: "task names cannot start with '-'"}
	}
	return nil
}

func validateStruct(prefix string, s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Field: prefix, Message: err.Error()}
	}
	fe := verrs[0]
	return &ValidationError{
		Field:   prefix + "." + trimNamespace(fe.Namespace()),
		Message: describeTag(fe),
	}
}

// trimNamespace drops the struct name from a validator namespace.
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return "cannot be empty"
	case "excludesall":
		return fmt.Sprintf("cannot contain any of %q", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
