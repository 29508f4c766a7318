package cli

import (
	"errors"

	"github.com/tsk-dev/tsk/internal/cache"
	"github.com/tsk-dev/tsk/internal/config"
	tskerrors "github.com/tsk-dev/tsk/internal/errors"
	"github.com/tsk-dev/tsk/internal/expr"
	"github.com/tsk-dev/tsk/internal/project"
	"github.com/tsk-dev/tsk/internal/resolve"
	"github.com/tsk-dev/tsk/internal/runner"
)

// classify maps a component error to a TskError so that it gets the right
// exit code. Errors carrying a child exit code are returned unchanged.
func classify(err error) error {
	var (
		tskErr   *tskerrors.TskError
		exitErr  *runner.ExitError
		startErr *runner.StartError
		resErr   *resolve.Error
		cacheErr *cache.Error
		valErr   *config.ValidationError
		cfgErr   *config.ParseError
		parseErr *expr.ParseError
	)
	switch {
	case errors.As(err, &tskErr), errors.As(err, &exitErr):
		return err
	case errors.As(err, &startErr):
		return tskerrors.TaskError(startErr.Task, err)
	case errors.Is(err, project.ErrNoConfig), errors.As(err, &cacheErr):
		return tskerrors.WrapKind(tskerrors.KindEnvironment, err)
	case errors.As(err, &resErr):
		if resErr.Kind == resolve.TaskNotFound {
			return tskerrors.WrapKind(tskerrors.KindNotFound, err)
		}
		return tskerrors.WrapKind(tskerrors.KindConfig, err)
	case errors.As(err, &valErr), errors.As(err, &cfgErr), errors.As(err, &parseErr):
		return tskerrors.WrapKind(tskerrors.KindConfig, err)
	}
	return tskerrors.WrapKind(tskerrors.KindRuntime, err)
}
