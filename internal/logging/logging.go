// Package logging configures the diagnostic logger shared by the resolver,
// materializer, cache and runner.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// DebugEnv enables debug logging when set to a non-empty value.
const DebugEnv = "TSK_DEBUG"

// New returns a text logger writing to w. Time and level attributes are
// dropped. When debug is false the logger discards everything.
func New(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return Discard()
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// FromEnv returns a logger writing to stderr, enabled by TSK_DEBUG.
func FromEnv() *slog.Logger {
	return New(os.Stderr, os.Getenv(DebugEnv) != "")
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
