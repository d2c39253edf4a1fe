// Package logging provides a configured slog logger for atbuilder.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// RunKey is the attribute key carrying the id of a generation run.
const RunKey = "run"

// Options configures the default slog logger used by atbuilder.
type Options struct {
	// Verbose toggles debug level logging when true.
	Verbose bool
	// Writer directs log output; defaults to os.Stderr when nil.
	Writer io.Writer
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// New constructs a slog.Logger with atbuilder defaults.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(writer, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(writer, handlerOpts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRun tags logger with a fresh run id and returns the tagged logger with the id.
func WithRun(logger *slog.Logger) (*slog.Logger, string) {
	if logger == nil {
		logger = Discard()
	}
	id := uuid.NewString()
	return logger.With(RunKey, id), id
}
