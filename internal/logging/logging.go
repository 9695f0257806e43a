// =============================================================================
// CIIM Report Sync - Logging
// =============================================================================
//
// Every component logs through the Logger interface below. The default
// implementation is backed by log/slog so that output can be switched between
// human-readable text and JSON lines without touching callers.
//
// LEVELS:
//   debug : per-row decisions (skipped rows, classification outcomes)
//   info  : one line per operation (paths resolved, rows transferred)
//   warn  : recoverable problems (missing header for a mapped field)
//   error : the operation was aborted
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging contract used across the module.
// Messages are printf-style: Info("wrote %d rows to %s", n, path).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// SLOG LOGGER
// =============================================================================

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// Options controls how New builds a logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info".
	Level string

	// Format is "text" or "json". Default: "text".
	Format string

	// Output is where log lines go. Default: os.Stderr.
	Output io.Writer
}

// New creates a Logger from the given options.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return &slogLogger{l: slog.New(handler)}
}

// ParseLevel maps a level name to a slog.Level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Debug(msg string, args ...interface{}) {
	s.l.Debug(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Info(msg string, args ...interface{}) {
	s.l.Info(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Warn(msg string, args ...interface{}) {
	s.l.Warn(fmt.Sprintf(msg, args...))
}

func (s *slogLogger) Error(msg string, args ...interface{}) {
	s.l.Error(fmt.Sprintf(msg, args...))
}

// =============================================================================
// DISCARD LOGGER
// =============================================================================

type discardLogger struct{}

// Discard returns a Logger that drops everything. Useful in tests.
func Discard() Logger {
	return discardLogger{}
}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
