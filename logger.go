// SPDX-License-Identifier: MIT

package spectral

import (
	"io"
	"log/slog"
	"os"

	"github.com/katalvlaran/lvlath-spectral/config"
)

// Logger wraps slog.Logger with partitioning-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// NewLoggerFromConfig builds a text or JSON logger at the configured level.
func NewLoggerFromConfig(cfg *config.Config) (*Logger, error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format == "json" {
		return NewJSONLogger(lvl), nil
	}

	return NewTextLogger(lvl), nil
}

// WithRank tags every record with the rank and group size.
func (l *Logger) WithRank(rank, procs int) *Logger {
	return &Logger{Logger: l.Logger.With("rank", rank, "procs", procs)}
}
