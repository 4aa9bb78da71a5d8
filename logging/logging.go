// Package logging builds the structured, colorized loggers handed to
// ensembles and layers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

type Level slog.Level

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// ParseLevel converts a textual log level into a Level. Unknown values yield
// LevelInfo.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Verbosity returns the level at which all messages of an ensemble with the
// given verbosity get emitted. 0 only lets warnings through, 1 adds per layer
// progress, 2 adds per fold progress.
func Verbosity(ver int) Level {
	switch {
	case ver >= 2:
		return LevelDebug
	case ver == 1:
		return LevelInfo
	default:
		return LevelWarn
	}
}

func NewLogger(w io.Writer, level Level, noColor bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:   slog.Level(level),
		NoColor: noColor,
	})

	return slog.New(handler)
}
