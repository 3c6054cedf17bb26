// Package slogx holds small log/slog helpers shared by the CLI and the
// pipeline components.
package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a string (debug|info|warn|error) to slog.Level.
// Unknown strings map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a text logger writing to stderr at the given level string.
func New(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// Default logger for direct use (stderr, level info).
var Default = New("info")
