package config

import (
	"log/slog"
	"os"
)

// NewTextLogger creates a slog text logger writing to stderr at the given
// level. *slog.Logger satisfies the eventbus.Logger interface directly.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a slog JSON logger writing to stderr at the given
// level, for structured log collection.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
