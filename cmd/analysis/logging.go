package main

import (
	"io"
	"log/slog"
)

// newLogger builds the tool's structured logger. The configuration has
// already been validated, so the level always parses.
func newLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", "cowbloom-analysis")
}
