// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command
// operations. When stderr is a terminal, records are colorized by
// tint for humans. When stderr is piped or redirected, uses
// slog.JSONHandler so the output stays machine-parseable.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger(verbose).With("command", "demo")
func NewCommandLogger(verbose bool) *slog.Logger {
	return slog.New(newHandler(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), verbose))
}

func newHandler(w io.Writer, terminal, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if terminal {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}
