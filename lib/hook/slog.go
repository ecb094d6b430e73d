// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/intake"
)

// LevelCodes maps slog levels to the fault codes reported for them.
// A zero code disables forwarding for that level. Records below
// slog.LevelWarn are never forwarded.
type LevelCodes struct {
	Warn  fault.Code
	Error fault.Code
}

// DefaultLevelCodes reports warnings as WARNING and errors as
// RECOVERABLE_ERROR.
func DefaultLevelCodes() LevelCodes {
	return LevelCodes{Warn: fault.CodeWarning, Error: fault.CodeRecoverable}
}

func (c LevelCodes) forLevel(level slog.Level) fault.Code {
	switch {
	case level >= slog.LevelError:
		return c.Error
	case level >= slog.LevelWarn:
		return c.Warn
	}
	return 0
}

// Handler is a slog.Handler that writes through to another handler
// and reports warning and error records to a Target as runtime faults.
// The wrapped handler sees the record first, so the log line is
// written even when the fault halts the process.
//
// Do not give the Target a logger built on this handler: the shutdown
// controller logs its own failures at error level.
type Handler struct {
	next   slog.Handler
	target Target
	codes  LevelCodes
	attrs  []slog.Attr
	group  string
}

// NewHandler returns a Handler that writes to next and reports to
// target using codes.
func NewHandler(next slog.Handler, target Target, codes LevelCodes) *Handler {
	return &Handler{next: next, target: target, codes: codes}
}

// Enabled reports whether either the wrapped handler or the fault
// bridge wants records at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.codes.forLevel(level) != 0 || h.next.Enabled(ctx, level)
}

// Handle writes the record to the wrapped handler, then reports it.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	if h.next.Enabled(ctx, record.Level) {
		err = h.next.Handle(ctx, record)
	}

	code := h.codes.forLevel(record.Level)
	if code == 0 {
		return err
	}
	file, line := source(record.PC)
	h.target.FromRuntimeFault(code, h.message(record), file, line, intake.WithCallerSkip(1))
	return err
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.group = h.qualifyKey(name)
	return &clone
}

func (h *Handler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	qualified := make([]slog.Attr, len(attrs))
	for index, attr := range attrs {
		qualified[index] = slog.Attr{Key: h.qualifyKey(attr.Key), Value: attr.Value}
	}
	return qualified
}

// message renders the record as "message key=value ...".
func (h *Handler) message(record slog.Record) string {
	var builder strings.Builder
	builder.WriteString(record.Message)
	write := func(attr slog.Attr) {
		fmt.Fprintf(&builder, " %s=%v", attr.Key, attr.Value.Resolve())
	}
	for _, attr := range h.attrs {
		write(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		write(slog.Attr{Key: h.qualifyKey(attr.Key), Value: attr.Value})
		return true
	})
	return builder.String()
}

func source(pc uintptr) (string, int) {
	if pc == 0 {
		return "", 0
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return frame.File, frame.Line
}
