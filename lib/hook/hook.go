// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hook

import (
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/intake"
	"github.com/bureau-foundation/faultline/lib/process"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// Target is the fault handler the hooks report to. *core.Core
// implements it.
type Target interface {
	FromRuntimeFault(code fault.Code, message, file string, line int, options ...intake.Option) shutdown.Outcome
	FromPanic(value any, trace []fault.Frame, options ...intake.Option) shutdown.Outcome
	Shutdown(reason shutdown.Reason) shutdown.Outcome
	Completed() bool
	Outcome() (shutdown.Outcome, bool)
}

// Hook connects process-level events to a Target.
type Hook struct {
	target Target
}

// New returns a Hook reporting to target.
func New(target Target) *Hook {
	return &Hook{target: target}
}

// Run calls fn and reports how it ended: a panic is recorded as an
// exception, a returned error is recorded as a runtime fault, and
// everything else runs the teardown procedure. The result is the exit
// code for the process:
//
//	func main() {
//		os.Exit(hook.New(handler).Run(run))
//	}
func (h *Hook) Run(fn func() error) (code int) {
	defer func() {
		value := recover()
		if value == nil {
			return
		}
		outcome := h.target.FromPanic(value, fault.CaptureStack(1))
		code = h.exitCode(outcome, process.ExitFault)
	}()
	return h.CheckLastFault(fn())
}

// Recover records a panic in progress. It must be deferred directly:
//
//	defer hook.Recover()
//
// When the shutdown procedure already completed without halting,
// nothing is left to log or halt for the panic, so Recover records it
// and panics again with the same value.
func (h *Hook) Recover() {
	value := recover()
	if value == nil {
		return
	}
	outcome := h.target.FromPanic(value, fault.CaptureStack(1))
	if outcome.Halt {
		return
	}
	if previous, ok := h.target.Outcome(); ok && !previous.Halt {
		panic(value)
	}
}

// Go runs fn in a new goroutine whose panic, if any, is recorded
// instead of crashing the process. The returned channel is closed once
// fn has returned or its panic has been handled.
func (h *Hook) Go(fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer h.Recover()
		fn()
	}()
	return done
}

// CheckLastFault is the process exit path. If the shutdown procedure
// already ran, it returns that procedure's exit code. Otherwise a
// non-nil err is recorded (CodeError unless the error carries its own
// code) and the teardown procedure runs.
func (h *Hook) CheckLastFault(err error) int {
	if h.target.Completed() {
		return h.exitCode(shutdown.OutcomeContinue, process.ExitOK)
	}

	fallback := process.ExitOK
	if err != nil {
		fallback = process.ExitFailure
		code := fault.CodeOf(err, fault.CodeError)
		outcome := h.target.FromRuntimeFault(code, err.Error(), "", 0, intake.WithCallerSkip(1))
		if outcome.Halt {
			return outcome.ExitCode
		}
	}
	return h.exitCode(h.target.Shutdown(shutdown.ReasonTeardown), fallback)
}

// exitCode prefers outcome, then the outcome of a procedure that
// already completed, then fallback.
func (h *Hook) exitCode(outcome shutdown.Outcome, fallback int) int {
	if outcome.Halt {
		return outcome.ExitCode
	}
	if previous, ok := h.target.Outcome(); ok && previous.Halt {
		return previous.ExitCode
	}
	return fallback
}
