// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/metrics"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// Codes carried by manually triggered records.
const (
	CodeMinor = fault.CodeUserNotice
	CodeMajor = fault.CodeUserWarning
	CodeFatal = fault.CodeUserError
)

// Trigger is the part of the shutdown controller the intake needs.
type Trigger interface {
	Trigger(reason shutdown.Reason) shutdown.Outcome
}

// Intake turns observed faults into ledger records.
type Intake struct {
	policy     fault.Policy
	ledger     *ledger.Ledger
	controller Trigger
}

// New returns an Intake that classifies with policy, records into
// ledger, and escalates terminal faults to controller.
func New(policy fault.Policy, ledger *ledger.Ledger, controller Trigger) *Intake {
	return &Intake{policy: policy, ledger: ledger, controller: controller}
}

// Option adjusts a single intake call.
type Option func(*callOptions)

type callOptions struct {
	skip int
}

// WithCallerSkip skips additional stack frames when capturing the call
// site. Wrappers around the intake pass the number of frames they add
// so records point at application code instead of the wrapper.
func WithCallerSkip(frames int) Option {
	return func(options *callOptions) {
		options.skip += frames
	}
}

func resolve(options []Option) callOptions {
	var resolved callOptions
	for _, option := range options {
		option(&resolved)
	}
	return resolved
}

// FromRuntimeFault records a runtime fault reported with an explicit
// origin. The tier comes from the classification policy; a terminal
// tier triggers the shutdown procedure.
func (i *Intake) FromRuntimeFault(code fault.Code, message, file string, line int, options ...Option) shutdown.Outcome {
	resolved := resolve(options)
	record := fault.Record{
		Kind:    fault.KindRuntime,
		Tier:    i.policy.Classify(code),
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
		Trace:   fault.CaptureStack(1 + resolved.skip),
	}
	if record.File == "" && len(record.Trace) > 0 {
		record.File, record.Line = record.Trace[0].File, record.Trace[0].Line
	}
	return i.accept(record, shutdown.ReasonFault)
}

// FromError records err as a runtime fault raised at the caller. The
// code is taken from the error chain when something in it implements
// fault.Coder, otherwise CodeRecoverable. A nil error records nothing.
func (i *Intake) FromError(err error, options ...Option) shutdown.Outcome {
	if err == nil {
		return shutdown.OutcomeContinue
	}
	resolved := resolve(options)
	code := fault.CodeOf(err, fault.CodeRecoverable)
	file, line := fault.Caller(resolved.skip)
	record := fault.Record{
		Kind:    fault.KindRuntime,
		Tier:    i.policy.Classify(code),
		Code:    code,
		Message: err.Error(),
		File:    file,
		Line:    line,
		Trace:   fault.CaptureStack(1 + resolved.skip),
	}
	return i.accept(record, shutdown.ReasonFault)
}

// FromPanic records a recovered panic. Uncaught panics are always
// terminal. When trace is nil the stack is captured here, which inside
// a deferred recover still includes the panicking frames.
func (i *Intake) FromPanic(value any, trace []fault.Frame, options ...Option) shutdown.Outcome {
	if trace == nil {
		trace = fault.CaptureStack(1 + resolve(options).skip)
	}
	return i.accept(fault.PanicRecord(value, trace), shutdown.ReasonFault)
}

// TriggerMinor records a user fault that is kept but never logged on
// its own.
func (i *Intake) TriggerMinor(message string, options ...Option) shutdown.Outcome {
	return i.manual(fault.TierUserMinor, CodeMinor, message, resolve(options).skip)
}

// TriggerMajor records a user fault that is logged but never halts.
func (i *Intake) TriggerMajor(message string, options ...Option) shutdown.Outcome {
	return i.manual(fault.TierUserMajor, CodeMajor, message, resolve(options).skip)
}

// TriggerFatal records a user fault and runs the shutdown procedure.
func (i *Intake) TriggerFatal(message string, options ...Option) shutdown.Outcome {
	return i.manual(fault.TierUserFatal, CodeFatal, message, resolve(options).skip)
}

// manual is called directly by the Trigger* methods, so one extra
// frame separates it from the application call site.
func (i *Intake) manual(tier fault.Tier, code fault.Code, message string, skip int) shutdown.Outcome {
	file, line := fault.Caller(1 + skip)
	record := fault.Record{
		Kind:    fault.KindUser,
		Tier:    tier,
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
		Trace:   fault.CaptureStack(2 + skip),
	}
	return i.accept(record, shutdown.ReasonFatal)
}

func (i *Intake) accept(record fault.Record, reason shutdown.Reason) shutdown.Outcome {
	i.ledger.Append(record)
	metrics.FaultsTotal.WithLabelValues(record.Tier.String(), record.Kind.String()).Inc()
	if !record.Tier.IsTerminal() {
		return shutdown.OutcomeContinue
	}
	return i.controller.Trigger(reason)
}
