// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shutdown

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/process"
)

// Mode selects the variant of the terminal procedure.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
	ModeSilent      Mode = "silent"
	ModeCustom      Mode = "custom"
)

// Modes returns every valid mode.
func Modes() []Mode {
	return []Mode{ModeDevelopment, ModeProduction, ModeSilent, ModeCustom}
}

// ParseMode resolves a mode name case-insensitively.
func ParseMode(name string) (Mode, error) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(name)))
	for _, mode := range Modes() {
		if mode == normalized {
			return mode, nil
		}
	}
	return "", fault.Configurationf("invalid mode %q (valid: development, production, silent, custom)", name)
}

// State is the controller's position in Idle -> Triggered -> Completed.
type State int32

const (
	StateIdle State = iota
	StateTriggered
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	case StateCompleted:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Reason identifies what fired a trigger.
type Reason uint8

const (
	// ReasonFault is a runtime fault classified as terminal.
	ReasonFault Reason = iota

	// ReasonFatal is an explicit fatal trigger.
	ReasonFatal

	// ReasonTeardown is the end-of-run check. It escalates only when
	// the ledger holds terminal entries.
	ReasonTeardown
)

func (r Reason) String() string {
	switch r {
	case ReasonFault:
		return "fault"
	case ReasonFatal:
		return "fatal"
	case ReasonTeardown:
		return "teardown"
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// Outcome tells the owner of the process what to do after an intake
// or trigger returns.
type Outcome struct {
	Halt     bool
	ExitCode int
}

// OutcomeContinue lets normal execution resume.
var OutcomeContinue = Outcome{}

// HaltWith returns an outcome that halts with code.
func HaltWith(code int) Outcome {
	return Outcome{Halt: true, ExitCode: code}
}

func (o Outcome) String() string {
	if !o.Halt {
		return "continue"
	}
	return process.ExitName(o.ExitCode)
}

// Severity distinguishes the two custom-mode actions.
type Severity uint8

const (
	SeverityMajor Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "major"
}
