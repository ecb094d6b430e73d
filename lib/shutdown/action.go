// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shutdown

import (
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/ledger"
)

// Presentation selects which view a Presenter renders.
type Presentation uint8

const (
	// PresentationDevelopment is the full diagnostic view: counts and
	// every record with its trace.
	PresentationDevelopment Presentation = iota

	// PresentationProduction is the generic failure message. Its
	// payload carries no fault detail.
	PresentationProduction
)

func (p Presentation) String() string {
	if p == PresentationProduction {
		return "production"
	}
	return "development"
}

// Payload is the data handed to a Presenter.
type Payload struct {
	Timestamp string
	Counts    ledger.Counts
	Records   []fault.Record
}

// Presenter renders the terminal presentation.
type Presenter interface {
	Render(kind Presentation, payload Payload) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(kind Presentation, payload Payload) error

// Render calls f.
func (f PresenterFunc) Render(kind Presentation, payload Payload) error {
	return f(kind, payload)
}

// Termination describes the procedure an Action runs inside.
type Termination struct {
	Mode      Mode
	Reason    Reason
	Severity  Severity
	Timestamp string
	Snapshot  ledger.Snapshot

	writeLog func() error
}

// WriteLog writes the shutdown log record now. The record is written
// at most once per procedure; the controller writes it after the
// action returns if the action did not. Calling WriteLog lets an
// action order its own work after the log.
func (t Termination) WriteLog() error {
	if t.writeLog == nil {
		return nil
	}
	return t.writeLog()
}

// Action is a user-supplied step of the terminal procedure. Actions
// are selected per mode when the controller is built.
type Action interface {
	Invoke(termination Termination) error
}

// ActionFunc adapts a function to Action.
type ActionFunc func(termination Termination) error

// Invoke calls f.
func (f ActionFunc) Invoke(termination Termination) error {
	return f(termination)
}

// Actions holds the configured actions. Development and Production
// replace the default presentation in their modes; Major and Fatal are
// the custom-mode actions. Any of them may be nil.
type Actions struct {
	Development Action
	Production  Action
	Major       Action
	Fatal       Action
}

// forSeverity returns the custom-mode action for severity.
func (a Actions) forSeverity(severity Severity) Action {
	if severity == SeverityFatal {
		return a.Fatal
	}
	return a.Major
}
