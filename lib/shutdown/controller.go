// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shutdown

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/faultlog"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/metrics"
	"github.com/bureau-foundation/faultline/lib/process"
)

// Config holds the collaborators of a Controller.
type Config struct {
	Mode         Mode
	Ledger       *ledger.Ledger
	Destinations faultlog.Destinations
	Presenter    Presenter
	Actions      Actions

	// Clock stamps log records when Timestamp is empty. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Timestamp, when set, is used verbatim for every log record.
	Timestamp string

	// Data returns the extra key/value pairs attached to log records.
	// Called once per log write. May be nil.
	Data func() map[string]string

	// Logger receives operational messages: log write failures and
	// panics recovered from actions. Defaults to slog.Default().
	Logger *slog.Logger

	// OnComplete runs after the procedure finishes, with its outcome.
	OnComplete func(Outcome)
}

// Controller runs the terminal procedure at most once.
type Controller struct {
	mode         Mode
	ledger       *ledger.Ledger
	destinations faultlog.Destinations
	presenter    Presenter
	actions      Actions
	clock        clock.Clock
	timestamp    string
	data         func() map[string]string
	logger       *slog.Logger
	onComplete   func(Outcome)

	state atomic.Int32

	mu      sync.Mutex
	outcome Outcome
}

// New validates config and returns an idle Controller.
func New(config Config) (*Controller, error) {
	if _, err := ParseMode(string(config.Mode)); err != nil {
		return nil, err
	}
	if config.Ledger == nil {
		return nil, errors.New("shutdown: ledger is required")
	}
	if config.Destinations.Background == nil {
		return nil, errors.New("shutdown: background log destination is required")
	}
	if config.Presenter == nil {
		if (config.Mode == ModeDevelopment && config.Actions.Development == nil) ||
			(config.Mode == ModeProduction && config.Actions.Production == nil) {
			return nil, fmt.Errorf("shutdown: mode %s has no action and no presenter", config.Mode)
		}
	}
	if config.Destinations.Terminal == nil {
		config.Destinations.Terminal = config.Destinations.Background
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Controller{
		mode:         config.Mode,
		ledger:       config.Ledger,
		destinations: config.Destinations,
		presenter:    config.Presenter,
		actions:      config.Actions,
		clock:        config.Clock,
		timestamp:    config.Timestamp,
		data:         config.Data,
		logger:       config.Logger,
		onComplete:   config.OnComplete,
	}, nil
}

// Mode returns the configured mode.
func (c *Controller) Mode() Mode { return c.mode }

// State returns the current state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Started reports whether the procedure has begun.
func (c *Controller) Started() bool { return c.State() != StateIdle }

// Completed reports whether the procedure has finished.
func (c *Controller) Completed() bool { return c.State() == StateCompleted }

// Outcome returns the outcome of the completed procedure. The second
// result is false until the procedure completes.
func (c *Controller) Outcome() (Outcome, bool) {
	if !c.Completed() {
		return OutcomeContinue, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, true
}

// Trigger runs the terminal procedure if no procedure has started yet
// and returns its outcome. Every other call returns OutcomeContinue
// immediately.
func (c *Controller) Trigger(reason Reason) Outcome {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateTriggered)) {
		return OutcomeContinue
	}

	outcome := c.run(reason)

	c.mu.Lock()
	c.outcome = outcome
	c.mu.Unlock()
	c.state.Store(int32(StateCompleted))

	metrics.ShutdownsTotal.WithLabelValues(string(c.mode), outcome.String()).Inc()
	if c.onComplete != nil {
		c.onComplete(outcome)
	}
	return outcome
}

// procedure carries the per-run state of the terminal procedure.
type procedure struct {
	controller *Controller
	reason     Reason
	timestamp  string
	snapshot   ledger.Snapshot

	logged bool
	logErr error
}

func (c *Controller) run(reason Reason) Outcome {
	p := &procedure{
		controller: c,
		reason:     reason,
		timestamp:  c.stamp(),
		snapshot:   c.ledger.Extract(),
	}

	terminal := reason != ReasonTeardown || p.snapshot.HasTerminal()
	if !terminal {
		records, escalate := c.teardown(p)
		if !escalate {
			return OutcomeContinue
		}
		p.snapshot = ledger.Snapshot{Counts: ledger.CountsOf(records), Records: records}
	}

	c.logger.Debug("running terminal procedure",
		"mode", c.mode,
		"reason", reason,
		"records", len(p.snapshot.Records),
		"terminal", p.snapshot.Counts.Terminal(),
	)

	switch c.mode {
	case ModeDevelopment:
		if c.actions.Development != nil {
			p.invoke("development", c.actions.Development, SeverityMajor)
		} else {
			p.present(PresentationDevelopment, Payload{
				Timestamp: p.timestamp,
				Counts:    p.snapshot.Counts,
				Records:   p.snapshot.Records,
			})
		}
		p.writeLog()
	case ModeProduction:
		p.writeLog()
		if c.actions.Production != nil {
			p.invoke("production", c.actions.Production, SeverityMajor)
		} else {
			p.present(PresentationProduction, Payload{Timestamp: p.timestamp})
		}
	case ModeSilent:
		p.writeLog()
	case ModeCustom:
		severity := severityOf(reason, p.snapshot)
		if action := c.actions.forSeverity(severity); action != nil {
			p.invoke("custom_"+severity.String(), action, severity)
		}
		p.writeLog()
	}

	if p.logErr != nil {
		return HaltWith(process.ExitLogFailure)
	}
	return HaltWith(process.ExitFault)
}

// teardownPasses bounds how many times teardown drains faults recorded
// by its own writes.
const teardownPasses = 4

// teardown writes the pending background faults. Faults recorded while
// it writes are drained and written in turn, up to teardownPasses
// times. When one of them is terminal it returns every record seen so
// far and true, and the caller runs the terminal procedure instead.
func (c *Controller) teardown(p *procedure) ([]fault.Record, bool) {
	records := p.snapshot.Records
	pending := p.snapshot.Records
	for range teardownPasses {
		if ledger.CountsOf(pending).Logged() > 0 {
			if err := c.write(p.record(false, pending)); err != nil {
				c.logger.Error("writing background fault log", "error", err)
			}
		}
		late := c.ledger.ExtractRecords()
		if len(late) == 0 {
			return records, false
		}
		records = append(records[:len(records):len(records)], late...)
		if ledger.CountsOf(late).Terminal() > 0 {
			c.logger.Debug("terminal fault recorded during teardown", "records", len(late))
			return records, true
		}
		pending = late
	}
	if ledger.CountsOf(pending).Logged() > 0 {
		if err := c.write(p.record(false, pending)); err != nil {
			c.logger.Error("writing background fault log", "error", err)
		}
	}
	return records, false
}

// severityOf picks the custom-mode severity: fatal when the procedure
// was fired by an explicit fatal trigger or the snapshot holds a user
// fatal or exception record, major otherwise.
func severityOf(reason Reason, snapshot ledger.Snapshot) Severity {
	if reason == ReasonFatal || snapshot.Counts.Get(fault.TierUserFatal) > 0 {
		return SeverityFatal
	}
	for _, record := range snapshot.Records {
		if record.Kind == fault.KindException {
			return SeverityFatal
		}
	}
	return SeverityMajor
}

func (c *Controller) stamp() string {
	if c.timestamp != "" {
		return c.timestamp
	}
	return c.clock.Now().Format(time.RFC1123Z)
}

func (c *Controller) write(record faultlog.Record) error {
	return c.destinations.Write(record)
}

func (p *procedure) record(terminal bool, records []fault.Record) faultlog.Record {
	record := faultlog.Record{
		Timestamp: p.timestamp,
		Terminal:  terminal,
		Counts:    ledger.CountsOf(records),
		Log:       records,
	}
	if p.controller.data != nil {
		if data := p.controller.data(); len(data) > 0 {
			record.Data = data
		}
	}
	return record
}

// writeLog writes the terminal log record once. Faults appended to the
// ledger after the snapshot was taken (raised by an action or
// presenter) are included.
func (p *procedure) writeLog() error {
	if p.logged {
		return p.logErr
	}
	p.logged = true

	late := p.controller.ledger.ExtractRecords()
	records := append(append([]fault.Record(nil), p.snapshot.Records...), late...)

	if err := p.controller.write(p.record(true, records)); err != nil {
		p.logErr = err
		p.controller.logger.Error("writing terminal fault log", "error", err)
	}
	return p.logErr
}

func (p *procedure) present(kind Presentation, payload Payload) {
	p.guard("presenter_"+kind.String(), func() error {
		return p.controller.presenter.Render(kind, payload)
	})
}

func (p *procedure) invoke(name string, action Action, severity Severity) {
	termination := Termination{
		Mode:      p.controller.mode,
		Reason:    p.reason,
		Severity:  severity,
		Timestamp: p.timestamp,
		Snapshot:  p.snapshot,
		writeLog:  p.writeLog,
	}
	p.guard(name, func() error {
		return action.Invoke(termination)
	})
}

// guard runs fn, converting a panic into an exception record in the
// ledger. The panic's nested trigger, if any, is a no-op because the
// procedure is already running.
func (p *procedure) guard(name string, fn func() error) {
	defer func() {
		value := recover()
		if value == nil {
			return
		}
		metrics.ActionPanics.Inc()
		record := fault.PanicRecord(value, fault.CaptureStack(1))
		record.Message = fmt.Sprintf("panic in %s: %s", name, record.Message)
		p.controller.ledger.Append(record)
		metrics.FaultsTotal.WithLabelValues(record.Tier.String(), record.Kind.String()).Inc()
		p.controller.logger.Error("terminal step panicked", "step", name, "panic", record.Message)
	}()

	if err := fn(); err != nil {
		p.controller.logger.Error("terminal step failed", "step", name, "error", err)
	}
}
