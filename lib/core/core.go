// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/faultline/lib/clock"
	"github.com/bureau-foundation/faultline/lib/config"
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/intake"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/metrics"
	"github.com/bureau-foundation/faultline/lib/present"
	"github.com/bureau-foundation/faultline/lib/process"
	"github.com/bureau-foundation/faultline/lib/sentinel"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// ActionRegistry maps the action names used in configuration to their
// implementations.
type ActionRegistry map[string]shutdown.Action

// Option configures Init.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	clock     clock.Clock
	presenter shutdown.Presenter
	actions   ActionRegistry
	exit      func(code int)
}

// WithLogger sets the logger for operational messages. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock used for log timestamps and the crash
// marker. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithPresenter replaces the default presenter, which renders to
// standard error.
func WithPresenter(presenter shutdown.Presenter) Option {
	return func(o *options) { o.presenter = presenter }
}

// WithActions supplies the actions that configuration refers to by
// name.
func WithActions(actions ActionRegistry) Option {
	return func(o *options) { o.actions = actions }
}

// WithExit replaces the function called when a fault halts the
// process. Defaults to process.Exit.
func WithExit(exit func(code int)) Option {
	return func(o *options) { o.exit = exit }
}

// Core is an initialized fault handler. Its methods are safe for
// concurrent use.
type Core struct {
	mode       shutdown.Mode
	policy     fault.Policy
	ledger     *ledger.Ledger
	controller *shutdown.Controller
	intake     *intake.Intake
	logger     *slog.Logger
	exit       func(code int)

	sentinelPath string

	mu   sync.Mutex
	data map[string]string
}

// Init validates cfg and builds a Core. Log destinations are opened
// and action names resolved before Init returns, so configuration
// problems surface here as a [fault.ConfigurationError] rather than
// during shutdown.
func Init(cfg *config.Config, opts ...Option) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("core: configuration is required")
	}
	resolved := options{
		logger: slog.Default(),
		clock:  clock.Real(),
		exit:   process.Exit,
	}
	for _, opt := range opts {
		opt(&resolved)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.ShutdownMode()
	if err != nil {
		return nil, err
	}
	destinations, err := cfg.OpenDestinations()
	if err != nil {
		return nil, err
	}
	actions, err := resolveActions(cfg, resolved.actions)
	if err != nil {
		return nil, err
	}
	if resolved.presenter == nil {
		resolved.presenter = present.New(os.Stderr)
	}

	c := &Core{
		mode:   mode,
		policy: policy,
		ledger: ledger.New(),
		logger: resolved.logger,
		exit:   resolved.exit,
		data:   maps.Clone(cfg.ExtraLogData),
	}

	c.controller, err = shutdown.New(shutdown.Config{
		Mode:         mode,
		Ledger:       c.ledger,
		Destinations: destinations,
		Presenter:    resolved.presenter,
		Actions:      actions,
		Clock:        resolved.clock,
		Timestamp:    cfg.Timestamp,
		Data:         c.logData,
		Logger:       resolved.logger,
		OnComplete:   c.complete,
	})
	if err != nil {
		return nil, err
	}
	c.intake = intake.New(policy, c.ledger, c.controller)

	if err := c.armSentinel(cfg.Sentinel, resolved.clock.Now()); err != nil {
		return nil, err
	}

	resolved.logger.Debug("fault handling initialized",
		"mode", mode,
		"ignore_mask", fault.FormatMask(policy.IgnoreMask()),
		"background_mask", fault.FormatMask(policy.BackgroundMask()),
		"background_log", destinations.Background.Path(),
		"terminal_log", destinations.Route(true).Path(),
	)
	return c, nil
}

// resolveActions looks up every configured action name. Unknown names
// are reported together.
func resolveActions(cfg *config.Config, registry ActionRegistry) (shutdown.Actions, error) {
	var problems []error
	lookup := func(key, name string) shutdown.Action {
		if name == "" {
			return nil
		}
		action, ok := registry[name]
		if !ok || action == nil {
			problems = append(problems, fmt.Errorf("%s: unknown action %q", key, name))
			return nil
		}
		return action
	}

	actions := shutdown.Actions{
		Development: lookup("development_action", cfg.DevelopmentAction),
		Production:  lookup("production_action", cfg.ProductionAction),
		Major:       lookup("custom_actions.major", cfg.CustomActions.Major),
		Fatal:       lookup("custom_actions.fatal", cfg.CustomActions.Fatal),
	}
	if err := fault.NewConfigurationError(problems...); err != nil {
		return shutdown.Actions{}, err
	}
	return actions, nil
}

// armSentinel reports a marker left by a previous process that never
// completed shutdown, then arms a marker for this process.
func (c *Core) armSentinel(settings config.SentinelConfig, now time.Time) error {
	if settings.Path == "" {
		return nil
	}

	previous, fresh, err := sentinel.Check(settings.Path, now, time.Duration(settings.MaxAge))
	switch {
	case err != nil:
		c.logger.Warn("ignoring unreadable crash marker", "path", settings.Path, "error", err)
	case fresh:
		record := fault.Record{
			Kind:    fault.KindRuntime,
			Tier:    fault.TierBackground,
			Code:    fault.CodeCoreWarning,
			Message: "previous process exited without completing shutdown (" + previous.Describe() + ")",
			File:    settings.Path,
		}
		c.ledger.Append(record)
		metrics.FaultsTotal.WithLabelValues(record.Tier.String(), record.Kind.String()).Inc()
		c.logger.Warn("previous process exited without completing shutdown",
			"instance", previous.Instance,
			"pid", previous.PID,
		)
	}

	if err := sentinel.Write(settings.Path, sentinel.New(now)); err != nil {
		return fault.Configurationf("sentinel.path: %v", err)
	}
	c.sentinelPath = settings.Path
	return nil
}

func (c *Core) complete(outcome shutdown.Outcome) {
	if c.sentinelPath == "" {
		return
	}
	if err := sentinel.Clear(c.sentinelPath); err != nil {
		c.logger.Warn("clearing crash marker", "path", c.sentinelPath, "error", err)
	}
}

// settle exits the process when outcome halts it.
func (c *Core) settle(outcome shutdown.Outcome) shutdown.Outcome {
	if outcome.Halt {
		c.exit(outcome.ExitCode)
	}
	return outcome
}

// callerOptions points captured origins past the Core method.
func callerOptions(options []intake.Option) []intake.Option {
	return append([]intake.Option{intake.WithCallerSkip(1)}, options...)
}

// FromRuntimeFault records a runtime fault. See [intake.Intake.FromRuntimeFault].
func (c *Core) FromRuntimeFault(code fault.Code, message, file string, line int, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.FromRuntimeFault(code, message, file, line, callerOptions(options)...))
}

// FromError records err as a runtime fault. A nil error records
// nothing.
func (c *Core) FromError(err error, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.FromError(err, callerOptions(options)...))
}

// FromPanic records a recovered panic value, which always halts.
func (c *Core) FromPanic(value any, trace []fault.Frame, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.FromPanic(value, trace, callerOptions(options)...))
}

// TriggerMinor records a minor user fault.
func (c *Core) TriggerMinor(message string, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.TriggerMinor(message, callerOptions(options)...))
}

// TriggerMajor records a major user fault, which is logged at the next
// shutdown but does not halt.
func (c *Core) TriggerMajor(message string, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.TriggerMajor(message, callerOptions(options)...))
}

// TriggerFatal records a fatal user fault and runs the shutdown
// procedure.
func (c *Core) TriggerFatal(message string, options ...intake.Option) shutdown.Outcome {
	return c.settle(c.intake.TriggerFatal(message, callerOptions(options)...))
}

// Shutdown runs the shutdown procedure for reason. Use
// shutdown.ReasonTeardown at normal process exit: it writes pending
// background faults and halts only if a terminal fault is pending.
func (c *Core) Shutdown(reason shutdown.Reason) shutdown.Outcome {
	return c.settle(c.controller.Trigger(reason))
}

// Extract removes and returns everything recorded so far.
func (c *Core) Extract() ledger.Snapshot {
	return c.ledger.Extract()
}

// Last returns the most recent record without removing it.
func (c *Core) Last() (fault.Record, bool) {
	return c.ledger.Last()
}

// AddLogData attaches a key/value pair to every log record written
// from now on. Setting an existing key replaces its value.
func (c *Core) AddLogData(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[key] = value
}

func (c *Core) logData() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.data)
}

// Mode returns the configured shutdown mode.
func (c *Core) Mode() shutdown.Mode { return c.mode }

// Policy returns the classification policy.
func (c *Core) Policy() fault.Policy { return c.policy }

// Completed reports whether the shutdown procedure has finished.
func (c *Core) Completed() bool { return c.controller.Completed() }

// Outcome returns the outcome of the completed shutdown procedure.
func (c *Core) Outcome() (shutdown.Outcome, bool) { return c.controller.Outcome() }
