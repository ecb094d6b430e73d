// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/faultline/cmd/faultline/cli"
	"github.com/bureau-foundation/faultline/lib/core"
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/hook"
	"github.com/bureau-foundation/faultline/lib/present"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// demoEndings are the ways a demo run can finish.
var demoEndings = []string{"fatal", "panic", "error", "teardown"}

func demoCommand(stderr io.Writer, exit func(int)) *cli.Command {
	var (
		configPath string
		until      string
		verbose    bool
	)

	return &cli.Command{
		Name:    "demo",
		Summary: "Raise sample faults under a configuration",
		Description: `Initialize fault handling from a configuration file, raise a minor,
a major, and a background fault, then end the run the way --until
says: a fatal trigger, an unrecovered panic, an error returned from
main, or a clean teardown. Inspect the result with "faultline show".

The action name "summary" is available to the configuration's action
settings; it writes the log first and then prints a one-line summary.`,
		Usage: "faultline demo [--config PATH] [--until fatal|panic|error|teardown]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("demo", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "configuration file (default: $FAULTLINE_CONFIG)")
			flagSet.StringVar(&until, "until", "fatal", "how the run ends: fatal, panic, error, teardown")
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug detail")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if !slices.Contains(demoEndings, until) {
				return fmt.Errorf("invalid --until %q (valid: fatal, panic, error, teardown)", until)
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := cli.NewCommandLogger(verbose).With("command", "demo")
			handler, err := core.Init(cfg,
				core.WithLogger(logger),
				core.WithPresenter(present.New(stderr)),
				core.WithActions(core.ActionRegistry{"summary": summaryAction(stderr)}),
				core.WithExit(exit),
			)
			if err != nil {
				return err
			}

			// Warnings logged through the bridged logger become USER_WARNING
			// faults.
			bridged := slog.New(hook.NewHandler(logger.Handler(), handler, hook.LevelCodes{Warn: fault.CodeUserWarning}))

			code := hook.New(handler).Run(func() error {
				return runDemo(handler, bridged, until)
			})
			if code != 0 {
				return &cli.ExitError{Code: code}
			}
			return nil
		},
	}
}

func runDemo(handler *core.Core, logger *slog.Logger, until string) error {
	handler.AddLogData("command", "faultline demo")

	handler.TriggerMinor("demo: minor fault, kept in the ledger only")
	handler.TriggerMajor("demo: major fault, logged at shutdown")
	handler.FromRuntimeFault(fault.CodeDeprecated, "demo: call to a deprecated API", "", 0)
	logger.Warn("demo: warning routed through slog", "until", until)

	switch until {
	case "fatal":
		handler.TriggerFatal("demo: fatal fault, runs the shutdown procedure")
	case "panic":
		panic("demo: unrecovered panic")
	case "error":
		return errors.New("demo: error returned from main")
	}
	return nil
}

// summaryAction writes the log, then prints a one-line summary of the
// shutdown to w.
func summaryAction(w io.Writer) shutdown.Action {
	return shutdown.ActionFunc(func(termination shutdown.Termination) error {
		logErr := termination.WriteLog()
		_, err := fmt.Fprintf(w, "faultline: %s shutdown (%s, %s): %d fault(s), %d terminal\n",
			termination.Severity,
			termination.Mode,
			termination.Reason,
			termination.Snapshot.Counts.Total(),
			termination.Snapshot.Counts.Terminal(),
		)
		return errors.Join(logErr, err)
	})
}
