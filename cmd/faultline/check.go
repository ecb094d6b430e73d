// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/faultline/cmd/faultline/cli"
	"github.com/bureau-foundation/faultline/lib/config"
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/process"
	"github.com/bureau-foundation/faultline/lib/sentinel"
)

type checkReport struct {
	Mode           string            `json:"mode"`
	IgnoreMask     string            `json:"ignore_mask"`
	BackgroundMask string            `json:"background_mask"`
	BackgroundLog  string            `json:"background_log"`
	TerminalLog    string            `json:"terminal_log"`
	Actions        map[string]string `json:"actions,omitempty"`
	Sentinel       *sentinelReport   `json:"sentinel,omitempty"`
	Problems       []string          `json:"problems,omitempty"`
}

type sentinelReport struct {
	Path   string `json:"path"`
	MaxAge string `json:"max_age"`
	Armed  string `json:"armed,omitempty"`

	// Contents is the diagnostic notation of a marker that exists but
	// does not decode.
	Contents string `json:"contents,omitempty"`
}

func checkCommand(stdout io.Writer) *cli.Command {
	var configPath string
	var outputJSON bool

	return &cli.Command{
		Name:    "check",
		Summary: "Validate a configuration file",
		Description: `Load a configuration file, validate it, and open both log
destinations. Every problem is listed; the exit code is 78 when any
problem is found.`,
		Usage: "faultline check [--config PATH] [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "configuration file (default: $FAULTLINE_CONFIG)")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			report := check(configPath, time.Now())
			if outputJSON {
				if err := cli.WriteJSON(stdout, report); err != nil {
					return err
				}
			} else {
				writeCheckReport(stdout, report)
			}
			if len(report.Problems) > 0 {
				return &cli.ExitError{Code: process.ExitConfig}
			}
			return nil
		},
	}
}

// check builds the report for the configuration at path. A file that
// cannot be read or parsed is reported as a problem like any other.
func check(path string, now time.Time) checkReport {
	var report checkReport

	cfg, err := loadConfig(path)
	if err != nil {
		report.Problems = problemsOf(err)
		return report
	}

	report.Mode = cfg.Mode
	report.IgnoreMask = cfg.IgnoreMask.String()
	report.BackgroundMask = cfg.BackgroundMask.String()
	report.BackgroundLog = cfg.LogDestinationBackground
	report.TerminalLog = cfg.TerminalDestination()
	report.Actions = configuredActions(cfg)

	if err := cfg.Validate(); err != nil {
		report.Problems = problemsOf(err)
		return report
	}
	if _, err := cfg.OpenDestinations(); err != nil {
		report.Problems = problemsOf(err)
		return report
	}

	if cfg.Sentinel.Path != "" {
		maxAge := time.Duration(cfg.Sentinel.MaxAge)
		report.Sentinel = &sentinelReport{Path: cfg.Sentinel.Path, MaxAge: maxAge.String()}
		marker, fresh, err := sentinel.Check(cfg.Sentinel.Path, now, maxAge)
		switch {
		case err != nil:
			report.Problems = append(report.Problems, fmt.Sprintf("sentinel.path: %v", err))
			if contents, dumpErr := sentinel.Dump(cfg.Sentinel.Path); dumpErr == nil {
				report.Sentinel.Contents = contents
			}
		case fresh:
			report.Sentinel.Armed = marker.Describe()
		}
	}
	return report
}

func configuredActions(cfg *config.Config) map[string]string {
	actions := make(map[string]string)
	for key, name := range map[string]string{
		"development_action":   cfg.DevelopmentAction,
		"production_action":    cfg.ProductionAction,
		"custom_actions.major": cfg.CustomActions.Major,
		"custom_actions.fatal": cfg.CustomActions.Fatal,
	} {
		if name != "" {
			actions[key] = name
		}
	}
	if len(actions) == 0 {
		return nil
	}
	return actions
}

func problemsOf(err error) []string {
	var configErr *fault.ConfigurationError
	if !errors.As(err, &configErr) {
		return []string{err.Error()}
	}
	problems := make([]string, len(configErr.Problems))
	for index, problem := range configErr.Problems {
		problems[index] = problem.Error()
	}
	return problems
}

func writeCheckReport(w io.Writer, report checkReport) {
	if report.Mode != "" {
		fmt.Fprintf(w, "mode:             %s\n", report.Mode)
		fmt.Fprintf(w, "ignore mask:      %s\n", report.IgnoreMask)
		fmt.Fprintf(w, "background mask:  %s\n", report.BackgroundMask)
		fmt.Fprintf(w, "background log:   %s\n", report.BackgroundLog)
		fmt.Fprintf(w, "terminal log:     %s\n", report.TerminalLog)
		for _, key := range []string{"development_action", "production_action", "custom_actions.major", "custom_actions.fatal"} {
			if name, ok := report.Actions[key]; ok {
				fmt.Fprintf(w, "%-21s %s\n", key+":", name)
			}
		}
	}
	if report.Sentinel != nil {
		fmt.Fprintf(w, "crash marker:     %s (max age %s)\n", report.Sentinel.Path, report.Sentinel.MaxAge)
		if report.Sentinel.Armed != "" {
			fmt.Fprintf(w, "  armed by %s\n", report.Sentinel.Armed)
		}
		if report.Sentinel.Contents != "" {
			fmt.Fprintf(w, "  contents %s\n", report.Sentinel.Contents)
		}
	}

	if len(report.Problems) == 0 {
		fmt.Fprintln(w, "configuration OK")
		return
	}
	fmt.Fprintf(w, "%d configuration problem(s):\n", len(report.Problems))
	for _, problem := range report.Problems {
		fmt.Fprintf(w, "  - %s\n", problem)
	}
}
