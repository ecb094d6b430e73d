// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/faultline/cmd/faultline/cli"
	"github.com/bureau-foundation/faultline/lib/faultlog"
	"github.com/bureau-foundation/faultline/lib/present"
)

func showCommand(stdout io.Writer) *cli.Command {
	var (
		path         string
		terminalOnly bool
		plain        bool
		outputJSON   bool
	)

	return &cli.Command{
		Name:    "show",
		Summary: "Print a fault log",
		Description: `Print the records of a fault log in the development layout: counts
per tier, then every fault with its origin and stack trace.`,
		Usage: "faultline show --file PATH [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flagSet.StringVarP(&path, "file", "f", "", "fault log to read")
			flagSet.BoolVar(&terminalOnly, "terminal-only", false, "only print records written by a terminal shutdown")
			flagSet.BoolVar(&plain, "plain", false, "disable styling even on a terminal")
			flagSet.BoolVar(&outputJSON, "json", false, "output the records as a JSON array")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Show only the records that ended a process",
				Command:     "faultline show -f /var/log/app/faults.log --terminal-only",
			},
		},
		Run: func(args []string) error {
			if path == "" && len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("--file is required")
			}

			// ReadAll returns the records before a malformed line
			// alongside the error; print those first.
			records, readErr := faultlog.ReadAll(path)
			if terminalOnly {
				records = terminalRecords(records)
			}

			if outputJSON {
				if records == nil {
					records = []faultlog.Record{}
				}
				if err := cli.WriteJSON(stdout, records); err != nil {
					return err
				}
				return readErr
			}

			renderer := present.New(stdout)
			if plain {
				renderer = present.NewWithProfile(stdout, termenv.Ascii)
			}
			if len(records) == 0 && readErr == nil {
				fmt.Fprintf(stdout, "%s: no records\n", path)
			}
			for _, record := range records {
				if err := renderer.RenderLogRecord(record); err != nil {
					return err
				}
			}
			return readErr
		},
	}
}

func terminalRecords(records []faultlog.Record) []faultlog.Record {
	var kept []faultlog.Record
	for _, record := range records {
		if record.Terminal {
			kept = append(kept, record)
		}
	}
	return kept
}
