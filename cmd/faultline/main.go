// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command faultline inspects fault handling configuration and fault
// logs, and demonstrates the shutdown procedure.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/bureau-foundation/faultline/cmd/faultline/cli"
	"github.com/bureau-foundation/faultline/lib/config"
	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own diagnostics (like check) return
		// an ExitError with the desired exit code.
		var coder interface{ ExitCode() int }
		switch {
		case errors.As(err, &coder):
			process.Exit(coder.ExitCode())
		case errors.Is(err, fault.ErrConfiguration):
			process.FatalCode(err, process.ExitConfig)
		default:
			process.Fatal(err)
		}
	}
}

func run() error {
	return root(os.Stdout, os.Stderr, process.Exit).Execute(os.Args[1:])
}

// root assembles the command tree. exit is what the demo's fault
// handler calls when a fault halts the process.
func root(stdout, stderr io.Writer, exit func(int)) *cli.Command {
	return &cli.Command{
		Name:        "faultline",
		Summary:     "Fault classification and shutdown handling",
		Description: "Inspect fault handling configuration and fault logs.",
		Output:      stderr,
		Subcommands: []*cli.Command{
			checkCommand(stdout),
			showCommand(stdout),
			demoCommand(stderr, exit),
			versionCommand(stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Validate a configuration file",
				Command:     "faultline check --config /etc/app/faultline.yaml",
			},
			{
				Description: "Print the terminal records of a fault log",
				Command:     "faultline show --file /var/log/app/faults.log --terminal-only",
			},
		},
	}
}

// loadConfig reads path, or the file named by FAULTLINE_CONFIG when
// path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
