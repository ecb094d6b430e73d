// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/faultline/cmd/faultline/cli"
	"github.com/bureau-foundation/faultline/lib/version"
)

func versionCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			_, err := fmt.Fprintln(stdout, version.Full())
			return err
		},
	}
}
