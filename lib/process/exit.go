// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// Exit codes used by faultline-managed processes. The values follow
// the BSD sysexits convention where one applies.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitFault      = 70 // EX_SOFTWARE: the terminal procedure ran
	ExitLogFailure = 74 // EX_IOERR: the terminal procedure ran but its log write failed
	ExitConfig     = 78 // EX_CONFIG: initialization rejected the configuration
)

var exitNames = map[int]string{
	ExitOK:         "ok",
	ExitFailure:    "failure",
	ExitFault:      "fault",
	ExitLogFailure: "log_failure",
	ExitConfig:     "config",
}

// ExitName returns a short stable name for code, suitable as a metric
// label or log attribute. Unknown codes render as "exit_<code>".
func ExitName(code int) string {
	if name, ok := exitNames[code]; ok {
		return name
	}
	return fmt.Sprintf("exit_%d", code)
}

// Exit terminates the process with code. It is the default exit
// function for a faultline core and exists so tests can substitute a
// recorder for it.
func Exit(code int) {
	os.Exit(code)
}

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	FatalCode(err, ExitFailure)
}

// FatalCode is Fatal with an explicit exit code.
func FatalCode(err error, code int) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(code)
}
