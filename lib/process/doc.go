// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides process exit codes and entrypoint helpers.
// It centralizes the two legitimate raw I/O patterns that exist before
// or after the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit once the terminal procedure has decided to halt.
//
// The shutdown state machine never calls [Exit] itself. It returns an
// outcome carrying one of the Exit* codes, and the owner of the
// process (lib/core, or main) performs the exit.
package process
