// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hook routes process-level events into the fault handler.
//
// Go has no global error handler to install, so the hooks are explicit
// call sites: [Hook.Run] wraps main, [Hook.Recover] is deferred at the
// top of goroutines the application starts itself, and [Hook.Go]
// starts goroutines that are already covered. [Hook.CheckLastFault]
// is the exit path: it records the error main returned, if any, and
// runs the teardown procedure unless a fault already ran the terminal
// one.
//
// [Handler] bridges log/slog. Warning and error records are reported
// as runtime faults with the source location of the logging call, so
// existing logging becomes fault classification input without
// changing call sites.
package hook
