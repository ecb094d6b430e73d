// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shutdown implements the terminal procedure and the state
// machine that runs it at most once per process.
//
// A [Controller] moves Idle -> Triggered -> Completed. The first call
// to [Controller.Trigger] performs the Idle -> Triggered transition
// with a compare-and-swap and runs the procedure synchronously. Every
// other call, concurrent or re-entrant (a fault raised while the
// procedure is presenting, for example), returns [OutcomeContinue]
// without doing anything.
//
// The procedure extracts the ledger and decides:
//
//   - No terminal entries and a teardown trigger: write the background
//     log if anything loggable was recorded, then continue.
//   - Otherwise, by [Mode]: development presents (or runs the
//     development action) then logs; production logs then presents a
//     generic message (or runs the production action); silent only
//     logs; custom runs the action registered for the severity and
//     logs. The result is always a halt.
//
// The controller never exits the process. It returns an [Outcome] and
// leaves the exit to its owner. Actions and presenters run under
// recover: a panic inside one is recorded as an exception fault and
// the procedure carries on to logging. A log write failure is reported
// through the structured logger and turns the exit code into
// process.ExitLogFailure.
package shutdown
