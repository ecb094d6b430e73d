// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package intake is the single entry point for observed faults.
//
// Every fault, whether reported by the runtime hook, recovered from a
// panic, or raised through a manual trigger, becomes a [fault.Record]
// here. The intake captures the call-site stack, assigns the tier,
// appends the record to the ledger, and asks the shutdown controller
// to run the terminal procedure when the tier is terminal.
//
// Manual triggers never consult the classification policy:
//
//	TriggerMinor -> TierUserMinor  (recorded, never logged on its own)
//	TriggerMajor -> TierUserMajor  (recorded and logged, never halts)
//	TriggerFatal -> TierUserFatal  (recorded, logged, halts)
//
// Faults that arrive after the procedure has started are still
// appended; their trigger is a no-op.
package intake
