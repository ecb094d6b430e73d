// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault defines the vocabulary shared by every faultline
// component: the fault code taxonomy, severity tiers, fault records,
// and the classification policy that maps a raw code to a tier.
//
// # Codes
//
// A [Code] is a single bit from a fixed taxonomy. Masks are unions of
// codes. Only codes in [Classifiable] can be assigned to the ignore or
// background tier; everything else (including the [CoreFatal] codes the
// normal hook never observes) is terminal.
//
// # Classification
//
// [Classify] is pure and total:
//
//	code&ignore != 0      -> TierIgnore
//	code&background != 0  -> TierBackground
//	otherwise             -> TierTerminal
//
// [NewPolicy] validates the masks once, at initialization, so
// classification itself can never fail. A code outside the taxonomy is
// not an error: it falls through to TierTerminal.
//
// # Records
//
// A [Record] is created when a fault is observed and never mutated
// afterwards. [CaptureStack] and [Caller] collect the call-site context
// stored in a record.
//
// This package depends on no other faultline packages.
package fault
