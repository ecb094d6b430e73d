// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package core assembles the fault handler from a [config.Config].
//
// [Init] validates the configuration, opens the log destinations,
// resolves configured action names through an [ActionRegistry], and
// wires the ledger, shutdown controller, and intake together. Every
// configuration problem is returned from Init; nothing is deferred to
// shutdown time.
//
// The shutdown controller never exits the process itself. When an
// intake call or [Core.Shutdown] returns a halting outcome, Core calls
// its exit function (process.Exit unless replaced with [WithExit]).
//
// When sentinel.path is configured, Init arms a crash marker and the
// completed shutdown procedure clears it. A marker left behind by a
// process that died without running its shutdown procedure is
// reported as a background fault by the next Init.
package core
