// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sentinel maintains a crash marker: a small file that exists
// while a process is running under faultline and is removed when the
// process completes its shutdown procedure.
//
// A process that dies without running the procedure (SIGKILL, OOM
// kill, a runtime fatal error such as a concurrent map write) leaves
// the marker behind. The next process to start with the same marker
// path finds it through [Check] and reports the previous death into
// its own fault log.
//
// The marker is written atomically (write to temporary file, fsync,
// rename into place, fsync parent directory) so readers never see a
// partial marker. It is CBOR-encoded through lib/codec and identifies
// the writing process by a random instance ID, its PID, and its
// executable path. [Check] ignores markers older than a maximum age so
// a marker left behind long ago does not produce a misleading report.
package sentinel
