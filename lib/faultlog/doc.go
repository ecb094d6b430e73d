// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package faultlog writes shutdown log records to append-only files.
//
// Each shutdown produces at most one [Record] per destination, encoded
// as a single JSON line. [Log.Append] opens the file with O_APPEND,
// takes an exclusive flock(2), writes the whole line with one write
// call, and releases the lock. Processes sharing a destination
// therefore never interleave partial lines, even when their records
// exceed PIPE_BUF.
//
// [Open] checks that the destination is writable when it is called.
// A process learns about an unwritable log at initialization, not
// while it is already terminating.
//
// [Destinations] pairs the background and terminal logs and applies
// the routing rules: a record with no terminal entries goes to the
// background log; a terminal record goes to the terminal log, and when
// that is a different file the logged non-terminal entries are also
// written to the background log.
package faultlog
