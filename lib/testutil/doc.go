// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. They are the only place
// in the test suite where real wall-clock timeouts are used; tests of
// timestamps use clock.Fake.
//
// [WriteFile] writes a fixture file into a per-test temporary
// directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package imports no other faultline packages, so any package's
// tests may use it.
package testutil
