// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the channel helpers need. Tests that
// check a helper's failure path pass a recorder instead of *testing.T.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive reads one value from ch within timeout, or fails the
// test. A closed channel also fails the test.
//
//	record := testutil.RequireReceive(t, records, 5*time.Second, "waiting for record")
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	var zero T
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without a value: %s", describe(msgAndArgs))
			return zero
		}
		return value
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("no value after %v: %s", timeout, describe(msgAndArgs))
		return zero
	}
}

// RequireClosed waits for ch to be closed (or receive a value) within
// timeout, or fails the test. Use it for completion channels such as
// the one returned by hook.Hook.Go.
//
//	testutil.RequireClosed(t, h.Go(worker), 5*time.Second, "worker finished")
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout): //nolint:realclock test hang prevention
		t.Fatalf("channel still open after %v: %s", timeout, describe(msgAndArgs))
	}
}

// describe renders the optional message arguments: a plain value, or a
// format string followed by its arguments.
func describe(msgAndArgs []any) string {
	switch {
	case len(msgAndArgs) == 0:
		return "(no message)"
	case len(msgAndArgs) == 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
