// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the source of wall-clock time for record timestamps and
// crash-marker ages. It has no timers: nothing in faultline waits.
type Clock interface {
	Now() time.Time
}

// Real returns the system wall clock.
func Real() Clock { return wallClock{} }

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

