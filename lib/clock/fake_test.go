// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Errorf("Now() = %v, want %v", got, epoch)
	}
	if got := c.Now(); !got.Equal(epoch) {
		t.Errorf("Now() moved without Advance: %v", got)
	}
}

func TestFakeAdvance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Second)
	if got := c.Now().Sub(epoch); got != 90*time.Second {
		t.Errorf("elapsed = %v, want 90s", got)
	}

	c.Advance(-time.Hour)
	if got := c.Now().Sub(epoch); got != 90*time.Second {
		t.Errorf("negative Advance changed the clock: elapsed = %v", got)
	}
}

func TestFakeSet(t *testing.T) {
	c := Fake(epoch)
	later := epoch.Add(48 * time.Hour)
	c.Set(later)
	if got := c.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", got, later)
	}
}

func TestRealIsCurrent(t *testing.T) {
	before := time.Now()
	got := Real().Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("Real().Now() = %v, want between %v and %v", got, before, after)
	}
}
