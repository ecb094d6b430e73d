// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable wall clock.
//
// Components that stamp records or compare ages accept a Clock instead
// of calling time.Now directly. In production, Real() provides the
// standard library behavior. In tests, Fake() returns a clock that
// moves only when Advance or Set is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	core, err := core.Init(cfg, core.WithClock(c))
//	// ...
//	c.Advance(5 * time.Minute)
package clock
