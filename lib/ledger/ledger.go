// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger accumulates fault records and per-tier counts for the
// current accumulation window.
//
// The ledger is mutated only by [Ledger.Append] and [Ledger.Extract].
// Extract returns everything accumulated so far and resets the ledger
// under a single lock acquisition, so every appended record lands in
// exactly one extraction: none is lost and none is counted twice.
//
// The ledger performs no I/O and never calls out while holding its
// lock, so it is safe to append from code that runs inside the
// terminal procedure.
package ledger

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bureau-foundation/faultline/lib/fault"
)

// Counts holds the number of records per tier.
type Counts [fault.TierCount]int

// Get returns the count for tier.
func (c Counts) Get(tier fault.Tier) int {
	if int(tier) >= fault.TierCount {
		return 0
	}
	return c[tier]
}

// Total returns the number of records across all tiers.
func (c Counts) Total() int {
	total := 0
	for _, count := range c {
		total += count
	}
	return total
}

// Terminal returns the number of records whose tier escalates to the
// terminal procedure.
func (c Counts) Terminal() int {
	return c.sum(fault.Tier.IsTerminal)
}

// Logged returns the number of records whose tier causes a log write.
func (c Counts) Logged() int {
	return c.sum(fault.Tier.IsLogged)
}

func (c Counts) sum(include func(fault.Tier) bool) int {
	total := 0
	for _, tier := range fault.Tiers() {
		if include(tier) {
			total += c[tier]
		}
	}
	return total
}

// Map returns the counts keyed by tier name. Every tier is present,
// including those with a zero count.
func (c Counts) Map() map[string]int {
	result := make(map[string]int, fault.TierCount)
	for _, tier := range fault.Tiers() {
		result[tier.String()] = c[tier]
	}
	return result
}

// MarshalJSON encodes the counts as an object keyed by tier name.
func (c Counts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

// UnmarshalJSON decodes counts from an object keyed by tier name.
// Missing tiers decode as zero.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var byName map[string]int
	if err := json.Unmarshal(data, &byName); err != nil {
		return err
	}
	var decoded Counts
	for name, count := range byName {
		var tier fault.Tier
		if err := tier.UnmarshalText([]byte(name)); err != nil {
			return fmt.Errorf("decoding counts: %w", err)
		}
		decoded[tier] = count
	}
	*c = decoded
	return nil
}

// CountsOf tallies records by tier.
func CountsOf(records []fault.Record) Counts {
	var counts Counts
	for _, record := range records {
		if int(record.Tier) < fault.TierCount {
			counts[record.Tier]++
		}
	}
	return counts
}

// Snapshot is the content of the ledger at the moment of extraction.
type Snapshot struct {
	Counts  Counts         `json:"counts"`
	Records []fault.Record `json:"errors"`
}

// HasTerminal reports whether the snapshot contains a record that
// escalates to the terminal procedure.
func (s Snapshot) HasTerminal() bool {
	return s.Counts.Terminal() > 0
}

// Ledger is the ordered accumulation of fault records. Insertion order
// is causal order. The zero value is ready to use.
type Ledger struct {
	mu      sync.Mutex
	records []fault.Record
	counts  Counts
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append adds a record and increments the count for its tier.
func (l *Ledger) Append(record fault.Record) {
	record = record.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	if int(record.Tier) < fault.TierCount {
		l.counts[record.Tier]++
	}
}

// Extract returns the accumulated records and counts and resets the
// ledger in the same critical section. Ownership of the returned
// records passes to the caller.
func (l *Ledger) Extract() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := Snapshot{Counts: l.counts, Records: l.records}
	l.records = nil
	l.counts = Counts{}
	return snapshot
}

// ExtractRecords is Extract without the counts.
func (l *Ledger) ExtractRecords() []fault.Record {
	return l.Extract().Records
}

// Last returns the most recently appended record without modifying the
// ledger. The second result is false when the ledger is empty.
func (l *Ledger) Last() (fault.Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) == 0 {
		return fault.Record{}, false
	}
	return l.records[len(l.records)-1].Clone(), true
}

// Len returns the number of records accumulated since the last
// extraction.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Counts returns the current per-tier counts without resetting them.
func (l *Ledger) Counts() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts
}
