// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import "fmt"

// Tier is the severity assigned to a fault. It decides whether the
// fault is logged and whether it escalates to the terminal procedure.
type Tier uint8

const (
	// TierIgnore faults are recorded but never logged on their own.
	TierIgnore Tier = iota

	// TierBackground faults are logged and never halt the process.
	TierBackground

	// TierTerminal faults trigger the terminal procedure.
	TierTerminal

	// TierUserMinor, TierUserMajor, and TierUserFatal are assigned to
	// manually triggered faults. They mirror ignore, background, and
	// terminal respectively.
	TierUserMinor
	TierUserMajor
	TierUserFatal
)

// TierCount is the number of defined tiers. Tier values are dense in
// [0, TierCount).
const TierCount = int(TierUserFatal) + 1

var tierNames = [TierCount]string{
	TierIgnore:     "ignore",
	TierBackground: "background",
	TierTerminal:   "terminal",
	TierUserMinor:  "user_minor",
	TierUserMajor:  "user_major",
	TierUserFatal:  "user_fatal",
}

// Tiers returns every tier in declaration order.
func Tiers() []Tier {
	return []Tier{TierIgnore, TierBackground, TierTerminal, TierUserMinor, TierUserMajor, TierUserFatal}
}

func (t Tier) String() string {
	if int(t) < TierCount {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", uint8(t))
}

// IsTerminal reports whether a fault of this tier escalates to the
// terminal procedure.
func (t Tier) IsTerminal() bool {
	return t == TierTerminal || t == TierUserFatal
}

// IsLogged reports whether a fault of this tier causes a log record
// to be written at shutdown.
func (t Tier) IsLogged() bool {
	switch t {
	case TierBackground, TierUserMajor, TierTerminal, TierUserFatal:
		return true
	}
	return false
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if int(t) >= TierCount {
		return nil, fmt.Errorf("invalid tier %d", uint8(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	for index, name := range tierNames {
		if name == string(text) {
			*t = Tier(index)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", text)
}

// Kind identifies how a fault was raised.
type Kind uint8

const (
	// KindRuntime is an error signal reported by the runtime hook.
	KindRuntime Kind = iota

	// KindException is an uncaught panic.
	KindException

	// KindUser is a fault raised through a manual trigger.
	KindUser
)

var kindNames = [...]string{
	KindRuntime:   "error",
	KindException: "exception",
	KindUser:      "user",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid fault kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for index, name := range kindNames {
		if name == string(text) {
			*k = Kind(index)
			return nil
		}
	}
	return fmt.Errorf("unknown fault kind %q", text)
}
