// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

// Classify maps a raw code to a tier. It is pure and total: the same
// inputs always produce the same tier, and any code matching neither
// mask is terminal.
func Classify(code, ignoreMask, backgroundMask Code) Tier {
	switch {
	case code&ignoreMask != 0:
		return TierIgnore
	case code&backgroundMask != 0:
		return TierBackground
	default:
		return TierTerminal
	}
}

// Policy is a validated pair of tier masks.
type Policy struct {
	ignore     Code
	background Code
}

// NewPolicy validates the masks and returns a Policy. Both masks must
// be subsets of [Classifiable] and they must not overlap.
func NewPolicy(ignoreMask, backgroundMask Code) (Policy, error) {
	var problems []error
	if outside := ignoreMask &^ Classifiable; outside != 0 {
		problems = append(problems, Configurationf(
			"ignore mask contains codes that cannot be classified: %s", FormatMask(outside)))
	}
	if outside := backgroundMask &^ Classifiable; outside != 0 {
		problems = append(problems, Configurationf(
			"background mask contains codes that cannot be classified: %s", FormatMask(outside)))
	}
	if overlap := ignoreMask & backgroundMask; overlap != 0 {
		problems = append(problems, Configurationf(
			"ignore and background masks overlap: %s", FormatMask(overlap)))
	}
	if err := NewConfigurationError(problems...); err != nil {
		return Policy{}, err
	}
	return Policy{ignore: ignoreMask, background: backgroundMask}, nil
}

// DefaultPolicy returns the policy built from [DefaultIgnoreMask] and
// [DefaultBackgroundMask].
func DefaultPolicy() Policy {
	return Policy{ignore: DefaultIgnoreMask, background: DefaultBackgroundMask}
}

// Classify returns the tier of code under this policy.
func (p Policy) Classify(code Code) Tier {
	return Classify(code, p.ignore, p.background)
}

// IgnoreMask returns the mask of codes classified as TierIgnore.
func (p Policy) IgnoreMask() Code { return p.ignore }

// BackgroundMask returns the mask of codes classified as TierBackground.
func (p Policy) BackgroundMask() Code { return p.background }
