// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		code       Code
		ignore     Code
		background Code
		want       Tier
	}{
		{"notice ignored", CodeNotice, CodeNotice, CodeWarning, TierIgnore},
		{"warning background", CodeWarning, CodeNotice, CodeWarning, TierBackground},
		{"core error terminal", CodeCoreError, CodeNotice, CodeWarning, TierTerminal},
		{"zero code terminal", 0, CodeNotice, CodeWarning, TierTerminal},
		{"unknown bit terminal", Code(1 << 20), CodeAll, CodeAll, TierTerminal},
		{"ignore wins over background", CodeStrict, CodeStrict, CodeStrict, TierIgnore},
		{"empty masks", CodeWarning, 0, 0, TierTerminal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Classify(test.code, test.ignore, test.background)
			if got != test.want {
				t.Errorf("Classify(%s, %s, %s) = %s, want %s",
					test.code, FormatMask(test.ignore), FormatMask(test.background), got, test.want)
			}
			if again := Classify(test.code, test.ignore, test.background); again != got {
				t.Errorf("Classify is not deterministic: %s then %s", got, again)
			}
		})
	}
}

func TestClassifyIsTotalOverTaxonomy(t *testing.T) {
	policy := DefaultPolicy()
	for _, code := range CodeAll.Codes() {
		tier := policy.Classify(code)
		switch tier {
		case TierIgnore, TierBackground, TierTerminal:
		default:
			t.Errorf("Classify(%s) = %s, want one of ignore/background/terminal", code, tier)
		}
		if code&CoreFatal != 0 && tier != TierTerminal {
			t.Errorf("core fatal code %s classified as %s", code, tier)
		}
	}
}

func TestNewPolicy(t *testing.T) {
	policy, err := NewPolicy(CodeNotice, CodeWarning)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	if policy.IgnoreMask() != CodeNotice || policy.BackgroundMask() != CodeWarning {
		t.Errorf("masks = %s/%s, want NOTICE/WARNING",
			FormatMask(policy.IgnoreMask()), FormatMask(policy.BackgroundMask()))
	}
	if got := policy.Classify(CodeNotice); got != TierIgnore {
		t.Errorf("Classify(NOTICE) = %s, want ignore", got)
	}
}

func TestNewPolicyRejectsOverlap(t *testing.T) {
	_, err := NewPolicy(CodeNotice|CodeWarning, CodeWarning)
	if err == nil {
		t.Fatal("expected error for overlapping masks")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error %v does not match ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), "overlap: WARNING") {
		t.Errorf("error %q does not name the overlapping code", err)
	}
}

func TestNewPolicyRejectsUnclassifiableCodes(t *testing.T) {
	_, err := NewPolicy(CodeError, CodeCoreError|CodeWarning)
	if err == nil {
		t.Fatal("expected error for masks outside the classifiable set")
	}
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("error %T is not a *ConfigurationError", err)
	}
	if len(configErr.Problems) != 2 {
		t.Errorf("got %d problems, want 2: %v", len(configErr.Problems), err)
	}
	if !strings.Contains(err.Error(), "CORE_ERROR") {
		t.Errorf("error %q does not name CORE_ERROR", err)
	}
}

func TestDefaultMasksAreValid(t *testing.T) {
	if _, err := NewPolicy(DefaultIgnoreMask, DefaultBackgroundMask); err != nil {
		t.Fatalf("default masks rejected: %v", err)
	}
}

func TestCodeFromInt(t *testing.T) {
	if code, err := CodeFromInt(8); err != nil || code != CodeNotice {
		t.Errorf("CodeFromInt(8) = %v, %v; want NOTICE, nil", code, err)
	}
	if code, err := CodeFromInt(int64(CodeAll)); err != nil || code != CodeAll {
		t.Errorf("CodeFromInt(CodeAll) = %v, %v", code, err)
	}
	for _, value := range []int64{-1, int64(CodeAll) + 1, 1 << 40} {
		if _, err := CodeFromInt(value); !errors.Is(err, ErrConfiguration) {
			t.Errorf("CodeFromInt(%d) error = %v, want configuration error", value, err)
		}
	}
}

func TestNewConfigurationErrorFlattens(t *testing.T) {
	if err := NewConfigurationError(nil, nil); err != nil {
		t.Errorf("NewConfigurationError(nil, nil) = %v, want nil", err)
	}

	inner := Configurationf("first")
	err := NewConfigurationError(inner, errors.New("second"))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("error %T is not a *ConfigurationError", err)
	}
	if len(configErr.Problems) != 2 {
		t.Errorf("got %d problems, want 2", len(configErr.Problems))
	}
	if err.Error() != "configuration error: first; second" {
		t.Errorf("Error() = %q", err.Error())
	}
}
