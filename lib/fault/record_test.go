// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeError, "ERROR"},
		{CodeWarning, "WARNING"},
		{CodeRecoverable, "RECOVERABLE_ERROR"},
		{CodeUserDeprecated, "USER_DEPRECATED"},
		{CodeAll, "ALL"},
		{CodeWarning | CodeNotice, "UNKNOWN_ERROR_CODE"},
		{0, "UNKNOWN_ERROR_CODE"},
	}
	for _, test := range tests {
		if got := test.code.String(); got != test.want {
			t.Errorf("Code(%d).String() = %q, want %q", uint32(test.code), got, test.want)
		}
	}
	if CodeAll != 32767 {
		t.Errorf("CodeAll = %d, want 32767", CodeAll)
	}
}

func TestParseCode(t *testing.T) {
	for _, name := range []string{"warning", "WARNING", "E_WARNING", " e_warning "} {
		code, err := ParseCode(name)
		if err != nil {
			t.Errorf("ParseCode(%q): %v", name, err)
			continue
		}
		if code != CodeWarning {
			t.Errorf("ParseCode(%q) = %s, want WARNING", name, code)
		}
	}
	if _, err := ParseCode("BOGUS"); err == nil {
		t.Error("ParseCode(BOGUS) succeeded, want error")
	}
}

func TestFormatMask(t *testing.T) {
	if got := FormatMask(CodeWarning | CodeNotice); got != "WARNING|NOTICE" {
		t.Errorf("FormatMask = %q, want WARNING|NOTICE", got)
	}
	if got := FormatMask(0); got != "0" {
		t.Errorf("FormatMask(0) = %q, want 0", got)
	}
	if got := FormatMask(Code(1 << 16)); got != "0x10000" {
		t.Errorf("FormatMask(1<<16) = %q, want 0x10000", got)
	}
}

func TestCodeOf(t *testing.T) {
	coded := codedError{code: CodeParse}
	wrapped := fmt.Errorf("loading: %w", coded)
	if got := CodeOf(wrapped, CodeError); got != CodeParse {
		t.Errorf("CodeOf(wrapped) = %s, want PARSE", got)
	}
	if got := CodeOf(fmt.Errorf("plain"), CodeRecoverable); got != CodeRecoverable {
		t.Errorf("CodeOf(plain) = %s, want fallback RECOVERABLE_ERROR", got)
	}
}

type codedError struct{ code Code }

func (e codedError) Error() string   { return "coded" }
func (e codedError) FaultCode() Code { return e.code }

func TestTierPredicates(t *testing.T) {
	terminal := map[Tier]bool{TierTerminal: true, TierUserFatal: true}
	logged := map[Tier]bool{TierBackground: true, TierUserMajor: true, TierTerminal: true, TierUserFatal: true}
	for _, tier := range Tiers() {
		if tier.IsTerminal() != terminal[tier] {
			t.Errorf("%s.IsTerminal() = %v", tier, tier.IsTerminal())
		}
		if tier.IsLogged() != logged[tier] {
			t.Errorf("%s.IsLogged() = %v", tier, tier.IsLogged())
		}
	}
	if len(Tiers()) != TierCount {
		t.Errorf("Tiers() has %d entries, want %d", len(Tiers()), TierCount)
	}
}

func TestRecordJSON(t *testing.T) {
	record := Record{
		Kind:    KindRuntime,
		Tier:    TierBackground,
		Code:    CodeWarning,
		Message: "disk almost full",
		File:    "/srv/app/disk.go",
		Line:    42,
		Trace:   []Frame{{Function: "main.check", File: "/srv/app/disk.go", Line: 42}},
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`"kind":"error"`, `"tier":"background"`, `"code":2`, `"error":"WARNING"`,
		`"message":"disk almost full"`, `"line":42`, `"backtrace":[{"function":"main.check"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("encoded record %s missing %s", text, want)
		}
	}

	var decoded Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Tier != TierBackground || decoded.Code != CodeWarning || len(decoded.Trace) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRecordJSONOmitsNameForZeroCode(t *testing.T) {
	data, err := json.Marshal(Record{Kind: KindUser, Tier: TierUserMinor, Message: "note"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("zero-code record %s carries an error name", data)
	}
	if !strings.Contains(string(data), `"backtrace":[]`) {
		t.Errorf("record %s does not encode an empty backtrace as []", data)
	}
}

func TestRecordCloneDetachesTrace(t *testing.T) {
	original := Record{Trace: []Frame{{Function: "a"}}}
	clone := original.Clone()
	clone.Trace[0].Function = "b"
	if original.Trace[0].Function != "a" {
		t.Error("Clone shares the trace slice with the original")
	}
}

func TestCaptureStackStartsAtCaller(t *testing.T) {
	frames := captureHere()
	if len(frames) == 0 {
		t.Fatal("CaptureStack returned no frames")
	}
	if !strings.HasSuffix(frames[0].Function, "fault.captureHere") {
		t.Errorf("first frame = %q, want captureHere", frames[0].Function)
	}
	for _, frame := range frames {
		if strings.HasPrefix(frame.Function, "runtime.") {
			t.Errorf("runtime frame %q was not dropped", frame.Function)
		}
	}
}

func captureHere() []Frame { return CaptureStack(0) }

func TestCallerReportsCallSite(t *testing.T) {
	file, line := whereAmI()
	if !strings.HasSuffix(file, "record_test.go") {
		t.Errorf("Caller file = %q, want record_test.go", file)
	}
	if line == 0 {
		t.Error("Caller line = 0")
	}
}

func whereAmI() (string, int) { return Caller(0) }
