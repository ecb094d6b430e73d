// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package intake

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/faultlog"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/metrics"
	"github.com/bureau-foundation/faultline/lib/process"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// recordingTrigger stands in for the controller: the first call halts,
// later calls continue, and every reason is remembered.
type recordingTrigger struct {
	reasons []shutdown.Reason
}

func (r *recordingTrigger) Trigger(reason shutdown.Reason) shutdown.Outcome {
	r.reasons = append(r.reasons, reason)
	if len(r.reasons) == 1 {
		return shutdown.HaltWith(process.ExitFault)
	}
	return shutdown.OutcomeContinue
}

func scenarioPolicy(t *testing.T) fault.Policy {
	t.Helper()
	policy, err := fault.NewPolicy(fault.CodeNotice, fault.CodeWarning)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return policy
}

func TestRuntimeFaultsByTier(t *testing.T) {
	book := ledger.New()
	trigger := &recordingTrigger{}
	in := New(scenarioPolicy(t), book, trigger)

	if outcome := in.FromRuntimeFault(fault.CodeNotice, "undefined index", "/srv/a.go", 10); outcome.Halt {
		t.Fatalf("NOTICE halted: %+v", outcome)
	}
	counts := book.Counts()
	if counts.Get(fault.TierIgnore) != 1 || counts.Total() != 1 {
		t.Errorf("after NOTICE counts = %v, want ignore only", counts)
	}

	if outcome := in.FromRuntimeFault(fault.CodeWarning, "slow disk", "/srv/b.go", 20); outcome.Halt {
		t.Fatalf("WARNING halted: %+v", outcome)
	}
	counts = book.Counts()
	if counts.Get(fault.TierBackground) != 1 || counts.Total() != 2 {
		t.Errorf("after WARNING counts = %v, want one background", counts)
	}
	if len(trigger.reasons) != 0 {
		t.Fatalf("non-terminal faults triggered shutdown %d times", len(trigger.reasons))
	}

	outcome := in.FromRuntimeFault(fault.CodeCoreError, "core failure", "/srv/c.go", 30)
	if !outcome.Halt {
		t.Errorf("CORE_ERROR outcome = %+v, want halt", outcome)
	}
	if got := book.Counts().Get(fault.TierTerminal); got != 1 {
		t.Errorf("terminal count = %d, want 1", got)
	}
	if len(trigger.reasons) != 1 || trigger.reasons[0] != shutdown.ReasonFault {
		t.Errorf("trigger reasons = %v, want [fault]", trigger.reasons)
	}

	last, _ := book.Last()
	if last.File != "/srv/c.go" || last.Line != 30 || last.Code != fault.CodeCoreError {
		t.Errorf("last record = %+v", last)
	}
	if len(last.Trace) == 0 || !strings.HasSuffix(last.Trace[0].Function, "TestRuntimeFaultsByTier") {
		t.Errorf("trace does not start at the caller: %+v", last.Trace)
	}
}

// With a real controller, an unclassified code runs the procedure
// exactly once and the log carries every tier's count.
func TestTerminalFaultShutsDownOnce(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "faults.log")
	log, err := faultlog.Open(logPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	book := ledger.New()
	controller, err := shutdown.New(shutdown.Config{
		Mode:         shutdown.ModeSilent,
		Ledger:       book,
		Destinations: faultlog.Destinations{Background: log},
		Timestamp:    "now",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("shutdown.New: %v", err)
	}
	in := New(scenarioPolicy(t), book, controller)

	in.FromRuntimeFault(fault.CodeNotice, "n", "", 0)
	in.FromRuntimeFault(fault.CodeWarning, "w", "", 0)
	first := in.FromRuntimeFault(fault.CodeCoreError, "c", "", 0)
	second := in.FromRuntimeFault(fault.CodeCompileError, "c2", "", 0)

	if !first.Halt || second.Halt {
		t.Errorf("outcomes = %+v then %+v, want halt then continue", first, second)
	}
	records, err := faultlog.ReadAll(logPath)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("log has %d records, want 1", len(records))
	}
	counts := records[0].Counts
	if counts.Get(fault.TierIgnore) != 1 || counts.Get(fault.TierBackground) != 1 || counts.Get(fault.TierTerminal) != 1 {
		t.Errorf("logged counts = %v, want one of each", counts)
	}
	if last, ok := book.Last(); !ok || last.Message != "c2" {
		t.Errorf("late fault was not appended after shutdown: %+v, %v", last, ok)
	}
}

// Minor then major then extract: both records in order, counters
// reset, no shutdown.
func TestManualMinorMajorThenExtract(t *testing.T) {
	book := ledger.New()
	trigger := &recordingTrigger{}
	in := New(fault.DefaultPolicy(), book, trigger)

	in.TriggerMinor("Nothing serious")
	in.TriggerMajor("A little worrying")

	snapshot := book.Extract()
	if len(snapshot.Records) != 2 {
		t.Fatalf("extracted %d records, want 2", len(snapshot.Records))
	}
	if snapshot.Records[0].Tier != fault.TierUserMinor || snapshot.Records[1].Tier != fault.TierUserMajor {
		t.Errorf("tiers = %s, %s; want user_minor, user_major", snapshot.Records[0].Tier, snapshot.Records[1].Tier)
	}
	if snapshot.Records[0].Code != CodeMinor || snapshot.Records[1].Code != CodeMajor {
		t.Errorf("codes = %s, %s", snapshot.Records[0].Code, snapshot.Records[1].Code)
	}
	if book.Counts().Total() != 0 || book.Len() != 0 {
		t.Error("ledger not reset by Extract")
	}
	if len(trigger.reasons) != 0 {
		t.Errorf("manual minor/major triggered shutdown: %v", trigger.reasons)
	}
}

func TestTriggerFatal(t *testing.T) {
	book := ledger.New()
	trigger := &recordingTrigger{}
	in := New(fault.DefaultPolicy(), book, trigger)

	outcome := in.TriggerFatal("I can't go on!")
	if !outcome.Halt {
		t.Errorf("TriggerFatal outcome = %+v, want halt", outcome)
	}
	if len(trigger.reasons) != 1 || trigger.reasons[0] != shutdown.ReasonFatal {
		t.Errorf("trigger reasons = %v, want [fatal]", trigger.reasons)
	}
	last, _ := book.Last()
	if last.Kind != fault.KindUser || last.Tier != fault.TierUserFatal {
		t.Errorf("record = %+v", last)
	}
}

func TestManualTriggerCapturesCallSite(t *testing.T) {
	book := ledger.New()
	in := New(fault.DefaultPolicy(), book, &recordingTrigger{})

	in.TriggerMajor("here")
	_, _, line, _ := runtime.Caller(0)

	record, _ := book.Last()
	if !strings.HasSuffix(record.File, "intake_test.go") || record.Line != line-1 {
		t.Errorf("origin = %s:%d, want intake_test.go:%d", record.File, record.Line, line-1)
	}
	if len(record.Trace) == 0 || !strings.HasSuffix(record.Trace[0].Function, "TestManualTriggerCapturesCallSite") {
		t.Errorf("trace does not start at the caller: %+v", record.Trace)
	}
}

func raiseThroughWrapper(in *Intake) {
	in.TriggerMajor("wrapped", WithCallerSkip(1))
}

func TestWithCallerSkip(t *testing.T) {
	book := ledger.New()
	in := New(fault.DefaultPolicy(), book, &recordingTrigger{})

	raiseThroughWrapper(in)

	record, _ := book.Last()
	if len(record.Trace) == 0 || !strings.HasSuffix(record.Trace[0].Function, "TestWithCallerSkip") {
		t.Errorf("trace should start past the wrapper: %+v", record.Trace)
	}
	if !strings.HasSuffix(record.File, "intake_test.go") {
		t.Errorf("File = %q", record.File)
	}
}

type coded struct{ code fault.Code }

func (c coded) Error() string         { return "coded failure" }
func (c coded) FaultCode() fault.Code { return c.code }

func TestFromError(t *testing.T) {
	book := ledger.New()
	trigger := &recordingTrigger{}
	in := New(fault.DefaultPolicy(), book, trigger)

	if outcome := in.FromError(nil); outcome.Halt || book.Len() != 0 {
		t.Error("FromError(nil) recorded a fault")
	}

	in.FromError(fmt.Errorf("loading cache: %w", coded{code: fault.CodeDeprecated}))
	record, _ := book.Last()
	if record.Code != fault.CodeDeprecated || record.Tier != fault.TierBackground {
		t.Errorf("coded error record = %s/%s, want DEPRECATED/background", record.Code, record.Tier)
	}
	if record.Message != "loading cache: coded failure" {
		t.Errorf("Message = %q", record.Message)
	}
	if !strings.HasSuffix(record.File, "intake_test.go") {
		t.Errorf("File = %q, want intake_test.go", record.File)
	}

	outcome := in.FromError(errors.New("plain"))
	record, _ = book.Last()
	if record.Code != fault.CodeRecoverable {
		t.Errorf("plain error code = %s, want RECOVERABLE_ERROR", record.Code)
	}
	if record.Tier != fault.TierTerminal || !outcome.Halt {
		t.Errorf("plain error under default masks: tier %s, outcome %+v; want terminal halt", record.Tier, outcome)
	}
}

func TestFromPanicIsTerminal(t *testing.T) {
	book := ledger.New()
	trigger := &recordingTrigger{}
	in := New(fault.DefaultPolicy(), book, trigger)

	outcome := func() (outcome shutdown.Outcome) {
		defer func() {
			if value := recover(); value != nil {
				outcome = in.FromPanic(value, nil)
			}
		}()
		panic("unexpected state")
	}()

	if !outcome.Halt {
		t.Errorf("FromPanic outcome = %+v, want halt", outcome)
	}
	record, _ := book.Last()
	if record.Kind != fault.KindException || record.Tier != fault.TierTerminal {
		t.Errorf("record = %+v", record)
	}
	if record.Message != "unexpected state" {
		t.Errorf("Message = %q", record.Message)
	}
	if len(record.Trace) == 0 {
		t.Error("panic record has no trace")
	}
}

func TestIntakeCountsMetrics(t *testing.T) {
	in := New(fault.DefaultPolicy(), ledger.New(), &recordingTrigger{})
	counter := metrics.FaultsTotal.WithLabelValues("user_minor", "user")
	before := testutil.ToFloat64(counter)

	in.TriggerMinor("one")
	in.TriggerMinor("two")

	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("faults_total{user_minor,user} = %v, want %v", got, before+2)
	}
}
