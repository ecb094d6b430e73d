// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package faultlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/ledger"
)

func openLog(t *testing.T, path string) *Log {
	t.Helper()
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s): %v", path, err)
	}
	return log
}

func readAll(t *testing.T, path string) []Record {
	t.Helper()
	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll(%s): %v", path, err)
	}
	return records
}

func entry(tier fault.Tier, message string) fault.Record {
	return fault.Record{Kind: fault.KindRuntime, Tier: tier, Code: fault.CodeWarning, Message: message}
}

func recordOf(terminal bool, entries ...fault.Record) Record {
	return Record{
		Timestamp: "Sat, 01 Mar 2026 12:00:00 +0000",
		Terminal:  terminal,
		Counts:    ledger.CountsOf(entries),
		Log:       entries,
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.log")
	log := openLog(t, path)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Open did not create the file: %v", err)
	}
	if log.Path() != path {
		t.Errorf("Path() = %q, want %q", log.Path(), path)
	}
}

func TestOpenMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "faults.log")
	_, err := Open(path)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Open error = %v (%T), want *IOError", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open error %v does not unwrap to fs.ErrNotExist", err)
	}
	if ioErr.Op != "open" {
		t.Errorf("Op = %q, want open", ioErr.Op)
	}
}

func TestOpenRejectsDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open of a directory succeeded")
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") succeeded")
	}
}

func TestAppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.log")
	log := openLog(t, path)

	first := recordOf(false, entry(fault.TierBackground, "disk almost full"))
	first.Data = map[string]string{"request": "r-17"}
	second := recordOf(true, entry(fault.TierTerminal, "database gone"))

	for _, record := range []Record{first, second} {
		if err := log.Append(record); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(content), "\n"); lines != 2 {
		t.Fatalf("file has %d lines, want 2:\n%s", lines, content)
	}
	if !strings.Contains(string(content), `"data":{"request":"r-17"}`) {
		t.Errorf("first line does not carry the extra data:\n%s", content)
	}
	if strings.Count(string(content), `"data"`) != 1 {
		t.Errorf("a record without data encoded a data field:\n%s", content)
	}

	records := readAll(t, path)
	if len(records) != 2 {
		t.Fatalf("ReadAll returned %d records, want 2", len(records))
	}
	if records[0].Terminal || !records[1].Terminal {
		t.Errorf("terminal flags = %v, %v; want false, true", records[0].Terminal, records[1].Terminal)
	}
	if got := records[0].Counts.Get(fault.TierBackground); got != 1 {
		t.Errorf("decoded background count = %d, want 1", got)
	}
	if records[1].Log[0].Message != "database gone" {
		t.Errorf("decoded message = %q", records[1].Log[0].Message)
	}
}

func TestConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.log")
	log := openLog(t, path)

	const writers = 8
	const perWriter = 25
	payload := strings.Repeat("x", 16*1024)

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for writer := 0; writer < writers; writer++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			for index := 0; index < perWriter; index++ {
				record := recordOf(false, entry(fault.TierBackground, fmt.Sprintf("%d/%d %s", writer, index, payload)))
				if err := log.Append(record); err != nil {
					errs <- err
				}
			}
		}(writer)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Append: %v", err)
	}

	records := readAll(t, path)
	if len(records) != writers*perWriter {
		t.Fatalf("ReadAll returned %d records, want %d", len(records), writers*perWriter)
	}
	for _, record := range records {
		if len(record.Log) != 1 || !strings.HasSuffix(record.Log[0].Message, payload) {
			t.Fatal("a record was corrupted by an interleaved write")
		}
	}
}

func TestDestinationsSharedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.log")
	destinations := Destinations{Background: openLog(t, path), Terminal: openLog(t, path)}
	if !destinations.Shared() {
		t.Fatal("Shared() = false for one file")
	}

	record := recordOf(true, entry(fault.TierBackground, "slow"), entry(fault.TierTerminal, "dead"))
	if err := destinations.Write(record); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records := readAll(t, path)
	if len(records) != 1 {
		t.Fatalf("shared destination got %d records, want 1", len(records))
	}
	if len(records[0].Log) != 2 {
		t.Errorf("record has %d entries, want 2", len(records[0].Log))
	}
}

func TestDestinationsSeparateFiles(t *testing.T) {
	directory := t.TempDir()
	backgroundPath := filepath.Join(directory, "background.log")
	terminalPath := filepath.Join(directory, "terminal.log")
	destinations := Destinations{Background: openLog(t, backgroundPath), Terminal: openLog(t, terminalPath)}
	if destinations.Shared() {
		t.Fatal("Shared() = true for two files")
	}

	record := recordOf(true,
		entry(fault.TierIgnore, "noise"),
		entry(fault.TierBackground, "slow"),
		entry(fault.TierUserMajor, "odd"),
		entry(fault.TierTerminal, "dead"),
	)
	if err := destinations.Write(record); err != nil {
		t.Fatalf("Write: %v", err)
	}

	terminal := readAll(t, terminalPath)
	if len(terminal) != 1 || len(terminal[0].Log) != 4 || !terminal[0].Terminal {
		t.Fatalf("terminal log = %+v, want one terminal record with 4 entries", terminal)
	}

	background := readAll(t, backgroundPath)
	if len(background) != 1 {
		t.Fatalf("background log has %d records, want 1", len(background))
	}
	split := background[0]
	if split.Terminal {
		t.Error("background split record is marked terminal")
	}
	if len(split.Log) != 2 || split.Log[0].Message != "slow" || split.Log[1].Message != "odd" {
		t.Errorf("background split entries = %+v, want slow and odd", split.Log)
	}
	if split.Counts.Total() != 2 || split.Counts.Get(fault.TierUserMajor) != 1 {
		t.Errorf("background split counts = %v", split.Counts)
	}
}

func TestDestinationsNonTerminalGoesToBackground(t *testing.T) {
	directory := t.TempDir()
	backgroundPath := filepath.Join(directory, "background.log")
	terminalPath := filepath.Join(directory, "terminal.log")
	destinations := Destinations{Background: openLog(t, backgroundPath), Terminal: openLog(t, terminalPath)}

	if err := destinations.Write(recordOf(false, entry(fault.TierBackground, "slow"))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := readAll(t, backgroundPath); len(got) != 1 {
		t.Errorf("background log has %d records, want 1", len(got))
	}
	if got := readAll(t, terminalPath); len(got) != 0 {
		t.Errorf("terminal log has %d records, want 0", len(got))
	}
}

func TestDestinationsReportFailures(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "faults.log")
	destinations := Destinations{Background: openLog(t, path), Terminal: openLog(t, path)}

	// Replace the file with a directory so the next open fails.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	err := destinations.Write(recordOf(true, entry(fault.TierTerminal, "dead")))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Write error = %v, want *IOError", err)
	}
	if ioErr.Path != path {
		t.Errorf("IOError.Path = %q, want %q", ioErr.Path, path)
	}
}

func TestReadAllReportsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faults.log")
	content := `{"timestamp":"t","terminal":false,"counts":{},"log":[]}` + "\n\n" + "not json\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadAll(path)
	if err == nil {
		t.Fatal("ReadAll succeeded on a corrupt line")
	}
	if !strings.Contains(err.Error(), ":3:") {
		t.Errorf("error %q does not name line 3", err)
	}
	if len(records) != 1 {
		t.Errorf("ReadAll returned %d records before the bad line, want 1", len(records))
	}
}
