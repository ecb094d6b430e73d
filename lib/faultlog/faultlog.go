// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package faultlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/metrics"
)

// Record is one persisted log line.
type Record struct {
	Timestamp string            `json:"timestamp"`
	Terminal  bool              `json:"terminal"`
	Counts    ledger.Counts     `json:"counts"`
	Data      map[string]string `json:"data,omitempty"`
	Log       []fault.Record    `json:"log"`
}

// IOError reports a failure to open or write a log destination.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("fault log %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Log is an append-only log destination.
type Log struct {
	path string
}

// Open returns a Log for path after verifying it can be written. The
// file is created with mode 0644 when missing; its parent directory
// must already exist.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, &IOError{Op: "open", Err: errors.New("no path configured")}
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}

	file, err := os.OpenFile(absolute, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, &IOError{Path: absolute, Op: "open", Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &IOError{Path: absolute, Op: "stat", Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &IOError{Path: absolute, Op: "open", Err: fmt.Errorf("not a regular file (mode %s)", info.Mode())}
	}

	return &Log{path: absolute}, nil
}

// Path returns the absolute path of the log file.
func (l *Log) Path() string { return l.path }

// Append writes record as one JSON line under an exclusive lock.
func (l *Log) Append(record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return &IOError{Path: l.path, Op: "encode", Err: err}
	}
	line = append(line, '\n')

	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return &IOError{Path: l.path, Op: "open", Err: err}
	}
	defer file.Close()

	descriptor := int(file.Fd())
	if err := flock(descriptor, unix.LOCK_EX); err != nil {
		return &IOError{Path: l.path, Op: "lock", Err: err}
	}
	defer flock(descriptor, unix.LOCK_UN)

	written, err := file.Write(line)
	if err != nil {
		return &IOError{Path: l.path, Op: "write", Err: err}
	}
	if written != len(line) {
		return &IOError{Path: l.path, Op: "write", Err: io.ErrShortWrite}
	}
	return nil
}

func flock(descriptor, how int) error {
	for {
		err := unix.Flock(descriptor, how)
		if err != unix.EINTR {
			return err
		}
	}
}

// Destinations holds the background and terminal logs. Terminal may
// be the same file as Background.
type Destinations struct {
	Background *Log
	Terminal   *Log
}

// Shared reports whether both roles write to the same file.
func (d Destinations) Shared() bool {
	return d.Terminal == nil || d.Background.Path() == d.Terminal.Path()
}

// Route returns the log that receives a record with the given
// terminal flag.
func (d Destinations) Route(terminal bool) *Log {
	if terminal && d.Terminal != nil {
		return d.Terminal
	}
	return d.Background
}

// Write appends record to the destination chosen by its Terminal flag.
// When the record is terminal and the destinations are separate files,
// the entries that are logged but not terminal are also written to the
// background log as a non-terminal record. Every failed append is
// returned; a failure on one destination does not prevent the other.
func (d Destinations) Write(record Record) error {
	role := "background"
	if record.Terminal {
		role = "terminal"
	}

	var failures []error
	if err := d.append(role, d.Route(record.Terminal), record); err != nil {
		failures = append(failures, err)
	}
	if !record.Terminal || d.Shared() {
		return errors.Join(failures...)
	}

	var background []fault.Record
	for _, entry := range record.Log {
		if entry.Tier.IsLogged() && !entry.Tier.IsTerminal() {
			background = append(background, entry)
		}
	}
	if len(background) > 0 {
		split := Record{
			Timestamp: record.Timestamp,
			Counts:    ledger.CountsOf(background),
			Data:      record.Data,
			Log:       background,
		}
		if err := d.append("background", d.Background, split); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (d Destinations) append(role string, log *Log, record Record) error {
	if err := log.Append(record); err != nil {
		metrics.LogAppendFailures.WithLabelValues(role).Inc()
		return err
	}
	return nil
}

// ReadAll decodes every record in the log file at path. Blank lines
// are skipped. A line that does not decode is reported with its line
// number.
func ReadAll(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	defer file.Close()

	var records []Record
	reader := bufio.NewReader(file)
	for lineNumber := 1; ; lineNumber++ {
		line, readErr := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			var record Record
			if err := json.Unmarshal(trimmed, &record); err != nil {
				return records, fmt.Errorf("%s:%d: decoding log record: %w", path, lineNumber, err)
			}
			records = append(records, record)
		}
		if readErr == io.EOF {
			return records, nil
		}
		if readErr != nil {
			return records, &IOError{Path: path, Op: "read", Err: readErr}
		}
	}
}
