// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"encoding/json"
	"runtime"
	"slices"
	"strings"
)

// maxFrames bounds the captured stack depth.
const maxFrames = 32

// Frame is one call-frame descriptor of a captured stack.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Record describes one observed fault. Records are values: once a
// Record is handed to the ledger nothing modifies it.
type Record struct {
	Kind    Kind
	Tier    Tier
	Code    Code
	Message string
	File    string
	Line    int
	Trace   []Frame
}

// Clone returns a copy of r that shares no memory with it.
func (r Record) Clone() Record {
	r.Trace = slices.Clone(r.Trace)
	return r
}

// recordJSON is the persisted shape of a Record. The "error" field
// carries the code name so log readers do not need the taxonomy.
type recordJSON struct {
	Kind      Kind    `json:"kind"`
	Tier      Tier    `json:"tier"`
	Code      Code    `json:"code"`
	Error     string  `json:"error,omitempty"`
	Message   string  `json:"message"`
	File      string  `json:"file"`
	Line      int     `json:"line"`
	Backtrace []Frame `json:"backtrace"`
}

// MarshalJSON encodes the record in the log line format.
func (r Record) MarshalJSON() ([]byte, error) {
	encoded := recordJSON{
		Kind:      r.Kind,
		Tier:      r.Tier,
		Code:      r.Code,
		Message:   r.Message,
		File:      r.File,
		Line:      r.Line,
		Backtrace: r.Trace,
	}
	if r.Code != 0 {
		encoded.Error = r.Code.String()
	}
	if encoded.Backtrace == nil {
		encoded.Backtrace = []Frame{}
	}
	return json.Marshal(encoded)
}

// UnmarshalJSON decodes a record from the log line format.
func (r *Record) UnmarshalJSON(data []byte) error {
	var decoded recordJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Record{
		Kind:    decoded.Kind,
		Tier:    decoded.Tier,
		Code:    decoded.Code,
		Message: decoded.Message,
		File:    decoded.File,
		Line:    decoded.Line,
		Trace:   decoded.Backtrace,
	}
	return nil
}

// CaptureStack returns the calling goroutine's stack, starting at the
// caller of CaptureStack when skip is 0. Frames inside the Go runtime
// are dropped. When called from a deferred function during a panic,
// the frames of the panicking function are included.
func CaptureStack(skip int) []Frame {
	programCounters := make([]uintptr, maxFrames)
	count := runtime.Callers(skip+2, programCounters)
	if count == 0 {
		return nil
	}

	frames := make([]Frame, 0, count)
	iterator := runtime.CallersFrames(programCounters[:count])
	for {
		frame, more := iterator.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			frames = append(frames, Frame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})
		}
		if !more {
			break
		}
	}
	return frames
}

// Caller returns the file and line of the caller of the function that
// calls Caller, offset by skip. Caller(0) inside f returns the site
// that called f.
func Caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "", 0
	}
	return file, line
}
