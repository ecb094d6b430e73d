// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"runtime"
)

// PanicCode returns the code carried by a recovered panic value. A
// value implementing [Coder] (directly or in an error chain) supplies
// its own code, a runtime.Error maps to [CodeError], and anything else
// has no code.
func PanicCode(value any) Code {
	if coder, ok := value.(Coder); ok {
		return coder.FaultCode()
	}
	if err, ok := value.(error); ok {
		var coder Coder
		if errors.As(err, &coder) {
			return coder.FaultCode()
		}
		var runtimeErr runtime.Error
		if errors.As(err, &runtimeErr) {
			return CodeError
		}
	}
	return 0
}

// PanicRecord builds the record for a recovered panic. Uncaught panics
// are always terminal. The origin is the first frame of trace.
func PanicRecord(value any, trace []Frame) Record {
	record := Record{
		Kind:    KindException,
		Tier:    TierTerminal,
		Code:    PanicCode(value),
		Message: panicMessage(value),
		Trace:   trace,
	}
	if len(trace) > 0 {
		record.File = trace[0].File
		record.Line = trace[0].Line
	}
	return record.Clone()
}

func panicMessage(value any) string {
	switch typed := value.(type) {
	case error:
		return typed.Error()
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}
