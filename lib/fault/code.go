// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Code is a fault code from the host taxonomy. Each named code is a
// single bit so that codes can be combined into masks.
type Code uint32

const (
	CodeError Code = 1 << iota
	CodeWarning
	CodeParse
	CodeNotice
	CodeCoreError
	CodeCoreWarning
	CodeCompileError
	CodeCompileWarning
	CodeUserError
	CodeUserWarning
	CodeUserNotice
	CodeStrict
	CodeRecoverable
	CodeDeprecated
	CodeUserDeprecated
)

// CodeAll is the union of every code in the taxonomy.
const CodeAll Code = CodeUserDeprecated<<1 - 1

// Classifiable is the set of codes the runtime hook may hand to the
// intake with a configurable tier. Ignore and background masks must be
// subsets of it.
const Classifiable = CodeWarning | CodeNotice | CodeCoreWarning |
	CodeCompileWarning | CodeUserWarning | CodeUserNotice | CodeStrict |
	CodeRecoverable | CodeDeprecated | CodeUserDeprecated

// CoreFatal is the set of codes that bypass the normal hook. Only the
// last-resort check at teardown can observe them.
const CoreFatal = CodeError | CodeParse | CodeCoreError | CodeCompileError | CodeUserError

// DefaultIgnoreMask and DefaultBackgroundMask are used when the
// configuration does not name masks.
const (
	DefaultIgnoreMask     = CodeNotice | CodeUserNotice | CodeStrict
	DefaultBackgroundMask = CodeWarning | CodeCoreWarning | CodeCompileWarning |
		CodeUserWarning | CodeDeprecated | CodeUserDeprecated
)

var codeNames = map[Code]string{
	CodeError:          "ERROR",
	CodeWarning:        "WARNING",
	CodeParse:          "PARSE",
	CodeNotice:         "NOTICE",
	CodeCoreError:      "CORE_ERROR",
	CodeCoreWarning:    "CORE_WARNING",
	CodeCompileError:   "COMPILE_ERROR",
	CodeCompileWarning: "COMPILE_WARNING",
	CodeUserError:      "USER_ERROR",
	CodeUserWarning:    "USER_WARNING",
	CodeUserNotice:     "USER_NOTICE",
	CodeStrict:         "STRICT",
	CodeRecoverable:    "RECOVERABLE_ERROR",
	CodeDeprecated:     "DEPRECATED",
	CodeUserDeprecated: "USER_DEPRECATED",
	CodeAll:            "ALL",
}

// String returns the name of a single code, "ALL" for [CodeAll], and
// "UNKNOWN_ERROR_CODE" for anything else (including unions).
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN_ERROR_CODE"
}

// Codes splits a mask into its single-bit codes in ascending order.
// Bits outside the taxonomy are included as-is.
func (c Code) Codes() []Code {
	var result []Code
	for remaining := uint32(c); remaining != 0; {
		bit := uint32(1) << bits.TrailingZeros32(remaining)
		result = append(result, Code(bit))
		remaining &^= bit
	}
	return result
}

// FormatMask renders a mask as "WARNING|NOTICE". An empty mask renders
// as "0"; bits outside the taxonomy render as hex.
func FormatMask(mask Code) string {
	if mask == 0 {
		return "0"
	}
	parts := make([]string, 0, bits.OnesCount32(uint32(mask)))
	for _, code := range mask.Codes() {
		if name, ok := codeNames[code]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("0x%x", uint32(code)))
		}
	}
	return strings.Join(parts, "|")
}

// ParseCode resolves a code name. Names are case-insensitive and may
// carry an "E_" prefix, so "warning", "WARNING", and "E_WARNING" are
// the same code.
func ParseCode(name string) (Code, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.TrimPrefix(normalized, "E_")
	for code, codeName := range codeNames {
		if codeName == normalized {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown fault code name %q", name)
}

// CodeFromInt converts a raw integer (from configuration or a foreign
// source) into a Code, rejecting values outside [0, CodeAll].
func CodeFromInt(value int64) (Code, error) {
	if value < 0 || value > int64(CodeAll) {
		return 0, Configurationf("fault code %d is outside the representable range [0, %d]", value, CodeAll)
	}
	return Code(value), nil
}

// Coder is implemented by errors and panic values that carry their own
// fault code.
type Coder interface {
	FaultCode() Code
}

// CodeOf extracts the fault code from err (anywhere in its chain) and
// returns fallback when nothing in the chain carries one.
func CodeOf(err error, fallback Code) Code {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.FaultCode()
	}
	return fallback
}
