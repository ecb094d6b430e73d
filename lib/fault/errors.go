// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every [ConfigurationError] with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports one or more problems found while
// validating configuration. It is always surfaced at initialization
// and never recovered locally.
type ConfigurationError struct {
	Problems []error
}

// NewConfigurationError returns nil when problems is empty, otherwise a
// ConfigurationError holding all of them. Nested ConfigurationErrors
// are flattened.
func NewConfigurationError(problems ...error) error {
	var flattened []error
	for _, problem := range problems {
		if problem == nil {
			continue
		}
		if nested, ok := problem.(*ConfigurationError); ok {
			flattened = append(flattened, nested.Problems...)
			continue
		}
		flattened = append(flattened, problem)
	}
	if len(flattened) == 0 {
		return nil
	}
	return &ConfigurationError{Problems: flattened}
}

// Configurationf returns a ConfigurationError with a single formatted
// problem.
func Configurationf(format string, args ...any) error {
	return &ConfigurationError{Problems: []error{fmt.Errorf(format, args...)}}
}

func (e *ConfigurationError) Error() string {
	messages := make([]string, len(e.Problems))
	for index, problem := range e.Problems {
		messages[index] = problem.Error()
	}
	return "configuration error: " + strings.Join(messages, "; ")
}

// Is reports true for [ErrConfiguration].
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ConfigurationError) Unwrap() []error {
	return e.Problems
}
