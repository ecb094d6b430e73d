// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import "testing"

func TestExitName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitOK, "ok"},
		{ExitFault, "fault"},
		{ExitLogFailure, "log_failure"},
		{ExitConfig, "config"},
		{3, "exit_3"},
	}
	for _, test := range tests {
		if got := ExitName(test.code); got != test.want {
			t.Errorf("ExitName(%d) = %q, want %q", test.code, got, test.want)
		}
	}
}
