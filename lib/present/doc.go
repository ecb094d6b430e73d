// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package present provides the default shutdown presenter.
//
// [Terminal] writes to an io.Writer. The development presentation is a
// full diagnostic dump: the per-tier counts followed by every record
// with its origin and trace. The production presentation is a fixed
// two-line message that carries no fault detail.
//
// Output is styled through a lipgloss renderer bound to the writer.
// When the writer is a terminal the renderer uses the ANSI256 profile;
// otherwise it uses the Ascii profile and the output is plain text.
package present
