// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/faultlog"
	"github.com/bureau-foundation/faultline/lib/ledger"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// Production presentation text.
const (
	ProductionHeading = "Sorry, an error occurred"
	ProductionDetail  = "Details have been logged"
)

const ruleWidth = 64

// Terminal renders presentations as text.
type Terminal struct {
	writer io.Writer
	styles styles
}

type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	faint   lipgloss.Style
	tier    map[fault.Tier]lipgloss.Style
}

// New returns a Terminal writing to writer, styled when writer is a
// terminal.
func New(writer io.Writer) *Terminal {
	profile := termenv.Ascii
	if IsTerminal(writer) {
		profile = termenv.ANSI256
	}
	return NewWithProfile(writer, profile)
}

// NewWithProfile returns a Terminal that renders with an explicit
// color profile regardless of what writer is.
func NewWithProfile(writer io.Writer, profile termenv.Profile) *Terminal {
	renderer := lipgloss.NewRenderer(writer, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	tierColors := map[fault.Tier]lipgloss.Color{
		fault.TierIgnore:     "244",
		fault.TierBackground: "214",
		fault.TierTerminal:   "196",
		fault.TierUserMinor:  "110",
		fault.TierUserMajor:  "208",
		fault.TierUserFatal:  "199",
	}
	tier := make(map[fault.Tier]lipgloss.Style, len(tierColors))
	for level, color := range tierColors {
		tier[level] = renderer.NewStyle().Foreground(color).Bold(true)
	}

	return &Terminal{
		writer: writer,
		styles: styles{
			heading: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			label:   renderer.NewStyle().Bold(true),
			faint:   renderer.NewStyle().Faint(true),
			tier:    tier,
		},
	}
}

// IsTerminal reports whether writer is a file attached to a terminal.
func IsTerminal(writer io.Writer) bool {
	file, ok := writer.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(file.Fd()))
}

// Render implements shutdown.Presenter.
func (t *Terminal) Render(kind shutdown.Presentation, payload shutdown.Payload) error {
	var output strings.Builder
	switch kind {
	case shutdown.PresentationProduction:
		output.WriteString(t.styles.heading.Render(ProductionHeading))
		output.WriteString("\n")
		output.WriteString(t.rule())
		output.WriteString(ProductionDetail)
		output.WriteString("\n")
	default:
		t.writeDiagnostic(&output, "Process terminated", payload.Timestamp, payload.Counts, payload.Records)
	}
	_, err := io.WriteString(t.writer, output.String())
	return err
}

// RenderLogRecord writes one persisted log record in the development
// layout.
func (t *Terminal) RenderLogRecord(record faultlog.Record) error {
	heading := "Background faults"
	if record.Terminal {
		heading = "Process terminated"
	}

	var output strings.Builder
	t.writeDiagnostic(&output, heading, record.Timestamp, record.Counts, record.Log)
	if len(record.Data) > 0 {
		output.WriteString(t.styles.label.Render("Data"))
		output.WriteString("\n")
		for _, key := range sortedKeys(record.Data) {
			fmt.Fprintf(&output, "  %-20s %s\n", key, record.Data[key])
		}
		output.WriteString(t.rule())
	}
	_, err := io.WriteString(t.writer, output.String())
	return err
}

func (t *Terminal) writeDiagnostic(output *strings.Builder, heading, timestamp string, counts ledger.Counts, records []fault.Record) {
	output.WriteString(t.rule())
	output.WriteString(t.styles.heading.Render(heading))
	if timestamp != "" {
		output.WriteString("  ")
		output.WriteString(t.styles.faint.Render(timestamp))
	}
	output.WriteString("\n")
	output.WriteString(t.rule())

	output.WriteString(t.styles.label.Render("Counts"))
	output.WriteString("\n")
	for _, tier := range fault.Tiers() {
		fmt.Fprintf(output, "  %-12s %d\n", tier, counts.Get(tier))
	}
	output.WriteString(t.rule())

	for index, record := range records {
		t.writeRecord(output, index+1, record)
	}
	if len(records) > 0 {
		output.WriteString(t.rule())
	}
}

func (t *Terminal) writeRecord(output *strings.Builder, number int, record fault.Record) {
	tierStyle, ok := t.styles.tier[record.Tier]
	if !ok {
		tierStyle = t.styles.label
	}

	fmt.Fprintf(output, "#%d %s %s", number, tierStyle.Render("["+record.Tier.String()+"]"), record.Kind)
	if record.Code != 0 {
		fmt.Fprintf(output, " %s", record.Code)
	}
	fmt.Fprintf(output, ": %s\n", record.Message)
	if record.File != "" {
		fmt.Fprintf(output, "   at %s\n", t.styles.faint.Render(fmt.Sprintf("%s:%d", record.File, record.Line)))
	}
	for depth, frame := range record.Trace {
		fmt.Fprintf(output, "   %2d %s\n", depth, frame.Function)
		fmt.Fprintf(output, "      %s\n", t.styles.faint.Render(fmt.Sprintf("%s:%d", frame.File, frame.Line)))
	}
}

func (t *Terminal) rule() string {
	return t.styles.faint.Render(strings.Repeat("-", ruleWidth)) + "\n"
}

func sortedKeys(values map[string]string) []string {
	return slices.Sorted(maps.Keys(values))
}
