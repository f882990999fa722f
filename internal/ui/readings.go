package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/isoft/internal/device"
	"github.com/muurk/isoft/internal/poller"
)

// RenderReadings renders one line per polled measurement. Failed
// measurements show the short error message in place of a value.
func RenderReadings(snap poller.Snapshot) string {
	return renderReadings(snap, GetTerminalWidth())
}

func renderReadings(snap poller.Snapshot, width int) string {
	width = clampWidth(width)

	lines := make([]string, 0, len(snap.Kinds)+2)
	lines = append(lines, "")
	for _, k := range snap.Kinds {
		key := ResultKeyStyle.Render(k.Title() + ":")
		if r, ok := snap.Reading(k); ok {
			lines = append(lines, key+" "+ResultValueStyle.Render(r.String()))
			continue
		}
		lines = append(lines, key+" "+MissingValueStyle.Render("no value ("+device.GetShortErrorMessage(snap.Failures[k])+")"))
	}
	lines = append(lines, "")

	color := SuccessColor
	if !snap.OK() {
		color = WarningColor
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// PlainReadings renders readings without styling, one "slug<TAB>value" pair
// per line, for pipes and scripts.
func PlainReadings(snap poller.Snapshot) string {
	var b strings.Builder
	for _, k := range snap.Kinds {
		b.WriteString(k.String())
		b.WriteByte('\t')
		if r, ok := snap.Reading(k); ok {
			b.WriteString(r.String())
		} else {
			b.WriteString("-")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
