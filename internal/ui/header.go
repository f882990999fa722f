package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line in a header or result box.
type Detail struct {
	Key   string
	Value string
}

// Details keeps lines in the order they were added.
type Details []Detail

// Header is the banner printed before a command talks to the device.
type Header struct {
	Title   string  // e.g., "Water softener"
	Command string  // e.g., "isoft show"
	Params  Details // e.g., {{"Device", "192.168.1.40"}}
	Width   int
}

// NewHeader creates a header sized to the terminal
func NewHeader(title, command string, params Details) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header
func (h *Header) Render() string {
	width := clampWidth(h.Width)

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)

	content := top
	if len(h.Params) > 0 {
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", max(width-6, 10)))

		lines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			lines = append(lines, HeaderParamKeyStyle.Render(p.Key+":")+" "+HeaderParamValueStyle.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, strings.Join(lines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
