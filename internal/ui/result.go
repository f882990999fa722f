package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/isoft/internal/device"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is a bordered outcome box.
type Result struct {
	Type            ResultType
	Title           string // e.g., "Water hardness set"
	Details         Details
	Error           error
	Summary         string   // one-line explanation above the tips
	Troubleshooting []string // tips, failures only
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details Details) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details Details) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure box for err. The troubleshooting
// section comes from device.GetTroubleshootingHint.
func NewFailureResult(title string, err error) *Result {
	summary, tips := splitHint(device.GetTroubleshootingHint(err))
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Summary:         summary,
		Troubleshooting: tips,
		Width:           GetTerminalWidth(),
	}
}

// splitHint separates a hint into its explanation and its bullet tips.
func splitHint(hint string) (string, []string) {
	var summary []string
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == "Troubleshooting:":
		case strings.HasPrefix(trimmed, "•"):
			tips = append(tips, strings.TrimSpace(strings.TrimPrefix(trimmed, "•")))
		default:
			summary = append(summary, trimmed)
		}
	}
	return strings.Join(summary, " "), tips
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	var title string
	var color lipgloss.Color
	switch r.Type {
	case ResultFailure:
		title = ErrorTitleStyle.Render(fmt.Sprintf("%s  FAILED  ─  %s", FailureMarker, r.Title))
		color = ErrorColor
	case ResultWarning:
		title = WarningTitleStyle.Render(fmt.Sprintf("%s  WARNING  ─  %s", WarningMarker, r.Title))
		color = WarningColor
	default:
		title = SuccessTitleStyle.Render(fmt.Sprintf("%s  SUCCESS  ─  %s", SuccessMarker, r.Title))
		color = SuccessColor
	}

	lines := []string{"", title, ""}

	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render(d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("Error: "+r.Error.Error()), "")
	}
	if r.Summary != "" {
		lines = append(lines, r.Summary, "")
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width), "")
	}

	return boxStyle(color, width).Render(strings.Join(lines, "\n"))
}

func (r *Result) renderTroubleshootingBox(width int) string {
	lines := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("• "+tip))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(max(width-12, 40)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details Details) string {
	return NewSuccessResult(title, details).Render()
}

// RenderFailure renders a failure box for err with troubleshooting tips
func RenderFailure(title string, err error) string {
	return NewFailureResult(title, err).Render()
}
