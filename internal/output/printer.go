// Package output holds the lipgloss styles for terminal output. Logging
// goes through slog; these styles only dress the final run summary.
package output

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	Primary = lipgloss.Color("#1cc2e3")
	Success = lipgloss.Color("#10B981") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Success)

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Warning)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Error)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Box for the terminal run summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 2)
)

// PrintSuccess renders a success line with checkmark.
func PrintSuccess(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// PrintError renders an error line.
func PrintError(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}

// PrintWarn renders a warning line.
func PrintWarn(msg string) string {
	return WarnStyle.Render("! " + msg)
}

// PrintInfo renders an info line.
func PrintInfo(msg string) string {
	return MutedStyle.Render("• " + msg)
}

// Summary renders the end-of-run box.
func Summary(success bool, reason string) string {
	line := PrintError(reason)
	if success {
		line = PrintSuccess(reason)
	}
	return BoxStyle.Render(line)
}
