package tui

import "github.com/charmbracelet/lipgloss"

var (
	runningColor   = lipgloss.Color("10") // Green
	completedColor = lipgloss.Color("8")  // Gray
	failedColor    = lipgloss.Color("9")  // Red
	pendingColor   = lipgloss.Color("11") // Yellow
	queuedColor    = lipgloss.Color("6")  // Cyan
	alertColor     = lipgloss.Color("13") // Magenta
	selectedBg     = lipgloss.Color("4")  // Blue
	borderColor    = lipgloss.Color("8")  // Gray

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(selectedBg).
			Foreground(lipgloss.Color("15")).
			Bold(true)

	runningStyle   = lipgloss.NewStyle().Foreground(runningColor)
	completedStyle = lipgloss.NewStyle().Foreground(completedColor)
	failedStyle    = lipgloss.NewStyle().Foreground(failedColor)
	pendingStyle   = lipgloss.NewStyle().Foreground(pendingColor)
	queuedStyle    = lipgloss.NewStyle().Foreground(queuedColor)
	alertStyle     = lipgloss.NewStyle().Foreground(alertColor).Bold(true)

	headerStyle = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// stateStyle picks the style matching a job's current lifecycle state.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return runningStyle
	case "completed":
		return completedStyle
	case "failed":
		return failedStyle
	case "queued", "waiting", "moving":
		return queuedStyle
	case "held", "suspended", "unsubmitted":
		return pendingStyle
	case "alert":
		return alertStyle
	default:
		return dimStyle
	}
}
