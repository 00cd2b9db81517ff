package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD7FF"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FAFFF")).
			Padding(0, 1)
)

// SeverityStyle colors an issue severity label.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return Red.Bold(true)
	case "high":
		return Red
	case "medium":
		return Yellow
	case "low":
		return BlueSky
	default:
		return Gray
	}
}
