package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)

	badgePending    = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFC107")).Padding(0, 1)
	badgeInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#2196F3")).Padding(0, 1)
	badgeResolved   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#4CAF50")).Padding(0, 1)
	badgeRejected   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#e53935")).Padding(0, 1)
)

// statusBadge renders a report status in the dashboard's badge colors.
func statusBadge(status string) string {
	switch status {
	case "IN_PROGRESS":
		return badgeInProgress.Render("DIPROSES")
	case "RESOLVED":
		return badgeResolved.Render("SELESAI")
	case "REJECTED":
		return badgeRejected.Render("DITOLAK")
	default:
		return badgePending.Render("MENUNGGU")
	}
}

// toastLine renders one live notification the way the web clients pop a
// toast.
func toastLine(level, title, message string) string {
	style := infoStyle
	switch level {
	case "success":
		style = okStyle
	case "error":
		style = errorStyle
	case "warning":
		style = warnStyle
	}
	if message == "" {
		return style.Render("● " + title)
	}
	return fmt.Sprintf("%s %s", style.Render("● "+title), dimStyle.Render(message))
}
