package components

import (
	"strings"

	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderHeader renders the one-line title bar: the app name on the left and
// badge (for example the status) on the right in badgeColor.
func RenderHeader(title, badge string, badgeColor lipgloss.Color, width int) string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	badgeStyle := lipgloss.NewStyle().
		Foreground(t.Background).
		Background(badgeColor).
		Bold(true).
		Padding(0, 1)

	fill := lipgloss.NewStyle().Background(t.Surface)

	left := fill.Render(" ") + titleStyle.Render(title)
	right := ""
	if badge != "" {
		right = badgeStyle.Render(badge) + fill.Render(" ")
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + fill.Render(strings.Repeat(" ", padding)) + right
}
