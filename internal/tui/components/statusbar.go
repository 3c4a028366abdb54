package components

import (
	"strings"

	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// KeyHint is one key binding shown in the status bar.
type KeyHint struct {
	Key  string
	Desc string
	Off  bool // rendered dim when the action is unavailable
}

// RenderStatusBar renders the bottom status bar with key hints on the left
// and right-aligned text.
func RenderStatusBar(width int, hints []KeyHint, right string) string {
	t := theme.Active

	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	offStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Strikethrough(true)
	barStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		if h.Off {
			parts = append(parts, offStyle.Render("["+h.Key+"]"+h.Desc))
			continue
		}
		parts = append(parts, keyStyle.Render("["+h.Key+"]")+descStyle.Render(h.Desc))
	}
	left := barStyle.Render(" ") + strings.Join(parts, barStyle.Render("  "))
	right = descStyle.Render(right + " ")

	// Pad middle
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return left + barStyle.Render(strings.Repeat(" ", padding)) + right
}
