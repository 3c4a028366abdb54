package components

import (
	"fmt"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// BudgetBar renders a bar of the used fraction of the budget, colored by
// status, followed by the percentage. pct is clamped to 0-1 for the bar but
// the label shows the real value so overspending reads as e.g. "110%".
func BudgetBar(pct float64, status budget.Status, width int) string {
	t := theme.Active
	color := t.Status(status)

	label := fmt.Sprintf("%4.0f%%", pct*100)
	barW := max(width-lipgloss.Width(label)-1, 4)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(clamp01(pct)) + spaceStyle.Render(" ") + pctStyle.Render(label)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
