package cli

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/budget"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// StatusColor maps a budget status to its alert color.
func StatusColor(s budget.Status) lipgloss.Color {
	switch s {
	case budget.Healthy:
		return ColorGreen
	case budget.Warning:
		return ColorYellow
	case budget.Critical:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
// Columns after the first are right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		rule("├", "┼", "┤")
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, widths[i]) + " "
			} else {
				padded = " " + padLeft(cell, widths[i]) + " "
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╰", "┴", "╯")

	return b.String()
}

// RenderExpenses renders the expense list of a snapshot as a table with a
// totals footer.
func RenderExpenses(snap budget.Snapshot, code string) string {
	rows := make([][]string, 0, len(snap.Expenses)+4)
	for i, e := range snap.Expenses {
		rows = append(rows, []string{
			fmt.Sprintf("#%d %s", i+1, e.Name),
			ShortID(e.ID),
			FormatMoney(e.Amount, code),
		})
	}
	if len(snap.Expenses) > 0 {
		rows = append(rows, []string{"---"})
	}
	rows = append(rows,
		[]string{"Budget", "", FormatMoney(snap.Total, code)},
		[]string{"Spent", "", FormatMoney(snap.Spent, code)},
		[]string{"Remaining", "", FormatMoney(snap.Remaining, code)},
	)

	return RenderTable(Table{
		Headers: []string{"Expense", "ID", "Amount"},
		Rows:    rows,
	})
}

// RenderStatusLine renders the remaining balance colored by status.
func RenderStatusLine(snap budget.Snapshot, code string) string {
	style := lipgloss.NewStyle().Foreground(StatusColor(snap.Status)).Bold(true)
	line := fmt.Sprintf("Remaining %s of %s  %s",
		FormatMoney(snap.Remaining, code),
		FormatMoney(snap.Total, code),
		RenderProgressBar(snap.UsedPct, 20, snap.Status),
	)
	return "  " + style.Render(StatusLabel(snap.Status)) + "  " + mutedStyle.Render(line)
}

// RenderProgressBar renders a simple text bar of a 0-1 fraction.
func RenderProgressBar(pct float64, width int, s budget.Status) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	barStyle := lipgloss.NewStyle().Foreground(StatusColor(s))
	return barStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled)) +
		" " + FormatPercent(pct)
}

// RenderNotice renders a one-line success or error message.
func RenderNotice(msg string, isErr bool) string {
	color := ColorGreen
	if isErr {
		color = ColorRed
	}
	return "  " + lipgloss.NewStyle().Foreground(color).Render(msg)
}

func padRight(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}
