package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline renders a unicode sparkline from values. Values at or below zero
// use the lowest block.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// Share is one labeled part of a whole.
type Share struct {
	Label string
	Value float64
}

// ShareBars renders one horizontal bar per share, scaled against whole.
// Each line is label, bar, and percentage of whole, fitting width.
func ShareBars(shares []Share, whole float64, color lipgloss.Color, width int) string {
	if len(shares) == 0 || whole <= 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	for _, s := range shares {
		labelW = max(labelW, lipgloss.Width(s.Label))
	}
	labelW = min(labelW, max(width/3, 6))

	const pctW = 5 // " 100%"
	barW := max(width-labelW-pctW-2, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	lines := make([]string, 0, len(shares))
	for _, s := range shares {
		frac := s.Value / whole
		filled := min(max(int(frac*float64(barW)+0.5), 0), barW)
		if s.Value > 0 && filled == 0 {
			filled = 1
		}

		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(s.Label, labelW)))+
				space+
				barStyle.Render(strings.Repeat("█", filled))+
				emptyStyle.Render(strings.Repeat("·", barW-filled))+
				space+
				pctStyle.Render(fmt.Sprintf("%4.0f%%", frac*100)))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}
