// Package report renders budget snapshots as markdown and charts.
package report

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"

	"github.com/charmbracelet/glamour"
)

//go:embed templates/*.md
var templates embed.FS

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`")

// Markdown renders a snapshot as a markdown document, formatting amounts in
// the given currency.
func Markdown(snap budget.Snapshot, code string) string {
	funcs := template.FuncMap{
		"money":   func(v float64) string { return cli.FormatMoney(v, code) },
		"percent": cli.FormatPercent,
		"status":  cli.StatusLabel,
		"inc":     func(i int) int { return i + 1 },
		"escape":  mdEscaper.Replace,
	}

	tmpl, err := template.New("summary.md").Funcs(funcs).ParseFS(templates, "templates/summary.md")
	if err != nil {
		return fmt.Sprintf("error parsing summary template: %v", err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, snap); err != nil {
		return fmt.Sprintf("error executing summary template: %v", err)
	}
	return b.String()
}

// Render formats markdown for a terminal of the given width.
func Render(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
