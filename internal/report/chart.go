package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"

	"github.com/wcharczuk/go-chart/v2"
)

// ErrNoExpenses is returned when there is nothing to chart.
var ErrNoExpenses = errors.New("report: no expenses to chart")

// PieChart renders the share of each expense in total spending as a PNG.
// Remaining budget, when positive, is drawn as its own slice.
func PieChart(snap budget.Snapshot, code string) ([]byte, error) {
	if len(snap.Expenses) == 0 {
		return nil, ErrNoExpenses
	}

	values := make([]chart.Value, 0, len(snap.Expenses)+1)
	for _, e := range snap.Expenses {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s", e.Name, cli.FormatMoney(e.Amount, code)),
			Value: e.Amount,
		})
	}
	if snap.Remaining > 0 {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("Remaining: %s", cli.FormatMoney(snap.Remaining, code)),
			Value: snap.Remaining,
			Style: chart.Style{FillColor: chart.ColorLightGray},
		})
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("Budget %s", cli.FormatMoney(snap.Total, code)),
		Width:  800,
		Height: 600,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 40, Right: 40, Bottom: 40},
		},
	}

	buffer := bytes.NewBuffer(nil)
	if err := pie.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("rendering expense chart: %w", err)
	}
	return buffer.Bytes(), nil
}
