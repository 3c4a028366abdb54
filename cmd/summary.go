package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/report"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagSummaryExpenses []string
	flagSummaryMarkdown bool
	flagSummaryOutput   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Apply expenses to a budget and print the result",
	Example: `  tally summary --budget 100 -e Lunch=30 -e "Taxi home=12.50"
  tally summary -b 500 -e Rent=450 -o json`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringArrayVarP(&flagSummaryExpenses, "expense", "e", nil, "Expense as Name=amount (repeatable, applied in order)")
	summaryCmd.Flags().BoolVar(&flagSummaryMarkdown, "markdown", false, "Render a markdown report")
	summaryCmd.Flags().StringVarP(&flagSummaryOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	total, ok, err := budgetFromFlag()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("--budget is required")
	}

	snap, err := buildSummary(total, flagSummaryExpenses, currencyCode())
	if err != nil {
		return err
	}

	width := 80
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}
	return writeSummary(os.Stdout, snap, currencyCode(), summaryFormat(), width)
}

func summaryFormat() string {
	if flagSummaryMarkdown {
		return "markdown"
	}
	return strings.ToLower(flagSummaryOutput)
}

// buildSummary applies "Name=amount" specs in order. The first failure stops
// the run and is reported with the message a user would see interactively.
func buildSummary(total float64, specs []string, code string, opts ...budget.Option) (budget.Snapshot, error) {
	state, err := budget.New(total, opts...)
	if err != nil {
		return budget.Snapshot{}, errBadBudget
	}

	snap := state.Snapshot()
	for i, spec := range specs {
		if snap.Status == budget.Exhausted {
			return snap, fmt.Errorf("expense %d (%s): %s", i+1, spec, cli.MsgExhausted)
		}

		name, raw := splitExpense(spec)
		amount, err := currency.ParseAmount(raw, code)
		if err != nil {
			amount = math.NaN()
		}
		if _, snap, err = state.AddExpense(name, amount); err != nil {
			return snap, fmt.Errorf("expense %d (%s): %s", i+1, spec, cli.Message(err))
		}
	}
	return snap, nil
}

// splitExpense splits at the last "=" so names may contain one.
func splitExpense(spec string) (name, amount string) {
	i := strings.LastIndex(spec, "=")
	if i < 0 {
		return spec, ""
	}
	return spec[:i], spec[i+1:]
}

func writeSummary(w io.Writer, snap budget.Snapshot, code, format string, width int) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)

	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()

	case "markdown", "md":
		out, err := report.Render(report.Markdown(snap, code), width)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err

	case "table", "":
		fmt.Fprintln(w)
		fmt.Fprintln(w, cli.RenderTitle("BUDGET SUMMARY"))
		fmt.Fprintln(w)
		fmt.Fprint(w, cli.RenderExpenses(snap, code))
		fmt.Fprintln(w, cli.RenderStatusLine(snap, code))
		fmt.Fprintln(w)
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json, yaml)", format)
}
