package tui

import (
	"errors"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/currency"

	"github.com/charmbracelet/huh"
)

// budgetValues holds the budget prompt input.
type budgetValues struct {
	raw string
}

// expenseValues holds the add form input. It survives a rejected submit so
// the user can correct it.
type expenseValues struct {
	name   string
	amount string
}

var errBadBudget = errors.New(cli.MsgBadBudget)

func newBudgetForm(vals *budgetValues, code string) *huh.Form {
	symbol := currency.Lookup(code).Grapheme
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What is your budget?").
				Description("Amount in "+currency.Lookup(code).Code+". Fixed for this session.").
				Prompt(symbol+" ").
				Placeholder("500").
				Value(&vals.raw).
				Validate(validateBudget(code)),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeCharm())
}

func validateBudget(code string) func(string) error {
	return func(s string) error {
		v, err := currency.ParseAmount(s, code)
		if err != nil || !(v > 0) {
			return errBadBudget
		}
		return nil
	}
}

func newExpenseForm(vals *expenseValues, code string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Expense name").
				Placeholder("Lunch").
				Value(&vals.name),
			huh.NewInput().
				Title("Amount").
				Prompt(currency.Lookup(code).Grapheme+" ").
				Placeholder("12.50").
				Value(&vals.amount),
		),
	).WithShowHelp(false).WithTheme(huh.ThemeCharm())
}
