package tui

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupCurrencies are offered first in the setup wizard. Any ISO 4217 code
// can still be set in the config file.
var setupCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "INR", "BRL", "MXN"}

// SetupValues receives the answers of the setup wizard.
type SetupValues struct {
	Currency string
	Theme    string
	Addr     string
}

// NewSetupValues seeds the wizard from an existing config.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		Currency: strings.ToUpper(cfg.General.Currency),
		Theme:    cfg.Appearance.Theme,
		Addr:     cfg.Server.Addr,
	}
}

// Apply copies the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) {
	cfg.General.Currency = v.Currency
	cfg.Appearance.Theme = v.Theme
	cfg.Server.Addr = strings.TrimSpace(v.Addr)
}

// NewSetupForm builds the first-run wizard. accessible swaps the TUI for
// plain prompts.
func NewSetupForm(v *SetupValues, accessible bool) *huh.Form {
	currencies := setupCurrencies
	if v.Currency != "" && !slices.Contains(currencies, v.Currency) {
		currencies = append([]string{v.Currency}, currencies...)
	}
	currencyOpts := make([]huh.Option[string], len(currencies))
	for i, code := range currencies {
		cur := currency.Lookup(code)
		currencyOpts[i] = huh.NewOption(fmt.Sprintf("%s  %s", code, cur.Grapheme), code)
	}

	themeOpts := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themeOpts[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tally!").
				Description("A few preferences, saved to "+config.Path()),
			huh.NewSelect[string]().
				Title("Currency").
				Options(currencyOpts...).
				Value(&v.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
			huh.NewInput().
				Title("Server address").
				Description("Used by `tally serve` and `tally remote`.").
				Validate(validateAddr).
				Value(&v.Addr),
		),
	).WithAccessible(accessible).WithTheme(huh.ThemeCharm())
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return errors.New("expected host:port")
	}
	return nil
}
