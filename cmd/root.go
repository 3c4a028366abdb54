package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/logging"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagBudget   string
	flagCurrency string
	flagQuiet    bool
	flagLogLevel string
	flagLogFile  string
)

// Resolved by the root PersistentPreRunE before any command runs.
var (
	appConfig = config.DefaultConfig()
	appLog    = zerolog.Nop()
	logFile   *os.File
)

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Track spending against a budget",
	Long:  "Enter a budget, record expenses, and watch what remains.",
	// Usage on validation failures buries the message.
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBudget, "budget", "b", "", "Starting budget (prompted for when omitted)")
	rootCmd.PersistentFlags().StringVarP(&flagCurrency, "currency", "c", "", "ISO 4217 currency code (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
}

func setup(_ *cobra.Command, _ []string) error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagCurrency != "" {
		cfg.General.Currency = strings.ToUpper(flagCurrency)
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	appConfig = cfg

	var out io.Writer = os.Stderr
	if flagLogFile != "" {
		//nolint:gosec // log path is configured by the local user
		f, err := os.OpenFile(flagLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		out = f
	}
	appLog = newLogger(out, cfg.Log.Level)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	return nil
}

// newLogger uses the console format on terminals and JSON elsewhere.
func newLogger(w io.Writer, level string) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return logging.New(w, level)
	}
	return logging.NewJSON(w, level)
}

// currencyCode returns the configured currency code.
func currencyCode() string {
	return appConfig.General.Currency
}

// budgetFromFlag parses --budget. ok is false when the flag is unset.
func budgetFromFlag() (total float64, ok bool, err error) {
	if strings.TrimSpace(flagBudget) == "" {
		return 0, false, nil
	}
	total, err = parseBudget(flagBudget, currencyCode())
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}

var errBadBudget = errors.New(cli.MsgBadBudget)

// parseBudget parses and validates a budget typed by the user.
func parseBudget(raw, code string) (float64, error) {
	total, err := currency.ParseAmount(raw, code)
	if err != nil {
		return 0, errBadBudget
	}
	if _, err := budget.New(total); err != nil {
		return 0, errBadBudget
	}
	return total, nil
}

// infof prints an informational line unless --quiet.
func infof(w io.Writer, format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(w, format, args...)
}
