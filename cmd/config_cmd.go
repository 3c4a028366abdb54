// Package cmd implements the tally CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tally/internal/config"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/tui/theme"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	// appConfig already carries .env, environment and flag overrides.
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	cur := currency.Lookup(cfg.General.Currency)
	fmt.Println("  [General]")
	fmt.Printf("    Currency: %s (%s)\n", cur.Code, cur.Grapheme)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:     %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Available: %s\n", strings.Join(theme.Names(), ", "))
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Printf("    Rate limit:    %g/s (burst %d)\n", cfg.Server.RateLimit, cfg.Server.RateBurst)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `tally setup` to reconfigure.")
	return nil
}
