package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/session"

	"github.com/spf13/cobra"
)

var (
	flagRemoteAddr   string
	flagRemoteOutput string
	flagChartFile    string
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Work with the budget of a running `tally serve`",
}

var remoteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the server's budget",
	Args:  cobra.NoArgs,
	RunE:  runRemoteShow,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name...> <amount>",
	Short: "Record an expense on the server",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRemoteAdd,
}

var remoteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an expense from the server by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteRm,
}

var remoteChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Save the server's expense chart as PNG",
	Args:  cobra.NoArgs,
	RunE:  runRemoteChart,
}

var remoteWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow budget changes as they happen",
	Args:  cobra.NoArgs,
	RunE:  runRemoteWatch,
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&flagRemoteAddr, "addr", "", "Server address (default from config)")
	remoteShowCmd.Flags().StringVarP(&flagRemoteOutput, "output", "o", "table", "Output format: table, json, yaml")
	remoteChartCmd.Flags().StringVarP(&flagChartFile, "file", "f", "budget.png", "Output PNG path")

	remoteCmd.AddCommand(remoteShowCmd, remoteAddCmd, remoteRmCmd, remoteChartCmd, remoteWatchCmd)
	rootCmd.AddCommand(remoteCmd)
}

func remoteClient() *session.Client {
	addr := flagRemoteAddr
	if addr == "" {
		addr = appConfig.Server.Addr
	}
	return session.NewClient(addr)
}

// remoteError turns client errors into the messages used everywhere else.
func remoteError(err error) error {
	switch {
	case errors.Is(err, session.ErrExhausted):
		return errors.New(cli.MsgExhausted)
	case errors.Is(err, session.ErrRateLimited):
		return errors.New("too many requests, try again shortly")
	case errors.Is(err, session.ErrRejected):
		return errors.New(strings.TrimPrefix(err.Error(), session.ErrRejected.Error()+": "))
	}
	return err
}

func runRemoteShow(cmd *cobra.Command, _ []string) error {
	snap, err := remoteClient().Snapshot(cmd.Context())
	if err != nil {
		return remoteError(err)
	}
	return writeSummary(cmd.OutOrStdout(), snap, currencyCode(), strings.ToLower(flagRemoteOutput), 80)
}

func runRemoteAdd(cmd *cobra.Command, args []string) error {
	name := strings.Join(args[:len(args)-1], " ")
	amount := args[len(args)-1]

	exp, snap, err := remoteClient().AddExpense(cmd.Context(), name, amount)
	if err != nil {
		return remoteError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderNotice(cli.MsgAdded, false))
	infof(out, "  %s  %s  %s\n", cli.ShortID(exp.ID), exp.Name, cli.FormatMoney(exp.Amount, currencyCode()))
	fmt.Fprintln(out, cli.RenderStatusLine(snap, currencyCode()))
	return nil
}

func runRemoteRm(cmd *cobra.Command, args []string) error {
	removed, snap, err := remoteClient().RemoveExpense(cmd.Context(), args[0])
	if err != nil {
		return remoteError(err)
	}

	out := cmd.OutOrStdout()
	if !removed {
		fmt.Fprintln(out, cli.RenderNotice(fmt.Sprintf("No expense matches %q", args[0]), true))
	} else {
		fmt.Fprintln(out, cli.RenderNotice(cli.MsgRemoved, false))
	}
	fmt.Fprintln(out, cli.RenderStatusLine(snap, currencyCode()))
	return nil
}

func runRemoteChart(cmd *cobra.Command, _ []string) error {
	png, err := remoteClient().Chart(cmd.Context())
	if err != nil {
		return remoteError(err)
	}
	if err := os.WriteFile(flagChartFile, png, 0o600); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	infof(cmd.OutOrStdout(), "  Chart saved to %s\n", flagChartFile)
	return nil
}

func runRemoteWatch(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	err := remoteClient().Watch(ctx, func(ev session.Event) error {
		printEvent(out, ev, currencyCode())
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printEvent(w io.Writer, ev session.Event, code string) {
	detail := ""
	switch {
	case ev.Expense != nil:
		detail = fmt.Sprintf("%s %s", ev.Expense.Name, cli.FormatMoney(ev.Expense.Amount, code))
	case ev.From != nil:
		detail = fmt.Sprintf("%s -> %s", cli.StatusLabel(*ev.From), cli.StatusLabel(ev.Snapshot.Status))
	}

	fmt.Fprintf(w, "  %s  %-16s %-24s remaining %s (%s)\n",
		ev.Timestamp.Local().Format(time.Kitchen),
		ev.Type,
		detail,
		cli.FormatMoney(ev.Snapshot.Remaining, code),
		cli.StatusLabel(ev.Snapshot.Status),
	)
}
