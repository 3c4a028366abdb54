package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/currency"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shellHelp = `  Commands:
    add <name...> <amount>   record an expense
    rm <id|#n>               remove an expense by ID or list position
    ls                       show the budget
    help                     show this help
    quit                     leave the shell
`

var errNoBudget = errors.New("no budget entered")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Track a budget from a line-oriented prompt",
	Long:  "Track a budget by typing commands, one per line. Works without a full terminal.",
	RunE:  runShellCmd,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShellCmd(_ *cobra.Command, _ []string) error {
	total, _, err := budgetFromFlag()
	if err != nil {
		return err
	}
	sh := newShell(os.Stdin, os.Stdout, currencyCode(), appLog)
	return sh.run(total)
}

// shell drives one budget from text commands.
type shell struct {
	in   *bufio.Scanner
	out  io.Writer
	code string
	log  zerolog.Logger
	opts []budget.Option

	state *budget.State
}

func newShell(in io.Reader, out io.Writer, code string, log zerolog.Logger, opts ...budget.Option) *shell {
	return &shell{
		in:   bufio.NewScanner(in),
		out:  out,
		code: code,
		log:  log,
		opts: opts,
	}
}

// run starts with total when positive, otherwise asks for a budget first.
// It returns nil on quit or end of input after a budget was set.
func (s *shell) run(total float64) error {
	if total > 0 {
		state, err := budget.New(total, s.opts...)
		if err != nil {
			return errBadBudget
		}
		s.state = state
	} else if err := s.askBudget(); err != nil {
		return err
	}

	s.render()
	fmt.Fprintln(s.out, "  Type help for commands.")

	for {
		fmt.Fprint(s.out, "> ")
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		if quit := s.exec(line); quit {
			return nil
		}
	}
}

func (s *shell) askBudget() error {
	for {
		fmt.Fprintf(s.out, "What is your budget? (%s) ", currency.Lookup(s.code).Grapheme)
		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return errNoBudget
		}
		total, err := parseBudget(line, s.code)
		if err == nil {
			s.state, err = budget.New(total, s.opts...)
		}
		if err != nil {
			fmt.Fprintln(s.out, cli.RenderNotice(cli.MsgBadBudget, true))
			continue
		}
		s.log.Debug().Float64("budget", total).Msg("session started")
		return nil
	}
}

func (s *shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "add", "a":
		s.add(fields[1:])
	case "rm", "remove", "del":
		s.remove(fields[1:])
	case "ls", "list":
		s.render()
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
	case "quit", "exit", "q":
		return true
	default:
		s.notice(fmt.Sprintf("Unknown command %q, try help", fields[0]), true)
	}
	return false
}

func (s *shell) add(args []string) {
	if s.state.Status() == budget.Exhausted {
		s.notice(cli.MsgExhausted, true)
		return
	}
	if len(args) < 2 {
		s.notice(cli.MsgMissing, true)
		return
	}

	name := strings.Join(args[:len(args)-1], " ")
	amount, err := currency.ParseAmount(args[len(args)-1], s.code)
	if err != nil {
		amount = math.NaN()
	}

	exp, snap, err := s.state.AddExpense(name, amount)
	if err != nil {
		s.log.Debug().Err(err).Str("name", name).Msg("expense rejected")
		s.notice(cli.Message(err), true)
		return
	}
	s.log.Debug().Str("id", exp.ID).Float64("amount", exp.Amount).Msg("expense added")

	s.render()
	s.notice(cli.MsgAdded, false)
	if snap.Status == budget.Exhausted {
		s.notice(cli.MsgExhausted, true)
	}
}

func (s *shell) remove(args []string) {
	if len(args) != 1 {
		s.notice("Usage: rm <id|#n>", true)
		return
	}

	id, ok := s.resolveID(args[0])
	if !ok {
		s.notice(fmt.Sprintf("No expense matches %q", args[0]), true)
		return
	}
	if _, removed := s.state.RemoveExpense(id); !removed {
		s.notice(fmt.Sprintf("No expense matches %q", args[0]), true)
		return
	}
	s.log.Debug().Str("id", id).Msg("expense removed")

	s.render()
	s.notice(cli.MsgRemoved, false)
}

// resolveID accepts a list position (#n), a full ID, or a unique ID prefix
// such as the short form printed in the table.
func (s *shell) resolveID(ref string) (string, bool) {
	expenses := s.state.Expenses()

	if n, found := strings.CutPrefix(ref, "#"); found {
		i, err := strconv.Atoi(n)
		if err != nil || i < 1 || i > len(expenses) {
			return "", false
		}
		return expenses[i-1].ID, true
	}

	if _, ok := s.state.Expense(ref); ok {
		return ref, true
	}

	match := ""
	for _, e := range expenses {
		if strings.HasPrefix(e.ID, ref) {
			if match != "" {
				return "", false
			}
			match = e.ID
		}
	}
	return match, match != ""
}

func (s *shell) render() {
	snap := s.state.Snapshot()
	fmt.Fprintln(s.out)
	fmt.Fprint(s.out, cli.RenderExpenses(snap, s.code))
	fmt.Fprintln(s.out, cli.RenderStatusLine(snap, s.code))
	fmt.Fprintln(s.out)
}

func (s *shell) notice(msg string, isErr bool) {
	fmt.Fprintln(s.out, cli.RenderNotice(msg, isErr))
}
