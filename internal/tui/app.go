// Package tui provides the interactive Bubble Tea budget tracker.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/tui/components"
	"github.com/theirongolddev/tally/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// FlashTTL is how long success and error messages stay on screen.
const FlashTTL = 3 * time.Second

const (
	minTerminalWidth = 60
	maxContentWidth  = 120
	minContentHeight = 5
	maxHistory       = 64
)

// flashExpiredMsg clears the flash with the matching sequence number.
type flashExpiredMsg struct{ seq int }

type flash struct {
	text  string
	isErr bool
	seq   int
}

// Options configures a new App.
type Options struct {
	// Budget starts the session directly when positive. Otherwise the app
	// asks for one.
	Budget   float64
	Currency string
	Log      zerolog.Logger
	// StateOptions are passed to budget.New.
	StateOptions []budget.Option
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	state *budget.State
	snap  budget.Snapshot

	// UI state
	width    int
	height   int
	cursor   int
	showHelp bool
	flash    flash

	// Budget prompt (huh form), shown until a valid budget is entered
	budgetForm *huh.Form
	budgetVals *budgetValues

	// Add-expense form, nil when closed
	addForm *huh.Form
	addVals *expenseValues

	// Remaining balance after each change, oldest first
	history []float64
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Currency == "" {
		opts.Currency = currency.DefaultCode
	}
	a := App{opts: opts}

	if opts.Budget > 0 {
		if err := a.start(opts.Budget); err == nil {
			return a
		}
	}

	a.budgetVals = &budgetValues{}
	a.budgetForm = newBudgetForm(a.budgetVals, opts.Currency)
	return a
}

// Snapshot returns the snapshot currently displayed.
func (a App) Snapshot() budget.Snapshot {
	return a.snap
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.budgetForm != nil {
		cmds = append(cmds, a.budgetForm.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) start(total float64) error {
	state, err := budget.New(total, a.opts.StateOptions...)
	if err != nil {
		return err
	}
	a.state = state
	a.setSnapshot(state.Snapshot())
	a.opts.Log.Debug().Float64("budget", total).Msg("session started")
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Forward to active forms
		if a.budgetForm != nil {
			a.budgetForm = a.budgetForm.WithWidth(min(msg.Width, 60))
		}
		if a.addForm != nil {
			a.addForm = a.addForm.WithWidth(a.formWidth())
		}
		return a, nil

	case flashExpiredMsg:
		if msg.seq == a.flash.seq {
			a.flash = flash{seq: a.flash.seq}
		}
		return a, nil

	case tea.MouseMsg:
		if a.state == nil || a.showHelp || a.addForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		// Global: quit
		if key == "ctrl+c" {
			return a, tea.Quit
		}

		// Budget prompt intercepts all keys
		if a.budgetForm != nil {
			return a.updateBudgetForm(msg)
		}

		// Add form intercepts all keys; esc cancels it
		if a.addForm != nil {
			if key == "esc" {
				a.addForm = nil
				return a, nil
			}
			return a.updateAddForm(msg)
		}

		// Dismiss help
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		return a.handleKey(key)
	}

	// Forward unhandled messages to active forms (cursor blinks, etc.)
	if a.budgetForm != nil {
		return a.updateBudgetForm(msg)
	}
	if a.addForm != nil {
		return a.updateAddForm(msg)
	}

	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
		return a, nil
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		a.cursor = max(len(a.snap.Expenses)-1, 0)
	case "a":
		return a.openAddForm()
	case "d", "x", "delete", "backspace":
		return a.removeSelected()
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	n := len(a.snap.Expenses)
	if n == 0 {
		a.cursor = 0
		return
	}
	a.cursor = min(max(a.cursor+delta, 0), n-1)
}

func (a App) openAddForm() (tea.Model, tea.Cmd) {
	if a.snap.Status == budget.Exhausted {
		cmd := a.setFlash(cli.MsgExhausted, true)
		return a, cmd
	}
	if a.addVals == nil {
		a.addVals = &expenseValues{}
	}
	a.addForm = newExpenseForm(a.addVals, a.opts.Currency).WithWidth(a.formWidth())
	return a, a.addForm.Init()
}

// submitExpense applies the add form values to the budget.
func (a App) submitExpense() (tea.Model, tea.Cmd) {
	// Malformed input becomes NaN so the core reports the canonical error.
	amount, _ := currency.ParseAmount(a.addVals.amount, a.opts.Currency)

	exp, snap, err := a.state.AddExpense(a.addVals.name, amount)
	if err != nil {
		a.opts.Log.Debug().Err(err).Str("name", a.addVals.name).Str("amount", a.addVals.amount).Msg("expense rejected")
		// Keep the typed values and reopen the form.
		a.addForm = newExpenseForm(a.addVals, a.opts.Currency).WithWidth(a.formWidth())
		cmd := a.setFlash(cli.Message(err), true)
		return a, tea.Batch(cmd, a.addForm.Init())
	}

	a.opts.Log.Debug().Str("id", exp.ID).Str("name", exp.Name).Float64("amount", exp.Amount).Msg("expense added")
	a.setSnapshot(snap)
	a.addForm = nil
	a.addVals = nil
	a.cursor = len(snap.Expenses) - 1

	text := cli.MsgAdded
	if snap.Status == budget.Exhausted {
		text += ". " + cli.MsgExhausted
	}
	cmd := a.setFlash(text, false)
	return a, cmd
}

// setSnapshot displays snap and records its balance for the trend line.
func (a *App) setSnapshot(snap budget.Snapshot) {
	a.snap = snap
	a.history = append(slices.Clip(a.history), snap.Remaining)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
}

func (a App) removeSelected() (tea.Model, tea.Cmd) {
	if a.cursor >= len(a.snap.Expenses) {
		return a, nil
	}
	exp := a.snap.Expenses[a.cursor]

	snap, removed := a.state.RemoveExpense(exp.ID)
	if !removed {
		return a, nil
	}
	a.setSnapshot(snap)
	a.opts.Log.Debug().Str("id", exp.ID).Msg("expense removed")
	a.moveCursor(0)

	cmd := a.setFlash(fmt.Sprintf("%s: %s", cli.MsgRemoved, exp.Name), false)
	return a, cmd
}

// setFlash shows text and schedules its expiry. Newer messages replace older
// ones; the stale expiry is ignored by sequence number.
func (a *App) setFlash(text string, isErr bool) tea.Cmd {
	seq := a.flash.seq + 1
	a.flash = flash{text: text, isErr: isErr, seq: seq}
	return tea.Tick(FlashTTL, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

func (a App) updateBudgetForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.budgetForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.budgetForm = f
	}

	switch a.budgetForm.State {
	case huh.StateCompleted:
		total, _ := currency.ParseAmount(a.budgetVals.raw, a.opts.Currency)
		if err := a.start(total); err != nil {
			// Re-prompt with the message.
			a.budgetVals = &budgetValues{}
			a.budgetForm = newBudgetForm(a.budgetVals, a.opts.Currency)
			flashCmd := a.setFlash(cli.Message(err), true)
			return a, tea.Batch(flashCmd, a.budgetForm.Init())
		}
		a.budgetForm = nil
		a.budgetVals = nil
		return a, nil

	case huh.StateAborted:
		return a, tea.Quit
	}

	return a, cmd
}

func (a App) updateAddForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.addForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.addForm = f
	}

	switch a.addForm.State {
	case huh.StateCompleted:
		return a.submitExpense()
	case huh.StateAborted:
		a.addForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) formWidth() int {
	return max(components.CardInnerWidth(a.contentWidth()), 20)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.budgetForm != nil {
		return a.viewBudgetPrompt()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  tally needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewBudgetPrompt() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ tally"))
	b.WriteString("\n\n")
	b.WriteString(a.budgetForm.View())
	if a.flash.text != "" {
		b.WriteString("\n")
		b.WriteString(a.renderFlash())
	}

	card := cardStyle.Render(b.String())
	return lipgloss.Place(a.width, max(a.height, lipgloss.Height(card)), lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"a", "Add expense"},
		{"d x", "Delete selected expense"},
		{"j k", "Move selection"},
		{"g G", "First / last expense"},
		{"Esc", "Cancel form"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-6s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, max(a.height, lipgloss.Height(card)), lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	code := a.opts.Currency
	snap := a.snap
	statusColor := t.Status(snap.Status)

	// 1. Header and status bar
	header := components.RenderHeader("◈ tally", strings.ToUpper(cli.StatusLabel(snap.Status)), statusColor, w)
	statusBar := components.RenderStatusBar(w, []components.KeyHint{
		{Key: "a", Desc: "dd", Off: snap.Status == budget.Exhausted},
		{Key: "d", Desc: "elete", Off: len(snap.Expenses) == 0},
		{Key: "j/k", Desc: " move"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "uit"},
	}, currency.Lookup(code).Code)

	// 2. Content
	sections := []string{
		components.MetricRow([]components.Metric{
			{Label: "Budget", Value: cli.FormatMoney(snap.Total, code)},
			{Label: "Spent", Value: cli.FormatMoney(snap.Spent, code),
				Note: fmt.Sprintf("%d expenses", len(snap.Expenses))},
			{Label: "Remaining", Value: cli.FormatMoney(snap.Remaining, code), Color: statusColor},
			{Label: "Status", Value: cli.StatusLabel(snap.Status), Color: statusColor,
				Note: cli.FormatPercent(snap.UsedPct) + " used"},
		}, cw),
		components.ContentCard("Used", a.renderUsage(cw), cw, false),
		a.renderExpenses(cw),
	}
	if a.addForm != nil {
		sections = append(sections, components.ContentCard("New expense", a.addForm.View(), cw, true))
	}
	if a.flash.text != "" {
		sections = append(sections, a.renderFlash())
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	// 3. Fit content between header and status bar
	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// renderUsage shows the budget bar and, once there is a change to show, the
// remaining balance trend.
func (a App) renderUsage(cw int) string {
	inner := components.CardInnerWidth(cw)
	bar := components.BudgetBar(a.snap.UsedPct, a.snap.Status, inner)
	if len(a.history) < 2 {
		return bar
	}

	history := a.history
	if n := max(inner-12, 1); len(history) > n {
		history = history[len(history)-n:]
	}
	label := lipgloss.NewStyle().Foreground(theme.Active.TextMuted).Background(theme.Active.Surface).Render("Remaining  ")
	return bar + "\n" + label + components.Sparkline(history, theme.Active.Status(a.snap.Status))
}

func (a App) renderExpenses(cw int) string {
	t := theme.Active
	snap := a.snap
	inner := components.CardInnerWidth(cw)

	if len(snap.Expenses) == 0 {
		hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render("No expenses yet. Press a to add one.")
		return components.ContentCard("Expenses", hint, cw, false)
	}

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	amountW := 0
	for _, e := range snap.Expenses {
		amountW = max(amountW, lipgloss.Width(cli.FormatMoney(e.Amount, a.opts.Currency)))
	}
	nameW := max(inner-amountW-4, 4)

	rows := make([]string, 0, len(snap.Expenses))
	for i, e := range snap.Expenses {
		marker := "  "
		style := rowStyle
		if i == a.cursor {
			marker = "▸ "
			style = selStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-*s  %*s",
			marker, nameW, truncStr(e.Name, nameW), amountW, cli.FormatMoney(e.Amount, a.opts.Currency))))
	}

	shares := make([]components.Share, len(snap.Expenses))
	for i, e := range snap.Expenses {
		shares[i] = components.Share{Label: e.Name, Value: e.Amount}
	}

	body := strings.Join(rows, "\n") + "\n\n" +
		components.ShareBars(shares, snap.Total, t.Accent, inner)
	return components.ContentCard(fmt.Sprintf("Expenses (%d)", len(snap.Expenses)), body, cw, true)
}

func (a App) renderFlash() string {
	t := theme.Active
	color := t.Green
	if a.flash.isErr {
		color = t.Red
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Padding(0, 1).Render(a.flash.text)
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= h {
		return s
	}
	return s + strings.Repeat("\n", h-lines)
}
