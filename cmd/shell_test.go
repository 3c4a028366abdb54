package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() budget.Option {
	n := 0
	return budget.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("%08d-0000-0000-0000-000000000000", n)
	})
}

func runScript(t *testing.T, total float64, script string) (*shell, string, error) {
	t.Helper()
	var out bytes.Buffer
	sh := newShell(strings.NewReader(script), &out, "USD", zerolog.Nop(), sequentialIDs())
	err := sh.run(total)
	return sh, out.String(), err
}

func TestShellPromptsUntilValidBudget(t *testing.T) {
	sh, out, err := runScript(t, 0, "abc\n-5\n100\nadd Lunch 30\nadd Taxi cab 50\nls\nrm #1\nquit\n")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "What is your budget?"))
	assert.Equal(t, 2, strings.Count(out, cli.MsgBadBudget))
	assert.Equal(t, 2, strings.Count(out, cli.MsgAdded))
	assert.Contains(t, out, "Taxi cab")
	assert.Contains(t, out, cli.MsgRemoved)

	require.Len(t, sh.state.Expenses(), 1)
	assert.Equal(t, "Taxi cab", sh.state.Expenses()[0].Name)
	assert.InDelta(t, 50, sh.state.Remaining(), 1e-9)
}

func TestShellEOFBeforeBudget(t *testing.T) {
	_, _, err := runScript(t, 0, "nope\n")
	assert.ErrorIs(t, err, errNoBudget)
}

func TestShellEOFEndsSession(t *testing.T) {
	sh, _, err := runScript(t, 100, "add Lunch 12.345\n")
	require.NoError(t, err)
	assert.InDelta(t, 12.35, sh.state.Spent(), 1e-9, "amount rounded to cents")
}

func TestShellRejectsInvalidExpenses(t *testing.T) {
	sh, out, err := runScript(t, 100, "add Lunch\nadd Lunch abc\nadd Lunch -3\nadd Lunch 0\n")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, cli.MsgMissing))
	assert.Equal(t, 3, strings.Count(out, cli.MsgBadAmount))
	assert.NotContains(t, out, cli.MsgAdded)
	assert.Zero(t, sh.state.Len())
}

func TestShellExhaustedBlocksAdds(t *testing.T) {
	sh, out, err := runScript(t, 50, "add Rent 50\nadd Food 1\nrm #1\nadd Food 1\n")
	require.NoError(t, err)

	// Once when Rent exhausts the budget, once when Food is refused.
	assert.Equal(t, 2, strings.Count(out, cli.MsgExhausted))
	require.Len(t, sh.state.Expenses(), 1)
	assert.Equal(t, "Food", sh.state.Expenses()[0].Name)
	assert.Equal(t, budget.Healthy, sh.state.Status())
}

func TestShellRemoveByID(t *testing.T) {
	sh, out, err := runScript(t, 100,
		"add Lunch 10\nadd Taxi 20\nrm 00000002\nrm 00000009\nrm\n")
	require.NoError(t, err)

	assert.Contains(t, out, cli.MsgRemoved)
	assert.Contains(t, out, `No expense matches "00000009"`)
	assert.Contains(t, out, "Usage: rm")
	require.Len(t, sh.state.Expenses(), 1)
	assert.Equal(t, "Lunch", sh.state.Expenses()[0].Name)
}

func TestShellResolveID(t *testing.T) {
	sh, _, err := runScript(t, 100, "add A 1\nadd B 2\n")
	require.NoError(t, err)

	first := "00000001-0000-0000-0000-000000000000"
	tests := []struct {
		ref    string
		wantID string
		wantOK bool
	}{
		{"#1", first, true},
		{"#2", "00000002-0000-0000-0000-000000000000", true},
		{"#3", "", false},
		{"#0", "", false},
		{"#x", "", false},
		{first, first, true},
		{"00000001", first, true},
		{"0000000", "", false}, // ambiguous prefix
		{"zz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, ok := sh.resolveID(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestShellUnknownCommandAndHelp(t *testing.T) {
	_, out, err := runScript(t, 100, "frobnicate\nhelp\n\nexit\nadd Never 1\n")
	require.NoError(t, err)

	assert.Contains(t, out, `Unknown command "frobnicate"`)
	assert.Contains(t, out, "add <name...> <amount>")
	assert.NotContains(t, out, cli.MsgAdded, "commands after exit are not read")
}
