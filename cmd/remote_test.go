package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/session"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRemote(t *testing.T, total float64) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	state, err := budget.New(total, sequentialIDs())
	require.NoError(t, err)
	srv := httptest.NewServer(session.New(state, session.Config{}, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)

	flagRemoteAddr = srv.URL
	t.Cleanup(func() { flagRemoteAddr = "" })

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetContext(context.Background())
	c.SetOut(&out)
	return c, &out
}

func TestRemoteAddShowRemove(t *testing.T) {
	c, out := startRemote(t, 100)

	require.NoError(t, runRemoteAdd(c, []string{"Taxi", "home", "12"}))
	assert.Contains(t, out.String(), cli.MsgAdded)
	assert.Contains(t, out.String(), "Taxi home")

	out.Reset()
	flagRemoteOutput = "json"
	t.Cleanup(func() { flagRemoteOutput = "table" })
	require.NoError(t, runRemoteShow(c, nil))
	var snap budget.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	require.Len(t, snap.Expenses, 1)
	assert.InDelta(t, 88, snap.Remaining, 1e-9)

	out.Reset()
	require.NoError(t, runRemoteRm(c, []string{"nope"}))
	assert.Contains(t, out.String(), `No expense matches "nope"`)

	out.Reset()
	require.NoError(t, runRemoteRm(c, []string{snap.Expenses[0].ID}))
	assert.Contains(t, out.String(), cli.MsgRemoved)
}

func TestRemoteErrorsUseUserMessages(t *testing.T) {
	c, _ := startRemote(t, 50)

	err := runRemoteAdd(c, []string{"Lunch", "abc"})
	require.Error(t, err)
	assert.Equal(t, cli.MsgBadAmount, err.Error())

	require.NoError(t, runRemoteAdd(c, []string{"Rent", "60"}))
	err = runRemoteAdd(c, []string{"Food", "1"})
	require.Error(t, err)
	assert.Equal(t, cli.MsgExhausted, err.Error())
}

func TestRemoteChart(t *testing.T) {
	c, _ := startRemote(t, 100)
	flagChartFile = filepath.Join(t.TempDir(), "chart.png")
	t.Cleanup(func() { flagChartFile = "budget.png" })

	require.Error(t, runRemoteChart(c, nil), "no expenses yet")

	require.NoError(t, runRemoteAdd(c, []string{"Lunch", "30"}))
	require.NoError(t, runRemoteChart(c, nil))
	data, err := os.ReadFile(flagChartFile)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestRemoteErrorMapping(t *testing.T) {
	assert.Equal(t, cli.MsgExhausted, remoteError(session.ErrExhausted).Error())
	assert.Contains(t, remoteError(session.ErrRateLimited).Error(), "too many requests")
	wrapped := fmt.Errorf("%w: %s", session.ErrRejected, cli.MsgMissing)
	assert.Equal(t, cli.MsgMissing, remoteError(wrapped).Error())
	other := errors.New("boom")
	assert.Equal(t, other, remoteError(other))
}

func TestPrintEvent(t *testing.T) {
	from := budget.Healthy
	ev := session.Event{
		Type:      session.EventStatusChanged,
		Timestamp: time.Now(),
		Snapshot:  budget.Snapshot{Total: 100, Remaining: 40, Status: budget.Warning},
		From:      &from,
	}
	var buf bytes.Buffer
	printEvent(&buf, ev, "USD")
	assert.Contains(t, buf.String(), "status_changed")
	assert.Contains(t, buf.String(), "Healthy -> Warning")
	assert.Contains(t, buf.String(), "$40.00")
}
