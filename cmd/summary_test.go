package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/theirongolddev/tally/internal/budget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSplitExpense(t *testing.T) {
	tests := []struct {
		spec, name, amount string
	}{
		{"Lunch=30", "Lunch", "30"},
		{"a=b=12", "a=b", "12"},
		{"Lunch", "Lunch", ""},
		{"=5", "", "5"},
	}
	for _, tt := range tests {
		name, amount := splitExpense(tt.spec)
		assert.Equal(t, tt.name, name, tt.spec)
		assert.Equal(t, tt.amount, amount, tt.spec)
	}
}

func TestBuildSummary(t *testing.T) {
	snap, err := buildSummary(100, []string{"Lunch=30", "Taxi=$2,0.005"}, "USD", sequentialIDs())
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 2)
	assert.InDelta(t, 50.01, snap.Spent, 1e-9)
	assert.Equal(t, budget.Warning, snap.Status)
}

func TestBuildSummaryStopsAtFirstFailure(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
		want  string
	}{
		{"blank name", []string{"Lunch=10", "=5", "Taxi=1"}, `expense 2 (=5): Please fill all fields`},
		{"bad amount", []string{"Lunch=abc"}, `expense 1 (Lunch=abc): Quantity is not valid`},
		{"missing amount", []string{"Lunch"}, `expense 1 (Lunch): Quantity is not valid`},
		{"exhausted", []string{"Rent=100", "Food=1"}, `expense 2 (Food=1): Budget is over`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSummary(100, tt.specs, "USD")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestBuildSummaryInvalidBudget(t *testing.T) {
	_, err := buildSummary(0, nil, "USD")
	assert.ErrorIs(t, err, errBadBudget)
}

func TestWriteSummaryFormats(t *testing.T) {
	snap, err := buildSummary(100, []string{"Lunch=30"}, "USD", sequentialIDs())
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, snap, "USD", "json", 80))
		var got budget.Snapshot
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.InDelta(t, 70, got.Remaining, 1e-9)
		assert.Equal(t, budget.Healthy, got.Status)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, snap, "USD", "yaml", 80))
		assert.Contains(t, buf.String(), "status: healthy")
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.EqualValues(t, 100, got["total"])
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, snap, "USD", "table", 80))
		assert.Contains(t, buf.String(), "#1 Lunch")
		assert.Contains(t, buf.String(), "$70.00")
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeSummary(&buf, snap, "USD", "markdown", 80))
		assert.Contains(t, buf.String(), "Lunch")
	})

	t.Run("unknown", func(t *testing.T) {
		err := writeSummary(&bytes.Buffer{}, snap, "USD", "xml", 80)
		assert.ErrorContains(t, err, `unknown output format "xml"`)
	})
}
