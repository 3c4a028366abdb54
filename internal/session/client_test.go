package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, total float64, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(newTestService(t, total, cfg).Handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, 100, Config{Currency: "USD"})

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}

	exp, snap, err := c.AddExpense(ctx, "Lunch", "30")
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if exp.Name != "Lunch" || snap.Remaining != 70 {
		t.Errorf("AddExpense = %+v, remaining %v", exp, snap.Remaining)
	}

	snap, err = c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != exp.ID {
		t.Errorf("Snapshot expenses = %+v", snap.Expenses)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Currency != "USD" || st.EventCount != 2 {
		t.Errorf("Status = currency %q, events %d", st.Currency, st.EventCount)
	}

	removed, snap, err := c.RemoveExpense(ctx, exp.ID)
	if err != nil {
		t.Fatalf("RemoveExpense: %v", err)
	}
	if !removed || snap.Remaining != 100 {
		t.Errorf("RemoveExpense = %v, remaining %v", removed, snap.Remaining)
	}

	removed, _, err = c.RemoveExpense(ctx, exp.ID)
	if err != nil || removed {
		t.Errorf("second RemoveExpense = %v, %v; want false, nil", removed, err)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()

	c := newTestClient(t, 10, Config{})
	_, _, err := c.AddExpense(ctx, "", "5")
	if !errors.Is(err, ErrRejected) {
		t.Errorf("blank name: err = %v, want ErrRejected", err)
	}
	if err == nil || !strings.Contains(err.Error(), "Please fill all fields") {
		t.Errorf("blank name: message = %v", err)
	}

	if _, _, err := c.AddExpense(ctx, "Gift", "12"); err != nil {
		t.Fatalf("AddExpense(Gift): %v", err)
	}
	if _, _, err := c.AddExpense(ctx, "Gum", "1"); !errors.Is(err, ErrExhausted) {
		t.Errorf("exhausted: err = %v, want ErrExhausted", err)
	}

	limited := newTestClient(t, 100, Config{RateLimit: 0.001, RateBurst: 1})
	if _, _, err := limited.AddExpense(ctx, "A", "1"); err != nil {
		t.Fatalf("first limited add: %v", err)
	}
	if _, _, err := limited.AddExpense(ctx, "B", "1"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("rate limited: err = %v, want ErrRateLimited", err)
	}
}

func TestNewClientNormalizesAddress(t *testing.T) {
	cases := map[string]string{
		" 127.0.0.1:8787/ ":      "http://127.0.0.1:8787",
		"https://budget.example": "https://budget.example",
	}
	for in, want := range cases {
		if got := NewClient(in).baseURL; got != want {
			t.Errorf("NewClient(%q).baseURL = %q, want %q", in, got, want)
		}
	}
}

func TestClientUnreachable(t *testing.T) {
	c := NewClient("127.0.0.1:1")
	_, err := c.Snapshot(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unreachable server")
	}
	if errors.Is(err, ErrRejected) {
		t.Errorf("transport error mapped to ErrRejected: %v", err)
	}
}

func TestClientChart(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, 100, Config{})

	if _, err := c.Chart(ctx); err == nil {
		t.Error("chart with no expenses: expected error")
	}

	if _, _, err := c.AddExpense(ctx, "Lunch", "30"); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	png, err := c.Chart(ctx)
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Errorf("chart is not a PNG: % x", png[:min(len(png), 8)])
	}
}

var errStopWatch = errors.New("stop")

func TestClientWatch(t *testing.T) {
	c := newTestClient(t, 100, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seen []string
	err := c.Watch(ctx, func(ev Event) error {
		seen = append(seen, ev.Type)
		if ev.Type == EventSnapshot {
			_, _, err := NewClient(c.baseURL).AddExpense(ctx, "Lunch", "30")
			return err
		}
		return errStopWatch
	})
	if !errors.Is(err, errStopWatch) {
		t.Fatalf("Watch err = %v, want errStopWatch", err)
	}
	if want := []string{EventSnapshot, EventExpenseAdded}; !slices.Equal(seen, want) {
		t.Errorf("events = %v, want %v", seen, want)
	}
}
