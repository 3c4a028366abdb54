package budget

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return "e" + strconv.Itoa(n)
	}
}

func mustNew(t *testing.T, total float64, opts ...Option) *State {
	t.Helper()
	s, err := New(total, opts...)
	if err != nil {
		t.Fatalf("New(%v): %v", total, err)
	}
	return s
}

func mustAdd(t *testing.T, s *State, name string, amount float64) (Expense, Snapshot) {
	t.Helper()
	e, snap, err := s.AddExpense(name, amount)
	if err != nil {
		t.Fatalf("AddExpense(%q, %v): %v", name, amount, err)
	}
	return e, snap
}

func TestNewStartsWithFullRemaining(t *testing.T) {
	for _, total := range []float64{0.01, 1, 100, 2500.75} {
		s := mustNew(t, total)
		if s.Remaining() != total || s.Total() != total {
			t.Errorf("New(%v): total=%v remaining=%v", total, s.Total(), s.Remaining())
		}
		if s.Len() != 0 {
			t.Errorf("New(%v): Len = %d, want 0", total, s.Len())
		}
		if s.Status() != Healthy {
			t.Errorf("New(%v): Status = %v, want healthy", total, s.Status())
		}
	}
}

func TestNewRejectsInvalidTotals(t *testing.T) {
	for _, total := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		s, err := New(total)
		if s != nil {
			t.Errorf("New(%v) returned a state", total)
		}
		if !errors.Is(err, ErrInvalidBudget) {
			t.Errorf("New(%v) err = %v, want ErrInvalidBudget", total, err)
		}
	}
}

func TestAddExpenseValidation(t *testing.T) {
	s := mustNew(t, 100, WithIDFunc(seqIDs()))

	cases := []struct {
		name   string
		amount float64
		want   error
	}{
		{"", 10, ErrInvalidExpenseName},
		{"   ", 10, ErrInvalidExpenseName},
		{"Coffee", -1, ErrInvalidExpenseAmount},
		{"Coffee", 0, ErrInvalidExpenseAmount},
		{"Coffee", math.NaN(), ErrInvalidExpenseAmount},
		{"Coffee", math.Inf(1), ErrInvalidExpenseAmount},
		{"", -1, ErrInvalidExpenseName}, // name is checked first
	}
	for _, c := range cases {
		if _, _, err := s.AddExpense(c.name, c.amount); !errors.Is(err, c.want) {
			t.Errorf("AddExpense(%q, %v) err = %v, want %v", c.name, c.amount, err, c.want)
		}
	}

	if s.Len() != 0 || s.Remaining() != 100 {
		t.Errorf("failed adds mutated state: len=%d remaining=%v", s.Len(), s.Remaining())
	}
}

func TestRemainingTracksSumOfAmounts(t *testing.T) {
	s := mustNew(t, 1000)

	var sum float64
	for i, a := range []float64{12.5, 40, 0.25, 199.99, 3} {
		_, snap := mustAdd(t, s, "item "+strconv.Itoa(i), a)
		sum += a
		if s.Remaining() != 1000-sum {
			t.Errorf("after %d adds: Remaining = %v, want %v", i+1, s.Remaining(), 1000-sum)
		}
		if snap.Remaining != s.Remaining() {
			t.Errorf("snapshot remaining %v != state %v", snap.Remaining, s.Remaining())
		}
		if len(snap.Expenses) != i+1 {
			t.Errorf("snapshot has %d expenses, want %d", len(snap.Expenses), i+1)
		}
	}
}

func TestAddThenRemoveRestoresRemaining(t *testing.T) {
	s := mustNew(t, 100)
	mustAdd(t, s, "Lunch", 30.1)

	before := s.Remaining()
	e, _ := mustAdd(t, s, "Snack", 0.7)

	snap, removed := s.RemoveExpense(e.ID)
	if !removed {
		t.Fatal("RemoveExpense reported nothing removed")
	}
	if s.Remaining() != before || snap.Remaining != before {
		t.Errorf("remaining = %v (snapshot %v), want %v", s.Remaining(), snap.Remaining, before)
	}
}

func TestRemoveUnknownIDIsNoop(t *testing.T) {
	s := mustNew(t, 100, WithIDFunc(seqIDs()))
	mustAdd(t, s, "Lunch", 30)

	before := s.Snapshot()
	after, removed := s.RemoveExpense("missing")
	if removed {
		t.Error("RemoveExpense(missing) reported a removal")
	}
	if after.Remaining != before.Remaining || len(after.Expenses) != len(before.Expenses) {
		t.Errorf("snapshot changed: before %+v, after %+v", before, after)
	}
	if s.Len() != 1 || s.Remaining() != 70 {
		t.Errorf("state changed: len=%d remaining=%v", s.Len(), s.Remaining())
	}
}

func TestRemoveKeepsInsertionOrder(t *testing.T) {
	s := mustNew(t, 100, WithIDFunc(seqIDs()))
	for _, name := range []string{"a", "b", "c", "d"} {
		mustAdd(t, s, name, 1)
	}

	s.RemoveExpense("e2")

	var names []string
	for _, e := range s.Expenses() {
		names = append(names, e.Name)
	}
	if want := []string{"a", "c", "d"}; !slices.Equal(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if s.Remaining() != 97 {
		t.Errorf("Remaining = %v, want 97", s.Remaining())
	}
}

func TestScenarioLunchTaxiGift(t *testing.T) {
	s := mustNew(t, 100)

	steps := []struct {
		name      string
		amount    float64
		remaining float64
		status    Status
	}{
		{"Lunch", 30, 70, Healthy},
		{"Taxi", 50, 20, Critical},
		{"Gift", 30, -10, Exhausted},
	}
	var snap Snapshot
	for _, st := range steps {
		_, snap = mustAdd(t, s, st.name, st.amount)
		if snap.Remaining != st.remaining || snap.Status != st.status {
			t.Errorf("after %s: remaining=%v status=%v, want %v %v",
				st.name, snap.Remaining, snap.Status, st.remaining, st.status)
		}
	}

	if snap.Spent != 110 {
		t.Errorf("Spent = %v, want 110", snap.Spent)
	}
	if math.Abs(snap.UsedPct-1.1) > 1e-9 {
		t.Errorf("UsedPct = %v, want 1.1", snap.UsedPct)
	}
}

func TestDuplicateIDLeavesStateUnchanged(t *testing.T) {
	s := mustNew(t, 100, WithIDFunc(func() string { return "same" }))

	mustAdd(t, s, "first", 10)
	if _, _, err := s.AddExpense("second", 10); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if s.Len() != 1 || s.Remaining() != 90 {
		t.Errorf("state changed: len=%d remaining=%v", s.Len(), s.Remaining())
	}
}

func TestExpenseFieldsAndCopies(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := mustNew(t, 50, WithIDFunc(seqIDs()), WithClock(func() time.Time { return at }))

	e, _ := mustAdd(t, s, "  Coffee  ", 4.5)
	if want := (Expense{ID: "e1", Name: "Coffee", Amount: 4.5, CreatedAt: at}); e != want {
		t.Errorf("expense = %+v, want %+v", e, want)
	}

	got, ok := s.Expense("e1")
	if !ok || got != e {
		t.Errorf("Expense(e1) = %+v, %v", got, ok)
	}

	list := s.Expenses()
	list[0].Name = "mutated"
	if got, _ = s.Expense("e1"); got.Name != "Coffee" {
		t.Errorf("Expenses() shares storage: name = %q", got.Name)
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := mustNew(t, 80, WithIDFunc(seqIDs()))
	_, snap := mustAdd(t, s, "Books", 50)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"status":"warning"`) {
		t.Errorf("json missing status text: %s", data)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Status != Warning {
		t.Errorf("decoded status = %v, want warning", decoded.Status)
	}
}
