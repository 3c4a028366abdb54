// Package budget holds the in-memory budget state: a fixed total, the ordered
// list of expenses charged against it, and the derived remaining balance.
package budget

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidBudget is returned by New when the total is not a positive finite number.
	ErrInvalidBudget = errors.New("budget: total must be a positive finite number")
	// ErrInvalidExpenseName is returned when an expense name is blank.
	ErrInvalidExpenseName = errors.New("budget: expense name must not be empty")
	// ErrInvalidExpenseAmount is returned when an expense amount is not a positive finite number.
	ErrInvalidExpenseAmount = errors.New("budget: expense amount must be a positive finite number")
	// ErrDuplicateID is returned when the ID func hands out an ID already in use.
	ErrDuplicateID = errors.New("budget: duplicate expense id")
)

// Expense is a single named deduction against the budget.
type Expense struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Amount    float64   `json:"amount" yaml:"amount"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Snapshot is a copy of everything a renderer needs after a mutation.
type Snapshot struct {
	Total     float64   `json:"total" yaml:"total"`
	Spent     float64   `json:"spent" yaml:"spent"`
	Remaining float64   `json:"remaining" yaml:"remaining"`
	UsedPct   float64   `json:"used_pct" yaml:"used_pct"`
	Status    Status    `json:"status" yaml:"status"`
	Expenses  []Expense `json:"expenses" yaml:"expenses"`
}

// State is the authoritative budget for one session.
// It is not safe for concurrent use.
type State struct {
	total     float64
	expenses  []Expense
	remaining float64

	newID func() string
	now   func() time.Time
}

// Option configures a State.
type Option func(*State)

// WithIDFunc overrides the expense ID generator (random UUIDs by default).
func WithIDFunc(fn func() string) Option {
	return func(s *State) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the clock used to stamp new expenses.
func WithClock(fn func() time.Time) Option {
	return func(s *State) {
		if fn != nil {
			s.now = fn
		}
	}
}

// New creates a budget with the given total and no expenses.
func New(total float64, opts ...Option) (*State, error) {
	if !positiveFinite(total) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBudget, total)
	}

	s := &State{
		total:     total,
		remaining: total,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddExpense appends a new expense and returns it with the updated snapshot.
// On error the state is left untouched.
func (s *State) AddExpense(name string, amount float64) (Expense, Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Expense{}, Snapshot{}, ErrInvalidExpenseName
	}
	if !positiveFinite(amount) {
		return Expense{}, Snapshot{}, fmt.Errorf("%w: got %v", ErrInvalidExpenseAmount, amount)
	}

	id := s.newID()
	if s.indexOf(id) >= 0 {
		return Expense{}, Snapshot{}, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	e := Expense{
		ID:        id,
		Name:      name,
		Amount:    amount,
		CreatedAt: s.now(),
	}
	s.expenses = append(s.expenses, e)
	s.recalculate()

	return e, s.Snapshot(), nil
}

// RemoveExpense deletes the expense with the given ID. Removing an unknown ID
// is a no-op; the bool reports whether anything was removed.
func (s *State) RemoveExpense(id string) (Snapshot, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return s.Snapshot(), false
	}

	s.expenses = append(s.expenses[:idx:idx], s.expenses[idx+1:]...)
	s.recalculate()
	return s.Snapshot(), true
}

// Total returns the budget total fixed at creation.
func (s *State) Total() float64 { return s.total }

// Remaining returns total minus the sum of all current expenses.
func (s *State) Remaining() float64 { return s.remaining }

// Spent returns the sum of all current expenses.
func (s *State) Spent() float64 { return s.total - s.remaining }

// Len returns the number of expenses.
func (s *State) Len() int { return len(s.expenses) }

// Status classifies the remaining balance.
func (s *State) Status() Status { return Classify(s.total, s.remaining) }

// Expenses returns a copy of the expenses in insertion order.
func (s *State) Expenses() []Expense {
	out := make([]Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// Expense looks up an expense by ID.
func (s *State) Expense(id string) (Expense, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Expense{}, false
	}
	return s.expenses[idx], true
}

// Snapshot returns the current derived view of the budget.
func (s *State) Snapshot() Snapshot {
	spent := s.Spent()
	return Snapshot{
		Total:     s.total,
		Spent:     spent,
		Remaining: s.remaining,
		UsedPct:   spent / s.total,
		Status:    s.Status(),
		Expenses:  s.Expenses(),
	}
}

// recalculate derives remaining from scratch so that add followed by remove
// restores the previous value exactly.
func (s *State) recalculate() {
	var spent float64
	for _, e := range s.expenses {
		spent += e.Amount
	}
	s.remaining = s.total - spent
}

func (s *State) indexOf(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
