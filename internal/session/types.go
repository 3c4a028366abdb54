package session

import (
	"encoding/json"
	"time"

	"github.com/theirongolddev/tally/internal/budget"
)

// Event types published on the stream.
const (
	EventSnapshot       = "snapshot"
	EventExpenseAdded   = "expense_added"
	EventExpenseRemoved = "expense_removed"
	EventStatusChanged  = "status_changed"
)

// Error kinds returned in APIError.Kind.
const (
	KindInvalidName   = "invalid_name"
	KindInvalidAmount = "invalid_amount"
	KindDuplicateID   = "duplicate_id"
	KindExhausted     = "exhausted"
	KindBadRequest    = "bad_request"
	KindRateLimited   = "rate_limited"
	KindNotFound      = "not_found"
)

// Event is emitted whenever the session budget changes.
type Event struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Snapshot  budget.Snapshot `json:"snapshot"`
	Expense   *budget.Expense `json:"expense,omitempty"`
	From      *budget.Status  `json:"from,omitempty"` // previous status on status_changed
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time       `json:"started_at"`
	Currency        string          `json:"currency"`
	EventCount      int             `json:"event_count"`
	SubscriberCount int             `json:"subscriber_count"`
	Snapshot        budget.Snapshot `json:"snapshot"`
}

// AddRequest is the body of POST /v1/expenses. Amount may be a JSON number
// or a string such as "$12.50".
type AddRequest struct {
	Name   string          `json:"name"`
	Amount json.RawMessage `json:"amount"`
}

// AddResponse is returned when an expense is recorded.
type AddResponse struct {
	Expense  budget.Expense  `json:"expense"`
	Snapshot budget.Snapshot `json:"snapshot"`
}

// RemoveResponse is returned by DELETE /v1/expenses/{id}.
type RemoveResponse struct {
	Removed  bool            `json:"removed"`
	Snapshot budget.Snapshot `json:"snapshot"`
}

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
