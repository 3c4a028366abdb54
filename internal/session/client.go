package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/budget"

	"github.com/gorilla/websocket"
)

const (
	requestTimeout = 10 * time.Second
	maxRespSize    = 1 << 20 // 1 MB
)

var (
	// ErrRejected indicates the server refused the expense as invalid.
	ErrRejected = errors.New("session: expense rejected")
	// ErrExhausted indicates the budget is exhausted and no longer accepts expenses.
	ErrExhausted = errors.New("session: budget exhausted")
	// ErrRateLimited indicates the server rate limit was hit.
	ErrRateLimited = errors.New("session: rate limited")
)

// Client talks to a running `tally serve`.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for a server address such as "127.0.0.1:8787"
// or "http://host:8787".
func NewClient(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: addr,
		http:    &http.Client{},
	}
}

// Health returns nil when the server answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	return err
}

// Status returns server runtime information.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	body, err := c.do(ctx, http.MethodGet, "/v1/status", nil)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return st, fmt.Errorf("session: parsing status: %w", err)
	}
	return st, nil
}

// Snapshot returns the current budget.
func (c *Client) Snapshot(ctx context.Context) (budget.Snapshot, error) {
	var snap budget.Snapshot
	body, err := c.do(ctx, http.MethodGet, "/v1/budget", nil)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(body, &snap); err != nil {
		return snap, fmt.Errorf("session: parsing snapshot: %w", err)
	}
	return snap, nil
}

// AddExpense records an expense. amount is sent as typed and parsed by the
// server in its currency.
func (c *Client) AddExpense(ctx context.Context, name, amount string) (budget.Expense, budget.Snapshot, error) {
	raw, err := json.Marshal(amount)
	if err != nil {
		return budget.Expense{}, budget.Snapshot{}, fmt.Errorf("session: encoding amount: %w", err)
	}
	payload, err := json.Marshal(AddRequest{Name: name, Amount: raw})
	if err != nil {
		return budget.Expense{}, budget.Snapshot{}, fmt.Errorf("session: encoding request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/expenses", payload)
	if err != nil {
		return budget.Expense{}, budget.Snapshot{}, err
	}

	var resp AddResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return budget.Expense{}, budget.Snapshot{}, fmt.Errorf("session: parsing response: %w", err)
	}
	return resp.Expense, resp.Snapshot, nil
}

// RemoveExpense deletes an expense by ID. Removing an unknown ID reports
// removed=false without error.
func (c *Client) RemoveExpense(ctx context.Context, id string) (bool, budget.Snapshot, error) {
	body, err := c.do(ctx, http.MethodDelete, "/v1/expenses/"+url.PathEscape(id), nil)
	if err != nil {
		return false, budget.Snapshot{}, err
	}

	var resp RemoveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, budget.Snapshot{}, fmt.Errorf("session: parsing response: %w", err)
	}
	return resp.Removed, resp.Snapshot, nil
}

// Chart returns the expense pie chart as PNG bytes.
func (c *Client) Chart(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/chart.png", nil)
}

// Watch streams events over the WebSocket endpoint, calling fn for each one,
// until ctx is canceled, fn returns an error, or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/v1/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("session: dialing %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadJSON when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("session: reading event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// do performs a request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("session: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRespSize))
	if err != nil {
		return nil, fmt.Errorf("session: reading response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var apiErr APIError
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case apiErr.Kind == KindExhausted:
		return nil, ErrExhausted
	case resp.StatusCode == http.StatusUnprocessableEntity || apiErr.Kind == KindDuplicateID:
		return nil, fmt.Errorf("%w: %s", ErrRejected, apiErr.Error)
	}
	return nil, fmt.Errorf("session: unexpected status %d", resp.StatusCode)
}
