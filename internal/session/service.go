// Package session serves one in-memory budget over HTTP and streams its changes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/tally/internal/budget"
	"github.com/theirongolddev/tally/internal/cli"
	"github.com/theirongolddev/tally/internal/currency"
	"github.com/theirongolddev/tally/internal/report"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const maxBodySize = 64 << 10

// Config controls the session server.
type Config struct {
	Addr         string
	Currency     string
	EventsBuffer int
	RateLimit    float64 // mutating requests per second per client
	RateBurst    int
}

// Service owns the session budget and its HTTP API.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics
	limiter *limiter

	// stateMu serializes every access to state.
	stateMu sync.Mutex
	state   *budget.State

	mu          sync.RWMutex
	startedAt   time.Time
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a service around state. The service takes ownership of state;
// callers must not touch it afterwards.
func New(state *budget.State, cfg Config, log zerolog.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Currency == "" {
		cfg.Currency = currency.DefaultCode
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 10
	}

	s := &Service{
		cfg:       cfg,
		log:       log,
		metrics:   newMetrics(),
		limiter:   newLimiter(cfg.RateLimit, cfg.RateBurst),
		state:     state,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}

	snap := state.Snapshot()
	s.metrics.observe(snap)
	s.publishEvent(Event{Type: EventSnapshot, Snapshot: snap})
	return s
}

// Handler returns the routed HTTP handler.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.requestLoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/budget", s.handleBudget).Methods(http.MethodGet)
	v1.Handle("/expenses", s.rateLimitMiddleware(http.HandlerFunc(s.handleAdd))).Methods(http.MethodPost)
	v1.Handle("/expenses/{id}", s.rateLimitMiddleware(http.HandlerFunc(s.handleRemove))).Methods(http.MethodDelete)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
	v1.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	v1.HandleFunc("/chart.png", s.handleChart).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, KindNotFound, "not found")
	})
	return r
}

// Run serves the API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Streams end when ctx is canceled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info().Str("addr", s.cfg.Addr).Str("currency", s.cfg.Currency).Msg("session server listening")

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down session server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("session http server: %w", err)
	}
}

// Snapshot returns the current budget snapshot.
func (s *Service) Snapshot() budget.Snapshot {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state.Snapshot()
}

// AddExpense parses rawAmount in the session currency and records the expense.
func (s *Service) AddExpense(name, rawAmount string) (budget.Expense, budget.Snapshot, error) {
	// Malformed input becomes NaN so the core reports the canonical error.
	amount, _ := currency.ParseAmount(rawAmount, s.cfg.Currency)

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	before := s.state.Status()
	if before == budget.Exhausted {
		s.metrics.rejected.WithLabelValues(KindExhausted).Inc()
		return budget.Expense{}, s.state.Snapshot(), errExhausted
	}

	exp, snap, err := s.state.AddExpense(name, amount)
	if err != nil {
		s.metrics.rejected.WithLabelValues(errorKind(err)).Inc()
		return exp, snap, err
	}

	s.metrics.added.Inc()
	s.metrics.observe(snap)
	s.log.Debug().Str("id", exp.ID).Str("name", exp.Name).Float64("amount", exp.Amount).Msg("expense added")

	s.publishEvent(Event{Type: EventExpenseAdded, Snapshot: snap, Expense: &exp})
	s.publishStatusChange(before, snap)
	return exp, snap, nil
}

// RemoveExpense deletes the expense with id. Unknown ids are not an error.
func (s *Service) RemoveExpense(id string) (bool, budget.Snapshot) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	before := s.state.Status()
	exp, _ := s.state.Expense(id)
	snap, removed := s.state.RemoveExpense(id)
	if !removed {
		return false, snap
	}

	s.metrics.removed.Inc()
	s.metrics.observe(snap)
	s.log.Debug().Str("id", id).Str("name", exp.Name).Msg("expense removed")

	s.publishEvent(Event{Type: EventExpenseRemoved, Snapshot: snap, Expense: &exp})
	s.publishStatusChange(before, snap)
	return true, snap
}

var errExhausted = errors.New("session: budget exhausted")

func (s *Service) publishStatusChange(before budget.Status, snap budget.Snapshot) {
	if before == snap.Status {
		return
	}
	from := before
	s.log.Info().Stringer("from", before).Stringer("to", snap.Status).Msg("budget status changed")
	s.publishEvent(Event{Type: EventStatusChanged, Snapshot: snap, From: &from})
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.metrics.dropped.Inc()
		}
	}
	s.mu.Unlock()
}

func (s *Service) status() Status {
	snap := s.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		Currency:        s.cfg.Currency,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
		Snapshot:        snap,
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleBudget(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (s *Service) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, KindBadRequest, "malformed request body")
		return
	}

	exp, snap, err := s.AddExpense(req.Name, rawAmount(req.Amount))
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, AddResponse{Expense: exp, Snapshot: snap})
	case errors.Is(err, errExhausted):
		writeError(w, http.StatusConflict, KindExhausted, cli.MsgExhausted)
	case errors.Is(err, budget.ErrDuplicateID):
		writeError(w, http.StatusConflict, KindDuplicateID, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, errorKind(err), cli.Message(err))
	}
}

func (s *Service) handleRemove(w http.ResponseWriter, r *http.Request) {
	removed, snap := s.RemoveExpense(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, RemoveResponse{Removed: removed, Snapshot: snap})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleChart(w http.ResponseWriter, _ *http.Request) {
	png, err := report.PieChart(s.Snapshot(), s.cfg.Currency)
	if errors.Is(err, report.ErrNoExpenses) {
		writeError(w, http.StatusNotFound, KindNotFound, "no expenses to chart")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("chart render failed")
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, s.currentEvent())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Service) currentEvent() Event {
	return Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.Snapshot(),
	}
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.metrics.subscribers.Set(float64(len(s.subs)))
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	s.metrics.subscribers.Set(float64(len(s.subs)))
}

// rawAmount accepts either a JSON number or a JSON string.
func rawAmount(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return strings.TrimSpace(string(raw))
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, budget.ErrInvalidExpenseName):
		return KindInvalidName
	case errors.Is(err, budget.ErrInvalidExpenseAmount):
		return KindInvalidAmount
	case errors.Is(err, budget.ErrDuplicateID):
		return KindDuplicateID
	default:
		return KindBadRequest
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, APIError{Error: msg, Kind: kind})
}
