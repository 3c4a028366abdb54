package session

import (
	"github.com/theirongolddev/tally/internal/budget"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors for one service. Each service has
// its own registry so several can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	added       prometheus.Counter
	removed     prometheus.Counter
	rejected    *prometheus.CounterVec
	dropped     prometheus.Counter
	subscribers prometheus.Gauge

	total     prometheus.Gauge
	remaining prometheus.Gauge
	spent     prometheus.Gauge
	status    prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		added: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_expenses_added_total",
			Help: "Expenses recorded",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_expenses_removed_total",
			Help: "Expenses removed",
		}),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_expenses_rejected_total",
				Help: "Expense submissions rejected by validation",
			},
			[]string{"kind"},
		),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tally_events_dropped_total",
			Help: "Events not delivered to a slow subscriber",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_stream_subscribers",
			Help: "Connected SSE and WebSocket subscribers",
		}),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_budget_total",
			Help: "Budget total",
		}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_budget_remaining",
			Help: "Budget remaining",
		}),
		spent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_budget_spent",
			Help: "Sum of recorded expenses",
		}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_budget_status",
			Help: "Budget status (0=healthy, 1=warning, 2=critical, 3=exhausted)",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.added,
		m.removed,
		m.rejected,
		m.dropped,
		m.subscribers,
		m.total,
		m.remaining,
		m.spent,
		m.status,
	)
	return m
}

func (m *metrics) observe(snap budget.Snapshot) {
	m.total.Set(snap.Total)
	m.remaining.Set(snap.Remaining)
	m.spent.Set(snap.Spent)
	m.status.Set(float64(snap.Status))
}
