package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/bgrules/pkg/engine"
)

// Metrics holds the server's Prometheus collectors. Each server gets its
// own registry so tests can run several servers side by side.
type Metrics struct {
	registry *prometheus.Registry

	moves    *prometheus.CounterVec
	rolls    prometheus.Counter
	history  *prometheus.CounterVec
	sessions prometheus.Gauge
	requests *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bgrules_moves_total",
				Help: "Move intents by outcome (ok or the rejection code).",
			},
			[]string{"result"},
		),
		rolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bgrules_rolls_total",
			Help: "Dice rolls performed.",
		}),
		history: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bgrules_history_total",
				Help: "Successful undo and redo requests.",
			},
			[]string{"op"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bgrules_sessions_active",
			Help: "Games currently held in memory.",
		}),
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bgrules_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(m.moves, m.rolls, m.history, m.sessions, m.requests)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeMove(err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrIllegalMove):
		result = engine.ReasonOf(err).Code()
	case errors.Is(err, engine.ErrInvariant):
		result = "INVARIANT"
	default:
		result = "INVALID_STATE"
	}
	m.moves.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRoll() {
	if m != nil {
		m.rolls.Inc()
	}
}

func (m *Metrics) observeHistory(op string) {
	if m != nil {
		m.history.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) setSessions(n int) {
	if m != nil {
		m.sessions.Set(float64(n))
	}
}

func (m *Metrics) observeRequest(route string, d time.Duration) {
	if m != nil {
		m.requests.WithLabelValues(route).Observe(d.Seconds())
	}
}
