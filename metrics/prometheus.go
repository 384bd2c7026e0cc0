// Package metrics exposes Prometheus metrics for the matchups service. All
// recording methods are safe to call on a nil *Manager, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	matchupsGenerated *prometheus.CounterVec
	shortfall         prometheus.Histogram
	resultsRecorded   prometheus.Counter
	participantsAdded *prometheus.CounterVec
	wheelSpins        *prometheus.CounterVec
	emails            *prometheus.CounterVec
	remindersSent     *prometheus.CounterVec
	websocketClients  prometheus.Gauge
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchups",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern and method.",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})

	m.matchupsGenerated = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "generations_total",
		Help:      "Matchup generations by pairing strategy.",
	}, []string{"strategy"})

	m.shortfall = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "generation_shortfall_participants",
		Help:      "Participants left with fewer than three opponents per generation.",
		Buckets:   []float64{0, 1, 2, 4, 8},
	})

	m.resultsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "results_recorded_total",
		Help:      "Match results recorded.",
	})

	m.participantsAdded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "participants_joined_total",
		Help:      "Participants joined, split by whether matchups already existed.",
	}, []string{"phase"})

	m.wheelSpins = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "wheel_spins_total",
		Help:      "Winner wheel spins by scope.",
	}, []string{"scope"})

	m.emails = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "emails_total",
		Help:      "Outgoing emails by kind and outcome.",
	}, []string{"kind", "outcome"})

	m.remindersSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "reminders_total",
		Help:      "Tournament start reminders dispatched by kind.",
	}, []string{"kind"})

	m.websocketClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "websocket_clients",
		Help:      "Connected realtime subscribers.",
	})
}

// Registry returns the registry the metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Manager) RecordGeneration(strategy string, shortfall int) {
	if m == nil {
		return
	}
	m.matchupsGenerated.WithLabelValues(strategy).Inc()
	m.shortfall.Observe(float64(shortfall))
}

func (m *Manager) RecordResult() {
	if m == nil {
		return
	}
	m.resultsRecorded.Inc()
}

// RecordJoin counts a participant joining; late is true when matchups were
// already generated.
func (m *Manager) RecordJoin(late bool) {
	if m == nil {
		return
	}
	phase := "registration"
	if late {
		phase = "late"
	}
	m.participantsAdded.WithLabelValues(phase).Inc()
}

// Wheel spin scopes.
const (
	SpinScopeAll      = "all"
	SpinScopeTieGroup = "tie_group"
	SpinScopeNames    = "names"
)

func (m *Manager) RecordSpin(scope string) {
	if m == nil {
		return
	}
	m.wheelSpins.WithLabelValues(scope).Inc()
}

func (m *Manager) RecordEmail(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.emails.WithLabelValues(kind, outcome).Inc()
}

func (m *Manager) RecordReminder(kind string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(kind).Inc()
}

// SetWebsocketClients matches the realtime hub's client gauge callback.
func (m *Manager) SetWebsocketClients(n int) {
	if m == nil {
		return
	}
	m.websocketClients.Set(float64(n))
}
