// Package metrics provides Prometheus metrics for the speedgun server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "speedgun"
	subsystem = "server"
)

// Manager manages all Prometheus metrics for the speedgun service.
// A custom registry keeps the scrape output limited to our own series.
type Manager struct {
	registry *prometheus.Registry

	// Business metrics
	readingsSubmitted prometheus.Counter
	readingsIgnored   prometheus.Counter
	recordsDeleted    prometheus.Counter
	undosPerformed    prometheus.Counter
	undosExpired      prometheus.Counter
	sharesCreated     prometheus.Counter
	shareViews        prometheus.Counter

	// Operational metrics
	sseClients          prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager with all series registered.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Manager{registry: registry}

	m.readingsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "readings_submitted_total",
		Help:      "Total number of speed readings accepted",
	})

	m.readingsIgnored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "readings_ignored_total",
		Help:      "Total number of readings not stored because a faster one existed for the date",
	})

	m.recordsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_deleted_total",
		Help:      "Total number of date-records deleted",
	})

	m.undosPerformed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "undos_performed_total",
		Help:      "Total number of deletions undone within the window",
	})

	m.undosExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "undos_expired_total",
		Help:      "Total number of undo windows that lapsed unused",
	})

	m.sharesCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "shares_created_total",
		Help:      "Total number of public share snapshots created",
	})

	m.shareViews = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "share_views_total",
		Help:      "Total number of public share resolutions",
	})

	m.sseClients = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sse_clients",
		Help:      "Current number of connected SSE clients",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	return m
}

// ReadingSubmitted records an accepted reading.
func (m *Manager) ReadingSubmitted() { m.readingsSubmitted.Inc() }

// ReadingIgnored records a reading superseded by an existing faster one.
func (m *Manager) ReadingIgnored() { m.readingsIgnored.Inc() }

// RecordDeleted records a date-record deletion.
func (m *Manager) RecordDeleted() { m.recordsDeleted.Inc() }

// UndoPerformed records a successful undo.
func (m *Manager) UndoPerformed() { m.undosPerformed.Inc() }

// UndoExpired records an undo window lapsing unused.
func (m *Manager) UndoExpired() { m.undosExpired.Inc() }

// ShareCreated records a share snapshot creation.
func (m *Manager) ShareCreated() { m.sharesCreated.Inc() }

// ShareViewed records a public share resolution.
func (m *Manager) ShareViewed() { m.shareViews.Inc() }

// SetSSEClients updates the connected client gauge.
func (m *Manager) SetSSEClients(n int) { m.sseClients.Set(float64(n)) }

// RecordHTTPRequest records one completed HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, code).Observe(duration.Seconds())
}

// Handler returns the scrape endpoint handler for the custom registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
