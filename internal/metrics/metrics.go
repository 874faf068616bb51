// Package metrics exposes engine counters on a private prometheus registry.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one engine instance.
type Metrics struct {
	registry *prometheus.Registry

	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	sends           *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	pending         prometheus.Gauge
	staleDiscarded  *prometheus.CounterVec
	listRefreshes   *prometheus.CounterVec
	readAckFailures prometheus.Counter
}

// New creates the collectors and registers them, plus the Go runtime
// collector, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatr_gateway_requests_total",
				Help: "Total number of backend API requests.",
			},
			[]string{"route", "status"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatr_gateway_request_duration_seconds",
				Help:    "Backend API request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatr_sends_total",
				Help: "Total number of message submissions by outcome.",
			},
			[]string{"outcome"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatr_uploads_total",
				Help: "Total number of attachment uploads by outcome.",
			},
			[]string{"outcome"},
		),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatr_pending_messages",
			Help: "Number of messages awaiting server confirmation.",
		}),
		staleDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatr_stale_responses_total",
				Help: "Total number of responses discarded because their tag was superseded.",
			},
			[]string{"kind"},
		),
		listRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatr_list_refreshes_total",
				Help: "Total number of conversation list refreshes by outcome.",
			},
			[]string{"outcome"},
		),
		readAckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatr_read_ack_failures_total",
			Help: "Total number of failed read acknowledgements.",
		}),
	}
	m.registry.MustRegister(
		m.gatewayRequests,
		m.gatewayDuration,
		m.sends,
		m.uploads,
		m.pending,
		m.staleDiscarded,
		m.listRefreshes,
		m.readAckFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest matches gateway.Observer.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.gatewayRequests.WithLabelValues(route, code).Inc()
	m.gatewayDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SendStarted counts a message entering the pending state.
func (m *Metrics) SendStarted() {
	if m == nil {
		return
	}
	m.pending.Inc()
}

// SendFinished counts a pending message leaving the pending state.
func (m *Metrics) SendFinished(confirmed bool) {
	if m == nil {
		return
	}
	m.pending.Dec()
	m.sends.WithLabelValues(outcome(confirmed)).Inc()
}

// UploadFinished counts an attachment upload.
func (m *Metrics) UploadFinished(ok bool) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome(ok)).Inc()
}

// StaleDiscarded counts a response dropped by a tag check. kind is
// "messages" or "search".
func (m *Metrics) StaleDiscarded(kind string) {
	if m == nil {
		return
	}
	m.staleDiscarded.WithLabelValues(kind).Inc()
}

// ListRefreshed counts a completed conversation list refresh.
func (m *Metrics) ListRefreshed(ok bool) {
	if m == nil {
		return
	}
	m.listRefreshes.WithLabelValues(outcome(ok)).Inc()
}

// ReadAckFailed counts a failed read acknowledgement.
func (m *Metrics) ReadAckFailed() {
	if m == nil {
		return
	}
	m.readAckFailures.Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
