// Package metrics owns the Prometheus registry for a curatr process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "curatr"

// Metrics groups the collectors curatr records into.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	saves             prometheus.Counter
	removals          prometheus.Counter
	refreshes         prometheus.Counter
	recipientDeletes  prometheus.Counter
	recommendSessions prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memorybox_saves_total",
			Help:      "Items saved to the Memory Box.",
		}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memorybox_removals_total",
			Help:      "Memory Box entries removed.",
		}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memorybox_price_refreshes_total",
			Help:      "Memory Box price refreshes.",
		}),
		recipientDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipient_deletions_total",
			Help:      "Recipients deleted.",
		}),
		recommendSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_sessions_total",
			Help:      "Decorated recommendation sessions served.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.saves, m.removals, m.refreshes, m.recipientDeletes, m.recommendSessions,
	)
	return m
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Recorder methods are nil-safe so ops can run without metrics.

// Saved counts one Memory Box save.
func (m *Metrics) Saved() {
	if m != nil {
		m.saves.Inc()
	}
}

// Removed counts n removed Memory Box entries.
func (m *Metrics) Removed(n int) {
	if m != nil && n > 0 {
		m.removals.Add(float64(n))
	}
}

// Refreshed counts n price refreshes.
func (m *Metrics) Refreshed(n int) {
	if m != nil && n > 0 {
		m.refreshes.Add(float64(n))
	}
}

// RecipientDeleted counts one recipient deletion.
func (m *Metrics) RecipientDeleted() {
	if m != nil {
		m.recipientDeletes.Inc()
	}
}

// RecommendationSession counts one decorated recommendation session.
func (m *Metrics) RecommendationSession() {
	if m != nil {
		m.recommendSessions.Inc()
	}
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware records every request passing through next. The route label is
// the matched ServeMux pattern, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.ObserveHTTP(r.Pattern, r.Method, sw.status, time.Since(start))
	})
}
