// Package server exposes the Fibonacci device over HTTP: F(n) through the
// read methods, fixed-width timings, the method lists, health and
// Prometheus metrics.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the server metrics in Prometheus format. Device level
// metrics are registered by the device package.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fibdrv_http_active_requests",
		Help: "Current number of requests being served.",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fibdrv_http_requests_total",
		Help: "Requests served, by route and status code.",
	}, []string{"route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fibdrv_http_request_duration_seconds",
		Help:    "Request latency by route.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"route"})
)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// WritePrometheus writes the metrics in Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// metricsMiddleware tracks active requests, the status codes and the
// latency of route.
func (s *Server) metricsMiddleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(rec, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		totalRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
