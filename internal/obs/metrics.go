// Package obs registers the Prometheus metrics exported by the booking API
// and wraps HTTP handlers with request instrumentation.
package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	bookingDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_decisions_total",
			Help: "Booking creation outcomes by decision.",
		},
		[]string{"decision"},
	)
)

// Init registers the metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, bookingDecisionsTotal)
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CountBookingDecision records a booking creation outcome, e.g. "created",
// "rejected" or "conflict".
func CountBookingDecision(decision string) {
	bookingDecisionsTotal.WithLabelValues(decision).Inc()
}

// Instrument wraps a handler with in-flight, count and latency metrics keyed
// by the canonicalized request path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// Resource sub-paths that carry an identifier in the second segment.
var idSubResources = map[string]map[string]bool{
	"rooms":    {"": true, "devices": true, "feedback": true, "highlighted-dates": true, "bookings": true},
	"bookings": {"": true, "check-in": true, "check-out": true},
	"users":    {"": true},
	"devices":  {"": true},
}

// CanonicalPath collapses resource identifiers to :id so metric label
// cardinality stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return "/" + trimmed
	}

	subResources, ok := idSubResources[parts[0]]
	if !ok {
		return "/" + trimmed
	}
	tail := ""
	if len(parts) == 3 {
		tail = parts[2]
	}
	if !subResources[tail] {
		return "/" + trimmed
	}

	parts[1] = ":id"
	return "/" + strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
