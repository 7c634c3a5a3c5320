package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

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

	authEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permitdesk_auth_events_total",
			Help: "Registrations, logins and access denials by outcome.",
		},
		[]string{"event", "outcome"},
	)

	permitOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permitdesk_permit_operations_total",
			Help: "Permit application operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "permitdesk_ready",
		Help: "1 when the store answered the last readiness probe.",
	})
)

// Init registers metrics in the default registry. Safe to call repeatedly.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
			authEventsTotal, permitOpsTotal, readyGauge)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuth counts an authentication event such as "login" or "access".
func RecordAuth(event, outcome string) {
	authEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordPermitOp counts a permit application operation.
func RecordPermitOp(op, outcome string) {
	permitOpsTotal.WithLabelValues(op, outcome).Inc()
}

// SetReady publishes the last readiness result.
func SetReady(ok bool) {
	if ok {
		readyGauge.Set(1)
		return
	}
	readyGauge.Set(0)
}

// Instrument records request count, latency and in-flight gauge.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// CanonicalPath folds record ids into a template so the path label stays
// bounded. Unknown paths collapse to "other".
func CanonicalPath(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return "/"
	}
	switch raw {
	case "/healthz", "/readyz", "/metrics",
		"/auth/register", "/auth/login", "/auth/profile",
		"/permit-applications":
		return raw
	}
	parts := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	if parts[0] == "permit-applications" {
		switch {
		case len(parts) == 2:
			return "/permit-applications/{id}"
		case len(parts) == 3 && parts[2] == "status":
			return "/permit-applications/{id}/status"
		}
	}
	return "other"
}

type statusWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.code = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
