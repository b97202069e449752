package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radiocalico_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radiocalico_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "radiocalico_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "radiocalico_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the per-IP rate limiter",
		},
	)

	// Rating metrics
	VotesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radiocalico_votes_submitted_total",
			Help: "Total number of accepted rating submissions",
		},
		[]string{"rating"},
	)

	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radiocalico_db_query_duration_seconds",
			Help:    "Duration of SQLite operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radiocalico_db_query_errors_total",
			Help: "Total number of failed SQLite operations",
		},
		[]string{"operation", "error_type"},
	)

	DBBusyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "radiocalico_db_busy_retries_total",
			Help: "Total number of retries after SQLITE_BUSY",
		},
	)
)

// RecordDBQuery records a store operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, classifyError(err)).Inc()
	}
}

// RecordBusyRetry counts one SQLITE_BUSY backoff.
func RecordBusyRetry() {
	DBBusyRetries.Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordVote counts an accepted rating by value ("up" or "down").
func RecordVote(rating string) {
	VotesSubmitted.WithLabelValues(strings.ToLower(rating)).Inc()
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit() {
	APIRateLimitHits.Inc()
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// Middleware records request count, latency, and status per route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		TrackActiveRequest(true)
		defer TrackActiveRequest(false)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordAPIRequest(r.Method, routePattern(r), strconv.Itoa(status), time.Since(start))
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "sqlite_busy"), strings.Contains(msg, "database is locked"):
		return "busy"
	case strings.Contains(msg, "constraint"):
		return "constraint"
	default:
		return "other"
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
