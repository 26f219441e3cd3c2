package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hostRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alive5_connector",
			Name:      "host_http_requests_total",
			Help:      "Total number of host API requests.",
		},
		[]string{"method", "route", "status_code"},
	)

	hostRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alive5_connector",
			Name:      "host_http_request_duration_seconds",
			Help:      "Duration of host API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// MetricsMiddleware records request counts and latency labelled by chi route pattern,
// so node IDs in the path do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		hostRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		hostRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
