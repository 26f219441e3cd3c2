package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/api/v1/nodes/{nodeID}/options/channels", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	const route = "/api/v1/nodes/{nodeID}/options/channels"
	before := testutil.ToFloat64(hostRequestsTotal.WithLabelValues(http.MethodGet, route, "502"))

	for _, node := range []string{"node-a", "node-b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes/"+node+"/options/channels", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(hostRequestsTotal.WithLabelValues(http.MethodGet, route, "502"))
	assert.Equal(t, float64(2), after-before)
}

func TestMetricsMiddleware_DefaultsStatusToOK(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := testutil.ToFloat64(hostRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	after := testutil.ToFloat64(hostRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "200"))

	assert.Equal(t, float64(1), after-before)
}
