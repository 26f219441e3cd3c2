package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alive5_connector",
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of HTTP requests to the Alive5 API.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"}, // fetch_directory, send_sms, test_credentials
	)

	providerRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alive5_connector",
			Name:      "provider_requests_total",
			Help:      "Total HTTP requests to the Alive5 API by outcome.",
		},
		[]string{"operation", "outcome"}, // outcome: ok, transport_error, http_error, decode_error
	)
)
