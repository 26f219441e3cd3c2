package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optionRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alive5_connector",
			Name:      "option_requests_total",
			Help:      "Total dropdown-population requests.",
		},
		[]string{"callback", "source"}, // source: cache, remote, none, error
	)

	itemsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alive5_connector",
			Name:      "items_processed_total",
			Help:      "Total execution items processed by outcome.",
		},
		[]string{"status", "error_kind"},
	)

	executionDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alive5_connector",
			Name:      "execution_duration_seconds",
			Help:      "Duration of a full execution batch.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"}, // completed, aborted
	)

	natsJobsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alive5_connector",
			Name:      "nats_jobs_received_total",
			Help:      "Total NATS execute jobs received.",
		},
		[]string{"subject"},
	)
)
