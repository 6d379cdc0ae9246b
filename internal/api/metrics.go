package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport_error"
	outcomeRejected  = "rejected"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spinlog_client",
			Name:      "api_requests_total",
			Help:      "REST calls issued to the backend, by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spinlog_client",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of REST calls to the backend.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)
