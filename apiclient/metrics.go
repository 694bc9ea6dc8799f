package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "console",
		Name:      "api_calls_total",
		Help:      "Calls made to the request-tracking API by operation and outcome.",
	}, []string{"op", "outcome"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "console",
		Name:      "api_call_duration_seconds",
		Help:      "Latency of calls to the request-tracking API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func observe(op, outcome string, start time.Time) {
	apiCalls.WithLabelValues(op, outcome).Inc()
	apiDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
