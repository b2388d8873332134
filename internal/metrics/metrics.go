// Package metrics holds the prometheus collectors of the rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CallsRated counts rated calls by the charge rule that priced them.
var CallsRated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcharge",
	Subsystem: "rating",
	Name:      "calls_rated_total",
	Help:      "Total calls rated, by charge rule.",
}, []string{"rule"})

// CallsRejected counts records that could not be rated, by error type.
var CallsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcharge",
	Subsystem: "rating",
	Name:      "calls_rejected_total",
	Help:      "Total records rejected while rating, by error type.",
}, []string{"type"})

// NumberTypes counts classified calls by number type family.
var NumberTypes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcharge",
	Subsystem: "rating",
	Name:      "number_types_total",
	Help:      "Total classified calls, by number type family.",
}, []string{"family"})

// BatchDuration observes the wall time of a batch run.
var BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "callcharge",
	Subsystem: "rating",
	Name:      "batch_duration_seconds",
	Help:      "Wall time of a batch rating run.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
})

// BatchSize observes the number of records per batch.
var BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "callcharge",
	Subsystem: "rating",
	Name:      "batch_records",
	Help:      "Records submitted per batch rating run.",
	Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
})

// HTTPRequests counts API requests by route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcharge",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total API requests, by route and status code.",
}, []string{"route", "code"})
