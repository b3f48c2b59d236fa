package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts finished queries.
	// Labels: outcome (ok, not_found, pattern, argument, index, busy, ...)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "total",
		Help:      "Total queries by outcome",
	}, []string{"outcome"})

	// queryDuration measures wall time from slot acquisition to result.
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "Query latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"outcome"})

	// resultLines tracks how many lines successful queries return.
	resultLines = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "result_lines",
		Help:      "Number of lines returned by successful queries",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	// operatorUse counts how often each operator is applied.
	operatorUse = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "operator_total",
		Help:      "Operators applied, by name",
	}, []string{"operator"})

	// queriesInFlight tracks queries holding a limiter slot.
	queriesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "in_flight",
		Help:      "Queries currently reading files",
	})

	// queriesQueued tracks queries waiting for a limiter slot.
	queriesQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "queued",
		Help:      "Queries waiting for a free slot",
	})

	// queueWait measures time spent waiting for a limiter slot.
	// Labels: outcome (acquired, busy, cancelled)
	queueWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "linequery",
		Subsystem: "query",
		Name:      "queue_wait_seconds",
		Help:      "Time spent waiting for a query slot",
		Buckets:   []float64{0, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
	}, []string{"outcome"})
)
