package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "taskrank"

type Metrics struct {
	Requests        *prometheus.CounterVec
	ScoringDuration *prometheus.HistogramVec
	TasksScored     *prometheus.CounterVec
	Warnings        prometheus.Counter
	Cycles          prometheus.Counter
}

// NewMetrics registers the scoring collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "API requests by endpoint and response status.",
		}, []string{"endpoint", "status"}),
		ScoringDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scoring_duration_seconds",
			Help:      "Time spent scoring one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"endpoint"}),
		TasksScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tasks_scored_total",
			Help:      "Tasks scored, by strategy.",
		}, []string{"strategy"}),
		Warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "warnings_total",
			Help:      "Batch-level warnings emitted.",
		}),
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cycles_detected_total",
			Help:      "Batches in which a circular dependency was found.",
		}),
	}
}
