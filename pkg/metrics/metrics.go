// Package metrics defines the Prometheus collectors AutoScorer exposes,
// grounded on the teacher's pervasive use of prometheus/client_golang across
// Lens modules and exporters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoscorer",
		Name:      "jobs_total",
		Help:      "Total pipeline runs by executor kind and outcome.",
	}, []string{"executor", "outcome"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "autoscorer",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of a full validate->run->score pipeline.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"executor"})

	TaskQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "autoscorer",
		Name:      "task_queue_depth",
		Help:      "Number of in-flight tasks tracked by the async task adapter.",
	})

	CircuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoscorer",
		Name:      "circuit_breaker_trips_total",
		Help:      "Number of times a circuit breaker opened, by executor kind and image registry.",
	}, []string{"executor", "registry"})

	ScorerReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "autoscorer",
		Name:      "scorer_reloads_total",
		Help:      "Scorer registry hot-reload attempts, by outcome.",
	}, []string{"outcome"})
)
