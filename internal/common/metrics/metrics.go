// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests by intent type",
		},
		[]string{"intent_type"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_provider_calls_total",
			Help: "Retrieval calls per platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retrieval_provider_duration_seconds",
			Help:    "Retrieval call duration per platform",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"platform"},
	)

	RetrievalCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrieval_cache_requests_total",
			Help: "Retrieval cache lookups by platform and result (hit, miss, error)",
		},
		[]string{"platform", "result"},
	)

	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_degradations_total",
			Help: "Fail-open events per pipeline stage",
		},
		[]string{"stage"},
	)

	ListingsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suitability_listings_rejected_total",
			Help: "Listings removed by the suitability filter, by rule",
		},
		[]string{"rule"},
	)
)
