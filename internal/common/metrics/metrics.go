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

	UnderwritingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_runs_total",
			Help: "Total number of underwriting runs by outcome",
		},
		[]string{"outcome"},
	)

	ProgramsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_programs_evaluated_total",
			Help: "Total number of lender programs evaluated by match status",
		},
		[]string{"status"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "underwriting_evaluation_duration_seconds",
			Help:    "Duration of a full catalog evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_catalog_cache_requests_total",
			Help: "Lender catalog cache requests by result (hit or miss)",
		},
		[]string{"result"},
	)
)
