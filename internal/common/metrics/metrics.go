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

	// QueryFallbacks counts synthesized queries replaced by the pass-through
	// query, by reason (synthesis_error, empty, not_select, banned_keyword, parse).
	QueryFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_query_fallbacks_total",
			Help: "Synthesized queries replaced by the pass-through query",
		},
		[]string{"reason"},
	)

	// RetrievalAttempts counts store executions by attempt (first, fallback) and outcome.
	RetrievalAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_retrieval_attempts_total",
			Help: "Document store query executions",
		},
		[]string{"attempt", "outcome"},
	)

	PayloadTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyst_payload_truncations_total",
			Help: "Result sets projected onto critical fields because they exceeded the cap",
		},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_llm_calls_total",
			Help: "Generative model calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_llm_call_duration_seconds",
			Help:    "Generative model call latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	LLMPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_llm_prompt_tokens",
			Help:    "Estimated prompt tokens per model call",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"provider"},
	)
)
