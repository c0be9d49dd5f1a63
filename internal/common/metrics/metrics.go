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
)

var (
	EligibilityEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_eligibility_evaluations_total",
			Help: "Eligibility evaluations by outcome",
		},
		[]string{"eligible"},
	)

	CriterionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_criterion_failures_total",
			Help: "Failed criterion verdicts by criterion name",
		},
		[]string{"criterion"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_predictions_total",
			Help: "Prediction attempts by status (available, unavailable, not_applicable, error)",
		},
		[]string{"status"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_prediction_duration_seconds",
			Help:    "Duration of feature extraction plus inference",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_training_runs_total",
			Help: "Training runs by result (succeeded, failed, rejected)",
		},
		[]string{"result"},
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "engine_training_duration_seconds",
			Help:    "Wall-clock duration of training runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	TrainingFinalLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_training_final_loss",
			Help: "Final loss of the last successful training run",
		},
	)

	ActiveModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_active_model_version",
			Help: "Version of the model currently served (0 when none)",
		},
	)
)
