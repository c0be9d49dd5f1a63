// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler must return an error (required by Zeebe client)
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// JobRecorder receives one outcome per handled job, in addition to the
// prometheus worker collectors.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

// WorkerOptions are the per-task polling settings.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Recorder      JobRecorder
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The caller owns the zbc.Client
// and closes it after all workers are stopped.
func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	cmd := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, opts.Recorder, log)).
		MaxJobsActive(opts.MaxJobsActive)
	if opts.Timeout > 0 {
		cmd = cmd.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		worker:   cmd.Open(),
		logger:   log,
		taskType: taskType,
	}
}

// instrument adapts handler to the zeebe callback. Failed jobs are counted
// under the StandardError code the handler returned.
func instrument(taskType string, handler JobHandler, rec JobRecorder, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		start := time.Now()
		err := handler.Handle(client, job)
		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		status := "completed"
		if err != nil {
			status = "failed"
			code := apperrors.AsStandardError(err).Code
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(code)).Inc()
			log.Error("Handler returned error", map[string]interface{}{
				"jobKey": job.Key,
				"code":   string(code),
				"error":  err.Error(),
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		if rec != nil {
			ctx := context.Background()
			rec.RecordJobProcessed(ctx, status)
			rec.RecordJobDuration(ctx, elapsed, status)
		}
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker and waits for in-flight jobs to finish.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
