package camunda

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type stubHandler struct {
	err error
}

func (h stubHandler) Handle(worker.JobClient, entities.Job) error {
	return h.err
}

type recorded struct {
	status   string
	duration time.Duration
}

type recordingRecorder struct {
	mu        sync.Mutex
	processed []string
	durations []recorded
}

func (r *recordingRecorder) RecordJobProcessed(_ context.Context, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, status)
}

func (r *recordingRecorder) RecordJobDuration(_ context.Context, d time.Duration, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, recorded{status: status, duration: d})
}

func TestInstrument_Completed(t *testing.T) {
	const taskType = "test-instrument-completed"
	rec := &recordingRecorder{}

	instrument(taskType, stubHandler{}, rec, logger.NewNoOpLogger())(nil, entities.Job{})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, []string{"completed"}, rec.processed)
	if assert.Len(t, rec.durations, 1) {
		assert.Equal(t, "completed", rec.durations[0].status)
	}
}

func TestInstrument_FailedCountsByCode(t *testing.T) {
	const taskType = "test-instrument-failed"
	rec := &recordingRecorder{}
	run := func(err error) {
		instrument(taskType, stubHandler{err: err}, rec, logger.NewNoOpLogger())(nil, entities.Job{})
	}

	run(errors.NewTrainingInProgressError("run-1"))
	run(stderrors.New("socket closed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.ErrCodeTrainingInProgress))))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.WorkerJobsFailed.WithLabelValues(taskType, string(errors.ErrCodeInternal))))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, []string{"failed", "failed"}, rec.processed)
}

func TestInstrument_NilRecorder(t *testing.T) {
	const taskType = "test-instrument-no-recorder"
	assert.NotPanics(t, func() {
		instrument(taskType, stubHandler{}, nil, logger.NewNoOpLogger())(nil, entities.Job{})
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
}
