// Package training runs success-model retraining as an out-of-band job with
// at most one run in flight.
package training

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"scholarship-engine/internal/common/config"
	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/common/metrics"
	"scholarship-engine/internal/common/observability"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/engine/trainer"
	"scholarship-engine/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// EventModelActivated is published after a new model goes live.
const EventModelActivated = "model.activated"

// ModelStore is the serving store.
type ModelStore interface {
	Current() (*models.Model, bool)
	Activate(m *models.Model) (*models.Model, error)
}

// ModelRepository persists model versions.
type ModelRepository interface {
	Save(ctx context.Context, m *models.Model) error
	Activate(ctx context.Context, version int) error
	LatestVersion(ctx context.Context) (int, error)
}

type ActivationPublisher interface {
	PublishActivated(ctx context.Context, version int) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload interface{}) (string, error)
}

// Publishers sends every event to each publisher in turn. One failing
// publisher does not stop the rest; the returned ID is the last one obtained.
type Publishers []EventPublisher

func (p Publishers) PublishEvent(ctx context.Context, eventType string, payload interface{}) (string, error) {
	var id string
	var errs []error
	for _, pub := range p {
		got, err := pub.PublishEvent(ctx, eventType, payload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		id = got
	}
	return id, errors.Join(errs...)
}

type RunIndex interface {
	IndexRun(ctx context.Context, run *models.TrainingRun) error
}

// Dependencies wires the runner. Store is required; the rest may be nil.
type Dependencies struct {
	Store    ModelStore
	Outcomes OutcomeSource
	Models   ModelRepository
	Sync     ActivationPublisher
	Events   EventPublisher
	Reports  RunIndex
}

// Request describes one retraining. Inline Examples win over PullLatest.
type Request struct {
	Examples      []models.TrainingExample `json:"examples,omitempty"`
	FeatureNames  []string                 `json:"featureNames,omitempty"`
	PullLatest    bool                     `json:"pullLatest,omitempty"`
	ScholarshipID string                   `json:"scholarshipId,omitempty"`
	Options       *trainer.Options         `json:"options,omitempty"`
	Trigger       string                   `json:"trigger,omitempty"`
}

// Result is returned to the caller of a finished run.
type Result struct {
	RunID        string                 `json:"runId"`
	ModelVersion int                    `json:"modelVersion"`
	Activated    bool                   `json:"activated"`
	Examples     int                    `json:"examples"`
	Metrics      models.TrainingMetrics `json:"metrics"`
}

type Runner struct {
	deps      Dependencies
	defaults  trainer.Options
	timeout   time.Duration
	retention int
	logger    logger.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	runs map[string]*models.TrainingRun
}

// OptionsFromConfig converts the training section into trainer options.
func OptionsFromConfig(cfg config.TrainingConfig) trainer.Options {
	return trainer.Options{
		LearningRate:  cfg.LearningRate,
		L2Penalty:     cfg.L2Penalty,
		MaxIterations: cfg.MaxIterations,
		Tolerance:     cfg.Tolerance,
		Seed:          cfg.Seed,
		InitScale:     cfg.InitScale,
		WarmStart:     cfg.WarmStart,
	}
}

func NewRunner(cfg config.TrainingConfig, deps Dependencies, log logger.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	retention := cfg.RunRetention
	if retention <= 0 {
		retention = 50
	}
	return &Runner{
		deps:      deps,
		defaults:  OptionsFromConfig(cfg),
		timeout:   config.GetDuration(cfg.Timeout),
		retention: retention,
		logger:    log.WithFields(map[string]interface{}{"component": "training"}),
		baseCtx:   ctx,
		cancel:    cancel,
		runs:      make(map[string]*models.TrainingRun),
	}
}

// Defaults returns the configured trainer options.
func (r *Runner) Defaults() trainer.Options {
	return r.defaults
}

// Busy reports whether a run is in flight.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Run trains synchronously. A second caller while a run is active gets
// TRAINING_IN_PROGRESS instead of waiting.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	run, err := r.acquire(req)
	if err != nil {
		return nil, err
	}
	defer r.busy.Store(false)
	return r.execute(ctx, run, req)
}

// Start trains in the background and returns the run ID immediately.
func (r *Runner) Start(req Request) (string, error) {
	run, err := r.acquire(req)
	if err != nil {
		return "", err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		if _, err := r.execute(r.baseCtx, run, req); err != nil {
			r.logger.Warn("background training failed", map[string]interface{}{"runId": run.ID, "error": err.Error()})
		}
	}()
	return run.ID, nil
}

// Get returns a copy of the run record.
func (r *Runner) Get(runID string) (*models.TrainingRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, apperrors.NewTrainingRunNotFoundError(runID)
	}
	cp := *run
	return &cp, nil
}

// Shutdown cancels background runs and waits for them to exit.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) acquire(req Request) (*models.TrainingRun, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, apperrors.NewTrainingInProgressError(r.activeRunID())
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = "manual"
	}
	run := &models.TrainingRun{
		ID:        uuid.NewString(),
		Status:    models.TrainingRunning,
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	r.record(run)
	return run, nil
}

func (r *Runner) activeRunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, run := range r.runs {
		if run.Status == models.TrainingRunning {
			return id
		}
	}
	return ""
}

// record stores run and drops the oldest finished runs beyond retention.
func (r *Runner) record(run *models.TrainingRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	if len(r.runs) <= r.retention {
		return
	}
	finished := make([]*models.TrainingRun, 0, len(r.runs))
	for _, existing := range r.runs {
		if existing.Status != models.TrainingRunning {
			finished = append(finished, existing)
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].StartedAt.Before(finished[j].StartedAt) })
	for _, old := range finished {
		if len(r.runs) <= r.retention {
			break
		}
		delete(r.runs, old.ID)
	}
}

func (r *Runner) update(runID string, fn func(run *models.TrainingRun)) models.TrainingRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.runs[runID]
	fn(run)
	return *run
}

func (r *Runner) execute(ctx context.Context, run *models.TrainingRun, req Request) (_ *Result, err error) {
	start := time.Now()
	log := r.logger.WithFields(map[string]interface{}{"runId": run.ID, "trigger": run.Trigger})

	ctx, span := observability.StartSpan(ctx, "training.Run", attribute.String("run.id", run.ID))
	defer func() { observability.EndSpan(span, err) }()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.train(ctx, run, req, log)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = apperrors.NewTrainingCancelledError(err)
	}
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())

	finishedAt := time.Now().UTC()
	if err != nil {
		se := apperrors.AsStandardError(err)
		metrics.TrainingRuns.WithLabelValues(string(se.Code)).Inc()
		log.Error("training run failed", map[string]interface{}{"code": se.Code, "error": se.Error()})
		snapshot := r.update(run.ID, func(tr *models.TrainingRun) {
			tr.Status = models.TrainingFailed
			tr.FinishedAt = &finishedAt
			tr.ErrorCode = string(se.Code)
			tr.ErrorMessage = se.Error()
		})
		r.report(&snapshot, log)
		return nil, se
	}

	metrics.TrainingRuns.WithLabelValues("succeeded").Inc()
	metrics.TrainingFinalLoss.Set(result.Metrics.FinalLoss)
	snapshot := r.update(run.ID, func(tr *models.TrainingRun) {
		tr.Status = models.TrainingSucceeded
		tr.FinishedAt = &finishedAt
		tr.ModelVersion = result.ModelVersion
		tr.Activated = result.Activated
		tr.Examples = result.Examples
		m := result.Metrics
		tr.Metrics = &m
	})
	r.report(&snapshot, log)

	log.Info("training run succeeded", map[string]interface{}{
		"modelVersion": result.ModelVersion,
		"examples":     result.Examples,
		"iterations":   result.Metrics.Iterations,
		"finalLoss":    result.Metrics.FinalLoss,
		"converged":    result.Metrics.Converged,
		"durationMs":   time.Since(start).Milliseconds(),
	})
	return result, nil
}

// train builds the corpus, fits a model and activates it. The previous model
// stays in force on any error.
func (r *Runner) train(ctx context.Context, run *models.TrainingRun, req Request, log logger.Logger) (*Result, error) {
	names := req.FeatureNames
	if len(names) == 0 {
		names = features.DefaultFeatureNames()
	}

	examples, err := r.corpus(ctx, req, names)
	if err != nil {
		return nil, err
	}
	r.update(run.ID, func(tr *models.TrainingRun) { tr.Examples = len(examples) })

	opts := r.defaults
	if req.Options != nil {
		opts = *req.Options
	}

	prior, _ := r.deps.Store.Current()
	model, err := trainer.Train(ctx, examples, names, prior, opts)
	if err != nil {
		return nil, err
	}

	if r.deps.Models != nil {
		latest, err := r.deps.Models.LatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		if model.Version <= latest {
			model.Version = latest + 1
		}
		if err := r.deps.Models.Save(ctx, model); err != nil {
			return nil, err
		}
		if err := r.deps.Models.Activate(ctx, model.Version); err != nil {
			return nil, err
		}
	}
	if _, err := r.deps.Store.Activate(model); err != nil {
		return nil, err
	}
	metrics.ActiveModelVersion.Set(float64(model.Version))

	r.announce(ctx, model, log)

	return &Result{
		RunID:        run.ID,
		ModelVersion: model.Version,
		Activated:    true,
		Examples:     len(examples),
		Metrics:      *model.Metrics,
	}, nil
}

func (r *Runner) corpus(ctx context.Context, req Request, names []string) ([]models.TrainingExample, error) {
	if len(req.Examples) > 0 || !req.PullLatest {
		if err := ValidateCorpus(names, req.Examples); err != nil {
			return nil, err
		}
		return req.Examples, nil
	}
	if r.deps.Outcomes == nil {
		return nil, apperrors.NewInsufficientDataError("no outcome source configured")
	}
	apps, err := r.deps.Outcomes.ListDecided(ctx, req.ScholarshipID)
	if err != nil {
		return nil, err
	}
	return BuildCorpus(apps, names)
}

// announce tells peers and downstream consumers about the new model. A
// failure here does not undo the activation.
func (r *Runner) announce(ctx context.Context, model *models.Model, log logger.Logger) {
	if r.deps.Sync != nil {
		if err := r.deps.Sync.PublishActivated(ctx, model.Version); err != nil {
			log.Warn("model sync publish failed", map[string]interface{}{"version": model.Version, "error": err.Error()})
		}
	}
	if r.deps.Events != nil {
		payload := map[string]interface{}{
			"version":          model.Version,
			"trainedAt":        model.TrainedAt,
			"trainingExamples": model.TrainingExamples,
			"metrics":          model.Metrics,
		}
		if _, err := r.deps.Events.PublishEvent(ctx, EventModelActivated, payload); err != nil {
			log.Warn("model event publish failed", map[string]interface{}{"version": model.Version, "error": err.Error()})
		}
	}
}

func (r *Runner) report(run *models.TrainingRun, log logger.Logger) {
	if r.deps.Reports == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.deps.Reports.IndexRun(ctx, run); err != nil {
		log.Warn("training report not indexed", map[string]interface{}{"error": err.Error()})
	}
}
