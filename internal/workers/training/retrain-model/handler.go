// internal/workers/training/retrain-model/handler.go
package retrainmodel

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/training"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "retrain-success-model"
)

type Trainer interface {
	Run(ctx context.Context, req training.Request) (*training.Result, error)
}

type Handler struct {
	config       *Config
	trainer      Trainer
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, trainer Trainer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		trainer:      trainer,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle retrains from the latest decided applications. A run already in
// flight is thrown as TRAINING_IN_PROGRESS so the process can branch on it.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if job.Variables != "" {
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			err = apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
			h.errorHandler.HandleJobError(ctx, client, job, err)
			return err
		}
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.trainer.Run(ctx, training.Request{
		PullLatest:    true,
		ScholarshipID: input.ScholarshipID,
		FeatureNames:  input.FeatureNames,
		Trigger:       TaskType,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("model retrained", map[string]interface{}{
		"runId":        result.RunID,
		"modelVersion": result.ModelVersion,
		"examples":     result.Examples,
	})

	return &Output{
		TrainingRunID:  result.RunID,
		ModelVersion:   result.ModelVersion,
		ModelActivated: result.Activated,
		Examples:       result.Examples,
		FinalLoss:      result.Metrics.FinalLoss,
		Iterations:     result.Metrics.Iterations,
		Converged:      result.Metrics.Converged,
		Accuracy:       result.Metrics.Accuracy,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
