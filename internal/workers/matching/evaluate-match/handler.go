// internal/workers/matching/evaluate-match/handler.go
package evaluatematch

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/go-playground/validator/v10"
)

const (
	TaskType = "evaluate-scholarship-match"
)

type Matcher interface {
	Match(ctx context.Context, studentID, scholarshipID string) (*models.MatchResult, error)
}

type Handler struct {
	config       *Config
	matcher      Matcher
	errorHandler *apperrors.ErrorHandler
	validate     *validator.Validate
	logger       logger.Logger
}

func NewHandler(config *Config, matcher Matcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		matcher:      matcher,
		errorHandler: apperrors.NewErrorHandler(log),
		validate:     validator.New(),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate.Struct(input); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	result, err := h.matcher.Match(ctx, input.StudentID, input.ScholarshipID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("match evaluated", map[string]interface{}{
		"studentId":        input.StudentID,
		"scholarshipId":    input.ScholarshipID,
		"eligible":         result.IsEligible,
		"predictionStatus": result.PredictionStatus,
	})

	return &Output{
		IsEligible:         result.IsEligible,
		EligibilityDetails: result.EligibilityDetails,
		FailedCriteria:     result.FailedCriteria(),
		PredictionScore:    result.PredictionScore,
		PredictionStatus:   result.PredictionStatus,
		ModelVersion:       result.ModelVersion,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
