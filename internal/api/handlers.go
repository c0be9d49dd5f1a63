package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"
	"scholarship-engine/internal/training"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	matcher Matcher
	trainer Trainer
	models  ModelSource
	checks  map[string]ReadinessCheck
	logger  logger.Logger
}

// EvaluateRequest carries an inline student and scholarship for the
// eligibility pre-check.
type EvaluateRequest struct {
	Student     models.StudentProfile `json:"student"`
	Scholarship models.Scholarship    `json:"scholarship"`
}

// RetrainRequest is the admin retraining body.
type RetrainRequest struct {
	Examples      []models.TrainingExample `json:"examples" binding:"omitempty,max=200000"`
	FeatureNames  []string                 `json:"featureNames" binding:"omitempty,unique,dive,required"`
	PullLatest    bool                     `json:"pullLatest"`
	ScholarshipID string                   `json:"scholarshipId" binding:"omitempty,max=128"`
	Async         bool                     `json:"async"`
	Options       *trainerOptions          `json:"options"`
}

type ExplanationResponse struct {
	StudentID     string                           `json:"studentId"`
	ScholarshipID string                           `json:"scholarshipId"`
	Probability   float64                          `json:"probability"`
	Logit         float64                          `json:"logit"`
	ModelVersion  int                              `json:"modelVersion"`
	Factors       map[string][]models.Contribution `json:"factors"`
}

type ModelSummary struct {
	Version          int                     `json:"version"`
	FeatureNames     []string                `json:"featureNames"`
	Weights          []float64               `json:"weights"`
	Bias             float64                 `json:"bias"`
	CategoryOf       map[string]string       `json:"categoryOf"`
	TrainedAt        time.Time               `json:"trainedAt"`
	TrainingExamples int                     `json:"trainingExamples"`
	Metrics          *models.TrainingMetrics `json:"metrics,omitempty"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	_, hasModel := h.models.Current()
	c.JSON(status, gin.H{"checks": results, "modelLoaded": hasModel})
}

func (h *Handler) Match(c *gin.Context) {
	result, err := h.matcher.Match(c.Request.Context(), c.Param("studentId"), c.Param("scholarshipId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Explain(c *gin.Context) {
	out, err := h.matcher.Explain(c.Request.Context(), c.Param("studentId"), c.Param("scholarshipId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ExplanationResponse{
		StudentID:     out.StudentID,
		ScholarshipID: out.ScholarshipID,
		Probability:   out.Probability,
		Logit:         out.Logit,
		ModelVersion:  out.ModelVersion,
		Factors:       out.Factors,
	})
}

func (h *Handler) EvaluateEligibility(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, bindError(err))
		return
	}
	c.JSON(http.StatusOK, h.matcher.EvaluateEligibility(req.Student, req.Scholarship))
}

func (h *Handler) ActiveModel(c *gin.Context) {
	m, ok := h.models.Current()
	if !ok {
		h.respondError(c, apperrors.NewModelNotFoundError("no active model"))
		return
	}
	c.JSON(http.StatusOK, ModelSummary{
		Version:          m.Version,
		FeatureNames:     m.FeatureNames,
		Weights:          m.Weights,
		Bias:             m.Bias,
		CategoryOf:       m.CategoryOf,
		TrainedAt:        m.TrainedAt,
		TrainingExamples: m.TrainingExamples,
		Metrics:          m.Metrics,
	})
}

func (h *Handler) Retrain(c *gin.Context) {
	var body RetrainRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, bindError(err))
		return
	}

	req := training.Request{
		Examples:      body.Examples,
		FeatureNames:  body.FeatureNames,
		PullLatest:    body.PullLatest || len(body.Examples) == 0,
		ScholarshipID: body.ScholarshipID,
		Trigger:       "api",
	}
	if body.Options != nil {
		opts := body.Options.apply(h.trainer.Defaults())
		req.Options = &opts
	}

	if body.Async {
		runID, err := h.trainer.Start(req)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Header("Location", "/api/v1/admin/model/retrain/"+runID)
		c.JSON(http.StatusAccepted, gin.H{"runId": runID, "status": models.TrainingRunning})
		return
	}

	result, err := h.trainer.Run(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) RetrainStatus(c *gin.Context) {
	run, err := h.trainer.Get(c.Param("runId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	se := apperrors.AsStandardError(err)
	status := apperrors.HTTPStatus(se.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request error", map[string]interface{}{
			"path":  c.FullPath(),
			"code":  se.Code,
			"error": se.Error(),
		})
	}
	c.AbortWithStatusJSON(status, gin.H{"error": se})
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return apperrors.NewInvalidRequestError(strings.Join(msgs, "; "))
	}
	return apperrors.NewInvalidRequestError(err.Error())
}
