// Package matching serves eligibility, success predictions and their
// explanations for one (student, scholarship) pair.
package matching

import (
	"context"
	"strconv"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/common/metrics"
	"scholarship-engine/internal/common/observability"
	"scholarship-engine/internal/engine/eligibility"
	"scholarship-engine/internal/engine/explain"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/engine/predictor"
	"scholarship-engine/internal/models"
	"scholarship-engine/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ModelSource returns the model currently used for serving.
type ModelSource interface {
	Current() (*models.Model, bool)
}

// MatchRecorder receives one event per served match.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, eligible bool, predictionStatus string)
}

type Service struct {
	students     repository.StudentReader
	scholarships repository.ScholarshipReader
	models       ModelSource
	recorder     MatchRecorder
	logger       logger.Logger
}

type Option func(*Service)

func WithRecorder(r MatchRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(students repository.StudentReader, scholarships repository.ScholarshipReader, source ModelSource, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		students:     students,
		scholarships: scholarships,
		models:       source,
		logger:       log.WithFields(map[string]interface{}{"component": "matching"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match returns the eligibility verdict and, for eligible students, the
// success prediction of the active model.
func (s *Service) Match(ctx context.Context, studentID, scholarshipID string) (_ *models.MatchResult, err error) {
	ctx, span := observability.StartSpan(ctx, "matching.Match",
		attribute.String("student.id", studentID),
		attribute.String("scholarship.id", scholarshipID),
	)
	defer func() { observability.EndSpan(span, err) }()

	student, scholarship, err := s.load(ctx, studentID, scholarshipID)
	if err != nil {
		return nil, err
	}

	result, err := s.Score(*student, *scholarship)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.RecordMatch(ctx, result.IsEligible, string(result.PredictionStatus))
	}
	span.SetAttributes(
		attribute.Bool("match.eligible", result.IsEligible),
		attribute.String("match.prediction_status", string(result.PredictionStatus)),
	)
	return &result, nil
}

// Score is Match over already loaded inputs. Ineligible students get no
// score; eligible students get one only while a model is active.
func (s *Service) Score(student models.StudentProfile, scholarship models.Scholarship) (models.MatchResult, error) {
	result := s.EvaluateEligibility(student, scholarship)
	if !result.IsEligible {
		return result, nil
	}

	model, ok := s.models.Current()
	if !ok {
		result.PredictionStatus = models.PredictionUnavailable
		metrics.Predictions.WithLabelValues(string(models.PredictionUnavailable)).Inc()
		return result, nil
	}

	pred, _, err := s.predict(student, scholarship, model)
	if err != nil {
		return models.MatchResult{}, err
	}
	result.PredictionScore = &pred.Probability
	result.PredictionStatus = models.PredictionAvailable
	result.ModelVersion = model.Version
	return result, nil
}

// EvaluateEligibility runs only the eligibility evaluator.
func (s *Service) EvaluateEligibility(student models.StudentProfile, scholarship models.Scholarship) models.MatchResult {
	result := eligibility.Evaluate(student, scholarship)
	metrics.EligibilityEvaluations.WithLabelValues(strconv.FormatBool(result.IsEligible)).Inc()
	for _, name := range result.FailedCriteria() {
		metrics.CriterionFailures.WithLabelValues(name).Inc()
	}
	return result
}

// Explain breaks the prediction for an eligible student down by category.
// Ineligible students get STUDENT_INELIGIBLE and a missing model gets
// PREDICTION_UNAVAILABLE.
func (s *Service) Explain(ctx context.Context, studentID, scholarshipID string) (_ *models.Explanation, err error) {
	ctx, span := observability.StartSpan(ctx, "matching.Explain",
		attribute.String("student.id", studentID),
		attribute.String("scholarship.id", scholarshipID),
	)
	defer func() { observability.EndSpan(span, err) }()

	student, scholarship, err := s.load(ctx, studentID, scholarshipID)
	if err != nil {
		return nil, err
	}

	verdict := s.EvaluateEligibility(*student, *scholarship)
	if !verdict.IsEligible {
		return nil, apperrors.NewStudentIneligibleError(verdict.FailedCriteria())
	}

	model, ok := s.models.Current()
	if !ok {
		return nil, apperrors.NewPredictionUnavailableError("no success model is active")
	}

	pred, vector, err := s.predict(*student, *scholarship, model)
	if err != nil {
		return nil, err
	}
	out, err := explain.Explain(pred, model, vector)
	if err != nil {
		return nil, err
	}
	out.StudentID = student.ID
	out.ScholarshipID = scholarship.ID
	return &out, nil
}

// predict uses one model snapshot for both extraction and scoring so the
// vector always follows that model's feature order.
func (s *Service) predict(student models.StudentProfile, scholarship models.Scholarship, model *models.Model) (predictor.Prediction, models.FeatureVector, error) {
	start := time.Now()
	defer func() { metrics.PredictionDuration.Observe(time.Since(start).Seconds()) }()

	vector, err := features.Extract(student, scholarship, model.FeatureNames)
	if err != nil {
		s.logger.Error("feature extraction failed", map[string]interface{}{
			"modelVersion": model.Version,
			"error":        err.Error(),
		})
		return predictor.Prediction{}, models.FeatureVector{}, err
	}
	pred, err := predictor.Predict(vector, model)
	if err != nil {
		return predictor.Prediction{}, models.FeatureVector{}, err
	}
	metrics.Predictions.WithLabelValues(string(models.PredictionAvailable)).Inc()
	return pred, vector, nil
}

func (s *Service) load(ctx context.Context, studentID, scholarshipID string) (*models.StudentProfile, *models.Scholarship, error) {
	var student *models.StudentProfile
	var scholarship *models.Scholarship

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		student, err = s.students.GetStudent(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		scholarship, err = s.scholarships.GetScholarship(gctx, scholarshipID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return student, scholarship, nil
}
