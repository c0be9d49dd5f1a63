package matching

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/engine/modelstore"
	"scholarship-engine/internal/engine/predictor"
	"scholarship-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStudents map[string]models.StudentProfile

func (m memStudents) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	s, ok := m[id]
	if !ok {
		return nil, apperrors.NewStudentNotFoundError(id)
	}
	return &s, nil
}

type memScholarships map[string]models.Scholarship

func (m memScholarships) GetScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	s, ok := m[id]
	if !ok {
		return nil, apperrors.NewScholarshipNotFoundError(id)
	}
	return &s, nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) RecordMatch(ctx context.Context, eligible bool, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, status)
}

func fixtures() (memStudents, memScholarships) {
	students := memStudents{
		"top": {
			ID:                     "top",
			GWA:                    models.Float64(1.0),
			YearLevel:              models.YearLevelThird,
			College:                models.CollegeCAS,
			AnnualFamilyIncome:     models.Float64(200000),
			HasDisciplinaryAction:  models.Bool(false),
			IsScholarshipRecipient: models.Bool(false),
		},
		"weak": {
			ID:        "weak",
			GWA:       models.Float64(2.6),
			YearLevel: models.YearLevelFirst,
			College:   models.CollegeCAS,
		},
	}
	scholarships := memScholarships{
		"merit": {
			ID:   "merit",
			Name: "Merit Grant",
			Criteria: models.EligibilityCriteria{
				MaxGWA:           models.Float64(2.0),
				EligibleColleges: []models.College{models.CollegeCAS, models.CollegeCEM},
			},
		},
	}
	return students, scholarships
}

func activeStore(t *testing.T) *modelstore.Store {
	store := modelstore.New()
	_, err := store.Activate(&models.Model{
		Version:      3,
		FeatureNames: []string{features.GWAScore, features.CollegeMatch},
		Weights:      []float64{2, 0.5},
		Bias:         -1,
		CategoryOf:   features.DefaultCategories(),
	})
	require.NoError(t, err)
	return store
}

func TestMatch_EligibleWithModel(t *testing.T) {
	students, scholarships := fixtures()
	rec := &recorder{}
	svc := NewService(students, scholarships, activeStore(t), logger.NewTestLogger(t), WithRecorder(rec))

	result, err := svc.Match(context.Background(), "top", "merit")
	require.NoError(t, err)

	assert.True(t, result.IsEligible)
	assert.Len(t, result.EligibilityDetails, 2)
	assert.Equal(t, models.PredictionAvailable, result.PredictionStatus)
	assert.Equal(t, 3, result.ModelVersion)
	require.NotNil(t, result.PredictionScore)
	// gwa_score = 1, college_match = 1: logit = -1 + 2 + 0.5
	assert.InDelta(t, predictor.Sigmoid(1.5), *result.PredictionScore, 1e-12)
	assert.Equal(t, []string{string(models.PredictionAvailable)}, rec.events)
}

func TestMatch_IneligibleHasNoScore(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, activeStore(t), logger.NewTestLogger(t))

	result, err := svc.Match(context.Background(), "weak", "merit")
	require.NoError(t, err)

	assert.False(t, result.IsEligible)
	assert.Nil(t, result.PredictionScore)
	assert.Equal(t, models.PredictionNotApplicable, result.PredictionStatus)
	assert.Equal(t, []string{models.CriterionMaxGWA}, result.FailedCriteria())
}

func TestMatch_NoActiveModel(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, modelstore.New(), logger.NewTestLogger(t))

	result, err := svc.Match(context.Background(), "top", "merit")
	require.NoError(t, err)

	assert.True(t, result.IsEligible)
	assert.Nil(t, result.PredictionScore)
	assert.Equal(t, models.PredictionUnavailable, result.PredictionStatus)
}

func TestMatch_MissingInputs(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, activeStore(t), logger.NewTestLogger(t))

	_, err := svc.Match(context.Background(), "ghost", "merit")
	assert.True(t, errors.Is(err, apperrors.ErrStudentNotFound))

	_, err = svc.Match(context.Background(), "top", "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrScholarshipNotFound))
}

func TestMatch_UnknownModelFeature(t *testing.T) {
	students, scholarships := fixtures()
	store := modelstore.New()
	_, err := store.Activate(&models.Model{
		Version:      9,
		FeatureNames: []string{"retired_feature"},
		Weights:      []float64{1},
	})
	require.NoError(t, err)
	svc := NewService(students, scholarships, store, logger.NewTestLogger(t))

	_, err = svc.Match(context.Background(), "top", "merit")
	assert.True(t, errors.Is(err, apperrors.ErrFeatureSchemaMismatch))
}

func TestExplain(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, activeStore(t), logger.NewTestLogger(t))

	out, err := svc.Explain(context.Background(), "top", "merit")
	require.NoError(t, err)

	assert.Equal(t, "top", out.StudentID)
	assert.Equal(t, "merit", out.ScholarshipID)
	assert.Equal(t, 3, out.ModelVersion)
	assert.InDelta(t, predictor.Sigmoid(1.5), out.Probability, 1e-12)

	require.Len(t, out.Factors[features.CategoryAcademic], 1)
	require.Len(t, out.Factors[features.CategoryMatch], 1)
	academic := out.Factors[features.CategoryAcademic][0]
	assert.Equal(t, features.GWAScore, academic.Factor)
	assert.InDelta(t, 0.8, academic.ContributionPercentage, 1e-12)
	assert.Equal(t, models.ImpactHigh, academic.Impact)

	var sum float64
	for _, list := range out.Factors {
		for _, c := range list {
			sum += c.Contribution
		}
	}
	assert.InDelta(t, out.Logit, out.Bias+sum, 1e-9)
}

func TestExplain_Ineligible(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, activeStore(t), logger.NewTestLogger(t))

	_, err := svc.Explain(context.Background(), "weak", "merit")
	require.Error(t, err)
	se := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeStudentIneligible, se.Code)
	assert.Equal(t, 422, apperrors.HTTPStatus(se.Code))
}

func TestExplain_NoModel(t *testing.T) {
	students, scholarships := fixtures()
	svc := NewService(students, scholarships, modelstore.New(), logger.NewTestLogger(t))

	_, err := svc.Explain(context.Background(), "top", "merit")
	assert.True(t, errors.Is(err, apperrors.ErrPredictionUnavailable))
	assert.Equal(t, 503, apperrors.HTTPStatus(apperrors.ErrCodePredictionUnavailable))
}

func TestMatch_ConcurrentWithActivation(t *testing.T) {
	students, scholarships := fixtures()
	store := activeStore(t)
	svc := NewService(students, scholarships, store, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				result, err := svc.Match(context.Background(), "top", "merit")
				if assert.NoError(t, err) {
					assert.Contains(t, []int{3, 4}, result.ModelVersion)
				}
			}
		}()
	}
	for v := 4; v < 20; v++ {
		_, err := store.Activate(&models.Model{
			Version:      4,
			FeatureNames: []string{features.GWAScore},
			Weights:      []float64{float64(v)},
		})
		require.NoError(t, err)
	}
	wg.Wait()
}
