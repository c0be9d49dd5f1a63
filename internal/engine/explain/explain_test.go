package explain

import (
	"errors"
	"math"
	"testing"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/engine/predictor"
	"scholarship-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *models.Model {
	return &models.Model{
		Version:      2,
		FeatureNames: []string{features.GWAScore, features.IncomeHeadroom, features.CollegeMatch, features.CleanRecord},
		Weights:      []float64{2, -1, 0.5, 0.5},
		Bias:         -0.5,
		CategoryOf: map[string]string{
			features.GWAScore:       features.CategoryAcademic,
			features.IncomeHeadroom: features.CategoryFinancial,
			features.CollegeMatch:   features.CategoryMatch,
			features.CleanRecord:    features.CategoryMatch,
		},
	}
}

func TestImpactOf(t *testing.T) {
	tests := []struct {
		share float64
		want  models.Impact
	}{
		{0.25, models.ImpactHigh},
		{-0.40, models.ImpactHigh},
		{0.2499, models.ImpactMedium},
		{0.10, models.ImpactMedium},
		{-0.10, models.ImpactMedium},
		{0.0999, models.ImpactLow},
		{0, models.ImpactLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImpactOf(tt.share), "share %v", tt.share)
	}
}

func TestContributions_Shares(t *testing.T) {
	// |2| + |-1| + |0.5| + |0.5| = 4
	got, err := Contributions([]float64{2, -1, 0.5, 0.5}, testModel(), nil)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, 0.5, got[0].ContributionPercentage)
	assert.Equal(t, models.ImpactHigh, got[0].Impact)
	assert.Equal(t, -0.25, got[1].ContributionPercentage)
	assert.Equal(t, models.ImpactHigh, got[1].Impact)
	assert.Equal(t, 0.125, got[2].ContributionPercentage)
	assert.Equal(t, models.ImpactMedium, got[2].Impact)

	var abs float64
	for _, c := range got {
		abs += math.Abs(c.ContributionPercentage)
	}
	assert.InDelta(t, 1.0, abs, 1e-12)
}

func TestContributions_AllZero(t *testing.T) {
	got, err := Contributions([]float64{0, 0, 0, 0}, testModel(), nil)
	require.NoError(t, err)
	for _, c := range got {
		assert.Zero(t, c.ContributionPercentage)
		assert.Equal(t, models.ImpactLow, c.Impact)
	}
}

func TestContributions_LengthMismatch(t *testing.T) {
	_, err := Contributions([]float64{1}, testModel(), nil)
	assert.True(t, errors.Is(err, apperrors.ErrFeatureSchemaMismatch))

	_, err = Contributions([]float64{1, 1, 1, 1}, testModel(), make([]models.Observation, 2))
	assert.True(t, errors.Is(err, apperrors.ErrFeatureSchemaMismatch))
}

func TestContributions_UncategorizedFeature(t *testing.T) {
	m := testModel()
	delete(m.CategoryOf, features.CleanRecord)
	got, err := Contributions([]float64{1, 1, 1, 1}, m, nil)
	require.NoError(t, err)
	assert.Equal(t, UncategorizedCategory, got[3].Category)
}

func TestGroup_OrdersByMagnitude(t *testing.T) {
	in := []models.Contribution{
		{Factor: "a", Category: "X", Contribution: 0.1},
		{Factor: "b", Category: "Y", Contribution: 1},
		{Factor: "c", Category: "X", Contribution: -0.7},
		{Factor: "d", Category: "X", Contribution: 0.1},
	}
	grouped := Group(in)
	require.Len(t, grouped, 2)

	var order []string
	for _, c := range grouped["X"] {
		order = append(order, c.Factor)
	}
	assert.Equal(t, []string{"c", "a", "d"}, order)
}

func TestExplain_EndToEnd(t *testing.T) {
	model := testModel()
	student := models.StudentProfile{
		GWA:                   models.Float64(1.8),
		AnnualFamilyIncome:    models.Float64(100000),
		College:               models.CollegeCEM,
		HasDisciplinaryAction: models.Bool(false),
	}
	scholarship := models.Scholarship{Criteria: models.EligibilityCriteria{
		MaxGWA:                models.Float64(2),
		MaxAnnualFamilyIncome: models.Float64(200000),
		EligibleColleges:      []models.College{models.CollegeCEM},
	}}

	vec, err := features.Extract(student, scholarship, model.FeatureNames)
	require.NoError(t, err)
	pred, err := predictor.Predict(vec, model)
	require.NoError(t, err)

	exp, err := Explain(pred, model, vec)
	require.NoError(t, err)

	assert.Equal(t, 2, exp.ModelVersion)
	assert.Equal(t, pred.Probability, exp.Probability)
	require.Len(t, exp.Factors[features.CategoryAcademic], 1)
	require.Len(t, exp.Factors[features.CategoryMatch], 2)

	gwa := exp.Factors[features.CategoryAcademic][0]
	assert.Equal(t, "GWA of 1.80 against a 2.00 maximum", gwa.Description)
	assert.Equal(t, "College CEM is targeted by this scholarship", exp.Factors[features.CategoryMatch][0].Description)
	assert.Equal(t, "No disciplinary action on record", exp.Factors[features.CategoryMatch][1].Description)

	sum := exp.Bias
	for _, list := range exp.Factors {
		for _, c := range list {
			sum += c.Contribution
		}
	}
	assert.InDelta(t, exp.Logit, sum, 1e-9)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "GWA not on file", Describe(features.GWAScore, &models.Observation{}))
	assert.Equal(t, "Thesis approved", Describe(features.ThesisReady, &models.Observation{Present: true, Raw: 1}))
	assert.Equal(t, "Province Laguna; scholarship is open to all",
		Describe(features.ProvinceMatch, &models.Observation{Present: true, Raw: 0.5, Label: "Laguna"}))
	assert.Equal(t, "Year level 4th is a required level",
		Describe(features.YearLevelProximity, &models.Observation{Present: true, Raw: 4, Label: "4th", Threshold: models.Float64(0)}))
	assert.Contains(t, Describe(features.IncomeHeadroom, &models.Observation{Present: true, Raw: 120000, Threshold: models.Float64(300000)}),
		"Annual family income of")
	assert.Equal(t, "custom = 0.50", Describe("custom", &models.Observation{Present: true, Raw: 0.5}))
	assert.Equal(t, features.GWAScore, Describe(features.GWAScore, nil))
}
