package predictor

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict_WorkedExample(t *testing.T) {
	model := &models.Model{Version: 1, FeatureNames: []string{"a", "b"}, Weights: []float64{0.5, -0.3}, Bias: 0.1}
	vec := models.FeatureVector{Names: []string{"a", "b"}, Values: []float64{2.0, 1.0}}

	p, err := Predict(vec, model)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, p.Logit, 1e-12)
	assert.InDelta(t, 0.6900, p.Probability, 1e-4)
	assert.InDelta(t, 1/(1+math.Exp(-0.8)), p.Probability, 1e-12)
	assert.Equal(t, []float64{1.0, -0.3}, p.PerFeatureLogit)
	assert.Equal(t, 0.1, p.Bias)
}

func TestPredict_DecompositionAndBounds(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for i := 0; i < 1000; i++ {
		n := 1 + r.Intn(12)
		model := &models.Model{FeatureNames: make([]string, n), Weights: make([]float64, n), Bias: r.NormFloat64() * 20}
		vec := models.FeatureVector{Values: make([]float64, n)}
		for j := 0; j < n; j++ {
			model.FeatureNames[j] = string(rune('a' + j))
			model.Weights[j] = r.NormFloat64() * 30
			vec.Values[j] = r.Float64()
		}

		p, err := Predict(vec, model)
		require.NoError(t, err)

		sum := p.Bias
		for _, v := range p.PerFeatureLogit {
			sum += v
		}
		assert.InDelta(t, p.Logit, sum, 1e-9)
		assert.GreaterOrEqual(t, p.Probability, 0.0)
		assert.LessOrEqual(t, p.Probability, 1.0)
		assert.False(t, math.IsNaN(p.Probability))
	}
}

func TestSigmoid_Extremes(t *testing.T) {
	assert.Equal(t, Sigmoid(LogitBound), Sigmoid(1e6))
	assert.Equal(t, Sigmoid(-LogitBound), Sigmoid(-1e6))
	assert.Greater(t, Sigmoid(-1e6), 0.0)
	assert.Less(t, Sigmoid(1e6), 1.0+1e-15)
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.Equal(t, 0.5, Sigmoid(math.NaN()))
	assert.Equal(t, Sigmoid(LogitBound), Sigmoid(math.Inf(1)))
	assert.Equal(t, Sigmoid(-LogitBound), Sigmoid(math.Inf(-1)))
}

func TestPredict_NonFiniteInputs(t *testing.T) {
	model := &models.Model{Version: 2, FeatureNames: []string{"a", "b"}, Weights: []float64{0.5, -0.3}, Bias: 0.1}

	tests := []struct {
		name   string
		model  *models.Model
		values []float64
	}{
		{"nan feature", model, []float64{math.NaN(), 1}},
		{"positive inf feature", model, []float64{math.Inf(1), 1}},
		{"negative inf feature", model, []float64{1, math.Inf(-1)}},
		{"overflowing product", &models.Model{Version: 2, FeatureNames: []string{"a", "b"},
			Weights: []float64{math.MaxFloat64, math.MaxFloat64}}, []float64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Predict(models.FeatureVector{Values: tt.values}, tt.model)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrFeatureSchemaMismatch))
			assert.Equal(t, Prediction{}, p)
		})
	}
}

func TestPredict_SchemaMismatch(t *testing.T) {
	model := &models.Model{Version: 3, FeatureNames: []string{"a", "b"}, Weights: []float64{1, 1}}

	tests := []struct {
		name string
		vec  models.FeatureVector
	}{
		{"short vector", models.FeatureVector{Values: []float64{1}}},
		{"long vector", models.FeatureVector{Values: []float64{1, 2, 3}}},
		{"reordered names", models.FeatureVector{Names: []string{"b", "a"}, Values: []float64{1, 2}}},
		{"renamed feature", models.FeatureVector{Names: []string{"a", "c"}, Values: []float64{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predict(tt.vec, model)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrFeatureSchemaMismatch))
		})
	}
}

func TestPredict_NoModel(t *testing.T) {
	_, err := Predict(models.FeatureVector{Values: []float64{1}}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrPredictionUnavailable))
}
