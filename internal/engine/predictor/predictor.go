// Package predictor scores a feature vector with a logistic model.
package predictor

import (
	"fmt"
	"math"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"
)

// LogitBound limits the argument of the exponential in Sigmoid.
const LogitBound = 35.0

// Prediction holds the probability and its exact linear decomposition:
// Bias + sum(PerFeatureLogit) == Logit.
type Prediction struct {
	Probability     float64   `json:"probability"`
	Logit           float64   `json:"logit"`
	Bias            float64   `json:"bias"`
	PerFeatureLogit []float64 `json:"perFeatureLogit"`
}

// Predict scores vector against model. The vector must carry the model's
// feature names in the model's order.
func Predict(vector models.FeatureVector, model *models.Model) (Prediction, error) {
	if model == nil {
		return Prediction{}, apperrors.NewPredictionUnavailableError("no model")
	}
	if err := checkSchema(vector, model); err != nil {
		return Prediction{}, err
	}

	per := make([]float64, len(model.Weights))
	logit := model.Bias
	for i, w := range model.Weights {
		per[i] = w * vector.Values[i]
		logit += per[i]
	}
	if math.IsNaN(logit) || math.IsInf(logit, 0) {
		return Prediction{}, apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"logit overflows for model v%d", model.Version))
	}

	return Prediction{
		Probability:     Sigmoid(logit),
		Logit:           logit,
		Bias:            model.Bias,
		PerFeatureLogit: per,
	}, nil
}

// Sigmoid is the logistic function with its input clamped to ±LogitBound.
// NaN maps to 0.5.
func Sigmoid(x float64) float64 {
	if math.IsNaN(x) {
		return 0.5
	}
	x = math.Max(-LogitBound, math.Min(LogitBound, x))
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func checkSchema(vector models.FeatureVector, model *models.Model) error {
	if len(vector.Values) != len(model.Weights) || len(model.FeatureNames) != len(model.Weights) {
		return apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"vector has %d values, model v%d has %d weights", len(vector.Values), model.Version, len(model.Weights)))
	}
	for i, v := range vector.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
				"value at position %d is not finite (%v)", i, v))
		}
	}
	// Unnamed vectors are accepted positionally.
	if len(vector.Names) == 0 {
		return nil
	}
	if len(vector.Names) != len(model.FeatureNames) {
		return apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"vector names %d features, model v%d has %d", len(vector.Names), model.Version, len(model.FeatureNames)))
	}
	for i, n := range model.FeatureNames {
		if vector.Names[i] != n {
			return apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
				"position %d is %q in the vector but %q in model v%d", i, vector.Names[i], n, model.Version))
		}
	}
	return nil
}
