// Package explain breaks a prediction's logit into categorized, human-readable
// contribution factors.
package explain

import (
	"fmt"
	"math"
	"sort"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/engine/predictor"
	"scholarship-engine/internal/models"
)

// Impact tiers on |contributionPercentage|.
const (
	HighImpactThreshold   = 0.25
	MediumImpactThreshold = 0.10
)

// UncategorizedCategory holds features the model has no category for.
const UncategorizedCategory = "Other"

// ImpactOf tiers a signed contribution share.
func ImpactOf(share float64) models.Impact {
	a := math.Abs(share)
	switch {
	case a >= HighImpactThreshold:
		return models.ImpactHigh
	case a >= MediumImpactThreshold:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}

// Contributions returns one Contribution per model feature, in model order.
// Shares are signed fractions of the total absolute influence; they are all 0
// when every per-feature logit is 0. observations may be nil.
func Contributions(perFeatureLogit []float64, model *models.Model, observations []models.Observation) ([]models.Contribution, error) {
	if model == nil {
		return nil, apperrors.NewPredictionUnavailableError("no model")
	}
	if len(perFeatureLogit) != len(model.FeatureNames) {
		return nil, apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"%d contributions for %d model features", len(perFeatureLogit), len(model.FeatureNames)))
	}
	if observations != nil && len(observations) != len(model.FeatureNames) {
		return nil, apperrors.NewFeatureSchemaMismatchError(fmt.Sprintf(
			"%d observations for %d model features", len(observations), len(model.FeatureNames)))
	}

	var total float64
	for _, v := range perFeatureLogit {
		total += math.Abs(v)
	}

	out := make([]models.Contribution, len(perFeatureLogit))
	for i, v := range perFeatureLogit {
		name := model.FeatureNames[i]
		share := 0.0
		if total > 0 {
			share = v / total
		}
		var obs *models.Observation
		if observations != nil {
			obs = &observations[i]
		}
		out[i] = models.Contribution{
			Factor:                 name,
			Category:               categoryOf(model, name),
			Description:            Describe(name, obs),
			Contribution:           v,
			ContributionPercentage: share,
			Impact:                 ImpactOf(share),
		}
	}
	return out, nil
}

// Group buckets contributions by category. Within a bucket factors are ordered
// by |contribution| descending; ties keep their input order.
func Group(contributions []models.Contribution) map[string][]models.Contribution {
	grouped := make(map[string][]models.Contribution)
	for _, c := range contributions {
		grouped[c.Category] = append(grouped[c.Category], c)
	}
	for _, list := range grouped {
		sort.SliceStable(list, func(i, j int) bool {
			return math.Abs(list[i].Contribution) > math.Abs(list[j].Contribution)
		})
	}
	return grouped
}

// Explain assembles the categorized explanation for one prediction.
func Explain(pred predictor.Prediction, model *models.Model, vector models.FeatureVector) (models.Explanation, error) {
	contributions, err := Contributions(pred.PerFeatureLogit, model, vector.Observations)
	if err != nil {
		return models.Explanation{}, err
	}
	return models.Explanation{
		Probability:  pred.Probability,
		Logit:        pred.Logit,
		Bias:         pred.Bias,
		ModelVersion: model.Version,
		Factors:      Group(contributions),
	}, nil
}

func categoryOf(model *models.Model, name string) string {
	if c, ok := model.CategoryOf[name]; ok && c != "" {
		return c
	}
	return UncategorizedCategory
}
