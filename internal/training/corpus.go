package training

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/validation"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/models"
)

// OutcomeSource lists decided applications.
type OutcomeSource interface {
	ListDecided(ctx context.Context, scholarshipID string) ([]models.HistoricalApplication, error)
}

// corpusUpload is the JSON shape checked against validation.TrainingCorpusSchema.
type corpusUpload struct {
	FeatureNames []string                 `json:"featureNames,omitempty"`
	Examples     []models.TrainingExample `json:"examples"`
}

// ValidateCorpus checks an uploaded corpus against the corpus schema and
// that every feature name can be extracted at serving time.
func ValidateCorpus(names []string, examples []models.TrainingExample) error {
	if examples == nil {
		examples = []models.TrainingExample{}
	}
	res, err := validation.ValidateValue(validation.TrainingCorpusSchema, corpusUpload{FeatureNames: names, Examples: examples})
	if err != nil {
		return apperrors.NewInvalidRequestError(err.Error())
	}
	if !res.Valid {
		return corpusSchemaError(res)
	}
	for _, n := range names {
		if !features.Known(n) {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("feature %q cannot be extracted", n))
		}
	}
	return nil
}

// corpusSchemaError reports a failure inside one example as
// MALFORMED_EXAMPLE for the lowest failing index, matching the trainer's own
// row checks. Failures outside the examples stay INVALID_REQUEST.
func corpusSchemaError(res *validation.ValidationResult) error {
	index := -1
	var details string
	for _, e := range res.Errors {
		i, ok := exampleIndex(e.Field)
		if !ok || (index >= 0 && i >= index) {
			continue
		}
		index = i
		details = fmt.Sprintf("example %d: %s: %s", i, e.Field, e.Message)
	}
	if index < 0 {
		return apperrors.NewInvalidRequestError(res.Error())
	}
	return apperrors.NewMalformedExampleError(index, details)
}

// exampleIndex extracts N from schema field paths like "examples.N.outcome".
func exampleIndex(field string) (int, bool) {
	parts := strings.SplitN(field, ".", 3)
	if len(parts) < 2 || parts[0] != "examples" {
		return 0, false
	}
	i, err := strconv.Atoi(parts[1])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// BuildCorpus turns decided applications into training examples in the
// order of names. Applications without a final decision are skipped.
func BuildCorpus(apps []models.HistoricalApplication, names []string) ([]models.TrainingExample, error) {
	out := make([]models.TrainingExample, 0, len(apps))
	for _, app := range apps {
		outcome, ok := app.Status.Outcome()
		if !ok {
			continue
		}
		vec, err := features.Extract(app.Student, app.Scholarship, names)
		if err != nil {
			return nil, err
		}
		out = append(out, models.TrainingExample{Features: vec.Values, Outcome: outcome})
	}
	return out, nil
}
