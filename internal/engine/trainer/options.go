package trainer

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "scholarship-engine/internal/common/errors"
)

// Options tune a training run.
type Options struct {
	LearningRate  float64 `json:"learningRate" validate:"gt=0,lte=100"`
	L2Penalty     float64 `json:"l2Penalty" validate:"gte=0"`
	MaxIterations int     `json:"maxIterations" validate:"gte=1,lte=1000000"`
	Tolerance     float64 `json:"tolerance" validate:"gte=0"`
	Seed          int64   `json:"seed"`
	InitScale     float64 `json:"initScale" validate:"gte=0,lte=1"`
	// WarmStart starts from the prior model's parameters when its feature
	// names match the requested ones.
	WarmStart bool `json:"warmStart"`
}

func DefaultOptions() Options {
	return Options{
		LearningRate:  0.1,
		L2Penalty:     0.01,
		MaxIterations: 5000,
		Tolerance:     1e-7,
		Seed:          42,
		InitScale:     0.01,
		WarmStart:     true,
	}
}

var validate = validator.New()

// Validate reports the first invalid field as INVALID_REQUEST.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewInvalidRequestError(fmt.Sprintf("training option %s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
		return apperrors.NewInvalidRequestError(err.Error())
	}
	return nil
}
