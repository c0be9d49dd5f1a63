package api

import "scholarship-engine/internal/engine/trainer"

// trainerOptions lets a request override individual trainer defaults.
type trainerOptions struct {
	LearningRate  *float64 `json:"learningRate"`
	L2Penalty     *float64 `json:"l2Penalty"`
	MaxIterations *int     `json:"maxIterations"`
	Tolerance     *float64 `json:"tolerance"`
	Seed          *int64   `json:"seed"`
	WarmStart     *bool    `json:"warmStart"`
}

// apply returns base with every field o sets replaced.
func (o *trainerOptions) apply(base trainer.Options) trainer.Options {
	opts := base
	if o.LearningRate != nil {
		opts.LearningRate = *o.LearningRate
	}
	if o.L2Penalty != nil {
		opts.L2Penalty = *o.L2Penalty
	}
	if o.MaxIterations != nil {
		opts.MaxIterations = *o.MaxIterations
	}
	if o.Tolerance != nil {
		opts.Tolerance = *o.Tolerance
	}
	if o.Seed != nil {
		opts.Seed = *o.Seed
	}
	if o.WarmStart != nil {
		opts.WarmStart = *o.WarmStart
	}
	return opts
}
