// Package trainer fits the logistic success model from historical outcomes.
package trainer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/models"
)

// DivergenceLoss aborts a run whose loss exceeds it.
const DivergenceLoss = 1e6

type corpus struct {
	x       [][]float64
	y       []float64
	weight  []float64
	pos     int
	neg     int
	invSize float64
}

// Train runs full-batch gradient descent on class-weighted cross-entropy with
// an L2 penalty on the weights (not the bias). It stops when the loss change
// drops below opts.Tolerance or after opts.MaxIterations and returns the
// lowest-loss parameters seen. prior is read only: it seeds the version and,
// with WarmStart, the starting parameters.
func Train(ctx context.Context, examples []models.TrainingExample, featureNames []string, prior *models.Model, opts Options) (*models.Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkFeatureNames(featureNames); err != nil {
		return nil, err
	}
	c, err := buildCorpus(examples, len(featureNames))
	if err != nil {
		return nil, err
	}

	w, b := initialParams(featureNames, prior, opts)
	grad := make([]float64, len(w))

	loss := c.loss(w, b, opts.L2Penalty)
	if !finite(loss) {
		return nil, apperrors.NewTrainingDivergedError(0, "initial loss is not finite")
	}
	bestW, bestB, bestLoss := append([]float64(nil), w...), b, loss

	iterations := 0
	converged := false
	for iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		gb := c.gradient(w, b, opts.L2Penalty, grad)
		for j := range w {
			w[j] -= opts.LearningRate * grad[j]
		}
		b -= opts.LearningRate * gb

		if !finiteAll(w) || !finite(b) {
			return nil, apperrors.NewTrainingDivergedError(iterations, "parameters became non-finite")
		}
		next := c.loss(w, b, opts.L2Penalty)
		if !finite(next) || next > DivergenceLoss {
			return nil, apperrors.NewTrainingDivergedError(iterations, fmt.Sprintf("loss %g", next))
		}

		if next < bestLoss {
			copy(bestW, w)
			bestB, bestLoss = b, next
		}
		delta := math.Abs(loss - next)
		loss = next
		if delta < opts.Tolerance {
			converged = true
			break
		}
	}

	version := 1
	if prior != nil {
		version = prior.Version + 1
	}

	return &models.Model{
		Version:          version,
		FeatureNames:     append([]string(nil), featureNames...),
		Weights:          bestW,
		Bias:             bestB,
		CategoryOf:       categories(featureNames, prior),
		TrainedAt:        time.Now().UTC(),
		TrainingExamples: len(examples),
		Metrics: &models.TrainingMetrics{
			FinalLoss:        loss,
			BestLoss:         bestLoss,
			Iterations:       iterations,
			Converged:        converged,
			Accuracy:         c.accuracy(bestW, bestB),
			PositiveExamples: c.pos,
			NegativeExamples: c.neg,
		},
	}, nil
}

func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return apperrors.NewInvalidRequestError("feature names are empty")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return apperrors.NewInvalidRequestError("feature name is empty")
		}
		if _, dup := seen[n]; dup {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("feature %q listed twice", n))
		}
		seen[n] = struct{}{}
	}
	return nil
}

func buildCorpus(examples []models.TrainingExample, dim int) (*corpus, error) {
	if len(examples) == 0 {
		return nil, apperrors.NewInsufficientDataError("no training examples")
	}
	c := &corpus{
		x:      make([][]float64, len(examples)),
		y:      make([]float64, len(examples)),
		weight: make([]float64, len(examples)),
	}
	for i, ex := range examples {
		if len(ex.Features) != dim {
			return nil, apperrors.NewMalformedExampleError(i,
				fmt.Sprintf("example %d has %d features, expected %d", i, len(ex.Features), dim))
		}
		if ex.Outcome != 0 && ex.Outcome != 1 {
			return nil, apperrors.NewMalformedExampleError(i,
				fmt.Sprintf("example %d has outcome %d, expected 0 or 1", i, ex.Outcome))
		}
		if !finiteAll(ex.Features) {
			return nil, apperrors.NewMalformedExampleError(i, fmt.Sprintf("example %d has a non-finite feature", i))
		}
		c.x[i] = ex.Features
		c.y[i] = float64(ex.Outcome)
		if ex.Outcome == 1 {
			c.pos++
		} else {
			c.neg++
		}
	}
	if c.pos == 0 || c.neg == 0 {
		return nil, apperrors.NewInsufficientDataError(
			fmt.Sprintf("need both outcomes, got %d approved and %d rejected", c.pos, c.neg))
	}

	n := float64(len(examples))
	posWeight := n / (2 * float64(c.pos))
	negWeight := n / (2 * float64(c.neg))
	for i := range c.y {
		if c.y[i] == 1 {
			c.weight[i] = posWeight
		} else {
			c.weight[i] = negWeight
		}
	}
	c.invSize = 1 / n
	return c, nil
}

func initialParams(names []string, prior *models.Model, opts Options) ([]float64, float64) {
	if opts.WarmStart && prior != nil && sameNames(prior.FeatureNames, names) && len(prior.Weights) == len(names) &&
		finiteAll(prior.Weights) && finite(prior.Bias) {
		return append([]float64(nil), prior.Weights...), prior.Bias
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	w := make([]float64, len(names))
	for j := range w {
		w[j] = opts.InitScale * rng.NormFloat64()
	}
	return w, 0
}

func (c *corpus) logit(x, w []float64, b float64) float64 {
	z := b
	for j, v := range x {
		z += w[j] * v
	}
	return z
}

// loss is the class-weighted mean cross-entropy plus (λ/2)·‖w‖².
func (c *corpus) loss(w []float64, b, lambda float64) float64 {
	var sum float64
	for i, x := range c.x {
		z := c.logit(x, w, b)
		sum += c.weight[i] * (softplus(z) - c.y[i]*z)
	}
	var norm float64
	for _, v := range w {
		norm += v * v
	}
	return sum*c.invSize + 0.5*lambda*norm
}

// gradient writes dL/dw into grad and returns dL/db.
func (c *corpus) gradient(w []float64, b, lambda float64, grad []float64) float64 {
	for j := range grad {
		grad[j] = 0
	}
	var gb float64
	for i, x := range c.x {
		r := c.weight[i] * (sigmoid(c.logit(x, w, b)) - c.y[i])
		for j, v := range x {
			grad[j] += r * v
		}
		gb += r
	}
	for j := range grad {
		grad[j] = grad[j]*c.invSize + lambda*w[j]
	}
	return gb * c.invSize
}

func (c *corpus) accuracy(w []float64, b float64) float64 {
	correct := 0
	for i, x := range c.x {
		predicted := 0.0
		if c.logit(x, w, b) >= 0 {
			predicted = 1
		}
		if predicted == c.y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(c.x))
}

func categories(names []string, prior *models.Model) map[string]string {
	defaults := features.DefaultCategories()
	out := make(map[string]string, len(names))
	for _, n := range names {
		if prior != nil {
			if c, ok := prior.CategoryOf[n]; ok {
				out[n] = c
				continue
			}
		}
		if c, ok := defaults[n]; ok {
			out[n] = c
		}
	}
	return out
}

// softplus is log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteAll(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
