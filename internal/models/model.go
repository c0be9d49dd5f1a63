// internal/models/model.go
package models

import (
	"fmt"
	"math"
	"time"
)

// Observation is the raw input behind one feature value, kept for description templates.
type Observation struct {
	Present   bool     `json:"present"`
	Raw       float64  `json:"raw"`
	Threshold *float64 `json:"threshold,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// FeatureVector is an ordered name -> value mapping. Names, Values and
// Observations are index aligned.
type FeatureVector struct {
	Names        []string      `json:"names"`
	Values       []float64     `json:"values"`
	Observations []Observation `json:"observations,omitempty"`
}

func (v FeatureVector) Len() int { return len(v.Values) }

// Get returns the value for name and whether it exists.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name && i < len(v.Values) {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Model is a published logistic-regression parameter set. Treat as immutable:
// a training run produces a new Model and never edits an existing one.
type Model struct {
	Version          int               `json:"version"`
	FeatureNames     []string          `json:"featureNames"`
	Weights          []float64         `json:"weights"`
	Bias             float64           `json:"bias"`
	CategoryOf       map[string]string `json:"categoryOf"`
	TrainedAt        time.Time         `json:"trainedAt"`
	TrainingExamples int               `json:"trainingExamples,omitempty"`
	Metrics          *TrainingMetrics  `json:"metrics,omitempty"`
}

// Validate checks the structural invariants a servable model must hold.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("model is nil")
	}
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model v%d has no features", m.Version)
	}
	if len(m.Weights) != len(m.FeatureNames) {
		return fmt.Errorf("model v%d has %d weights for %d features", m.Version, len(m.Weights), len(m.FeatureNames))
	}
	seen := make(map[string]struct{}, len(m.FeatureNames))
	for _, n := range m.FeatureNames {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("model v%d lists feature %q twice", m.Version, n)
		}
		seen[n] = struct{}{}
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("model v%d weight %d (%s) is not finite", m.Version, i, m.FeatureNames[i])
		}
	}
	if math.IsNaN(m.Bias) || math.IsInf(m.Bias, 0) {
		return fmt.Errorf("model v%d bias is not finite", m.Version)
	}
	return nil
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := *m
	out.FeatureNames = append([]string(nil), m.FeatureNames...)
	out.Weights = append([]float64(nil), m.Weights...)
	out.CategoryOf = make(map[string]string, len(m.CategoryOf))
	for k, v := range m.CategoryOf {
		out.CategoryOf[k] = v
	}
	if m.Metrics != nil {
		metrics := *m.Metrics
		out.Metrics = &metrics
	}
	return &out
}
