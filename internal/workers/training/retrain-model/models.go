// internal/workers/training/retrain-model/models.go
package retrainmodel

type Input struct {
	ScholarshipID string   `json:"scholarshipId,omitempty"`
	FeatureNames  []string `json:"featureNames,omitempty"`
}

type Output struct {
	TrainingRunID  string  `json:"trainingRunId"`
	ModelVersion   int     `json:"modelVersion"`
	ModelActivated bool    `json:"modelActivated"`
	Examples       int     `json:"trainingExamples"`
	FinalLoss      float64 `json:"finalLoss"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
	Accuracy       float64 `json:"trainingAccuracy"`
}
