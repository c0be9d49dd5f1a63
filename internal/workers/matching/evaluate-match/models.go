// internal/workers/matching/evaluate-match/models.go
package evaluatematch

import "scholarship-engine/internal/models"

type Input struct {
	StudentID     string `json:"studentId" validate:"required"`
	ScholarshipID string `json:"scholarshipId" validate:"required"`
}

// Output is merged into the process instance variables.
type Output struct {
	IsEligible         bool                       `json:"isEligible"`
	EligibilityDetails []models.EligibilityDetail `json:"eligibilityDetails"`
	FailedCriteria     []string                   `json:"failedCriteria"`
	PredictionScore    *float64                   `json:"predictionScore,omitempty"`
	PredictionStatus   models.PredictionStatus    `json:"predictionStatus"`
	ModelVersion       int                        `json:"modelVersion,omitempty"`
}
