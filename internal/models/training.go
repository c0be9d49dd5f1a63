// internal/models/training.go
package models

import "time"

// TrainingExample pairs a feature vector with a final decision (approved=1, rejected=0).
type TrainingExample struct {
	Features []float64 `json:"features"`
	Outcome  int       `json:"outcome"`
}

// ApplicationStatus mirrors the application workflow states.
type ApplicationStatus string

const (
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationInReview ApplicationStatus = "in_review"
)

// Outcome maps a decided status to 1/0. ok is false for undecided applications.
func (s ApplicationStatus) Outcome() (outcome int, ok bool) {
	switch s {
	case ApplicationApproved:
		return 1, true
	case ApplicationRejected:
		return 0, true
	default:
		return 0, false
	}
}

// HistoricalApplication is a decided application with the inputs it was decided on.
type HistoricalApplication struct {
	ApplicationID string            `json:"applicationId"`
	Student       StudentProfile    `json:"student"`
	Scholarship   Scholarship       `json:"scholarship"`
	Status        ApplicationStatus `json:"status"`
}

type TrainingMetrics struct {
	FinalLoss        float64 `json:"finalLoss"`
	BestLoss         float64 `json:"bestLoss"`
	Iterations       int     `json:"iterations"`
	Converged        bool    `json:"converged"`
	Accuracy         float64 `json:"accuracy"`
	PositiveExamples int     `json:"positiveExamples"`
	NegativeExamples int     `json:"negativeExamples"`
}

type TrainingRunStatus string

const (
	TrainingRunning   TrainingRunStatus = "running"
	TrainingSucceeded TrainingRunStatus = "succeeded"
	TrainingFailed    TrainingRunStatus = "failed"
)

// TrainingRun is the admin-facing record of one retraining attempt.
type TrainingRun struct {
	ID           string            `json:"runId"`
	Status       TrainingRunStatus `json:"status"`
	Trigger      string            `json:"trigger"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   *time.Time        `json:"finishedAt,omitempty"`
	ModelVersion int               `json:"modelVersion,omitempty"`
	Activated    bool              `json:"activated"`
	Examples     int               `json:"examples"`
	Metrics      *TrainingMetrics  `json:"metrics,omitempty"`
	ErrorCode    string            `json:"errorCode,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}
