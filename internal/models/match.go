// internal/models/match.go
package models

// EligibilityDetail is the verdict for one evaluated criterion.
type EligibilityDetail struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Message   string `json:"message,omitempty"`
}

type PredictionStatus string

const (
	PredictionAvailable     PredictionStatus = "available"
	PredictionUnavailable   PredictionStatus = "unavailable"
	PredictionNotApplicable PredictionStatus = "not_applicable"
)

// MatchResult is computed per request and never persisted.
// PredictionScore is set only when IsEligible is true and a model is active.
type MatchResult struct {
	StudentID          string              `json:"studentId,omitempty"`
	ScholarshipID      string              `json:"scholarshipId,omitempty"`
	IsEligible         bool                `json:"isEligible"`
	EligibilityDetails []EligibilityDetail `json:"eligibilityDetails"`
	PredictionScore    *float64            `json:"predictionScore,omitempty"`
	PredictionStatus   PredictionStatus    `json:"predictionStatus"`
	ModelVersion       int                 `json:"modelVersion,omitempty"`
}

// FailedCriteria returns the names of every failing criterion.
func (m *MatchResult) FailedCriteria() []string {
	failed := make([]string, 0)
	for _, d := range m.EligibilityDetails {
		if !d.Passed {
			failed = append(failed, d.Criterion)
		}
	}
	return failed
}

type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Contribution is one feature's share of a prediction's logit.
// ContributionPercentage is a signed fraction of the total absolute influence.
type Contribution struct {
	Factor                 string  `json:"factor"`
	Category               string  `json:"category"`
	Description            string  `json:"description"`
	Contribution           float64 `json:"contribution"`
	ContributionPercentage float64 `json:"contributionPercentage"`
	Impact                 Impact  `json:"impact"`
}

// Explanation is the categorized breakdown served to detail pages.
type Explanation struct {
	StudentID     string                    `json:"studentId,omitempty"`
	ScholarshipID string                    `json:"scholarshipId,omitempty"`
	Probability   float64                   `json:"probability"`
	Logit         float64                   `json:"logit"`
	Bias          float64                   `json:"bias"`
	ModelVersion  int                       `json:"modelVersion"`
	Factors       map[string][]Contribution `json:"factors"`
}
