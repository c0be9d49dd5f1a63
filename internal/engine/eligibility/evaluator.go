package eligibility

import "scholarship-engine/internal/models"

// Evaluate runs every criterion the scholarship defines and reports each
// verdict. IsEligible is the AND of all verdicts, so a scholarship without
// criteria is vacuously open. Evaluate is pure and safe for concurrent use.
func Evaluate(student models.StudentProfile, scholarship models.Scholarship) models.MatchResult {
	result := EvaluateCriteria(student, FromCriteria(scholarship.Criteria))
	result.ScholarshipID = scholarship.ID
	return result
}

// EvaluateCriteria is Evaluate over an explicit criterion list.
func EvaluateCriteria(student models.StudentProfile, criteria []Criterion) models.MatchResult {
	result := models.MatchResult{
		StudentID:          student.ID,
		IsEligible:         true,
		EligibilityDetails: make([]models.EligibilityDetail, 0, len(criteria)),
		PredictionStatus:   models.PredictionNotApplicable,
	}
	for _, c := range criteria {
		passed, msg := c.Evaluate(student)
		result.EligibilityDetails = append(result.EligibilityDetails, models.EligibilityDetail{
			Criterion: c.Name(),
			Passed:    passed,
			Message:   msg,
		})
		result.IsEligible = result.IsEligible && passed
	}
	return result
}
