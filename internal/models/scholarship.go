// internal/models/scholarship.go
package models

// Scholarship is owned by the scholarship-management subsystem; the engine only reads it.
type Scholarship struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Provider    string              `json:"provider,omitempty"`
	Description string              `json:"description,omitempty"`
	Criteria    EligibilityCriteria `json:"criteria"`
}

// EligibilityCriteria is the stored form of a scholarship's constraints.
// An absent field (nil limit, empty set, false flag) does not restrict.
type EligibilityCriteria struct {
	MaxGWA                      *float64    `json:"maxGWA,omitempty"`
	RequiredYearLevels          []YearLevel `json:"requiredYearLevels,omitempty"`
	EligibleColleges            []College   `json:"eligibleColleges,omitempty"`
	MaxAnnualFamilyIncome       *float64    `json:"maxAnnualFamilyIncome,omitempty"`
	EligibleProvinces           []string    `json:"eligibleProvinces,omitempty"`
	RequiresApprovedThesis      bool        `json:"requiresApprovedThesis,omitempty"`
	MustNotHaveOtherScholarship bool        `json:"mustNotHaveOtherScholarship,omitempty"`
}

// Criterion names as reported in EligibilityDetail.Criterion.
const (
	CriterionMaxGWA                      = "maxGWA"
	CriterionRequiredYearLevels          = "requiredYearLevels"
	CriterionEligibleColleges            = "eligibleColleges"
	CriterionMaxAnnualFamilyIncome       = "maxAnnualFamilyIncome"
	CriterionEligibleProvinces           = "eligibleProvinces"
	CriterionRequiresApprovedThesis      = "requiresApprovedThesis"
	CriterionMustNotHaveOtherScholarship = "mustNotHaveOtherScholarship"
)
