// Package eligibility decides whether a student may apply to a scholarship.
// Every criterion is evaluated, none short-circuits, and any criterion that
// references a missing student attribute fails.
package eligibility

import (
	"fmt"
	"strings"

	"scholarship-engine/internal/models"
)

// Criterion is one independently checkable constraint. The set of kinds is
// closed: only this package can implement it.
type Criterion interface {
	Name() string
	Evaluate(student models.StudentProfile) (passed bool, message string)
	criterion()
}

type MaxGWA struct{ Limit float64 }

type RequiredYearLevels struct{ Levels []models.YearLevel }

type EligibleColleges struct{ Colleges []models.College }

type MaxAnnualFamilyIncome struct{ Limit float64 }

type EligibleProvinces struct{ Provinces []string }

type RequiresApprovedThesis struct{}

type MustNotHaveOtherScholarship struct{}

func (MaxGWA) criterion()                      {}
func (RequiredYearLevels) criterion()          {}
func (EligibleColleges) criterion()            {}
func (MaxAnnualFamilyIncome) criterion()       {}
func (EligibleProvinces) criterion()           {}
func (RequiresApprovedThesis) criterion()      {}
func (MustNotHaveOtherScholarship) criterion() {}

func (MaxGWA) Name() string                      { return models.CriterionMaxGWA }
func (RequiredYearLevels) Name() string          { return models.CriterionRequiredYearLevels }
func (EligibleColleges) Name() string            { return models.CriterionEligibleColleges }
func (MaxAnnualFamilyIncome) Name() string       { return models.CriterionMaxAnnualFamilyIncome }
func (EligibleProvinces) Name() string           { return models.CriterionEligibleProvinces }
func (RequiresApprovedThesis) Name() string      { return models.CriterionRequiresApprovedThesis }
func (MustNotHaveOtherScholarship) Name() string { return models.CriterionMustNotHaveOtherScholarship }

// Lower GWA is better, so the limit is an upper bound.
func (c MaxGWA) Evaluate(s models.StudentProfile) (bool, string) {
	if s.GWA == nil {
		return false, "GWA not on file"
	}
	if *s.GWA <= c.Limit {
		return true, fmt.Sprintf("GWA %.2f meets the %.2f maximum", *s.GWA, c.Limit)
	}
	return false, fmt.Sprintf("GWA %.2f exceeds the %.2f maximum", *s.GWA, c.Limit)
}

func (c RequiredYearLevels) Evaluate(s models.StudentProfile) (bool, string) {
	if len(c.Levels) == 0 {
		return true, "no year level restriction"
	}
	if s.YearLevel == "" {
		return false, "year level not on file"
	}
	for _, l := range c.Levels {
		if l == s.YearLevel {
			return true, fmt.Sprintf("year level %s is accepted", s.YearLevel)
		}
	}
	return false, fmt.Sprintf("year level %s is not one of %s", s.YearLevel, joinYearLevels(c.Levels))
}

func (c EligibleColleges) Evaluate(s models.StudentProfile) (bool, string) {
	if len(c.Colleges) == 0 {
		return true, "no college restriction"
	}
	if s.College == "" {
		return false, "college not on file"
	}
	for _, col := range c.Colleges {
		if col == s.College {
			return true, fmt.Sprintf("college %s is accepted", s.College)
		}
	}
	return false, fmt.Sprintf("college %s is not one of %s", s.College, joinColleges(c.Colleges))
}

func (c MaxAnnualFamilyIncome) Evaluate(s models.StudentProfile) (bool, string) {
	if s.AnnualFamilyIncome == nil {
		return false, "annual family income not on file"
	}
	if *s.AnnualFamilyIncome <= c.Limit {
		return true, fmt.Sprintf("annual family income %.0f is within the %.0f ceiling", *s.AnnualFamilyIncome, c.Limit)
	}
	return false, fmt.Sprintf("annual family income %.0f exceeds the %.0f ceiling", *s.AnnualFamilyIncome, c.Limit)
}

// Province names are compared case-insensitively with surrounding space trimmed.
func (c EligibleProvinces) Evaluate(s models.StudentProfile) (bool, string) {
	if len(c.Provinces) == 0 {
		return true, "no province restriction"
	}
	province := strings.TrimSpace(s.ProvinceOfOrigin)
	if province == "" {
		return false, "province of origin not on file"
	}
	for _, p := range c.Provinces {
		if strings.EqualFold(strings.TrimSpace(p), province) {
			return true, fmt.Sprintf("province %s is accepted", province)
		}
	}
	return false, fmt.Sprintf("province %s is not one of %s", province, strings.Join(c.Provinces, ", "))
}

func (RequiresApprovedThesis) Evaluate(s models.StudentProfile) (bool, string) {
	if s.HasApprovedThesis == nil {
		return false, "thesis status not on file"
	}
	if *s.HasApprovedThesis {
		return true, "thesis is approved"
	}
	return false, "an approved thesis is required"
}

func (MustNotHaveOtherScholarship) Evaluate(s models.StudentProfile) (bool, string) {
	if s.IsScholarshipRecipient == nil {
		return false, "scholarship status not on file"
	}
	if *s.IsScholarshipRecipient {
		return false, "student already holds another scholarship"
	}
	return true, "student holds no other scholarship"
}

// FromCriteria converts the stored criteria form into the evaluable variants in
// a fixed order, skipping dimensions the scholarship does not restrict.
func FromCriteria(c models.EligibilityCriteria) []Criterion {
	out := make([]Criterion, 0, 7)
	if c.MaxGWA != nil {
		out = append(out, MaxGWA{Limit: *c.MaxGWA})
	}
	if len(c.RequiredYearLevels) > 0 {
		out = append(out, RequiredYearLevels{Levels: c.RequiredYearLevels})
	}
	if len(c.EligibleColleges) > 0 {
		out = append(out, EligibleColleges{Colleges: c.EligibleColleges})
	}
	if c.MaxAnnualFamilyIncome != nil {
		out = append(out, MaxAnnualFamilyIncome{Limit: *c.MaxAnnualFamilyIncome})
	}
	if len(c.EligibleProvinces) > 0 {
		out = append(out, EligibleProvinces{Provinces: c.EligibleProvinces})
	}
	if c.RequiresApprovedThesis {
		out = append(out, RequiresApprovedThesis{})
	}
	if c.MustNotHaveOtherScholarship {
		out = append(out, MustNotHaveOtherScholarship{})
	}
	return out
}

func joinYearLevels(levels []models.YearLevel) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func joinColleges(colleges []models.College) string {
	parts := make([]string, len(colleges))
	for i, c := range colleges {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
