// Package features turns a (student, scholarship) pair into the numeric vector
// the success model is trained and served on. Every value is in [0, 1] with
// higher meaning a better fit; a missing attribute yields 0.
package features

import (
	"math"
	"strings"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"
)

const (
	GWAScore           = "gwa_score"
	UnitsCompletion    = "units_completion"
	ThesisReady        = "thesis_ready"
	IncomeHeadroom     = "income_headroom"
	PerCapitaNeed      = "per_capita_need"
	NoOtherScholarship = "no_other_scholarship"
	YearLevelProximity = "year_level_proximity"
	CollegeMatch       = "college_match"
	ProvinceMatch      = "province_match"
	CleanRecord        = "clean_record"
)

const (
	CategoryAcademic  = "Academic Performance"
	CategoryFinancial = "Financial Need"
	CategoryMatch     = "Overall Match"
)

const (
	worstGWA = 5.0
	gwaSpan  = 4.0

	// DefaultIncomeCeiling applies when the scholarship sets no income limit.
	DefaultIncomeCeiling = 1_000_000.0
	// PerCapitaReference is the per-member income at which per_capita_need reaches 0.
	PerCapitaReference = 250_000.0

	// openMatch is the value of a set-membership feature when the scholarship
	// does not restrict that dimension.
	openMatch = 0.5
)

type extractor func(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation)

type feature struct {
	name     string
	category string
	extract  extractor
}

var registry = []feature{
	{GWAScore, CategoryAcademic, gwaScore},
	{UnitsCompletion, CategoryAcademic, unitsCompletion},
	{ThesisReady, CategoryAcademic, thesisReady},
	{IncomeHeadroom, CategoryFinancial, incomeHeadroom},
	{PerCapitaNeed, CategoryFinancial, perCapitaNeed},
	{NoOtherScholarship, CategoryFinancial, noOtherScholarship},
	{YearLevelProximity, CategoryMatch, yearLevelProximity},
	{CollegeMatch, CategoryMatch, collegeMatch},
	{ProvinceMatch, CategoryMatch, provinceMatch},
	{CleanRecord, CategoryMatch, cleanRecord},
}

var byName = func() map[string]feature {
	m := make(map[string]feature, len(registry))
	for _, f := range registry {
		m[f.name] = f
	}
	return m
}()

// DefaultFeatureNames returns the canonical feature order used for new models.
func DefaultFeatureNames() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.name
	}
	return names
}

// DefaultCategories maps every known feature to its explanation category.
func DefaultCategories() map[string]string {
	out := make(map[string]string, len(registry))
	for _, f := range registry {
		out[f.name] = f.category
	}
	return out
}

// Known reports whether name is an extractable feature.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Extract builds the vector in exactly the order of names, which must be the
// FeatureNames of the model it will be scored against.
func Extract(student models.StudentProfile, scholarship models.Scholarship, names []string) (models.FeatureVector, error) {
	vec := models.FeatureVector{
		Names:        append([]string(nil), names...),
		Values:       make([]float64, len(names)),
		Observations: make([]models.Observation, len(names)),
	}
	for i, n := range names {
		f, ok := byName[n]
		if !ok {
			return models.FeatureVector{}, apperrors.NewFeatureSchemaMismatchError("unknown feature " + n)
		}
		v, obs := f.extract(student, scholarship)
		vec.Values[i] = clamp01(v)
		vec.Observations[i] = obs
	}
	return vec, nil
}

func gwaScore(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation) {
	if s.GWA == nil {
		return 0, models.Observation{}
	}
	return (worstGWA - *s.GWA) / gwaSpan, models.Observation{Present: true, Raw: *s.GWA, Threshold: sch.Criteria.MaxGWA}
}

func unitsCompletion(s models.StudentProfile, _ models.Scholarship) (float64, models.Observation) {
	if s.UnitsEnrolled == nil || s.UnitsPassed == nil || *s.UnitsEnrolled <= 0 {
		return 0, models.Observation{}
	}
	ratio := float64(*s.UnitsPassed) / float64(*s.UnitsEnrolled)
	enrolled := float64(*s.UnitsEnrolled)
	return ratio, models.Observation{Present: true, Raw: float64(*s.UnitsPassed), Threshold: &enrolled}
}

func thesisReady(s models.StudentProfile, _ models.Scholarship) (float64, models.Observation) {
	return flag(s.HasApprovedThesis, true)
}

func incomeHeadroom(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation) {
	if s.AnnualFamilyIncome == nil {
		return 0, models.Observation{}
	}
	ceiling := DefaultIncomeCeiling
	if sch.Criteria.MaxAnnualFamilyIncome != nil && *sch.Criteria.MaxAnnualFamilyIncome > 0 {
		ceiling = *sch.Criteria.MaxAnnualFamilyIncome
	}
	return 1 - *s.AnnualFamilyIncome/ceiling, models.Observation{Present: true, Raw: *s.AnnualFamilyIncome, Threshold: &ceiling}
}

func perCapitaNeed(s models.StudentProfile, _ models.Scholarship) (float64, models.Observation) {
	if s.AnnualFamilyIncome == nil || s.HouseholdSize == nil || *s.HouseholdSize <= 0 {
		return 0, models.Observation{}
	}
	perCapita := *s.AnnualFamilyIncome / float64(*s.HouseholdSize)
	ref := PerCapitaReference
	return 1 - perCapita/ref, models.Observation{Present: true, Raw: perCapita, Threshold: &ref}
}

func noOtherScholarship(s models.StudentProfile, _ models.Scholarship) (float64, models.Observation) {
	return flag(s.IsScholarshipRecipient, false)
}

func yearLevelProximity(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation) {
	rank := s.YearLevel.Rank()
	if rank == 0 {
		return 0, models.Observation{}
	}
	obs := models.Observation{Present: true, Raw: float64(rank), Label: string(s.YearLevel)}
	if len(sch.Criteria.RequiredYearLevels) == 0 {
		return 1, obs
	}
	best := -1
	for _, l := range sch.Criteria.RequiredYearLevels {
		r := l.Rank()
		if r == 0 {
			continue
		}
		d := rank - r
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0, obs
	}
	dist := float64(best)
	obs.Threshold = &dist
	return 1 - dist/float64(models.MaxYearLevelRank-1), obs
}

func collegeMatch(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation) {
	if s.College == "" {
		return 0, models.Observation{}
	}
	targets := make([]string, len(sch.Criteria.EligibleColleges))
	for i, c := range sch.Criteria.EligibleColleges {
		targets[i] = string(c)
	}
	return membership(string(s.College), targets)
}

func provinceMatch(s models.StudentProfile, sch models.Scholarship) (float64, models.Observation) {
	province := strings.TrimSpace(s.ProvinceOfOrigin)
	if province == "" {
		return 0, models.Observation{}
	}
	return membership(province, sch.Criteria.EligibleProvinces)
}

func cleanRecord(s models.StudentProfile, _ models.Scholarship) (float64, models.Observation) {
	return flag(s.HasDisciplinaryAction, false)
}

// flag yields 1 when the attribute is on file and equals want.
func flag(v *bool, want bool) (float64, models.Observation) {
	if v == nil {
		return 0, models.Observation{}
	}
	obs := models.Observation{Present: true}
	if *v {
		obs.Raw = 1
	}
	if *v == want {
		return 1, obs
	}
	return 0, obs
}

// membership scores a targeted match 1, an unrestricted dimension openMatch, and anything else 0.
func membership(value string, targets []string) (float64, models.Observation) {
	obs := models.Observation{Present: true, Label: value}
	if len(targets) == 0 {
		obs.Raw = openMatch
		return openMatch, obs
	}
	for _, t := range targets {
		if strings.EqualFold(strings.TrimSpace(t), value) {
			obs.Raw = 1
			return 1, obs
		}
	}
	return 0, obs
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
