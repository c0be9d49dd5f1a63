// internal/models/student.go
package models

// YearLevel is the student's standing. The zero value means "not on file".
type YearLevel string

const (
	YearLevelFirst  YearLevel = "1st"
	YearLevelSecond YearLevel = "2nd"
	YearLevelThird  YearLevel = "3rd"
	YearLevelFourth YearLevel = "4th"
	YearLevelFifth  YearLevel = "5th"
)

// Rank returns 1..5 for known levels and 0 otherwise.
func (y YearLevel) Rank() int {
	switch y {
	case YearLevelFirst:
		return 1
	case YearLevelSecond:
		return 2
	case YearLevelThird:
		return 3
	case YearLevelFourth:
		return 4
	case YearLevelFifth:
		return 5
	default:
		return 0
	}
}

// MaxYearLevelRank is the highest rank a YearLevel can have.
const MaxYearLevelRank = 5

// College is a degree-granting unit code.
type College string

const (
	CollegeCAS  College = "CAS"
	CollegeCAFS College = "CAFS"
	CollegeCEAT College = "CEAT"
	CollegeCEM  College = "CEM"
	CollegeCFNR College = "CFNR"
	CollegeCHE  College = "CHE"
	CollegeCVM  College = "CVM"
	CollegeCDC  College = "CDC"
	CollegeCPAf College = "CPAf"
	CollegeGS   College = "GS"
)

// StudentProfile is a read-only snapshot of the attributes the engine decides on.
// Nil pointers mean the attribute is not on file.
type StudentProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`

	GWA                    *float64  `json:"gwa,omitempty"`
	YearLevel              YearLevel `json:"yearLevel,omitempty"`
	College                College   `json:"college,omitempty"`
	AnnualFamilyIncome     *float64  `json:"annualFamilyIncome,omitempty"`
	HouseholdSize          *int      `json:"householdSize,omitempty"`
	ProvinceOfOrigin       string    `json:"provinceOfOrigin,omitempty"`
	HasApprovedThesis      *bool     `json:"hasApprovedThesis,omitempty"`
	IsScholarshipRecipient *bool     `json:"isScholarshipRecipient,omitempty"`
	HasDisciplinaryAction  *bool     `json:"hasDisciplinaryAction,omitempty"`
	UnitsEnrolled          *int      `json:"unitsEnrolled,omitempty"`
	UnitsPassed            *int      `json:"unitsPassed,omitempty"`
}

// Float64 returns a pointer to v. Convenient for building profiles in code.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
