// Package repository reads students, scholarships and decided applications,
// and persists trained success models.
package repository

import (
	"context"
	"database/sql"
	"errors"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"
)

const studentColumns = `s.id, s.first_name, s.last_name, s.email, s.gwa, s.year_level, s.college,
		s.annual_family_income, s.household_size, s.province_of_origin, s.has_approved_thesis,
		s.is_scholarship_recipient, s.has_disciplinary_action, s.units_enrolled, s.units_passed`

type StudentRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStudentRepository(db *sql.DB, log logger.Logger) *StudentRepository {
	return &StudentRepository{db: db, logger: log.WithFields(map[string]interface{}{"repository": "students"})}
}

// GetStudent returns STUDENT_NOT_FOUND when no row exists.
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students s WHERE s.id = $1`, id)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStudentNotFoundError(id)
	}
	if err != nil {
		r.logger.Error("student query failed", map[string]interface{}{"studentId": id, "error": err.Error()})
		return nil, queryError(ctx, "get_student", err)
	}
	return student, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanStudent reads studentColumns in order. NULL columns stay nil.
func scanStudent(row rowScanner, extra ...interface{}) (*models.StudentProfile, error) {
	var s models.StudentProfile
	var gwa, income sql.NullFloat64
	var yearLevel, college, province sql.NullString
	var household, enrolled, passed sql.NullInt64
	var thesis, recipient, disciplinary sql.NullBool
	dest := []interface{}{
		&s.ID, &s.FirstName, &s.LastName, &s.Email, &gwa, &yearLevel, &college,
		&income, &household, &province, &thesis,
		&recipient, &disciplinary, &enrolled, &passed,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	s.GWA = nullFloat(gwa)
	s.AnnualFamilyIncome = nullFloat(income)
	s.YearLevel = models.YearLevel(yearLevel.String)
	s.College = models.College(college.String)
	s.ProvinceOfOrigin = province.String
	s.HouseholdSize = nullInt(household)
	s.UnitsEnrolled = nullInt(enrolled)
	s.UnitsPassed = nullInt(passed)
	s.HasApprovedThesis = nullBool(thesis)
	s.IsScholarshipRecipient = nullBool(recipient)
	s.HasDisciplinaryAction = nullBool(disciplinary)
	return &s, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float64(v.Float64)
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.Int(int(v.Int64))
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return models.Bool(v.Bool)
}

func queryError(ctx context.Context, name string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(name)
	}
	return apperrors.NewQueryExecutionFailedError(name, err)
}
