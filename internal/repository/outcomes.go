package repository

import (
	"context"
	"database/sql"

	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"
)

type OutcomeRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewOutcomeRepository(db *sql.DB, log logger.Logger) *OutcomeRepository {
	return &OutcomeRepository{db: db, logger: log.WithFields(map[string]interface{}{"repository": "outcomes"})}
}

// ListDecided returns approved and rejected applications with the current
// student and scholarship rows they refer to. An empty scholarshipID means all
// scholarships. Pending and in-review applications are never returned.
func (r *OutcomeRepository) ListDecided(ctx context.Context, scholarshipID string) ([]models.HistoricalApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+studentColumns+`, a.id, a.status, sc.id, sc.name, sc.criteria
		FROM scholarship_applications a
		JOIN students s ON s.id = a.student_id
		JOIN scholarships sc ON sc.id = a.scholarship_id
		WHERE a.status IN ('approved', 'rejected')
		  AND ($1 = '' OR a.scholarship_id = $1)
		ORDER BY a.decided_at NULLS LAST, a.id`, scholarshipID)
	if err != nil {
		r.logger.Error("outcome query failed", map[string]interface{}{"scholarshipId": scholarshipID, "error": err.Error()})
		return nil, queryError(ctx, "list_decided_applications", err)
	}
	defer rows.Close()

	var out []models.HistoricalApplication
	for rows.Next() {
		var app models.HistoricalApplication
		var status string
		var criteria []byte
		student, err := scanStudent(rows, &app.ApplicationID, &status, &app.Scholarship.ID, &app.Scholarship.Name, &criteria)
		if err != nil {
			return nil, queryError(ctx, "list_decided_applications", err)
		}
		if err := decodeCriteria(criteria, &app.Scholarship.Criteria); err != nil {
			r.logger.Warn("skipping application with unreadable criteria", map[string]interface{}{
				"applicationId": app.ApplicationID,
				"error":         err.Error(),
			})
			continue
		}
		app.Student = *student
		app.Status = models.ApplicationStatus(status)
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(ctx, "list_decided_applications", err)
	}
	return out, nil
}
