package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"
)

type ScholarshipRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewScholarshipRepository(db *sql.DB, log logger.Logger) *ScholarshipRepository {
	return &ScholarshipRepository{db: db, logger: log.WithFields(map[string]interface{}{"repository": "scholarships"})}
}

// GetScholarship returns SCHOLARSHIP_NOT_FOUND when no row exists.
func (r *ScholarshipRepository) GetScholarship(ctx context.Context, id string) (*models.Scholarship, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, provider, description, criteria FROM scholarships WHERE id = $1`, id)

	var sch models.Scholarship
	var criteria []byte
	err := row.Scan(&sch.ID, &sch.Name, &sch.Provider, &sch.Description, &criteria)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewScholarshipNotFoundError(id)
	}
	if err != nil {
		r.logger.Error("scholarship query failed", map[string]interface{}{"scholarshipId": id, "error": err.Error()})
		return nil, queryError(ctx, "get_scholarship", err)
	}
	if err := decodeCriteria(criteria, &sch.Criteria); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get_scholarship", fmt.Errorf("scholarship %s: %w", id, err))
	}
	return &sch, nil
}

func decodeCriteria(raw []byte, dst *models.EligibilityCriteria) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode criteria: %w", err)
	}
	return nil
}
