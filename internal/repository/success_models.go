package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/logger"
	"scholarship-engine/internal/models"
)

// modelParams is the JSON stored in success_models.params.
type modelParams struct {
	FeatureNames []string          `json:"featureNames"`
	Weights      []float64         `json:"weights"`
	Bias         float64           `json:"bias"`
	CategoryOf   map[string]string `json:"categoryOf"`
}

// ModelRepository keeps every trained version; at most one row is active.
type ModelRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewModelRepository(db *sql.DB, log logger.Logger) *ModelRepository {
	return &ModelRepository{db: db, logger: log.WithFields(map[string]interface{}{"repository": "success_models"})}
}

// Save inserts m as an inactive version.
func (r *ModelRepository) Save(ctx context.Context, m *models.Model) error {
	params, err := json.Marshal(modelParams{
		FeatureNames: m.FeatureNames,
		Weights:      m.Weights,
		Bias:         m.Bias,
		CategoryOf:   m.CategoryOf,
	})
	if err != nil {
		return fmt.Errorf("encode model params: %w", err)
	}
	var metrics []byte
	if m.Metrics != nil {
		if metrics, err = json.Marshal(m.Metrics); err != nil {
			return fmt.Errorf("encode model metrics: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO success_models (version, params, metrics, training_examples, trained_at, is_active)
		VALUES ($1, $2, $3, $4, $5, FALSE)`,
		m.Version, params, metrics, m.TrainingExamples, m.TrainedAt)
	if err != nil {
		r.logger.Error("model insert failed", map[string]interface{}{"version": m.Version, "error": err.Error()})
		return queryError(ctx, "save_model", err)
	}
	return nil
}

// Activate marks version as the only active row.
func (r *ModelRepository) Activate(ctx context.Context, version int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE success_models SET is_active = FALSE WHERE is_active`); err != nil {
		return queryError(ctx, "deactivate_models", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE success_models SET is_active = TRUE WHERE version = $1`, version)
	if err != nil {
		return queryError(ctx, "activate_model", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewModelNotFoundError(fmt.Sprintf("version %d", version))
	}
	if err := tx.Commit(); err != nil {
		return queryError(ctx, "activate_model", err)
	}

	r.logger.Info("model activated", map[string]interface{}{"version": version})
	return nil
}

// GetActive returns MODEL_NOT_FOUND when no version is active.
func (r *ModelRepository) GetActive(ctx context.Context) (*models.Model, error) {
	return r.getOne(ctx, "get_active_model", `WHERE is_active`, "no active model")
}

func (r *ModelRepository) Get(ctx context.Context, version int) (*models.Model, error) {
	return r.getOne(ctx, "get_model", `WHERE version = $1`, fmt.Sprintf("version %d", version), version)
}

// LatestVersion returns the highest stored version, 0 when the table is empty.
func (r *ModelRepository) LatestVersion(ctx context.Context) (int, error) {
	var version int
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM success_models`).Scan(&version); err != nil {
		return 0, queryError(ctx, "latest_model_version", err)
	}
	return version, nil
}

func (r *ModelRepository) getOne(ctx context.Context, name, where, notFound string, args ...interface{}) (*models.Model, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT version, params, metrics, training_examples, trained_at FROM success_models `+where, args...)

	var (
		m       models.Model
		params  []byte
		metrics []byte
		trained time.Time
	)
	err := row.Scan(&m.Version, &params, &metrics, &m.TrainingExamples, &trained)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewModelNotFoundError(notFound)
	}
	if err != nil {
		return nil, queryError(ctx, name, err)
	}

	var p modelParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, apperrors.NewInvalidModelError(fmt.Errorf("decode params of version %d: %w", m.Version, err))
	}
	m.FeatureNames, m.Weights, m.Bias, m.CategoryOf = p.FeatureNames, p.Weights, p.Bias, p.CategoryOf
	m.TrainedAt = trained.UTC()
	if len(metrics) > 0 {
		var tm models.TrainingMetrics
		if err := json.Unmarshal(metrics, &tm); err == nil {
			m.Metrics = &tm
		}
	}
	return &m, nil
}
