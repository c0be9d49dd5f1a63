package modelstore

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/common/validation"
	"scholarship-engine/internal/models"
)

// LoadFile reads a serialized model, checks it against the model schema and
// the structural invariants, and returns it.
func LoadFile(path string) (*models.Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return Decode(raw)
}

// Decode parses a model document.
func Decode(raw []byte) (*models.Model, error) {
	res, err := validation.ValidateJSON(validation.ModelSchema, raw)
	if err != nil {
		return nil, apperrors.NewInvalidModelError(err)
	}
	if !res.Valid {
		return nil, apperrors.NewInvalidModelError(fmt.Errorf("%s", res.Error()))
	}

	var m models.Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperrors.NewInvalidModelError(err)
	}
	if err := m.Validate(); err != nil {
		return nil, apperrors.NewInvalidModelError(err)
	}
	return &m, nil
}

// SaveFile writes m as indented JSON.
func SaveFile(path string, m *models.Model) error {
	if err := m.Validate(); err != nil {
		return apperrors.NewInvalidModelError(err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
