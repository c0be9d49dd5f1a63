// Package modelstore holds the model currently used for serving.
package modelstore

import (
	"sync/atomic"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"
)

// Store publishes one immutable model at a time. Readers never lock: Current
// is a single atomic load, so a reader sees either the old or the new model.
type Store struct {
	current atomic.Pointer[models.Model]
}

func New() *Store {
	return &Store{}
}

// Activate validates m and swaps a private copy in. It returns the model
// that was active before, if any.
func (s *Store) Activate(m *models.Model) (*models.Model, error) {
	if err := m.Validate(); err != nil {
		return nil, apperrors.NewInvalidModelError(err)
	}
	return s.current.Swap(m.Clone()), nil
}

// Current returns the active model. Callers must not modify it.
func (s *Store) Current() (*models.Model, bool) {
	m := s.current.Load()
	return m, m != nil
}

// Version returns the active version, or 0 when nothing is active.
func (s *Store) Version() int {
	if m := s.current.Load(); m != nil {
		return m.Version
	}
	return 0
}
