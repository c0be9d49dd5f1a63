package modelstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "scholarship-engine/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFile_LoadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	m := model(3, 0.5)
	m.CategoryOf = map[string]string{"a": "Academic", "b": "Financial", "c": "Academic"}

	require.NoError(t, SaveFile(path, m))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, m.FeatureNames, got.FeatureNames)
	assert.Equal(t, m.Weights, got.Weights)
	assert.Equal(t, "Financial", got.CategoryOf["b"])
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing weights", `{"version":1,"featureNames":["a"],"bias":0}`},
		{"duplicate names", `{"version":1,"featureNames":["a","a"],"weights":[1,2],"bias":0}`},
		{"length mismatch", `{"version":1,"featureNames":["a","b"],"weights":[1],"bias":0}`},
		{"not json", `{version`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, apperrors.ErrCodeInvalidModel, stdErr.Code)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSaveFile_RefusesInvalidModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	bad := model(1, 0.1)
	bad.Weights = bad.Weights[:2]

	err := SaveFile(path, bad)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
