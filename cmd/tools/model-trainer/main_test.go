package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarship-engine/internal/engine/modelstore"
	"scholarship-engine/internal/models"
)

func writeCorpus(t *testing.T, dir string, corpus corpusFile) string {
	t.Helper()
	raw, err := json.Marshal(corpus)
	require.NoError(t, err)
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func separableCorpus() corpusFile {
	return corpusFile{
		FeatureNames: []string{"gwa_score", "income_headroom"},
		Examples: []models.TrainingExample{
			{Features: []float64{0.9, 0.8}, Outcome: 1},
			{Features: []float64{0.8, 0.9}, Outcome: 1},
			{Features: []float64{0.95, 0.7}, Outcome: 1},
			{Features: []float64{0.85, 0.85}, Outcome: 1},
			{Features: []float64{0.1, 0.2}, Outcome: 0},
			{Features: []float64{0.2, 0.1}, Outcome: 0},
			{Features: []float64{0.15, 0.3}, Outcome: 0},
			{Features: []float64{0.05, 0.25}, Outcome: 0},
		},
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTrain_WritesModel(t *testing.T) {
	dir := t.TempDir()
	corpus := writeCorpus(t, dir, separableCorpus())
	modelPath := filepath.Join(dir, "model.json")

	out, err := execute(t, "train", "--corpus", corpus, "--out", modelPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "model v1 written")

	m, err := modelstore.LoadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, []string{"gwa_score", "income_headroom"}, m.FeatureNames)
	assert.Greater(t, m.Weights[0], 0.0)
	assert.Equal(t, 8, m.TrainingExamples)
	require.NotNil(t, m.Metrics)
	assert.Equal(t, 1.0, m.Metrics.Accuracy)
}

func TestTrain_PriorBumpsVersion(t *testing.T) {
	dir := t.TempDir()
	corpus := writeCorpus(t, dir, separableCorpus())
	first := filepath.Join(dir, "v1.json")
	second := filepath.Join(dir, "v2.json")

	_, err := execute(t, "train", "--corpus", corpus, "--out", first, "--log-level", "error")
	require.NoError(t, err)
	_, err = execute(t, "train", "--corpus", corpus, "--out", second, "--prior", first, "--log-level", "error")
	require.NoError(t, err)

	m, err := modelstore.LoadFile(second)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)
}

func TestTrain_RejectsUnknownFeature(t *testing.T) {
	dir := t.TempDir()
	corpus := separableCorpus()
	corpus.FeatureNames = []string{"gwa_score", "shoe_size"}
	path := writeCorpus(t, dir, corpus)

	_, err := execute(t, "train", "--corpus", path, "--out", filepath.Join(dir, "m.json"), "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")
}

func TestTrain_RequiresCorpusFlag(t *testing.T) {
	_, err := execute(t, "train")
	require.Error(t, err)
}

func TestInspect_PrintsWeightsByMagnitude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, modelstore.SaveFile(path, &models.Model{
		Version:      4,
		FeatureNames: []string{"gwa_score", "income_headroom", "clean_record"},
		Weights:      []float64{0.5, -2.0, 0.1},
		Bias:         -0.25,
		CategoryOf:   map[string]string{"gwa_score": "Academic Performance"},
	}))

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "version:  4")
	assert.Contains(t, out, "Academic Performance")

	income := bytes.Index([]byte(out), []byte("income_headroom"))
	gwa := bytes.Index([]byte(out), []byte("gwa_score"))
	clean := bytes.Index([]byte(out), []byte("clean_record"))
	assert.Less(t, income, gwa)
	assert.Less(t, gwa, clean)
}

func TestInspect_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"featureNames":["a"],"weights":[1,2],"bias":0}`), 0o644))

	_, err := execute(t, "inspect", path)
	require.Error(t, err)
}

func TestActivate_RequiresPositiveVersion(t *testing.T) {
	_, err := execute(t, "activate", "--version", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}
