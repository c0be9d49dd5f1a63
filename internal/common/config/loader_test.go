package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
app:
  name: scholarship-engine
database:
  postgres:
    host: ${TEST_PG_HOST}
    database: scholarships
    user: engine
workers:
  evaluate-scholarship-match:
    enabled: true
training:
  max_iterations: 1200
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_DefaultsAndExpansion(t *testing.T) {
	t.Setenv("TEST_PG_HOST", "db.internal")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())

	assert.Equal(t, 1200, cfg.Training.MaxIterations)
	assert.Equal(t, 0.1, cfg.Training.LearningRate)
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, "success-model:activated", cfg.Model.SyncChannel)

	w := GetWorkerConfig(cfg, "evaluate-scholarship-match")
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			yaml:    "database:\n  postgres:\n    database: x\n    user: y\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name: "camunda enabled without broker",
			yaml: "camunda:\n  enabled: true\n" +
				"database:\n  postgres:\n    host: h\n    database: x\n    user: y\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "sns enabled without topic",
			yaml: "integrations:\n  aws:\n    sns:\n      enabled: true\n" +
				"database:\n  postgres:\n    host: h\n    database: x\n    user: y\n",
			wantErr: "topic_arn is required",
		},
		{
			name: "negative l2",
			yaml: "training:\n  l2_penalty: -1\n" +
				"database:\n  postgres:\n    host: h\n    database: x\n    user: y\n",
			wantErr: "l2_penalty must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsWorkerEnabled_DefaultsToTrue(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"retrain-success-model": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "retrain-success-model"))
	assert.True(t, IsWorkerEnabled(cfg, "evaluate-scholarship-match"))
}
