package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scholarship-engine/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithFields(map[string]interface{}{"studentId": "stu-1"}).
		Info("match evaluated", map[string]interface{}{"isEligible": true})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "match evaluated", entries[0].Message)
		assert.Equal(t, "stu-1", ctx["studentId"])
		assert.Equal(t, true, ctx["isEligible"])
	}
}

func TestZapWrapper_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	log.WithError(errors.New("boom")).Error("training failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	}
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"WARN", zapcore.WarnLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, "json")
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewFromConfig_FileOutputWithServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	l, err := NewFromConfig(config.LoggingConfig{Level: "info", Format: "json", Output: path}, "scholarship-engine", "1.2.0")
	require.NoError(t, err)

	NewZapAdapter(l).Info("model activated", map[string]interface{}{"modelVersion": 3})
	l.Debug("dropped below level")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "model activated", entry["msg"])
	assert.Equal(t, "scholarship-engine", entry["service"])
	assert.Equal(t, "1.2.0", entry["version"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewFromConfig_BadOutputPath(t *testing.T) {
	_, err := NewFromConfig(config.LoggingConfig{Output: filepath.Join(t.TempDir(), "missing", "x.log")}, "svc", "v")
	assert.Error(t, err)
}

func TestToZapFields_SortedKeys(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
	assert.Nil(t, toZapFields(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel(" Debug "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}
