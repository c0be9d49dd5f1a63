package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON_TrainingCorpus(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{
			name:      "valid corpus",
			doc:       `{"featureNames":["a","b"],"examples":[{"features":[1,0.5],"outcome":1},{"features":[0,0],"outcome":0}]}`,
			wantValid: true,
		},
		{
			name:      "non-binary outcome",
			doc:       `{"examples":[{"features":[1],"outcome":2}]}`,
			wantField: "examples.0.outcome",
		},
		{
			name:      "missing features",
			doc:       `{"examples":[{"outcome":1}]}`,
			wantField: "examples.0",
		},
		{
			name:      "duplicate feature names",
			doc:       `{"featureNames":["a","a"],"examples":[]}`,
			wantField: "featureNames",
		},
		{
			name:      "string feature value",
			doc:       `{"examples":[{"features":["x"],"outcome":0}]}`,
			wantField: "examples.0.features.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateJSON(TrainingCorpusSchema, []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
				assert.NotEmpty(t, res.Error())
			}
		})
	}
}

func TestValidateValue_Model(t *testing.T) {
	valid := map[string]interface{}{
		"version":      3,
		"featureNames": []interface{}{"gwa_score"},
		"weights":      []interface{}{0.4},
		"bias":         -0.2,
	}
	res, err := ValidateValue(ModelSchema, valid)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = ValidateValue(ModelSchema, map[string]interface{}{"version": 1})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	_, err := ValidateJSON(TrainingCorpusSchema, []byte(`{not json`))
	assert.Error(t, err)
}
