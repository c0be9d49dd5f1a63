package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// TrainingCorpusSchema describes a training upload: the declared feature order
// plus (features, outcome) rows. Row length against featureNames is checked by
// the trainer, which reports the offending index.
const TrainingCorpusSchema = `{
  "type": "object",
  "required": ["examples"],
  "properties": {
    "featureNames": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "uniqueItems": true,
      "minItems": 1
    },
    "examples": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["features", "outcome"],
        "properties": {
          "features": {"type": "array", "items": {"type": "number"}},
          "outcome": {"type": "integer", "enum": [0, 1]}
        }
      }
    }
  }
}`

// ModelSchema describes a serialized model file.
const ModelSchema = `{
  "type": "object",
  "required": ["version", "featureNames", "weights", "bias"],
  "properties": {
    "version": {"type": "integer", "minimum": 0},
    "featureNames": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "uniqueItems": true,
      "minItems": 1
    },
    "weights": {"type": "array", "items": {"type": "number"}, "minItems": 1},
    "bias": {"type": "number"},
    "categoryOf": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins the first few messages so the result can be surfaced as a detail string.
func (r *ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	msg := ""
	for i, e := range r.Errors {
		if i == 5 {
			msg += fmt.Sprintf("; and %d more", len(r.Errors)-5)
			break
		}
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return msg
}

// ValidateJSON validates a raw JSON document against schema.
func ValidateJSON(schema string, document []byte) (*ValidationResult, error) {
	return validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(document))
}

// ValidateValue validates an in-memory value (maps, slices, structs with json tags).
func ValidateValue(schema string, value interface{}) (*ValidationResult, error) {
	return validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(value))
}

func validate(schemaLoader, documentLoader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}
