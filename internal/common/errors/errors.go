// Package errors provides the engine's standardized error type and its mapping
// to HTTP responses and BPMN job errors.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Training errors
const (
	ErrCodeTrainingDiverged   ErrorCode = "TRAINING_DIVERGED"
	ErrCodeInsufficientData   ErrorCode = "INSUFFICIENT_DATA"
	ErrCodeMalformedExample   ErrorCode = "MALFORMED_EXAMPLE"
	ErrCodeTrainingInProgress ErrorCode = "TRAINING_IN_PROGRESS"
	ErrCodeTrainingCancelled  ErrorCode = "TRAINING_CANCELLED"
)

// Serving errors
const (
	ErrCodeFeatureSchemaMismatch ErrorCode = "FEATURE_SCHEMA_MISMATCH"
	ErrCodePredictionUnavailable ErrorCode = "PREDICTION_UNAVAILABLE"
	ErrCodeStudentIneligible     ErrorCode = "STUDENT_INELIGIBLE"
	ErrCodeInvalidModel          ErrorCode = "INVALID_MODEL"
)

// Collaborator / infrastructure errors
const (
	ErrCodeStudentNotFound          ErrorCode = "STUDENT_NOT_FOUND"
	ErrCodeScholarshipNotFound      ErrorCode = "SCHOLARSHIP_NOT_FOUND"
	ErrCodeModelNotFound            ErrorCode = "MODEL_NOT_FOUND"
	ErrCodeTrainingRunNotFound      ErrorCode = "TRAINING_RUN_NOT_FOUND"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidRequest           ErrorCode = "INVALID_REQUEST"
	ErrCodeExternalServiceError     ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any *StandardError carrying the same code, so sentinel values work
// with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns a copy of e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	out := *e
	out.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		out.Metadata[k] = v
	}
	out.Metadata[key] = value
	return &out
}

// Sentinels for errors.Is checks. Compare by code only.
var (
	ErrTrainingDiverged      = &StandardError{Code: ErrCodeTrainingDiverged}
	ErrInsufficientData      = &StandardError{Code: ErrCodeInsufficientData}
	ErrMalformedExample      = &StandardError{Code: ErrCodeMalformedExample}
	ErrTrainingInProgress    = &StandardError{Code: ErrCodeTrainingInProgress}
	ErrFeatureSchemaMismatch = &StandardError{Code: ErrCodeFeatureSchemaMismatch}
	ErrPredictionUnavailable = &StandardError{Code: ErrCodePredictionUnavailable}
	ErrStudentNotFound       = &StandardError{Code: ErrCodeStudentNotFound}
	ErrScholarshipNotFound   = &StandardError{Code: ErrCodeScholarshipNotFound}
	ErrModelNotFound         = &StandardError{Code: ErrCodeModelNotFound}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewTrainingDivergedError is raised when the optimizer produces non-finite values.
func NewTrainingDivergedError(iteration int, details string) *StandardError {
	return newError(ErrCodeTrainingDiverged, "Training diverged", details, false).
		WithMetadata("iteration", iteration)
}

// NewInsufficientDataError is raised for empty or single-class corpora.
func NewInsufficientDataError(details string) *StandardError {
	return newError(ErrCodeInsufficientData, "Not enough training data", details, false)
}

// NewMalformedExampleError points at the first offending example.
func NewMalformedExampleError(index int, details string) *StandardError {
	return newError(ErrCodeMalformedExample, "Malformed training example", details, false).
		WithMetadata("exampleIndex", index)
}

func NewTrainingInProgressError(runID string) *StandardError {
	return newError(ErrCodeTrainingInProgress, "A training run is already in progress",
		fmt.Sprintf("runId: %s", runID), false).WithMetadata("runId", runID)
}

func NewTrainingCancelledError(err error) *StandardError {
	return newError(ErrCodeTrainingCancelled, "Training cancelled", err.Error(), true)
}

// NewFeatureSchemaMismatchError guards the feature order shared by extraction and prediction.
func NewFeatureSchemaMismatchError(details string) *StandardError {
	return newError(ErrCodeFeatureSchemaMismatch, "Feature vector does not match model schema", details, false)
}

func NewPredictionUnavailableError(details string) *StandardError {
	return newError(ErrCodePredictionUnavailable, "Prediction unavailable", details, true)
}

func NewStudentIneligibleError(failed []string) *StandardError {
	return newError(ErrCodeStudentIneligible, "Student is not eligible for this scholarship",
		fmt.Sprintf("failed criteria: %s", strings.Join(failed, ", ")), false).
		WithMetadata("failedCriteria", failed)
}

func NewInvalidModelError(err error) *StandardError {
	return newError(ErrCodeInvalidModel, "Model failed validation", err.Error(), false)
}

func NewStudentNotFoundError(studentID string) *StandardError {
	return newError(ErrCodeStudentNotFound, "Student not found", fmt.Sprintf("studentId: %s", studentID), false)
}

func NewScholarshipNotFoundError(scholarshipID string) *StandardError {
	return newError(ErrCodeScholarshipNotFound, "Scholarship not found", fmt.Sprintf("scholarshipId: %s", scholarshipID), false)
}

func NewModelNotFoundError(details string) *StandardError {
	return newError(ErrCodeModelNotFound, "Model not found", details, false)
}

func NewTrainingRunNotFoundError(runID string) *StandardError {
	return newError(ErrCodeTrainingRunNotFound, "Training run not found", fmt.Sprintf("runId: %s", runID), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", queryName, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryName string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", queryName), true)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false)
}

// NewExternalServiceError wraps a failure of a collaborator such as zeebe or SNS.
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalServiceError, fmt.Sprintf("%s request failed", service), err.Error(), true).
		WithMetadata("service", service)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("%s request timed out", service), err.Error(), true).
		WithMetadata("service", service)
}

// ==========================
// 4. Error Conversion
// ==========================

// AsStandardError unwraps err to a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeStudentNotFound, ErrCodeScholarshipNotFound, ErrCodeModelNotFound, ErrCodeTrainingRunNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeTrainingInProgress:
		return http.StatusConflict
	case ErrCodeStudentIneligible, ErrCodeInsufficientData, ErrCodeMalformedExample,
		ErrCodeTrainingDiverged, ErrCodeInvalidModel:
		return http.StatusUnprocessableEntity
	case ErrCodePredictionUnavailable, ErrCodeDatabaseConnectionFailed, ErrCodeExternalServiceError:
		return http.StatusServiceUnavailable
	case ErrCodeQueryTimeout, ErrCodeTimeout, ErrCodeTrainingCancelled:
		return http.StatusGatewayTimeout
	case ErrCodeFeatureSchemaMismatch:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended zeebe retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeExternalServiceError:
		return 3
	case ErrCodeQueryTimeout,
		ErrCodeTimeout,
		ErrCodeTrainingCancelled:
		return 2
	case ErrCodePredictionUnavailable:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "TRAINING") || code == ErrCodeInsufficientData || code == ErrCodeMalformedExample:
		return "TRAINING"
	case strings.Contains(codeStr, "PREDICTION") || strings.Contains(codeStr, "FEATURE") || strings.Contains(codeStr, "MODEL"):
		return "PREDICTION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case code == ErrCodeExternalServiceError || code == ErrCodeTimeout:
		return "EXTERNAL"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "INELIGIBLE"):
		return "ELIGIBILITY"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
