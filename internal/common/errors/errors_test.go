package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewStudentNotFoundError("s-1")
	wrapped := fmt.Errorf("load: %w", err)

	assert.True(t, errors.Is(wrapped, ErrStudentNotFound))
	assert.False(t, errors.Is(wrapped, ErrScholarshipNotFound))
	assert.False(t, errors.Is(context.Canceled, ErrStudentNotFound))
}

func TestWithMetadataCopies(t *testing.T) {
	base := NewInvalidRequestError("bad")
	withIndex := base.WithMetadata("exampleIndex", 4)

	assert.Nil(t, base.Metadata)
	assert.Equal(t, 4, withIndex.Metadata["exampleIndex"])

	more := withIndex.WithMetadata("field", "x")
	assert.Len(t, withIndex.Metadata, 1)
	assert.Len(t, more.Metadata, 2)
}

func TestAsStandardError(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	se := AsStandardError(fmt.Errorf("wrap: %w", NewTrainingDivergedError(12, "loss 1e9")))
	assert.Equal(t, ErrCodeTrainingDiverged, se.Code)

	plain := AsStandardError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestConstructorsCarryContext(t *testing.T) {
	mal := NewMalformedExampleError(3, "short row")
	assert.Equal(t, 3, mal.Metadata["exampleIndex"])
	assert.False(t, mal.Retryable)

	inel := NewStudentIneligibleError([]string{"maxGWA", "eligibleColleges"})
	assert.Equal(t, []string{"maxGWA", "eligibleColleges"}, inel.Metadata["failedCriteria"])
	assert.Contains(t, inel.Details, "maxGWA, eligibleColleges")

	ext := NewExternalServiceError("sns", errors.New("throttled"))
	assert.Equal(t, "sns", ext.Metadata["service"])
	assert.True(t, ext.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeStudentNotFound, http.StatusNotFound},
		{ErrCodeScholarshipNotFound, http.StatusNotFound},
		{ErrCodeModelNotFound, http.StatusNotFound},
		{ErrCodeInvalidRequest, http.StatusBadRequest},
		{ErrCodeTrainingInProgress, http.StatusConflict},
		{ErrCodeStudentIneligible, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientData, http.StatusUnprocessableEntity},
		{ErrCodeMalformedExample, http.StatusUnprocessableEntity},
		{ErrCodeTrainingDiverged, http.StatusUnprocessableEntity},
		{ErrCodePredictionUnavailable, http.StatusServiceUnavailable},
		{ErrCodeFeatureSchemaMismatch, http.StatusConflict},
		{ErrCodeQueryTimeout, http.StatusGatewayTimeout},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	retryable := ConvertToBPMNError(NewQueryExecutionFailedError("get_student", errors.New("reset")))
	assert.Equal(t, string(ErrCodeQueryExecutionFailed), retryable.Code)
	assert.Equal(t, 3, retryable.Retries)

	inProgress := ConvertToBPMNError(NewTrainingInProgressError("run-1"))
	assert.Equal(t, 0, inProgress.Retries)

	vars := ConvertToBPMNError(NewMalformedExampleError(7, "bad")).ToErrorVariables()
	assert.Equal(t, 7, vars["exampleIndex"])
	assert.Equal(t, string(ErrCodeMalformedExample), vars["originalErrorCode"])
	require.Contains(t, vars, "errorMessage")
}

func TestRemainingRetries(t *testing.T) {
	tests := []struct {
		name       string
		jobRetries int32
		max        int
		want       int32
	}{
		{"not retryable", 3, 0, 0},
		{"last attempt", 1, 3, 0},
		{"decrements", 3, 3, 2},
		{"capped by policy", 10, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingRetries(tt.jobRetries, tt.max))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "TRAINING", GetErrorCategory(ErrCodeInsufficientData))
	assert.Equal(t, "TRAINING", GetErrorCategory(ErrCodeTrainingInProgress))
	assert.Equal(t, "PREDICTION", GetErrorCategory(ErrCodeFeatureSchemaMismatch))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeStudentNotFound))
	assert.Equal(t, "ELIGIBILITY", GetErrorCategory(ErrCodeStudentIneligible))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidRequest))
}
