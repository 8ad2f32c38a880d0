package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpowerMS/empower-ms/internal/risk"
)

func TestToAppError_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		category       ErrorCategory
		expectedStatus int
	}{
		{
			name:           "missing covariate maps to validation",
			err:            &risk.MissingCovariateError{Name: risk.CovPackYears},
			category:       CategoryValidation,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrapped missing covariate still maps",
			err:            fmt.Errorf("compute benefit: %w", &risk.MissingCovariateError{Name: risk.CovBpwMS}),
			category:       CategoryValidation,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "undefined reduction maps to computation",
			err:            risk.ErrUndefinedReduction,
			category:       CategoryComputation,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "unknown errors map to internal",
			err:            errors.New("boom"),
			category:       CategoryInternal,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.expectedStatus, appErr.HTTPStatus)
		})
	}
}

func TestToAppError_PassesThroughAppErrors(t *testing.T) {
	original := NewRateLimitError("60")
	assert.Same(t, original, ToAppError(original))
}

func TestToAppError_Nil(t *testing.T) {
	assert.Nil(t, ToAppError(nil))
}

func TestAppError_ErrorString(t *testing.T) {
	appErr := NewValidationError("pack_years must be non-negative")
	assert.Contains(t, appErr.Error(), "VALIDATION_ERROR")
	assert.Contains(t, appErr.Error(), "pack_years must be non-negative")

	undefined := NewUndefinedReductionError(risk.ErrUndefinedReduction)
	assert.Contains(t, undefined.Error(), "COMPUTATION_ERROR")
}

func TestNewMissingCovariateError(t *testing.T) {
	appErr := NewMissingCovariateError(risk.CovFollowUpInterval)
	assert.Equal(t, CategoryValidation, appErr.Category)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Contains(t, appErr.ErrBuilder.Msg, risk.CovFollowUpInterval)
}

func TestAppError_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		appErr *AppError
	}{
		{"validation", NewValidationError("invalid request body", "field required")},
		{"missing covariate", NewMissingCovariateError(risk.CovPackYears)},
		{"rate limit", NewRateLimitError("60")},
		{"undefined reduction", NewUndefinedReductionError(risk.ErrUndefinedReduction)},
		{"internal", NewInternalError("boom", errors.New("cause"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.appErr)
			require.NoError(t, err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &body))

			assert.Equal(t, string(tt.appErr.Category), body["category"])
			assert.EqualValues(t, tt.appErr.HTTPStatus, body["http_status"])
			assert.Equal(t, tt.appErr.ErrBuilder.Msg, body["message"])
			assert.Contains(t, body, "timestamp")
		})
	}
}

func TestAppError_MarshalJSONCause(t *testing.T) {
	data, err := json.Marshal(NewUndefinedReductionError(risk.ErrUndefinedReduction))
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, risk.ErrUndefinedReduction.Error(), body["cause"])

	// Constructors without a cause marshal without one.
	data, err = json.Marshal(NewValidationError("bad input"))
	require.NoError(t, err)

	body = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "cause")
}

func TestWrapError(t *testing.T) {
	base := errors.New("base")
	wrapped := WrapError(base, "context %d", 7)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "context 7")

	assert.NoError(t, WrapError(nil, "ignored"))
}
