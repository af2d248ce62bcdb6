package dto

import (
	"net/http"
	"testing"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeSessionRevoked, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeExportInProgress, http.StatusConflict},
		{ErrCodeExportFailed, http.StatusInternalServerError},
		{ErrCodeDataUnavailable, http.StatusServiceUnavailable},
		{ErrCodeUpstreamFailed, http.StatusBadGateway},
		{ErrCodeDecodeFailed, http.StatusBadGateway},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(shared.CodeValidation))
	assert.Equal(t, ErrCodeExportInProgress, NormalizeErrorCode(shared.CodeExportInProgress))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_ERROR", NormalizeErrorCode("CUSTOM_ERROR"))
}

func TestEveryDomainCodeHasAStatus(t *testing.T) {
	for domainCode, apiCode := range DomainErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[apiCode]
		assert.True(t, ok, "domain code %s maps to %s without a status", domainCode, apiCode)
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasMore)

	resp = NewSuccessResponseWithMeta([]string{"a"}, 40, 2, 20)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	assert.False(t, resp.Meta.HasMore)

	resp = NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
	assert.False(t, resp.Meta.HasMore)
}

func TestNewErrorResponseWithRequestID_Retryable(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
	}{
		{ErrCodeDataUnavailable, true},
		{ErrCodeUpstreamFailed, true},
		{ErrCodeRateLimited, true},
		{ErrCodeExportInProgress, true},
		{ErrCodeValidation, false},
		{ErrCodeNotFound, false},
		{ErrCodeDecodeFailed, false},
	}
	for _, tt := range tests {
		resp := NewErrorResponseWithRequestID(tt.code, "msg", "req-2")
		assert.False(t, resp.Success)
		assert.Equal(t, tt.retryable, resp.Error.Retryable, tt.code)
		assert.Equal(t, "req-2", resp.Error.RequestID)
	}
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Invalid request", []ValidationDetail{{Field: "phone", Message: "phone must be a valid Nigerian number"}}, "req-1")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
