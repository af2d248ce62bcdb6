package dto

import (
	"net/http"

	"github.com/datapadi/web/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when the session is missing or rejected
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeTokenExpired is used when the session token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the session token cannot be read
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeSessionRevoked is used when the session was logged out
	ErrCodeSessionRevoked = "ERR_SESSION_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when a flow step does not allow the action
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeExportInProgress is used when the caller already has an export running
	ErrCodeExportInProgress = "ERR_EXPORT_IN_PROGRESS"
	// ErrCodeExportFailed is used when a document could not be produced
	ErrCodeExportFailed = "ERR_EXPORT_FAILED"
)

// Upstream error codes
const (
	// ErrCodeDataUnavailable is used when the backend could not supply the data
	ErrCodeDataUnavailable = "ERR_DATA_UNAVAILABLE"
	// ErrCodeUpstreamFailed is used when the backend rejected or failed a call
	ErrCodeUpstreamFailed = "ERR_UPSTREAM_FAILED"
	// ErrCodeDecodeFailed is used when the backend answered with an unexpected shape
	ErrCodeDecodeFailed = "ERR_DECODE_FAILED"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenInvalid:   http.StatusUnauthorized,
	ErrCodeSessionRevoked: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Business rule errors
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeExportInProgress: http.StatusConflict,
	ErrCodeExportFailed:     http.StatusInternalServerError,

	// Upstream errors
	ErrCodeDataUnavailable: http.StatusServiceUnavailable,
	ErrCodeUpstreamFailed:  http.StatusBadGateway,
	ErrCodeDecodeFailed:    http.StatusBadGateway,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:         ErrCodeNotFound,
	shared.CodeInvalidInput:     ErrCodeInvalidInput,
	shared.CodeInvalidState:     ErrCodeInvalidState,
	shared.CodeUnauthorized:     ErrCodeUnauthorized,
	shared.CodeDataUnavailable:  ErrCodeDataUnavailable,
	shared.CodeValidation:       ErrCodeValidation,
	shared.CodeExportFailed:     ErrCodeExportFailed,
	shared.CodeExportInProgress: ErrCodeExportInProgress,
	shared.CodeDecodeFailed:     ErrCodeDecodeFailed,
	shared.CodeUpstreamFailed:   ErrCodeUpstreamFailed,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
