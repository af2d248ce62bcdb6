package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal to the sentinels
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidState     = "INVALID_STATE"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeDataUnavailable  = "DATA_UNAVAILABLE"
	CodeValidation       = "VALIDATION_FAILED"
	CodeExportFailed     = "EXPORT_FAILED"
	CodeExportInProgress = "EXPORT_IN_PROGRESS"
	CodeDecodeFailed     = "DECODE_FAILED"
	CodeUpstreamFailed   = "UPSTREAM_FAILED"
)

// Common domain errors
var (
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput     = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState     = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrUnauthorized     = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrDataUnavailable  = NewDomainError(CodeDataUnavailable, "Requested data is currently unavailable")
	ErrValidation       = NewDomainError(CodeValidation, "Validation failed")
	ErrExportFailed     = NewDomainError(CodeExportFailed, "Document export failed")
	ErrExportInProgress = NewDomainError(CodeExportInProgress, "An export is already in progress")
	ErrDecodeFailed     = NewDomainError(CodeDecodeFailed, "Unexpected response from upstream service")
	ErrUpstreamFailed   = NewDomainError(CodeUpstreamFailed, "Upstream service request failed")
)

// NewValidationError creates a validation error with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewDataUnavailableError creates a data-unavailable error with a specific message
func NewDataUnavailableError(message string) *DomainError {
	return NewDomainError(CodeDataUnavailable, message)
}
