package printing

import "errors"

// Codes carried by RenderError, one per stage of the document pipeline
const (
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeEmptyDocument    = "EMPTY_DOCUMENT"
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeAssemblyFailed   = "ASSEMBLY_FAILED"
	ErrCodeStorageFailed    = "STORAGE_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
)

// ErrDocumentNotFound matches, via errors.Is, any RenderError reporting a
// missing stored document
var ErrDocumentNotFound = &RenderError{Code: ErrCodeNotFound, Message: "document not found"}

// RenderError is a failure in laying out, rasterizing, assembling or storing
// a voucher document
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is matches another RenderError with the same code
func (e *RenderError) Is(target error) bool {
	var t *RenderError
	return errors.As(target, &t) && t.Code == e.Code
}
