package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidRole               = NewDomainError(ErrCodeValidation, "invalid conversation role, expected 'user' or 'assistant'")
	ErrEmptySource               = NewDomainError(ErrCodeValidation, "source identifier is required")
	ErrEmptyDocument             = NewDomainError(ErrCodeValidation, "document content is required")
	ErrEmptyQuestion             = NewDomainError(ErrCodeValidation, "question text is required")
	ErrInvalidConfidenceBaseline = NewDomainError(ErrCodeValidation, "confidence baseline must lie in [0,1]")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrFAQEntryNotFound = NewDomainError(ErrCodeNotFound, "faq entry not found")
)

// Upstream errors
var (
	ErrEmbeddingProvider = NewDomainError(ErrCodeUpstream, "embedding provider call failed")
	ErrCompletionFailed  = NewDomainError(ErrCodeUpstream, "completion provider call failed")
)
