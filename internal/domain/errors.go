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
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidContentFormat  = NewDomainError(ErrCodeValidation, "invalid content format")
	ErrVectorCountMismatch   = NewDomainError(ErrCodeValidation, "vector count does not match chunk count")
	ErrInvalidChunkerConfig  = NewDomainError(ErrCodeValidation, "invalid chunker configuration")
	ErrInvalidRagConfig      = NewDomainError(ErrCodeValidation, "rag config must name extractor, chunker and embedding configs")
	ErrUnsupportedMimeType   = NewDomainError(ErrCodeInvalidOperation, "unsupported document mime type")
	ErrNoStagesEnabled       = NewDomainError(ErrCodeInvalidOperation, "at least one pipeline stage must be enabled")
	ErrEmptyExtractionOutput = NewDomainError(ErrCodeInvalidOperation, "extraction produced no content")
)

// Not found errors
var (
	ErrDocumentNotFound        = NewDomainError(ErrCodeNotFound, "document not found")
	ErrChunkedDocumentNotFound = NewDomainError(ErrCodeNotFound, "chunked document not found")
	ErrRagConfigNotFound       = NewDomainError(ErrCodeNotFound, "rag config not found")
	ErrDocumentUploadNotFound  = NewDomainError(ErrCodeNotFound, "pending document upload not found")
)

// Already exists errors
var (
	ErrRagConfigAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "rag config already exists")
	ErrDocumentAlreadyExists  = NewDomainError(ErrCodeAlreadyExists, "document already exists")
)
