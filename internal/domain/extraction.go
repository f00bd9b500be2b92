package domain

import "time"

// ContentFormat identifies the format of extracted content
type ContentFormat string

const (
	ContentFormatText     ContentFormat = "text"
	ContentFormatMarkdown ContentFormat = "markdown"
)

// Extraction is the text derived from one document under one extractor
// config. Immutable once created; re-running with a different extractor
// config produces a sibling, never an update. At most one extraction exists
// per (document, extractor config) pair.
type Extraction struct {
	ID                string
	DocumentID        string
	ExtractorConfigID string
	Content           string
	ContentFormat     ContentFormat
	// Passthrough marks extractions whose content is the raw file text,
	// taken without running a converter.
	Passthrough bool
	CreatedAt   time.Time
}

// ValidateExtraction validates an Extraction instance
func ValidateExtraction(e *Extraction) error {
	if e == nil {
		return ErrMissingRequiredField
	}
	if e.ID == "" || e.DocumentID == "" || e.ExtractorConfigID == "" {
		return ErrMissingRequiredField
	}
	if !isValidContentFormat(e.ContentFormat) {
		return ErrInvalidContentFormat
	}
	return nil
}

func isValidContentFormat(f ContentFormat) bool {
	switch f {
	case ContentFormatText, ContentFormatMarkdown:
		return true
	}
	return false
}
