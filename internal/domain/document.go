package domain

import "time"

// Document is the root content unit of the pipeline. The original file bytes
// live in object storage under StorageKey; derived artifacts hang off the
// document by ID. Documents are created by the upload flow and are read-only
// to the pipeline.
type Document struct {
	ID         string
	ProjectID  string
	Filename   string
	MimeType   string
	StorageKey string
	SizeBytes  int64
	CreatedAt  time.Time
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return ErrMissingRequiredField
	}
	if d.ID == "" || d.ProjectID == "" {
		return ErrMissingRequiredField
	}
	if d.Filename == "" || d.StorageKey == "" {
		return ErrMissingRequiredField
	}
	return nil
}
