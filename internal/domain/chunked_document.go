package domain

import "time"

// Chunk is one ordered text segment of a chunked document
type Chunk struct {
	Index   int
	Content string
}

// ChunkedDocument is the ordered segmentation of one extraction under one
// chunker config. At most one exists per (extraction, chunker config) pair.
type ChunkedDocument struct {
	ID              string
	ExtractionID    string
	ChunkerConfigID string
	Chunks          []Chunk
	CreatedAt       time.Time
}

// ValidateChunkedDocument validates a ChunkedDocument instance
func ValidateChunkedDocument(cd *ChunkedDocument) error {
	if cd == nil {
		return ErrMissingRequiredField
	}
	if cd.ID == "" || cd.ExtractionID == "" || cd.ChunkerConfigID == "" {
		return ErrMissingRequiredField
	}
	for i, c := range cd.Chunks {
		if c.Index != i {
			return NewDomainError(ErrCodeValidation, "chunk indexes must be contiguous from zero")
		}
	}
	return nil
}
