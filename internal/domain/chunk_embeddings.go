package domain

import "time"

// ChunkEmbeddings holds the vectors for one chunked document under one
// embedding config, index-aligned with the parent's chunks. At most one
// exists per (chunked document, embedding config) pair.
type ChunkEmbeddings struct {
	ID                string
	ChunkedDocumentID string
	EmbeddingConfigID string
	Vectors           [][]float32
	CreatedAt         time.Time
}

// ValidateChunkEmbeddings validates a ChunkEmbeddings instance against its
// parent chunk count. Vector count must equal chunk count; anything else
// means the embedder dropped or duplicated an input.
func ValidateChunkEmbeddings(ce *ChunkEmbeddings, chunkCount int) error {
	if ce == nil {
		return ErrMissingRequiredField
	}
	if ce.ID == "" || ce.ChunkedDocumentID == "" || ce.EmbeddingConfigID == "" {
		return ErrMissingRequiredField
	}
	if len(ce.Vectors) != chunkCount {
		return ErrVectorCountMismatch
	}
	return nil
}
