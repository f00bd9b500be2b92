package pipeline

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// ArtifactStore is the slice of persistence the pipeline needs: read the
// children of an artifact and append new artifacts. Saves must be durable
// before they return; the next stage's collection relies on it.
type ArtifactStore interface {
	ListDocuments(ctx context.Context, projectID string) ([]*domain.Document, error)
	ListExtractions(ctx context.Context, documentID string) ([]*domain.Extraction, error)
	ListChunkedDocuments(ctx context.Context, extractionID string) ([]*domain.ChunkedDocument, error)
	ListChunkEmbeddings(ctx context.Context, chunkedDocumentID string) ([]*domain.ChunkEmbeddings, error)
	SaveExtraction(ctx context.Context, e *domain.Extraction) error
	SaveChunkedDocument(ctx context.Context, cd *domain.ChunkedDocument) error
	SaveChunkEmbeddings(ctx context.Context, ce *domain.ChunkEmbeddings) error
}

// ExtractResult is the output of one extractor invocation
type ExtractResult struct {
	Content     string
	Format      domain.ContentFormat
	Passthrough bool
}

// Extractor turns a document's raw bytes into text
type Extractor interface {
	Extract(ctx context.Context, doc *domain.Document, cfg domain.ExtractorConfig) (*ExtractResult, error)
}

// Chunker splits extracted text into ordered segments
type Chunker interface {
	Chunk(ctx context.Context, text string, cfg domain.ChunkerConfig) ([]string, error)
}

// EmbeddingAdapter turns chunk texts into vectors, index-aligned with the
// input
type EmbeddingAdapter interface {
	Embed(ctx context.Context, texts []string, cfg domain.EmbeddingConfig) ([][]float32, error)
}
