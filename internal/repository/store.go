package repository

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the artifact-graph repositories behind the pipeline's
// ArtifactStore contract.
type Store struct {
	documents       *DocumentRepository
	extractions     *ExtractionRepository
	chunkedDocs     *ChunkedDocumentRepository
	chunkEmbeddings *ChunkEmbeddingsRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		documents:       NewDocumentRepository(pool),
		extractions:     NewExtractionRepository(pool),
		chunkedDocs:     NewChunkedDocumentRepository(pool),
		chunkEmbeddings: NewChunkEmbeddingsRepository(pool),
	}
}

func (s *Store) ListDocuments(ctx context.Context, projectID string) ([]*domain.Document, error) {
	return s.documents.ListByProject(ctx, projectID)
}

func (s *Store) ListExtractions(ctx context.Context, documentID string) ([]*domain.Extraction, error) {
	return s.extractions.ListByDocument(ctx, documentID)
}

func (s *Store) ListChunkedDocuments(ctx context.Context, extractionID string) ([]*domain.ChunkedDocument, error) {
	return s.chunkedDocs.ListByExtraction(ctx, extractionID)
}

func (s *Store) ListChunkEmbeddings(ctx context.Context, chunkedDocumentID string) ([]*domain.ChunkEmbeddings, error) {
	return s.chunkEmbeddings.ListByChunkedDocument(ctx, chunkedDocumentID)
}

func (s *Store) SaveExtraction(ctx context.Context, e *domain.Extraction) error {
	return s.extractions.Save(ctx, e)
}

func (s *Store) SaveChunkedDocument(ctx context.Context, cd *domain.ChunkedDocument) error {
	return s.chunkedDocs.Save(ctx, cd)
}

func (s *Store) SaveChunkEmbeddings(ctx context.Context, ce *domain.ChunkEmbeddings) error {
	return s.chunkEmbeddings.Save(ctx, ce)
}
