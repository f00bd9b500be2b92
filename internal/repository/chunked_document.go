package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkedDocumentRepository handles persistence of chunked documents and
// their ordered chunk rows.
type ChunkedDocumentRepository struct {
	pool *pgxpool.Pool
}

func NewChunkedDocumentRepository(pool *pgxpool.Pool) *ChunkedDocumentRepository {
	return &ChunkedDocumentRepository{pool: pool}
}

// Save inserts the chunked document and its chunks in one transaction so a
// reader never observes a parent without its chunks. Saving an
// already-covered (extraction, chunker config) pair is a no-op.
func (r *ChunkedDocumentRepository) Save(ctx context.Context, cd *domain.ChunkedDocument) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx,
		`INSERT INTO chunked_documents (id, extraction_id, chunker_config_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (extraction_id, chunker_config_id) DO NOTHING`,
		cd.ID, cd.ExtractionID, cd.ChunkerConfigID, cd.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Another run already persisted this pair.
		return tx.Commit(ctx)
	}

	for _, c := range cd.Chunks {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunks (chunked_document_id, chunk_index, content)
			 VALUES ($1, $2, $3)`,
			cd.ID, c.Index, c.Content,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ChunkedDocumentRepository) GetByID(ctx context.Context, id string) (*domain.ChunkedDocument, error) {
	var cd domain.ChunkedDocument
	err := r.pool.QueryRow(ctx,
		`SELECT id, extraction_id, chunker_config_id, created_at
		 FROM chunked_documents WHERE id = $1`,
		id,
	).Scan(&cd.ID, &cd.ExtractionID, &cd.ChunkerConfigID, &cd.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkedDocumentNotFound
		}
		return nil, err
	}

	chunks, err := r.loadChunks(ctx, cd.ID)
	if err != nil {
		return nil, err
	}
	cd.Chunks = chunks
	return &cd, nil
}

func (r *ChunkedDocumentRepository) ListByExtraction(ctx context.Context, extractionID string) ([]*domain.ChunkedDocument, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, extraction_id, chunker_config_id, created_at
		 FROM chunked_documents WHERE extraction_id = $1 ORDER BY created_at, id`,
		extractionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ChunkedDocument
	for rows.Next() {
		var cd domain.ChunkedDocument
		if err := rows.Scan(&cd.ID, &cd.ExtractionID, &cd.ChunkerConfigID, &cd.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &cd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, cd := range out {
		chunks, err := r.loadChunks(ctx, cd.ID)
		if err != nil {
			return nil, err
		}
		cd.Chunks = chunks
	}
	return out, nil
}

func (r *ChunkedDocumentRepository) loadChunks(ctx context.Context, chunkedDocumentID string) ([]domain.Chunk, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT chunk_index, content
		 FROM chunks WHERE chunked_document_id = $1 ORDER BY chunk_index`,
		chunkedDocumentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.Index, &c.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
