package repository

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkEmbeddingsRepository handles persistence of chunk embedding sets and
// their pgvector rows.
type ChunkEmbeddingsRepository struct {
	pool *pgxpool.Pool
}

func NewChunkEmbeddingsRepository(pool *pgxpool.Pool) *ChunkEmbeddingsRepository {
	return &ChunkEmbeddingsRepository{pool: pool}
}

// Save inserts the embedding set and its vectors in one transaction. Saving
// an already-covered (chunked document, embedding config) pair is a no-op.
func (r *ChunkEmbeddingsRepository) Save(ctx context.Context, ce *domain.ChunkEmbeddings) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx,
		`INSERT INTO chunk_embeddings (id, chunked_document_id, embedding_config_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (chunked_document_id, embedding_config_id) DO NOTHING`,
		ce.ID, ce.ChunkedDocumentID, ce.EmbeddingConfigID, ce.CreatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	for i, vec := range ce.Vectors {
		_, err := tx.Exec(ctx,
			`INSERT INTO chunk_vectors (chunk_embeddings_id, chunk_index, embedding)
			 VALUES ($1, $2, $3)`,
			ce.ID, i, pgvector.NewVector(vec),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ChunkEmbeddingsRepository) ListByChunkedDocument(ctx context.Context, chunkedDocumentID string) ([]*domain.ChunkEmbeddings, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, chunked_document_id, embedding_config_id, created_at
		 FROM chunk_embeddings WHERE chunked_document_id = $1 ORDER BY created_at, id`,
		chunkedDocumentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ChunkEmbeddings
	for rows.Next() {
		var ce domain.ChunkEmbeddings
		if err := rows.Scan(&ce.ID, &ce.ChunkedDocumentID, &ce.EmbeddingConfigID, &ce.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &ce)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, ce := range out {
		vectors, err := r.loadVectors(ctx, ce.ID)
		if err != nil {
			return nil, err
		}
		ce.Vectors = vectors
	}
	return out, nil
}

func (r *ChunkEmbeddingsRepository) loadVectors(ctx context.Context, chunkEmbeddingsID string) ([][]float32, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT embedding
		 FROM chunk_vectors WHERE chunk_embeddings_id = $1 ORDER BY chunk_index`,
		chunkEmbeddingsID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var v pgvector.Vector
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vectors = append(vectors, v.Slice())
	}
	return vectors, rows.Err()
}
