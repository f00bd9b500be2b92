package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RagConfigRepository handles persistence of pipeline configurations.
type RagConfigRepository struct {
	db dbtx
}

func NewRagConfigRepository(pool *pgxpool.Pool) *RagConfigRepository {
	return &RagConfigRepository{db: pool}
}

func (r *RagConfigRepository) Create(ctx context.Context, c *domain.RagConfig) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO rag_configs (id, name, extractor_config_id, chunker_config_id, embedding_config_id, vector_store_config_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.ExtractorConfigID, c.ChunkerConfigID, c.EmbeddingConfigID, nullableString(c.VectorStoreConfigID), c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrRagConfigAlreadyExists
	}
	return err
}

func (r *RagConfigRepository) GetByID(ctx context.Context, id string) (*domain.RagConfig, error) {
	var c domain.RagConfig
	var vectorStoreID *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, extractor_config_id, chunker_config_id, embedding_config_id, vector_store_config_id, created_at
		 FROM rag_configs WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.ExtractorConfigID, &c.ChunkerConfigID, &c.EmbeddingConfigID, &vectorStoreID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRagConfigNotFound
		}
		return nil, err
	}
	if vectorStoreID != nil {
		c.VectorStoreConfigID = *vectorStoreID
	}
	return &c, nil
}

func (r *RagConfigRepository) List(ctx context.Context) ([]*domain.RagConfig, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, extractor_config_id, chunker_config_id, embedding_config_id, vector_store_config_id, created_at
		 FROM rag_configs ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RagConfig
	for rows.Next() {
		var c domain.RagConfig
		var vectorStoreID *string
		if err := rows.Scan(&c.ID, &c.Name, &c.ExtractorConfigID, &c.ChunkerConfigID, &c.EmbeddingConfigID, &vectorStoreID, &c.CreatedAt); err != nil {
			return nil, err
		}
		if vectorStoreID != nil {
			c.VectorStoreConfigID = *vectorStoreID
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
