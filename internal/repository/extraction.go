package repository

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExtractionRepository handles persistence of extraction artifacts.
// Extractions are append-only: a save for an already-covered
// (document, extractor config) pair is a no-op, which keeps at-least-once
// persistence safe.
type ExtractionRepository struct {
	db dbtx
}

func NewExtractionRepository(pool *pgxpool.Pool) *ExtractionRepository {
	return &ExtractionRepository{db: pool}
}

func (r *ExtractionRepository) Save(ctx context.Context, e *domain.Extraction) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO extractions (id, document_id, extractor_config_id, content, content_format, passthrough, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (document_id, extractor_config_id) DO NOTHING`,
		e.ID, e.DocumentID, e.ExtractorConfigID, e.Content, e.ContentFormat, e.Passthrough, e.CreatedAt,
	)
	return err
}

func (r *ExtractionRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.Extraction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, extractor_config_id, content, content_format, passthrough, created_at
		 FROM extractions WHERE document_id = $1 ORDER BY created_at, id`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExtractionRows(rows)
}

func scanExtractionRows(rows pgx.Rows) ([]*domain.Extraction, error) {
	var out []*domain.Extraction
	for rows.Next() {
		var e domain.Extraction
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ExtractorConfigID, &e.Content, &e.ContentFormat, &e.Passthrough, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
