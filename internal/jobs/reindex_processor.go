package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragpipe/internal/pipeline"
	"github.com/cloo-solutions/ragpipe/internal/telemetry"
)

// Indexer runs the derivation pipeline for every stored rag config
type Indexer interface {
	RunAll(ctx context.Context, projectID string) ([]*pipeline.RunResult, error)
}

// ReindexProcessor re-runs the pipeline on each worker tick. Because every
// stage only performs missing work, a tick on an up-to-date project is a
// cheap no-op; new documents and configs are picked up on the next tick.
type ReindexProcessor struct {
	indexer   Indexer
	projectID string
}

// NewReindexProcessor creates a new ReindexProcessor instance
func NewReindexProcessor(indexer Indexer, projectID string) *ReindexProcessor {
	return &ReindexProcessor{
		indexer:   indexer,
		projectID: projectID,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *ReindexProcessor) ProcessJobs(ctx context.Context) error {
	ctx, tx := telemetry.StartTransaction(ctx, "reindex.tick", "worker.reindex")
	defer tx.End()
	telemetry.AddBreadcrumb(ctx, "worker", fmt.Sprintf("reindex tick for project %s", p.projectID))

	results, err := p.indexer.RunAll(ctx, p.projectID)
	if err != nil {
		tx.SetError(err)
		return fmt.Errorf("failed to reindex project %s: %w", p.projectID, err)
	}

	for _, r := range results {
		if r.Errors > 0 {
			log.Printf("Reindex of config %s finished in state %s with %d errors", r.RagConfigID, r.State, r.Errors)
		}
	}

	return nil
}
