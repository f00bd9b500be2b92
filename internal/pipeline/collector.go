package pipeline

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// ExtractionJob pairs one document with the extractor config that still
// needs to run against it. Job descriptors live only for the duration of one
// pipeline run and are never persisted.
type ExtractionJob struct {
	Document *domain.Document
	Config   domain.ExtractorConfig
}

// ChunkingJob pairs one extraction with a chunker config
type ChunkingJob struct {
	Extraction *domain.Extraction
	Config     domain.ChunkerConfig
}

// EmbeddingJob pairs one chunked document with an embedding config
type EmbeddingJob struct {
	ChunkedDocument *domain.ChunkedDocument
	Config          domain.EmbeddingConfig
}

// Collector computes the work remaining for one stage by re-deriving it from
// the persisted artifact graph. Because collection never consults in-memory
// run state, re-running the pipeline after a crash or partial failure only
// redoes what did not previously succeed.
type Collector struct {
	store ArtifactStore
}

// NewCollector creates a Collector over the given store
func NewCollector(store ArtifactStore) *Collector {
	return &Collector{store: store}
}

// CollectExtractionJobs returns one job per document that has no extraction
// under the given extractor config. A document may carry extractions from
// other configs; those do not count.
func (c *Collector) CollectExtractionJobs(ctx context.Context, docs []*domain.Document, cfg domain.ExtractorConfig) ([]ExtractionJob, error) {
	var jobs []ExtractionJob
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if doc == nil || seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true

		extractions, err := c.store.ListExtractions(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		if hasExtraction(extractions, cfg.ID) {
			continue
		}
		jobs = append(jobs, ExtractionJob{Document: doc, Config: cfg})
	}
	return jobs, nil
}

// CollectChunkingJobs returns one job per extraction under extractorCfg that
// has no chunked document under chunkerCfg yet.
func (c *Collector) CollectChunkingJobs(ctx context.Context, docs []*domain.Document, extractorCfg domain.ExtractorConfig, chunkerCfg domain.ChunkerConfig) ([]ChunkingJob, error) {
	var jobs []ChunkingJob
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		extractions, err := c.store.ListExtractions(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range extractions {
			if e.ExtractorConfigID != extractorCfg.ID {
				continue
			}
			chunked, err := c.store.ListChunkedDocuments(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			if hasChunkedDocument(chunked, chunkerCfg.ID) {
				continue
			}
			jobs = append(jobs, ChunkingJob{Extraction: e, Config: chunkerCfg})
		}
	}
	return jobs, nil
}

// CollectEmbeddingJobs returns one job per chunked document under the
// extractor+chunker pair that has no embeddings under embeddingCfg yet.
func (c *Collector) CollectEmbeddingJobs(ctx context.Context, docs []*domain.Document, extractorCfg domain.ExtractorConfig, chunkerCfg domain.ChunkerConfig, embeddingCfg domain.EmbeddingConfig) ([]EmbeddingJob, error) {
	var jobs []EmbeddingJob
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		extractions, err := c.store.ListExtractions(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range extractions {
			if e.ExtractorConfigID != extractorCfg.ID {
				continue
			}
			chunked, err := c.store.ListChunkedDocuments(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			for _, cd := range chunked {
				if cd.ChunkerConfigID != chunkerCfg.ID {
					continue
				}
				embeddings, err := c.store.ListChunkEmbeddings(ctx, cd.ID)
				if err != nil {
					return nil, err
				}
				if hasChunkEmbeddings(embeddings, embeddingCfg.ID) {
					continue
				}
				jobs = append(jobs, EmbeddingJob{ChunkedDocument: cd, Config: embeddingCfg})
			}
		}
	}
	return jobs, nil
}

func hasExtraction(extractions []*domain.Extraction, extractorConfigID string) bool {
	for _, e := range extractions {
		if e.ExtractorConfigID == extractorConfigID {
			return true
		}
	}
	return false
}

func hasChunkedDocument(chunked []*domain.ChunkedDocument, chunkerConfigID string) bool {
	for _, cd := range chunked {
		if cd.ChunkerConfigID == chunkerConfigID {
			return true
		}
	}
	return false
}

func hasChunkEmbeddings(embeddings []*domain.ChunkEmbeddings, embeddingConfigID string) bool {
	for _, ce := range embeddings {
		if ce.EmbeddingConfigID == embeddingConfigID {
			return true
		}
	}
	return false
}
