package pipeline

import (
	"context"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// Progress reports how far one rag config's index derivation has gone.
// Error counts are filled in by the orchestrator from the most recent run;
// the aggregator itself only reads the artifact graph.
type Progress struct {
	TotalDocumentCount  int
	ExtractedCount      int
	ExtractedErrorCount int
	ChunkedCount        int
	ChunkedErrorCount   int
	EmbeddedCount       int
	EmbeddedErrorCount  int
	CompletedCount      int
	Logs                []string
}

// Aggregator answers "how far along is configuration X" for any set of rag
// configs by walking the artifact graph exactly once, crediting every config
// whose prefix matches each artifact. Total work is O(graph size) no matter
// how many configs are asked about.
type Aggregator struct {
	store ArtifactStore
}

// NewAggregator creates an Aggregator over the given store
func NewAggregator(store ArtifactStore) *Aggregator {
	return &Aggregator{store: store}
}

// ComputeProgress computes one Progress per rag config. Malformed configs
// are skipped and an empty or nil config set yields an empty map; progress
// computation is advisory and never fails on its inputs. CompletedCount is
// min(extracted, chunked, embedded): an aggregate approximation that is
// monotonic and cheap, relying on stages running in strict order.
func (a *Aggregator) ComputeProgress(ctx context.Context, projectID string, configs []*domain.RagConfig) (map[string]*Progress, error) {
	out := make(map[string]*Progress)
	if len(configs) == 0 {
		return out, nil
	}

	// Group config IDs by every prefix of their triple so each artifact
	// visit credits all matching configs at once.
	byExtractor := make(map[string][]string)
	byChunker := make(map[string][]string)
	byEmbedding := make(map[string][]string)
	for _, cfg := range configs {
		if domain.ValidateRagConfig(cfg) != nil {
			continue
		}
		if _, ok := out[cfg.ID]; ok {
			continue
		}
		out[cfg.ID] = &Progress{}
		byExtractor[cfg.ExtractorPrefix()] = append(byExtractor[cfg.ExtractorPrefix()], cfg.ID)
		byChunker[cfg.ChunkerPrefix()] = append(byChunker[cfg.ChunkerPrefix()], cfg.ID)
		byEmbedding[cfg.EmbeddingPrefix()] = append(byEmbedding[cfg.EmbeddingPrefix()], cfg.ID)
	}
	if len(out) == 0 {
		return out, nil
	}

	docs, err := a.store.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		p.TotalDocumentCount = len(docs)
	}

	for _, doc := range docs {
		extractions, err := a.store.ListExtractions(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range extractions {
			for _, id := range byExtractor[e.ExtractorConfigID] {
				out[id].ExtractedCount++
			}

			chunked, err := a.store.ListChunkedDocuments(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			for _, cd := range chunked {
				chunkerKey := e.ExtractorConfigID + domain.PrefixSeparator + cd.ChunkerConfigID
				for _, id := range byChunker[chunkerKey] {
					out[id].ChunkedCount++
				}

				embeddings, err := a.store.ListChunkEmbeddings(ctx, cd.ID)
				if err != nil {
					return nil, err
				}
				for _, ce := range embeddings {
					embeddingKey := chunkerKey + domain.PrefixSeparator + ce.EmbeddingConfigID
					for _, id := range byEmbedding[embeddingKey] {
						out[id].EmbeddedCount++
					}
				}
			}
		}
	}

	for _, p := range out {
		p.CompletedCount = minCount(p.ExtractedCount, p.ChunkedCount, p.EmbeddedCount)
	}

	return out, nil
}

func minCount(counts ...int) int {
	if len(counts) == 0 {
		return 0
	}
	m := counts[0]
	for _, c := range counts[1:] {
		if c < m {
			m = c
		}
	}
	return m
}
