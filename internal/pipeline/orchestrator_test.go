package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(store *memStore, extractor Extractor, chunker Chunker, embedder EmbeddingAdapter, opts ...OrchestratorOption) *Orchestrator {
	if extractor == nil {
		extractor = &fakeExtractor{}
	}
	if chunker == nil {
		chunker = &fakeChunker{}
	}
	if embedder == nil {
		embedder = &fakeEmbedder{}
	}
	return NewOrchestrator(store, extractor, chunker, embedder, opts...)
}

func TestOrchestrator_Run_FullPipelineSingleDocument(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addDocument("project-1", testDocument("doc-1"))

	orch := newTestOrchestrator(store, nil, nil, nil)
	cfg := newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a")

	result, err := orch.Run(ctx, newTestRunRequest("project-1", cfg))

	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, result.State)
	assert.Equal(t, 0, result.Errors)

	extractions := store.allExtractions()
	require.Len(t, extractions, 1)
	assert.Equal(t, "ext-a", extractions[0].ExtractorConfigID)
	assert.True(t, extractions[0].Passthrough)

	chunked := store.allChunkedDocuments()
	require.Len(t, chunked, 1)
	assert.Equal(t, "chk-a", chunked[0].ChunkerConfigID)
	require.NotEmpty(t, chunked[0].Chunks)

	embeddings := store.allChunkEmbeddings()
	require.Len(t, embeddings, 1)
	assert.Equal(t, "emb-a", embeddings[0].EmbeddingConfigID)
	assert.Len(t, embeddings[0].Vectors, len(chunked[0].Chunks), "vectors must align with chunks")

	// Aggregator sees the finished pipeline.
	progress, err := NewAggregator(store).ComputeProgress(ctx, "project-1", []*domain.RagConfig{cfg})
	require.NoError(t, err)
	require.Contains(t, progress, cfg.ID)
	assert.Equal(t, 1, progress[cfg.ID].CompletedCount)
}

func TestOrchestrator_Run_NoStagesEnabled(t *testing.T) {
	store := newMemStore()
	orch := newTestOrchestrator(store, nil, nil, nil)

	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a"))
	req.Stages = StageSelection{}

	_, err := orch.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNoStagesEnabled)
}

func TestOrchestrator_Run_InvalidConfig(t *testing.T) {
	store := newMemStore()
	orch := newTestOrchestrator(store, nil, nil, nil)

	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "", "chk-a", "emb-a"))

	_, err := orch.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRagConfig)
}

func TestOrchestrator_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	for _, id := range []string{"doc-1", "doc-2", "doc-3"} {
		store.addDocument("project-1", testDocument(id))
	}

	extractor := &fakeExtractor{}
	embedder := &fakeEmbedder{}
	orch := newTestOrchestrator(store, extractor, nil, embedder)
	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a"))

	first, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, first.State)
	assert.Equal(t, 3, extractor.callCount())

	// Second run finds nothing to do: no new artifacts, no new external
	// calls.
	second, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, second.State)
	assert.Equal(t, 3, extractor.callCount())
	assert.Equal(t, 0, second.StageCounts[domain.StageExtracting].Total)
	assert.Equal(t, 0, second.StageCounts[domain.StageChunking].Total)
	assert.Equal(t, 0, second.StageCounts[domain.StageEmbedding].Total)
	assert.Len(t, store.allExtractions(), 3)
	assert.Len(t, store.allChunkedDocuments(), 3)
	assert.Len(t, store.allChunkEmbeddings(), 3)
}

func TestOrchestrator_Run_PartialFailureResumption(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	for _, id := range []string{"doc-1", "doc-2", "doc-3", "doc-4"} {
		store.addDocument("project-1", testDocument(id))
	}

	extractor := &fakeExtractor{failFor: map[string]bool{"doc-3": true}}
	orch := newTestOrchestrator(store, extractor, nil, nil)
	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a"))

	first, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDoneWithErrors, first.State)
	assert.Equal(t, 1, first.ErroredAt(domain.StageExtracting))
	// Downstream stages still ran for the documents that extracted.
	assert.Len(t, store.allExtractions(), 3)
	assert.Len(t, store.allChunkedDocuments(), 3)

	// The failed document recovers; re-run redoes only its work.
	extractor.mu.Lock()
	extractor.failFor = nil
	extractor.mu.Unlock()
	callsBefore := extractor.callCount()

	second, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, second.State)
	assert.Equal(t, 1, second.StageCounts[domain.StageExtracting].Total)
	assert.Equal(t, callsBefore+1, extractor.callCount())
	assert.Len(t, store.allExtractions(), 4)
	assert.Len(t, store.allChunkedDocuments(), 4)
	assert.Len(t, store.allChunkEmbeddings(), 4)
}

func TestOrchestrator_Run_EmbeddingAlignmentFailureCounted(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addDocument("project-1", testDocument("doc-1"))

	embedder := &fakeEmbedder{short: true}
	orch := newTestOrchestrator(store, nil, nil, embedder)
	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a"))

	result, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDoneWithErrors, result.State)
	assert.Equal(t, 1, result.ErroredAt(domain.StageEmbedding))
	assert.Empty(t, store.allChunkEmbeddings(), "misaligned vectors are never persisted")
}

func TestOrchestrator_Run_StageSubset(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addDocument("project-1", testDocument("doc-1"))

	orch := newTestOrchestrator(store, nil, nil, nil)
	req := newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a"))
	req.Stages = StageSelection{domain.StageExtracting: true}

	result, err := orch.Run(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDone, result.State)
	assert.Len(t, store.allExtractions(), 1)
	assert.Empty(t, store.allChunkedDocuments())
	assert.Empty(t, store.allChunkEmbeddings())
}

func TestOrchestrator_Run_EmitsObserverEvents(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addDocument("project-1", testDocument("doc-1"))

	var mu sync.Mutex
	var starts, ends int
	var progressEvents []StageSnapshot

	orch := newTestOrchestrator(store, nil, nil, nil)
	orch.Bus().Subscribe(ObserverFuncs{
		Start: func(info RunInfo) {
			mu.Lock()
			starts++
			mu.Unlock()
		},
		Progress: func(s StageSnapshot) {
			mu.Lock()
			progressEvents = append(progressEvents, s)
			mu.Unlock()
		},
		End: func(info RunInfo) {
			mu.Lock()
			ends++
			mu.Unlock()
			assert.Equal(t, domain.RunStateDone, info.State)
		},
	})

	_, err := orch.Run(ctx, newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a")))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	// One document through three stages settles three jobs.
	assert.Len(t, progressEvents, 3)
}

func TestOrchestrator_Run_ErrorEventPerFailedJob(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addDocument("project-1", testDocument("doc-1"))
	store.addDocument("project-1", testDocument("doc-2"))

	extractor := &fakeExtractor{failFor: map[string]bool{"doc-1": true, "doc-2": true}}

	var mu sync.Mutex
	var errorStages []domain.Stage

	orch := newTestOrchestrator(store, extractor, nil, nil)
	orch.Bus().Subscribe(ObserverFuncs{
		Error: func(stage domain.Stage, err error) {
			mu.Lock()
			errorStages = append(errorStages, stage)
			mu.Unlock()
		},
	})

	result, err := orch.Run(ctx, newTestRunRequest("project-1", newTestRagConfig("rag-1", "ext-a", "chk-a", "emb-a")))
	require.NoError(t, err)
	assert.Equal(t, domain.RunStateDoneWithErrors, result.State)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.Stage{domain.StageExtracting, domain.StageExtracting}, errorStages)
}
