package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloo-solutions/ragpipe/internal/domain"
)

// memStore is an in-memory ArtifactStore used across the pipeline tests. It
// is safe for concurrent use, like the real repository-backed store.
type memStore struct {
	mu          sync.Mutex
	documents   map[string][]*domain.Document        // projectID -> docs
	extractions map[string][]*domain.Extraction      // documentID -> extractions
	chunked     map[string][]*domain.ChunkedDocument // extractionID -> chunked docs
	embeddings  map[string][]*domain.ChunkEmbeddings // chunkedDocumentID -> embeddings

	saveExtractionErr      error
	saveChunkedDocumentErr error
	saveChunkEmbeddingsErr error
}

func newMemStore() *memStore {
	return &memStore{
		documents:   make(map[string][]*domain.Document),
		extractions: make(map[string][]*domain.Extraction),
		chunked:     make(map[string][]*domain.ChunkedDocument),
		embeddings:  make(map[string][]*domain.ChunkEmbeddings),
	}
}

func (s *memStore) addDocument(projectID string, doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[projectID] = append(s.documents[projectID], doc)
}

func (s *memStore) ListDocuments(ctx context.Context, projectID string) ([]*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Document(nil), s.documents[projectID]...), nil
}

func (s *memStore) ListExtractions(ctx context.Context, documentID string) ([]*domain.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Extraction(nil), s.extractions[documentID]...), nil
}

func (s *memStore) ListChunkedDocuments(ctx context.Context, extractionID string) ([]*domain.ChunkedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.ChunkedDocument(nil), s.chunked[extractionID]...), nil
}

func (s *memStore) ListChunkEmbeddings(ctx context.Context, chunkedDocumentID string) ([]*domain.ChunkEmbeddings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.ChunkEmbeddings(nil), s.embeddings[chunkedDocumentID]...), nil
}

func (s *memStore) SaveExtraction(ctx context.Context, e *domain.Extraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveExtractionErr != nil {
		return s.saveExtractionErr
	}
	s.extractions[e.DocumentID] = append(s.extractions[e.DocumentID], e)
	return nil
}

func (s *memStore) SaveChunkedDocument(ctx context.Context, cd *domain.ChunkedDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveChunkedDocumentErr != nil {
		return s.saveChunkedDocumentErr
	}
	s.chunked[cd.ExtractionID] = append(s.chunked[cd.ExtractionID], cd)
	return nil
}

func (s *memStore) SaveChunkEmbeddings(ctx context.Context, ce *domain.ChunkEmbeddings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveChunkEmbeddingsErr != nil {
		return s.saveChunkEmbeddingsErr
	}
	s.embeddings[ce.ChunkedDocumentID] = append(s.embeddings[ce.ChunkedDocumentID], ce)
	return nil
}

func (s *memStore) allExtractions() []*domain.Extraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Extraction
	for _, list := range s.extractions {
		out = append(out, list...)
	}
	return out
}

func (s *memStore) allChunkedDocuments() []*domain.ChunkedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ChunkedDocument
	for _, list := range s.chunked {
		out = append(out, list...)
	}
	return out
}

func (s *memStore) allChunkEmbeddings() []*domain.ChunkEmbeddings {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ChunkEmbeddings
	for _, list := range s.embeddings {
		out = append(out, list...)
	}
	return out
}

// fakeExtractor passes document content through, failing for IDs listed in
// failFor.
type fakeExtractor struct {
	mu      sync.Mutex
	failFor map[string]bool
	calls   []string
}

func (f *fakeExtractor) Extract(ctx context.Context, doc *domain.Document, cfg domain.ExtractorConfig) (*ExtractResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, doc.ID)
	fail := f.failFor[doc.ID]
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("extractor refused document %s", doc.ID)
	}
	return &ExtractResult{
		Content:     "content of " + doc.Filename,
		Format:      domain.ContentFormatText,
		Passthrough: true,
	}, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeChunker splits on whitespace, one chunk per word
type fakeChunker struct {
	err error
}

func (f *fakeChunker) Chunk(ctx context.Context, text string, cfg domain.ChunkerConfig) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return strings.Fields(text), nil
}

// fakeEmbedder returns one small vector per input text
type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	short bool // return one vector too few
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, cfg domain.EmbeddingConfig) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short && n > 0 {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

func newTestRagConfig(id, extractorID, chunkerID, embeddingID string) *domain.RagConfig {
	return &domain.RagConfig{
		ID:                id,
		Name:              "config " + id,
		ExtractorConfigID: extractorID,
		ChunkerConfigID:   chunkerID,
		EmbeddingConfigID: embeddingID,
	}
}

func newTestRunRequest(projectID string, cfg *domain.RagConfig) *RunRequest {
	return &RunRequest{
		ProjectID: projectID,
		Config:    cfg,
		Extractor: domain.ExtractorConfig{ID: cfg.ExtractorConfigID},
		Chunker:   domain.DefaultChunkerConfig(cfg.ChunkerConfigID),
		Embedding: domain.EmbeddingConfig{ID: cfg.EmbeddingConfigID, Model: "test-model", Dimensions: 2},
		Stages:    AllStages(),
	}
}
