package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
	"github.com/cloo-solutions/ragpipe/internal/telemetry"
)

const (
	defaultEmbeddingModel      = "text-embedding-ada-002"
	defaultEmbeddingDimensions = 1536
)

// RagConfigReader is the slice of config persistence the index service needs
type RagConfigReader interface {
	GetByID(ctx context.Context, id string) (*domain.RagConfig, error)
	List(ctx context.Context) ([]*domain.RagConfig, error)
}

// PipelineRunner executes one pipeline run for a rag config
type PipelineRunner interface {
	Run(ctx context.Context, req *pipeline.RunRequest) (*pipeline.RunResult, error)
}

// ProgressComputer reports derivation progress for a set of rag configs
type ProgressComputer interface {
	ComputeProgress(ctx context.Context, projectID string, configs []*domain.RagConfig) (map[string]*pipeline.Progress, error)
}

// IndexService is the application face of the pipeline: it resolves stored
// rag configs into concrete run requests, triggers runs, and answers progress
// queries with the error counts of the most recent run folded in.
type IndexService struct {
	configs  RagConfigReader
	runner   PipelineRunner
	progress ProgressComputer

	embeddingModel      string
	embeddingDimensions int

	mu       sync.Mutex
	lastRuns map[string]*pipeline.RunResult
}

// IndexServiceOption configures an IndexService
type IndexServiceOption func(*IndexService)

// WithEmbeddingModel overrides the embedding model and dimensions applied to
// resolved run requests
func WithEmbeddingModel(model string, dimensions int) IndexServiceOption {
	return func(s *IndexService) {
		if model != "" {
			s.embeddingModel = model
		}
		if dimensions > 0 {
			s.embeddingDimensions = dimensions
		}
	}
}

func NewIndexService(configs RagConfigReader, runner PipelineRunner, progress ProgressComputer, opts ...IndexServiceOption) *IndexService {
	s := &IndexService{
		configs:             configs,
		runner:              runner,
		progress:            progress,
		embeddingModel:      defaultEmbeddingModel,
		embeddingDimensions: defaultEmbeddingDimensions,
		lastRuns:            make(map[string]*pipeline.RunResult),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunIndex runs the selected stages for one stored rag config
func (s *IndexService) RunIndex(ctx context.Context, projectID, ragConfigID string, stages pipeline.StageSelection) (*pipeline.RunResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.run", telemetry.SpanAttributes{
		ProjectID:   projectID,
		RagConfigID: ragConfigID,
		Operation:   "run_index",
	})
	defer span.End()

	cfg, err := s.configs.GetByID(ctx, ragConfigID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result, err := s.runner.Run(ctx, s.buildRequest(projectID, cfg, stages))
	if result != nil {
		s.recordRun(result)
	}
	if err != nil {
		span.SetError(err)
		return result, fmt.Errorf("run config %s: %w", ragConfigID, err)
	}
	return result, nil
}

// RunAll runs the full pipeline for every stored rag config. A failing run
// does not stop the others; failures are logged and reflected in the next
// Status call.
func (s *IndexService) RunAll(ctx context.Context, projectID string) ([]*pipeline.RunResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.run_all", telemetry.SpanAttributes{
		ProjectID: projectID,
		Operation: "run_all",
	})
	defer span.End()

	configs, err := s.configs.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results := make([]*pipeline.RunResult, 0, len(configs))
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := s.runner.Run(ctx, s.buildRequest(projectID, cfg, pipeline.AllStages()))
		if result != nil {
			s.recordRun(result)
			results = append(results, result)
		}
		if err != nil {
			log.Printf("indexing: run config %s: %v", cfg.ID, err)
			telemetry.CaptureError(ctx, err)
		}
	}
	return results, nil
}

// Status computes progress for every stored rag config, merging in the error
// counts and terminal state of each config's most recent run.
func (s *IndexService) Status(ctx context.Context, projectID string) (map[string]*pipeline.Progress, error) {
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	progress, err := s.progress.ComputeProgress(ctx, projectID, configs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range progress {
		run, ok := s.lastRuns[id]
		if !ok {
			continue
		}
		p.ExtractedErrorCount = run.ErroredAt(domain.StageExtracting)
		p.ChunkedErrorCount = run.ErroredAt(domain.StageChunking)
		p.EmbeddedErrorCount = run.ErroredAt(domain.StageEmbedding)
		p.Logs = append(p.Logs, fmt.Sprintf("last run finished in state %s with %d errors", run.State, run.Errors))
	}
	return progress, nil
}

func (s *IndexService) buildRequest(projectID string, cfg *domain.RagConfig, stages pipeline.StageSelection) *pipeline.RunRequest {
	return &pipeline.RunRequest{
		ProjectID: projectID,
		Config:    cfg,
		Extractor: domain.ExtractorConfig{ID: cfg.ExtractorConfigID},
		Chunker:   domain.DefaultChunkerConfig(cfg.ChunkerConfigID),
		Embedding: domain.EmbeddingConfig{
			ID:         cfg.EmbeddingConfigID,
			Model:      s.embeddingModel,
			Dimensions: s.embeddingDimensions,
		},
		Stages: stages,
	}
}

func (s *IndexService) recordRun(result *pipeline.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns[result.RagConfigID] = result
}
