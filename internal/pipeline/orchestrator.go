package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/google/uuid"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// StageSelection controls which stages a run executes
type StageSelection map[domain.Stage]bool

// AllStages returns a selection with every stage enabled
func AllStages() StageSelection {
	sel := make(StageSelection, 3)
	for _, s := range domain.Stages() {
		sel[s] = true
	}
	return sel
}

func (s StageSelection) anyEnabled() bool {
	for _, stage := range domain.Stages() {
		if s[stage] {
			return true
		}
	}
	return false
}

// RunRequest describes one pipeline run: the rag config being built, the
// resolved stage configs, and which stages to execute.
type RunRequest struct {
	ProjectID string
	Config    *domain.RagConfig
	Extractor domain.ExtractorConfig
	Chunker   domain.ChunkerConfig
	Embedding domain.EmbeddingConfig
	Stages    StageSelection
}

// RunResult reports the terminal state of one run with the final snapshot
// of every executed stage.
type RunResult struct {
	RagConfigID string
	State       domain.RunState
	StageCounts map[domain.Stage]Snapshot
	Errors      int
}

// ErroredAt returns the error count of one stage's final snapshot
func (r *RunResult) ErroredAt(stage domain.Stage) int {
	return r.StageCounts[stage].Errored
}

// Orchestrator sequences the three stages for one rag config: collect what
// is missing, run it with bounded concurrency, persist each success before
// the next stage collects. Individual job failures are counted, reported to
// observers, and never abort the run.
type Orchestrator struct {
	store       ArtifactStore
	extractor   Extractor
	chunker     Chunker
	embedder    EmbeddingAdapter
	collector   *Collector
	bus         *ObserverBus
	uuidGen     UUIDGenerator
	concurrency int

	// One lock per rag config ID so concurrent runs of the same config
	// serialize while distinct configs proceed in parallel. Owned by this
	// instance; no process-wide state.
	mu       sync.Mutex
	runLocks map[string]*sync.Mutex
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithConcurrency sets the per-stage job concurrency (default 10)
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithObserverBus sets the bus lifecycle events are published on
func WithObserverBus(bus *ObserverBus) OrchestratorOption {
	return func(o *Orchestrator) {
		if bus != nil {
			o.bus = bus
		}
	}
}

// WithUUIDGenerator sets a custom artifact ID generator (for testing)
func WithUUIDGenerator(gen UUIDGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		if gen != nil {
			o.uuidGen = gen
		}
	}
}

// NewOrchestrator creates an Orchestrator over the given store and stage
// collaborators
func NewOrchestrator(store ArtifactStore, extractor Extractor, chunker Chunker, embedder EmbeddingAdapter, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		collector:   NewCollector(store),
		bus:         NewObserverBus(),
		uuidGen:     &DefaultUUIDGenerator{},
		concurrency: DefaultConcurrency,
		runLocks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bus returns the orchestrator's observer bus for subscribing listeners
func (o *Orchestrator) Bus() *ObserverBus {
	return o.bus
}

// stageHandler is one step of the pipeline behind a common collect/execute
// contract. Handlers return jobs already bound to their execution and
// persistence; the orchestrator only sequences and counts them.
type stageHandler interface {
	stage() domain.Stage
	collect(ctx context.Context, req *RunRequest) ([]Job, error)
}

// Run executes the enabled stages in order for one rag config. It fails
// fast if no stage is enabled or the config is invalid; per-job failures
// are tolerated and reflected in the result state. Re-running after a
// partial failure only redoes the failed work.
func (o *Orchestrator) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req == nil || req.Config == nil {
		return nil, domain.ErrMissingRequiredField
	}
	if err := domain.ValidateRagConfig(req.Config); err != nil {
		return nil, err
	}
	if !req.Stages.anyEnabled() {
		return nil, domain.ErrNoStagesEnabled
	}

	lock := o.lockFor(req.Config.ID)
	lock.Lock()
	defer lock.Unlock()

	result := &RunResult{
		RagConfigID: req.Config.ID,
		State:       domain.RunStateNotStarted,
		StageCounts: make(map[domain.Stage]Snapshot),
	}

	o.bus.NotifyStart(RunInfo{
		RagConfigID: req.Config.ID,
		ProjectID:   req.ProjectID,
		State:       result.State,
	})

	handlers := []stageHandler{
		&extractingStage{o: o},
		&chunkingStage{o: o},
		&embeddingStage{o: o},
	}

	for _, h := range handlers {
		if !req.Stages[h.stage()] {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		result.State = domain.RunningState(h.stage())
		jobs, err := h.collect(ctx, req)
		if err != nil {
			result.State = domain.RunStateError
			o.bus.NotifyError(h.stage(), err)
			o.notifyEnd(req, result)
			return result, fmt.Errorf("collect %s jobs: %w", h.stage(), err)
		}

		log.Printf("pipeline: config %s stage %s: %d jobs to run", req.Config.ID, h.stage(), len(jobs))

		snap := o.runStage(ctx, h.stage(), jobs)
		result.StageCounts[h.stage()] = snap
		result.Errors += snap.Errored
	}

	if err := ctx.Err(); err != nil {
		result.State = domain.RunStateError
		o.notifyEnd(req, result)
		return result, err
	}

	if result.Errors > 0 {
		result.State = domain.RunStateDoneWithErrors
	} else {
		result.State = domain.RunStateDone
	}
	o.notifyEnd(req, result)
	return result, nil
}

// runStage drives one batch through the runner, forwarding progress to the
// bus, and returns the final snapshot. Stage N+1 never collects before this
// returns, which is the cross-stage happens-before guarantee.
func (o *Orchestrator) runStage(ctx context.Context, stage domain.Stage, jobs []Job) Snapshot {
	runner := NewRunner(o.concurrency)
	var last Snapshot
	last.Total = len(jobs)
	for snap := range runner.Run(ctx, jobs) {
		last = snap
		o.bus.NotifyProgress(StageSnapshot{Stage: stage, Snapshot: snap})
	}
	return last
}

func (o *Orchestrator) notifyEnd(req *RunRequest, result *RunResult) {
	o.bus.NotifyEnd(RunInfo{
		RagConfigID: req.Config.ID,
		ProjectID:   req.ProjectID,
		State:       result.State,
		Errors:      result.Errors,
	})
}

func (o *Orchestrator) lockFor(ragConfigID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.runLocks[ragConfigID]
	if !ok {
		lock = &sync.Mutex{}
		o.runLocks[ragConfigID] = lock
	}
	return lock
}

// reportFailure wraps a bound job so its failure reaches observers before
// the runner counts it
func (o *Orchestrator) reportFailure(stage domain.Stage, job Job) Job {
	return func(ctx context.Context) error {
		err := job(ctx)
		if err != nil {
			o.bus.NotifyError(stage, err)
		}
		return err
	}
}

type extractingStage struct {
	o *Orchestrator
}

func (s *extractingStage) stage() domain.Stage {
	return domain.StageExtracting
}

func (s *extractingStage) collect(ctx context.Context, req *RunRequest) ([]Job, error) {
	docs, err := s.o.store.ListDocuments(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	pending, err := s.o.collector.CollectExtractionJobs(ctx, docs, req.Extractor)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(pending))
	for _, j := range pending {
		j := j
		jobs = append(jobs, s.o.reportFailure(s.stage(), func(ctx context.Context) error {
			return s.o.executeExtraction(ctx, j)
		}))
	}
	return jobs, nil
}

func (o *Orchestrator) executeExtraction(ctx context.Context, j ExtractionJob) error {
	res, err := o.extractor.Extract(ctx, j.Document, j.Config)
	if err != nil {
		return fmt.Errorf("extract document %s: %w", j.Document.ID, err)
	}

	e := &domain.Extraction{
		ID:                o.uuidGen.NewString(),
		DocumentID:        j.Document.ID,
		ExtractorConfigID: j.Config.ID,
		Content:           res.Content,
		ContentFormat:     res.Format,
		Passthrough:       res.Passthrough,
		CreatedAt:         time.Now().UTC(),
	}
	if err := domain.ValidateExtraction(e); err != nil {
		return fmt.Errorf("extraction for document %s: %w", j.Document.ID, err)
	}
	if err := o.store.SaveExtraction(ctx, e); err != nil {
		return fmt.Errorf("save extraction for document %s: %w", j.Document.ID, err)
	}
	return nil
}

type chunkingStage struct {
	o *Orchestrator
}

func (s *chunkingStage) stage() domain.Stage {
	return domain.StageChunking
}

func (s *chunkingStage) collect(ctx context.Context, req *RunRequest) ([]Job, error) {
	docs, err := s.o.store.ListDocuments(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	pending, err := s.o.collector.CollectChunkingJobs(ctx, docs, req.Extractor, req.Chunker)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(pending))
	for _, j := range pending {
		j := j
		jobs = append(jobs, s.o.reportFailure(s.stage(), func(ctx context.Context) error {
			return s.o.executeChunking(ctx, j)
		}))
	}
	return jobs, nil
}

func (o *Orchestrator) executeChunking(ctx context.Context, j ChunkingJob) error {
	segments, err := o.chunker.Chunk(ctx, j.Extraction.Content, j.Config)
	if err != nil {
		return fmt.Errorf("chunk extraction %s: %w", j.Extraction.ID, err)
	}

	cd := &domain.ChunkedDocument{
		ID:              o.uuidGen.NewString(),
		ExtractionID:    j.Extraction.ID,
		ChunkerConfigID: j.Config.ID,
		Chunks:          make([]domain.Chunk, 0, len(segments)),
		CreatedAt:       time.Now().UTC(),
	}
	for i, text := range segments {
		cd.Chunks = append(cd.Chunks, domain.Chunk{Index: i, Content: text})
	}
	if err := domain.ValidateChunkedDocument(cd); err != nil {
		return fmt.Errorf("chunked document for extraction %s: %w", j.Extraction.ID, err)
	}
	if err := o.store.SaveChunkedDocument(ctx, cd); err != nil {
		return fmt.Errorf("save chunked document for extraction %s: %w", j.Extraction.ID, err)
	}
	return nil
}

type embeddingStage struct {
	o *Orchestrator
}

func (s *embeddingStage) stage() domain.Stage {
	return domain.StageEmbedding
}

func (s *embeddingStage) collect(ctx context.Context, req *RunRequest) ([]Job, error) {
	docs, err := s.o.store.ListDocuments(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	pending, err := s.o.collector.CollectEmbeddingJobs(ctx, docs, req.Extractor, req.Chunker, req.Embedding)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(pending))
	for _, j := range pending {
		j := j
		jobs = append(jobs, s.o.reportFailure(s.stage(), func(ctx context.Context) error {
			return s.o.executeEmbedding(ctx, j)
		}))
	}
	return jobs, nil
}

func (o *Orchestrator) executeEmbedding(ctx context.Context, j EmbeddingJob) error {
	texts := make([]string, len(j.ChunkedDocument.Chunks))
	for i, c := range j.ChunkedDocument.Chunks {
		texts[i] = c.Content
	}

	vectors, err := o.embedder.Embed(ctx, texts, j.Config)
	if err != nil {
		return fmt.Errorf("embed chunked document %s: %w", j.ChunkedDocument.ID, err)
	}

	ce := &domain.ChunkEmbeddings{
		ID:                o.uuidGen.NewString(),
		ChunkedDocumentID: j.ChunkedDocument.ID,
		EmbeddingConfigID: j.Config.ID,
		Vectors:           vectors,
		CreatedAt:         time.Now().UTC(),
	}
	if err := domain.ValidateChunkEmbeddings(ce, len(j.ChunkedDocument.Chunks)); err != nil {
		return fmt.Errorf("embeddings for chunked document %s: %w", j.ChunkedDocument.ID, err)
	}
	if err := o.store.SaveChunkEmbeddings(ctx, ce); err != nil {
		return fmt.Errorf("save embeddings for chunked document %s: %w", j.ChunkedDocument.ID, err)
	}
	return nil
}
