package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/cloo-solutions/ragpipe/internal/api"
	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/cloo-solutions/ragpipe/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type IndexService interface {
	RunIndex(ctx context.Context, projectID, ragConfigID string, stages pipeline.StageSelection) (*pipeline.RunResult, error)
	Status(ctx context.Context, projectID string) (map[string]*pipeline.Progress, error)
}

type IndexHandler struct {
	svc              IndexService
	defaultProjectID string
}

func NewIndexHandler(svc IndexService, defaultProjectID string) *IndexHandler {
	return &IndexHandler{svc: svc, defaultProjectID: defaultProjectID}
}

type RunIndexRequest struct {
	ProjectID string   `json:"project_id,omitempty"`
	Stages    []string `json:"stages,omitempty"`
}

type StageCountsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Errored   int `json:"errored"`
}

type RunIndexResponse struct {
	RagConfigID string                         `json:"rag_config_id"`
	State       string                         `json:"state"`
	Errors      int                            `json:"errors"`
	StageCounts map[string]StageCountsResponse `json:"stage_counts"`
}

type ProgressResponse struct {
	TotalDocumentCount  int      `json:"total_document_count"`
	ExtractedCount      int      `json:"extracted_count"`
	ExtractedErrorCount int      `json:"extracted_error_count"`
	ChunkedCount        int      `json:"chunked_count"`
	ChunkedErrorCount   int      `json:"chunked_error_count"`
	EmbeddedCount       int      `json:"embedded_count"`
	EmbeddedErrorCount  int      `json:"embedded_error_count"`
	CompletedCount      int      `json:"completed_count"`
	Logs                []string `json:"logs,omitempty"`
}

func stageSelectionFromNames(names []string) (pipeline.StageSelection, bool) {
	if len(names) == 0 {
		return pipeline.AllStages(), true
	}

	sel := make(pipeline.StageSelection, len(names))
	for _, name := range names {
		stage := domain.Stage(name)
		switch stage {
		case domain.StageExtracting, domain.StageChunking, domain.StageEmbedding:
			sel[stage] = true
		default:
			return nil, false
		}
	}
	return sel, true
}

func runResultToResponse(result *pipeline.RunResult) *RunIndexResponse {
	counts := make(map[string]StageCountsResponse, len(result.StageCounts))
	for stage, snap := range result.StageCounts {
		counts[string(stage)] = StageCountsResponse{
			Total:     snap.Total,
			Completed: snap.Completed,
			Errored:   snap.Errored,
		}
	}
	return &RunIndexResponse{
		RagConfigID: result.RagConfigID,
		State:       string(result.State),
		Errors:      result.Errors,
		StageCounts: counts,
	}
}

func (h *IndexHandler) projectID(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultProjectID
}

func (h *IndexHandler) Run(w http.ResponseWriter, r *http.Request) {
	configID := chi.URLParam(r, "id")
	if configID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req RunIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stages, ok := stageSelectionFromNames(req.Stages)
	if !ok {
		api.Error(w, http.StatusBadRequest, "unknown stage name")
		return
	}

	result, err := h.svc.RunIndex(r.Context(), h.projectID(req.ProjectID), configID, stages)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, runResultToResponse(result))
}

func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	projectID := h.projectID(r.URL.Query().Get("project_id"))

	progress, err := h.svc.Status(r.Context(), projectID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make(map[string]*ProgressResponse, len(progress))
	for id, p := range progress {
		out[id] = &ProgressResponse{
			TotalDocumentCount:  p.TotalDocumentCount,
			ExtractedCount:      p.ExtractedCount,
			ExtractedErrorCount: p.ExtractedErrorCount,
			ChunkedCount:        p.ChunkedCount,
			ChunkedErrorCount:   p.ChunkedErrorCount,
			EmbeddedCount:       p.EmbeddedCount,
			EmbeddedErrorCount:  p.EmbeddedErrorCount,
			CompletedCount:      p.CompletedCount,
			Logs:                p.Logs,
		}
	}

	api.Success(w, http.StatusOK, out)
}
