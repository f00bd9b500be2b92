package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cloo-solutions/ragpipe/internal/api"
	"github.com/cloo-solutions/ragpipe/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type RagConfigRepository interface {
	Create(ctx context.Context, c *domain.RagConfig) error
	GetByID(ctx context.Context, id string) (*domain.RagConfig, error)
	List(ctx context.Context) ([]*domain.RagConfig, error)
}

type RagConfigHandler struct {
	repo RagConfigRepository
}

func NewRagConfigHandler(repo RagConfigRepository) *RagConfigHandler {
	return &RagConfigHandler{repo: repo}
}

type CreateRagConfigRequest struct {
	Name                string `json:"name"`
	ExtractorConfigID   string `json:"extractor_config_id"`
	ChunkerConfigID     string `json:"chunker_config_id"`
	EmbeddingConfigID   string `json:"embedding_config_id"`
	VectorStoreConfigID string `json:"vector_store_config_id,omitempty"`
}

type RagConfigResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	ExtractorConfigID   string `json:"extractor_config_id"`
	ChunkerConfigID     string `json:"chunker_config_id"`
	EmbeddingConfigID   string `json:"embedding_config_id"`
	VectorStoreConfigID string `json:"vector_store_config_id,omitempty"`
	CreatedAt           string `json:"created_at"`
}

func ragConfigToResponse(c *domain.RagConfig) *RagConfigResponse {
	return &RagConfigResponse{
		ID:                  c.ID,
		Name:                c.Name,
		ExtractorConfigID:   c.ExtractorConfigID,
		ChunkerConfigID:     c.ChunkerConfigID,
		EmbeddingConfigID:   c.EmbeddingConfigID,
		VectorStoreConfigID: c.VectorStoreConfigID,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
	}
}

func (h *RagConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRagConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	cfg := &domain.RagConfig{
		ID:                  uuid.NewString(),
		Name:                req.Name,
		ExtractorConfigID:   req.ExtractorConfigID,
		ChunkerConfigID:     req.ChunkerConfigID,
		EmbeddingConfigID:   req.EmbeddingConfigID,
		VectorStoreConfigID: req.VectorStoreConfigID,
		CreatedAt:           time.Now().UTC(),
	}
	if err := domain.ValidateRagConfig(cfg); err != nil {
		api.HandleError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), cfg); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, ragConfigToResponse(cfg))
}

func (h *RagConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	cfg, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ragConfigToResponse(cfg))
}

func (h *RagConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.repo.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*RagConfigResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, ragConfigToResponse(c))
	}

	api.Success(w, http.StatusOK, out)
}
