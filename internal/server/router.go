package server

import (
	"net/http"

	"github.com/cloo-solutions/ragpipe/internal/api"
	"github.com/cloo-solutions/ragpipe/internal/api/handlers"
	"github.com/cloo-solutions/ragpipe/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	DocumentHandler  *handlers.DocumentHandler
	RagConfigHandler *handlers.RagConfigHandler
	IndexHandler     *handlers.IndexHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/init", cfg.DocumentHandler.InitUpload)
		r.Post("/complete", cfg.DocumentHandler.CompleteUpload)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}/download", cfg.DocumentHandler.GetDownloadURL)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
	})

	r.Route("/configs", func(r chi.Router) {
		r.Post("/", cfg.RagConfigHandler.Create)
		r.Get("/", cfg.RagConfigHandler.List)
		r.Get("/{id}", cfg.RagConfigHandler.Get)
	})

	r.Route("/index", func(r chi.Router) {
		r.Post("/{id}/run", cfg.IndexHandler.Run)
		r.Get("/status", cfg.IndexHandler.Status)
	})

	return r
}
