// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/docuflow-ai/summary-engine/cmd/summary-engine-api/handlers"
	"github.com/docuflow-ai/summary-engine/cmd/summary-engine-api/middleware"
	"github.com/docuflow-ai/summary-engine/internal/config"
	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, client *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"summary-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := client.Ping(r.Context()).Err(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not_ready"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Create service dependencies
	meta := store.NewRedisMetadataStore(client)
	bin := store.NewRedisBinaryStore(client)
	channel := queue.NewRedisChannelFromClient(client)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(logger, meta, bin, channel, cfg.Ingestion.MaxUploadBytes)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Upload)
			r.Get("/", documentHandler.List)
			r.Get("/{documentId}", documentHandler.Status)
		})
	})

	return r
}
