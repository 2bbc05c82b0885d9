package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/efsora/ai-service/internal/api/handlers"
	"github.com/efsora/ai-service/internal/config"
	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/core/ingestion_engine"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, obj core.ObjectClient, pipeline *ingestion_engine.ProgressPipeline, index core.VectorIndex, emb core.EmbeddingProvider, llmProvider core.LLMProvider) *Server {
	docHandler := handlers.NewDocumentHandler(obj, pipeline, cfg)
	searchHandler := handlers.NewSearchHandler(emb, index, cfg.CollectionName)
	chatHandler := handlers.NewChatHandler(emb, index, llmProvider, cfg.CollectionName)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		// Embedding streams run long; only the non-streaming endpoints get
		// the blanket timeout.
		api.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(60 * time.Second))
			timed.Post("/documents/upload", docHandler.UploadDocument)
			timed.Post("/search", searchHandler.SearchChunks)
			timed.Post("/embed", searchHandler.EmbedText)
			timed.Post("/chat/query", chatHandler.QueryDocuments)
		})

		api.Post("/documents/embed", docHandler.EmbedDocument)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
