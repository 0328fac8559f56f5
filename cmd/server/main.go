package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tendant/simple-source/pkg/simplesource"
	"github.com/tendant/simple-source/pkg/simplesource/api"
	"github.com/tendant/simple-source/pkg/simplesource/config"
	"github.com/tendant/simple-source/pkg/simplesource/preview"
)

func main() {
	serverConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	svc, blobs, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	previews := preview.NewManager(blobs)
	defer previews.Close()

	// Issue handles for sources already on disk before taking traffic.
	sources, err := svc.ListSources(ctx)
	if err != nil {
		log.Fatalf("Failed to load sources: %v", err)
	}
	if err := previews.Reconcile(ctx, sources); err != nil {
		log.Fatalf("Failed to build previews: %v", err)
	}

	server := NewHTTPServer(svc, previews, serverConfig)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	go func() {
		slog.Info("Simple Source Server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"repository", serverConfig.RepositoryType,
			"storage", serverConfig.StorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server exiting")
}

// HTTPServer wraps the simple-source service for HTTP access
type HTTPServer struct {
	service  simplesource.Service
	previews *preview.Manager
	config   *config.ServerConfig
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service simplesource.Service, previews *preview.Manager, serverConfig *config.ServerConfig) *HTTPServer {
	return &HTTPServer{
		service:  service,
		previews: previews,
		config:   serverConfig,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/sources", api.NewSourcesHandler(s.service, s.previews).Routes())
		r.Mount("/batches", api.NewBatchesHandler(s.service).Routes())
		r.Mount("/settings", api.NewSettingsHandler(s.service).Routes())
	})

	// Preview URLs are issued under the manager's base path, outside /api/v1.
	r.Mount(preview.DefaultBasePath, api.NewPreviewsHandler(s.previews).Routes())

	return r
}

// Health check endpoint
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"status": "healthy",
		"environment": "%s",
		"repository": "%s",
		"storage": "%s"
	}`, s.config.Environment, s.config.RepositoryType, s.config.StorageBackend)
}
