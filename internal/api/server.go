package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/animetrack/internal/api/handlers"
	"github.com/amaumene/animetrack/internal/api/middleware"
	"github.com/amaumene/animetrack/internal/config"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/sirupsen/logrus"
)

// Controllers groups everything the handlers call into
type Controllers struct {
	Completion   *controllers.CompletionController
	Title        *controllers.TitleController
	Catalog      *controllers.CatalogController
	Watchthrough *controllers.WatchthroughController
}

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	db      handlers.Snapshotter
	ctrls   Controllers
	metrics *middleware.Metrics
	logger  *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db handlers.Snapshotter, ctrls Controllers, logger *logrus.Logger) *Server {
	s := &Server{
		db:      db,
		ctrls:   ctrls,
		metrics: middleware.NewMetrics(),
		logger:  logger,
	}
	s.metrics.Registry().MustRegister(newTierCollector(ctrls.Completion, logger))

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.Handler(cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler builds the routed handler with its middleware chain
func (s *Server) Handler(corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)

	var h http.Handler = mux
	h = s.metrics.Instrument(h)
	h = middleware.CORS(h, corsOrigins)
	return middleware.Logging(h, s.logger)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	anime := handlers.NewAnimeHandler(s.ctrls.Completion, s.ctrls.Title, s.logger)
	catalog := handlers.NewCatalogHandler(s.ctrls.Catalog, s.logger)
	watchthrough := handlers.NewWatchthroughHandler(s.ctrls.Watchthrough, s.logger)
	backup := handlers.NewBackupHandler(s.db, s.ctrls.Completion, s.logger)

	// Titles
	mux.HandleFunc("GET /allanime", anime.List)
	mux.HandleFunc("GET /anime/{id}", anime.Get)
	mux.HandleFunc("GET /randomanime", anime.Random)
	mux.HandleFunc("POST /saveanime", anime.Save)

	// Catalog
	mux.HandleFunc("GET /tags", catalog.ListTags)
	mux.HandleFunc("GET /tags/{id}", catalog.TitleTags)
	mux.HandleFunc("GET /extras/{id}", catalog.TitleExtras)
	mux.HandleFunc("GET /sources", catalog.ListSources)
	mux.HandleFunc("GET /series", catalog.ListSeries)
	mux.HandleFunc("GET /series/{id}", catalog.SeriesDetail)
	mux.HandleFunc("GET /watchpartners", catalog.ListWatchPartners)
	mux.HandleFunc("POST /saveseries", catalog.SaveSeries)
	mux.HandleFunc("POST /savetag", catalog.SaveTag)
	mux.HandleFunc("POST /savesource", catalog.SaveSource)
	mux.HandleFunc("POST /savewatchpartner", catalog.SaveWatchPartner)

	// Watchthroughs
	mux.HandleFunc("GET /watchthrough/{animeId}/{partnerId}", watchthrough.Get)
	mux.HandleFunc("POST /createwatchthrough", watchthrough.Create)
	mux.HandleFunc("POST /updatewatchthrough", watchthrough.Update)

	// Backup and export
	mux.HandleFunc("GET /backup", backup.Backup)
	mux.HandleFunc("GET /export", backup.Export)

	// Operations
	mux.Handle("GET /health", handlers.NewHealthHandler(s.db, s.logger))
	mux.Handle("GET /status", handlers.NewStatusHandler(s.ctrls.Completion, s.logger))
	mux.Handle("GET /metrics", s.metrics.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
