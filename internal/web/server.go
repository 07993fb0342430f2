// Package web exposes the analytics engine over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/ingest"
	"github.com/tasteline/tasteline/internal/logging"
	"github.com/tasteline/tasteline/internal/store"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr                string
	Engine              *analytics.Engine
	DB                  *store.DB
	Importer            *ingest.Service
	SpotifyClientID     string
	SpotifyClientSecret string
	Log                 zerolog.Logger
}

// Server is the HTTP server for the analytics API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	log      zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	newSource := func(ctx context.Context, token *oauth2.Token) ingest.Source {
		client := ingest.ClientFromToken(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, token)
		return ingest.NewSpotifySource(client)
	}

	handlers := NewHandlers(
		cfg.Engine,
		cfg.DB.Feedback(),
		cfg.DB.Users(),
		cfg.DB.Snapshots(),
		cfg.Importer,
		newSource,
		cfg.Log,
	)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		log:      cfg.Log,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.RequestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Cache invalidation takes an optional user scope, so it sits
		// outside the identity requirement.
		r.Post("/cache/invalidate", s.handlers.InvalidateCache)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/timeline", s.handlers.Timeline)
			r.Get("/seasonal", s.handlers.Seasonal)
			r.Get("/seasonal/monthly", s.handlers.Monthly)
			r.Post("/compare", s.handlers.Compare)
			r.Post("/playlist/regenerate", s.handlers.RegeneratePlaylist)
			r.Post("/snapshots", s.handlers.CreateSnapshot)
			r.Get("/snapshots", s.handlers.ListSnapshots)
			r.Get("/snapshots/{id}", s.handlers.GetSnapshot)
			r.Get("/snapshots/{id}/export", s.handlers.ExportSnapshot)
			r.Get("/eras", s.handlers.Eras)
			r.Post("/feedback", s.handlers.CreateFeedback)
			r.Post("/ingest/spotify", s.handlers.IngestSpotify)
			r.Put("/profile", s.handlers.UpdateProfile)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt
// signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}
