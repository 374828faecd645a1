// Package httpapi exposes games over a JSON HTTP API for browser clients.
//
// Each game lives in memory as a session keyed by UUID. Settings changes
// apply to games created after the change.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/stage2048/internal/config"
	"github.com/vovakirdan/stage2048/internal/registry"
	"github.com/vovakirdan/stage2048/internal/storage"
)

// Options configures a Server.
type Options struct {
	Settings config.Settings
	Registry *registry.Registry // nil uses registry.Default()
	Store    *storage.Store     // optional, enables /finish and /scores
	Logger   *log.Logger        // nil uses the default logger with an "api" prefix
}

// Server serves the game API.
type Server struct {
	reg      *registry.Registry
	store    *storage.Store
	logger   *log.Logger
	sessions *sessions
	started  time.Time

	mu       sync.RWMutex
	settings config.Settings
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = registry.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.WithPrefix("api")
	}
	return &Server{
		reg:      opts.Registry,
		store:    opts.Store,
		logger:   opts.Logger,
		sessions: newSessions(),
		started:  time.Now(),
		settings: opts.Settings,
	}
}

// Settings returns the settings new games are created with.
func (s *Server) Settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the settings for games created from now on.
func (s *Server) SetSettings(cfg config.Settings) {
	s.mu.Lock()
	s.settings = cfg
	s.mu.Unlock()
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/targets", s.handleTargets)
		r.Get("/scores", s.handleScores)
		r.Post("/replays/verify", s.handleVerify)

		r.Post("/games", s.handleCreate)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/moves", s.handleMoves)
			r.Post("/next", s.handleNext)
			r.Post("/reset", s.handleReset)
			r.Post("/undo", s.handleUndo)
			r.Get("/state", s.handleGetState)
			r.Put("/state", s.handlePutState)
			r.Get("/replay", s.handleReplay)
			r.Post("/finish", s.handleFinish)
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Idle games are evicted after the configured idle timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.evictLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			idle := s.Settings().Server.IdleTimeout()
			if idle <= 0 {
				continue
			}
			if n := s.sessions.evict(now.Add(-idle)); n > 0 {
				s.logger.Debug("Evicted idle games", "count", n)
			}
		}
	}
}

// WatchConfig applies valid settings from w until ctx is done or w closes.
// Invalid settings are logged and ignored.
func (s *Server) WatchConfig(ctx context.Context, w *config.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-w.Settings:
			if !ok {
				return
			}
			if err := cfg.Validate(s.reg); err != nil {
				s.logger.Warn("Ignoring invalid config reload", "error", err)
				continue
			}
			s.SetSettings(cfg)
			s.logger.Info("Config reloaded", "start_size", cfg.Levels.StartSize, "target_fn", cfg.Levels.TargetFn)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Config watch error", "error", err)
		}
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
