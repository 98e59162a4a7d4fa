package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shelfmark/shelfmark/engine"
	"github.com/shelfmark/shelfmark/internal/logger"
	"github.com/shelfmark/shelfmark/scheduler"
	"github.com/shelfmark/shelfmark/store"
)

// Server wires the store, the engine manager and the HTTP surface.
type Server struct {
	store   store.Store
	manager *engine.Manager
	sweeper *scheduler.Sweeper
	router  *chi.Mux
}

// NewServer builds a Server over any Store implementation.
func NewServer(ctx context.Context, st store.Store, sweepInterval time.Duration) (*Server, error) {
	evaluator, err := engine.NewEvaluator()
	if err != nil {
		return nil, err
	}

	manager, err := engine.NewManager(ctx, st, evaluator)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:   st,
		manager: manager,
		sweeper: scheduler.New(st, manager, sweepInterval),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/statuses", s.handleListStatuses)

	r.Route("/api/v1/settings", func(r chi.Router) {
		r.Get("/", s.handleGetSettings)
		r.Put("/", s.handleUpdateSettings)
	})

	r.Get("/api/v1/rules/effective", s.handleEffectiveRules)

	r.Route("/api/v1/works", func(r chi.Router) {
		r.Get("/", s.handleListWorks)
		r.Post("/", s.handleCreateWork)

		r.Route("/{workId}", func(r chi.Router) {
			r.Get("/", s.handleGetWork)
			r.Put("/", s.handleUpdateWork)
			r.Delete("/", s.handleDeleteWork)
			r.Post("/events/chapter-read", s.handleChapterRead)
		})
	})

	r.Post("/api/v1/sweep", s.handleSweep)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func main() {
	ctx := context.Background()

	var st store.Store
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := store.OpenPostgres(databaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		st = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store; data will not survive restarts")
		st = store.NewMemoryStore()
	}
	defer st.Close()

	sweepInterval := scheduler.DefaultInterval
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatal("invalid SWEEP_INTERVAL", "value", v, "error", err)
		}
		sweepInterval = d
	}

	server, err := NewServer(ctx, st, sweepInterval)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	go func() {
		if err := server.sweeper.Run(sweepCtx); err != nil {
			logger.Error("sweeper exited", "error", err)
		}
	}()

	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}
}
