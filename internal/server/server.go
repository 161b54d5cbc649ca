// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/matt-FFFFFF/fanrun/internal/ctxlog"
	"github.com/matt-FFFFFF/fanrun/internal/history"
	"github.com/matt-FFFFFF/fanrun/internal/profile"
	"github.com/matt-FFFFFF/fanrun/internal/runbatch"
)

// Executor is the part of the engine the server uses.
type Executor interface {
	ExecuteRequest(ctx context.Context, req runbatch.Request) *runbatch.ResultStream
	History() []history.Entry
	ClearHistory()
}

// Config holds server settings.
type Config struct {
	Listen         string
	DefaultTimeout time.Duration
	StopOnFailure  bool
	TierOrder      []string
}

// Server is the HTTP API.
type Server struct {
	config    Config
	engine    Executor
	registry  profile.Registry
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a server. A nil logger means the ctxlog default.
func New(config Config, engine Executor, registry profile.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = ctxlog.DefaultLogger
	}

	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = runbatch.DefaultTimeout
	}

	return &Server{
		config:    config,
		engine:    engine,
		registry:  registry,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctxlog.New(context.WithoutCancel(ctx), s.logger)
		},
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/execute", s.handleExecute)
		r.Get("/history", s.handleGetHistory)
		r.Delete("/history", s.handleClearHistory)
		r.Get("/profiles", s.handleProfiles)
	})

	return r
}

// loggingMiddleware logs each request and puts a request scoped logger in the context.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		logger := s.logger.With("request_id", reqID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctxlog.New(r.Context(), logger)))

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
