// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/ownerauth/internal/common/counter"
	"github.com/taibuivan/ownerauth/internal/platform/config"
	"github.com/taibuivan/ownerauth/internal/platform/constants"
	"github.com/taibuivan/ownerauth/internal/platform/metrics"
	"github.com/taibuivan/ownerauth/internal/platform/middleware"
	"github.com/taibuivan/ownerauth/internal/users/account"
	"github.com/taibuivan/ownerauth/internal/users/auth"
	"github.com/taibuivan/ownerauth/internal/users/reset"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and mount it in [NewServer].
type Handlers struct {
	// Liveness is the /health handler. It returns 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login, the verification gates and refresh.
	Auth *auth.Handler

	// Users is the super-admin owner directory.
	Users *account.Handler

	// Reset runs the password-reset approval workflow.
	Reset *reset.Handler

	// Counter exposes the entity counters.
	Counter *counter.Handler

	// Socket upgrades approver dashboards into the realtime room.
	Socket http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, collectors *metrics.Metrics, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(collectors.Middleware)
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", collectors.Handler())

	// # Realtime
	// Long-lived connections stay outside the request timeout.
	if h.Socket != nil {
		r.Handle("/ws/owner", h.Socket)
	}

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Group(func(group chi.Router) {
		group.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		group.Use(middleware.RateLimit(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))

		group.Route("/api/v1", func(api chi.Router) {
			api.Mount("/auth", h.Auth.Routes())
			api.Mount("/users", h.Users.Routes())
			api.Mount("/reset-requests", h.Reset.Routes())
			api.Mount("/counter", h.Counter.Routes())
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
