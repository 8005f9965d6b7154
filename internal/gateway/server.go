// Package gateway provides the read-only status HTTP server. It exposes
// health, agent status, and memory record inspection; it never mutates
// pipeline state.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"castpilot/internal/agent"
	"castpilot/internal/config"
	"castpilot/internal/gateway/handlers"
	"castpilot/internal/gateway/middleware"
	"castpilot/internal/storage"
	"castpilot/pkg/logger"
)

// Server is the status HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.GatewayConfig
	registry   *agent.Registry
	db         *storage.DB
	version    string
}

// NewServer creates the status server over the given agent registry and
// record store.
func NewServer(cfg *config.GatewayConfig, registry *agent.Registry, db *storage.DB, version string) *Server {
	router := mux.NewRouter()

	// Middleware chain: Recovery -> Logging
	handler := middleware.Recovery(middleware.Logging(router))

	s := &Server{
		httpServer: &http.Server{
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router:   router,
		config:   cfg,
		registry: registry,
		db:       db,
		version:  version,
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures the server routes. All endpoints are GET-only;
// a matched path with any other method gets an explicit 405. Routes are
// registered flat on the root router so the method mismatch is seen by
// it instead of falling through a subrouter as a 404.
func (s *Server) setupRoutes() {
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	health := handlers.HealthHandler(s.version, s.registry)
	s.router.HandleFunc("/health", health).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/health", health).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/agents", handlers.ListAgentsHandler(s.registry)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/agents/{name}", handlers.GetAgentHandler(s.registry)).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/memories", handlers.ListMemoriesHandler(s.db)).Methods(http.MethodGet)
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	handlers.InitStartTime()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer.Addr = addr

	logger.Info().
		Str("addr", addr).
		Msg("starting status server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info().Msg("shutting down status server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}

// Router returns the underlying router for testing.
func (s *Server) Router() *mux.Router {
	return s.router
}
