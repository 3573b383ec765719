// Package api provides the HTTP facade over the inventory read
// orchestrator.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/models"
	"github.com/inventory-hub/internal/service"
	"github.com/inventory-hub/internal/types"
)

// Service interfaces for dependency injection and testing

// OrchestratorInterface defines the read operations the facade exposes
type OrchestratorInterface interface {
	Load(ctx context.Context, userID string, spec models.FilterSpec, force bool) *service.LoadResult
	Advance(ctx context.Context, userID string, spec models.FilterSpec) (*service.AdvanceResult, *apperrors.ReadError)
	LoadDetail(ctx context.Context, userID, listingID string, groups fields.GroupSet) (*models.ListingDetail, *apperrors.ReadError)
	IsLoadingDetails(listingID string) bool
	Health() (models.HealthStatus, types.HealthState)
	SetOfflineMode(enabled bool)
	OfflineMode() bool
	ClearFallback(ctx context.Context, userID string)
}

// SessionInterface defines the identity operations the facade needs
type SessionInterface interface {
	Resolve(ctx context.Context, userID string) types.IdentityResult
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	inventory  OrchestratorInterface
	sessions   SessionInterface
	config     *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, inventory OrchestratorInterface, sessions SessionInterface) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		inventory: inventory,
		sessions:  sessions,
		config:    config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: logging outermost, compression innermost
	s.router.Use(RequestIDMiddleware)
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// OPTIONS is listed so preflight requests reach the CORS middleware
	api.HandleFunc("/listings", s.handleListListings).Methods("GET", "OPTIONS")
	api.HandleFunc("/listings/advance", s.handleAdvance).Methods("POST", "OPTIONS")
	api.HandleFunc("/listings/{id}", s.handleGetListing).Methods("GET", "OPTIONS")

	// Cache and degraded-mode control
	api.HandleFunc("/refresh", s.handleRefresh).Methods("POST", "OPTIONS")
	api.HandleFunc("/offline", s.handleOffline).Methods("POST", "OPTIONS")
	api.HandleFunc("/fallback", s.handleClearFallback).Methods("DELETE", "OPTIONS")
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
