// Package api provides the HTTP API server for wallet profiles.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// ProfileServiceInterface defines the profile operations the API exposes
type ProfileServiceInterface interface {
	GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error)
	GetByID(ctx context.Context, id int64) (*models.WalletProfile, error)
	Create(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error)
	Update(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error)
	Delete(ctx context.Context, id int64) error
	Events(ctx context.Context, id int64, limit int) ([]*models.ProfileEvent, error)
	Categories() []types.RiskCategory
}

// HealthCheck reports whether one dependency is usable
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP API server.
type Server struct {
	router         *mux.Router
	httpServer     *http.Server
	profileService ProfileServiceInterface
	healthChecks   map[string]HealthCheck
	logger         *logging.Logger
	config         *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int // per client
	Burst           int
	AllowedOrigin   string
}

// NewServer creates a new API server instance. healthChecks may be nil.
func NewServer(config *ServerConfig, profileService ProfileServiceInterface, healthChecks map[string]HealthCheck, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Server{
		router:         mux.NewRouter(),
		profileService: profileService,
		healthChecks:   healthChecks,
		logger:         logger.WithField("component", "api"),
		config:         config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec, s.config.Burst)

	// order matters: recovery must see panics from everything below it
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware(s.config.AllowedOrigin))
	s.router.Use(RateLimitMiddleware(rateLimiter))

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
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/risk-categories", s.handleGetCategories).Methods("GET")

	api.HandleFunc("/wallet-profiles", s.handleCreateProfile).Methods("POST")
	api.HandleFunc("/wallet-profiles/address/{address}", s.handleGetProfileByAddress).Methods("GET")
	api.HandleFunc("/wallet-profiles/{id:[0-9]+}", s.handleGetProfile).Methods("GET")
	api.HandleFunc("/wallet-profiles/{id:[0-9]+}", s.handleUpdateProfile).Methods("PUT")
	api.HandleFunc("/wallet-profiles/{id:[0-9]+}", s.handleDeleteProfile).Methods("DELETE")
	api.HandleFunc("/wallet-profiles/{id:[0-9]+}/events", s.handleGetProfileEvents).Methods("GET")

	// preflight requests are answered by CORSMiddleware; the route only has
	// to exist so the router runs the middleware chain
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
}

// handleHealth reports the state of every registered dependency
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))
	for name, check := range s.healthChecks {
		if err := check(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			checks[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "wallet-profiles",
		"checks":  checks,
	})
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
