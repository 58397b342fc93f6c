// Package web serves the wallet profile screen as server-rendered HTML.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/screen"
	"github.com/wallet-profiles/internal/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"shortAddress": shortAddress,
}

// ServerConfig holds web server configuration
type ServerConfig struct {
	Host           string
	Port           string
	CookieName     string
	SecureCookie   bool
	SessionIdle    time.Duration
	SweepInterval  time.Duration
	RequestTimeout time.Duration // bound on one API round trip
}

// Server hosts one profile screen per browser session
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	sessions   *SessionStore
	tmpl       *template.Template
	categories []types.RiskCategory
	config     *ServerConfig
	logger     *logging.Logger
	stopSweep  context.CancelFunc
}

// NewServer creates the web server. Every session gets its own screen
// talking to api.
func NewServer(config *ServerConfig, api screen.ProfileAPI, categories []types.RiskCategory, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithField("component", "web")

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if config.CookieName == "" {
		config.CookieName = "profile_session"
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}

	s := &Server{
		router:     mux.NewRouter(),
		tmpl:       tmpl,
		categories: append([]types.RiskCategory(nil), categories...),
		config:     config,
		logger:     logger,
	}
	s.sessions = NewSessionStore(config.SessionIdle, func(n screen.Notifier) *screen.Screen {
		return screen.New(api, n, s.categories, logger)
	}, logger)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
	s.router.HandleFunc("/connect", s.handleConnect).Methods("POST")
	s.router.HandleFunc("/disconnect", s.handleDisconnect).Methods("POST")
	s.router.HandleFunc("/social", s.handleSocial).Methods("POST")
	s.router.HandleFunc("/risk", s.handleRisk).Methods("POST")
	s.router.HandleFunc("/submit", s.handleSubmit).Methods("POST")
	s.router.HandleFunc("/delete", s.handleDelete).Methods("POST")
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	})
}

// Sessions exposes the session store
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Start serves HTTP and sweeps idle sessions until Shutdown
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopSweep = cancel

	interval := s.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go s.sessions.Run(ctx, interval)

	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting web server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server")
	if s.stopSweep != nil {
		s.stopSweep()
	}
	return s.httpServer.Shutdown(ctx)
}
