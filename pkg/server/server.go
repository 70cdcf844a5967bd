// Package server hosts reactive sessions over WebSocket.
//
// Each connection gets its own session and graph, built by the configured
// GraphBuilder. Client messages mutate source nodes; effects push choice
// lists and view-models back over the wire. One goroutine per session
// drains the event queue, so each session's passes run strictly one at a
// time.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ripple-dev/ripple/pkg/middleware"
	"github.com/ripple-dev/ripple/pkg/session"
)

// GraphBuilder registers the nodes of a fresh session. The surface is the
// connection-backed rendering collaborator for that session.
type GraphBuilder func(sess *session.Session, surface Surface) error

// Config configures the server.
type Config struct {
	// Addr is the listen address (default ":8080").
	Addr string

	// Build registers graph nodes on each new session. Required.
	Build GraphBuilder

	// Sessions configures the session manager.
	Sessions session.Config

	// MaxEventQueue bounds the per-connection event queue (default 64).
	MaxEventQueue int

	// EnableMetrics mounts Prometheus middleware and /metrics.
	EnableMetrics bool

	// EnableTracing wraps requests and passes in OpenTelemetry spans.
	EnableTracing bool

	// Logger is the structured logger. nil uses slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxEventQueue <= 0 {
		c.MaxEventQueue = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Server hosts live reactive sessions.
type Server struct {
	config   Config
	logger   *slog.Logger
	sessions *session.Manager
	router   chi.Router
	http     *http.Server
}

// New creates a server. Config.Build must be set.
func New(config Config) (*Server, error) {
	if config.Build == nil {
		return nil, errors.New("server: Config.Build is required")
	}
	config = config.withDefaults()

	sessions := config.Sessions
	if sessions.Logger == nil {
		sessions.Logger = config.Logger
	}

	s := &Server{
		config:   config,
		logger:   config.Logger,
		sessions: session.NewManager(sessions),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if config.EnableMetrics {
		r.Use(middleware.Prometheus())
		r.Handle("/metrics", promhttp.Handler())
	}
	if config.EnableTracing {
		r.Use(middleware.OpenTelemetry())
	}
	r.Get("/healthz", s.handleHealth)
	r.Get("/live", s.handleLive)
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// ListenAndServe runs the server until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.http = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", "addr", s.config.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and tears down every session.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.sessions.CloseAll()
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
