package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-detector/internal/history"
	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/config"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	readTimeout             = 10 * time.Second
	writeTimeout            = 30 * time.Second

	// healthCheckTimeout bounds each component check on /health.
	healthCheckTimeout = 2 * time.Second
)

// Logger is the logging interface used by the server.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Checker is any component that can report its own health.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the server's dependencies.
type Deps struct {
	Config config.MetricsConfig

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	// Journal backs /uploads. Nil answers 404.
	Journal history.Journal

	// Checks are reported by name on /health.
	Checks map[string]Checker

	Version string
	Logger  Logger
}

// Server is the diagnostics HTTP listener.
type Server struct {
	cfg      config.MetricsConfig
	gatherer prometheus.Gatherer
	journal  history.Journal
	checks   map[string]Checker
	version  string
	logger   Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a diagnostics server. It does not listen until Start.
func New(deps Deps) *Server {
	s := &Server{
		cfg:      deps.Config,
		gatherer: deps.Gatherer,
		journal:  deps.Journal,
		checks:   deps.Checks,
		version:  deps.Version,
		logger:   deps.Logger,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("diagnostics: listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("diagnostics listening", "address", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("diagnostics server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close shuts the listener down.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down diagnostics server: %w", err)
	}
	return nil
}
