package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/config"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 5 * time.Second

// defaultServiceTimeout applies when the configuration leaves it unset.
const defaultServiceTimeout = 25 * time.Second

// Logger is the logging interface used by the endpoint.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Applier applies a raw configuration document. *state.Store satisfies it.
type Applier interface {
	ApplyJSON(body []byte) error
}

// Observer counts update outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveControl(result string)
}

// Deps holds the endpoint's dependencies.
type Deps struct {
	Config   config.ControlConfig
	Applier  Applier
	Observer Observer
	Logger   Logger
}

// Endpoint is the control HTTP server plus its hand-over queue.
//
// Thread Safety: handlers run on server goroutines; ServeOne is called from
// the main loop. The two meet only through the pending channel.
type Endpoint struct {
	cfg            config.ControlConfig
	serviceTimeout time.Duration
	applier        Applier
	observer       Observer
	logger         Logger

	pending   chan *pendingUpdate
	closing   chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates an endpoint. It does not listen until Start.
func New(deps Deps) (*Endpoint, error) {
	if deps.Applier == nil {
		return nil, ErrNoApplier
	}

	e := &Endpoint{
		cfg:            deps.Config,
		serviceTimeout: deps.Config.ServiceTimeout,
		applier:        deps.Applier,
		observer:       deps.Observer,
		logger:         deps.Logger,
		pending:        make(chan *pendingUpdate),
		closing:        make(chan struct{}),
	}
	if e.serviceTimeout <= 0 {
		e.serviceTimeout = defaultServiceTimeout
	}
	if e.logger == nil {
		e.logger = noopLogger{}
	}
	return e, nil
}

// Start binds the listener and serves in the background. A bind failure is
// returned directly.
func (e *Endpoint) Start(_ context.Context) error {
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control: listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           e.Handler(),
		ReadTimeout:       e.cfg.Timeouts.ReadTimeout(),
		ReadHeaderTimeout: e.cfg.Timeouts.ReadTimeout(),
		WriteTimeout:      e.cfg.Timeouts.WriteTimeout(),
		IdleTimeout:       e.cfg.Timeouts.IdleTimeout(),
	}

	e.mu.Lock()
	e.server = srv
	e.listener = ln
	e.mu.Unlock()

	e.logger.Info("control endpoint listening", "address", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("control endpoint error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (e *Endpoint) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Close shuts the server down, waiting briefly for in-flight requests.
// Pending updates that the loop never picked up are answered 503.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() { close(e.closing) })

	e.mu.Lock()
	srv := e.server
	e.server = nil
	e.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	e.logger.Info("control endpoint shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down control endpoint: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (e *Endpoint) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("control health check: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server == nil {
		return ErrNotStarted
	}
	return nil
}
