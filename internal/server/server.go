package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyStarted = errors.New("server already started")
	ErrInvalidPort    = errors.New("invalid port")
)

// readyFailureGrace bounds the shutdown that follows a failing ready callback.
const readyFailureGrace = 5 * time.Second

// Config holds listener and http.Server settings.
type Config struct {
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Override returns c with host and every non-zero timeout replaced.
func (c Config) Override(host string, read, write, idle time.Duration) Config {
	c.Host = host
	if read > 0 {
		c.ReadTimeout = read
	}
	if write > 0 {
		c.WriteTimeout = write
	}
	if idle > 0 {
		c.IdleTimeout = idle
	}
	return c
}

// Server is the lifecycle the adapters bootstrap through.
type Server interface {
	// Start listens on port, serves handler and calls onReady once the
	// listener is bound. A failing onReady shuts the server down.
	Start(port int, handler http.Handler, onReady func() error) error
	Shutdown(ctx context.Context) error
	// Addr is the bound address, nil before Start.
	Addr() net.Addr
}

// HTTPServer is the net/http implementation of Server.
type HTTPServer struct {
	cfg    Config
	logger *zap.Logger

	mu   sync.Mutex
	srv  *http.Server
	ln   net.Listener
	done chan struct{}

	// shutdownMu serializes Shutdown; stopped is set once a shutdown has
	// completed so later calls are no-ops.
	shutdownMu sync.Mutex
	stopped    bool
}

// New creates a new HTTP server
func New(cfg Config, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{cfg: cfg, logger: logger}
}

// Start binds the listener synchronously so listen errors reach the caller,
// then serves in the background.
func (s *HTTPServer) Start(port int, handler http.Handler, onReady func() error) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.srv = srv
	s.ln = ln
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	if onReady == nil {
		return nil
	}
	if err := onReady(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), readyFailureGrace)
		defer cancel()
		if serr := s.Shutdown(ctx); serr != nil {
			s.logger.Warn("Shutdown after failed ready callback", zap.Error(serr))
		}
		return fmt.Errorf("ready callback: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server. It is a no-op before Start and
// after a completed shutdown; a failed shutdown may be retried.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if s.stopped {
		return nil
	}

	s.mu.Lock()
	srv, done := s.srv, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("HTTP server shutdown: %w", ctx.Err())
	}
	s.stopped = true
	return nil
}

// Addr returns the bound listener address.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Done is closed when the serve loop exits, nil before Start.
func (s *HTTPServer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
