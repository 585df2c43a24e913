package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// Config defines the adapter's HTTP boundary.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Server hosts the adapter routes.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	logger          *slog.Logger
}

// NewServer builds a server that forwards drag frames to driver.
func NewServer(driver Driver, config Config) (*Server, error) {
	if driver == nil {
		return nil, errors.New("driver is required")
	}
	addr := strings.TrimSpace(config.Addr)
	if addr == "" {
		return nil, errors.New("listen address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:            addr,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(driver, logger),
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	}, nil
}

// ListenAndServe listens on the configured address and serves until ctx
// ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	s.logger.Info("adapter listening", "addr", ln.Addr().String())
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("adapter stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
