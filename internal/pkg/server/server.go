package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
)

type shutdownHook struct {
	name string
	fn   func(context.Context) error
}

// GracefulServer wraps Echo server with graceful shutdown capabilities
type GracefulServer struct {
	echo            *echo.Echo
	logger          *logger.ZapLogger
	addr            string
	shutdownTimeout time.Duration
	hooks           []shutdownHook
}

// NewGracefulServer creates a new server with graceful shutdown
func NewGracefulServer(e *echo.Echo, zapLogger *logger.ZapLogger, cfg models.ServerConfig) *GracefulServer {
	timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		e.Server.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	return &GracefulServer{
		echo:            e,
		logger:          zapLogger,
		addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		shutdownTimeout: timeout,
	}
}

// OnShutdown registers cleanup run after the HTTP server stops, in reverse
// registration order
func (s *GracefulServer) OnShutdown(name string, fn func(context.Context) error) {
	s.hooks = append(s.hooks, shutdownHook{name: name, fn: fn})
}

// Start serves until SIGINT or SIGTERM, then shuts down
func (s *GracefulServer) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done or the listener fails, then shuts down
func (s *GracefulServer) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", logger.String("address", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal")
	case err, ok := <-serveErr:
		if ok {
			s.logger.Error("HTTP server failed", logger.Err(err))
			runErr = err
		}
	}

	if err := s.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown stops the HTTP server, then runs the registered hooks
func (s *GracefulServer) Shutdown() error {
	s.logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", logger.Err(err))
		shutdownErr = err
	}

	for i := len(s.hooks) - 1; i >= 0; i-- {
		hook := s.hooks[i]
		if err := hook.fn(ctx); err != nil {
			// keep going so every component gets a chance to close
			s.logger.Error("Error during component shutdown",
				logger.String("component", hook.name),
				logger.Err(err))
		}
	}

	s.logger.Info("Server shutdown completed")
	return shutdownErr
}
