package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolrecords/internal/bootstrap"
	"github.com/yigit/schoolrecords/internal/config"
)

// tokenPurgeInterval is how often expired token revocations are removed
const tokenPurgeInterval = time.Hour

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	infra  *bootstrap.Infrastructure
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	// Stops the background jobs and the websocket hub
	stop context.CancelFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	ctx := context.Background()
	infra, err := bootstrap.SetupInfrastructure(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup infrastructure: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(ctx, cfg, infra, lgr)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config: cfg,
		router: bootstrap.SetupRouter(cfg, infra, deps, lgr),
		infra:  infra,
		deps:   deps,
		logger: lgr,
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM arrives or the listener fails,
// then shuts everything down.
func (s *Server) Run() error {
	signals, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	var jobs context.Context
	jobs, s.stop = context.WithCancel(context.Background())
	bootstrap.StartBackgroundJobs(jobs, s.deps, tokenPurgeInterval)

	// No WriteTimeout: websocket streams and exports outlive a fixed write window
	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		listenErr <- s.http.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(fmt.Errorf("http server: %w", err), s.Shutdown(context.Background()))
		}
	case <-signals.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout())
	defer cancel()

	var shutdownErr error

	// Websocket clients are hijacked connections that http.Server.Shutdown does not close
	if s.stop != nil {
		s.stop()
	}

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownErr = errors.Join(shutdownErr, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	s.logger.Info().Msg("Closing backing service connections...")
	if err := s.infra.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to close backing services")
		shutdownErr = errors.Join(shutdownErr, err)
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	return shutdownErr
}
