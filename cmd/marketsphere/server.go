package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketsphere/marketsphere/internal/core/domain"
	"github.com/marketsphere/marketsphere/internal/shell/api"
	"github.com/marketsphere/marketsphere/internal/shell/registration"
	"github.com/marketsphere/marketsphere/internal/shell/seed"
	"github.com/marketsphere/marketsphere/internal/shell/store"
	"github.com/marketsphere/marketsphere/internal/shell/storefront"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
	ExitSeedError       = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the MarketSphere application server.
type Server struct {
	config           *Config
	httpServer       *http.Server
	storefront       *storefront.Server
	storefrontServer *http.Server
	store            store.Store
	registrar        *registration.Registrar
	redis            *redis.Client
	logger           *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	if err := ensureDataDir(cfg.Database.DSN); err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	registrar := registration.NewRegistrar(s, registration.Config{
		MaxAttempts: cfg.Registration.MaxAttempts,
		AutoApprove: cfg.Registration.AutoApprove,
		RootDomain:  cfg.Domain.RootDomain,
	}, logger)

	// Storefront profile cache. An unreachable Redis degrades to no cache.
	var cache storefront.Cache = storefront.NoopCache{}
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = storefront.DialRedis(dialCtx, cfg.Cache.RedisAddr)
		cancel()
		if err != nil {
			logger.Warn("storefront cache unavailable, serving from database",
				"redis_addr", cfg.Cache.RedisAddr,
				"error", err,
			)
		} else {
			cache = storefront.NewRedisCache(redisClient, cfg.Cache.TTL)
			logger.Info("storefront cache enabled", "redis_addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		}
	}

	handler := api.NewHandler(s, registrar, api.Config{
		AuthMode:     cfg.Auth.Mode,
		SharedSecret: cfg.Auth.SharedSecret,
		RequireAuth:  cfg.Auth.RequireAuth,
		DevRole:      domain.Role(cfg.Auth.DevRole),
		CORSOrigins:  cfg.CORS.AllowedOrigins,
		Version:      Version,
		ProfileCache: cache,
	}, logger)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var front *storefront.Server
	if cfg.Storefront.Enabled {
		front = storefront.NewServer(storefront.Config{
			Address:      cfg.Storefront.Address(),
			RootDomain:   cfg.Domain.RootDomain,
			ReadTimeout:  cfg.Storefront.ReadTimeout,
			WriteTimeout: cfg.Storefront.WriteTimeout,
			IdleTimeout:  cfg.Storefront.IdleTimeout,
		}, s, cache, logger)
	} else {
		logger.Info("storefront server disabled")
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		storefront: front,
		store:      s,
		registrar:  registrar,
		redis:      redisClient,
		logger:     logger,
	}, nil
}

// ensureDataDir creates the directory holding a file DSN.
func ensureDataDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Seed applies the seed file at path.
func (s *Server) Seed(ctx context.Context, path string) error {
	f, err := seed.Load(path)
	if err != nil {
		return &ServerError{Op: "Seed", Err: err, ExitCode: ExitSeedError}
	}
	sum, err := seed.Apply(ctx, s.store, s.registrar, f, s.logger)
	if err != nil {
		return &ServerError{Op: "Seed", Err: err, ExitCode: ExitSeedError}
	}
	s.logger.Info("seed applied",
		"file", path,
		"markets_created", sum.MarketsCreated,
		"markets_skipped", sum.MarketsSkipped,
		"stores_created", sum.StoresCreated,
		"stores_skipped", sum.StoresSkipped,
	)
	return nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if s.storefront != nil {
		s.storefrontServer = s.storefront.Start()
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.Shutdown(context.Background())
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.storefrontServer != nil {
		if err := s.storefrontServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("storefront server shutdown error", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
