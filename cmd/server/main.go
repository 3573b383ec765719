// Package main provides the API server entry point for the inventory hub service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inventory-hub/internal/api"
	"github.com/inventory-hub/internal/auth"
	"github.com/inventory-hub/internal/config"
	"github.com/inventory-hub/internal/health"
	"github.com/inventory-hub/internal/logging"
	"github.com/inventory-hub/internal/retry"
	"github.com/inventory-hub/internal/service"
	"github.com/inventory-hub/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := logging.WithLogger(context.Background(), logger)

	// Connect to Postgres, retrying while the database comes up
	logger.Info("Connecting to databases...")

	var postgres *storage.PostgresDB
	err = retry.WithRetry(ctx, func(ctx context.Context, attempt int) error {
		var connErr error
		postgres, connErr = storage.NewPostgresDB(&cfg.Database.Postgres)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// Connect to Redis
	var redis *storage.RedisCache
	err = retry.WithRetry(ctx, func(ctx context.Context, attempt int) error {
		var connErr error
		redis, connErr = storage.NewRedisCache(&cfg.Database.Redis)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories and stores
	listingRepo := storage.NewListingRepository(postgres)
	userRepo := storage.NewUserRepository(postgres)
	fallbackStore := storage.NewFallbackStore(redis)

	// Health monitor probes the store on its own schedule; the
	// orchestrator also reports real fetch outcomes into it.
	monitor := health.NewMonitor(&health.Config{
		Probe:        listingRepo.Probe,
		Interval:     cfg.Health.Interval,
		ProbeTimeout: cfg.Health.ProbeTimeout,
	})

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go monitor.Run(monitorCtx)

	// Session service
	sessions := auth.NewSessionService(userRepo)
	sessions.Init()
	defer sessions.Dispose()

	// Read orchestrator
	inventory := service.NewInventoryService(service.Options{
		Source:       listingRepo,
		Snapshots:    fallbackStore,
		Health:       monitor,
		QueryTTL:     cfg.Cache.QueryTTL,
		FetchTimeout: cfg.Cache.FetchTimeout,
		Pagination: service.PaginationOptions{
			InitialPageSize: cfg.Pagination.InitialPageSize,
			PageIncrement:   cfg.Pagination.PageIncrement,
			MaxPageSize:     cfg.Pagination.MaxPageSize,
			DebounceWindow:  cfg.Pagination.DebounceWindow,
		},
	})

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RateLimitRPS:    cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:  cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, inventory, sessions)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
