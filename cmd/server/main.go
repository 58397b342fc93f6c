// Package main provides the API server entry point for the wallet profile service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-profiles/internal/api"
	"github.com/wallet-profiles/internal/config"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/retry"
	"github.com/wallet-profiles/internal/service"
	"github.com/wallet-profiles/internal/storage"
)

func main() {
	fmt.Println("Wallet Profile API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
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
	healthChecks := make(map[string]api.HealthCheck)

	// Connect to Postgres; the database may still be starting
	logger.Info("Connecting to databases...")
	var postgres *storage.PostgresDB
	err = retry.WithRetry(ctx, retry.DefaultRetryConfig(), func(ctx context.Context, attempt int) error {
		var err error
		postgres, err = storage.NewPostgresDB(ctx, &cfg.Database.Postgres)
		return err
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()
	healthChecks["postgres"] = postgres.Ping

	// Redis is optional; without it every read goes to Postgres
	var cache service.ProfileCache
	var profileCache *storage.ConcurrentProfileCache
	if cfg.Database.Redis.Enabled() {
		redis, err := storage.NewRedisCache(ctx, &cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()
		profileCache = storage.NewConcurrentProfileCache(storage.NewCacheService(redis, cfg.Cache.TTL), logger)
		cache = profileCache
		healthChecks["redis"] = redis.Ping
	} else {
		logger.Warn("Redis not configured, profile cache disabled")
	}

	// ClickHouse is optional; without it lifecycle events are not recorded
	var events service.EventStore
	if cfg.Database.ClickHouse.Enabled() {
		clickhouse, err := storage.NewClickHouseDB(ctx, &cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer clickhouse.Close()
		events = storage.NewEventRepository(clickhouse)
		healthChecks["clickhouse"] = clickhouse.Ping
	} else {
		logger.Warn("ClickHouse not configured, profile events disabled")
	}

	logger.Info("Database connections established")

	profileService := service.NewProfileService(
		storage.NewProfileRepository(postgres),
		cache,
		events,
		cfg.Risk.Categories,
		logger,
	)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		RequestsPerSec:  cfg.RateLimit.RequestsPerSecond,
		Burst:           cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, profileService, healthChecks, logger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":       cfg.Server.Host,
		"port":       cfg.Server.Port,
		"categories": len(cfg.Risk.Categories),
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if profileCache != nil {
		stats := profileCache.GetStats()
		logger.WithFields(map[string]interface{}{
			"hits":    stats.Hits,
			"misses":  stats.Misses,
			"hitRate": stats.HitRate,
		}).Info("Profile cache statistics")
	}

	logger.Info("Server exited")
}
