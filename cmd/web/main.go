// Package main provides the web front end hosting the wallet profile screen.
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

	"github.com/wallet-profiles/internal/client"
	"github.com/wallet-profiles/internal/config"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/retry"
	"github.com/wallet-profiles/internal/types"
	"github.com/wallet-profiles/internal/web"
)

func main() {
	fmt.Println("Wallet Profile Web")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	apiClient := client.New(cfg.ProfileAPI, logger)

	// Prefer the API's category set so the form and the validator agree
	categories := cfg.Risk.Categories
	ctx, cancel := context.WithTimeout(logging.WithLogger(context.Background(), logger), time.Minute)
	retryConfig := &retry.RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
	err = retry.WithRetry(ctx, retryConfig, func(ctx context.Context, attempt int) error {
		fetched, err := apiClient.Categories(ctx)
		if err != nil {
			return err
		}
		if len(fetched) == 0 {
			return errors.New("profile API returned no risk categories")
		}
		categories = fetched
		return nil
	})
	cancel()
	if err != nil {
		logger.WithError(err).Warn("Using locally configured risk categories")
	}
	logger.WithField("categories", categoryKeys(categories)).Info("Risk categories loaded")

	server, err := web.NewServer(&web.ServerConfig{
		Host:           cfg.Web.Host,
		Port:           cfg.Web.Port,
		CookieName:     cfg.Web.SessionCookie,
		SecureCookie:   cfg.Web.SecureCookie,
		SessionIdle:    cfg.Web.SessionIdle,
		RequestTimeout: cfg.ProfileAPI.Timeout,
	}, apiClient, categories, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create web server")
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Web server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Web server forced to shutdown")
	}
	logger.Info("Web server exited")
}

func categoryKeys(categories []types.RiskCategory) []string {
	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = c.Key
	}
	return keys
}
