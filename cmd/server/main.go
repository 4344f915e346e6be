// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

// Command server runs the WasteVision API server.
//
// Startup order matters: configuration first (it carries the logging
// settings), then logging, then storage, then the HTTP stack. All
// long-running work happens under a suture supervisor tree so a
// crashed service restarts instead of taking the process down.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/wastevision/wastevision/internal/api"
	"github.com/wastevision/wastevision/internal/auth"
	"github.com/wastevision/wastevision/internal/config"
	"github.com/wastevision/wastevision/internal/detection"
	"github.com/wastevision/wastevision/internal/logging"
	"github.com/wastevision/wastevision/internal/store"
	"github.com/wastevision/wastevision/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("classifier_url", cfg.Classifier.URL).
		Str("storage_path", cfg.Storage.Path).
		Msg("Starting WasteVision")

	db, err := store.Open(&cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()
	logging.Info().Msg("Storage opened")

	users := store.NewUserStore(db)
	history := store.NewHistoryStore(db)

	hasher, err := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize password hasher")
	}
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	authSvc := auth.NewService(users, hasher, jwtManager)

	// The circuit breaker wraps the classifier client so a dead
	// classifier degrades detect requests instead of piling up timeouts.
	classifier := detection.NewBreakerClient(detection.NewClient(&cfg.Classifier))

	handler := api.NewHandler(cfg, authSvc, users, history, classifier, db)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager), api.NewChiMiddleware(&cfg.Security))

	// Create context for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStorageService(supervisor.NewGCService(db, cfg.Storage.GCInterval))
	tree.AddAPIService(supervisor.NewHTTPService(&cfg.Server, router.Setup()))
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	// Report any services that failed to stop within the timeout.
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Server stopped gracefully")
}
