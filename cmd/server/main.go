// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/propietas/chat-backend/pkg/adapters/http"
	"github.com/propietas/chat-backend/pkg/core/api"
	"github.com/propietas/chat-backend/pkg/core/config"
	"github.com/propietas/chat-backend/pkg/core/engine"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/listings"
	"github.com/propietas/chat-backend/pkg/observability/logging"
	"github.com/propietas/chat-backend/pkg/storage/memory"
	"github.com/propietas/chat-backend/pkg/storage/postgres"
	"github.com/propietas/chat-backend/pkg/storage/sqlite"
	"github.com/propietas/chat-backend/pkg/tools"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 8080, "HTTP port to listen on")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("Propietas Chat Backend\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting Propietas Chat Backend",
		"version", Version,
		"build_time", BuildTime)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
	}

	if *port != 8080 {
		cfg.Server.Port = *port
	}

	// Initialize storage
	var store state.Store
	switch cfg.Store.Type {
	case "postgres":
		pg, pgErr := postgres.New(cfg.Store.DSN)
		if pgErr != nil {
			logger.Error("Failed to initialize postgres store", "error", pgErr)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		logger.Info("Initialized postgres store")
	case "sqlite":
		sq, sqErr := sqlite.New(cfg.Store.Path)
		if sqErr != nil {
			logger.Error("Failed to initialize sqlite store", "error", sqErr)
			os.Exit(1)
		}
		defer sq.Close()
		store = sq
		logger.Info("Initialized sqlite store", "path", cfg.Store.Path)
	default:
		store = memory.New()
		logger.Info("Initialized in-memory store")
	}

	// Initialize listings client and function registry
	listingsClient := listings.New(cfg.Listings.BaseURL, logger)
	registry := tools.Default(listingsClient, logger)
	logger.Info("Initialized function registry", "listings_base_url", cfg.Listings.BaseURL)

	// Initialize gateway
	llm := api.NewOpenAIClient(cfg.Assistant.Endpoint, cfg.Assistant.APIKey)
	gateway := api.NewGateway(llm, cfg.Assistant.Model)
	logger.Info("Initialized model gateway", "model", cfg.Assistant.Model)

	// Initialize engine
	eng, err := engine.New(store, gateway, registry, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized engine")

	// Initialize HTTP adapter
	handler := httpAdapter.New(eng, store, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
