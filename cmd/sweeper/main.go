// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Command sweeper deletes threads whose retention window has elapsed.
// It is intended to run on a schedule (cron or similar); each run is a
// single sweep over the store.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/propietas/chat-backend/pkg/core/config"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/observability/logging"
	"github.com/propietas/chat-backend/pkg/storage/memory"
	"github.com/propietas/chat-backend/pkg/storage/postgres"
	"github.com/propietas/chat-backend/pkg/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
	}

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
	case "sqlite":
		sq, sqErr := sqlite.New(cfg.Store.Path)
		if sqErr != nil {
			logger.Error("Failed to initialize sqlite store", "error", sqErr)
			os.Exit(1)
		}
		defer sq.Close()
		store = sq
	default:
		store = memory.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	expired, err := store.ListExpired(ctx, now)
	if err != nil {
		logger.Error("Failed to list expired threads", "error", err)
		os.Exit(1)
	}

	deleted := 0
	for _, thread := range expired {
		if err := store.DeleteThread(ctx, thread.ID); err != nil {
			logger.Error("Failed to delete expired thread",
				"thread_id", thread.ID,
				"error", err)
			os.Exit(1)
		}
		logger.Info("Deleted expired thread",
			"thread_id", thread.ID,
			"user_id", thread.UserID,
			"expired_at", thread.ExpiresAt)
		deleted++
	}

	logger.Info("Sweep complete", "deleted", deleted, "swept_at", now)
}
