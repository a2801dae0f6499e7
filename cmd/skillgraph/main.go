// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command skillgraph starts the curriculum knowledge-graph API server.
//
// The server exposes the curriculum as a two-layer graph (abstract nodes
// with per-context implementation variants) with:
//   - Full-graph and focus-graph endpoints with ETag caching
//   - Edge authoring with requires-DAG cycle rejection
//   - YAML dataset reseeding (embedded default curriculum included)
//
// Usage:
//
//	go run ./cmd/skillgraph
//	SKILLGRAPH_ADDR=:9090 go run ./cmd/skillgraph
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/graph/health
//
//	# Full graph
//	curl http://localhost:8080/v1/graph | jq
//
//	# Focused view for one node
//	curl http://localhost:8080/v1/graph/focus/<uuid> | jq
//
//	# Author a prerequisite edge
//	curl -X POST http://localhost:8080/v1/graph/edges \
//	  -H "Content-Type: application/json" \
//	  -d '{"src_impl_id": "<uuid>", "dst_impl_id": "<uuid>", "type": "requires"}'
//
//	# Reseed with the embedded default curriculum
//	curl -X POST http://localhost:8080/v1/admin/seed
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/skillgraph/services/curriculum"
	"github.com/AleutianAI/skillgraph/services/curriculum/config"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/badgercache"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so trace ids flow from incoming headers
	// through all handlers.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	db, err := openDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	badgerDB, err := openCache(cfg, logger)
	if err != nil {
		logger.Error("Failed to open focus cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer badgerDB.Close()

	cache, err := badgercache.New(badgerDB, logger, badgercache.WithTTL(cfg.CacheTTL))
	if err != nil {
		logger.Error("Failed to create focus cache", slog.Any("error", err))
		os.Exit(1)
	}

	service, err := curriculum.NewService(curriculum.ServiceConfig{
		Store:  db,
		Writer: db,
		Seeder: db,
		Slugs:  db,
		Cache:  cache,
		Logger: logger,
	})
	if err != nil {
		logger.Error("Failed to create service", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.SeedOnStart {
		if err := seedIfEmpty(context.Background(), db, service, logger); err != nil {
			logger.Error("Startup seed failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("aleutian-skillgraph"))
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	curriculum.RegisterRoutes(v1, curriculum.NewHandlers(service, logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting skillgraph server",
			slog.String("address", cfg.Addr),
			slog.String("db_path", db.Path()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down skillgraph server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", slog.Any("error", err))
	}
}

// openDatabase opens the configured SQLite database. An empty DBPath selects
// an in-memory database.
func openDatabase(cfg *config.Config, logger *slog.Logger) (*sqlite.DB, error) {
	if cfg.DBPath == "" {
		logger.Warn("No database path configured, data will not survive restart")
		return sqlite.OpenInMemory()
	}
	return sqlite.Open(cfg.DBPath)
}

// openCache opens the BadgerDB backing the focus-payload cache. An empty
// CacheDir selects an in-memory cache.
func openCache(cfg *config.Config, logger *slog.Logger) (*badger.DB, error) {
	if cfg.CacheDir == "" {
		return badgercache.OpenInMemory()
	}
	db, err := badgercache.OpenDir(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	logger.Info("Focus cache opened", slog.String("dir", cfg.CacheDir))
	return db, nil
}

// seedIfEmpty loads the embedded default curriculum when the database holds
// no abstract nodes. A populated database is left alone.
func seedIfEmpty(ctx context.Context, db *sqlite.DB, service *curriculum.Service, logger *slog.Logger) error {
	counts, err := db.Counts(ctx)
	if err != nil {
		return err
	}
	if counts["abstract_nodes"] > 0 {
		logger.Info("Database already populated, skipping startup seed",
			slog.Int("abstract_nodes", counts["abstract_nodes"]))
		return nil
	}
	if _, err := service.Seed(ctx, nil); err != nil {
		return err
	}
	logger.Info("Seeded default curriculum on startup")
	return nil
}
