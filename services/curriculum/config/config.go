// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the runtime configuration for the skillgraph server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the server configuration, populated from environment variables
// with sensible single-process defaults.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DBPath is the SQLite database file. Empty selects an in-memory
	// database (data lost on restart; useful for demos and tests).
	DBPath string

	// CacheDir is the BadgerDB directory for the focus-payload cache.
	// Empty selects an in-memory cache.
	CacheDir string

	// CacheTTL bounds staleness of cached focus payloads.
	CacheTTL time.Duration

	// SeedOnStart loads the embedded default curriculum into an empty
	// database at startup.
	SeedOnStart bool

	// Debug enables gin debug mode and debug-level logging.
	Debug bool
}

// Load reads configuration from the environment.
//
// Variables:
//
//	SKILLGRAPH_ADDR          - listen address (default ":8080")
//	SKILLGRAPH_DB_PATH       - SQLite file path (default "data/skillgraph.db")
//	SKILLGRAPH_CACHE_DIR     - Badger cache directory (default in-memory)
//	SKILLGRAPH_CACHE_TTL     - cache TTL, Go duration (default "10m")
//	SKILLGRAPH_SEED_ON_START - "true" to seed an empty db (default true)
//	SKILLGRAPH_DEBUG         - "true" for debug mode (default false)
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        envOr("SKILLGRAPH_ADDR", ":8080"),
		DBPath:      envOr("SKILLGRAPH_DB_PATH", "data/skillgraph.db"),
		CacheDir:    os.Getenv("SKILLGRAPH_CACHE_DIR"),
		CacheTTL:    10 * time.Minute,
		SeedOnStart: true,
	}

	if v := os.Getenv("SKILLGRAPH_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing SKILLGRAPH_CACHE_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("SKILLGRAPH_CACHE_TTL must be positive, got %s", ttl)
		}
		cfg.CacheTTL = ttl
	}

	var err error
	if cfg.SeedOnStart, err = envBool("SKILLGRAPH_SEED_ON_START", true); err != nil {
		return nil, err
	}
	if cfg.Debug, err = envBool("SKILLGRAPH_DEBUG", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}
