// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SKILLGRAPH_ADDR", "SKILLGRAPH_DB_PATH", "SKILLGRAPH_CACHE_DIR",
		"SKILLGRAPH_CACHE_TTL", "SKILLGRAPH_SEED_ON_START", "SKILLGRAPH_DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DBPath != "data/skillgraph.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if !cfg.SeedOnStart || cfg.Debug {
		t.Errorf("flags = seed:%v debug:%v", cfg.SeedOnStart, cfg.Debug)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SKILLGRAPH_ADDR", ":9999")
	t.Setenv("SKILLGRAPH_DB_PATH", "/tmp/x.db")
	t.Setenv("SKILLGRAPH_CACHE_TTL", "30s")
	t.Setenv("SKILLGRAPH_SEED_ON_START", "false")
	t.Setenv("SKILLGRAPH_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.DBPath != "/tmp/x.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if cfg.SeedOnStart || !cfg.Debug {
		t.Errorf("flags = seed:%v debug:%v", cfg.SeedOnStart, cfg.Debug)
	}
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("SKILLGRAPH_CACHE_TTL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Error("bad TTL accepted")
	}
	t.Setenv("SKILLGRAPH_CACHE_TTL", "-1m")
	if _, err := Load(); err == nil {
		t.Error("negative TTL accepted")
	}
	t.Setenv("SKILLGRAPH_CACHE_TTL", "")
	t.Setenv("SKILLGRAPH_DEBUG", "maybe")
	if _, err := Load(); err == nil {
		t.Error("bad bool accepted")
	}
}
