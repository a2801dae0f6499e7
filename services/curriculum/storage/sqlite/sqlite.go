// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sqlite provides the SQLite-backed persistence layer for the
// curriculum graph. It implements graph.Store and graph.EdgeWriter over a
// single database file (or an in-memory database for tests).
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragmas.sql
var pragmasSQL string

// DB wraps a SQLite connection for curriculum storage.
//
// Thread Safety: Safe for concurrent use. database/sql serializes access to
// the underlying connection pool; the write path is additionally serialized
// by the graph.EdgeAuthor that owns the only EdgeWriter handle.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) a database at the given path and applies
// pragmas and schema.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db := &DB{conn: conn, path: dbPath}

	for _, pragma := range strings.Split(pragmasSQL, "\n") {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}

// OpenInMemory opens a private in-memory database, mainly for tests.
func OpenInMemory() (*DB, error) {
	// A single connection keeps the in-memory database alive and visible
	// to every query.
	db, err := Open(":memory:")
	if err != nil {
		return nil, err
	}
	db.conn.SetMaxOpenConns(1)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection, for readiness probes.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Path returns the database file path ("" for in-memory).
func (db *DB) Path() string {
	if db.path == ":memory:" {
		return ""
	}
	return db.path
}
