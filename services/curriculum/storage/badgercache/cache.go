// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badgercache caches rendered focus-graph payloads in BadgerDB so
// repeated requests for the same focus skip the full build pipeline.
package badgercache

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"lukechampine.com/blake3"
)

// BadgerDB key layout for cached focus payloads.
const (
	keyGeneration  = "focus:gen"
	keyPrefixFocus = "focus:resp:"
)

// DefaultTTL bounds staleness even when invalidation is missed.
const DefaultTTL = 10 * time.Minute

// Entry is one cached focus payload: the rendered JSON body plus its
// content hash for HTTP conditional requests.
type Entry struct {
	// JSON is the uncompressed response body.
	JSON []byte

	// ETag is the hex-encoded BLAKE3 hash of JSON.
	ETag string
}

// ResponseCache stores gzip-compressed focus payloads keyed by
// (generation, focus id).
//
// Description:
//
//	Every write to the curriculum dataset bumps a generation counter;
//	cache keys embed the generation, so a bump makes every previous entry
//	unreachable at once without iterating keys. Unreachable entries age
//	out through the per-entry TTL.
//
// Thread Safety: Safe for concurrent use. BadgerDB handles its own
// concurrency control; the generation bump is a single atomic write.
type ResponseCache struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithTTL overrides the per-entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) { c.ttl = ttl }
}

// New creates a ResponseCache over an opened BadgerDB.
//
// Inputs:
//
//	db - An opened BadgerDB instance. Must not be nil. The caller owns the
//	handle and closes it.
//	logger - Logger for diagnostic output. Must not be nil.
func New(db *badger.DB, logger *slog.Logger, opts ...Option) (*ResponseCache, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	c := &ResponseCache{db: db, logger: logger, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OpenInMemory opens a private in-memory BadgerDB, mainly for tests and
// single-process deployments that do not want a cache directory.
func OpenInMemory() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger: %w", err)
	}
	return db, nil
}

// OpenDir opens a BadgerDB at the given directory.
func OpenDir(dir string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", dir, err)
	}
	return db, nil
}

// Get returns the cached entry for a focus id, or (nil, false) on a miss.
// Corrupt entries are treated as misses and dropped by TTL.
func (c *ResponseCache) Get(ctx context.Context, focusID uuid.UUID) (*Entry, bool, error) {
	if ctx == nil {
		return nil, false, fmt.Errorf("ctx must not be nil")
	}

	gen, err := c.generation()
	if err != nil {
		return nil, false, err
	}
	key := focusKey(gen, focusID)

	var compressed []byte
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached focus payload: %w", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		c.logger.Warn("dropping corrupt cache entry",
			slog.String("focus_id", focusID.String()), slog.Any("error", err))
		return nil, false, nil
	}
	defer gr.Close()
	body, err := io.ReadAll(gr)
	if err != nil {
		c.logger.Warn("dropping corrupt cache entry",
			slog.String("focus_id", focusID.String()), slog.Any("error", err))
		return nil, false, nil
	}

	return &Entry{JSON: body, ETag: ContentHash(body)}, true, nil
}

// Put stores a rendered focus payload and returns its entry (with ETag).
func (c *ResponseCache) Put(ctx context.Context, focusID uuid.UUID, body []byte) (*Entry, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	if _, err := gw.Write(body); err != nil {
		return nil, fmt.Errorf("compressing focus payload: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	gen, err := c.generation()
	if err != nil {
		return nil, err
	}
	key := focusKey(gen, focusID)

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, compressed.Bytes()).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return nil, fmt.Errorf("storing focus payload: %w", err)
	}

	return &Entry{JSON: body, ETag: ContentHash(body)}, nil
}

// Invalidate bumps the generation counter, orphaning every cached entry.
// Called after any dataset mutation (edge insert, reseed).
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("ctx must not be nil")
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		gen, err := readGeneration(txn)
		if err != nil {
			return err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], gen+1)
		return txn.Set([]byte(keyGeneration), buf[:])
	})
	if err != nil {
		return fmt.Errorf("bumping cache generation: %w", err)
	}
	c.logger.Debug("focus cache invalidated")
	return nil
}

func (c *ResponseCache) generation() (uint64, error) {
	var gen uint64
	err := c.db.View(func(txn *badger.Txn) error {
		g, err := readGeneration(txn)
		gen = g
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func readGeneration(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(keyGeneration))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var gen uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("generation value has %d bytes, want 8", len(val))
		}
		gen = binary.BigEndian.Uint64(val)
		return nil
	})
	return gen, err
}

func focusKey(gen uint64, focusID uuid.UUID) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], gen)
	key := make([]byte, 0, len(keyPrefixFocus)+16+1+36)
	key = append(key, keyPrefixFocus...)
	key = append(key, hex.EncodeToString(buf[:])...)
	key = append(key, ':')
	key = append(key, focusID.String()...)
	return key
}

// ContentHash returns the hex-encoded BLAKE3 hash of a payload, used as
// the HTTP ETag for focus responses.
func ContentHash(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}
