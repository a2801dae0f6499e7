// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/skillgraph/services/curriculum/graph"
	"github.com/AleutianAI/skillgraph/services/curriculum/seed"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/badgercache"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/sqlite"
)

// Seeder is the admin surface the service needs from storage beyond
// graph.Store: atomic reseed, row counts, and liveness.
// *sqlite.DB satisfies it.
type Seeder interface {
	ReplaceAll(ctx context.Context, snap sqlite.Snapshot) error
	Counts(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
}

// SlugResolver looks nodes up by slug, for slug-addressed focus requests.
// *sqlite.DB satisfies it.
type SlugResolver interface {
	AbstractBySlug(ctx context.Context, slug string) (*graph.AbstractNode, error)
}

// ServiceConfig wires the service's collaborators.
type ServiceConfig struct {
	// Store backs all graph reads. Required.
	Store graph.Store

	// Writer backs edge inserts. Required.
	Writer graph.EdgeWriter

	// Seeder backs reseeding and readiness. Required.
	Seeder Seeder

	// Slugs backs slug-addressed focus lookups. Required.
	Slugs SlugResolver

	// Cache holds rendered focus payloads. Optional; nil disables caching.
	Cache *badgercache.ResponseCache

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service is the application layer between HTTP handlers and the graph
// core.
//
// Thread Safety: Safe for concurrent use. Edge authoring is serialized by
// the embedded graph.EdgeAuthor; reads are stateless.
type Service struct {
	builder *graph.Builder
	author  *graph.EdgeAuthor
	seeder  Seeder
	slugs   SlugResolver
	cache   *badgercache.ResponseCache
	logger  *slog.Logger
}

// NewService creates a Service from its collaborators.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Seeder == nil {
		return nil, fmt.Errorf("seeder must not be nil")
	}
	if cfg.Slugs == nil {
		return nil, fmt.Errorf("slug resolver must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	builder, err := graph.NewBuilder(cfg.Store, graph.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating builder: %w", err)
	}
	author, err := graph.NewEdgeAuthor(cfg.Store, cfg.Writer, logger)
	if err != nil {
		return nil, fmt.Errorf("creating edge author: %w", err)
	}

	return &Service{
		builder: builder,
		author:  author,
		seeder:  cfg.Seeder,
		slugs:   cfg.Slugs,
		cache:   cfg.Cache,
		logger:  logger,
	}, nil
}

// FullGraph returns the whole-graph payload.
func (s *Service) FullGraph(ctx context.Context) (*graph.Response, error) {
	return s.builder.BuildFullGraph(ctx)
}

// FocusGraph returns the rendered JSON payload for one focus, with its ETag.
// Cached payloads are served without rebuilding.
func (s *Service) FocusGraph(ctx context.Context, focusID uuid.UUID) ([]byte, string, error) {
	if s.cache != nil {
		if entry, ok, err := s.cache.Get(ctx, focusID); err != nil {
			s.logger.Warn("focus cache read failed, rebuilding",
				slog.String("focus_id", focusID.String()), slog.Any("error", err))
		} else if ok {
			return entry.JSON, entry.ETag, nil
		}
	}

	resp, err := s.builder.BuildFocusGraph(ctx, focusID)
	if err != nil {
		return nil, "", err
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling focus payload: %w", err)
	}

	if s.cache != nil {
		entry, err := s.cache.Put(ctx, focusID, body)
		if err != nil {
			s.logger.Warn("focus cache write failed",
				slog.String("focus_id", focusID.String()), slog.Any("error", err))
		} else {
			return entry.JSON, entry.ETag, nil
		}
	}
	return body, badgercache.ContentHash(body), nil
}

// FocusGraphBySlug resolves a slug to its node and returns that node's
// focus payload. Unknown slugs map to graph.ErrNotFound.
func (s *Service) FocusGraphBySlug(ctx context.Context, slug string) ([]byte, string, error) {
	node, err := s.slugs.AbstractBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}
	return s.FocusGraph(ctx, node.ID)
}

// InsertEdge validates and commits one edge, then invalidates the focus
// cache.
func (s *Service) InsertEdge(ctx context.Context, req CreateEdgeRequest) (graph.Edge, error) {
	src, err := uuid.Parse(req.SrcImplID)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("parsing src_impl_id: %w", err)
	}
	dst, err := uuid.Parse(req.DstImplID)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("parsing dst_impl_id: %w", err)
	}

	var e graph.Edge
	switch graph.EdgeType(req.Type) {
	case graph.EdgeRequires:
		e, err = s.author.InsertRequiresEdge(ctx, src, dst)
	case graph.EdgeRecommended:
		e, err = s.author.InsertRecommendedEdge(ctx, src, dst, req.Rank)
	default:
		return graph.Edge{}, fmt.Errorf("unknown edge type %q", req.Type)
	}
	if err != nil {
		graph.RecordEdgeInsert(err)
		return graph.Edge{}, err
	}
	graph.RecordEdgeInsert(nil)

	s.invalidateCache(ctx)
	return e, nil
}

// Seed replaces the dataset. An empty document loads the embedded default
// curriculum. The load is all-or-nothing; an invalid document (including a
// requires cycle) leaves existing data untouched.
func (s *Service) Seed(ctx context.Context, document []byte) (map[string]int, error) {
	var (
		snap *sqlite.Snapshot
		err  error
	)
	if len(document) == 0 {
		snap, err = seed.LoadDefault(time.Now())
	} else {
		snap, err = seed.Load(document, time.Now())
	}
	if err != nil {
		return nil, err
	}

	if err := s.seeder.ReplaceAll(ctx, *snap); err != nil {
		return nil, fmt.Errorf("applying seed: %w", err)
	}
	s.invalidateCache(ctx)

	counts, err := s.seeder.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting seeded rows: %w", err)
	}
	s.logger.Info("curriculum reseeded",
		slog.Int("abstract_nodes", counts["abstract_nodes"]),
		slog.Int("impl_nodes", counts["impl_nodes"]),
		slog.Int("edges", counts["edges"]),
	)
	return counts, nil
}

// Ready reports whether storage is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.seeder.Ping(ctx)
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("focus cache invalidation failed", slog.Any("error", err))
	}
}

// IsNotFound reports whether err maps to 404.
func IsNotFound(err error) bool {
	return errors.Is(err, graph.ErrNotFound)
}
