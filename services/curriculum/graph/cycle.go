// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// WouldCreateCycle reports whether adding candidate to the existing requires
// edges produces a directed cycle.
//
// Description:
//
//	Builds an adjacency map from existing plus the candidate and runs an
//	iterative DFS from the candidate's destination looking for a path back
//	to its source. A self-loop (src == dst) is a cycle. O(V+E) per call;
//	authoring volume is low enough that incremental cycle detection is not
//	worth its complexity.
//
// Inputs:
//
//	existing - All committed requires edges. Order does not matter.
//	candidate - The edge being inserted.
//
// Outputs:
//
//	bool - True iff the combined edge set contains a directed cycle
//	reachable through the candidate.
func WouldCreateCycle(existing []EdgePair, candidate EdgePair) bool {
	if candidate.Src == candidate.Dst {
		return true
	}

	adj := make(map[uuid.UUID][]uuid.UUID, len(existing)+1)
	for _, e := range existing {
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}
	adj[candidate.Src] = append(adj[candidate.Src], candidate.Dst)

	// A cycle through the new edge exists iff candidate.Src is reachable
	// from candidate.Dst. Edges already committed are assumed acyclic, so
	// no other cycle can exist.
	seen := make(map[uuid.UUID]bool, len(adj))
	stack := []uuid.UUID{candidate.Dst}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == candidate.Src {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, adj[cur]...)
	}
	return false
}

// EdgeAuthor serializes requires-edge authoring.
//
// Description:
//
//	The check-then-insert sequence is not safe under concurrent writers:
//	two edges that are each acyclic against the committed set can jointly
//	close a cycle. EdgeAuthor closes that gap by holding a single writer
//	mutex across the reload-check-insert sequence, so at most one edge is
//	validated and committed at a time.
//
// Thread Safety: Safe for concurrent use.
type EdgeAuthor struct {
	store  Store
	writer EdgeWriter
	logger *slog.Logger

	mu sync.Mutex
}

// NewEdgeAuthor creates an EdgeAuthor over the given store and writer.
func NewEdgeAuthor(store Store, writer EdgeWriter, logger *slog.Logger) (*EdgeAuthor, error) {
	if store == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EdgeAuthor{store: store, writer: writer, logger: logger}, nil
}

// InsertRequiresEdge validates and commits one requires edge.
//
// Outputs:
//
//	Edge - The committed edge with its generated id.
//	error - ErrSelfLoop, ErrCycle, ErrDuplicateEdge, or a store error.
//	On any error nothing is committed.
func (a *EdgeAuthor) InsertRequiresEdge(ctx context.Context, src, dst uuid.UUID) (Edge, error) {
	if src == dst {
		return Edge{}, ErrSelfLoop
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.store.RequiresPairs(ctx)
	if err != nil {
		return Edge{}, fmt.Errorf("loading requires pairs: %w", err)
	}

	if WouldCreateCycle(existing, EdgePair{Src: src, Dst: dst}) {
		a.logger.Warn("requires edge rejected: would create cycle",
			slog.String("src_impl_id", src.String()),
			slog.String("dst_impl_id", dst.String()),
		)
		return Edge{}, ErrCycle
	}

	e := Edge{
		ID:        uuid.New(),
		SrcImplID: src,
		DstImplID: dst,
		Type:      EdgeRequires,
	}
	if err := a.writer.InsertEdge(ctx, e); err != nil {
		return Edge{}, fmt.Errorf("inserting requires edge: %w", err)
	}

	a.logger.Info("requires edge inserted",
		slog.String("edge_id", e.ID.String()),
		slog.String("src_impl_id", src.String()),
		slog.String("dst_impl_id", dst.String()),
	)
	return e, nil
}

// InsertRecommendedEdge commits one recommended edge. Recommended edges are
// ordering hints only and need no cycle check.
func (a *EdgeAuthor) InsertRecommendedEdge(ctx context.Context, src, dst uuid.UUID, rank *int) (Edge, error) {
	if src == dst {
		return Edge{}, ErrSelfLoop
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	e := Edge{
		ID:        uuid.New(),
		SrcImplID: src,
		DstImplID: dst,
		Type:      EdgeRecommended,
		Rank:      rank,
	}
	if err := a.writer.InsertEdge(ctx, e); err != nil {
		return Edge{}, fmt.Errorf("inserting recommended edge: %w", err)
	}
	return e, nil
}
