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

	"github.com/google/uuid"
)

// Store is the read-only query surface the graph core needs from a
// persistence layer. Implementations must be safe for concurrent use; each
// build request issues a series of sequential queries and tolerates
// staleness across them (eventual, not serializable, consistency).
//
// Every "ByIDs"-style query treats an empty id set as an empty result, not
// an error.
type Store interface {
	// AbstractByID returns the abstract node with the given id, or
	// ErrNotFound.
	AbstractByID(ctx context.Context, id uuid.UUID) (*AbstractNode, error)

	// AbstractsByParents returns all abstract nodes whose parent id is in
	// the given set. Used for frontier expansion.
	AbstractsByParents(ctx context.Context, parentIDs []uuid.UUID) ([]AbstractNode, error)

	// AbstractsByIDs returns the abstract nodes with the given ids. Missing
	// ids are silently absent from the result.
	AbstractsByIDs(ctx context.Context, ids []uuid.UUID) ([]AbstractNode, error)

	// ImplsByAbstractIDs returns every implementation whose owner is in the
	// given set.
	ImplsByAbstractIDs(ctx context.Context, abstractIDs []uuid.UUID) ([]ImplNode, error)

	// ImplsByIDs returns the implementations with the given ids.
	ImplsByIDs(ctx context.Context, ids []uuid.UUID) ([]ImplNode, error)

	// ContextsByImplIDs returns all context-applicability rows for the
	// given implementations.
	ContextsByImplIDs(ctx context.Context, implIDs []uuid.UUID) ([]ImplContext, error)

	// EdgesTouchingImpls returns every edge whose source or destination is
	// in the given implementation set.
	EdgesTouchingImpls(ctx context.Context, implIDs []uuid.UUID) ([]Edge, error)

	// MembershipsByHub returns all membership rows whose hub is the given
	// abstract node.
	MembershipsByHub(ctx context.Context, hubID uuid.UUID) ([]Membership, error)

	// MembershipsByAbstractIDs returns all membership rows for the given
	// member abstract nodes.
	MembershipsByAbstractIDs(ctx context.Context, abstractIDs []uuid.UUID) ([]Membership, error)

	// AllAbstracts, AllImpls, AllEdges, AllRelated serve the full-graph
	// read shape.
	AllAbstracts(ctx context.Context) ([]AbstractNode, error)
	AllImpls(ctx context.Context) ([]ImplNode, error)
	AllEdges(ctx context.Context) ([]Edge, error)
	AllRelated(ctx context.Context) ([]RelatedEdge, error)

	// RequiresPairs returns the (src, dst) pair of every committed requires
	// edge, for cycle checking on the write path.
	RequiresPairs(ctx context.Context) ([]EdgePair, error)
}

// EdgeWriter is the write surface exposed to authoring collaborators.
// InsertEdge performs the raw insert only; cycle checking is the
// EdgeAuthor's job so the check stays in the core.
type EdgeWriter interface {
	InsertEdge(ctx context.Context, e Edge) error
}

// EdgePair is a bare (src, dst) implementation pair.
type EdgePair struct {
	Src uuid.UUID
	Dst uuid.UUID
}
