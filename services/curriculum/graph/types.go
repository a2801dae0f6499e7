// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph implements the curriculum knowledge-graph core: focus-scope
// resolution, context-sensitive variant activation, internal/boundary edge
// classification, boundary-hint grouping, and requires-DAG cycle prevention.
//
// The package is storage-agnostic. All persistence goes through the Store
// interface; every computation here is a read-only, deterministic function
// over the slice of nodes and edges the store yields for one request.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// NodeKind distinguishes taxonomy containers from teachable units.
type NodeKind string

const (
	// KindConcept is a leaf-ish teachable unit. Concepts may still have
	// taxonomy children.
	KindConcept NodeKind = "concept"

	// KindGroup is a container/hub node.
	KindGroup NodeKind = "group"
)

// Valid reports whether k is one of the two known kinds.
func (k NodeKind) Valid() bool {
	return k == KindConcept || k == KindGroup
}

// EdgeType is the type of a directed implementation-to-implementation edge.
type EdgeType string

const (
	// EdgeRequires is a hard prerequisite. The set of all requires edges
	// must stay a DAG; inserts are cycle-checked.
	EdgeRequires EdgeType = "requires"

	// EdgeRecommended is a soft ordering suggestion. Rank is meaningful
	// only on recommended edges.
	EdgeRecommended EdgeType = "recommended"
)

// Valid reports whether t is one of the two known edge types.
func (t EdgeType) Valid() bool {
	return t == EdgeRequires || t == EdgeRecommended
}

// AbstractNode is a taxonomy entry (concept or group) independent of how its
// content is realized. parent_id forms a forest; roots have a nil parent.
type AbstractNode struct {
	ID         uuid.UUID
	Slug       string
	Title      string
	ShortTitle string
	Summary    string
	BodyMD     string
	Kind       NodeKind
	ParentID   *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ImplNode is one concrete variant of how an AbstractNode's content is
// presented. variant_key is unique per abstract node; "core" is the
// conventional name for the default variant, but its absence is a deliberate
// way to force context-based selection.
type ImplNode struct {
	ID         uuid.UUID
	AbstractID uuid.UUID
	VariantKey string
	ContractMD string
}

// Edge is a directed, typed relationship between two implementation nodes.
// Edges never connect abstract nodes directly.
type Edge struct {
	ID        uuid.UUID
	SrcImplID uuid.UUID
	DstImplID uuid.UUID
	Type      EdgeType
	Rank      *int
}

// ImplContext declares that an implementation is only active when the focus
// is the given abstract node. An implementation with zero rows is globally
// active.
type ImplContext struct {
	ImplID            uuid.UUID
	ContextAbstractID uuid.UUID
}

// Membership links an abstract node into a hub outside its taxonomy parent
// chain, so one concept can appear inside more than one focus scope.
type Membership struct {
	AbstractID uuid.UUID
	HubID      uuid.UUID
	Role       string
	Weight     int
}

// RelatedEdge is an undirected "see also" link between two abstract nodes,
// stored with AID < BID so (a,b) and (b,a) collapse to one row.
type RelatedEdge struct {
	AID uuid.UUID
	BID uuid.UUID
}

// CanonicalRelated returns the pair in canonical (lower id first) order.
func CanonicalRelated(a, b uuid.UUID) RelatedEdge {
	if b.String() < a.String() {
		a, b = b, a
	}
	return RelatedEdge{AID: a, BID: b}
}
