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
	"github.com/google/uuid"
)

// AbstractNodeOut is the response shape for a visible abstract node.
type AbstractNodeOut struct {
	ID         uuid.UUID  `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	ShortTitle string     `json:"short_title"`
	Summary    string     `json:"summary,omitempty"`
	BodyMD     string     `json:"body_md,omitempty"`
	Kind       NodeKind   `json:"kind"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`

	// HasChildren is true when the node has taxonomy children or hub
	// members in view, so clients know it is drillable.
	HasChildren bool `json:"has_children"`

	// HasVariants is true when more than one implementation exists,
	// counted over all variants regardless of activation.
	HasVariants bool `json:"has_variants"`

	// DefaultImplID is the representative implementation (see
	// DefaultImplID); nil when the node has no implementations.
	DefaultImplID *uuid.UUID `json:"default_impl_id,omitempty"`

	// Impls lists ALL variants, including ones inactive for the current
	// focus, so a client can still offer a variant switcher.
	Impls []ImplOut `json:"impls"`
}

// ImplOut is the response shape for an implementation node.
type ImplOut struct {
	ID         uuid.UUID `json:"id"`
	AbstractID uuid.UUID `json:"abstract_id"`
	VariantKey string    `json:"variant_key"`
	ContractMD string    `json:"contract_md,omitempty"`
}

// EdgeOut is the response shape for an edge.
type EdgeOut struct {
	ID        uuid.UUID `json:"id"`
	SrcImplID uuid.UUID `json:"src_impl_id"`
	DstImplID uuid.UUID `json:"dst_impl_id"`
	Type      EdgeType  `json:"type"`
	Rank      *int      `json:"rank,omitempty"`
}

// RelatedEdgeOut is the response shape for an undirected see-also link.
type RelatedEdgeOut struct {
	AID uuid.UUID `json:"a_id"`
	BID uuid.UUID `json:"b_id"`
}

// Response is the single structured payload for both read shapes. Focus
// responses carry boundary hints and no related edges; full responses carry
// related edges and no hints.
type Response struct {
	AbstractNodes []AbstractNodeOut `json:"abstract_nodes"`
	ImplNodes     []ImplOut         `json:"impl_nodes"`
	Edges         []EdgeOut         `json:"edges"`
	RelatedEdges  []RelatedEdgeOut  `json:"related_edges"`
	BoundaryHints []BoundaryHint    `json:"boundary_hints"`
}

func implOut(i ImplNode) ImplOut {
	return ImplOut{
		ID:         i.ID,
		AbstractID: i.AbstractID,
		VariantKey: i.VariantKey,
		ContractMD: i.ContractMD,
	}
}

func edgeOut(e Edge) EdgeOut {
	return EdgeOut{
		ID:        e.ID,
		SrcImplID: e.SrcImplID,
		DstImplID: e.DstImplID,
		Type:      e.Type,
		Rank:      e.Rank,
	}
}
