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
	"log/slog"

	"github.com/google/uuid"
)

// HintDirection orients a boundary edge relative to the focus scope.
type HintDirection string

const (
	// DirectionDependsOn means the inside endpoint is the source: the
	// scope depends on an outside prerequisite.
	DirectionDependsOn HintDirection = "depends_on"

	// DirectionUsedBy means the inside endpoint is the destination:
	// something outside depends on this scope.
	DirectionUsedBy HintDirection = "used_by"
)

// BoundaryEdge is one edge crossing the inside/outside boundary.
type BoundaryEdge struct {
	Edge              Edge
	OutsideAbstractID uuid.UUID
	Direction         HintDirection
}

// Classification is the result of splitting the touching-edge set.
type Classification struct {
	// Internal edges have both endpoints active inside the scope. These
	// are the only edges in the main payload.
	Internal []Edge

	// Boundary edges have exactly one endpoint's abstract inside the
	// scope, counted over ALL inside variants including inactive ones: a
	// hint should surface even when the variant driving it is not the
	// active one.
	Boundary []BoundaryEdge
}

// ClassifyEdges partitions touching edges into internal and boundary sets.
//
// Inputs:
//
//	touching - Every edge with at least one endpoint owned by an inside
//	abstract node. Edges with both endpoints outside must not be passed.
//	implOwner - Implementation id -> owning abstract id, covering both
//	endpoints of every touching edge.
//	scope - The resolved inside set.
//	activation - Per-focus activation state.
//	logger - Destination for referential-integrity warnings. May be nil.
//
// Edge cases:
//
//	An edge referencing an implementation id missing from implOwner is
//	skipped with a warning rather than failing the build: the response is
//	still useful without it, but the dangling reference indicates a
//	referential-integrity bug elsewhere.
func ClassifyEdges(touching []Edge, implOwner map[uuid.UUID]uuid.UUID, scope *Scope, activation *Activation, logger *slog.Logger) Classification {
	if logger == nil {
		logger = slog.Default()
	}

	var out Classification
	for _, e := range touching {
		srcAbs, srcOK := implOwner[e.SrcImplID]
		dstAbs, dstOK := implOwner[e.DstImplID]
		if !srcOK || !dstOK {
			logger.Warn("skipping edge with unresolvable implementation",
				slog.String("edge_id", e.ID.String()),
				slog.String("src_impl_id", e.SrcImplID.String()),
				slog.String("dst_impl_id", e.DstImplID.String()),
			)
			continue
		}

		srcIn := scope.Contains(srcAbs)
		dstIn := scope.Contains(dstAbs)

		switch {
		case srcIn && dstIn:
			if activation.Active(e.SrcImplID) && activation.Active(e.DstImplID) {
				out.Internal = append(out.Internal, e)
			}
		case srcIn != dstIn:
			be := BoundaryEdge{Edge: e}
			if srcIn {
				be.OutsideAbstractID = dstAbs
				be.Direction = DirectionDependsOn
			} else {
				be.OutsideAbstractID = srcAbs
				be.Direction = DirectionUsedBy
			}
			out.Boundary = append(out.Boundary, be)
		default:
			// Both endpoints outside. The touching query should never
			// yield these; drop them without ceremony.
		}
	}
	return out
}
