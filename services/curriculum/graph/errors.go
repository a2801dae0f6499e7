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

import "errors"

var (
	// ErrNotFound is returned when a focus id does not resolve to any
	// abstract node. Callers must surface it before any graph computation.
	ErrNotFound = errors.New("abstract node not found")

	// ErrCycle is returned when inserting a requires edge would close a
	// directed cycle. The whole authoring operation that produced the edge
	// must abort; committing a partial batch would corrupt the DAG.
	ErrCycle = errors.New("requires edge would create a cycle")

	// ErrDuplicateEdge is returned when an edge of the same type already
	// exists between the ordered (src, dst) pair.
	ErrDuplicateEdge = errors.New("edge already exists for (src, dst, type)")

	// ErrSelfLoop is returned when src and dst are the same implementation.
	// A single-node cycle is a cycle.
	ErrSelfLoop = errors.New("edge src and dst must differ")
)
