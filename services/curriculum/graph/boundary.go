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
	"sort"

	"github.com/google/uuid"
)

// BoundaryHint is a summarized, directional, counted signal that edges
// exist between the focus scope and a named outside grouping.
type BoundaryHint struct {
	GroupID    uuid.UUID     `json:"group_id"`
	Title      string        `json:"title"`
	ShortTitle string        `json:"short_title"`
	Type       EdgeType      `json:"type"`
	Direction  HintDirection `json:"direction"`
	Count      int           `json:"count"`
}

// Grouper maps a boundary edge's outside abstract node to the
// representative node its hint is filed under.
//
// Description:
//
//	The default rule walks the outside node's parent chain upward and
//	stops just before it would re-enter the focus's ancestor chain,
//	yielding the topmost node on the outside branch (typically a sibling
//	domain) rather than the literal leaf the edge happens to touch.
//
//	When the store carries memberships, two refinements apply: a walk that
//	ends at a root group is represented by the depth-2 node under that
//	root (so sibling domains do not all collapse into one mega-bucket),
//	and an outside node that taxonomy alone cannot place falls back to its
//	lexicographically smallest declared hub, excluding the focus itself.
type Grouper struct {
	absByID    map[uuid.UUID]*AbstractNode
	ancestors  map[uuid.UUID]bool
	hubsByAbs  map[uuid.UUID][]uuid.UUID
	focusID    uuid.UUID
	memberMode bool
}

// NewGrouper builds a Grouper for one focus request.
//
// Inputs:
//
//	absByID - Abstract nodes indexed by id. Must include the full parent
//	chains of every outside node (preloaded by the assembler).
//	ancestorChain - The focus ancestor chain from ResolveScope.
//	memberships - All membership rows touching the request, or nil. A nil
//	or empty slice disables the membership-aware refinements.
func NewGrouper(absByID map[uuid.UUID]*AbstractNode, ancestorChain []uuid.UUID, memberships []Membership, focusID uuid.UUID) *Grouper {
	anc := make(map[uuid.UUID]bool, len(ancestorChain))
	for _, id := range ancestorChain {
		anc[id] = true
	}

	hubs := make(map[uuid.UUID][]uuid.UUID, len(memberships))
	for _, m := range memberships {
		hubs[m.AbstractID] = append(hubs[m.AbstractID], m.HubID)
	}

	return &Grouper{
		absByID:    absByID,
		ancestors:  anc,
		hubsByAbs:  hubs,
		focusID:    focusID,
		memberMode: len(memberships) > 0,
	}
}

// GroupFor returns the representative abstract id for an outside node.
func (g *Grouper) GroupFor(outsideID uuid.UUID) uuid.UUID {
	cur, ok := g.absByID[outsideID]
	if !ok {
		// Not in the index at all: taxonomy cannot place it.
		if hub, ok := g.fallbackHub(outsideID); ok {
			return hub
		}
		return outsideID
	}

	var prev *AbstractNode
	for {
		if cur.ParentID == nil {
			// Reached a root without crossing the ancestor chain.
			if g.memberMode && cur.Kind == KindGroup {
				if prev != nil {
					return prev.ID // depth-2 representative under the root
				}
				if hub, ok := g.fallbackHub(outsideID); ok {
					return hub
				}
			}
			return cur.ID
		}
		pid := *cur.ParentID
		if g.ancestors[pid] {
			return cur.ID
		}
		next, ok := g.absByID[pid]
		if !ok {
			return cur.ID
		}
		prev = cur
		cur = next
	}
}

// fallbackHub picks the lexicographically smallest declared hub of the
// node, excluding the focus hub itself.
func (g *Grouper) fallbackHub(absID uuid.UUID) (uuid.UUID, bool) {
	var best uuid.UUID
	found := false
	for _, hub := range g.hubsByAbs[absID] {
		if hub == g.focusID {
			continue
		}
		if !found || hub.String() < best.String() {
			best = hub
			found = true
		}
	}
	return best, found
}

// AggregateHints groups boundary edges by (representative, type, direction)
// and emits one counted hint per distinct key.
//
// Ordering is deterministic so repeated calls over unchanged data return
// identical output: depends_on before used_by, requires before recommended,
// descending count, then title ascending (group id as the final tie-break).
func AggregateHints(boundary []BoundaryEdge, grouper *Grouper, absByID map[uuid.UUID]*AbstractNode) []BoundaryHint {
	type key struct {
		group     uuid.UUID
		edgeType  EdgeType
		direction HintDirection
	}

	counts := make(map[key]int, len(boundary))
	for _, be := range boundary {
		k := key{
			group:     grouper.GroupFor(be.OutsideAbstractID),
			edgeType:  be.Edge.Type,
			direction: be.Direction,
		}
		counts[k]++
	}

	hints := make([]BoundaryHint, 0, len(counts))
	for k, n := range counts {
		h := BoundaryHint{
			GroupID:   k.group,
			Type:      k.edgeType,
			Direction: k.direction,
			Count:     n,
		}
		if node, ok := absByID[k.group]; ok {
			h.Title = node.Title
			h.ShortTitle = node.ShortTitle
		}
		hints = append(hints, h)
	}

	sort.Slice(hints, func(i, j int) bool {
		a, b := hints[i], hints[j]
		if a.Direction != b.Direction {
			return a.Direction == DirectionDependsOn
		}
		if a.Type != b.Type {
			return a.Type == EdgeRequires
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.GroupID.String() < b.GroupID.String()
	})
	return hints
}
