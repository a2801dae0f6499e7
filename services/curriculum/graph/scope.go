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
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Scope is the resolved inside-set for one focus request.
type Scope struct {
	// Focus is the focus node itself.
	Focus *AbstractNode

	// Inside maps every inside abstract id (focus, taxonomy descendants,
	// and hub members) to its node.
	Inside map[uuid.UUID]*AbstractNode

	// AncestorChain holds the focus's parent chain, focus first, root
	// last. Used only for boundary grouping, never for membership.
	AncestorChain []uuid.UUID
}

// InsideIDs returns the inside set as a slice. Order is unspecified.
func (s *Scope) InsideIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Inside))
	for id := range s.Inside {
		ids = append(ids, id)
	}
	return ids
}

// Contains reports whether the given abstract id is inside the scope.
func (s *Scope) Contains(id uuid.UUID) bool {
	_, ok := s.Inside[id]
	return ok
}

// ResolveScope computes the inside abstract set and ancestor chain for a
// focus node.
//
// Description:
//
//	The base inside set is the focus plus its full taxonomy subtree,
//	computed by iterative frontier expansion: fetch all nodes whose parent
//	is in the current frontier, union, repeat until a fetch adds nothing.
//	A seen-set guarantees termination even if stored parent pointers are
//	accidentally cyclic. Hub members (membership rows whose hub is the
//	focus) are unioned in afterwards, which is how one concept can appear
//	inside several otherwise-disjoint hubs.
//
// Outputs:
//
//	*Scope - The resolved scope.
//	error - ErrNotFound if the focus id does not resolve; computation
//	stops before any traversal (no partial graphs).
func ResolveScope(ctx context.Context, store Store, focusID uuid.UUID) (*Scope, error) {
	focus, err := store.AbstractByID(ctx, focusID)
	if err != nil {
		return nil, err
	}

	inside := map[uuid.UUID]*AbstractNode{focus.ID: focus}

	frontier := []uuid.UUID{focus.ID}
	for len(frontier) > 0 {
		children, err := store.AbstractsByParents(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("expanding descendants of %s: %w", focusID, err)
		}

		frontier = frontier[:0]
		for i := range children {
			c := children[i]
			if _, ok := inside[c.ID]; ok {
				continue
			}
			inside[c.ID] = &c
			frontier = append(frontier, c.ID)
		}
	}

	// Overlay: nodes whose membership hub is the focus become inside even
	// though their taxonomy parent lies elsewhere.
	members, err := store.MembershipsByHub(ctx, focus.ID)
	if err != nil {
		return nil, fmt.Errorf("loading hub members of %s: %w", focusID, err)
	}
	if len(members) > 0 {
		want := make([]uuid.UUID, 0, len(members))
		for _, m := range members {
			if _, ok := inside[m.AbstractID]; !ok {
				want = append(want, m.AbstractID)
			}
		}
		nodes, err := store.AbstractsByIDs(ctx, want)
		if err != nil {
			return nil, fmt.Errorf("loading member nodes: %w", err)
		}
		for i := range nodes {
			n := nodes[i]
			inside[n.ID] = &n
		}
	}

	chain, err := ancestorChain(ctx, store, focus)
	if err != nil {
		return nil, err
	}

	return &Scope{Focus: focus, Inside: inside, AncestorChain: chain}, nil
}

// ancestorChain walks parent pointers from focus to the root, focus first.
// A seen-set tolerates and truncates accidental parent cycles.
func ancestorChain(ctx context.Context, store Store, focus *AbstractNode) ([]uuid.UUID, error) {
	chain := []uuid.UUID{focus.ID}
	seen := map[uuid.UUID]bool{focus.ID: true}

	cur := focus
	for cur.ParentID != nil {
		pid := *cur.ParentID
		if seen[pid] {
			break
		}
		parent, err := store.AbstractByID(ctx, pid)
		if errors.Is(err, ErrNotFound) {
			// Dangling parent pointer. The chain is still usable for
			// grouping; stop here.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walking ancestors of %s: %w", focus.ID, err)
		}
		chain = append(chain, parent.ID)
		seen[parent.ID] = true
		cur = parent
	}
	return chain, nil
}
