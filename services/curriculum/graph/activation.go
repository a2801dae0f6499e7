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

// DefaultVariantKey is the conventional name of the default variant.
const DefaultVariantKey = "core"

// Activation holds per-focus variant activation state for the inside set.
type Activation struct {
	// ContextsByImpl maps an implementation id to its declared context
	// abstract ids. Implementations with no entry are globally active.
	ContextsByImpl map[uuid.UUID]map[uuid.UUID]bool

	focusID uuid.UUID
}

// NewActivation indexes the given context rows for the given focus.
func NewActivation(focusID uuid.UUID, contexts []ImplContext) *Activation {
	byImpl := make(map[uuid.UUID]map[uuid.UUID]bool, len(contexts))
	for _, c := range contexts {
		set := byImpl[c.ImplID]
		if set == nil {
			set = make(map[uuid.UUID]bool)
			byImpl[c.ImplID] = set
		}
		set[c.ContextAbstractID] = true
	}
	return &Activation{ContextsByImpl: byImpl, focusID: focusID}
}

// Active reports whether the implementation is active for the focus.
//
// An implementation with zero context rows is active everywhere. One with
// rows is active iff the literal focus id is among them. Earlier revisions
// of this rule matched against the focus's ancestor chain or its whole
// inside set; the literal-id reading is the configured behavior and the
// only one this resolver supports.
func (a *Activation) Active(implID uuid.UUID) bool {
	ctxs, ok := a.ContextsByImpl[implID]
	if !ok {
		return true
	}
	return ctxs[a.focusID]
}

// Filter partitions impls into the active subset for this focus.
func (a *Activation) Filter(impls []ImplNode) []ImplNode {
	active := make([]ImplNode, 0, len(impls))
	for _, impl := range impls {
		if a.Active(impl.ID) {
			active = append(active, impl)
		}
	}
	return active
}

// DefaultImplID picks the representative implementation for an abstract
// node: the "core" variant if one exists, else the implementation with the
// lexicographically smallest variant key. The pick is computed over ALL
// variants regardless of activation and never depends on insertion order.
// Returns nil when impls is empty.
func DefaultImplID(impls []ImplNode) *uuid.UUID {
	if len(impls) == 0 {
		return nil
	}
	best := -1
	for i := range impls {
		if impls[i].VariantKey == DefaultVariantKey {
			id := impls[i].ID
			return &id
		}
		if best < 0 || impls[i].VariantKey < impls[best].VariantKey {
			best = i
		}
	}
	id := impls[best].ID
	return &id
}

// SortByVariantKey orders impls by variant key ascending, in place, with id
// as the tie-break so equal keys (impossible within one abstract, possible
// across) still order deterministically.
func SortByVariantKey(impls []ImplNode) {
	sort.Slice(impls, func(i, j int) bool {
		if impls[i].VariantKey != impls[j].VariantKey {
			return impls[i].VariantKey < impls[j].VariantKey
		}
		return impls[i].ID.String() < impls[j].ID.String()
	})
}
