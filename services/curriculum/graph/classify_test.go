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
	"testing"

	"github.com/google/uuid"
)

// classifySetup resolves a two-branch fixture: focus "inside" with concepts
// in/other, sibling branch "outside" with concept out.
func classifySetup(t *testing.T) (*fixture, *Scope) {
	t.Helper()
	f := newFixture(t)
	f.abstract("world", KindGroup, "")
	f.abstract("inside", KindGroup, "world")
	f.abstract("in", KindConcept, "inside")
	f.abstract("other", KindConcept, "inside")
	f.abstract("outside", KindGroup, "world")
	f.abstract("out", KindConcept, "outside")
	f.impl("in", "core")
	f.impl("other", "core")
	f.impl("out", "core")

	scope, err := ResolveScope(context.Background(), f.store, f.absID("inside"))
	if err != nil {
		t.Fatalf("ResolveScope: %v", err)
	}
	return f, scope
}

func (f *fixture) ownerMap() map[uuid.UUID]uuid.UUID {
	owner := make(map[uuid.UUID]uuid.UUID, len(f.store.impls))
	for id, i := range f.store.impls {
		owner[id] = i.AbstractID
	}
	return owner
}

func TestClassifyEdges_InternalRequiresBothActive(t *testing.T) {
	f, scope := classifySetup(t)
	internal := f.requires("in/core", "other/core")

	act := NewActivation(scope.Focus.ID, nil)
	got := ClassifyEdges(f.store.edges, f.ownerMap(), scope, act, nil)

	if len(got.Internal) != 1 || got.Internal[0].ID != internal.ID {
		t.Fatalf("internal = %v, want exactly the in->other edge", got.Internal)
	}
	if len(got.Boundary) != 0 {
		t.Errorf("boundary = %v, want empty", got.Boundary)
	}
}

func TestClassifyEdges_InactiveEndpointExcludesInternal(t *testing.T) {
	f, scope := classifySetup(t)
	f.requires("in/core", "other/core")

	// "other/core" is scoped to some foreign context, so it is inactive
	// for this focus and the edge must not be internal.
	act := NewActivation(scope.Focus.ID, []ImplContext{
		{ImplID: f.implID("other/core"), ContextAbstractID: uuid.New()},
	})
	got := ClassifyEdges(f.store.edges, f.ownerMap(), scope, act, nil)

	if len(got.Internal) != 0 {
		t.Errorf("internal = %v, want empty with an inactive endpoint", got.Internal)
	}
	if len(got.Boundary) != 0 {
		t.Errorf("both-inside edge must never become a boundary edge, got %v", got.Boundary)
	}
}

func TestClassifyEdges_BoundaryDirectionXOR(t *testing.T) {
	f, scope := classifySetup(t)
	dep := f.requires("in/core", "out/core")  // inside is source
	used := f.requires("out/core", "in/core") // inside is destination

	act := NewActivation(scope.Focus.ID, nil)
	got := ClassifyEdges(f.store.edges, f.ownerMap(), scope, act, nil)

	if len(got.Boundary) != 2 {
		t.Fatalf("boundary count = %d, want 2", len(got.Boundary))
	}
	for _, be := range got.Boundary {
		if be.OutsideAbstractID != f.absID("out") {
			t.Errorf("outside abstract = %s, want %s", be.OutsideAbstractID, f.absID("out"))
		}
		switch be.Edge.ID {
		case dep.ID:
			if be.Direction != DirectionDependsOn {
				t.Errorf("inside-source edge direction = %s, want depends_on", be.Direction)
			}
		case used.ID:
			if be.Direction != DirectionUsedBy {
				t.Errorf("inside-destination edge direction = %s, want used_by", be.Direction)
			}
		default:
			t.Errorf("unexpected boundary edge %s", be.Edge.ID)
		}
	}
	if len(got.Internal) != 0 {
		t.Errorf("internal = %v, want empty", got.Internal)
	}
}

func TestClassifyEdges_SkipsUnresolvableImpl(t *testing.T) {
	f, scope := classifySetup(t)
	f.requires("in/core", "out/core")

	owner := f.ownerMap()
	delete(owner, f.implID("out/core")) // simulate a dangling reference

	act := NewActivation(scope.Focus.ID, nil)
	got := ClassifyEdges(f.store.edges, owner, scope, act, nil)

	if len(got.Internal) != 0 || len(got.Boundary) != 0 {
		t.Errorf("edge with unresolvable endpoint must be skipped, got internal=%v boundary=%v",
			got.Internal, got.Boundary)
	}
}

func TestClassifyEdges_InternalSubsetOfTouching(t *testing.T) {
	f, scope := classifySetup(t)
	f.requires("in/core", "other/core")
	f.requires("in/core", "out/core")
	f.recommended("out/core", "other/core", 1)

	act := NewActivation(scope.Focus.ID, nil)
	got := ClassifyEdges(f.store.edges, f.ownerMap(), scope, act, nil)

	touching := make(map[uuid.UUID]bool, len(f.store.edges))
	for _, e := range f.store.edges {
		touching[e.ID] = true
	}
	for _, e := range got.Internal {
		if !touching[e.ID] {
			t.Errorf("internal edge %s not in touching set", e.ID)
		}
		if !act.Active(e.SrcImplID) || !act.Active(e.DstImplID) {
			t.Errorf("internal edge %s has an inactive endpoint", e.ID)
		}
	}
}
