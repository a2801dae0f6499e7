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

// fakeStore is an in-memory Store + EdgeWriter for tests.
type fakeStore struct {
	abstracts   map[uuid.UUID]AbstractNode
	impls       map[uuid.UUID]ImplNode
	edges       []Edge
	contexts    []ImplContext
	memberships []Membership
	related     []RelatedEdge
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		abstracts: make(map[uuid.UUID]AbstractNode),
		impls:     make(map[uuid.UUID]ImplNode),
	}
}

func (s *fakeStore) AbstractByID(_ context.Context, id uuid.UUID) (*AbstractNode, error) {
	a, ok := s.abstracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *fakeStore) AbstractsByParents(_ context.Context, parentIDs []uuid.UUID) ([]AbstractNode, error) {
	want := make(map[uuid.UUID]bool, len(parentIDs))
	for _, id := range parentIDs {
		want[id] = true
	}
	var out []AbstractNode
	for _, a := range s.abstracts {
		if a.ParentID != nil && want[*a.ParentID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) AbstractsByIDs(_ context.Context, ids []uuid.UUID) ([]AbstractNode, error) {
	var out []AbstractNode
	for _, id := range ids {
		if a, ok := s.abstracts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ImplsByAbstractIDs(_ context.Context, abstractIDs []uuid.UUID) ([]ImplNode, error) {
	want := make(map[uuid.UUID]bool, len(abstractIDs))
	for _, id := range abstractIDs {
		want[id] = true
	}
	var out []ImplNode
	for _, i := range s.impls {
		if want[i.AbstractID] {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *fakeStore) ImplsByIDs(_ context.Context, ids []uuid.UUID) ([]ImplNode, error) {
	var out []ImplNode
	for _, id := range ids {
		if i, ok := s.impls[id]; ok {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *fakeStore) ContextsByImplIDs(_ context.Context, implIDs []uuid.UUID) ([]ImplContext, error) {
	want := make(map[uuid.UUID]bool, len(implIDs))
	for _, id := range implIDs {
		want[id] = true
	}
	var out []ImplContext
	for _, c := range s.contexts {
		if want[c.ImplID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) EdgesTouchingImpls(_ context.Context, implIDs []uuid.UUID) ([]Edge, error) {
	want := make(map[uuid.UUID]bool, len(implIDs))
	for _, id := range implIDs {
		want[id] = true
	}
	var out []Edge
	for _, e := range s.edges {
		if want[e.SrcImplID] || want[e.DstImplID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) MembershipsByHub(_ context.Context, hubID uuid.UUID) ([]Membership, error) {
	var out []Membership
	for _, m := range s.memberships {
		if m.HubID == hubID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) MembershipsByAbstractIDs(_ context.Context, abstractIDs []uuid.UUID) ([]Membership, error) {
	want := make(map[uuid.UUID]bool, len(abstractIDs))
	for _, id := range abstractIDs {
		want[id] = true
	}
	var out []Membership
	for _, m := range s.memberships {
		if want[m.AbstractID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) AllAbstracts(_ context.Context) ([]AbstractNode, error) {
	out := make([]AbstractNode, 0, len(s.abstracts))
	for _, a := range s.abstracts {
		out = append(out, a)
	}
	return out, nil
}

func (s *fakeStore) AllImpls(_ context.Context) ([]ImplNode, error) {
	out := make([]ImplNode, 0, len(s.impls))
	for _, i := range s.impls {
		out = append(out, i)
	}
	return out, nil
}

func (s *fakeStore) AllEdges(_ context.Context) ([]Edge, error) {
	return append([]Edge(nil), s.edges...), nil
}

func (s *fakeStore) AllRelated(_ context.Context) ([]RelatedEdge, error) {
	return append([]RelatedEdge(nil), s.related...), nil
}

func (s *fakeStore) RequiresPairs(_ context.Context) ([]EdgePair, error) {
	var out []EdgePair
	for _, e := range s.edges {
		if e.Type == EdgeRequires {
			out = append(out, EdgePair{Src: e.SrcImplID, Dst: e.DstImplID})
		}
	}
	return out, nil
}

func (s *fakeStore) InsertEdge(_ context.Context, e Edge) error {
	for _, existing := range s.edges {
		if existing.SrcImplID == e.SrcImplID && existing.DstImplID == e.DstImplID && existing.Type == e.Type {
			return ErrDuplicateEdge
		}
	}
	s.edges = append(s.edges, e)
	return nil
}

// fixture builds curriculum test data by slug, keeping slug -> id maps so
// assertions stay readable.
type fixture struct {
	t     *testing.T
	store *fakeStore
	abs   map[string]uuid.UUID
	impls map[string]uuid.UUID // "slug/variant"
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:     t,
		store: newFakeStore(),
		abs:   make(map[string]uuid.UUID),
		impls: make(map[string]uuid.UUID),
	}
}

func (f *fixture) abstract(slug string, kind NodeKind, parentSlug string) uuid.UUID {
	f.t.Helper()
	id := uuid.New()
	node := AbstractNode{
		ID:         id,
		Slug:       slug,
		Title:      slug,
		ShortTitle: slug,
		Kind:       kind,
	}
	if parentSlug != "" {
		pid, ok := f.abs[parentSlug]
		if !ok {
			f.t.Fatalf("unknown parent slug %q", parentSlug)
		}
		node.ParentID = &pid
	}
	f.store.abstracts[id] = node
	f.abs[slug] = id
	return id
}

func (f *fixture) impl(slug, variant string) uuid.UUID {
	f.t.Helper()
	absID, ok := f.abs[slug]
	if !ok {
		f.t.Fatalf("unknown abstract slug %q", slug)
	}
	id := uuid.New()
	f.store.impls[id] = ImplNode{ID: id, AbstractID: absID, VariantKey: variant}
	f.impls[slug+"/"+variant] = id
	return id
}

func (f *fixture) implID(ref string) uuid.UUID {
	f.t.Helper()
	id, ok := f.impls[ref]
	if !ok {
		f.t.Fatalf("unknown impl ref %q", ref)
	}
	return id
}

func (f *fixture) absID(slug string) uuid.UUID {
	f.t.Helper()
	id, ok := f.abs[slug]
	if !ok {
		f.t.Fatalf("unknown abstract slug %q", slug)
	}
	return id
}

func (f *fixture) context(implRef, ctxSlug string) {
	f.t.Helper()
	f.store.contexts = append(f.store.contexts, ImplContext{
		ImplID:            f.implID(implRef),
		ContextAbstractID: f.absID(ctxSlug),
	})
}

func (f *fixture) member(slug, hubSlug string) {
	f.t.Helper()
	f.store.memberships = append(f.store.memberships, Membership{
		AbstractID: f.absID(slug),
		HubID:      f.absID(hubSlug),
		Role:       "member",
		Weight:     1,
	})
}

func (f *fixture) edge(srcRef, dstRef string, typ EdgeType, rank *int) Edge {
	f.t.Helper()
	e := Edge{
		ID:        uuid.New(),
		SrcImplID: f.implID(srcRef),
		DstImplID: f.implID(dstRef),
		Type:      typ,
		Rank:      rank,
	}
	f.store.edges = append(f.store.edges, e)
	return e
}

func (f *fixture) requires(srcRef, dstRef string) Edge {
	return f.edge(srcRef, dstRef, EdgeRequires, nil)
}

func (f *fixture) recommended(srcRef, dstRef string, rank int) Edge {
	return f.edge(srcRef, dstRef, EdgeRecommended, &rank)
}
