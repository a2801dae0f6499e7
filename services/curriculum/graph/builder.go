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
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// Logger receives build diagnostics and data-integrity warnings.
	// Default: slog.Default().
	Logger *slog.Logger
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithLogger sets the builder's logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// Builder assembles graph responses from a Store.
//
// Description:
//
//	Builder is the composition root for the read path: it runs the scope
//	resolver, variant activation, edge classifier, and boundary grouper in
//	order and packs their results into a Response. Each build is a
//	self-contained read-only computation; the builder holds no per-request
//	state.
//
// Thread Safety: Safe for concurrent use.
type Builder struct {
	store  Store
	logger *slog.Logger
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(store Store, opts ...BuilderOption) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("store must not be nil")
	}
	options := BuilderOptions{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{store: store, logger: options.Logger}, nil
}

// BuildFullGraph returns the whole graph: every abstract node with its
// variant list and computed flags, every implementation, every edge, every
// related edge, and no boundary hints (the full graph has no outside).
func (b *Builder) BuildFullGraph(ctx context.Context) (*Response, error) {
	ctx, span := startBuildSpan(ctx, "full", uuid.Nil)
	defer span.End()
	start := time.Now()

	var (
		abstracts   []AbstractNode
		impls       []ImplNode
		edges       []Edge
		related     []RelatedEdge
		memberships []Membership
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { abstracts, err = b.store.AllAbstracts(gctx); return })
	g.Go(func() (err error) { impls, err = b.store.AllImpls(gctx); return })
	g.Go(func() (err error) { edges, err = b.store.AllEdges(gctx); return })
	g.Go(func() (err error) { related, err = b.store.AllRelated(gctx); return })
	if err := g.Wait(); err != nil {
		finishBuildSpan(span, 0, 0, err)
		recordBuildMetrics("full", time.Since(start), err)
		return nil, err
	}

	absIDs := make([]uuid.UUID, 0, len(abstracts))
	for _, a := range abstracts {
		absIDs = append(absIDs, a.ID)
	}
	memberships, err := b.store.MembershipsByAbstractIDs(ctx, absIDs)
	if err != nil {
		finishBuildSpan(span, 0, 0, err)
		recordBuildMetrics("full", time.Since(start), err)
		return nil, fmt.Errorf("loading memberships: %w", err)
	}

	childCount := make(map[uuid.UUID]int, len(abstracts))
	for _, a := range abstracts {
		if a.ParentID != nil {
			childCount[*a.ParentID]++
		}
	}
	memberCount := make(map[uuid.UUID]int, len(memberships))
	for _, m := range memberships {
		memberCount[m.HubID]++
	}

	implsByAbs := make(map[uuid.UUID][]ImplNode, len(abstracts))
	for _, i := range impls {
		implsByAbs[i.AbstractID] = append(implsByAbs[i.AbstractID], i)
	}

	resp := &Response{
		AbstractNodes: make([]AbstractNodeOut, 0, len(abstracts)),
		ImplNodes:     make([]ImplOut, 0, len(impls)),
		Edges:         make([]EdgeOut, 0, len(edges)),
		RelatedEdges:  make([]RelatedEdgeOut, 0, len(related)),
		BoundaryHints: []BoundaryHint{},
	}

	sort.Slice(abstracts, func(i, j int) bool { return abstracts[i].Slug < abstracts[j].Slug })
	for _, a := range abstracts {
		resp.AbstractNodes = append(resp.AbstractNodes, b.packAbstract(a, implsByAbs[a.ID],
			childCount[a.ID] > 0 || memberCount[a.ID] > 0))
	}

	SortByVariantKey(impls)
	sort.SliceStable(impls, func(i, j int) bool {
		return impls[i].AbstractID.String() < impls[j].AbstractID.String()
	})
	for _, i := range impls {
		resp.ImplNodes = append(resp.ImplNodes, implOut(i))
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].ID.String() < edges[j].ID.String() })
	for _, e := range edges {
		resp.Edges = append(resp.Edges, edgeOut(e))
	}

	sort.Slice(related, func(i, j int) bool {
		if related[i].AID != related[j].AID {
			return related[i].AID.String() < related[j].AID.String()
		}
		return related[i].BID.String() < related[j].BID.String()
	})
	for _, r := range related {
		resp.RelatedEdges = append(resp.RelatedEdges, RelatedEdgeOut{AID: r.AID, BID: r.BID})
	}

	finishBuildSpan(span, len(resp.AbstractNodes), len(resp.Edges), nil)
	recordBuildMetrics("full", time.Since(start), nil)
	return resp, nil
}

// BuildFocusGraph returns the scoped view for one focus node.
//
// Description:
//
//	Pipeline order is fixed: scope resolution, variant activation, edge
//	classification, boundary grouping, packing. The visible abstract-node
//	collection is the inside set minus the focus itself (children and
//	members only); the implementation collection is restricted to active
//	variants; edges are internal only; boundary hints summarize everything
//	that crosses the scope.
//
// Outputs:
//
//	*Response - The focus payload.
//	error - ErrNotFound when focusID does not resolve (fail fast, before
//	any traversal), or a store error.
func (b *Builder) BuildFocusGraph(ctx context.Context, focusID uuid.UUID) (*Response, error) {
	ctx, span := startBuildSpan(ctx, "focus", focusID)
	defer span.End()
	start := time.Now()

	resp, err := b.buildFocus(ctx, focusID)
	if err != nil {
		finishBuildSpan(span, 0, 0, err)
		recordBuildMetrics("focus", time.Since(start), err)
		return nil, err
	}

	finishBuildSpan(span, len(resp.AbstractNodes), len(resp.Edges), nil)
	recordBuildMetrics("focus", time.Since(start), nil)
	return resp, nil
}

func (b *Builder) buildFocus(ctx context.Context, focusID uuid.UUID) (*Response, error) {
	scope, err := ResolveScope(ctx, b.store, focusID)
	if err != nil {
		return nil, err
	}

	insideIDs := scope.InsideIDs()

	// All inside implementations, inactive variants included: activation
	// filters the payload, not the boundary computation.
	insideImpls, err := b.store.ImplsByAbstractIDs(ctx, insideIDs)
	if err != nil {
		return nil, fmt.Errorf("loading inside implementations: %w", err)
	}
	insideImplIDs := make([]uuid.UUID, 0, len(insideImpls))
	for _, i := range insideImpls {
		insideImplIDs = append(insideImplIDs, i.ID)
	}

	contexts, err := b.store.ContextsByImplIDs(ctx, insideImplIDs)
	if err != nil {
		return nil, fmt.Errorf("loading impl contexts: %w", err)
	}
	activation := NewActivation(focusID, contexts)

	touching, err := b.store.EdgesTouchingImpls(ctx, insideImplIDs)
	if err != nil {
		return nil, fmt.Errorf("loading touching edges: %w", err)
	}

	implOwner, absByID, err := b.loadEdgeEndpoints(ctx, scope, insideImpls, touching)
	if err != nil {
		return nil, err
	}

	// Memberships of every known abstract: inside hubs use them for
	// has_children, outside nodes for the grouper's hub fallback.
	absIDs := make([]uuid.UUID, 0, len(absByID))
	for id := range absByID {
		absIDs = append(absIDs, id)
	}
	memberships, err := b.store.MembershipsByAbstractIDs(ctx, absIDs)
	if err != nil {
		return nil, fmt.Errorf("loading memberships: %w", err)
	}

	classified := ClassifyEdges(touching, implOwner, scope, activation, b.logger)

	grouper := NewGrouper(absByID, scope.AncestorChain, memberships, focusID)
	hints := AggregateHints(classified.Boundary, grouper, absByID)

	return b.packFocus(scope, insideImpls, activation, classified.Internal, hints, memberships), nil
}

// loadEdgeEndpoints resolves the owning abstract of every edge endpoint and
// builds the abstract index used for classification and grouping, including
// the full parent chains of outside nodes.
func (b *Builder) loadEdgeEndpoints(ctx context.Context, scope *Scope, insideImpls []ImplNode, touching []Edge) (map[uuid.UUID]uuid.UUID, map[uuid.UUID]*AbstractNode, error) {
	implOwner := make(map[uuid.UUID]uuid.UUID, len(insideImpls))
	for _, i := range insideImpls {
		implOwner[i.ID] = i.AbstractID
	}

	missing := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool, len(touching)*2)
	for _, e := range touching {
		for _, id := range []uuid.UUID{e.SrcImplID, e.DstImplID} {
			if _, ok := implOwner[id]; !ok && !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
		}
	}
	outsideImpls, err := b.store.ImplsByIDs(ctx, missing)
	if err != nil {
		return nil, nil, fmt.Errorf("loading edge endpoint implementations: %w", err)
	}
	for _, i := range outsideImpls {
		implOwner[i.ID] = i.AbstractID
	}

	absByID := make(map[uuid.UUID]*AbstractNode, len(scope.Inside))
	for id, n := range scope.Inside {
		absByID[id] = n
	}

	wantAbs := make([]uuid.UUID, 0, len(outsideImpls))
	for _, i := range outsideImpls {
		if _, ok := absByID[i.AbstractID]; !ok {
			wantAbs = append(wantAbs, i.AbstractID)
		}
	}
	outsideAbs, err := b.store.AbstractsByIDs(ctx, wantAbs)
	if err != nil {
		return nil, nil, fmt.Errorf("loading outside abstracts: %w", err)
	}
	for i := range outsideAbs {
		n := outsideAbs[i]
		absByID[n.ID] = &n
	}

	if err := b.preloadAncestors(ctx, absByID); err != nil {
		return nil, nil, err
	}
	return implOwner, absByID, nil
}

// preloadAncestors fetches missing parents until the index is closed under
// the parent relation, so the grouper can walk chains without touching the
// store. Bounded by the forest height; a seen-set is implicit in the index.
func (b *Builder) preloadAncestors(ctx context.Context, absByID map[uuid.UUID]*AbstractNode) error {
	for {
		missing := make([]uuid.UUID, 0)
		queued := make(map[uuid.UUID]bool)
		for _, n := range absByID {
			if n.ParentID == nil {
				continue
			}
			pid := *n.ParentID
			if _, ok := absByID[pid]; !ok && !queued[pid] {
				queued[pid] = true
				missing = append(missing, pid)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		parents, err := b.store.AbstractsByIDs(ctx, missing)
		if err != nil {
			return fmt.Errorf("preloading ancestors: %w", err)
		}
		if len(parents) == 0 {
			// Dangling parent ids; nothing more to close over.
			return nil
		}
		for i := range parents {
			p := parents[i]
			absByID[p.ID] = &p
		}
	}
}

// packFocus assembles the focus Response from resolved parts.
func (b *Builder) packFocus(scope *Scope, insideImpls []ImplNode, activation *Activation, internal []Edge, hints []BoundaryHint, memberships []Membership) *Response {
	implsByAbs := make(map[uuid.UUID][]ImplNode, len(scope.Inside))
	for _, i := range insideImpls {
		implsByAbs[i.AbstractID] = append(implsByAbs[i.AbstractID], i)
	}

	childCount := make(map[uuid.UUID]int, len(scope.Inside))
	for _, n := range scope.Inside {
		if n.ParentID != nil {
			if scope.Contains(*n.ParentID) {
				childCount[*n.ParentID]++
			}
		}
	}
	memberCount := make(map[uuid.UUID]int)
	for _, m := range memberships {
		if scope.Contains(m.HubID) && scope.Contains(m.AbstractID) {
			memberCount[m.HubID]++
		}
	}

	visible := make([]*AbstractNode, 0, len(scope.Inside))
	for id, n := range scope.Inside {
		if id == scope.Focus.ID {
			continue // children and members only, never the focus itself
		}
		visible = append(visible, n)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Slug < visible[j].Slug })

	resp := &Response{
		AbstractNodes: make([]AbstractNodeOut, 0, len(visible)),
		ImplNodes:     make([]ImplOut, 0, len(insideImpls)),
		Edges:         make([]EdgeOut, 0, len(internal)),
		RelatedEdges:  []RelatedEdgeOut{},
		BoundaryHints: hints,
	}

	for _, n := range visible {
		resp.AbstractNodes = append(resp.AbstractNodes, b.packAbstract(*n, implsByAbs[n.ID],
			childCount[n.ID] > 0 || memberCount[n.ID] > 0))
	}

	active := activation.Filter(insideImpls)
	SortByVariantKey(active)
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].AbstractID.String() < active[j].AbstractID.String()
	})
	for _, i := range active {
		resp.ImplNodes = append(resp.ImplNodes, implOut(i))
	}

	sort.Slice(internal, func(i, j int) bool { return internal[i].ID.String() < internal[j].ID.String() })
	for _, e := range internal {
		resp.Edges = append(resp.Edges, edgeOut(e))
	}

	return resp
}

// packAbstract builds one AbstractNodeOut. The variant list and default
// pick cover ALL variants, not just active ones.
func (b *Builder) packAbstract(a AbstractNode, impls []ImplNode, hasChildren bool) AbstractNodeOut {
	SortByVariantKey(impls)
	out := AbstractNodeOut{
		ID:            a.ID,
		Slug:          a.Slug,
		Title:         a.Title,
		ShortTitle:    a.ShortTitle,
		Summary:       a.Summary,
		BodyMD:        a.BodyMD,
		Kind:          a.Kind,
		ParentID:      a.ParentID,
		HasChildren:   hasChildren,
		HasVariants:   len(impls) > 1,
		DefaultImplID: DefaultImplID(impls),
		Impls:         make([]ImplOut, 0, len(impls)),
	}
	for _, i := range impls {
		out.Impls = append(out.Impls, implOut(i))
	}
	return out
}
