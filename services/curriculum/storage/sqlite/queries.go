// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/skillgraph/services/curriculum/graph"
)

const abstractCols = `id, slug, title, short_title, summary, body_md, kind, parent_id, created_at, updated_at`

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return args
}

func scanAbstract(scanner interface{ Scan(...any) error }) (graph.AbstractNode, error) {
	var (
		a         graph.AbstractNode
		id, kind  string
		parent    sql.NullString
		createdMs int64
		updatedMs int64
	)
	err := scanner.Scan(&id, &a.Slug, &a.Title, &a.ShortTitle, &a.Summary,
		&a.BodyMD, &kind, &parent, &createdMs, &updatedMs)
	if err != nil {
		return a, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return a, fmt.Errorf("parsing abstract id %q: %w", id, err)
	}
	a.Kind = graph.NodeKind(kind)
	if parent.Valid {
		pid, err := uuid.Parse(parent.String)
		if err != nil {
			return a, fmt.Errorf("parsing parent id %q: %w", parent.String, err)
		}
		a.ParentID = &pid
	}
	a.CreatedAt = time.UnixMilli(createdMs).UTC()
	a.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return a, nil
}

func (db *DB) queryAbstracts(ctx context.Context, query string, args ...any) ([]graph.AbstractNode, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying abstract nodes: %w", err)
	}
	defer rows.Close()

	var out []graph.AbstractNode
	for rows.Next() {
		a, err := scanAbstract(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning abstract node: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AbstractByID returns one abstract node or graph.ErrNotFound.
func (db *DB) AbstractByID(ctx context.Context, id uuid.UUID) (*graph.AbstractNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+abstractCols+` FROM abstract_nodes WHERE id = ?`, id.String())
	a, err := scanAbstract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying abstract node: %w", err)
	}
	return &a, nil
}

// AbstractBySlug returns one abstract node by slug or graph.ErrNotFound.
func (db *DB) AbstractBySlug(ctx context.Context, slug string) (*graph.AbstractNode, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+abstractCols+` FROM abstract_nodes WHERE slug = ?`, slug)
	a, err := scanAbstract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying abstract node by slug: %w", err)
	}
	return &a, nil
}

func (db *DB) AbstractsByParents(ctx context.Context, parentIDs []uuid.UUID) ([]graph.AbstractNode, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + abstractCols + ` FROM abstract_nodes WHERE parent_id IN (` +
		placeholders(len(parentIDs)) + `)`
	return db.queryAbstracts(ctx, query, idArgs(parentIDs)...)
}

func (db *DB) AbstractsByIDs(ctx context.Context, ids []uuid.UUID) ([]graph.AbstractNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + abstractCols + ` FROM abstract_nodes WHERE id IN (` +
		placeholders(len(ids)) + `)`
	return db.queryAbstracts(ctx, query, idArgs(ids)...)
}

func (db *DB) AllAbstracts(ctx context.Context) ([]graph.AbstractNode, error) {
	return db.queryAbstracts(ctx, `SELECT `+abstractCols+` FROM abstract_nodes`)
}

func (db *DB) queryImpls(ctx context.Context, query string, args ...any) ([]graph.ImplNode, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying impl nodes: %w", err)
	}
	defer rows.Close()

	var out []graph.ImplNode
	for rows.Next() {
		var i graph.ImplNode
		var id, absID string
		if err := rows.Scan(&id, &absID, &i.VariantKey, &i.ContractMD); err != nil {
			return nil, fmt.Errorf("scanning impl node: %w", err)
		}
		if i.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing impl id %q: %w", id, err)
		}
		if i.AbstractID, err = uuid.Parse(absID); err != nil {
			return nil, fmt.Errorf("parsing impl abstract id %q: %w", absID, err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (db *DB) ImplsByAbstractIDs(ctx context.Context, abstractIDs []uuid.UUID) ([]graph.ImplNode, error) {
	if len(abstractIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, abstract_id, variant_key, contract_md FROM impl_nodes
		WHERE abstract_id IN (` + placeholders(len(abstractIDs)) + `)`
	return db.queryImpls(ctx, query, idArgs(abstractIDs)...)
}

func (db *DB) ImplsByIDs(ctx context.Context, ids []uuid.UUID) ([]graph.ImplNode, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, abstract_id, variant_key, contract_md FROM impl_nodes
		WHERE id IN (` + placeholders(len(ids)) + `)`
	return db.queryImpls(ctx, query, idArgs(ids)...)
}

func (db *DB) AllImpls(ctx context.Context) ([]graph.ImplNode, error) {
	return db.queryImpls(ctx, `SELECT id, abstract_id, variant_key, contract_md FROM impl_nodes`)
}

func (db *DB) ContextsByImplIDs(ctx context.Context, implIDs []uuid.UUID) ([]graph.ImplContext, error) {
	if len(implIDs) == 0 {
		return nil, nil
	}
	query := `SELECT impl_id, context_abstract_id FROM impl_contexts
		WHERE impl_id IN (` + placeholders(len(implIDs)) + `)`
	rows, err := db.conn.QueryContext(ctx, query, idArgs(implIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying impl contexts: %w", err)
	}
	defer rows.Close()

	var out []graph.ImplContext
	for rows.Next() {
		var c graph.ImplContext
		var implID, ctxID string
		if err := rows.Scan(&implID, &ctxID); err != nil {
			return nil, fmt.Errorf("scanning impl context: %w", err)
		}
		if c.ImplID, err = uuid.Parse(implID); err != nil {
			return nil, fmt.Errorf("parsing context impl id %q: %w", implID, err)
		}
		if c.ContextAbstractID, err = uuid.Parse(ctxID); err != nil {
			return nil, fmt.Errorf("parsing context abstract id %q: %w", ctxID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (db *DB) queryEdges(ctx context.Context, query string, args ...any) ([]graph.Edge, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var (
			e            graph.Edge
			id, src, dst string
			edgeType     string
			rank         sql.NullInt64
		)
		if err := rows.Scan(&id, &src, &dst, &edgeType, &rank); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing edge id %q: %w", id, err)
		}
		if e.SrcImplID, err = uuid.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing edge src %q: %w", src, err)
		}
		if e.DstImplID, err = uuid.Parse(dst); err != nil {
			return nil, fmt.Errorf("parsing edge dst %q: %w", dst, err)
		}
		e.Type = graph.EdgeType(edgeType)
		if rank.Valid {
			r := int(rank.Int64)
			e.Rank = &r
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) EdgesTouchingImpls(ctx context.Context, implIDs []uuid.UUID) ([]graph.Edge, error) {
	if len(implIDs) == 0 {
		return nil, nil
	}
	ph := placeholders(len(implIDs))
	query := `SELECT id, src_impl_id, dst_impl_id, edge_type, rank FROM edges
		WHERE src_impl_id IN (` + ph + `) OR dst_impl_id IN (` + ph + `)`
	args := append(idArgs(implIDs), idArgs(implIDs)...)
	return db.queryEdges(ctx, query, args...)
}

func (db *DB) AllEdges(ctx context.Context) ([]graph.Edge, error) {
	return db.queryEdges(ctx, `SELECT id, src_impl_id, dst_impl_id, edge_type, rank FROM edges`)
}

func (db *DB) queryMemberships(ctx context.Context, query string, args ...any) ([]graph.Membership, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	var out []graph.Membership
	for rows.Next() {
		var m graph.Membership
		var absID, hubID string
		if err := rows.Scan(&absID, &hubID, &m.Role, &m.Weight); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		if m.AbstractID, err = uuid.Parse(absID); err != nil {
			return nil, fmt.Errorf("parsing membership abstract id %q: %w", absID, err)
		}
		if m.HubID, err = uuid.Parse(hubID); err != nil {
			return nil, fmt.Errorf("parsing membership hub id %q: %w", hubID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (db *DB) MembershipsByHub(ctx context.Context, hubID uuid.UUID) ([]graph.Membership, error) {
	return db.queryMemberships(ctx,
		`SELECT abstract_id, hub_id, role, weight FROM abstract_memberships WHERE hub_id = ?`,
		hubID.String())
}

func (db *DB) MembershipsByAbstractIDs(ctx context.Context, abstractIDs []uuid.UUID) ([]graph.Membership, error) {
	if len(abstractIDs) == 0 {
		return nil, nil
	}
	query := `SELECT abstract_id, hub_id, role, weight FROM abstract_memberships
		WHERE abstract_id IN (` + placeholders(len(abstractIDs)) + `)`
	return db.queryMemberships(ctx, query, idArgs(abstractIDs)...)
}

func (db *DB) AllRelated(ctx context.Context) ([]graph.RelatedEdge, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT a_id, b_id FROM related_edges`)
	if err != nil {
		return nil, fmt.Errorf("querying related edges: %w", err)
	}
	defer rows.Close()

	var out []graph.RelatedEdge
	for rows.Next() {
		var r graph.RelatedEdge
		var aID, bID string
		if err := rows.Scan(&aID, &bID); err != nil {
			return nil, fmt.Errorf("scanning related edge: %w", err)
		}
		if r.AID, err = uuid.Parse(aID); err != nil {
			return nil, fmt.Errorf("parsing related a id %q: %w", aID, err)
		}
		if r.BID, err = uuid.Parse(bID); err != nil {
			return nil, fmt.Errorf("parsing related b id %q: %w", bID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) RequiresPairs(ctx context.Context) ([]graph.EdgePair, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT src_impl_id, dst_impl_id FROM edges WHERE edge_type = ?`,
		string(graph.EdgeRequires))
	if err != nil {
		return nil, fmt.Errorf("querying requires pairs: %w", err)
	}
	defer rows.Close()

	var out []graph.EdgePair
	for rows.Next() {
		var p graph.EdgePair
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, fmt.Errorf("scanning requires pair: %w", err)
		}
		if p.Src, err = uuid.Parse(src); err != nil {
			return nil, fmt.Errorf("parsing pair src %q: %w", src, err)
		}
		if p.Dst, err = uuid.Parse(dst); err != nil {
			return nil, fmt.Errorf("parsing pair dst %q: %w", dst, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertEdge inserts one edge row, mapping the unique (src, dst, type)
// constraint to graph.ErrDuplicateEdge.
func (db *DB) InsertEdge(ctx context.Context, e graph.Edge) error {
	var rank any
	if e.Rank != nil {
		rank = *e.Rank
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO edges (id, src_impl_id, dst_impl_id, edge_type, rank) VALUES (?, ?, ?, ?, ?)`,
		e.ID.String(), e.SrcImplID.String(), e.DstImplID.String(), string(e.Type), rank)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return graph.ErrDuplicateEdge
		}
		return fmt.Errorf("inserting edge: %w", err)
	}
	return nil
}
