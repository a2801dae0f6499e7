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
	"fmt"

	"github.com/AleutianAI/skillgraph/services/curriculum/graph"
)

// Snapshot is a complete curriculum dataset for wipe-and-reseed loads.
type Snapshot struct {
	Abstracts   []graph.AbstractNode
	Impls       []graph.ImplNode
	Contexts    []graph.ImplContext
	Edges       []graph.Edge
	Related     []graph.RelatedEdge
	Memberships []graph.Membership
}

// ReplaceAll atomically replaces the entire dataset with the snapshot.
// Either every row lands or none do; readers never observe a half-seeded
// graph.
func (db *DB) ReplaceAll(ctx context.Context, snap Snapshot) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	// Child tables first so foreign keys never dangle mid-wipe.
	for _, table := range []string{
		"abstract_memberships", "related_edges", "edges",
		"impl_contexts", "impl_nodes", "abstract_nodes",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wiping %s: %w", table, err)
		}
	}

	for _, a := range snap.Abstracts {
		var parent any
		if a.ParentID != nil {
			parent = a.ParentID.String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO abstract_nodes (`+abstractCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID.String(), a.Slug, a.Title, a.ShortTitle, a.Summary, a.BodyMD,
			string(a.Kind), parent, a.CreatedAt.UnixMilli(), a.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("inserting abstract %q: %w", a.Slug, err)
		}
	}

	for _, i := range snap.Impls {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO impl_nodes (id, abstract_id, variant_key, contract_md) VALUES (?, ?, ?, ?)`,
			i.ID.String(), i.AbstractID.String(), i.VariantKey, i.ContractMD)
		if err != nil {
			return fmt.Errorf("inserting impl %s/%s: %w", i.AbstractID, i.VariantKey, err)
		}
	}

	for _, c := range snap.Contexts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO impl_contexts (impl_id, context_abstract_id) VALUES (?, ?)`,
			c.ImplID.String(), c.ContextAbstractID.String())
		if err != nil {
			return fmt.Errorf("inserting impl context: %w", err)
		}
	}

	for _, e := range snap.Edges {
		var rank any
		if e.Rank != nil {
			rank = *e.Rank
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edges (id, src_impl_id, dst_impl_id, edge_type, rank) VALUES (?, ?, ?, ?, ?)`,
			e.ID.String(), e.SrcImplID.String(), e.DstImplID.String(), string(e.Type), rank)
		if err != nil {
			return fmt.Errorf("inserting edge %s: %w", e.ID, err)
		}
	}

	for _, r := range snap.Related {
		canon := graph.CanonicalRelated(r.AID, r.BID)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO related_edges (a_id, b_id) VALUES (?, ?)`,
			canon.AID.String(), canon.BID.String())
		if err != nil {
			return fmt.Errorf("inserting related edge: %w", err)
		}
	}

	for _, m := range snap.Memberships {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO abstract_memberships (abstract_id, hub_id, role, weight) VALUES (?, ?, ?, ?)`,
			m.AbstractID.String(), m.HubID.String(), m.Role, m.Weight)
		if err != nil {
			return fmt.Errorf("inserting membership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

// Counts reports row counts per entity, for seed endpoint responses.
func (db *DB) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, 6)
	for name, table := range map[string]string{
		"abstract_nodes": "abstract_nodes",
		"impl_nodes":     "impl_nodes",
		"impl_contexts":  "impl_contexts",
		"edges":          "edges",
		"related_edges":  "related_edges",
		"memberships":    "abstract_memberships",
	} {
		var n int
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[name] = n
	}
	return counts, nil
}
