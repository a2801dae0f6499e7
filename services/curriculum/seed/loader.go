// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package seed loads curriculum datasets from YAML documents into storage
// snapshots. Node and implementation ids are derived deterministically from
// slugs, so reseeding the same document yields the same ids.
package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/skillgraph/services/curriculum/graph"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/sqlite"
)

//go:embed default.yaml
var defaultYAML []byte

// idNamespace is the UUIDv5 namespace for deterministic curriculum ids.
var idNamespace = uuid.MustParse("8f2f6c1a-93f4-4d2e-9a07-5c7f0b6d2f11")

var validate = validator.New()

// Document is the YAML wire format for a curriculum dataset.
type Document struct {
	AbstractNodes []NodeDoc       `yaml:"abstract_nodes" validate:"required,min=1,dive"`
	ImplNodes     []ImplDoc       `yaml:"impl_nodes" validate:"dive"`
	Edges         []EdgeDoc       `yaml:"edges" validate:"dive"`
	Related       [][]string      `yaml:"related"`
	Memberships   []MembershipDoc `yaml:"memberships" validate:"dive"`
}

// NodeDoc declares one abstract node. Parent references the parent's slug;
// empty means root.
type NodeDoc struct {
	Slug       string `yaml:"slug" validate:"required"`
	Title      string `yaml:"title" validate:"required"`
	ShortTitle string `yaml:"short_title"`
	Summary    string `yaml:"summary"`
	BodyMD     string `yaml:"body_md"`
	Kind       string `yaml:"kind" validate:"required,oneof=concept group"`
	Parent     string `yaml:"parent"`
}

// ImplDoc declares one implementation variant of a node. Contexts list the
// hub slugs the variant is active under; empty means globally active.
type ImplDoc struct {
	Node       string   `yaml:"node" validate:"required"`
	Variant    string   `yaml:"variant" validate:"required"`
	ContractMD string   `yaml:"contract_md"`
	Contexts   []string `yaml:"contexts"`
}

// EdgeDoc declares one implementation edge. Src and Dst use "slug/variant"
// references.
type EdgeDoc struct {
	Src  string `yaml:"src" validate:"required"`
	Dst  string `yaml:"dst" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=requires recommended"`
	Rank *int   `yaml:"rank"`
}

// MembershipDoc links a node into a hub outside its taxonomy parent.
type MembershipDoc struct {
	Node   string `yaml:"node" validate:"required"`
	Hub    string `yaml:"hub" validate:"required"`
	Role   string `yaml:"role"`
	Weight int    `yaml:"weight"`
}

// AbstractID returns the deterministic id for a node slug.
func AbstractID(slug string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("abstract:"+slug))
}

// ImplID returns the deterministic id for a "slug/variant" pair.
func ImplID(slug, variant string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("impl:"+slug+"/"+variant))
}

func edgeID(typ, src, dst string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("edge:"+typ+":"+src+">"+dst))
}

// Parse decodes and validates a YAML document without resolving it.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding seed document: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validating seed document: %w", err)
	}
	return &doc, nil
}

// Load parses a YAML document and resolves it into a storage snapshot.
//
// Description:
//
//	Resolution checks referential integrity (every parent, context, hub,
//	and edge endpoint must name a declared entity) and rejects the whole
//	document if the requires edges would not form a DAG. A failed load
//	leaves nothing to apply; the document is all-or-nothing.
func Load(data []byte, now time.Time) (*sqlite.Snapshot, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Resolve(doc, now)
}

// LoadDefault loads the embedded default curriculum.
func LoadDefault(now time.Time) (*sqlite.Snapshot, error) {
	return Load(defaultYAML, now)
}

// Resolve turns a parsed document into a snapshot.
func Resolve(doc *Document, now time.Time) (*sqlite.Snapshot, error) {
	now = now.UTC()
	snap := &sqlite.Snapshot{}

	nodeBySlug := make(map[string]*NodeDoc, len(doc.AbstractNodes))
	for i := range doc.AbstractNodes {
		n := &doc.AbstractNodes[i]
		if _, dup := nodeBySlug[n.Slug]; dup {
			return nil, fmt.Errorf("duplicate node slug %q", n.Slug)
		}
		nodeBySlug[n.Slug] = n
	}

	for _, n := range doc.AbstractNodes {
		node := graph.AbstractNode{
			ID:         AbstractID(n.Slug),
			Slug:       n.Slug,
			Title:      n.Title,
			ShortTitle: n.ShortTitle,
			Summary:    n.Summary,
			BodyMD:     n.BodyMD,
			Kind:       graph.NodeKind(n.Kind),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if node.ShortTitle == "" {
			node.ShortTitle = n.Title
		}
		if n.Parent != "" {
			if _, ok := nodeBySlug[n.Parent]; !ok {
				return nil, fmt.Errorf("node %q: unknown parent %q", n.Slug, n.Parent)
			}
			pid := AbstractID(n.Parent)
			node.ParentID = &pid
		}
		snap.Abstracts = append(snap.Abstracts, node)
	}

	implRefs := make(map[string]uuid.UUID, len(doc.ImplNodes))
	for _, i := range doc.ImplNodes {
		if _, ok := nodeBySlug[i.Node]; !ok {
			return nil, fmt.Errorf("impl %s/%s: unknown node", i.Node, i.Variant)
		}
		ref := i.Node + "/" + i.Variant
		if _, dup := implRefs[ref]; dup {
			return nil, fmt.Errorf("duplicate impl %q", ref)
		}
		id := ImplID(i.Node, i.Variant)
		implRefs[ref] = id
		snap.Impls = append(snap.Impls, graph.ImplNode{
			ID:         id,
			AbstractID: AbstractID(i.Node),
			VariantKey: i.Variant,
			ContractMD: i.ContractMD,
		})
		for _, ctx := range i.Contexts {
			if _, ok := nodeBySlug[ctx]; !ok {
				return nil, fmt.Errorf("impl %q: unknown context %q", ref, ctx)
			}
			snap.Contexts = append(snap.Contexts, graph.ImplContext{
				ImplID:            id,
				ContextAbstractID: AbstractID(ctx),
			})
		}
	}

	resolveImpl := func(ref string) (uuid.UUID, error) {
		slug, variant, ok := SplitImplRef(ref)
		if !ok {
			return uuid.Nil, fmt.Errorf("malformed impl reference %q (want slug/variant)", ref)
		}
		id, ok := implRefs[ref]
		if !ok {
			return uuid.Nil, fmt.Errorf("unknown impl %s/%s", slug, variant)
		}
		return id, nil
	}

	var requires []graph.EdgePair
	for _, e := range doc.Edges {
		src, err := resolveImpl(e.Src)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.Src, e.Dst, err)
		}
		dst, err := resolveImpl(e.Dst)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", e.Src, e.Dst, err)
		}
		typ := graph.EdgeType(e.Type)
		if typ == graph.EdgeRequires {
			candidate := graph.EdgePair{Src: src, Dst: dst}
			if graph.WouldCreateCycle(requires, candidate) {
				return nil, fmt.Errorf("edge %s -> %s would create a requires cycle", e.Src, e.Dst)
			}
			requires = append(requires, candidate)
		}
		snap.Edges = append(snap.Edges, graph.Edge{
			ID:        edgeID(e.Type, e.Src, e.Dst),
			SrcImplID: src,
			DstImplID: dst,
			Type:      typ,
			Rank:      e.Rank,
		})
	}

	for _, pair := range doc.Related {
		if len(pair) != 2 {
			return nil, fmt.Errorf("related entry %v must name exactly two slugs", pair)
		}
		for _, slug := range pair {
			if _, ok := nodeBySlug[slug]; !ok {
				return nil, fmt.Errorf("related entry %v: unknown slug %q", pair, slug)
			}
		}
		if pair[0] == pair[1] {
			return nil, fmt.Errorf("related entry %v links a node to itself", pair)
		}
		snap.Related = append(snap.Related,
			graph.CanonicalRelated(AbstractID(pair[0]), AbstractID(pair[1])))
	}

	for _, m := range doc.Memberships {
		if m.Node == m.Hub {
			return nil, fmt.Errorf("membership: node %q cannot be its own hub", m.Node)
		}
		if _, ok := nodeBySlug[m.Node]; !ok {
			return nil, fmt.Errorf("membership: unknown node %q", m.Node)
		}
		hub, ok := nodeBySlug[m.Hub]
		if !ok {
			return nil, fmt.Errorf("membership: unknown hub %q", m.Hub)
		}
		if hub.Kind != string(graph.KindGroup) {
			return nil, fmt.Errorf("membership hub %q is not a group", m.Hub)
		}
		role := m.Role
		if role == "" {
			role = "member"
		}
		snap.Memberships = append(snap.Memberships, graph.Membership{
			AbstractID: AbstractID(m.Node),
			HubID:      AbstractID(m.Hub),
			Role:       role,
			Weight:     m.Weight,
		})
	}

	return snap, nil
}

// SplitImplRef splits a "slug/variant" reference. The slug may itself
// contain no slashes; variants never do.
func SplitImplRef(ref string) (slug, variant string, ok bool) {
	idx := strings.LastIndex(ref, "/")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", false
	}
	return ref[:idx], ref[idx+1:], true
}
