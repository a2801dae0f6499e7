// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package seed

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefault(t *testing.T) {
	snap, err := LoadDefault(time.Now())
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}

	if len(snap.Abstracts) != 36 {
		t.Errorf("abstract count = %d, want 36", len(snap.Abstracts))
	}
	if len(snap.Impls) != 26 {
		t.Errorf("impl count = %d, want 26", len(snap.Impls))
	}
	if len(snap.Contexts) != 7 {
		t.Errorf("context count = %d, want 7", len(snap.Contexts))
	}
	if len(snap.Edges) != 18 {
		t.Errorf("edge count = %d, want 18", len(snap.Edges))
	}
	if len(snap.Memberships) != 4 {
		t.Errorf("membership count = %d, want 4", len(snap.Memberships))
	}
	if len(snap.Related) != 2 {
		t.Errorf("related count = %d, want 2", len(snap.Related))
	}

	// Related pairs stored in canonical order.
	for _, r := range snap.Related {
		if r.AID.String() >= r.BID.String() {
			t.Errorf("related pair not canonical: %s >= %s", r.AID, r.BID)
		}
	}
}

func TestLoad_DeterministicIDs(t *testing.T) {
	first, err := LoadDefault(time.Now())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := LoadDefault(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if first.Abstracts[0].ID != second.Abstracts[0].ID {
		t.Error("abstract ids differ across loads of the same document")
	}
	if first.Impls[0].ID != second.Impls[0].ID {
		t.Error("impl ids differ across loads of the same document")
	}
	if AbstractID("math") != AbstractID("math") {
		t.Error("AbstractID not deterministic")
	}
	if AbstractID("math") == AbstractID("physics") {
		t.Error("distinct slugs collide")
	}
}

func TestLoad_RejectsRequiresCycle(t *testing.T) {
	doc := `
abstract_nodes:
  - {slug: root, title: Root, kind: group}
  - {slug: a, title: A, kind: concept, parent: root}
  - {slug: b, title: B, kind: concept, parent: root}
impl_nodes:
  - {node: a, variant: core}
  - {node: b, variant: core}
edges:
  - {src: a/core, dst: b/core, type: requires}
  - {src: b/core, dst: a/core, type: requires}
`
	_, err := Load([]byte(doc), time.Now())
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("error = %v, want requires-cycle rejection", err)
	}
}

func TestLoad_RejectsUnknownReferences(t *testing.T) {
	cases := map[string]string{
		"unknown parent": `
abstract_nodes:
  - {slug: a, title: A, kind: concept, parent: ghost}
`,
		"unknown edge endpoint": `
abstract_nodes:
  - {slug: a, title: A, kind: concept}
impl_nodes:
  - {node: a, variant: core}
edges:
  - {src: a/core, dst: ghost/core, type: requires}
`,
		"unknown context": `
abstract_nodes:
  - {slug: a, title: A, kind: concept}
impl_nodes:
  - {node: a, variant: core, contexts: [ghost]}
`,
		"membership hub not a group": `
abstract_nodes:
  - {slug: a, title: A, kind: concept}
  - {slug: b, title: B, kind: concept}
memberships:
  - {node: a, hub: b}
`,
		"malformed edge endpoint": `
abstract_nodes:
  - {slug: a, title: A, kind: concept}
impl_nodes:
  - {node: a, variant: core}
edges:
  - {src: a/core, dst: a, type: requires}
`,
	}
	for name, doc := range cases {
		if _, err := Load([]byte(doc), time.Now()); err == nil {
			t.Errorf("%s: load succeeded, want error", name)
		}
	}
}

func TestLoad_RejectsSelfMembership(t *testing.T) {
	doc := `
abstract_nodes:
  - {slug: hub, title: Hub, kind: group}
memberships:
  - {node: hub, hub: hub}
`
	_, err := Load([]byte(doc), time.Now())
	if err == nil || !strings.Contains(err.Error(), "own hub") {
		t.Fatalf("error = %v, want self-membership rejection", err)
	}
}

func TestLoad_RejectsInvalidKind(t *testing.T) {
	doc := `
abstract_nodes:
  - {slug: a, title: A, kind: blob}
`
	if _, err := Load([]byte(doc), time.Now()); err == nil {
		t.Fatal("invalid kind accepted")
	}
}

func TestLoad_DuplicateSlug(t *testing.T) {
	doc := `
abstract_nodes:
  - {slug: a, title: A, kind: concept}
  - {slug: a, title: A again, kind: concept}
`
	if _, err := Load([]byte(doc), time.Now()); err == nil {
		t.Fatal("duplicate slug accepted")
	}
}

func TestSplitImplRef(t *testing.T) {
	slug, variant, ok := SplitImplRef("fourier-transform/math")
	if !ok || slug != "fourier-transform" || variant != "math" {
		t.Errorf("SplitImplRef = (%q, %q, %v)", slug, variant, ok)
	}
	for _, bad := range []string{"", "noslash", "/x", "x/"} {
		if _, _, ok := SplitImplRef(bad); ok {
			t.Errorf("SplitImplRef(%q) accepted", bad)
		}
	}
}
