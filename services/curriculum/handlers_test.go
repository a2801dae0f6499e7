// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package curriculum

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/skillgraph/services/curriculum/seed"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/badgercache"
	"github.com/AleutianAI/skillgraph/services/curriculum/storage/sqlite"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	badgerDB, err := badgercache.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { badgerDB.Close() })
	cache, err := badgercache.New(badgerDB, slog.Default())
	require.NoError(t, err)

	service, err := NewService(ServiceConfig{
		Store:  db,
		Writer: db,
		Seeder: db,
		Slugs:  db,
		Cache:  cache,
	})
	require.NoError(t, err)

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(service, slog.Default()))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// seedDefault loads the embedded curriculum through the admin endpoint.
func seedDefault(t *testing.T, router *gin.Engine) {
	t.Helper()
	w := doRequest(t, router, http.MethodPost, "/v1/admin/seed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type graphPayload struct {
	AbstractNodes []struct {
		ID          string `json:"id"`
		Slug        string `json:"slug"`
		HasChildren bool   `json:"has_children"`
		HasVariants bool   `json:"has_variants"`
	} `json:"abstract_nodes"`
	ImplNodes []struct {
		ID         string `json:"id"`
		VariantKey string `json:"variant_key"`
	} `json:"impl_nodes"`
	Edges []struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"edges"`
	BoundaryHints []struct {
		Title     string `json:"title"`
		Type      string `json:"type"`
		Direction string `json:"direction"`
		Count     int    `json:"count"`
	} `json:"boundary_hints"`
}

func TestFullGraphEndpoint(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	w := doRequest(t, router, http.MethodGet, "/v1/graph", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload graphPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Len(t, payload.AbstractNodes, 36)
	assert.Len(t, payload.ImplNodes, 26)
	assert.Len(t, payload.Edges, 18)
	assert.Empty(t, payload.BoundaryHints)

	for _, n := range payload.AbstractNodes {
		if n.Slug == "fourier-transform" {
			assert.True(t, n.HasVariants, "fourier has three variants")
		}
	}
}

func TestFocusEndpoint_VariantSelection(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	focus := seed.AbstractID("signals-systems")
	w := doRequest(t, router, http.MethodGet, "/v1/graph/focus/"+focus.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload graphPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))

	// Inside: convolution, freq-response, sampling (children) plus the
	// shared fourier-transform (membership); never the focus itself.
	slugs := make(map[string]bool)
	for _, n := range payload.AbstractNodes {
		slugs[n.Slug] = true
	}
	for _, want := range []string{"convolution", "freq-response", "sampling", "fourier-transform"} {
		assert.True(t, slugs[want], "missing %s", want)
	}
	assert.False(t, slugs["signals-systems"], "focus node must not be listed")

	// Only the signals formulation of Fourier is active here.
	variants := make(map[string]bool)
	for _, i := range payload.ImplNodes {
		variants[i.VariantKey] = true
	}
	assert.True(t, variants["signals"])
	assert.False(t, variants["math"])
	assert.False(t, variants["physics"])

	// The chain into Fourier stays internal; cross-scope edges only
	// surface as hints.
	assert.NotEmpty(t, payload.Edges)
	assert.NotEmpty(t, payload.BoundaryHints)
	for _, h := range payload.BoundaryHints {
		assert.Contains(t, []string{"depends_on", "used_by"}, h.Direction)
		assert.Positive(t, h.Count)
	}
}

func TestFocusEndpoint_BySlug(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	byID := doRequest(t, router, http.MethodGet,
		"/v1/graph/focus/"+seed.AbstractID("calculus").String(), nil, nil)
	require.Equal(t, http.StatusOK, byID.Code)

	bySlug := doRequest(t, router, http.MethodGet, "/v1/graph/focus/slug/calculus", nil, nil)
	require.Equal(t, http.StatusOK, bySlug.Code, bySlug.Body.String())
	assert.Equal(t, byID.Header().Get("ETag"), bySlug.Header().Get("ETag"))
	assert.Equal(t, byID.Body.Bytes(), bySlug.Body.Bytes())

	missing := doRequest(t, router, http.MethodGet, "/v1/graph/focus/slug/no-such-node", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(missing.Body.Bytes(), &errResp))
	assert.Equal(t, CodeNotFound, errResp.Code)
}

func TestFocusEndpoint_ETagRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)
	path := "/v1/graph/focus/" + seed.AbstractID("calculus").String()

	first := doRequest(t, router, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := doRequest(t, router, http.MethodGet, path, nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.Bytes())

	stale := doRequest(t, router, http.MethodGet, path, nil, map[string]string{"If-None-Match": `"different"`})
	assert.Equal(t, http.StatusOK, stale.Code)
}

func TestFocusEndpoint_Errors(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	w := doRequest(t, router, http.MethodGet, "/v1/graph/focus/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInvalidID, errResp.Code)

	w = doRequest(t, router, http.MethodGet, "/v1/graph/focus/00000000-0000-0000-0000-000000000001", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeNotFound, errResp.Code)
}

func TestCreateEdgeEndpoint(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	body := func(src, dst, typ string) []byte {
		b, _ := json.Marshal(CreateEdgeRequest{SrcImplID: src, DstImplID: dst, Type: typ})
		return b
	}
	eigen := seed.ImplID("eigen", "core").String()
	vectors := seed.ImplID("vectors", "core").String()
	matrices := seed.ImplID("matrices", "core").String()
	fir := seed.ImplID("fir", "core").String()
	iir := seed.ImplID("iir", "core").String()

	// fir -> iir is new and acyclic.
	w := doRequest(t, router, http.MethodPost, "/v1/graph/edges", body(fir, iir, "requires"), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created CreateEdgeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "requires", created.Type)

	// eigen -> vectors closes the vectors -> matrices -> eigen chain.
	w = doRequest(t, router, http.MethodPost, "/v1/graph/edges", body(eigen, vectors, "requires"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeCycleRejected, errResp.Code)

	// Self-loop rejected the same way.
	w = doRequest(t, router, http.MethodPost, "/v1/graph/edges", body(fir, fir, "requires"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeCycleRejected, errResp.Code)

	// The seeded vectors -> matrices edge already exists.
	w = doRequest(t, router, http.MethodPost, "/v1/graph/edges", body(vectors, matrices, "requires"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeDuplicateEdge, errResp.Code)

	// Malformed body.
	w = doRequest(t, router, http.MethodPost, "/v1/graph/edges", []byte(`{"src_impl_id":"x"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEdge_InvalidatesFocusCache(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)
	path := "/v1/graph/focus/" + seed.AbstractID("filters").String()

	first := doRequest(t, router, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	// fir -> iir lands inside the filters scope, so the payload changes.
	b, _ := json.Marshal(CreateEdgeRequest{
		SrcImplID: seed.ImplID("fir", "core").String(),
		DstImplID: seed.ImplID("iir", "core").String(),
		Type:      "requires",
	})
	w := doRequest(t, router, http.MethodPost, "/v1/graph/edges", b, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	second := doRequest(t, router, http.MethodGet, path, nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusOK, second.Code, "stale ETag must not 304 after a write")
	assert.NotEqual(t, etag, second.Header().Get("ETag"))
}

func TestSeedEndpoint_RejectsInvalidDocument(t *testing.T) {
	router := newTestRouter(t)
	seedDefault(t, router)

	bad := []byte(`
abstract_nodes:
  - {slug: a, title: A, kind: concept}
impl_nodes:
  - {node: a, variant: core}
edges:
  - {src: a/core, dst: a/core, type: requires}
`)
	w := doRequest(t, router, http.MethodPost, "/v1/admin/seed", bad, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, CodeInvalidSeed, errResp.Code)

	// Existing data untouched.
	full := doRequest(t, router, http.MethodGet, "/v1/graph", nil, nil)
	require.Equal(t, http.StatusOK, full.Code)
	var payload graphPayload
	require.NoError(t, json.Unmarshal(full.Body.Bytes(), &payload))
	assert.Len(t, payload.AbstractNodes, 36)
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/v1/graph/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodGet, "/v1/graph/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
