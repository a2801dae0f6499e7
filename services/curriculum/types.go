// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package curriculum exposes the curriculum knowledge graph over HTTP: the
// full-graph and focus read shapes, cycle-checked edge authoring, and
// dataset seeding.
package curriculum

import (
	"github.com/google/uuid"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Machine-readable error codes.
const (
	CodeInvalidID      = "INVALID_ID"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeCycleRejected  = "CYCLE_REJECTED"
	CodeDuplicateEdge  = "DUPLICATE_EDGE"
	CodeInvalidSeed    = "INVALID_SEED"
	CodeInternal       = "INTERNAL"
)

// CreateEdgeRequest is the body of POST /v1/graph/edges.
type CreateEdgeRequest struct {
	SrcImplID string `json:"src_impl_id" binding:"required,uuid"`
	DstImplID string `json:"dst_impl_id" binding:"required,uuid"`
	Type      string `json:"type" binding:"required,oneof=requires recommended"`

	// Rank orders recommended edges; ignored for requires edges.
	Rank *int `json:"rank,omitempty" binding:"omitempty,min=0"`
}

// CreateEdgeResponse echoes the committed edge.
type CreateEdgeResponse struct {
	ID        uuid.UUID `json:"id"`
	SrcImplID uuid.UUID `json:"src_impl_id"`
	DstImplID uuid.UUID `json:"dst_impl_id"`
	Type      string    `json:"type"`
	Rank      *int      `json:"rank,omitempty"`
}

// SeedResponse reports what a reseed loaded.
type SeedResponse struct {
	Status string         `json:"status"`
	Counts map[string]int `json:"counts"`
}

// HealthResponse is the health/readiness payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
