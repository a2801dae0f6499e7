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
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/skillgraph/services/curriculum/graph"
)

// Handlers holds the HTTP handlers for the curriculum graph service.
type Handlers struct {
	service *Service
	logger  *slog.Logger
}

// NewHandlers creates handlers over a service.
func NewHandlers(service *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger}
}

// HandleFullGraph serves GET /v1/graph: the entire curriculum in one
// payload.
func (h *Handlers) HandleFullGraph(c *gin.Context) {
	resp, err := h.service.FullGraph(c.Request.Context())
	if err != nil {
		h.internalError(c, "building full graph", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleFocusGraph serves GET /v1/graph/focus/:id.
//
// Description:
//
//	Returns the scoped view for one focus node. Responses carry an ETag;
//	a request whose If-None-Match matches gets 304 with no body. An
//	unparseable id is 400 INVALID_ID, an unknown id 404 NOT_FOUND.
func (h *Handlers) HandleFocusGraph(c *gin.Context) {
	focusID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "focus id must be a UUID",
			Code:  CodeInvalidID,
		})
		return
	}

	body, etag, err := h.service.FocusGraph(c.Request.Context(), focusID)
	if err != nil {
		if IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "focus node not found",
				Code:  CodeNotFound,
			})
			return
		}
		h.internalError(c, "building focus graph", err)
		return
	}
	writeFocusPayload(c, body, etag)
}

// HandleFocusGraphBySlug serves GET /v1/graph/focus/slug/:slug: the same
// payload as HandleFocusGraph, addressed by slug instead of id.
func (h *Handlers) HandleFocusGraphBySlug(c *gin.Context) {
	body, etag, err := h.service.FocusGraphBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: "focus node not found",
				Code:  CodeNotFound,
			})
			return
		}
		h.internalError(c, "building focus graph by slug", err)
		return
	}
	writeFocusPayload(c, body, etag)
}

// writeFocusPayload writes a focus body with its ETag, honoring
// If-None-Match with 304.
func writeFocusPayload(c *gin.Context, body []byte, etag string) {
	quoted := `"` + etag + `"`
	c.Header("ETag", quoted)
	if match := c.GetHeader("If-None-Match"); match != "" && match == quoted {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// HandleCreateEdge serves POST /v1/graph/edges.
//
// Description:
//
//	Commits one implementation edge. Requires edges are cycle-checked
//	against the committed requires DAG; a rejected insert commits
//	nothing. 201 on success, 409 CYCLE_REJECTED / DUPLICATE_EDGE on
//	conflict.
func (h *Handlers) HandleCreateEdge(c *gin.Context) {
	var req CreateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}

	e, err := h.service.InsertEdge(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, graph.ErrCycle), errors.Is(err, graph.ErrSelfLoop):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "edge would create a cycle in the requires graph",
				Code:  CodeCycleRejected,
			})
		case errors.Is(err, graph.ErrDuplicateEdge):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error: "an edge with this source, destination, and type already exists",
				Code:  CodeDuplicateEdge,
			})
		default:
			h.internalError(c, "inserting edge", err)
		}
		return
	}

	c.JSON(http.StatusCreated, CreateEdgeResponse{
		ID:        e.ID,
		SrcImplID: e.SrcImplID,
		DstImplID: e.DstImplID,
		Type:      string(e.Type),
		Rank:      e.Rank,
	})
}

// HandleSeed serves POST /v1/admin/seed.
//
// Description:
//
//	Replaces the dataset. A YAML document in the body is loaded as-is;
//	an empty body loads the embedded default curriculum. Invalid
//	documents (bad references, requires cycles) are rejected whole and
//	leave the current data untouched.
func (h *Handlers) HandleSeed(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "reading request body: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}

	counts, err := h.service.Seed(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  CodeInvalidSeed,
		})
		return
	}
	c.JSON(http.StatusOK, SeedResponse{Status: "seeded", Counts: counts})
}

// HandleHealth serves GET /v1/graph/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "curriculum"})
}

// HandleReady serves GET /v1/graph/ready: 503 until storage answers.
func (h *Handlers) HandleReady(c *gin.Context) {
	if err := h.service.Ready(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:  "unavailable",
			Service: "curriculum",
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ready", Service: "curriculum"})
}

func (h *Handlers) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op+" failed",
		slog.String("path", c.FullPath()),
		slog.Any("error", err),
	)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal error",
		Code:  CodeInternal,
	})
}
