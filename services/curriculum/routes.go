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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all curriculum graph routes with the router.
//
// Description:
//
//	Registers the /v1/graph/* and /v1/admin/* endpoints with the given
//	Gin router group. The group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	GET  /v1/graph - Full graph payload
//	GET  /v1/graph/focus/:id - Focused view for one node (ETag/304)
//	GET  /v1/graph/focus/slug/:slug - The same view, addressed by slug
//	POST /v1/graph/edges - Author an implementation edge
//	GET  /v1/graph/health - Health check
//	GET  /v1/graph/ready - Readiness check
//	POST /v1/admin/seed - Replace the dataset (empty body = default)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	g := rg.Group("/graph")
	{
		g.GET("", handlers.HandleFullGraph)
		g.GET("/focus/:id", handlers.HandleFocusGraph)
		g.GET("/focus/slug/:slug", handlers.HandleFocusGraphBySlug)
		g.POST("/edges", handlers.HandleCreateEdge)

		g.GET("/health", handlers.HandleHealth)
		g.GET("/ready", handlers.HandleReady)
	}

	admin := rg.Group("/admin")
	{
		admin.POST("/seed", handlers.HandleSeed)
	}
}
