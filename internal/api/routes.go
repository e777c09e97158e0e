// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers every /v1/testscope/* endpoint with rg, mirroring
// the CLI command table (spec.md §6) one-for-one and grounded on the
// teacher's router-group registration style (services/trace/routes.go
// "func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers)").
//
// Endpoints:
//
//	POST /v1/testscope/analyze       - run C2/C3 over a facts document
//	GET  /v1/testscope/select        - run C5 against the last analysis
//	POST /v1/testscope/mark-verified - update the verified baseline
//	GET  /v1/testscope/status        - report cache existence and size
//	POST /v1/testscope/clear         - remove cached snapshots
//	GET  /v1/testscope/callers       - direct callers of a symbol
//	GET  /v1/testscope/callees       - direct callees of a symbol
//	GET  /v1/testscope/watch/ws      - streamed re-select cycles
//	GET  /v1/testscope/health        - liveness check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, ws *WatchStream) {
	ts := rg.Group("/testscope")
	{
		ts.POST("/analyze", handlers.HandleAnalyze)
		ts.GET("/select", handlers.HandleSelect)
		ts.POST("/mark-verified", handlers.HandleMarkVerified)
		ts.GET("/status", handlers.HandleStatus)
		ts.POST("/clear", handlers.HandleClear)
		ts.GET("/callers", handlers.HandleCallers)
		ts.GET("/callees", handlers.HandleCallees)
		ts.GET("/health", handleHealth)
		if ws != nil {
			ts.GET("/watch/ws", ws.Handle)
		}
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
