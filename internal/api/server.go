// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api exposes testscope's engine over HTTP (spec.md §6 "serve"),
// one endpoint per CLI command plus a websocket selection stream, grounded
// on the teacher's gin router-group registration style
// (services/trace/routes.go).
package api

import (
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
)

// Options configures the HTTP server.
type Options struct {
	AnalyzerConfig facts.AnalyzerConfig
	Paths          []string
	FactsPath      string

	// RateLimit is the sustained requests/sec the shared limiter allows;
	// zero selects a default of 10/sec with a burst of 20.
	RateLimit float64
	Burst     int

	Logger *slog.Logger
}

// NewRouter builds the gin engine backing the testscope HTTP API.
func NewRouter(e *engine.Engine, opts Options) *gin.Engine {
	registerFQSValidator()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rateLimit := opts.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 20
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimit), burst)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("testscope"))
	router.Use(requestIDMiddleware())
	router.Use(rateLimitMiddleware(limiter))

	var mu sync.RWMutex
	handlers := NewHandlers(e, opts.AnalyzerConfig, opts.Paths, logger, &mu)
	stream := &WatchStream{
		Engine:         e,
		AnalyzerConfig: opts.AnalyzerConfig,
		Paths:          opts.Paths,
		FactsPath:      opts.FactsPath,
		Logger:         logger,
		Serialize:      &mu,
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers, stream)

	return router
}
