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
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/watch"
)

// WatchStream exposes internal/watch's re-select loop over a websocket, one
// frame per cycle, so a remote client (e.g. an editor plugin) can render
// selection updates live instead of polling GET /select. Serialize is
// shared with Handlers so this loop never races a concurrent HTTP request
// against the same Engine.
type WatchStream struct {
	Engine         *engine.Engine
	AnalyzerConfig facts.AnalyzerConfig
	Paths          []string
	FactsPath      string
	Logger         *slog.Logger
	Serialize      *sync.RWMutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin is permissive: testscope's watch stream is meant to be
	// bound to localhost during development, not exposed across origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and streams watch.Cycle frames as JSON text
// messages until the connection closes or the request context ends.
func (s *WatchStream) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger().Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Drain incoming frames on a goroutine purely to notice the client
	// going away; testscope's watch stream is server-to-client only.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = watch.Run(ctx, s.Engine, watch.Options{
		Paths:          s.Paths,
		FactsPath:      s.FactsPath,
		AnalyzerConfig: s.AnalyzerConfig,
		Logger:         s.Logger,
		Serialize:      s.Serialize,
	}, func(cycle watch.Cycle) {
		var payload any
		if cycle.Err != nil {
			payload = ErrorResponse{Error: cycle.Err.Error(), Code: "WATCH_CYCLE_FAILED"}
		} else {
			payload = toSelectResponse(cycle.Selection)
		}
		if writeErr := conn.WriteJSON(payload); writeErr != nil {
			s.logger().Debug("websocket write failed, dropping client", "error", writeErr)
		}
	})
	if err != nil {
		s.logger().Warn("watch stream ended with an error", "error", err)
	}
}

func (s *WatchStream) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
