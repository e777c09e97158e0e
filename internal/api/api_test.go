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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aleutianlabs/testscope/internal/cache"
	"github.com/aleutianlabs/testscope/internal/engine"
	"github.com/aleutianlabs/testscope/internal/facts"
	"github.com/aleutianlabs/testscope/internal/symgraph"
)

func newTestRouter(t *testing.T) (*gin.Engine, *engine.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := cache.Open("", cache.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	dir := t.TempDir()
	e := engine.New(dir, c, symgraph.NewBuilder(), 0, nil)

	router := NewRouter(e, Options{Paths: []string{dir}, RateLimit: 1000, Burst: 1000})
	return router, e, dir
}

func TestHandleAnalyzeThenSelect(t *testing.T) {
	router, _, dir := newTestRouter(t)

	file := filepath.Join(dir, "core.clj")
	require.NoError(t, os.WriteFile(file, []byte("(ns app.core)\n(defn handler [] 1)\n"), 0o644))

	f := &facts.Facts{
		Namespaces:  []facts.NamespaceDef{{Namespace: "app.core", File: file, StartLine: 1, EndLine: 1}},
		Definitions: []facts.VarDef{{Namespace: "app.core", Name: "handler", File: file, StartLine: 2, EndLine: 2}},
	}
	body, err := json.Marshal(AnalyzeRequest{Facts: f})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/testscope/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	selReq := httptest.NewRequest(http.MethodGet, "/v1/testscope/select", nil)
	selRec := httptest.NewRecorder()
	router.ServeHTTP(selRec, selReq)
	require.Equal(t, http.StatusOK, selRec.Code)

	var sel SelectResponse
	require.NoError(t, json.Unmarshal(selRec.Body.Bytes(), &sel))
	require.Equal(t, 0, sel.TotalTests)
}

func TestHandleAnalyze_MissingRequiredFacts(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/testscope/analyze", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus_ReportsAbsentSnapshots(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/testscope/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var st StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	require.False(t, st.Analysis.Exists)
	require.False(t, st.Baseline.Exists)
}

func TestHandleMarkVerified_RejectsMalformedSymbol(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body, err := json.Marshal(MarkVerifiedRequest{Tests: []string{"not-a-symbol"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/testscope/mark-verified", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/testscope/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
