// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
)

const corridor = "#R\\L#"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Search.Budget.MaxIterations = 5
	cfg.Search.Observability.TracingEnabled = false
	cfg.SolveRate = 100
	cfg.SolveBurst = 100
	return cfg
}

func newTestServer(t *testing.T, cfg Config, opts ...Option) *Server {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	return s
}

func postSolve(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/lifter/solve", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	return w
}

// ==============================================================================
// Route Tests
// ==============================================================================

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lifter/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// ==============================================================================
// Solve Tests
// ==============================================================================

func TestSolve_Corridor(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := postSolve(t, s, SolveRequest{Map: corridor, Seed: 1, TimeLimitMS: 5000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Moves       string `json:"moves"`
		Score       int    `json:"score"`
		Outcome     string `json:"outcome"`
		Fingerprint string `json:"fingerprint"`
		Seed        int64  `json:"seed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RR", resp.Moves)
	assert.Equal(t, 73, resp.Score)
	assert.Equal(t, "exited", resp.Outcome)
	assert.Len(t, resp.Fingerprint, 64)
	assert.Equal(t, int64(1), resp.Seed)
}

func TestSolve_BadRequests(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/lifter/solve", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postSolve(t, s, map[string]any{"name": "no map"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postSolve(t, s, SolveRequest{Map: corridor, Name: "../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "bad name")

	w = postSolve(t, s, SolveRequest{Map: "#  #"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "no robot")
}

func TestSolve_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.SolveRate = 0
	cfg.SolveBurst = 1
	s := newTestServer(t, cfg)

	w := postSolve(t, s, SolveRequest{Map: corridor, Seed: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = postSolve(t, s, SolveRequest{Map: corridor, Seed: 2})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSolve_Archives(t *testing.T) {
	a, err := archive.Open(archive.InMemoryConfig())
	require.NoError(t, err)
	defer a.Close()
	s := newTestServer(t, testConfig(), WithArchive(a))

	w := postSolve(t, s, SolveRequest{Map: corridor, Name: "corridor", Seed: 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Best)
	assert.Equal(t, "corridor", resp.Best.Name)
	assert.Equal(t, 73, resp.Best.Score)

	recs, err := a.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, resp.Fingerprint, recs[0].Fingerprint)
}

func TestTimeLimit(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Equal(t, s.config.DefaultTimeLimit, s.timeLimit(0))
	assert.Equal(t, 250*time.Millisecond, s.timeLimit(250))
	assert.Equal(t, s.config.MaxTimeLimit, s.timeLimit(int64(time.Hour/time.Millisecond)))
}

// ==============================================================================
// Replay Websocket Tests
// ==============================================================================

func dialReplay(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/lifter/replay"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	return ws
}

func TestReplay_Session(t *testing.T) {
	ws := dialReplay(t, newTestServer(t, testConfig()))

	require.NoError(t, ws.WriteJSON(ReplayRequest{Map: corridor}))

	var msg ReplayMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionSessionCreated, msg.Action)
	assert.NotEmpty(t, msg.SessionID)
	assert.Contains(t, string(msg.Config), `"growth":25`)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, "running", msg.Frame.Outcome)

	require.NoError(t, ws.WriteJSON(ReplayRequest{Commands: "R"}))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionFrame, msg.Action)
	assert.Equal(t, 24, msg.Frame.Score)

	require.NoError(t, ws.WriteJSON(ReplayRequest{Commands: "R\nL"}))
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionFrame, msg.Action)
	assert.True(t, msg.Frame.Ended)

	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionEnded, msg.Action)
	assert.Equal(t, 73, msg.Frame.Score)
	assert.Equal(t, "RR", msg.Frame.Moves)
}

func TestReplay_CommandsWithMap(t *testing.T) {
	ws := dialReplay(t, newTestServer(t, testConfig()))

	require.NoError(t, ws.WriteJSON(ReplayRequest{Map: corridor, Commands: "A"}))

	var msg ReplayMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionSessionCreated, msg.Action)
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionFrame, msg.Action)
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionEnded, msg.Action)
	assert.Equal(t, "aborted", msg.Frame.Outcome)
}

func TestReplay_BadMap(t *testing.T) {
	ws := dialReplay(t, newTestServer(t, testConfig()))

	require.NoError(t, ws.WriteJSON(ReplayRequest{Map: "####"}))

	var msg ReplayMessage
	require.NoError(t, ws.ReadJSON(&msg))
	assert.Equal(t, actionError, msg.Action)
	assert.NotEmpty(t, msg.Error)
}
