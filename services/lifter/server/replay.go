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
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/replay"
)

// Replay actions sent by the server.
const (
	actionSessionCreated = "session_created"
	actionFrame          = "frame"
	actionEnded          = "ended"
	actionError          = "error"
)

// ReplayRequest is a client message on the replay websocket. The first
// message must carry Map; later messages carry Commands.
type ReplayRequest struct {
	Map      string `json:"map,omitempty"`
	Commands string `json:"commands,omitempty"`
}

// ReplayMessage is a server message on the replay websocket.
type ReplayMessage struct {
	Action    string          `json:"action"`
	SessionID string          `json:"session_id,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Frame     *replay.Frame   `json:"frame,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
}

func (s *Server) handleReplay(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade the websocket", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	s.metrics.ReplaySessions.Add(ctx, 1)
	defer s.metrics.ReplaySessions.Add(ctx, -1)

	sessionID := uuid.NewString()
	logger := s.logger.With(slog.String("session_id", sessionID))

	var first ReplayRequest
	if err := ws.ReadJSON(&first); err != nil {
		logger.Info("replay client left before sending a map", slog.String("error", err.Error()))
		return
	}
	b, err := board.Parse(first.Map)
	if err != nil {
		_ = ws.WriteJSON(ReplayMessage{Action: actionError, Error: err.Error()})
		return
	}

	session := replay.NewSession(b)
	header, err := session.Header()
	if err != nil {
		_ = ws.WriteJSON(ReplayMessage{Action: actionError, Error: err.Error()})
		return
	}
	current := session.Current()
	if err := ws.WriteJSON(ReplayMessage{
		Action:    actionSessionCreated,
		SessionID: sessionID,
		Config:    json.RawMessage(header),
		Frame:     &current,
	}); err != nil {
		return
	}
	logger.Info("replay session started")

	pending := first.Commands
	for {
		for _, f := range session.Apply(pending) {
			if err := ws.WriteJSON(ReplayMessage{Action: actionFrame, Frame: &f}); err != nil {
				return
			}
		}
		if session.Ended() {
			final := session.Current()
			_ = ws.WriteJSON(ReplayMessage{Action: actionEnded, Frame: &final})
			logger.Info("replay session ended",
				slog.String("outcome", final.Outcome),
				slog.Int("score", final.Score),
			)
			return
		}

		var req ReplayRequest
		if err := ws.ReadJSON(&req); err != nil {
			logger.Info("replay client disconnected", slog.String("error", err.Error()))
			return
		}
		pending = req.Commands
	}
}
