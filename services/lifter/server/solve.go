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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianLifter/pkg/validation"
	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
)

// SolveRequest is the body of POST /v1/lifter/solve.
type SolveRequest struct {
	// Map is the board text: grid, blank line, metadata.
	Map string `json:"map" binding:"required"`

	// Name labels the archived solution.
	Name string `json:"name"`

	// TimeLimitMS bounds the solve. 0 uses the server default.
	TimeLimitMS int64 `json:"time_limit_ms" binding:"gte=0"`

	// Seed makes the solve reproducible. 0 picks one from the clock.
	Seed int64 `json:"seed"`
}

// SolveResponse is the reply to a solve.
type SolveResponse struct {
	*search.Result

	Fingerprint string `json:"fingerprint"`

	// Shared is true when an identical in-flight solve answered the request.
	Shared bool `json:"shared"`

	// Best is the archived best solution for this map, when archiving.
	Best *archive.Record `json:"best,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := validation.ValidateMineName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	b, err := board.Parse(req.Map)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	limit := s.timeLimit(req.TimeLimitMS)
	fingerprint := archive.Fingerprint(b)
	key := fmt.Sprintf("%s/%d/%d", fingerprint, limit, req.Seed)
	ctx := c.Request.Context()

	// Coalesced requests skip the limiter; only the leader starts a solve.
	v, err, shared := s.flight.Do(key, func() (any, error) {
		if !s.limiter.Allow() {
			return nil, errRateLimited
		}
		// Detached so one caller leaving does not cut the solve short for
		// the others waiting on it.
		solveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), limit+5*time.Second)
		defer cancel()
		return s.solve(solveCtx, b, limit, req.Seed)
	})
	if shared {
		s.metrics.SolvesCoalescedTotal.Add(ctx, 1)
	}
	switch {
	case errors.Is(err, errRateLimited):
		s.metrics.SolvesRejectedTotal.Add(ctx, 1)
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("solve failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	res := v.(*search.Result)
	resp := SolveResponse{Result: res, Fingerprint: fingerprint, Shared: shared}
	if s.archive != nil {
		best, _, err := s.archive.Keep(ctx, archive.Record{
			Fingerprint: fingerprint,
			Name:        req.Name,
			Moves:       res.Moves,
			Score:       res.Score,
			Outcome:     res.OutcomeStr,
			RunID:       res.RunID,
			Seed:        res.Seed,
			SolvedAt:    time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn("archive solution", slog.String("error", err.Error()))
		} else {
			resp.Best = &best
		}
	}
	c.JSON(http.StatusOK, resp)
}

var errRateLimited = errors.New("solve rate limit exceeded")

func (s *Server) timeLimit(ms int64) time.Duration {
	limit := time.Duration(ms) * time.Millisecond
	if limit <= 0 {
		limit = s.config.DefaultTimeLimit
	}
	if s.config.MaxTimeLimit > 0 && limit > s.config.MaxTimeLimit {
		limit = s.config.MaxTimeLimit
	}
	return limit
}

func (s *Server) solve(ctx context.Context, b board.Board, limit time.Duration, seed int64) (*search.Result, error) {
	cfg := s.SearchConfig()
	cfg.Budget.TimeLimit = limit
	cfg.Search.Seed = seed

	return search.NewSolver(b, cfg, search.WithLogger(s.logger)).Run(ctx)
}
