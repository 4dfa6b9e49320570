// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

func testConfig(iterations int) FullConfig {
	cfg := DefaultFullConfig()
	cfg.Budget = BudgetConfig{TimeLimit: 10 * time.Second, MaxIterations: iterations}
	cfg.Search.Seed = 1
	cfg.Observability.TracingEnabled = false
	return cfg
}

// ==============================================================================
// Run Tests
// ==============================================================================

func TestRun_SolvesCorridor(t *testing.T) {
	s := NewSolver(mustParse(t, "#R\\L#"), testConfig(5))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RR", res.Moves)
	assert.Equal(t, 73, res.Score)
	assert.Equal(t, board.Exited, res.Outcome)
	assert.Equal(t, "exited", res.OutcomeStr)
	assert.Equal(t, StopBudget, res.StopReason)
	assert.Equal(t, "iterations", res.ExhaustedBy)
	assert.Equal(t, int64(5), res.Iterations)
	assert.Equal(t, int64(1), res.Seed)
	assert.Equal(t, s.RunID(), res.RunID)
	assert.NotNil(t, s.Tree())
}

func TestRun_CancelledAbortsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSolver(mustParse(t, "#R\\L#"), testConfig(0)).Run(ctx)
	require.NoError(t, err, "cancellation is not an error")
	assert.Equal(t, StopCancelled, res.StopReason)
	assert.Empty(t, res.ExhaustedBy)
	assert.Equal(t, "A", res.Moves)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, board.Aborted, res.Outcome)
}

func TestRun_NodeBudgetNamesLimit(t *testing.T) {
	cfg := testConfig(0)
	cfg.Budget.MaxNodes = 3

	res, err := NewSolver(mustParse(t, openRoom), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopBudget, res.StopReason)
	assert.Equal(t, "nodes", res.ExhaustedBy)
	assert.GreaterOrEqual(t, res.Nodes, int64(3))
}

func TestRun_FrontierEmpty(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := NewSolver(mustParse(t, "#R#"), testConfig(0)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopFrontierEmpty, res.StopReason)
	assert.Equal(t, "A", res.Moves)
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *Result {
		res, err := NewSolver(mustParse(t, openRoom), testConfig(6), WithRunID("fixed")).Run(context.Background())
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Moves, b.Moves)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Nodes, b.Nodes)
	assert.Equal(t, "fixed", a.RunID)
}

func TestRun_ImprovesOnOpenRoom(t *testing.T) {
	res, err := NewSolver(mustParse(t, openRoom), testConfig(40)).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.Score, 0, "at least one lambda banked")

	b := mustParse(t, openRoom)
	for i := 0; i < len(res.Moves); i++ {
		cmd, err := board.ParseCommand(res.Moves[i])
		require.NoError(t, err)
		b = b.PlayerAction(cmd)
	}
	assert.True(t, b.Ended())
	assert.Equal(t, res.Score, b.Score(), "moves replay to the reported score")
}

func TestRun_ChopsLargeFrontier(t *testing.T) {
	cfg := testConfig(3)
	cfg.Search.FrontierLimit = 2
	cfg.Search.ShrinkTo = 1

	before := testutil.ToFloat64(chopsTotal)
	_, err := NewSolver(mustParse(t, openRoom), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, testutil.ToFloat64(chopsTotal), before)
}

func TestRun_MetricsDisabled(t *testing.T) {
	cfg := testConfig(3)
	cfg.Search.FrontierLimit = 2
	cfg.Search.ShrinkTo = 1
	cfg.Observability.MetricsEnabled = false

	before := testutil.ToFloat64(chopsTotal)
	_, err := NewSolver(mustParse(t, openRoom), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, testutil.ToFloat64(chopsTotal))
}

// ==============================================================================
// Guard Tests
// ==============================================================================

func TestGuard(t *testing.T) {
	assert.NoError(t, guard(func() {}))

	err := guard(func() {
		panic(fmt.Errorf("update (9,9): %w", quadtree.ErrOutsideLeaf))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, errors.Is(err, quadtree.ErrOutsideLeaf))

	err = guard(func() { panic("boom") })
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "boom")
}
