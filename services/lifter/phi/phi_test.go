// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package phi

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// ==============================================================================
// Test Fixtures
// ==============================================================================

type subject struct {
	b     board.Board
	depth int
}

func (s subject) Board() board.Board { return s.b }
func (s subject) Depth() int         { return s.depth }

// horockMine has a higher-order rock but no lambdas, so its lift is closed.
const horockMine = "#######\n#L R  #\n#   @ #\n#     #\n#######"

func mustParse(t *testing.T, text string) board.Board {
	t.Helper()
	b, err := board.Parse(text)
	require.NoError(t, err)
	return b
}

// steady returns an evaluator with the random term disabled.
func steady() *Evaluator {
	w := DefaultWeights()
	w.Random = 0
	return NewEvaluator(WithWeights(w))
}

// ==============================================================================
// Calculate Tests
// ==============================================================================

func TestCalculate_SeededIsReproducible(t *testing.T) {
	b := mustParse(t, "#R  \\#")

	a := NewEvaluator(WithRand(rand.New(rand.NewSource(5))))
	c := NewEvaluator(WithRand(rand.New(rand.NewSource(5))))
	for depth := 0; depth < 10; depth++ {
		assert.Equal(t, a.Calculate(subject{b, depth}), c.Calculate(subject{b, depth}))
	}
}

func TestCalculate_GravityPrefersCloseLambdas(t *testing.T) {
	e := steady()
	near := mustParse(t, "#R\\    #")
	far := mustParse(t, "#R    \\#")

	assert.Greater(t, e.Calculate(subject{near, 0}), e.Calculate(subject{far, 0}))
	assert.InDelta(t, 1.0, e.Calculate(subject{near, 0}), 1e-9)
	assert.InDelta(t, 1.0/25, e.Calculate(subject{far, 0}), 1e-9)
}

func TestCalculate_GravityTargetsLiftWhenDone(t *testing.T) {
	e := steady()
	b := mustParse(t, "#R L#")

	assert.InDelta(t, 0.25, e.Calculate(subject{b, 0}), 1e-9)
}

func TestCalculate_GravityTargetsHigherOrderRocks(t *testing.T) {
	e := steady()
	// No lambdas, one higher-order rock a diagonal step away, closed lift
	// two steps away. The rock pulls at 1/2, the lift would pull at 1/4.
	b := mustParse(t, horockMine)
	require.Empty(t, b.Lambdas())
	require.Equal(t, 1, b.Remaining())

	assert.InDelta(t, 0.5, e.Calculate(subject{b, 0}), 1e-9)
}

func TestCalculate_DepthDecay(t *testing.T) {
	e := steady()
	b := mustParse(t, "#R\\#")

	at0 := e.Calculate(subject{b, 0})
	at40 := e.Calculate(subject{b, 40})
	assert.InDelta(t, at0*math.Ln2/math.Log(3), at40, 1e-9)
}

func TestCalculate_ScoreTerm(t *testing.T) {
	e := steady()
	b := mustParse(t, "#R\\\\ #")
	assert.InDelta(t, 1.25, e.Calculate(subject{b, 0}), 1e-9)

	moved := b.PlayerAction(board.Right).Step()
	require.Equal(t, 24, moved.Score())

	// One adjacent lambda left plus 24 of 150 points.
	want := 1 + DefaultWeights().Score*24.0/150.0
	assert.InDelta(t, want, e.Calculate(subject{moved, 0}), 1e-9)
}

func TestCalculate_SurfaceUrgency(t *testing.T) {
	text := "#####\n#   #\n#R\\ #\n#####\n\nWater 2"
	b := mustParse(t, text)
	require.True(t, b.Underwater(quadtree.Pt(1, 2)))

	with := steady()
	w := DefaultWeights()
	w.Random, w.Water = 0, 0
	without := NewEvaluator(WithWeights(w))

	diff := with.Calculate(subject{b, 0}) - without.Calculate(subject{b, 0})
	assert.InDelta(t, DefaultWeights().Water*surfaceUrgency, diff, 1e-9)

	dry := mustParse(t, "#####\n#   #\n#R\\ #\n#####")
	assert.InDelta(t, with.Calculate(subject{dry, 0}), without.Calculate(subject{dry, 0}), 1e-9)
}

func TestCalculate_RandomTermDecays(t *testing.T) {
	w := DefaultWeights()
	w.Score, w.Water = 0, 0
	b := mustParse(t, "#R\\#")
	base := steady().Calculate(subject{b, 200})

	e := NewEvaluator(WithWeights(w), WithRand(rand.New(rand.NewSource(9))))
	v := e.Calculate(subject{b, 200})
	d := math.Ln2 / math.Log(2+200.0/40)
	assert.GreaterOrEqual(t, v, base)
	assert.Less(t, v-base, w.Random*d/(200*math.E+1))
}

// ==============================================================================
// BestMoves Tests
// ==============================================================================

func TestBestMoves_AroundRock(t *testing.T) {
	b := mustParse(t, "#####\n#R*\\#\n#...#\n#####")

	got := NewEvaluator().BestMoves(b)
	require.Len(t, got, 1)
	assert.Equal(t, board.Down, got[0].Command)
	assert.Equal(t, quadtree.Pt(3, 1), got[0].Goal)
	assert.Equal(t, 4, got[0].Steps)
}

func TestBestMoves_OnePerCommand(t *testing.T) {
	b := mustParse(t, "#R \\ \\#")

	got := NewEvaluator().BestMoves(b)
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{Command: board.Right, Goal: quadtree.Pt(3, 0), Steps: 2}, got[0])
}

func TestBestMoves_SeveralDirections(t *testing.T) {
	b := mustParse(t, "#\\R\\#\n#   #\n#####")

	got := NewEvaluator().BestMoves(b)
	require.Len(t, got, 2)
	cmds := []board.Command{got[0].Command, got[1].Command}
	assert.ElementsMatch(t, []board.Command{board.Left, board.Right}, cmds)
}

func TestBestMoves_ExitWhenDone(t *testing.T) {
	got := NewEvaluator().BestMoves(mustParse(t, "#R  L#"))
	require.Len(t, got, 1)
	assert.Equal(t, board.Right, got[0].Command)
	assert.Equal(t, 3, got[0].Steps)
}

func TestBestMoves_TargetsHigherOrderRock(t *testing.T) {
	b := mustParse(t, horockMine)
	require.False(t, b.LiftOpen())

	got := NewEvaluator().BestMoves(b)
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{Command: board.Right, Goal: quadtree.Pt(4, 2), Steps: 2}, got[0])
}

func TestBestMoves_Unreachable(t *testing.T) {
	b := mustParse(t, "#R#\\#")
	assert.Empty(t, NewEvaluator().BestMoves(b))

	walled := mustParse(t, "#RW\\#")
	assert.Empty(t, NewEvaluator().BestMoves(walled))
}

func TestBestMoves_NearestLimit(t *testing.T) {
	w := DefaultWeights()
	w.Nearest = 1
	b := mustParse(t, "#\\ R  \\#")

	got := NewEvaluator(WithWeights(w)).BestMoves(b)
	require.Len(t, got, 1)
	assert.Equal(t, board.Left, got[0].Command)
}
