// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==============================================================================
// Gravity Tests
// ==============================================================================

func TestStep_WaitScenario(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"supported rock stays", "#R*\n#.#\n###", "#R*\n#.#\n###"},
		{"unsupported rock falls", "#R*\n#. \n###", "#R \n#.*\n###"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustParse(t, tt.in)
			next := b.PlayerAction(Wait).Step()
			assert.Equal(t, tt.want, grid(next))
			assert.False(t, next.Ended())
		})
	}
}

func TestStep_RockFallsOneRow(t *testing.T) {
	b := mustParse(t, "R*\n  \n  ")

	next := b.Step()
	assert.Equal(t, "R \n *\n  ", grid(next))
	assert.Equal(t, next.Iteration(), next.Revision())
	assert.Equal(t, "R*\n  \n  ", grid(b), "receiver must be untouched")
}

func TestStep_Slides(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "right off a rock",
			in:   "#* R#\n#*  #\n#####",
			want: "#  R#\n#** #\n#####",
		},
		{
			name: "right off a lambda",
			in:   "#* R#\n#\\  #\n#####",
			want: "#  R#\n#\\* #\n#####",
		},
		{
			name: "left off a rock when right is blocked",
			in:   "#R *#\n#  *#\n#####",
			want: "#R  #\n# **#\n#####",
		},
		{
			name: "no left slide off a lambda",
			in:   "#R *#\n#  \\#\n#####",
			want: "#R *#\n#  \\#\n#####",
		},
		{
			name: "rock on a wall stays",
			in:   "#R* #\n#####",
			want: "#R* #\n#####",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, grid(mustParse(t, tt.in).Step()))
		})
	}
}

func TestStep_ProcessesBottomUp(t *testing.T) {
	// The lower rock reads the pre-step grid, so the upper one sees it
	// still in place and does not fall into the gap it leaves.
	b := mustParse(t, "#R*#\n# *#\n#  #\n####")

	next := b.Step()
	assert.Equal(t, "#R*#\n#  #\n# *#\n####", grid(next))
}

func TestStep_HigherOrderRockBecomesLambda(t *testing.T) {
	b := mustParse(t, "#@#R\n# ##\n####")
	require.Equal(t, 1, b.Remaining())

	next := b.Step()
	assert.Equal(t, "# #R\n#\\##\n####", grid(next))
	assert.Len(t, next.Lambdas(), 1)
	assert.Empty(t, next.HORocks())
}

func TestStep_HigherOrderRockInFlight(t *testing.T) {
	b := mustParse(t, "#@#R\n# ##\n# ##\n####")

	next := b.Step()
	assert.Equal(t, "# #R\n#@##\n# ##\n####", grid(next))
}

func TestStep_Crush(t *testing.T) {
	b := mustParse(t, "#*#\n# #\n#R#")

	next := b.Step()
	assert.True(t, next.Ended())
	assert.Equal(t, Crushed, next.Outcome())
}

func TestStep_RestingRockDoesNotCrush(t *testing.T) {
	b := mustParse(t, "#*#\n#R#\n###")

	next := b.Step()
	assert.False(t, next.Ended())
}

func TestStep_OpensLiftWhenNothingRemains(t *testing.T) {
	b := mustParse(t, "#R L#")
	require.False(t, b.LiftOpen())

	next := b.Step()
	assert.True(t, next.LiftOpen())
	assert.Equal(t, "#R O#", grid(next))
}

func TestStep_EndedBoardIsUnchanged(t *testing.T) {
	b := mustParse(t, "#R*\n#. \n###").PlayerAction(Abort)
	require.True(t, b.Ended())

	next := b.Step()
	assert.Equal(t, b.Iteration(), next.Iteration())
	assert.Same(t, b.Tiles(), next.Tiles())
}

// ==============================================================================
// Beard Tests
// ==============================================================================

func TestStep_BeardGrowth(t *testing.T) {
	b := mustParse(t, "#####\n#R  #\n#  W#\n#####\n\nGrowth 2")

	once := b.Step()
	assert.Equal(t, grid(b), grid(once), "counter not yet run out")
	assert.Equal(t, 1, once.Growth())

	twice := once.Step()
	assert.Equal(t, "#####\n#RWW#\n# WW#\n#####", grid(twice))
	assert.Equal(t, 2, twice.Growth())
}

// ==============================================================================
// Water Tests
// ==============================================================================

func TestStep_Drowning(t *testing.T) {
	b := mustParse(t, "#####\n#   #\n#R  #\n#####\n\nWater 2\nWaterproof 2")
	require.Equal(t, 2, b.WaterLevel())

	b = play(b, "WW")
	assert.Equal(t, 0, b.RobotLife())
	assert.False(t, b.Ended())

	b = play(b, "W")
	assert.True(t, b.Ended())
	assert.Equal(t, Drowned, b.Outcome())
}

func TestStep_SurfacingRestoresLife(t *testing.T) {
	b := mustParse(t, "#####\n#   #\n#R  #\n#####\n\nWater 2\nWaterproof 2")

	b = play(b, "WW")
	require.Equal(t, 0, b.RobotLife())

	b = play(b, "U")
	assert.Equal(t, 2, b.RobotLife())

	b = play(b, "DW")
	assert.False(t, b.Ended())
	assert.Equal(t, 0, b.RobotLife())

	b = play(b, "W")
	assert.Equal(t, Drowned, b.Outcome())
}

func TestStep_Flooding(t *testing.T) {
	b := mustParse(t, "#####\n#R  #\n#   #\n#   #\n#####\n\nFlooding 2")
	require.Equal(t, 5, b.WaterLevel())

	// Each turn is two ticks; the level drops when (iteration/2) % 2 == 0.
	b = play(b, "W")
	assert.Equal(t, 5, b.WaterLevel())
	b = play(b, "W")
	assert.Equal(t, 4, b.WaterLevel())
	b = play(b, "WW")
	assert.Equal(t, 3, b.WaterLevel())
}

// ==============================================================================
// Determinism Tests
// ==============================================================================

func TestPlay_Deterministic(t *testing.T) {
	text := "#########\n#R..*..L#\n#.\\.@.W.#\n#...* *.#\n#.\\ ** !#\n#########\n\nGrowth 5\nRazors 1\nWater 1\nFlooding 6"
	cmds := "RRDDLWSRRRUUDDLLAA"

	a := play(mustParse(t, text), cmds)
	b := play(mustParse(t, text), cmds)
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, a.Score(), b.Score())
	assert.Equal(t, a.Ended(), b.Ended())
	assert.Equal(t, a.Moves(), b.Moves())
}
