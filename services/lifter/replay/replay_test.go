// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

const corridor = "#R\\L#"

func mustParse(t *testing.T, text string) board.Board {
	t.Helper()
	b, err := board.Parse(text)
	require.NoError(t, err)
	return b
}

// expected builds the emulator transcript for cmds by hand.
func expected(t *testing.T, text, cmds string) string {
	t.Helper()
	b := mustParse(t, text)
	header, err := json.Marshal(b.Config())
	require.NoError(t, err)

	var sb strings.Builder
	sb.WriteString(string(header) + "\n" + b.String() + "\n")
	for i := 0; i < len(cmds); i++ {
		cmd, err := board.ParseCommand(cmds[i])
		require.NoError(t, err)
		b = b.PlayerAction(cmd).Step()
		sb.WriteString(b.String() + "\n")
	}
	return sb.String()
}

// ==============================================================================
// Session Tests
// ==============================================================================

func TestSession_Apply(t *testing.T) {
	s := NewSession(mustParse(t, corridor))
	assert.False(t, s.Ended())
	assert.Equal(t, "running", s.Current().Outcome)

	frames := s.Apply("R")
	require.Len(t, frames, 1)
	assert.Equal(t, "R", frames[0].Command)
	assert.Equal(t, 24, frames[0].Score)
	assert.False(t, frames[0].Ended)
	assert.Equal(t, frames[0].State().String(), frames[0].Board)

	frames = s.Apply("R")
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Ended)
	assert.Equal(t, "exited", frames[0].Outcome)
	assert.Equal(t, 73, frames[0].Score)
	assert.Equal(t, "RR", frames[0].Moves)
	assert.True(t, s.Ended())
}

func TestSession_IgnoresOtherCharacters(t *testing.T) {
	s := NewSession(mustParse(t, corridor))
	frames := s.Apply("r x\n R;")
	require.Len(t, frames, 1)
	assert.Equal(t, "R", s.Board().Moves())

	waits := NewSession(mustParse(t, "#R  L#"))
	frames = waits.Apply("W?w\tW")
	require.Len(t, frames, 2)
	assert.Equal(t, "W", frames[1].Command)
	assert.Equal(t, "WW", waits.Board().Moves())
}

func TestSession_StopsAtGameEnd(t *testing.T) {
	s := NewSession(mustParse(t, corridor))
	frames := s.Apply("RRLLW")
	assert.Len(t, frames, 2)
	assert.Empty(t, s.Apply("L"))
	assert.Equal(t, "RR", s.Board().Moves())
}

func TestSession_Header(t *testing.T) {
	s := NewSession(mustParse(t, corridor+"\n\nWater 1"))
	header, err := s.Header()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(header), &decoded))
	assert.EqualValues(t, 1, decoded["water"])
	assert.NotContains(t, header, "\n")
}

// ==============================================================================
// Run Tests
// ==============================================================================

func TestRun_MatchesEmulatorTranscript(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(mustParse(t, corridor))

	err := Run(context.Background(), s, strings.NewReader("R\nR\nL\n"), &out, Plain)
	require.NoError(t, err)
	assert.Equal(t, expected(t, corridor, "RR"), out.String())
}

func TestRun_SmallReads(t *testing.T) {
	var out bytes.Buffer
	level := "#  R  #\n#######"
	s := NewSession(mustParse(t, level))

	err := Run(context.Background(), s, iotest.OneByteReader(strings.NewReader("LWRA")), &out, nil)
	require.NoError(t, err)
	assert.Equal(t, expected(t, level, "LWRA"), out.String())
	assert.Equal(t, board.Aborted, s.Board().Outcome())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := Run(ctx, NewSession(mustParse(t, corridor)), strings.NewReader("RR"), &out, Plain)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, expected(t, corridor, ""), out.String(), "header is written first")
}

func TestRun_ReadError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), NewSession(mustParse(t, corridor)), iotest.ErrReader(boom), &bytes.Buffer{}, Plain)
	assert.ErrorIs(t, err, boom)
}

// ==============================================================================
// Renderer Tests
// ==============================================================================

func TestStyled_PlainWithoutColors(t *testing.T) {
	orig := ux.GetPersonality()
	defer ux.SetPersonality(orig)
	ux.SetPersonalityLevel(ux.PersonalityMachine)

	b := mustParse(t, corridor+"\n\nWater 1")
	assert.Equal(t, b.String(), Styled(b))
}

func TestStyled_KeepsSummaryLines(t *testing.T) {
	orig := ux.GetPersonality()
	defer ux.SetPersonality(orig)
	ux.SetPersonalityLevel(ux.PersonalityFull)

	b := mustParse(t, corridor+"\n\nRazors 2")
	out := Styled(b)
	assert.Contains(t, out, "\nGrowth 25\nRazors 2")
	assert.Contains(t, out, "R")
}
