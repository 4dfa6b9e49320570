// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package replay plays command strings against a board one command at a
// time, the way the game server would.
//
// Every command character in "URDLSWA" is applied as a player action
// followed by one environment step. Any other character is ignored, so
// solutions can be piped in with newlines or separators. Once the game
// ends the rest of the input is dropped.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

// Frame is the state after one replayed command.
type Frame struct {
	Command string `json:"command,omitempty"`
	Board   string `json:"board"`
	Moves   string `json:"moves"`
	Score   int    `json:"score"`
	Outcome string `json:"outcome"`
	Ended   bool   `json:"ended"`

	state board.Board
}

// State returns the board this frame was taken from.
func (f Frame) State() board.Board { return f.state }

// Session replays commands against one board.
//
// Thread Safety: NOT safe for concurrent use.
type Session struct {
	board board.Board
}

// NewSession starts a replay from b.
func NewSession(b board.Board) *Session {
	return &Session{board: b}
}

// Board returns the current board.
func (s *Session) Board() board.Board { return s.board }

// Ended reports whether the game is over.
func (s *Session) Ended() bool { return s.board.Ended() }

// Header returns the game metadata as one JSON line.
//
// Outputs:
//   - string: JSON of the board configuration, no trailing newline.
//   - error: Non-nil if the configuration cannot be encoded.
func (s *Session) Header() (string, error) {
	data, err := json.Marshal(s.board.Config())
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

// Current returns a frame for the current state without a command.
func (s *Session) Current() Frame {
	return s.frame("")
}

// Apply replays every command character in input.
//
// Inputs:
//   - input: Arbitrary text. Characters that are not commands are skipped.
//
// Outputs:
//   - []Frame: One frame per applied command. Empty once the game ended.
func (s *Session) Apply(input string) []Frame {
	var frames []Frame
	for i := 0; i < len(input) && !s.board.Ended(); i++ {
		cmd, err := board.ParseCommand(input[i])
		if err != nil {
			continue
		}
		s.board = s.board.PlayerAction(cmd).Step()
		frames = append(frames, s.frame(cmd.String()))
	}
	return frames
}

func (s *Session) frame(cmd string) Frame {
	return Frame{
		Command: cmd,
		Board:   s.board.String(),
		Moves:   s.board.Moves(),
		Score:   s.board.Score(),
		Outcome: s.board.Outcome().String(),
		Ended:   s.board.Ended(),
		state:   s.board,
	}
}
