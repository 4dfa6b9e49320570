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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

// Renderer turns a board into the text written after each command.
type Renderer func(board.Board) string

// Plain renders the board exactly as Board.String does.
func Plain(b board.Board) string {
	return b.String()
}

// Styled renders a coloured grid followed by the same summary lines as
// Plain. Without colours enabled it is identical to Plain.
func Styled(b board.Board) string {
	if !ux.ShouldShowColors() {
		return b.String()
	}
	return fmt.Sprintf("%s\nWater %d\nGrowth %d\nRazors %d",
		ux.Board(b.Tiles().Serialize(), b.WaterLevel()),
		b.WaterLevel(), b.Config().Growth, b.Razors())
}

// Run streams commands from r through s and writes every state to w.
//
// Description:
//
//	Writes the JSON header and the initial board, then reads r in chunks
//	and writes one rendered board per applied command. Returns when r is
//	exhausted, the game ends or ctx is cancelled. Cancellation is checked
//	between chunks.
//
// Inputs:
//   - ctx: Cancellation.
//   - s: The session to drive.
//   - r: Command input.
//   - w: Output for the header and boards.
//   - render: Board renderer. Nil means Plain.
//
// Outputs:
//   - error: Read/write errors or ctx.Err(). Nil on EOF or game end.
func Run(ctx context.Context, s *Session, r io.Reader, w io.Writer, render Renderer) error {
	if render == nil {
		render = Plain
	}

	header, err := s.Header()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n%s\n", header, render(s.Board())); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	buf := make([]byte, 4096)
	for !s.Ended() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(buf)
		for _, f := range s.Apply(string(buf[:n])) {
			if _, err := fmt.Fprintf(w, "%s\n", render(f.State())); err != nil {
				return fmt.Errorf("write board: %w", err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read commands: %w", readErr)
		}
	}
	return nil
}
