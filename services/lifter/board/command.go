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
	"fmt"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Command is a single robot command.
type Command byte

const (
	Left  Command = 'L'
	Right Command = 'R'
	Up    Command = 'U'
	Down  Command = 'D'
	Wait  Command = 'W'
	Shave Command = 'S'
	Abort Command = 'A'
)

// Expansions is the command set tried when expanding a search node.
// Abort is excluded; it is only issued when finalizing a solution.
var Expansions = [...]Command{Left, Right, Up, Down, Wait, Shave}

// ParseCommand validates a command byte.
func ParseCommand(c byte) (Command, error) {
	switch cmd := Command(c); cmd {
	case Left, Right, Up, Down, Wait, Shave, Abort:
		return cmd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCommand, c)
}

// Delta returns the unit offset of a movement command, or zero.
func (c Command) Delta() quadtree.Point {
	switch c {
	case Left:
		return quadtree.Pt(-1, 0)
	case Right:
		return quadtree.Pt(1, 0)
	case Up:
		return quadtree.Pt(0, -1)
	case Down:
		return quadtree.Pt(0, 1)
	}
	return quadtree.Point{}
}

// IsMove reports whether the command moves the robot.
func (c Command) IsMove() bool {
	return c.Delta() != quadtree.Point{}
}

func (c Command) String() string { return string(rune(c)) }
