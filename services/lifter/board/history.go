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
	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// record appends cmd to the move string and extends each trail level
// whose cell changed between from and to.
//
// Level i uses cells of Scale(levels, i). A level gains one direction
// letter per move that crosses a cell boundary at that scale; for a
// diagonal crossing (a trampoline jump) the dominant axis wins.
func (b *Board) record(cmd Command, from, to quadtree.Point) {
	b.moves += string(rune(cmd))
	if from == to {
		return
	}

	trail := make([]string, len(b.trail))
	copy(trail, b.trail)
	for i := range trail {
		scale := quadtree.Scale(b.rules.levels, i)
		dx := to.X/scale - from.X/scale
		dy := to.Y/scale - from.Y/scale
		if dir, ok := direction(dx, dy); ok {
			trail[i] += string(dir)
		}
	}
	b.trail = trail
}

func direction(dx, dy int) (byte, bool) {
	ax, ay := dx, dy
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	switch {
	case ax == 0 && ay == 0:
		return 0, false
	case ax >= ay && dx > 0:
		return 'R', true
	case ax >= ay:
		return 'L', true
	case dy > 0:
		return 'D', true
	default:
		return 'U', true
	}
}
