// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package quadtree

// Board glyphs.
const (
	Wall       byte = '#'
	Empty      byte = ' '
	Earth      byte = '.'
	Robot      byte = 'R'
	ClosedLift byte = 'L'
	OpenLift   byte = 'O'
	Lambda     byte = '\\'
	Rock       byte = '*'
	HORock     byte = '@' // higher-order rock, turns into a lambda when it lands
	Beard      byte = 'W'
	Razor      byte = '!'
)

// IsTrampoline reports whether g is a teleport pad glyph (A-I).
func IsTrampoline(g byte) bool {
	return g >= 'A' && g <= 'I'
}

// IsTarget reports whether g is a teleport target glyph (1-9).
func IsTarget(g byte) bool {
	return g >= '1' && g <= '9'
}

// IsRockLike reports whether g is a rock that obeys gravity.
func IsRockLike(g byte) bool {
	return g == Rock || g == HORock
}

// IsLift reports whether g is a lift in either state.
func IsLift(g byte) bool {
	return g == ClosedLift || g == OpenLift
}
