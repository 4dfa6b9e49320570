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

import "fmt"

// Pt is a convenience constructor for Point.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Point is a grid cell. Y grows downwards; row 0 is the top of the board.
type Point struct{ X, Y int }

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the component-wise difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Manhattan returns the taxicab distance between two points.
func (p Point) Manhattan(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// In reports whether p lies inside the half-open rectangle [min, max).
func (p Point) In(min, max Point) bool {
	return p.X >= min.X && p.X < max.X && p.Y >= min.Y && p.Y < max.Y
}

// BottomUpLess orders cells bottom-to-top, then left-to-right.
// This is the processing order of a gravity tick.
func BottomUpLess(a, b Point) bool {
	if a.Y != b.Y {
		return a.Y > b.Y
	}
	return a.X < b.X
}

// Neighbours8 returns the eight cells surrounding p.
func (p Point) Neighbours8() [8]Point {
	return [8]Point{
		{p.X - 1, p.Y - 1}, {p.X, p.Y - 1}, {p.X + 1, p.Y - 1},
		{p.X - 1, p.Y}, {p.X + 1, p.Y},
		{p.X - 1, p.Y + 1}, {p.X, p.Y + 1}, {p.X + 1, p.Y + 1},
	}
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
