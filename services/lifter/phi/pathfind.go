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
	"container/heap"
	"log/slog"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Suggestion is the first step of a path toward a goal.
type Suggestion struct {
	Command board.Command
	Goal    quadtree.Point
	Steps   int
}

// BestMoves suggests first commands toward the nearest goals.
//
// Description:
//
//	Runs a greedy best-first search from the robot to each of the nearest
//	lambdas and higher-order rocks (or to the lift when none remain). Walls, beards, the
//	lift while it is the closed glyph, targets and rocks are impassable.
//	Each goal yields at most one suggestion and each first command is
//	suggested at most once, keeping the shortest path found for it.
//
// Inputs:
//   - b: The board to plan on.
//
// Outputs:
//   - []Suggestion: Suggestions ordered by path length. Nil when the robot
//     is missing or no goal is reachable.
func (e *Evaluator) BestMoves(b board.Board) []Suggestion {
	robot, ok := b.Robot()
	if !ok {
		return nil
	}

	var out []Suggestion
	seen := make(map[board.Command]int)
	for _, goal := range nearest(robot, goals(b), e.weights.Nearest) {
		first, steps, ok := findPath(b, robot, goal)
		if !ok {
			continue
		}
		if i, dup := seen[first]; dup {
			if steps < out[i].Steps {
				out[i] = Suggestion{Command: first, Goal: goal, Steps: steps}
			}
			continue
		}
		seen[first] = len(out)
		out = append(out, Suggestion{Command: first, Goal: goal, Steps: steps})
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Steps < out[j-1].Steps; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	e.logger.Debug("best moves",
		slog.Int("suggestions", len(out)),
		slog.String("robot", robot.String()),
	)
	return out
}

// blocked reports whether the path search may not enter g.
func blocked(g byte) bool {
	switch {
	case g == quadtree.Wall, g == quadtree.Beard, g == quadtree.ClosedLift:
		return true
	case quadtree.IsTarget(g), quadtree.IsRockLike(g):
		return true
	}
	return false
}

// pathStep is one frontier entry of the path search.
type pathStep struct {
	pos   quadtree.Point
	first board.Command
	cost  int
	dist  int
	seq   int
}

type pathQueue []*pathStep

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}

func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pathQueue) Push(x any) { *q = append(*q, x.(*pathStep)) }

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// towards orders the four moves so those closing the larger axis gap
// come first.
func towards(from, goal quadtree.Point) [4]board.Command {
	dx, dy := goal.X-from.X, goal.Y-from.Y
	h, hAway := board.Right, board.Left
	if dx < 0 {
		h, hAway = board.Left, board.Right
	}
	v, vAway := board.Down, board.Up
	if dy < 0 {
		v, vAway = board.Up, board.Down
	}
	if abs(dx) >= abs(dy) {
		return [4]board.Command{h, v, vAway, hAway}
	}
	return [4]board.Command{v, h, hAway, vAway}
}

// findPath runs a greedy best-first search and returns the first command
// of the path found and its length.
func findPath(b board.Board, from, goal quadtree.Point) (board.Command, int, bool) {
	w, h := b.Width(), b.Height()
	visited := make([]bool, w*h)
	mark := func(p quadtree.Point) bool {
		i := p.Y*w + p.X
		if visited[i] {
			return false
		}
		visited[i] = true
		return true
	}
	mark(from)

	q := &pathQueue{}
	seq := 0
	push := func(p quadtree.Point, first board.Command, cost int) {
		heap.Push(q, &pathStep{pos: p, first: first, cost: cost, dist: p.Manhattan(goal), seq: seq})
		seq++
	}

	expand := func(at quadtree.Point, first board.Command, cost int) (board.Command, int, bool) {
		for _, cmd := range towards(at, goal) {
			next := at.Add(cmd.Delta())
			if next.X < 0 || next.Y < 0 || next.X >= w || next.Y >= h {
				continue
			}
			f := first
			if cost == 0 {
				f = cmd
			}
			if next == goal {
				return f, cost + 1, true
			}
			if blocked(b.Get(next)) || !mark(next) {
				continue
			}
			push(next, f, cost+1)
		}
		return 0, 0, false
	}

	if first, steps, ok := expand(from, 0, 0); ok {
		return first, steps, true
	}
	for q.Len() > 0 {
		s := heap.Pop(q).(*pathStep)
		if first, steps, ok := expand(s.pos, s.first, s.cost); ok {
			return first, steps, true
		}
	}
	return 0, 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
