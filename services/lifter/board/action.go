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
	"slices"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Scoring constants.
const (
	LambdaScore = 25
	ExitBonus   = 50
	AbortBonus  = 25
	MoveCost    = 1
)

// PlayerAction applies one robot command.
//
// Description:
//
//	Every command except Abort costs one point, including moves into
//	blocked cells. Abort ends the game and adds the abort bonus per
//	collected lambda. Moving onto a lambda, razor or open lift applies its
//	effect. Rocks are pushed sideways into empty cells. Trampolines jump to
//	their target and remove every pad sharing that target.
//
// Inputs:
//   - cmd: The command to apply.
//
// Outputs:
//   - Board: The next state. An ended board, or one without a robot, is
//     returned unchanged.
func (b Board) PlayerAction(cmd Command) Board {
	if b.Ended() {
		return b
	}
	robot, ok := b.Robot()
	if !ok {
		return b
	}

	if cmd == Abort {
		next := b
		next.outcome = Aborted
		next.score += b.collected * AbortBonus
		next.record(cmd, robot, robot)
		return next
	}

	var sets []quadtree.Set
	to := robot
	target := b.Get(robot)
	razorUsed := false

	switch {
	case cmd == Shave:
		if b.razors > 0 {
			razorUsed = true
			for _, n := range robot.Neighbours8() {
				if b.Get(n) == quadtree.Beard {
					sets = append(sets, quadtree.Set{Pos: n, Value: quadtree.Empty})
				}
			}
		}

	case cmd.IsMove():
		dest := robot.Add(cmd.Delta())
		target = b.Get(dest)
		switch {
		case quadtree.IsRockLike(target):
			beyond := dest.Add(cmd.Delta())
			if cmd.Delta().Y == 0 && b.Get(beyond) == quadtree.Empty {
				sets = append(sets, quadtree.Set{Pos: beyond, Value: target})
				sets = b.moveRobot(sets, robot, dest)
				to = dest
			}
		case quadtree.IsTrampoline(target):
			if landing, ok := b.jump(target); ok {
				sets = append(sets, quadtree.Set{Pos: robot, Value: quadtree.Empty})
				sets = append(sets, b.clearPads(target)...)
				sets = append(sets, quadtree.Set{Pos: landing, Value: quadtree.Robot})
				to = landing
			}
		case passable(target):
			sets = b.moveRobot(sets, robot, dest)
			to = dest
			if target == quadtree.Lambda && len(b.Lambdas()) == 1 && len(b.HORocks()) == 0 {
				if lift, ok := b.Lift(); ok {
					sets = append(sets, quadtree.Set{Pos: lift, Value: quadtree.OpenLift})
				}
			}
		}
	}

	next := b.update(sets)
	next.score -= MoveCost
	if razorUsed {
		next.razors--
	}
	if to != robot {
		switch target {
		case quadtree.Lambda:
			next.score += LambdaScore
			next.collected++
		case quadtree.Razor:
			next.razors++
		case quadtree.OpenLift:
			next.score += next.collected * ExitBonus
			next.outcome = Exited
		}
	}
	next.record(cmd, robot, to)
	return next
}

// passable reports whether the robot can step onto g without pushing.
func passable(g byte) bool {
	switch g {
	case quadtree.Empty, quadtree.Earth, quadtree.Lambda, quadtree.Razor, quadtree.OpenLift:
		return true
	}
	return false
}

func (b Board) moveRobot(sets []quadtree.Set, from, to quadtree.Point) []quadtree.Set {
	return append(sets,
		quadtree.Set{Pos: from, Value: quadtree.Empty},
		quadtree.Set{Pos: to, Value: quadtree.Robot},
	)
}

// jump returns the landing cell for a trampoline glyph.
func (b Board) jump(pad byte) (quadtree.Point, bool) {
	id, ok := b.rules.cfg.Trampolines[pad]
	if !ok {
		return quadtree.Point{}, false
	}
	p, ok := b.rules.targets[id]
	if !ok || b.Get(p) != id {
		return quadtree.Point{}, false
	}
	return p, true
}

// clearPads removes every pad that jumps to the same target as pad.
func (b Board) clearPads(pad byte) []quadtree.Set {
	pads := b.rules.cfg.PadsFor(b.rules.cfg.Trampolines[pad])
	var sets []quadtree.Set
	for _, p := range b.tiles.Aggregate().Trampolines {
		if slices.Contains(pads, b.Get(p)) {
			sets = append(sets, quadtree.Set{Pos: p, Value: quadtree.Empty})
		}
	}
	return sets
}
