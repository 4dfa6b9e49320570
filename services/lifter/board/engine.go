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
	"sort"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

var (
	down      = quadtree.Pt(0, 1)
	downLeft  = quadtree.Pt(-1, 1)
	downRight = quadtree.Pt(1, 1)
	left      = quadtree.Pt(-1, 0)
	right     = quadtree.Pt(1, 0)
	up        = quadtree.Pt(0, -1)
)

// Step advances the environment by one tick.
//
// Description:
//
//	Every rock and higher-order rock, and every beard when the growth
//	counter runs out, is processed bottom-up then left-to-right. All reads
//	see the pre-step grid and all writes are applied as one batch. The step
//	then checks for a crushing rock, raises the water and applies drowning.
//
// Outputs:
//   - Board: The next state. An ended board is returned unchanged.
func (b Board) Step() Board {
	if b.Ended() {
		return b
	}
	cfg := b.rules.cfg
	agg := b.tiles.Aggregate()

	growth := b.growth - 1
	grow := growth <= 0
	if grow {
		growth = cfg.Growth
	}

	cells := make([]quadtree.Point, 0, len(agg.Rocks)+len(agg.HORocks)+len(agg.Beards))
	cells = append(cells, agg.Rocks...)
	cells = append(cells, agg.HORocks...)
	if grow {
		cells = append(cells, agg.Beards...)
	}
	sort.Slice(cells, func(i, j int) bool { return quadtree.BottomUpLess(cells[i], cells[j]) })

	var sets []quadtree.Set
	var landed []quadtree.Point
	for _, p := range cells {
		g := b.Get(p)
		if g == quadtree.Beard {
			for _, n := range p.Neighbours8() {
				if b.Get(n) == quadtree.Empty {
					sets = append(sets, quadtree.Set{Pos: n, Value: quadtree.Beard})
				}
			}
			continue
		}
		to, ok := b.fall(p)
		if !ok {
			continue
		}
		value := g
		if g == quadtree.HORock && b.Get(to.Add(down)) != quadtree.Empty {
			value = quadtree.Lambda
		}
		sets = append(sets,
			quadtree.Set{Pos: p, Value: quadtree.Empty},
			quadtree.Set{Pos: to, Value: value},
		)
		landed = append(landed, to)
	}

	if lift, ok := b.Lift(); ok && b.Remaining() == 0 && b.Get(lift) == quadtree.ClosedLift {
		sets = append(sets, quadtree.Set{Pos: lift, Value: quadtree.OpenLift})
	}

	next := b.update(sets)
	next.growth = growth

	robot, hasRobot := next.Robot()
	if hasRobot {
		above := robot.Add(up)
		for _, p := range landed {
			if p == above {
				next.outcome = Crushed
				break
			}
		}
	}

	if cfg.Flooding > 0 && (next.iteration>>1)%cfg.Flooding == 0 {
		next.waterLevel = clampWater(next.waterLevel - 1)
	}

	if hasRobot && !next.Ended() {
		if next.Underwater(robot) {
			if next.robotLife == 0 {
				next.outcome = Drowned
			} else {
				next.robotLife--
			}
		} else {
			next.robotLife = cfg.Waterproof
		}
	}
	return next
}

// fall returns where the rock-like cell at p moves this tick.
func (b Board) fall(p quadtree.Point) (quadtree.Point, bool) {
	below := b.Get(p.Add(down))
	if below == quadtree.Empty {
		return p.Add(down), true
	}
	if below == quadtree.Lambda || quadtree.IsRockLike(below) {
		if b.Get(p.Add(right)) == quadtree.Empty && b.Get(p.Add(downRight)) == quadtree.Empty {
			return p.Add(downRight), true
		}
	}
	if quadtree.IsRockLike(below) {
		if b.Get(p.Add(left)) == quadtree.Empty && b.Get(p.Add(downLeft)) == quadtree.Empty {
			return p.Add(downLeft), true
		}
	}
	return p, false
}
