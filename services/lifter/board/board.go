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
	"strings"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Outcome describes how a game ended.
type Outcome int

const (
	// Running means the game has not ended.
	Running Outcome = iota
	// Exited means the robot reached the open lift.
	Exited
	// Aborted means the player issued the abort command.
	Aborted
	// Crushed means a falling rock landed on the robot.
	Crushed
	// Drowned means the robot stayed under water too long.
	Drowned
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Aborted:
		return "aborted"
	case Crushed:
		return "crushed"
	case Drowned:
		return "drowned"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// rules is the per-map state shared by every board generation.
type rules struct {
	cfg      Config
	targets  map[byte]quadtree.Point
	maxScore int
	levels   int
}

// Board is one immutable game state.
//
// Description:
//
//	Board is a value type. Step and PlayerAction return a new Board and never
//	modify the receiver. Tiles are a persistent quadtree, so successive
//	generations share every untouched subtree.
//
// Thread Safety: Safe for concurrent reads. Boards are never mutated.
type Board struct {
	rules *rules
	tiles *quadtree.Node

	waterLevel int
	growth     int
	razors     int
	robotLife  int

	score     int
	collected int
	iteration int
	revision  int

	outcome Outcome

	moves string
	trail []string
}

// New creates the initial board for a grid and its metadata.
//
// Inputs:
//   - rows: Equal-length grid rows, top to bottom.
//   - cfg: Map metadata.
//
// Outputs:
//   - Board: Initial state with score 0 and an empty history.
//   - error: ErrInvalidConfig, ErrEmptyGrid, ErrNoRobot or ErrUnknownTarget.
func New(rows []string, cfg Config) (Board, error) {
	if err := cfg.Validate(); err != nil {
		return Board{}, err
	}
	tiles, err := quadtree.Build(rows)
	if err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrEmptyGrid, err)
	}
	agg := tiles.Aggregate()
	if !agg.HasRobot {
		return Board{}, ErrNoRobot
	}

	targets := make(map[byte]quadtree.Point, len(agg.Targets))
	for _, p := range agg.Targets {
		targets[tiles.Get(p)] = p
	}
	for pad, target := range cfg.Trampolines {
		if _, ok := targets[target]; !ok {
			return Board{}, fmt.Errorf("%w: %c targets %c", ErrUnknownTarget, pad, target)
		}
	}

	levels := quadtree.Levels(tiles.Width(), tiles.Height())
	r := &rules{
		cfg:      cfg,
		targets:  targets,
		maxScore: (len(agg.Lambdas) + len(agg.HORocks)) * 75,
		levels:   levels,
	}
	return Board{
		rules:      r,
		tiles:      tiles,
		waterLevel: clampWater(tiles.Height() - cfg.Water),
		growth:     cfg.Growth,
		razors:     cfg.Razors,
		robotLife:  cfg.Waterproof,
		trail:      make([]string, levels),
	}, nil
}

func clampWater(level int) int {
	if level < 0 {
		return 0
	}
	return level
}

// update applies one batch of writes and advances the tick counter.
// The revision only moves when a cell actually changed.
func (b Board) update(sets []quadtree.Set) Board {
	next := b
	next.iteration++
	tiles, changed := b.tiles.Update(sets)
	if changed {
		next.tiles = tiles
		next.revision = next.iteration
	}
	return next
}

// Get returns the glyph at p; cells off the grid read as walls.
func (b Board) Get(p quadtree.Point) byte { return b.tiles.Get(p) }

// Tiles returns the underlying quadtree.
func (b Board) Tiles() *quadtree.Node { return b.tiles }

// Width returns the grid width.
func (b Board) Width() int { return b.tiles.Width() }

// Height returns the grid height.
func (b Board) Height() int { return b.tiles.Height() }

// Config returns the map metadata.
func (b Board) Config() Config { return b.rules.cfg }

// Robot returns the robot position.
func (b Board) Robot() (quadtree.Point, bool) {
	agg := b.tiles.Aggregate()
	return agg.Robot, agg.HasRobot
}

// Lift returns the lift position.
func (b Board) Lift() (quadtree.Point, bool) {
	agg := b.tiles.Aggregate()
	return agg.Lift, agg.HasLift
}

// Lambdas returns lambda positions. The slice must not be modified.
func (b Board) Lambdas() []quadtree.Point { return b.tiles.Aggregate().Lambdas }

// Rocks returns plain rock positions. The slice must not be modified.
func (b Board) Rocks() []quadtree.Point { return b.tiles.Aggregate().Rocks }

// HORocks returns higher-order rock positions. The slice must not be modified.
func (b Board) HORocks() []quadtree.Point { return b.tiles.Aggregate().HORocks }

// Beards returns beard positions. The slice must not be modified.
func (b Board) Beards() []quadtree.Point { return b.tiles.Aggregate().Beards }

// Remaining returns the number of lambdas still to collect, counting
// higher-order rocks that have not yet turned into lambdas.
func (b Board) Remaining() int {
	agg := b.tiles.Aggregate()
	return len(agg.Lambdas) + len(agg.HORocks)
}

// LiftOpen reports whether the lift is open.
func (b Board) LiftOpen() bool {
	lift, ok := b.Lift()
	return ok && b.Get(lift) == quadtree.OpenLift
}

// WaterLevel returns the first flooded row index counted from the top.
func (b Board) WaterLevel() int { return b.waterLevel }

// Underwater reports whether p is at or below the water line.
func (b Board) Underwater(p quadtree.Point) bool { return p.Y >= b.waterLevel }

// Growth returns the turns remaining until beards grow.
func (b Board) Growth() int { return b.growth }

// Razors returns the razor count.
func (b Board) Razors() int { return b.razors }

// RobotLife returns the remaining submerged turns.
func (b Board) RobotLife() int { return b.robotLife }

// Score returns the current score.
func (b Board) Score() int { return b.score }

// MaxScore returns the score ceiling used to normalize fitness.
func (b Board) MaxScore() int { return b.rules.maxScore }

// Collected returns the number of lambdas collected.
func (b Board) Collected() int { return b.collected }

// Iteration returns the tick counter.
func (b Board) Iteration() int { return b.iteration }

// Revision returns the last tick that changed the grid.
func (b Board) Revision() int { return b.revision }

// Ended reports whether the game is over.
func (b Board) Ended() bool { return b.outcome != Running }

// Outcome returns how the game ended.
func (b Board) Outcome() Outcome { return b.outcome }

// Moves returns every command issued so far.
func (b Board) Moves() string { return b.moves }

// Levels returns the number of history trail levels.
func (b Board) Levels() int { return b.rules.levels }

// Trail returns the coarse movement trail at level i (0 is the coarsest).
func (b Board) Trail(i int) string { return b.trail[i] }

// String renders the grid followed by water level, growth period and razors.
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString(b.tiles.String())
	fmt.Fprintf(&sb, "\nWater %d\nGrowth %d\nRazors %d", b.waterLevel, b.rules.cfg.Growth, b.razors)
	return sb.String()
}
