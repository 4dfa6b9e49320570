// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package phi scores search nodes and suggests promising moves.
package phi

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Subject is anything the evaluator can score.
type Subject interface {
	Board() board.Board
	Depth() int
}

// Weights are the tunable fitness constants.
type Weights struct {
	// Random scales the decaying exploration term.
	Random float64 `yaml:"random" json:"random" validate:"gte=0"`

	// Water scales the surfacing urgency term.
	Water float64 `yaml:"water" json:"water" validate:"gte=0"`

	// Score scales realized score against the best achievable score.
	Score float64 `yaml:"score" json:"score" validate:"gte=0"`

	// DepthScale is the depth at which the decay reaches log2/log3.
	DepthScale float64 `yaml:"depth_scale" json:"depth_scale" validate:"gt=0"`

	// Nearest is how many collectibles BestMoves paths toward.
	Nearest int `yaml:"nearest" json:"nearest" validate:"gte=1"`
}

// DefaultWeights returns the standard fitness constants.
func DefaultWeights() Weights {
	return Weights{
		Random:     0.8,
		Water:      1.2,
		Score:      42,
		DepthScale: 40,
		Nearest:    4,
	}
}

// surfaceUrgency is the raw water term before weighting.
const surfaceUrgency = 0.75

// Evaluator computes node fitness.
//
// Thread Safety: NOT safe for concurrent use; the random source is
// unsynchronized. Use one evaluator per solve.
type Evaluator struct {
	weights Weights
	rng     *rand.Rand
	logger  *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithWeights overrides the fitness constants.
func WithWeights(w Weights) EvaluatorOption {
	return func(e *Evaluator) {
		e.weights = w
	}
}

// WithRand sets the random source for the exploration term.
func WithRand(rng *rand.Rand) EvaluatorOption {
	return func(e *Evaluator) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates an evaluator with default weights and a source
// seeded with 1 unless options say otherwise.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		weights: DefaultWeights(),
		rng:     rand.New(rand.NewSource(1)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.weights.Nearest < 1 {
		e.weights.Nearest = 1
	}
	if e.weights.DepthScale <= 0 {
		e.weights.DepthScale = DefaultWeights().DepthScale
	}
	return e
}

// Weights returns the active constants.
func (e *Evaluator) Weights() Weights { return e.weights }

// Calculate returns the fitness of s. Higher is better; the value only
// has meaning relative to other nodes of the same solve.
//
// Description:
//
//	phi = (G + wr*R + ww*W + ws*S) * D where
//	  G is the magnitude of the inverse-square pull toward the remaining
//	    lambdas and higher-order rocks, or toward the lift once none
//	    remain,
//	  R is a uniform draw decayed by depth,
//	  W fires when the robot is submerged with exactly its dry margin of
//	    life left, lambdas or higher-order rocks remain and it did not
//	    just move up,
//	  S is score over the maximum score,
//	  D = ln2 / ln(2 + depth/DepthScale).
func (e *Evaluator) Calculate(s Subject) float64 {
	b := s.Board()
	depth := float64(s.Depth())
	robot, ok := b.Robot()
	if !ok {
		return 0
	}

	g := gravity(robot, goals(b))
	r := e.rng.Float64() / (depth*math.E + 1)

	w := 0.0
	if b.Underwater(robot) &&
		b.RobotLife() == robot.Y-b.WaterLevel() &&
		b.Remaining() > 0 &&
		lastMove(b) != byte(board.Up) {
		w = surfaceUrgency
	}

	sc := 0.0
	if max := b.MaxScore(); max > 0 {
		sc = float64(b.Score()) / float64(max)
	}

	d := math.Ln2 / math.Log(2+depth/e.weights.DepthScale)
	return (g + e.weights.Random*r + e.weights.Water*w + e.weights.Score*sc) * d
}

// goals returns the lambdas and higher-order rocks, or the lift when none
// remain. A higher-order rock pays out once it falls and breaks, so the
// robot is drawn to it like a lambda.
func goals(b board.Board) []quadtree.Point {
	if b.Remaining() > 0 {
		out := make([]quadtree.Point, 0, b.Remaining())
		out = append(out, b.Lambdas()...)
		return append(out, b.HORocks()...)
	}
	if lift, ok := b.Lift(); ok {
		return []quadtree.Point{lift}
	}
	return nil
}

func gravity(from quadtree.Point, to []quadtree.Point) float64 {
	var gx, gy float64
	for _, p := range to {
		x := float64(p.X - from.X)
		y := float64(p.Y - from.Y)
		len2 := x*x + y*y
		if len2 == 0 {
			continue
		}
		l := math.Sqrt(len2)
		gx += x / (l * len2)
		gy += y / (l * len2)
	}
	return math.Hypot(gx, gy)
}

func lastMove(b board.Board) byte {
	m := b.Moves()
	if m == "" {
		return 0
	}
	return m[len(m)-1]
}

// nearest returns up to k goals ordered by Manhattan distance from p.
func nearest(p quadtree.Point, goals []quadtree.Point, k int) []quadtree.Point {
	sorted := append([]quadtree.Point(nil), goals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Manhattan(p) < sorted[j].Manhattan(p)
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
