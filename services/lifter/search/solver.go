// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/phi"
)

// Stop reasons reported in Result.StopReason.
const (
	StopCancelled     = "cancelled"
	StopBudget        = "budget"
	StopFrontierEmpty = "frontier_empty"
)

// Result is the outcome of a solve.
type Result struct {
	RunID       string        `json:"run_id"`
	Moves       string        `json:"moves"`
	Score       int           `json:"score"`
	Outcome     board.Outcome `json:"-"`
	OutcomeStr  string        `json:"outcome"`
	StopReason  string        `json:"stop_reason"`
	// ExhaustedBy names the limit behind a budget stop: time, nodes or
	// iterations.
	ExhaustedBy string        `json:"exhausted_by,omitempty"`
	Iterations  int64         `json:"iterations"`
	Nodes       int64         `json:"nodes"`
	MaxDepth    int           `json:"max_depth"`
	Elapsed     time.Duration `json:"elapsed"`
	Seed        int64         `json:"seed"`
}

// Solver runs the anytime search for one board.
//
// The solver alternates two phases per iteration:
//  1. EXPLORE: expand the fittest frontier nodes plus a diverse reserve
//     with every command.
//  2. GREEDY: walk the elite set along pathfinder suggestions, repeated
//     once more per unit of exploitation credit.
//
// Credit grows while the best score improves and shrinks otherwise.
//
// Thread Safety: NOT safe for concurrent use. Run a separate solver per
// goroutine; boards are immutable and may be shared between solvers.
type Solver struct {
	config FullConfig
	board  board.Board
	runID  string
	seed   int64

	tree    *Tree
	budget  *Budget
	tracer  *Tracer
	metrics metrics
	logger  *slog.Logger

	frontier []*Node
	elites   []*Node
	credit   int
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SolverOption {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer *Tracer) SolverOption {
	return func(s *Solver) {
		s.tracer = tracer
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) SolverOption {
	return func(s *Solver) {
		if id != "" {
			s.runID = id
		}
	}
}

// NewSolver creates a solver for b.
//
// Inputs:
//   - b: The initial board.
//   - config: Solver configuration; should already be validated.
//   - opts: Optional configuration functions.
//
// Outputs:
//   - *Solver: Ready to Run once.
func NewSolver(b board.Board, config FullConfig, opts ...SolverOption) *Solver {
	s := &Solver{
		config:  config,
		board:   b,
		runID:   uuid.NewString(),
		seed:    config.Search.Seed,
		metrics: metrics{enabled: config.Observability.MetricsEnabled},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	if s.tracer == nil {
		s.tracer = NewTracer(s.logger, config.Observability)
	}
	s.logger = s.logger.With(slog.String("run_id", s.runID))
	return s
}

// RunID returns the solve identifier.
func (s *Solver) RunID() string { return s.runID }

// Tree returns the search tree, nil before Run.
func (s *Solver) Tree() *Tree { return s.tree }

// Run searches until the context is cancelled, the budget is exhausted or
// the frontier empties, then returns the best command string found.
//
// Description:
//
//	Cancellation is the normal way to stop and is not an error. The best
//	node is finalized by appending an abort when its game has not ended.
//	A broken quadtree invariant aborts this solve with
//	ErrInvariantViolation; the process keeps running.
//
// Inputs:
//   - ctx: Cancellation and deadline.
//
// Outputs:
//   - *Result: The solution. Nil only on error.
//   - error: ErrInvariantViolation on an internal fault.
func (s *Solver) Run(ctx context.Context) (res *Result, err error) {
	s.budget = NewBudget(s.config.Budget)
	evaluator := phi.NewEvaluator(
		phi.WithWeights(s.config.Fitness),
		phi.WithRand(rand.New(rand.NewSource(s.seed))),
		phi.WithLogger(s.logger),
	)

	ctx, span := s.tracer.StartSolve(ctx, s.runID, s.board, s.budget)
	defer func() {
		s.tracer.EndSolve(span, res, s.budget, err)
	}()

	err = guard(func() {
		s.tree = NewTree(s.board, evaluator, s.budget)
		s.frontier = []*Node{s.tree.Root()}
		s.elites = []*Node{s.tree.Root()}
		s.credit = 0

		reason := s.loop(ctx)
		res = s.finalize(ctx, reason)
	})
	if err != nil {
		s.metrics.solved("error", 0)
		LoggerWithTrace(ctx, s.logger).Error("solve aborted", slog.String("error", err.Error()))
		return nil, err
	}
	s.metrics.solved(res.StopReason, res.Score)
	return res, nil
}

// guard runs fn and converts a panic into ErrInvariantViolation.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrInvariantViolation, e)
				return
			}
			err = fmt.Errorf("%w: %v", ErrInvariantViolation, r)
		}
	}()
	fn()
	return nil
}

func (s *Solver) loop(ctx context.Context) string {
	for iteration := 0; ; iteration++ {
		if ctx.Err() != nil {
			return StopCancelled
		}
		if err := s.budget.Check(); err != nil {
			LoggerWithTrace(ctx, s.logger).Debug("stopping search", slog.String("reason", err.Error()))
			return StopBudget
		}
		if len(s.frontier) == 0 && len(s.elites) == 0 {
			return StopFrontierEmpty
		}

		start := time.Now()
		iterCtx, span := s.tracer.TraceIteration(ctx, iteration, len(s.frontier), s.credit)
		best := s.tree.Best()

		s.explore()
		for round := 0; round <= s.credit; round++ {
			s.greedy()
		}

		if s.tree.Best().Score() > best.Score() {
			s.tracer.TraceNewBest(iterCtx, s.tree.Best())
			if s.credit < s.config.Search.MaxCredit {
				s.credit++
			}
		} else if s.credit > 0 {
			s.credit--
		}

		if len(s.frontier) > s.config.Search.FrontierLimit {
			before := len(s.frontier)
			s.frontier = Chop(s.frontier, s.config.Search.ShrinkTo, 0)
			s.metrics.chopped()
			s.tracer.TraceChop(iterCtx, before, len(s.frontier))
		}

		span.End()
		s.metrics.iteration(len(s.frontier), time.Since(start))
		s.budget.RecordIteration()
		runtime.Gosched()
	}
}

// explore expands the top frontier nodes and a chopped reserve with every
// command. Expanded nodes leave the frontier.
func (s *Solver) explore() {
	if len(s.frontier) == 0 {
		return
	}
	byFitness(s.frontier)

	top := s.config.Search.TopN
	if top > len(s.frontier) {
		top = len(s.frontier)
	}
	selected := append([]*Node(nil), s.frontier[:top]...)
	selected = append(selected, Chop(s.frontier[top:], s.config.Search.Reserve, 0)...)
	for _, n := range selected {
		n.expanded = true
	}

	kept := s.frontier[:0]
	for _, n := range s.frontier {
		if !n.expanded {
			kept = append(kept, n)
		}
	}
	s.frontier = kept

	for _, n := range selected {
		for _, cmd := range board.Expansions {
			child, ok := s.mutate(n, cmd, "explore")
			if ok {
				s.frontier = append(s.frontier, child)
			}
		}
	}
}

// greedy advances the elite set along pathfinder suggestions. When no
// elite can move the set is refilled from the fittest frontier nodes.
func (s *Solver) greedy() {
	var next []*Node
	for _, e := range s.elites {
		for _, sug := range s.tree.Evaluator().BestMoves(e.Board()) {
			child, ok := s.mutate(e, sug.Command, "greedy")
			if ok {
				next = append(next, child)
			}
		}
	}

	if len(next) == 0 {
		byFitness(s.frontier)
		n := s.config.Search.Population
		if n > len(s.frontier) {
			n = len(s.frontier)
		}
		s.elites = append([]*Node(nil), s.frontier[:n]...)
		return
	}

	byFitness(next)
	if len(next) > s.config.Search.Population {
		next = next[:s.config.Search.Population]
	}
	s.elites = next
	s.frontier = append(s.frontier, next...)
}

// mutate applies cmd to n and filters children that cannot be searched
// further. Ended children still count toward the best node.
func (s *Solver) mutate(n *Node, cmd board.Command, phase string) (*Node, bool) {
	child, err := n.Mutate(cmd)
	switch {
	case errors.Is(err, ErrNoProgress):
		s.metrics.rejected(rejectNoProgress)
		return nil, false
	case err != nil:
		s.metrics.rejected(rejectEnded)
		return nil, false
	}
	s.metrics.nodeCreated(phase)
	if child.Board().Ended() {
		s.metrics.rejected(rejectEnded)
		return nil, false
	}
	if child.Fitness() == 0 {
		s.metrics.rejected(rejectZeroFitness)
		return nil, false
	}
	return child, true
}

// finalize turns the best node into a solution, aborting a running game
// so its collected lambdas are banked.
func (s *Solver) finalize(ctx context.Context, reason string) *Result {
	best := s.tree.Best()
	b := best.Board()
	forced := false
	if !b.Ended() {
		b = b.PlayerAction(board.Abort)
		forced = true
	}
	s.tracer.TraceFinalize(ctx, reason, forced)

	exhaustedBy := ""
	if reason == StopBudget {
		exhaustedBy = s.budget.ExhaustedBy()
	}
	return &Result{
		RunID:       s.runID,
		Moves:       b.Moves(),
		Score:       b.Score(),
		Outcome:     b.Outcome(),
		OutcomeStr:  b.Outcome().String(),
		StopReason:  reason,
		ExhaustedBy: exhaustedBy,
		Iterations:  s.budget.Iterations(),
		Nodes:       s.tree.TotalNodes(),
		MaxDepth:    s.tree.MaxDepth(),
		Elapsed:     s.budget.Elapsed(),
		Seed:        s.seed,
	}
}
