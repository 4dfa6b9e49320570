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
	"sync/atomic"
	"time"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
	"github.com/AleutianAI/AleutianLifter/services/lifter/phi"
)

// Tree owns the search nodes of one solve and the best node found so far.
//
// Thread Safety: NOT safe for concurrent use. A tree belongs to a single
// solve loop.
type Tree struct {
	CreatedAt int64 // Unix milliseconds UTC

	root      *Node
	best      *Node
	evaluator *phi.Evaluator
	budget    *Budget

	totalNodes int64
	maxDepth   int
}

// NewTree creates a tree rooted at the initial board.
//
// Inputs:
//   - b: The initial board.
//   - evaluator: Scores every node.
//   - budget: Records created nodes. May be nil.
//
// Outputs:
//   - *Tree: Tree with the root as its best node.
func NewTree(b board.Board, evaluator *phi.Evaluator, budget *Budget) *Tree {
	if evaluator == nil {
		evaluator = phi.NewEvaluator()
	}
	if budget == nil {
		budget = NewBudget(BudgetConfig{})
	}
	t := &Tree{
		CreatedAt: time.Now().UnixMilli(),
		evaluator: evaluator,
		budget:    budget,
	}
	root := &Node{tree: t, board: b}
	root.id = t.nextID()
	root.fitness = evaluator.Calculate(root)
	t.root = root
	t.best = root
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Best returns the node with the highest score seen so far.
func (t *Tree) Best() *Node { return t.best }

// Evaluator returns the fitness evaluator.
func (t *Tree) Evaluator() *phi.Evaluator { return t.evaluator }

// Budget returns the budget tracker.
func (t *Tree) Budget() *Budget { return t.budget }

// TotalNodes returns the number of nodes created, including the root.
func (t *Tree) TotalNodes() int64 { return atomic.LoadInt64(&t.totalNodes) }

// MaxDepth returns the deepest node created.
func (t *Tree) MaxDepth() int { return t.maxDepth }

func (t *Tree) nextID() int64 {
	return atomic.AddInt64(&t.totalNodes, 1)
}

// adopt registers a new node and replaces the best node on a strictly
// greater score.
func (t *Tree) adopt(n *Node) {
	t.budget.RecordNode()
	if n.depth > t.maxDepth {
		t.maxDepth = n.depth
	}
	if n.board.Score() > t.best.board.Score() {
		t.best = n
	}
}
