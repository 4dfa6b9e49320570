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
	"fmt"
	"sort"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

// Node is one board state in the search tree.
//
// Thread Safety: Immutable after creation except for the expanded flag,
// which only the owning solve loop touches.
type Node struct {
	tree   *Tree
	parent *Node
	id     int64

	board   board.Board
	depth   int
	command board.Command
	fitness float64

	expanded bool
}

// ID returns the node number, unique within its tree.
func (n *Node) ID() int64 { return n.id }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Board returns the board state.
func (n *Node) Board() board.Board { return n.board }

// Depth returns the number of commands from the root.
func (n *Node) Depth() int { return n.depth }

// Command returns the command that produced the node.
func (n *Node) Command() board.Command { return n.command }

// Fitness returns the evaluator score computed at creation.
func (n *Node) Fitness() float64 { return n.fitness }

// Score returns the game score.
func (n *Node) Score() int { return n.board.Score() }

// Moves returns the command string from the root.
func (n *Node) Moves() string { return n.board.Moves() }

func (n *Node) String() string {
	return fmt.Sprintf("Node{id=%d, depth=%d, score=%d, fitness=%.4f, moves=%q}",
		n.id, n.depth, n.board.Score(), n.fitness, n.board.Moves())
}

// Mutate applies cmd followed by one environment step.
//
// Inputs:
//   - cmd: The robot command.
//
// Outputs:
//   - *Node: The child node, scored and registered with the tree.
//   - error: ErrEnded if the parent game is over, ErrNoProgress if the
//     command and step left the grid unchanged.
func (n *Node) Mutate(cmd board.Command) (*Node, error) {
	if n.board.Ended() {
		return nil, ErrEnded
	}
	next := n.board.PlayerAction(cmd).Step()
	if next.Revision() == n.board.Revision() {
		return nil, ErrNoProgress
	}

	child := &Node{
		tree:    n.tree,
		parent:  n,
		id:      n.tree.nextID(),
		board:   next,
		depth:   n.depth + 1,
		command: cmd,
	}
	child.fitness = n.tree.evaluator.Calculate(child)
	n.tree.adopt(child)
	return child, nil
}

// byFitness sorts nodes fittest first; ties go to the older node.
func byFitness(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].fitness != nodes[j].fitness {
			return nodes[i].fitness > nodes[j].fitness
		}
		return nodes[i].id < nodes[j].id
	})
}
