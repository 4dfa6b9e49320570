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

import (
	"fmt"
	"strings"
)

// Set is a single point write.
type Set struct {
	Pos   Point
	Value byte
}

// Node is an immutable quadtree node.
type Node struct {
	min, max, mid Point

	leaf  bool
	value byte

	kids [4]*Node
	agg  Aggregate
}

// Build creates a quadtree from equal-length rows.
//
// Inputs:
//   - rows: Grid rows, top to bottom. All rows must have the same length.
//
// Outputs:
//   - *Node: Root covering [0,0]-[width,height).
//   - error: ErrEmptyGrid or ErrRaggedGrid.
func Build(rows []string) (*Node, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyGrid
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedGrid, i, len(row), width)
		}
	}
	return build(rows, Pt(0, 0), Pt(width, len(rows))), nil
}

func build(rows []string, min, max Point) *Node {
	if min.X == max.X || min.Y == max.Y {
		return nil
	}
	if max.X-min.X == 1 && max.Y-min.Y == 1 {
		return newLeaf(min, rows[min.Y][min.X])
	}

	mid := midpoint(min, max)
	kids := [4]*Node{
		build(rows, min, mid),
		build(rows, Pt(mid.X, min.Y), Pt(max.X, mid.Y)),
		build(rows, Pt(min.X, mid.Y), Pt(mid.X, max.Y)),
		build(rows, mid, max),
	}
	return newBranch(min, max, mid, kids)
}

func midpoint(min, max Point) Point {
	return Pt((min.X+max.X)>>1, (min.Y+max.Y)>>1)
}

func newLeaf(p Point, g byte) *Node {
	return &Node{
		min:   p,
		max:   Pt(p.X+1, p.Y+1),
		mid:   p,
		leaf:  true,
		value: g,
		agg:   leafAggregate(p, g),
	}
}

func newBranch(min, max, mid Point, kids [4]*Node) *Node {
	n := &Node{min: min, max: max, mid: mid, kids: kids}
	n.agg = mergeAggregates(&n.kids)
	return n
}

// Bounds returns the half-open rectangle covered by the node.
func (n *Node) Bounds() (min, max Point) {
	return n.min, n.max
}

// Width returns the number of columns covered.
func (n *Node) Width() int { return n.max.X - n.min.X }

// Height returns the number of rows covered.
func (n *Node) Height() int { return n.max.Y - n.min.Y }

// IsLeaf reports whether the node holds a single glyph.
func (n *Node) IsLeaf() bool { return n.leaf }

// Child returns quadrant i (0..3); nil for leaves and zero-area quadrants.
func (n *Node) Child(i int) *Node {
	if n.leaf || i < 0 || i > 3 {
		return nil
	}
	return n.kids[i]
}

// Aggregate returns the cached entity positions inside the node.
func (n *Node) Aggregate() *Aggregate {
	return &n.agg
}

func (n *Node) quadrant(p Point) int {
	q := 0
	if p.X >= n.mid.X {
		q |= 1
	}
	if p.Y >= n.mid.Y {
		q |= 2
	}
	return q
}

// Get returns the glyph at p. Cells outside the node read as Wall.
//
// Complexity: O(log(max(width, height))).
func (n *Node) Get(p Point) byte {
	if !p.In(n.min, n.max) {
		return Wall
	}
	node := n
	for !node.leaf {
		node = node.kids[node.quadrant(p)]
		if node == nil {
			return Wall
		}
	}
	return node.value
}

// Update applies a batch of point writes and returns the new root.
//
// Description:
//
//	Partitions sets by quadrant and recurses only into touched children.
//	Untouched children are shared with the receiver. Within one batch the
//	last write to a cell wins. A write that does not change the cell value
//	reuses the existing leaf, so a batch that changes nothing returns the
//	receiver itself.
//
// Inputs:
//   - sets: Point writes; every position must lie inside the node.
//
// Outputs:
//   - *Node: New root, or the receiver when nothing changed.
//   - bool: True if at least one cell value changed.
//
// Panics with ErrOutsideLeaf or ErrNoQuadrant on writes outside the grid.
func (n *Node) Update(sets []Set) (*Node, bool) {
	if len(sets) == 0 {
		return n, false
	}

	if n.leaf {
		for _, s := range sets {
			if s.Pos != n.min {
				panic(fmt.Errorf("%w: %v written to leaf %v", ErrOutsideLeaf, s.Pos, n.min))
			}
		}
		last := sets[len(sets)-1]
		if last.Value == n.value {
			return n, false
		}
		return newLeaf(n.min, last.Value), true
	}

	var parts [4][]Set
	for _, s := range sets {
		q := n.quadrant(s.Pos)
		parts[q] = append(parts[q], s)
	}

	kids := n.kids
	changed := false
	for q, part := range parts {
		if len(part) == 0 {
			continue
		}
		if kids[q] == nil {
			panic(fmt.Errorf("%w: %v in quadrant %d of %v-%v", ErrNoQuadrant, part[0].Pos, q, n.min, n.max))
		}
		kid, ok := kids[q].Update(part)
		if ok {
			kids[q] = kid
			changed = true
		}
	}
	if !changed {
		return n, false
	}
	return newBranch(n.min, n.max, n.mid, kids), true
}

// Depth returns the number of node levels below and including n.
func (n *Node) Depth() int {
	if n.leaf {
		return 1
	}
	d := 0
	for _, k := range n.kids {
		if k != nil {
			if kd := k.Depth(); kd > d {
				d = kd
			}
		}
	}
	return d + 1
}

// Walk visits n and its descendants depth-first in quadrant order.
// Returning false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) || n.leaf {
		return
	}
	for _, k := range n.kids {
		if k != nil {
			k.Walk(fn)
		}
	}
}

// Serialize returns the grid rows top to bottom by point-reading every cell.
func (n *Node) Serialize() []string {
	rows := make([]string, 0, n.Height())
	var sb strings.Builder
	for y := n.min.Y; y < n.max.Y; y++ {
		sb.Reset()
		for x := n.min.X; x < n.max.X; x++ {
			sb.WriteByte(n.Get(Pt(x, y)))
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// String returns the serialized grid joined by newlines.
func (n *Node) String() string {
	return strings.Join(n.Serialize(), "\n")
}

// Levels returns the number of power-of-two scales needed to cover a
// width×height grid, from the full-board scale down to single cells.
func Levels(width, height int) int {
	size := width
	if height > size {
		size = height
	}
	levels := 1
	for s := 1; s < size; s <<= 1 {
		levels++
	}
	return levels
}

// Scale returns the cell size of history level i for a grid with the given
// number of levels. Level 0 is the coarsest.
func Scale(levels, i int) int {
	return 1 << (levels - 1 - i)
}
