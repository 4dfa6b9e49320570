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
	"sort"
)

// Chop selects up to keep nodes while spreading the selection across
// move histories.
//
// Description:
//
//	Nodes are bucketed by their movement trail at the given level, coarsest
//	first. Every bucket gets one slot and the remaining slots go to buckets
//	by highest average (size / slots), so shares stay proportional to
//	bucket size and always sum to keep. Each bucket is then chopped again
//	at the next finer level. At the finest level, or when a bucket fits
//	its share, the fittest nodes are taken. With more buckets than slots
//	the fittest node of each bucket competes for the slots.
//
// Inputs:
//   - nodes: Candidates. Not modified.
//   - keep: Maximum number of nodes to return.
//   - level: Trail level to start bucketing at, normally 0.
//
// Outputs:
//   - []*Node: Selected nodes, fittest first.
func Chop(nodes []*Node, keep, level int) []*Node {
	if keep <= 0 || len(nodes) == 0 {
		return nil
	}
	out := chop(nodes, keep, level)
	byFitness(out)
	return out
}

func chop(nodes []*Node, keep, level int) []*Node {
	if len(nodes) <= keep {
		return append([]*Node(nil), nodes...)
	}
	if level >= nodes[0].board.Levels() {
		return fittest(nodes, keep)
	}

	buckets := make(map[string][]*Node)
	for _, n := range nodes {
		key := n.board.Trail(level)
		buckets[key] = append(buckets[key], n)
	}
	if len(buckets) == 1 {
		return chop(nodes, keep, level+1)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) >= keep {
		heads := make([]*Node, 0, len(keys))
		for _, k := range keys {
			heads = append(heads, chop(buckets[k], 1, level+1)...)
		}
		return fittest(heads, keep)
	}

	quotas := make([]int, len(keys))
	for i := range quotas {
		quotas[i] = 1
	}
	for left := keep - len(keys); left > 0; left-- {
		pick := -1
		var pickAvg float64
		for i, k := range keys {
			size := len(buckets[k])
			if quotas[i] >= size {
				continue
			}
			avg := float64(size) / float64(quotas[i])
			if pick < 0 || avg > pickAvg {
				pick, pickAvg = i, avg
			}
		}
		if pick < 0 {
			break
		}
		quotas[pick]++
	}

	var out []*Node
	for i, k := range keys {
		out = append(out, chop(buckets[k], quotas[i], level+1)...)
	}
	return out
}

func fittest(nodes []*Node, keep int) []*Node {
	sorted := append([]*Node(nil), nodes...)
	byFitness(sorted)
	if len(sorted) > keep {
		sorted = sorted[:keep]
	}
	return sorted
}
