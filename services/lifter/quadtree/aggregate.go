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

// Aggregate holds the positions of notable entities inside a node.
//
// Slices are shared between nodes and must be treated as read-only.
// Positions are listed in quadrant order (0..3), recursively, which for a
// freshly built tree is a deterministic z-like order.
type Aggregate struct {
	Lambdas     []Point
	Rocks       []Point
	HORocks     []Point
	Beards      []Point
	Trampolines []Point
	Targets     []Point

	Lift     Point
	HasLift  bool
	Robot    Point
	HasRobot bool
}

// leafAggregate classifies a single glyph at p.
func leafAggregate(p Point, g byte) Aggregate {
	var a Aggregate
	one := []Point{p}
	switch {
	case g == Lambda:
		a.Lambdas = one
	case g == Rock:
		a.Rocks = one
	case g == HORock:
		a.HORocks = one
	case g == Beard:
		a.Beards = one
	case g == Robot:
		a.Robot, a.HasRobot = p, true
	case IsLift(g):
		a.Lift, a.HasLift = p, true
	case IsTrampoline(g):
		a.Trampolines = one
	case IsTarget(g):
		a.Targets = one
	}
	return a
}

// mergeAggregates combines the aggregates of up to four children.
// The first lift and robot found in quadrant order win.
func mergeAggregates(kids *[4]*Node) Aggregate {
	var a Aggregate
	a.Lambdas = concat(kids, func(x *Aggregate) []Point { return x.Lambdas })
	a.Rocks = concat(kids, func(x *Aggregate) []Point { return x.Rocks })
	a.HORocks = concat(kids, func(x *Aggregate) []Point { return x.HORocks })
	a.Beards = concat(kids, func(x *Aggregate) []Point { return x.Beards })
	a.Trampolines = concat(kids, func(x *Aggregate) []Point { return x.Trampolines })
	a.Targets = concat(kids, func(x *Aggregate) []Point { return x.Targets })

	for _, k := range kids {
		if k == nil {
			continue
		}
		if !a.HasLift && k.agg.HasLift {
			a.Lift, a.HasLift = k.agg.Lift, true
		}
		if !a.HasRobot && k.agg.HasRobot {
			a.Robot, a.HasRobot = k.agg.Robot, true
		}
	}
	return a
}

// concat joins one entity list across children. When only one child holds
// entries its slice is reused as is, which keeps sparse updates cheap.
func concat(kids *[4]*Node, pick func(*Aggregate) []Point) []Point {
	var only []Point
	total, filled := 0, 0
	for _, k := range kids {
		if k == nil {
			continue
		}
		if s := pick(&k.agg); len(s) > 0 {
			only = s
			total += len(s)
			filled++
		}
	}
	switch filled {
	case 0:
		return nil
	case 1:
		return only[:len(only):len(only)]
	}

	out := make([]Point, 0, total)
	for _, k := range kids {
		if k == nil {
			continue
		}
		out = append(out, pick(&k.agg)...)
	}
	return out
}
