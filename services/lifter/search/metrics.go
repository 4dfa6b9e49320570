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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as metric labels.
const (
	rejectNoProgress  = "no_progress"
	rejectEnded       = "ended"
	rejectZeroFitness = "zero_fitness"
)

// -----------------------------------------------------------------------------
// Search Metrics
// -----------------------------------------------------------------------------

var (
	// nodesCreatedTotal counts successful mutations by phase.
	//
	// Labels:
	//   - phase: "explore" or "greedy"
	nodesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "nodes_created_total",
			Help:      "Total search nodes created by solver phase",
		},
		[]string{"phase"},
	)

	// mutationsRejectedTotal counts children discarded during expansion.
	//
	// Labels:
	//   - reason: "no_progress", "ended" or "zero_fitness"
	mutationsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "mutations_rejected_total",
			Help:      "Total discarded mutations by reason",
		},
		[]string{"reason"},
	)

	// chopsTotal counts frontier re-chops.
	chopsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "frontier_chops_total",
			Help:      "Total frontier shrinks by diversity chop",
		},
	)

	// solvesTotal counts finished solves.
	//
	// Labels:
	//   - stop: "cancelled", "budget", "frontier_empty" or "error"
	solvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "solves_total",
			Help:      "Total solves by stop reason",
		},
		[]string{"stop"},
	)

	// frontierSize tracks the frontier size of the most recent iteration.
	frontierSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "frontier_size",
			Help:      "Frontier size after the latest iteration",
		},
	)

	// bestScore tracks the best score of the most recent solve.
	bestScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "best_score",
			Help:      "Best game score of the latest solve",
		},
	)

	// iterationDuration measures solver iteration latency.
	iterationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lifter",
			Subsystem: "search",
			Name:      "iteration_duration_seconds",
			Help:      "Duration of one explore plus greedy iteration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)
)

// metrics records solver metrics when enabled.
type metrics struct {
	enabled bool
}

func (m metrics) nodeCreated(phase string) {
	if m.enabled {
		nodesCreatedTotal.WithLabelValues(phase).Inc()
	}
}

func (m metrics) rejected(reason string) {
	if m.enabled {
		mutationsRejectedTotal.WithLabelValues(reason).Inc()
	}
}

func (m metrics) chopped() {
	if m.enabled {
		chopsTotal.Inc()
	}
}

func (m metrics) iteration(frontier int, d time.Duration) {
	if m.enabled {
		frontierSize.Set(float64(frontier))
		iterationDuration.Observe(d.Seconds())
	}
}

func (m metrics) solved(stop string, score int) {
	if m.enabled {
		solvesTotal.WithLabelValues(stop).Inc()
		bestScore.Set(float64(score))
	}
}
