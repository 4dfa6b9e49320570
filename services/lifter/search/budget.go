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
	"sync"
	"sync/atomic"
	"time"
)

// Budget tracks resource consumption during a solve.
//
// Description:
//
//	A zero limit disables that limit. Once any limit is hit the budget
//	stays exhausted and keeps reporting the limit that was hit first.
//
// Thread Safety: Safe for concurrent use.
type Budget struct {
	config    BudgetConfig
	startTime time.Time

	// Atomic counters
	nodes      int64
	iterations int64

	mu          sync.RWMutex
	exhausted   error
	exhaustedBy string
}

// NewBudget creates a budget tracker. The clock starts now.
//
// Inputs:
//   - config: Budget limits.
//
// Outputs:
//   - *Budget: Budget tracker, ready to use.
func NewBudget(config BudgetConfig) *Budget {
	return &Budget{
		config:    config,
		startTime: time.Now(),
	}
}

// Config returns the budget limits.
func (b *Budget) Config() BudgetConfig {
	return b.config
}

// Nodes returns the number of nodes created.
func (b *Budget) Nodes() int64 {
	return atomic.LoadInt64(&b.nodes)
}

// RecordNode records a created node.
func (b *Budget) RecordNode() int64 {
	return atomic.AddInt64(&b.nodes, 1)
}

// Iterations returns the number of completed solver iterations.
func (b *Budget) Iterations() int64 {
	return atomic.LoadInt64(&b.iterations)
}

// RecordIteration records a completed solver iteration.
func (b *Budget) RecordIteration() int64 {
	return atomic.AddInt64(&b.iterations, 1)
}

// Elapsed returns time elapsed since the budget was created.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Exhausted reports whether any limit has been reached.
func (b *Budget) Exhausted() bool {
	return b.Check() != nil
}

// ExhaustedBy returns which limit caused exhaustion: "time", "nodes" or
// "iterations". Empty if not exhausted.
func (b *Budget) ExhaustedBy() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhaustedBy
}

// Check tests the limits in order time, nodes, iterations.
//
// Outputs:
//   - error: Nil while within budget. Otherwise wraps ErrBudgetExhausted
//     and the sentinel of the limit hit first (ErrTimeLimitExceeded,
//     ErrNodeLimitExceeded or ErrIterationLimitReached). Later calls
//     return the same error.
func (b *Budget) Check() error {
	b.mu.RLock()
	err := b.exhausted
	b.mu.RUnlock()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exhausted != nil {
		return b.exhausted
	}

	var limit error
	switch {
	case b.config.TimeLimit > 0 && time.Since(b.startTime) >= b.config.TimeLimit:
		b.exhaustedBy, limit = "time", ErrTimeLimitExceeded
	case b.config.MaxNodes > 0 && atomic.LoadInt64(&b.nodes) >= int64(b.config.MaxNodes):
		b.exhaustedBy, limit = "nodes", ErrNodeLimitExceeded
	case b.config.MaxIterations > 0 && atomic.LoadInt64(&b.iterations) >= int64(b.config.MaxIterations):
		b.exhaustedBy, limit = "iterations", ErrIterationLimitReached
	default:
		return nil
	}
	b.exhausted = fmt.Errorf("%w: %w", ErrBudgetExhausted, limit)
	return b.exhausted
}

// UsageReport summarizes budget consumption.
type UsageReport struct {
	Elapsed     time.Duration
	Nodes       int64
	Iterations  int64
	Exhausted   bool
	ExhaustedBy string
}

// Report generates a usage report. It does not test the limits, so a
// solve that stopped for another reason reports Exhausted false.
func (b *Budget) Report() UsageReport {
	by := b.ExhaustedBy()
	return UsageReport{
		Elapsed:     b.Elapsed(),
		Nodes:       b.Nodes(),
		Iterations:  b.Iterations(),
		Exhausted:   by != "",
		ExhaustedBy: by,
	}
}
