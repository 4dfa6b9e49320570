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

import "errors"

// Sentinel errors for the search package.
var (
	// Mutation errors
	ErrNoProgress = errors.New("move did not change the board")
	ErrEnded      = errors.New("game already ended")

	// Budget errors
	ErrBudgetExhausted       = errors.New("search budget exhausted")
	ErrTimeLimitExceeded     = errors.New("time limit exceeded")
	ErrNodeLimitExceeded     = errors.New("node limit exceeded")
	ErrIterationLimitReached = errors.New("iteration limit reached")

	// Solve errors
	ErrInvariantViolation = errors.New("search aborted on internal invariant violation")
	ErrInvalidConfig      = errors.New("invalid search config")
)
