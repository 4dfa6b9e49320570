// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import "errors"

// Sentinel errors for the board package.
var (
	// Parse errors
	ErrEmptyGrid = errors.New("board text has no grid")
	ErrNoRobot   = errors.New("board has no robot")

	// Config errors
	ErrInvalidConfig = errors.New("invalid board config")
	ErrUnknownTarget = errors.New("trampoline target not on grid")

	// Command errors
	ErrInvalidCommand = errors.New("invalid command")
)
