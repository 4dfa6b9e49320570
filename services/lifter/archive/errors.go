// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import "errors"

var (
	// ErrNotFound is returned when no solution is archived for a board.
	ErrNotFound = errors.New("solution not found")

	// ErrNoPath is returned when a persistent archive has no directory.
	ErrNoPath = errors.New("path is required for persistent archive")

	// ErrInvalidRecord is returned for a record without fingerprint or moves.
	ErrInvalidRecord = errors.New("invalid solution record")
)
