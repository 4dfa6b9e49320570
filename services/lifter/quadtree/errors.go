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

import "errors"

// Sentinel errors for the quadtree package.
var (
	// Construction errors
	ErrEmptyGrid  = errors.New("grid has no cells")
	ErrRaggedGrid = errors.New("grid rows have different lengths")

	// Structural faults. These are raised with panic because they can only
	// come from a broken write-set partition, never from user input.
	ErrOutsideLeaf = errors.New("write addressed outside leaf cell")
	ErrNoQuadrant  = errors.New("write addressed an empty quadrant")
)
