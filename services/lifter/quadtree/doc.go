// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package quadtree provides the persistent spatial index behind a lifter board.
//
// A Node covers a half-open rectangle of the grid. Leaves hold one glyph;
// branches split their rectangle at the integer midpoint into four quadrants
// and cache the merged entity positions of their children:
//
//	┌──────────┬──────────┐
//	│    0     │    1     │   index = X-half + 2·Y-half
//	│ [min,mid)│          │
//	├──────────┼──────────┤
//	│    2     │    3     │
//	│          │ [mid,max)│
//	└──────────┴──────────┘
//
// Quadrants with zero area are nil. Nodes are never mutated after
// construction: Update returns a new root that reuses every untouched subtree
// by reference, so many board generations can share memory safely.
//
// # Thread Safety
//
// Nodes are immutable and safe for concurrent reads.
package quadtree
