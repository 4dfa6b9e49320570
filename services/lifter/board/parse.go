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

import (
	"strconv"
	"strings"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// Parse reads a map file: a grid block, a blank line, then metadata lines.
//
// Description:
//
//	Short rows are padded with empty cells to the longest row. Metadata
//	lines are "Water N", "Flooding N", "Waterproof N", "Growth N",
//	"Razors N" and "Trampoline X targets N". Unknown or malformed
//	metadata lines are ignored.
//
// Inputs:
//   - text: The map text. CRLF line endings are accepted.
//
// Outputs:
//   - Board: The initial board.
//   - error: Any error New returns.
func Parse(text string) (Board, error) {
	rows, cfg := Split(text)
	if len(rows) == 0 {
		return Board{}, ErrEmptyGrid
	}
	return New(rows, cfg)
}

// Split separates a map into padded grid rows and its metadata.
func Split(text string) ([]string, Config) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	grid, meta, _ := strings.Cut(text, "\n\n")

	var rows []string
	width := 0
	for _, line := range strings.Split(strings.TrimRight(grid, "\n"), "\n") {
		if line == "" {
			continue
		}
		rows = append(rows, line)
		if len(line) > width {
			width = len(line)
		}
	}
	for i, row := range rows {
		if len(row) < width {
			rows[i] = row + strings.Repeat(string(quadtree.Empty), width-len(row))
		}
	}

	return rows, parseMetadata(meta)
}

func parseMetadata(meta string) Config {
	cfg := DefaultConfig()
	for _, line := range strings.Split(meta, "\n") {
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		if f[0] == "Trampoline" {
			if len(f) == 4 && f[2] == "targets" && len(f[1]) == 1 && len(f[3]) == 1 {
				cfg.Trampolines[f[1][0]] = f[3][0]
			}
			continue
		}
		if len(f) != 2 {
			continue
		}
		n, err := strconv.Atoi(f[1])
		if err != nil {
			continue
		}
		switch f[0] {
		case "Water":
			cfg.Water = n
		case "Flooding":
			cfg.Flooding = n
		case "Waterproof":
			cfg.Waterproof = n
		case "Growth":
			cfg.Growth = n
		case "Razors":
			cfg.Razors = n
		}
	}
	return cfg
}
