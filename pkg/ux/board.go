// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var glyphStyles = map[byte]lipgloss.Style{
	'#':  lipgloss.NewStyle().Foreground(ColorSlate),
	'.':  lipgloss.NewStyle().Foreground(ColorEarth),
	'*':  lipgloss.NewStyle().Foreground(ColorRock),
	'@':  lipgloss.NewStyle().Foreground(ColorRock).Bold(true),
	'\\': lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	'R':  lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
	'L':  lipgloss.NewStyle().Foreground(ColorError),
	'O':  lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
	'W':  lipgloss.NewStyle().Foreground(ColorBeard),
	'!':  lipgloss.NewStyle().Foreground(ColorTealPrimary),
}

// Board renders grid rows. With colours enabled each glyph gets its
// style and rows at or below waterLevel get a sea background; otherwise
// the rows are returned unchanged.
//
// Inputs:
//   - rows: Grid rows, top row first.
//   - waterLevel: First flooded row from the top.
//
// Outputs:
//   - string: Rows joined by newlines, no trailing newline.
func Board(rows []string, waterLevel int) string {
	if !ShouldShowColors() {
		return strings.Join(rows, "\n")
	}

	var sb strings.Builder
	for y, row := range rows {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for i := 0; i < len(row); i++ {
			cell := string(row[i])
			style, ok := glyphStyles[row[i]]
			switch {
			case ok && y >= waterLevel:
				cell = style.Inherit(Styles.Water).Render(cell)
			case ok:
				cell = style.Render(cell)
			case y >= waterLevel:
				cell = Styles.Water.Render(cell)
			}
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
