// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the lifter CLI.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Aleutian color palette - deep ocean teals and arctic waters
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // Deep teal - borders, accents
	ColorDeepSea     = lipgloss.Color("#104855") // Deep sea blue - flooded rows
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text, walls

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorEarth   = lipgloss.Color("#8B6B4A")
	ColorRock    = lipgloss.Color("#A0A8B0")
	ColorBeard   = lipgloss.Color("#4CAF50")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Box lipgloss.Style

	Water lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),

	Water: lipgloss.NewStyle().Background(ColorDeepSea),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Title writes a styled title. Machine output skips it.
func Title(w io.Writer, text string) {
	if GetPersonality().Level == PersonalityMachine {
		return
	}
	fmt.Fprintln(w, Styles.Title.Render(text))
}

// Success writes a success message with checkmark
func Success(w io.Writer, text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(w, "OK: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning writes a warning message
func Warning(w io.Writer, text string) {
	switch GetPersonality().Level {
	case PersonalityMachine:
		fmt.Fprintf(w, "WARN: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(w, "%s %s\n", IconWarning.Render(), text)
	default:
		fmt.Fprintf(w, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Info writes an informational line
func Info(w io.Writer, text string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Box writes text in a rounded box
func Box(w io.Writer, title, content string) {
	if GetPersonality().Level == PersonalityMachine {
		fmt.Fprintf(w, "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// ProgressBar renders a simple progress bar
func ProgressBar(current, total int, width int) string {
	if GetPersonality().Level == PersonalityMachine || total <= 0 {
		return fmt.Sprintf("%d/%d", current, total)
	}
	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))
	empty := width - filled

	bar := Styles.Success.Render(repeatChar('█', filled)) +
		Styles.Muted.Render(repeatChar('░', empty))

	return fmt.Sprintf("%s %3.0f%%", bar, pct*100)
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(c), n)
}
