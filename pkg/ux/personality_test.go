// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"testing"
)

// =============================================================================
// GetPersonality / SetPersonality Tests
// =============================================================================

func TestSetPersonality_AndGet(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonality(Personality{Level: PersonalityMinimal})

	if got := GetPersonality().Level; got != PersonalityMinimal {
		t.Errorf("expected level %v, got %v", PersonalityMinimal, got)
	}
}

func TestSetPersonalityLevel(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	for _, level := range []PersonalityLevel{PersonalityFull, PersonalityMinimal, PersonalityMachine} {
		SetPersonalityLevel(level)
		if got := GetPersonality().Level; got != level {
			t.Errorf("expected %v, got %v", level, got)
		}
	}
}

// =============================================================================
// ParsePersonalityLevel Tests
// =============================================================================

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"F", PersonalityFull},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"", PersonalityMinimal},
		{"loud", PersonalityMinimal},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.input); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// InitPersonality Tests
// =============================================================================

func TestInitPersonality_WithEnvVar(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	t.Setenv("LIFTER_OUTPUT", "machine")
	InitPersonality()

	if GetPersonality().Level != PersonalityMachine {
		t.Errorf("expected PersonalityMachine from env, got %v", GetPersonality().Level)
	}
}

func TestInitPersonality_NoEnvVar(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	t.Setenv("LIFTER_OUTPUT", "")
	InitPersonality()

	want := PersonalityMachine
	if IsTerminal(os.Stdout) {
		want = PersonalityFull
	}
	if got := GetPersonality().Level; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}

// =============================================================================
// ShouldShowColors Tests
// =============================================================================

func TestShouldShowColors(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityFull)
	if !ShouldShowColors() {
		t.Error("expected colors in full mode")
	}
	SetPersonalityLevel(PersonalityMinimal)
	if ShouldShowColors() {
		t.Error("expected no colors in minimal mode")
	}
	SetPersonalityLevel(PersonalityMachine)
	if ShouldShowColors() {
		t.Error("expected no colors in machine mode")
	}
}

// =============================================================================
// Concurrency Safety Tests
// =============================================================================

func TestPersonality_ConcurrentAccess(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	levels := []PersonalityLevel{PersonalityFull, PersonalityMinimal, PersonalityMachine}
	done := make(chan bool, 10)

	for i := 0; i < 5; i++ {
		go func(level PersonalityLevel) {
			SetPersonalityLevel(level)
			done <- true
		}(levels[i%len(levels)])
	}
	for i := 0; i < 5; i++ {
		go func() {
			_ = GetPersonality()
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
