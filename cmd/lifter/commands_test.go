// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

const corridor = "#R\\L#"

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--output", "machine"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeMine(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	return path
}

// fastSearch caps every solve at a few iterations.
func fastSearch(t *testing.T) {
	t.Helper()
	t.Setenv("LIFTER_MAX_ITERATIONS", "5")
	t.Setenv("LIFTER_TRACING_ENABLED", "false")
}

// ===== solve =====

func TestSolve_FromStdin(t *testing.T) {
	fastSearch(t)

	out, errOut, err := run(t, corridor, "solve", "--seed", "1")
	require.NoError(t, err)
	assert.Equal(t, "RR\n", out)
	assert.Contains(t, errOut, "OK: stdin: score 73 (exited)")
}

func TestSolve_JSON(t *testing.T) {
	fastSearch(t)
	mine := writeMine(t, t.TempDir(), "corridor.map", corridor)

	out, _, err := run(t, "", "solve", "--json", "--seed", "1", mine)
	require.NoError(t, err)
	assert.Contains(t, out, `"moves": "RR"`)
	assert.Contains(t, out, `"score": 73`)
	assert.Contains(t, out, `"stop_reason": "budget"`)
	assert.Contains(t, out, `"exhausted_by": "iterations"`)
	assert.NotContains(t, out, `"best"`)
}

func TestSolve_BadMine(t *testing.T) {
	_, _, err := run(t, "####", "solve")
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrNoRobot)
}

func TestSolve_MissingFile(t *testing.T) {
	_, _, err := run(t, "", "solve", filepath.Join(t.TempDir(), "nope.map"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ===== archive =====

func TestSolve_ArchiveRoundTrip(t *testing.T) {
	fastSearch(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "archive")
	mine := writeMine(t, dir, "corridor.map", corridor)

	_, _, err := run(t, "", "solve", "--archive", "--archive-path", store, "--name", "corridor", "--seed", "1", mine)
	require.NoError(t, err)

	// Same score again keeps the archived record.
	_, errOut, err := run(t, "", "solve", "--archive", "--archive-path", store, "--seed", "2", mine)
	require.NoError(t, err)
	assert.Contains(t, errOut, "kept archived solution")

	out, _, err := run(t, "", "archive", "list", "--archive-path", store)
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(out), "\t")
	require.Len(t, fields, 4)
	assert.Len(t, fields[0], 12)
	assert.Equal(t, []string{"corridor", "73", "exited"}, fields[1:])

	out, _, err = run(t, "", "archive", "show", "--archive-path", store, fields[0][:6])
	require.NoError(t, err)
	assert.Equal(t, "RR\n", out)

	_, _, err = run(t, "", "archive", "delete", "--archive-path", store, fields[0])
	require.NoError(t, err)

	out, _, err = run(t, "", "archive", "list", "--archive-path", store)
	require.NoError(t, err)
	assert.Contains(t, out, "archive is empty")

	_, _, err = run(t, "", "archive", "show", "--archive-path", store, fields[0])
	assert.Error(t, err)
}

func TestSolve_ReportsArchivedBest(t *testing.T) {
	fastSearch(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "archive")
	mine := writeMine(t, dir, "corridor.map", corridor)

	_, _, err := run(t, "", "solve", "--archive", "--archive-path", store, "--seed", "1", mine)
	require.NoError(t, err)

	// A run with no time only aborts, so the archived exit wins and the
	// summary describes the printed solution, not this run.
	out, errOut, err := run(t, "", "solve", "--archive", "--archive-path", store, "--time-limit", "1ns", mine)
	require.NoError(t, err)
	assert.Equal(t, "RR\n", out)
	assert.Contains(t, errOut, "score 73 (exited)")
	assert.Contains(t, errOut, "this run scored 0")

	out, _, err = run(t, "", "solve", "--archive", "--archive-path", store, "--time-limit", "1ns", "--json", mine)
	require.NoError(t, err)
	var doc struct {
		Moves string `json:"moves"`
		Score int    `json:"score"`
		Best  *struct {
			Moves   string `json:"moves"`
			Score   int    `json:"score"`
			Outcome string `json:"outcome"`
		} `json:"best"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "A", doc.Moves)
	assert.Equal(t, 0, doc.Score)
	require.NotNil(t, doc.Best)
	assert.Equal(t, "RR", doc.Best.Moves)
	assert.Equal(t, 73, doc.Best.Score)
	assert.Equal(t, "exited", doc.Best.Outcome)
}

// ===== replay =====

func TestReplay_Moves(t *testing.T) {
	mine := writeMine(t, t.TempDir(), "corridor.map", corridor)

	out, _, err := run(t, "", "replay", "--plain", "--moves", "RRL", mine)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), "config header first")
	assert.Contains(t, out, `"growth":25`)
	// Initial board plus one board per command until the robot exits.
	assert.Equal(t, 3, strings.Count(out, "Razors 0"))
}

func TestReplay_Stdin(t *testing.T) {
	mine := writeMine(t, t.TempDir(), "corridor.map", corridor)

	out, _, err := run(t, "A", "replay", "--plain", mine)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Razors 0"))
}

func TestReplay_RejectsStdinMine(t *testing.T) {
	_, _, err := run(t, "", "replay", "-")
	assert.Error(t, err)
}

// ===== bench =====

func TestBench_Table(t *testing.T) {
	fastSearch(t)
	dir := t.TempDir()
	a := writeMine(t, dir, "a.map", corridor)
	b := writeMine(t, dir, "b.map", "#L\\R#")

	out, errOut, err := run(t, "", "bench", "--time-limit", "5s", "--parallel", "2", a, b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "a.map\t73\texited\t2\t"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "b.map\t73\texited\t2\t"), lines[1])
	assert.Equal(t, "total\t146", lines[2])
	assert.Contains(t, errOut, "2/2")
}

func TestBench_FailingMine(t *testing.T) {
	fastSearch(t)
	dir := t.TempDir()
	good := writeMine(t, dir, "good.map", corridor)
	bad := writeMine(t, dir, "bad.map", "###")

	_, _, err := run(t, "", "bench", good, bad)
	assert.ErrorIs(t, err, board.ErrNoRobot)
}

// ===== serve =====

func TestServe_WatchConfigNeedsConfig(t *testing.T) {
	_, _, err := run(t, "", "serve", "--watch-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch-config needs --config")
}

// ===== root =====

func TestRoot_BadLogLevel(t *testing.T) {
	_, _, err := run(t, corridor, "--log-level", "loud", "solve")
	assert.Error(t, err)
}

func TestReadMine(t *testing.T) {
	b, name, err := readMine("-", strings.NewReader(corridor))
	require.NoError(t, err)
	assert.Equal(t, "stdin", name)
	assert.Equal(t, 1, b.Remaining())

	_, _, err = readMine("", iotaReader{})
	assert.Error(t, err)
}

// iotaReader fails every read.
type iotaReader struct{}

func (iotaReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
