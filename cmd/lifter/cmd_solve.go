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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/pkg/validation"
	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// solveOutput is the --json document. Best is the archived record when
// --archive is set, which may be an earlier run's solution.
type solveOutput struct {
	*search.Result
	Best *archive.Record `json:"best,omitempty"`
}

type solveOptions struct {
	configPath  string
	timeLimit   time.Duration
	seed        int64
	archivePath string
	useArchive  bool
	name        string
	jsonOutput  bool
}

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// newSolveCmd builds "lifter solve".
//
// # Description
//
// Reads a mine, searches until the time limit, the frontier runs dry or
// SIGINT/SIGTERM arrives, then prints the best command string on stdout.
// The summary goes to stderr so stdout can be piped straight to a checker.
//
// # Examples
//
//	lifter solve maps/flood1.map
//	lifter solve --time-limit 30s --seed 7 < maps/beard2.map
//	lifter solve --archive maps/trampoline3.map   # keep the best across runs
//	lifter solve --json maps/contest4.map | jq .score
func newSolveCmd(a *app) *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve [mine-file]",
		Short: "Search for the best command string for a mine",
		Long: `Runs the anytime search on a mine and prints the best command string.

The mine is read from the file argument, or from stdin when no file is given.
The search stops at --time-limit, when it runs out of moves to try, or on
SIGINT/SIGTERM. A running game is closed with a final abort.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runSolve(ctx, cmd, optionalArg(args), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "solver config file (YAML or JSON)")
	f.DurationVar(&opts.timeLimit, "time-limit", 0, "stop after this long (default from config)")
	f.Int64Var(&opts.seed, "seed", 0, "random seed, 0 picks one from the clock")
	f.BoolVar(&opts.useArchive, "archive", false, "keep the better of this and the archived solution")
	f.StringVar(&opts.archivePath, "archive-path", defaultArchivePath(), "solution archive directory")
	f.StringVar(&opts.name, "name", "", "name to archive the mine under (default: the file name)")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the full result as JSON, with the archived best under \"best\"")
	return cmd
}

func (a *app) runSolve(ctx context.Context, cmd *cobra.Command, mineFile string, opts *solveOptions) error {
	if err := validation.ValidateMineName(opts.name); err != nil {
		return err
	}
	b, name, err := readMine(mineFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := search.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.timeLimit > 0 {
		cfg.Budget.TimeLimit = opts.timeLimit
	}
	if cmd.Flags().Changed("seed") {
		cfg.Search.Seed = opts.seed
	}

	solver := search.NewSolver(b, cfg, search.WithLogger(a.logger.Slog()))
	res, err := solver.Run(ctx)
	if err != nil {
		return fmt.Errorf("solve %s: %w", name, err)
	}

	best := archive.Record{
		Fingerprint: archive.Fingerprint(b),
		Name:        filepath.Base(name),
		Moves:       res.Moves,
		Score:       res.Score,
		Outcome:     res.OutcomeStr,
		RunID:       res.RunID,
		Seed:        res.Seed,
		SolvedAt:    time.Now().UTC(),
	}
	if opts.name != "" {
		best.Name = opts.name
	}
	improved := true
	if opts.useArchive {
		arc, err := a.openArchive(opts.archivePath)
		if err != nil {
			return err
		}
		defer arc.Close()
		// The search context may already be cancelled by the signal.
		best, improved, err = arc.Keep(context.WithoutCancel(ctx), best)
		if err != nil {
			return err
		}
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	if opts.jsonOutput {
		doc := solveOutput{Result: res}
		if opts.useArchive {
			doc.Best = &best
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	// The printed moves are the archived best, so report its score.
	fmt.Fprintln(out, best.Moves)

	summary := fmt.Sprintf("%s: score %d (%s) in %s, %d iterations, stop: %s",
		name, best.Score, best.Outcome, res.Elapsed.Round(time.Millisecond), res.Iterations, res.StopReason)
	ux.Success(errOut, summary)
	if opts.useArchive && !improved {
		ux.Warning(errOut, fmt.Sprintf("this run scored %d, kept archived solution %s", res.Score, archive.Short(best.Fingerprint)))
	}
	return nil
}
