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
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
)

// benchResult is one row of the bench table.
type benchResult struct {
	Mine       string
	Score      int
	Outcome    string
	Moves      int
	Iterations int64
	Elapsed    time.Duration
}

// newBenchCmd builds "lifter bench".
//
// Every mine is solved independently with the same config, several at a
// time, and the scores are tabulated. Running it with two fitness configs
// compares their constants on the same mines.
func newBenchCmd(a *app) *cobra.Command {
	var (
		configPath string
		timeLimit  time.Duration
		parallel   int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:     "bench <mine-file>...",
		Short:   "Solve several mines in parallel and tabulate the scores",
		Example: "  lifter bench maps/*.map --time-limit 10s --config fitness-b.yaml",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := search.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg.Budget.TimeLimit = timeLimit
			cfg.Search.Seed = seed

			results, err := a.bench(ctx, args, cfg, parallel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			writeBenchTable(cmd.OutOrStdout(), results)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "solver config file (YAML or JSON)")
	f.DurationVar(&timeLimit, "time-limit", 10*time.Second, "time limit per mine")
	f.IntVar(&parallel, "parallel", runtime.GOMAXPROCS(0), "mines solved at once")
	f.Int64Var(&seed, "seed", 1, "random seed for every solve, 0 picks one per solve")
	return cmd
}

// bench solves every mine on its own tree. A failing mine stops the rest.
func (a *app) bench(ctx context.Context, mines []string, cfg search.FullConfig, parallel int, progress io.Writer) ([]benchResult, error) {
	results := make([]benchResult, len(mines))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	var (
		mu   sync.Mutex
		done int
	)
	for i, mine := range mines {
		g.Go(func() error {
			b, _, err := readMine(mine, nil)
			if err != nil {
				return err
			}
			res, err := search.NewSolver(b, cfg, search.WithLogger(a.logger.Slog())).Run(gctx)
			if err != nil {
				return fmt.Errorf("solve %s: %w", mine, err)
			}
			results[i] = benchResult{
				Mine:       filepath.Base(mine),
				Score:      res.Score,
				Outcome:    res.OutcomeStr,
				Moves:      len(res.Moves),
				Iterations: res.Iterations,
				Elapsed:    res.Elapsed,
			}

			mu.Lock()
			done++
			fmt.Fprintf(progress, "\r%s %s", ux.ProgressBar(done, len(mines), 30), filepath.Base(mine))
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	fmt.Fprintln(progress)
	return results, nil
}

func writeBenchTable(w io.Writer, results []benchResult) {
	total := 0
	rows := make([][]string, 0, len(results)+1)
	for _, r := range results {
		total += r.Score
		rows = append(rows, []string{
			r.Mine,
			strconv.Itoa(r.Score),
			r.Outcome,
			strconv.Itoa(r.Moves),
			strconv.FormatInt(r.Iterations, 10),
			r.Elapsed.Round(time.Millisecond).String(),
		})
	}

	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4], row[5])
		}
		fmt.Fprintf(w, "total\t%d\n", total)
		return
	}

	rows = append(rows, []string{"total", strconv.Itoa(total), "", "", "", ""})
	t := table.New().
		Border(ux.Styles.Box.GetBorderStyle()).
		BorderStyle(ux.Styles.Muted).
		Headers("mine", "score", "outcome", "moves", "iterations", "elapsed").
		Rows(rows...)
	fmt.Fprintln(w, t.String())
}
