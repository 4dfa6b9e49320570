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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/pkg/validation"
	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
)

// newArchiveCmd builds "lifter archive" and its list, show and delete
// subcommands. Solutions are addressed by any unique fingerprint prefix.
func newArchiveCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the best known solutions",
	}
	cmd.PersistentFlags().StringVar(&path, "archive-path", defaultArchivePath(), "solution archive directory")

	withArchive := func(fn func(cmd *cobra.Command, arc *archive.Archive, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			arc, err := a.openArchive(path)
			if err != nil {
				return err
			}
			defer arc.Close()
			return fn(cmd, arc, args)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived solutions",
		Args:  cobra.NoArgs,
		RunE: withArchive(func(cmd *cobra.Command, arc *archive.Archive, _ []string) error {
			recs, err := arc.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				ux.Info(out, "archive is empty")
				return nil
			}
			if ux.GetPersonality().Level == ux.PersonalityMachine {
				for _, r := range recs {
					fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", archive.Short(r.Fingerprint), r.Name, r.Score, r.Outcome)
				}
				return nil
			}
			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, []string{
					archive.Short(r.Fingerprint),
					r.Name,
					strconv.Itoa(r.Score),
					r.Outcome,
					r.SolvedAt.Local().Format(time.DateTime),
				})
			}
			t := table.New().
				Border(ux.Styles.Box.GetBorderStyle()).
				BorderStyle(ux.Styles.Muted).
				Headers("fingerprint", "mine", "score", "outcome", "solved").
				Rows(rows...)
			fmt.Fprintln(out, t.String())
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show <fingerprint-prefix>",
		Short: "Print an archived command string",
		Args:  cobra.ExactArgs(1),
		RunE: withArchive(func(cmd *cobra.Command, arc *archive.Archive, args []string) error {
			rec, err := find(cmd, arc, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ux.GetPersonality().Level == ux.PersonalityMachine {
				fmt.Fprintln(out, rec.Moves)
				return nil
			}
			ux.Box(out, fmt.Sprintf("%s  %s", archive.Short(rec.Fingerprint), rec.Name),
				fmt.Sprintf("score   %d (%s)\nseed    %d\nrun     %s\nmoves   %s", rec.Score, rec.Outcome, rec.Seed, rec.RunID, rec.Moves))
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete <fingerprint-prefix>",
		Short: "Forget an archived solution",
		Args:  cobra.ExactArgs(1),
		RunE: withArchive(func(cmd *cobra.Command, arc *archive.Archive, args []string) error {
			rec, err := find(cmd, arc, args[0])
			if err != nil {
				return err
			}
			if err := arc.Delete(cmd.Context(), rec.Fingerprint); err != nil {
				return err
			}
			ux.Success(cmd.OutOrStdout(), "deleted "+archive.Short(rec.Fingerprint))
			return nil
		}),
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func find(cmd *cobra.Command, arc *archive.Archive, arg string) (archive.Record, error) {
	prefix, err := validation.SanitizeFingerprintPrefix(arg)
	if err != nil {
		return archive.Record{}, err
	}
	rec, err := arc.Find(cmd.Context(), prefix)
	if errors.Is(err, archive.ErrNotFound) {
		return rec, fmt.Errorf("no single solution matches %q: %w", prefix, err)
	}
	return rec, err
}
