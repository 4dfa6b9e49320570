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
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLifter/services/lifter/replay"
)

// newReplayCmd builds "lifter replay".
//
// The mine comes from the file argument. Commands come from --moves, or
// from stdin one character at a time, so an interactive terminal works as
// a controller. Each command prints the board that follows it.
func newReplayCmd(a *app) *cobra.Command {
	var (
		moves string
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "replay <mine-file>",
		Short: "Apply a command string to a mine, printing every board",
		Example: `  lifter solve maps/flood1.map | lifter replay maps/flood1.map
  lifter replay --moves RRDDLA maps/contest1.map`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if args[0] == "-" {
				return errors.New("replay reads commands from stdin; pass the mine as a file")
			}
			b, _, err := readMine(args[0], nil)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if cmd.Flags().Changed("moves") {
				in = strings.NewReader(moves)
			}
			render := replay.Styled
			if plain {
				render = replay.Plain
			}

			a.logger.Debug("replay started", "mine", args[0])
			return replay.Run(ctx, replay.NewSession(b), in, cmd.OutOrStdout(), render)
		},
	}

	cmd.Flags().StringVar(&moves, "moves", "", "command string to apply instead of reading stdin")
	cmd.Flags().BoolVar(&plain, "plain", false, "print boards without colour")
	return cmd
}
