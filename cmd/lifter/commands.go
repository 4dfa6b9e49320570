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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLifter/pkg/logging"
	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/services/lifter/archive"
	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

// app holds state shared by every subcommand for one invocation.
type app struct {
	personalityLevel string
	logLevel         string
	logDir           string
	logJSON          bool

	logger *logging.Logger
}

// newRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "lifter",
		Short:         "Solve and replay lambda-lifter mines",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.personalityLevel))
			} else {
				ux.InitPersonality()
			}

			level, err := logging.ParseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = logging.New(logging.Config{
				Level:   level,
				LogDir:  a.logDir,
				Service: "lifter-" + cmd.Name(),
				JSON:    a.logJSON,
				Output:  cmd.ErrOrStderr(),
			})
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.personalityLevel, "output", "", "output style: full, minimal or machine (default from LIFTER_OUTPUT or the terminal)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&a.logDir, "log-dir", "", "also write JSON logs to this directory")
	flags.BoolVar(&a.logJSON, "log-json", false, "write console logs as JSON")

	root.AddCommand(
		newSolveCmd(a),
		newReplayCmd(a),
		newBenchCmd(a),
		newServeCmd(a),
		newArchiveCmd(a),
	)
	return root
}

// defaultArchivePath is where solutions are kept unless --archive says
// otherwise.
func defaultArchivePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".lifter", "archive")
	}
	return filepath.Join(".lifter", "archive")
}

func (a *app) openArchive(path string) (*archive.Archive, error) {
	cfg := archive.DefaultConfig(path)
	cfg.Logger = a.logger.Slog()
	arc, err := archive.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return arc, nil
}

// readMine loads a mine from the named file, or from in when the name is
// empty or "-".
func readMine(name string, in io.Reader) (board.Board, string, error) {
	var (
		data []byte
		err  error
	)
	if name == "" || name == "-" {
		data, err = io.ReadAll(in)
		name = "stdin"
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return board.Board{}, name, fmt.Errorf("read mine: %w", err)
	}
	b, err := board.Parse(string(data))
	if err != nil {
		return board.Board{}, name, fmt.Errorf("parse %s: %w", name, err)
	}
	return b, name, nil
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
