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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianLifter/pkg/ux"
	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
	"github.com/AleutianAI/AleutianLifter/services/lifter/server"
	"github.com/AleutianAI/AleutianLifter/services/lifter/telemetry"
)

// newServeCmd builds "lifter serve".
//
// # Description
//
// Starts the HTTP service: POST /v1/lifter/solve, the /v1/lifter/replay
// websocket and /metrics. Telemetry exporters follow the OTEL_* variables
// (see telemetry.DefaultConfig).
//
// # Examples
//
//	lifter serve
//	lifter serve --port 8080 --archive --rate 2 --burst 8
//	lifter serve --config fitness.yaml --watch-config
//	curl -X POST localhost:12220/v1/lifter/solve -d '{"map":"#R\\L#","time_limit_ms":2000}'
func newServeCmd(a *app) *cobra.Command {
	cfg := server.DefaultConfig()
	var (
		configPath  string
		watchConfig bool
		useArchive  bool
		archivePath string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve solves and replays over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			if watchConfig && configPath == "" {
				return errors.New("--watch-config needs --config")
			}
			searchCfg, err := search.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg.Search = searchCfg

			shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					a.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
				}
			}()

			opts := []server.Option{server.WithLogger(a.logger.Slog())}
			if useArchive {
				arc, err := a.openArchive(archivePath)
				if err != nil {
					return err
				}
				defer arc.Close()
				opts = append(opts, server.WithArchive(arc))
			}

			srv, err := server.New(cfg, opts...)
			if err != nil {
				return err
			}
			if watchConfig {
				go func() {
					if err := srv.WatchConfig(ctx, configPath); err != nil {
						a.logger.Warn("config watcher stopped", slog.String("error", err.Error()))
					}
				}()
			}
			ux.Success(cmd.ErrOrStderr(), fmt.Sprintf("lifter listening on :%d", cfg.Port))
			return srv.Run(ctx)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	f.DurationVar(&cfg.DefaultTimeLimit, "time-limit", cfg.DefaultTimeLimit, "time limit for requests that name none")
	f.DurationVar(&cfg.MaxTimeLimit, "max-time-limit", cfg.MaxTimeLimit, "largest time limit a request may ask for")
	f.Float64Var(&cfg.SolveRate, "rate", cfg.SolveRate, "solves started per second")
	f.IntVar(&cfg.SolveBurst, "burst", cfg.SolveBurst, "solves that may start at once")
	f.StringVar(&configPath, "config", "", "solver config file (YAML or JSON)")
	f.BoolVar(&watchConfig, "watch-config", false, "reload --config for new solves when the file changes")
	f.BoolVar(&useArchive, "archive", false, "archive the best solution per mine")
	f.StringVar(&archivePath, "archive-path", defaultArchivePath(), "solution archive directory")
	f.BoolVar(&debug, "debug", false, "gin debug mode")
	return cmd
}
