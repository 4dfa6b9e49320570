// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/AleutianLifter/services/lifter/search"
)

// configReloadDelay collapses the burst of events one save produces.
const configReloadDelay = 100 * time.Millisecond

// WatchConfig reloads the solver config whenever the file at path changes.
//
// # Description
//
// Watches the directory holding path, since editors that save by rename
// drop a watch on the file itself. Writes and creates of path are
// debounced, then the file is loaded with search.LoadConfig. A file that
// fails to load or validate is logged and the previous config stays.
// Blocks until ctx is cancelled. Run it in a goroutine.
//
// # Inputs
//
//   - ctx: Cancel to stop watching.
//   - path: The solver config file.
//
// # Outputs
//
//   - error: Non-nil if the watch cannot be set up. Nil after ctx ends.
//
// # Example
//
//	go func() {
//		if err := srv.WatchConfig(ctx, "fitness.yaml"); err != nil {
//			logger.Warn("config watcher stopped", slog.String("error", err.Error()))
//		}
//	}()
func (s *Server) WatchConfig(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	s.logger.Debug("watching solver config", slog.String("path", path))

	reload := time.NewTimer(configReloadDelay)
	reload.Stop()
	defer reload.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			reload.Reset(configReloadDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", slog.String("error", err.Error()))

		case <-reload.C:
			s.reloadSearchConfig(path)

		case <-ctx.Done():
			s.logger.Debug("config watcher stopping", slog.String("path", path))
			return nil
		}
	}
}

// reloadSearchConfig swaps in the config at path if it loads and validates.
func (s *Server) reloadSearchConfig(path string) bool {
	cfg, err := search.LoadConfig(path)
	if err != nil {
		s.logger.Warn("solver config reload failed, keeping previous",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return false
	}
	s.SetSearchConfig(cfg)
	s.logger.Info("solver config reloaded", slog.String("path", path))
	return true
}
