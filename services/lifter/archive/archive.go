// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

const keyPrefix = "solution/"

// Record is one archived solution.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Name        string    `json:"name"`
	Moves       string    `json:"moves"`
	Score       int       `json:"score"`
	Outcome     string    `json:"outcome"`
	RunID       string    `json:"run_id"`
	Seed        int64     `json:"seed"`
	SolvedAt    time.Time `json:"solved_at"`
}

// Fingerprint identifies a board by its grid and metadata.
//
// Inputs:
//   - b: The board. Only its initial state is meaningful here.
//
// Outputs:
//   - string: Hex SHA-256 of the grid rows and the JSON metadata.
func Fingerprint(b board.Board) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(b.Tiles().Serialize(), "\n")))
	h.Write([]byte{0})
	meta, _ := json.Marshal(b.Config())
	h.Write(meta)
	return hex.EncodeToString(h.Sum(nil))
}

// Archive is a BadgerDB-backed store of best solutions.
//
// Thread Safety: Safe for concurrent use.
type Archive struct {
	db     *badger.DB
	gc     *gcRunner
	logger *slog.Logger
}

// Open opens the archive described by cfg.
//
// Inputs:
//   - cfg: Database configuration.
//
// Outputs:
//   - *Archive: The archive. Call Close() when done.
//   - error: Non-nil if the database cannot be opened.
func Open(cfg Config) (*Archive, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	a := &Archive{db: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		a.gc = runner
		runner.start()
	}
	return a, nil
}

// Close stops garbage collection and closes the database.
func (a *Archive) Close() error {
	if a.gc != nil {
		a.gc.stop()
	}
	return a.db.Close()
}

// Keep stores rec unless the archive already holds a solution with an
// equal or better score for the same board.
//
// Inputs:
//   - ctx: Context for cancellation.
//   - rec: The candidate solution.
//
// Outputs:
//   - Record: The solution now archived for rec.Fingerprint.
//   - bool: True if rec replaced the archived solution.
//   - error: ErrInvalidRecord or a storage error.
func (a *Archive) Keep(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.Fingerprint == "" || rec.Moves == "" {
		return Record{}, false, ErrInvalidRecord
	}

	kept := rec
	stored := false
	err := withTxn(ctx, a.db, func(txn *badger.Txn) error {
		existing, err := get(txn, rec.Fingerprint)
		switch {
		case err == nil:
			if existing.Score >= rec.Score {
				kept = existing
				return nil
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		stored = true
		return txn.Set(key(rec.Fingerprint), data)
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("keep solution: %w", err)
	}

	if stored {
		a.logger.Info("solution archived",
			slog.String("fingerprint", Short(rec.Fingerprint)),
			slog.String("name", rec.Name),
			slog.Int("score", rec.Score),
		)
	}
	return kept, stored, nil
}

// Get returns the archived solution for a fingerprint.
//
// Outputs:
//   - Record: The solution.
//   - error: ErrNotFound if none is archived.
func (a *Archive) Get(ctx context.Context, fingerprint string) (Record, error) {
	var rec Record
	err := withReadTxn(ctx, a.db, func(txn *badger.Txn) error {
		var err error
		rec, err = get(txn, fingerprint)
		return err
	})
	return rec, err
}

// Find returns the archived solution whose fingerprint starts with
// prefix, as printed by list output.
//
// Outputs:
//   - Record: The single match.
//   - error: ErrNotFound when nothing matches or the prefix is ambiguous.
func (a *Archive) Find(ctx context.Context, prefix string) (Record, error) {
	var matches []Record
	err := withReadTxn(ctx, a.db, func(txn *badger.Txn) error {
		var err error
		matches, err = scan(txn, keyPrefix+prefix)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	if len(matches) != 1 {
		return Record{}, fmt.Errorf("%w: %d matches for %q", ErrNotFound, len(matches), prefix)
	}
	return matches[0], nil
}

// List returns every archived solution ordered by name, then fingerprint.
func (a *Archive) List(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := withReadTxn(ctx, a.db, func(txn *badger.Txn) error {
		var err error
		recs, err = scan(txn, keyPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Name != recs[j].Name {
			return recs[i].Name < recs[j].Name
		}
		return recs[i].Fingerprint < recs[j].Fingerprint
	})
	return recs, nil
}

// Delete removes the solution for a fingerprint. Missing keys are not an
// error.
func (a *Archive) Delete(ctx context.Context, fingerprint string) error {
	return withTxn(ctx, a.db, func(txn *badger.Txn) error {
		return txn.Delete(key(fingerprint))
	})
}

// Short returns the 12-character fingerprint prefix used in listings.
func Short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}

func key(fingerprint string) []byte {
	return []byte(keyPrefix + fingerprint)
}

func get(txn *badger.Txn, fingerprint string) (Record, error) {
	item, err := txn.Get(key(fingerprint))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", fingerprint, err)
	}
	var rec Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", fingerprint, err)
	}
	return rec, nil
}

func scan(txn *badger.Txn, prefix string) ([]Record, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var recs []Record
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		var rec Record
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
