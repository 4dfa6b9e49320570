// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package board

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianLifter/services/lifter/quadtree"
)

// DefaultGrowth is the beard growth period used when the map omits it.
const DefaultGrowth = 25

var configValidate = validator.New()

// Config holds the metadata block of a map.
//
// Thread Safety: Read-only after NewBoard; shared by every board generation.
type Config struct {
	// Water is the number of flooded rows counted from the bottom.
	Water int `json:"water" validate:"gte=0"`

	// Flooding is the number of turns between water rises. 0 disables flooding.
	Flooding int `json:"flooding" validate:"gte=0"`

	// Waterproof is how many turns the robot survives under water.
	Waterproof int `json:"waterproof" validate:"gte=0"`

	// Growth is the beard growth period in turns.
	Growth int `json:"growth" validate:"gte=1"`

	// Razors is the initial razor count.
	Razors int `json:"razors" validate:"gte=0"`

	// Trampolines maps a pad glyph (A-I) to a target glyph (1-9).
	Trampolines map[byte]byte `json:"-"`
}

// DefaultConfig returns the metadata used for a map with no metadata block.
func DefaultConfig() Config {
	return Config{
		Growth:      DefaultGrowth,
		Trampolines: make(map[byte]byte),
	}
}

// Validate checks field ranges and trampoline glyphs.
//
// Outputs:
//   - error: Wraps ErrInvalidConfig on failure.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for pad, target := range c.Trampolines {
		if !quadtree.IsTrampoline(pad) {
			return fmt.Errorf("%w: %q is not a trampoline", ErrInvalidConfig, pad)
		}
		if !quadtree.IsTarget(target) {
			return fmt.Errorf("%w: %q is not a target", ErrInvalidConfig, target)
		}
	}
	return nil
}

// PadsFor returns the pads that jump to target, sorted.
func (c Config) PadsFor(target byte) []byte {
	var pads []byte
	for pad, t := range c.Trampolines {
		if t == target {
			pads = append(pads, pad)
		}
	}
	sort.Slice(pads, func(i, j int) bool { return pads[i] < pads[j] })
	return pads
}

// MarshalJSON renders trampolines with readable glyph keys.
func (c Config) MarshalJSON() ([]byte, error) {
	tramps := make(map[string]string, len(c.Trampolines))
	for pad, target := range c.Trampolines {
		tramps[string(pad)] = string(target)
	}
	type plain Config
	return json.Marshal(struct {
		plain
		Trampolines map[string]string `json:"trampolines"`
	}{plain: plain(c), Trampolines: tramps})
}
