// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianLifter/services/lifter/phi"
)

var configValidate = validator.New()

// FullConfig contains all solver configuration.
// This is the top-level config struct that can be loaded from files/env.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type FullConfig struct {
	// Budget contains resource limit settings.
	Budget BudgetConfig `json:"budget" yaml:"budget"`

	// Search contains frontier and population settings.
	Search SearchConfig `json:"search" yaml:"search"`

	// Fitness contains the fitness constants.
	Fitness phi.Weights `json:"fitness" yaml:"fitness"`

	// Observability contains observability settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// BudgetConfig contains budget-related settings. Zero disables a limit.
type BudgetConfig struct {
	TimeLimit     time.Duration `json:"time_limit" yaml:"time_limit" validate:"gte=0"`
	MaxNodes      int           `json:"max_nodes" yaml:"max_nodes" validate:"gte=0"`
	MaxIterations int           `json:"max_iterations" yaml:"max_iterations" validate:"gte=0"`
}

// SearchConfig contains the solver loop settings.
type SearchConfig struct {
	// TopN is how many of the fittest frontier nodes are expanded per iteration.
	TopN int `json:"top_n" yaml:"top_n" validate:"gte=1"`

	// Reserve is how many further nodes the diversity chop adds to TopN.
	Reserve int `json:"reserve" yaml:"reserve" validate:"gte=0"`

	// Population caps the greedy elite set.
	Population int `json:"population" yaml:"population" validate:"gte=1"`

	// FrontierLimit triggers a re-chop of the frontier.
	FrontierLimit int `json:"frontier_limit" yaml:"frontier_limit" validate:"gte=2"`

	// ShrinkTo is the frontier size after a re-chop.
	ShrinkTo int `json:"shrink_to" yaml:"shrink_to" validate:"gte=1"`

	// MaxCredit caps the exploitation credit.
	MaxCredit int `json:"max_credit" yaml:"max_credit" validate:"gte=0"`

	// Seed seeds the fitness random term. 0 picks a seed from the clock.
	Seed int64 `json:"seed" yaml:"seed"`
}

// ObservabilityConfig contains observability settings.
type ObservabilityConfig struct {
	TracingEnabled bool   `json:"tracing_enabled" yaml:"tracing_enabled"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
	LogLevel       string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	ServiceName    string `json:"service_name" yaml:"service_name"`
}

// DefaultFullConfig returns the default configuration.
//
// Outputs:
//   - FullConfig: Default configuration with sensible values.
func DefaultFullConfig() FullConfig {
	return FullConfig{
		Budget: BudgetConfig{
			TimeLimit: 150 * time.Second,
		},
		Search: SearchConfig{
			TopN:          8,
			Reserve:       16,
			Population:    12,
			FrontierLimit: 4096,
			ShrinkTo:      1024,
			MaxCredit:     4,
		},
		Fitness: phi.DefaultWeights(),
		Observability: ObservabilityConfig{
			TracingEnabled: true,
			MetricsEnabled: true,
			LogLevel:       "info",
			ServiceName:    "lifter",
		},
	}
}

// LoadConfig loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to YAML/JSON config file (optional, can be empty).
//
// Outputs:
//   - FullConfig: Merged configuration.
//   - error: Non-nil if file exists but is invalid.
func LoadConfig(configPath string) (FullConfig, error) {
	config := DefaultFullConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func loadConfigFile(path string, config *FullConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadConfigFromEnv(config *FullConfig) {
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}
	envFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	// Budget
	if v := os.Getenv("LIFTER_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Budget.TimeLimit = d
		}
	}
	envInt("LIFTER_MAX_NODES", &config.Budget.MaxNodes)
	envInt("LIFTER_MAX_ITERATIONS", &config.Budget.MaxIterations)

	// Search
	envInt("LIFTER_TOP_N", &config.Search.TopN)
	envInt("LIFTER_RESERVE", &config.Search.Reserve)
	envInt("LIFTER_POPULATION", &config.Search.Population)
	envInt("LIFTER_FRONTIER_LIMIT", &config.Search.FrontierLimit)
	envInt("LIFTER_SHRINK_TO", &config.Search.ShrinkTo)
	if v := os.Getenv("LIFTER_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Search.Seed = i
		}
	}

	// Fitness
	envFloat("LIFTER_FITNESS_RANDOM", &config.Fitness.Random)
	envFloat("LIFTER_FITNESS_WATER", &config.Fitness.Water)
	envFloat("LIFTER_FITNESS_SCORE", &config.Fitness.Score)
	envInt("LIFTER_FITNESS_NEAREST", &config.Fitness.Nearest)

	// Observability
	envBool("LIFTER_TRACING_ENABLED", &config.Observability.TracingEnabled)
	envBool("LIFTER_METRICS_ENABLED", &config.Observability.MetricsEnabled)
	if v := os.Getenv("LIFTER_LOG_LEVEL"); v != "" {
		config.Observability.LogLevel = v
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: Wraps ErrInvalidConfig if configuration is invalid.
func (c FullConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Search.ShrinkTo >= c.Search.FrontierLimit {
		return fmt.Errorf("%w: shrink_to (%d) must be below frontier_limit (%d)",
			ErrInvalidConfig, c.Search.ShrinkTo, c.Search.FrontierLimit)
	}
	return nil
}
