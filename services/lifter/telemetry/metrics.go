// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains the OTel instruments of the lifter server.
//
// Description:
//
//	Search internals are measured by the search package through promauto;
//	these instruments cover the request surface. All names use the
//	"lifter_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal metric.Int64Counter

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration metric.Float64Histogram

	// SolvesCoalescedTotal counts solve requests answered by an identical
	// in-flight solve.
	SolvesCoalescedTotal metric.Int64Counter

	// SolvesRejectedTotal counts solve requests refused by the rate limiter.
	SolvesRejectedTotal metric.Int64Counter

	// ReplaySessions tracks open websocket replay sessions.
	ReplaySessions metric.Int64UpDownCounter
}

// NewMetrics registers all instruments with meter.
//
// Inputs:
//
//	meter - The OTel meter, usually otel.Meter("lifter").
//
// Outputs:
//
//	*Metrics - The instruments.
//	error - Non-nil if registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"lifter_http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"lifter_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 150),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration: %w", err)
	}

	m.SolvesCoalescedTotal, err = meter.Int64Counter(
		"lifter_solves_coalesced_total",
		metric.WithDescription("Solve requests served by an in-flight identical solve"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solves_coalesced_total: %w", err)
	}

	m.SolvesRejectedTotal, err = meter.Int64Counter(
		"lifter_solves_rejected_total",
		metric.WithDescription("Solve requests refused by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solves_rejected_total: %w", err)
	}

	m.ReplaySessions, err = meter.Int64UpDownCounter(
		"lifter_replay_sessions",
		metric.WithDescription("Open websocket replay sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create replay_sessions: %w", err)
	}

	return m, nil
}
