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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/AleutianAI/AleutianLifter/services/lifter/board"
)

const tracerName = "lifter.search"

// Tracer provides OpenTelemetry tracing for solver operations.
//
// Thread Safety: Safe for concurrent use.
type Tracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewTracer creates a new tracer.
//
// Inputs:
//   - logger: Logger for structured logging (can be nil for slog.Default).
//   - config: Observability configuration.
//
// Outputs:
//   - *Tracer: Tracer instance.
func NewTracer(logger *slog.Logger, config ObservabilityConfig) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
		enabled: config.TracingEnabled,
	}
}

// StartSolve starts a span for an entire solve.
//
// Inputs:
//   - ctx: Parent context.
//   - runID: Solve identifier.
//   - b: The initial board.
//   - budget: Budget tracker.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span (noop if tracing disabled).
func (t *Tracer) StartSolve(ctx context.Context, runID string, b board.Board, budget *Budget) (context.Context, trace.Span) {
	config := budget.Config()
	t.logger.InfoContext(ctx, "solve started",
		slog.String("run_id", runID),
		slog.Int("width", b.Width()),
		slog.Int("height", b.Height()),
		slog.Int("lambdas", b.Remaining()),
		slog.Duration("time_limit", config.TimeLimit),
	)

	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "lifter.solve",
		trace.WithAttributes(
			attribute.String("lifter.run_id", runID),
			attribute.Int("lifter.board.width", b.Width()),
			attribute.Int("lifter.board.height", b.Height()),
			attribute.Int("lifter.board.lambdas", b.Remaining()),
			attribute.String("lifter.budget.time_limit", config.TimeLimit.String()),
			attribute.Int("lifter.budget.max_nodes", config.MaxNodes),
			attribute.Int("lifter.budget.max_iterations", config.MaxIterations),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSolve completes the solve span.
//
// Inputs:
//   - span: The span to end.
//   - res: The solve result (can be nil).
//   - budget: Budget tracker with usage.
//   - err: Error if the solve failed.
func (t *Tracer) EndSolve(span trace.Span, res *Result, budget *Budget, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	usage := budget.Report()
	span.SetAttributes(
		attribute.Int64("lifter.result.nodes", usage.Nodes),
		attribute.Int64("lifter.result.iterations", usage.Iterations),
		attribute.String("lifter.result.elapsed", usage.Elapsed.String()),
		attribute.Bool("lifter.budget.exhausted", usage.Exhausted),
	)
	if usage.Exhausted {
		span.SetAttributes(attribute.String("lifter.budget.exhausted_by", usage.ExhaustedBy))
	}
	if res != nil {
		span.SetAttributes(
			attribute.Int("lifter.result.score", res.Score),
			attribute.String("lifter.result.outcome", res.Outcome.String()),
			attribute.String("lifter.result.stop", res.StopReason),
			attribute.Int("lifter.result.moves", len(res.Moves)),
		)
	}
	span.End()

	attrs := []any{
		slog.Int64("nodes", usage.Nodes),
		slog.Int64("iterations", usage.Iterations),
		slog.Duration("elapsed", usage.Elapsed),
	}
	if usage.Exhausted {
		attrs = append(attrs, slog.String("exhausted_by", usage.ExhaustedBy))
	}
	if res != nil {
		attrs = append(attrs,
			slog.String("run_id", res.RunID),
			slog.Int("score", res.Score),
			slog.String("stop", res.StopReason),
		)
	}
	if err != nil {
		t.logger.Error("solve failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	t.logger.Info("solve completed", attrs...)
}

// TraceIteration traces one explore plus greedy iteration.
//
// Inputs:
//   - ctx: Parent context.
//   - iteration: Iteration number.
//   - frontier: Frontier size at the start of the iteration.
//   - credit: Current exploitation credit.
//
// Outputs:
//   - context.Context: Context with span.
//   - trace.Span: The created span.
func (t *Tracer) TraceIteration(ctx context.Context, iteration, frontier, credit int) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "lifter.iteration",
		trace.WithAttributes(
			attribute.Int("lifter.iteration", iteration),
			attribute.Int("lifter.frontier", frontier),
			attribute.Int("lifter.credit", credit),
		),
	)
}

// TraceChop records a frontier shrink on the current span.
//
// Inputs:
//   - ctx: Context with span.
//   - before: Frontier size before the chop.
//   - after: Frontier size after the chop.
func (t *Tracer) TraceChop(ctx context.Context, before, after int) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("frontier_chopped",
		trace.WithAttributes(
			attribute.Int("before", before),
			attribute.Int("after", after),
		),
	)
	t.logger.DebugContext(ctx, "frontier chopped",
		slog.Int("before", before),
		slog.Int("after", after),
	)
}

// TraceNewBest records an improvement of the best score.
//
// Inputs:
//   - ctx: Context with span.
//   - n: The new best node.
func (t *Tracer) TraceNewBest(ctx context.Context, n *Node) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("new_best",
		trace.WithAttributes(
			attribute.Int("score", n.Score()),
			attribute.Int("depth", n.Depth()),
		),
	)
	t.logger.DebugContext(ctx, "new best",
		slog.Int("score", n.Score()),
		slog.Int("depth", n.Depth()),
	)
}

// TraceFinalize records how the best node was turned into a solution.
//
// Inputs:
//   - ctx: Context with span.
//   - reason: Why the loop stopped.
//   - forcedAbort: Whether an abort was appended.
func (t *Tracer) TraceFinalize(ctx context.Context, reason string, forcedAbort bool) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent("finalize",
		trace.WithAttributes(
			attribute.String("reason", reason),
			attribute.Bool("forced_abort", forcedAbort),
		),
	)
	t.logger.InfoContext(ctx, "search stopped",
		slog.String("reason", reason),
		slog.Bool("forced_abort", forcedAbort),
	)
}

// LoggerWithTrace returns a logger with trace context.
//
// Inputs:
//   - ctx: Context that may contain trace information.
//   - logger: Base logger.
//
// Outputs:
//   - *slog.Logger: Logger with trace_id and span_id if available.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return logger
	}
	return logger.With(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}
