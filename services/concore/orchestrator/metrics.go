// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("concore.orchestrator")
	meter  = otel.Meter("concore.orchestrator")
)

var (
	metricsOnce    sync.Once
	fileLatency    metric.Float64Histogram
	fileSuccesses  metric.Int64Counter
	fileFailures   metric.Int64Counter
	fileTimeouts   metric.Int64Counter
)

// initMetrics lazily registers this package's instruments, mirroring
// dag.Executor's _duration_seconds/_successes_total/_failures_total naming
// convention retargeted from DAG nodes to files (spec.md §4.6).
func initMetrics() {
	metricsOnce.Do(func() {
		fileLatency, _ = meter.Float64Histogram("orchestrator_file_duration_seconds",
			metric.WithDescription("Time spent analyzing one file"),
			metric.WithUnit("s"),
		)
		fileSuccesses, _ = meter.Int64Counter("orchestrator_file_successes_total",
			metric.WithDescription("Number of files analyzed without error"),
		)
		fileFailures, _ = meter.Int64Counter("orchestrator_file_failures_total",
			metric.WithDescription("Number of files that errored during analysis"),
		)
		fileTimeouts, _ = meter.Int64Counter("orchestrator_file_timeouts_total",
			metric.WithDescription("Number of files that exceeded the per-file timeout"),
		)
	})
}

func recordFile(ctx context.Context, path string, d time.Duration, outcome string) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if fileLatency != nil {
		fileLatency.Record(ctx, d.Seconds(), attrs)
	}
	switch outcome {
	case "success":
		if fileSuccesses != nil {
			fileSuccesses.Add(ctx, 1)
		}
	case "error":
		if fileFailures != nil {
			fileFailures.Add(ctx, 1)
		}
	case "timeout":
		if fileTimeouts != nil {
			fileTimeouts.Add(ctx, 1)
		}
	}
}

func startFileSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Orchestrator.AnalyzeFile", trace.WithAttributes(attribute.String("file", path)))
}
