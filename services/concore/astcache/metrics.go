// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package astcache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("concore.astcache")
	meter  = otel.Meter("concore.astcache")
)

var (
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheEvictions metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		cacheHits, err = meter.Int64Counter("astcache_hits_total", metric.WithDescription("Total AST cache hits"))
		if err != nil {
			metricsErr = err
			return
		}
		cacheMisses, err = meter.Int64Counter("astcache_misses_total", metric.WithDescription("Total AST cache misses"))
		if err != nil {
			metricsErr = err
			return
		}
		cacheEvictions, err = meter.Int64Counter("astcache_evictions_total", metric.WithDescription("Total AST cache evictions"))
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordHit() {
	if initMetrics() != nil {
		return
	}
	cacheHits.Add(context.Background(), 1)
}

func recordMiss() {
	if initMetrics() != nil {
		return
	}
	cacheMisses.Add(context.Background(), 1)
}

func recordEviction() {
	if initMetrics() != nil {
		return
	}
	cacheEvictions.Add(context.Background(), 1)
}

func startCacheSpan(ctx context.Context, operation, filePath string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ASTCache."+operation,
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.String("cache.file_path", filePath),
		),
	)
}

func setCacheSpanResult(span trace.Span, hit bool) {
	span.SetAttributes(attribute.Bool("cache.hit", hit))
}
