// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator schedules detector analysis across a file set
// (spec.md §4.6). It runs a bounded worker pool over files, not over
// detectors: within one file, every applicable detector runs sequentially
// against the same parsed AST. Cancellation is polled between files only;
// a file in progress runs to completion or to its per-file timeout.
package orchestrator

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/astcache"
	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

// MaxWorkers bounds the worker pool even on very large machines (spec.md
// §4.6: "default = physical core count, capped at 16").
const MaxWorkers = 16

// DefaultPerFileTimeout is the per-file wall-clock cap (spec.md §4.6).
const DefaultPerFileTimeout = 30 * time.Second

// Options configures an Orchestrator.
type Options struct {
	WorkerCount    int
	PerFileTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.WorkerCount <= 0 {
		o.WorkerCount = runtime.NumCPU()
	}
	if o.WorkerCount > MaxWorkers {
		o.WorkerCount = MaxWorkers
	}
	if o.PerFileTimeout <= 0 {
		o.PerFileTimeout = DefaultPerFileTimeout
	}
	return o
}

// Result is the raw, per-file output of a run, before aggregation.
type Result struct {
	Violations     map[string][]model.Violation
	Parses         map[string]*ast.ParseResult
	Diagnostics    []model.Diagnostic
	PartialResults bool
	FilesAnalyzed  int
	BytesAnalyzed  int64
}

// Orchestrator runs every registered detector applicable to each file in a
// set, sharing one AST cache and one resolved policy across the run.
type Orchestrator struct {
	registry *registry.Registry
	cache    *astcache.Cache
	policy   *policy.Policy
	opts     Options
}

// New returns an Orchestrator. reg defaults to registry.Default() when nil.
func New(reg *registry.Registry, cache *astcache.Cache, pol *policy.Policy, opts Options) *Orchestrator {
	if reg == nil {
		reg = registry.Default()
	}
	return &Orchestrator{registry: reg, cache: cache, policy: pol, opts: opts.withDefaults()}
}

// Run analyzes every file. It parses the whole set first (in parallel) so
// cross-file detectors (duplication) see a complete AllParses view, then
// runs detectors file-by-file (also in parallel, bounded by
// Options.WorkerCount). ctx cancellation is polled between files in both
// phases; a file already in flight is never interrupted mid-file.
func (o *Orchestrator) Run(ctx context.Context, files []model.SourceFile) (*Result, error) {
	result := &Result{
		Violations: make(map[string][]model.Violation, len(files)),
		Parses:     make(map[string]*ast.ParseResult, len(files)),
	}

	parses := make(map[string]*ast.ParseResult, len(files))
	var parseMu sync.Mutex
	cancelled := o.forEachFile(ctx, files, func(fctx context.Context, file model.SourceFile) {
		parse, err := o.cache.Get(fctx, file)
		parseMu.Lock()
		defer parseMu.Unlock()
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, model.Diagnostic{
				FilePath: file.RelPath, Kind: coreerr.KindParseError, Message: err.Error(),
			})
			return
		}
		parses[file.RelPath] = parse
	})
	if cancelled {
		result.PartialResults = true
	}
	result.Parses = parses

	var violMu sync.Mutex
	cancelled = o.forEachFile(ctx, files, func(fctx context.Context, file model.SourceFile) {
		parse, ok := parses[file.RelPath]
		if !ok {
			return
		}
		violations, timedOut := o.analyzeFile(fctx, file, parse, parses)

		violMu.Lock()
		defer violMu.Unlock()
		result.FilesAnalyzed++
		result.BytesAnalyzed += file.SizeBytes
		result.Violations[file.RelPath] = violations
		if timedOut {
			result.Diagnostics = append(result.Diagnostics, model.Diagnostic{
				FilePath: file.RelPath, Kind: coreerr.KindTimeout, Message: "file analysis exceeded the per-file timeout",
			})
		}
	})
	if cancelled {
		result.PartialResults = true
	}

	return result, nil
}

// forEachFile runs fn over files using a bounded worker pool, polling ctx
// between files (never mid-file). It returns true iff the run was cut
// short by cancellation.
func (o *Orchestrator) forEachFile(ctx context.Context, files []model.SourceFile, fn func(context.Context, model.SourceFile)) bool {
	indices := make(chan int)
	var wg sync.WaitGroup
	var cancelled int32

	workers := o.opts.WorkerCount
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 0 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(ctx, files[i])
			}
		}()
	}

	for i := range files {
		if ctx.Err() != nil {
			cancelled = 1
			break
		}
		select {
		case <-ctx.Done():
			cancelled = 1
			close(indices)
			wg.Wait()
			return cancelled == 1
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return cancelled == 1
}

// analyzeFile runs every detector applicable to file's language, in
// registry order, against one shared parse result. It returns the merged
// violation list; if the per-file timeout expired, it instead returns a
// single synthetic TIMEOUT violation with timedOut=true, discarding any
// partial results (spec.md §4.6). A detector error yields nil, false.
func (o *Orchestrator) analyzeFile(ctx context.Context, file model.SourceFile, parse *ast.ParseResult, allParses map[string]*ast.ParseResult) ([]model.Violation, bool) {
	fctx, span := startFileSpan(ctx, file.RelPath)
	defer span.End()

	timeoutCtx, cancel := context.WithTimeout(fctx, o.opts.PerFileTimeout)
	defer cancel()

	start := time.Now()
	view := policy.PolicyView{}
	if o.policy != nil {
		view = o.policy.ViewFor(file.RelPath)
	}

	type outcome struct {
		violations []model.Violation
		err        error
	}
	done := make(chan outcome, 1)
	go func() {
		ac := &registry.AnalysisContext{File: file, Parse: parse, Policy: view, AllParses: allParses}
		var merged []model.Violation
		for _, d := range o.registry.EnabledForLanguage(file.Language, view.RuleBucket) {
			vs, err := d.Analyze(timeoutCtx, ac)
			if err != nil {
				done <- outcome{err: err}
				return
			}
			for _, v := range vs {
				// A rule_id can be ignored individually even when its owning
				// detector id is not (spec.md §4.3's per-rule `enabled` field
				// is finer-grained than EnabledForLanguage's detector-level
				// filter above).
				if view.RuleBucket.ShouldIgnore(v.RuleID) {
					continue
				}
				merged = append(merged, v)
			}
		}
		done <- outcome{violations: merged}
	}()

	select {
	case <-timeoutCtx.Done():
		recordFile(ctx, file.RelPath, time.Since(start), "timeout")
		return []model.Violation{timeoutViolation(file)}, true
	case o := <-done:
		if o.err != nil {
			recordFile(ctx, file.RelPath, time.Since(start), "error")
			return nil, false
		}
		recordFile(ctx, file.RelPath, time.Since(start), "success")
		sort.SliceStable(o.violations, func(i, j int) bool {
			a, b := o.violations[i], o.violations[j]
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			if a.Column != b.Column {
				return a.Column < b.Column
			}
			return a.Fingerprint < b.Fingerprint
		})
		return o.violations, false
	}
}

func timeoutViolation(file model.SourceFile) model.Violation {
	return model.Violation{
		RuleID:      coreerr.KindTimeout,
		Kind:        model.KindStructural,
		Severity:    model.SeverityCritical,
		FilePath:    file.RelPath,
		Description: "analysis of this file exceeded the per-file timeout",
	}
}
