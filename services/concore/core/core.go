// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package core wires discovery, caching, orchestration, aggregation and
// reporting into the three entry points spec.md §6 names: AnalyzePaths,
// Render and LoadPolicy. This is the only package external callers (the
// cobra CLI in cmd/concore, or an embedding Go program) are expected to
// import directly.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleutian-oss/concore/pkg/logging"
	"github.com/aleutian-oss/concore/services/concore/aggregator"
	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/astcache"
	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/discovery"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/orchestrator"
	"github.com/aleutian-oss/concore/services/concore/policy"
	"github.com/aleutian-oss/concore/services/concore/registry"
	"github.com/aleutian-oss/concore/services/concore/reporter"

	// Every detector self-registers into registry.Default() from its own
	// init(); importing them here for side effect is what makes
	// AnalyzePaths see the full rule set without callers doing it.
	_ "github.com/aleutian-oss/concore/services/concore/detectors/clarity"
	_ "github.com/aleutian-oss/concore/services/concore/detectors/connascence"
	_ "github.com/aleutian-oss/concore/services/concore/detectors/duplication"
	_ "github.com/aleutian-oss/concore/services/concore/detectors/godobject"
	_ "github.com/aleutian-oss/concore/services/concore/detectors/nasa"
)

// ToolVersion is the version string embedded in emitted reports. Overridden
// at build time via -ldflags for release binaries.
var ToolVersion = "0.1.0"

// DefaultMaxViolationsPerFile caps how many violations a single file may
// contribute to a run before the remainder is dropped and a
// PARTIAL_RESULTS diagnostic recorded (spec.md §5's bounded-resource list).
const DefaultMaxViolationsPerFile = 10_000

// Options configures one AnalyzePaths call (spec.md §6's Options table).
type Options struct {
	// Workers bounds how many files are parsed/analyzed concurrently.
	// Zero selects orchestrator.Options' own default.
	Workers int
	// PerFileTimeoutMs bounds how long a single file's detector pass may
	// run before it is abandoned in favor of a synthetic TIMEOUT violation.
	// Zero selects orchestrator.DefaultPerFileTimeout.
	PerFileTimeoutMs int
	// CacheCapacity sets the AST cache's expected entry count, which sizes
	// its admission counters; the entry count is not capped, as eviction
	// follows the byte-cost ceiling. Zero selects astcache.DefaultMaxEntries.
	CacheCapacity int64
	// MaxFileSizeBytes skips any file larger than this with a
	// SKIPPED_TOO_LARGE diagnostic. Zero leaves directory scans at
	// manifest.DefaultMaxFileSize and explicitly named files unchecked.
	MaxFileSizeBytes int64
	// MaxViolationsPerFile caps per-file violation counts. Zero selects
	// DefaultMaxViolationsPerFile.
	MaxViolationsPerFile int
	// IncludeGlobs/ExcludeGlobs filter discovered files beyond the
	// policy's own globs, for one-off CLI invocations (-include/-exclude).
	IncludeGlobs []string
	ExcludeGlobs []string
	// IncludeWaived merges waived violations back into Report.Violations
	// (tagged via Context["waived"]) instead of only Report.WaivedViolations.
	IncludeWaived bool
	// FailOn overrides the policy's own FailOn severity threshold for this
	// run's exit-code decision; zero leaves the policy's value untouched.
	FailOn model.Severity
	// Determinism, when true, zeroes every wall-clock-derived Metrics
	// field (WallTime) so two runs over identical input produce
	// byte-identical reports (spec.md §8 invariant 1).
	Determinism bool
	// DiskCacheDir, if set, enables the AST cache's badger-backed disk
	// tier at this path.
	DiskCacheDir string
}

func (o Options) withDefaults() Options {
	if o.MaxViolationsPerFile <= 0 {
		o.MaxViolationsPerFile = DefaultMaxViolationsPerFile
	}
	return o
}

// AnalyzePaths discovers every source file reachable from paths, runs the
// full detector pipeline under policy, and returns the aggregated Report
// (spec.md §6). now is injected by the caller so repeated runs over
// identical input and an identical now value are exactly reproducible.
func AnalyzePaths(ctx context.Context, paths []string, pol *policy.Policy, opts Options, now time.Time) (*model.Report, error) {
	opts = opts.withDefaults()
	runID := uuid.NewString()
	log := logging.NewAnalysisLogger(runID)

	includes := opts.IncludeGlobs
	excludes := opts.ExcludeGlobs
	if pol != nil {
		includes = append(append([]string{}, pol.IncludeGlobs...), includes...)
		excludes = append(append([]string{}, pol.ExcludeGlobs...), excludes...)
	}

	files, discoveryDiags, err := discovery.Discover(ctx, paths, discovery.Options{
		Includes:    includes,
		Excludes:    excludes,
		MaxFileSize: opts.MaxFileSizeBytes,
	})
	if err != nil {
		return nil, err
	}
	log.Info("discovery complete", "files", len(files), "diagnostics", len(discoveryDiags))

	parserRegistry := ast.NewDefaultRegistry()
	cacheOpts := []astcache.Option{}
	if opts.CacheCapacity > 0 {
		cacheOpts = append(cacheOpts, astcache.WithMaxEntries(opts.CacheCapacity))
	}
	if opts.DiskCacheDir != "" {
		cacheOpts = append(cacheOpts, astcache.WithDiskTier(opts.DiskCacheDir))
	}
	cache, err := astcache.New(parserRegistry, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("core: building ast cache: %w", err)
	}
	defer cache.Close()

	orchOpts := orchestrator.Options{WorkerCount: opts.Workers}
	if opts.PerFileTimeoutMs > 0 {
		orchOpts.PerFileTimeout = time.Duration(opts.PerFileTimeoutMs) * time.Millisecond
	}

	orch := orchestrator.New(registry.Default(), cache, pol, orchOpts)

	start := time.Now()
	result, err := orch.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	log.Info("orchestration complete", "files_analyzed", result.FilesAnalyzed, "partial", result.PartialResults)

	violations := capAndFlatten(result.Violations, opts.MaxViolationsPerFile, &result.Diagnostics)

	hits, misses := cache.Stats()
	metrics := model.Metrics{
		FilesAnalyzed:  result.FilesAnalyzed,
		BytesAnalyzed:  result.BytesAnalyzed,
		CacheHits:      int(hits),
		CacheMisses:    int(misses),
		Diagnostics:    append(discoveryDiags, result.Diagnostics...),
		PartialResults: result.PartialResults,
	}
	if hits+misses > 0 {
		metrics.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	if !opts.Determinism {
		metrics.WallTime = elapsed
	}

	agg := aggregator.New(pol)
	report := agg.Aggregate(violations, metrics, now, ToolVersion)

	if opts.IncludeWaived {
		mergeWaivedBack(report)
	}

	failOn := opts.FailOn
	if failOn == 0 && pol != nil {
		failOn = pol.FailOn
	}
	report.Summary.BudgetViolated = report.Summary.BudgetViolated || exceedsFailOn(report, failOn)

	return report, nil
}

// capAndFlatten merges every file's violation slice into one, truncating
// any single file's contribution to limit and recording a
// PARTIAL_RESULTS diagnostic for the files it truncated (spec.md §5's
// per-file violation ceiling).
func capAndFlatten(byFile map[string][]model.Violation, limit int, diags *[]model.Diagnostic) []model.Violation {
	var all []model.Violation
	for path, vs := range byFile {
		if len(vs) > limit {
			*diags = append(*diags, model.Diagnostic{
				FilePath: path,
				Kind:     coreerr.KindPartialResults,
				Message:  fmt.Sprintf("file produced %d violations, truncated to %d", len(vs), limit),
			})
			vs = vs[:limit]
		}
		all = append(all, vs...)
	}
	return all
}

// mergeWaivedBack folds Report.WaivedViolations into Report.Violations,
// tagging each with Context["waived"]=true, for callers that asked to see
// suppressed findings inline rather than in a separate bucket.
func mergeWaivedBack(report *model.Report) {
	for _, v := range report.WaivedViolations {
		merged := make(map[string]any, len(v.Context)+1)
		for k, val := range v.Context {
			merged[k] = val
		}
		merged["waived"] = true
		v.Context = merged
		report.Violations = append(report.Violations, v)
	}
	sortMerged(report.Violations)
}

func sortMerged(vs []model.Violation) {
	aggregator.SortForReport(vs)
}

// exceedsFailOn reports whether report contains any non-waived violation
// at or above failOn, the condition that drives the CLI's exit code 4
// (spec.md §6).
func exceedsFailOn(report *model.Report, failOn model.Severity) bool {
	for _, v := range report.Violations {
		if v.Severity >= failOn {
			return true
		}
	}
	return false
}

// Render renders report in the given format (spec.md §6).
func Render(report *model.Report, format reporter.Format) ([]byte, error) {
	return reporter.Render(format, report, ToolVersion)
}

// LoadPolicy resolves presetNameOrPath into a Policy: a bare preset name
// (e.g. "service-defaults") loads that preset with no override, while
// anything else is treated as a path to a YAML/TOML/JSON policy document
// (spec.md §6).
func LoadPolicy(presetNameOrPath string) (*policy.Policy, error) {
	if policy.IsPresetName(presetNameOrPath) {
		return policy.Load(presetNameOrPath, nil, nil)
	}
	return policy.LoadFromFile(presetNameOrPath)
}
