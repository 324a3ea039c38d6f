// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package aggregator merges the orchestrator's per-file violation streams
// into one deterministic Report (spec.md §4.7): fingerprint dedup, a
// cross-file escalation pass for clustered connascence rules, waiver
// application, deterministic ordering, and the fixed, non-tunable quality
// scoring formula.
package aggregator

import (
	"sort"
	"strconv"
	"time"

	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
)

// penaltyWeights is the exact, non-tunable table from spec.md §4.7. Changing
// these values is a major version bump, never a runtime option.
var penaltyWeights = map[model.Severity]float64{
	model.SeverityCritical: 10,
	model.SeverityHigh:     5,
	model.SeverityMedium:   2,
	model.SeverityLow:      1,
	model.SeverityInfo:     0,
}

const scoringBase = 100.0

// clarityWeight, connascenceWeight, nasaWeight are the fixed overall-score
// weights from spec.md §4.7 (0.40/0.30/0.30, sums to 1.0).
const (
	clarityWeight     = 0.40
	connascenceWeight = 0.30
	nasaWeight        = 0.30
)

// crossFileEscalated are the connascence types whose detection can
// under-count across a single file's boundary; spec.md §4.7 singles out
// CoA clusters and CoI global-mutation spans for a second, aggregate-view
// escalation pass.
var crossFileEscalated = map[model.ConnascenceType]bool{
	model.ConnascenceAlgorithm: true,
	model.ConnascenceIdentity:  true,
}

// Aggregator merges violation streams under one resolved policy.
type Aggregator struct {
	policy *policy.Policy
}

// New returns an Aggregator bound to pol. A nil pol waives and budgets
// nothing; every violation passes through unmodified.
func New(pol *policy.Policy) *Aggregator {
	return &Aggregator{policy: pol}
}

// Aggregate merges violations into a Report. metrics carries the run's
// already-collected Metrics (file/byte counts, cache stats, diagnostics);
// Aggregate appends waiver-expiry diagnostics to it. now is the wall-clock
// instant to evaluate waiver expiry against and to stamp Report.GeneratedAt.
func (a *Aggregator) Aggregate(violations []model.Violation, metrics model.Metrics, now time.Time, toolVersion string) *model.Report {
	deduped := a.dedupe(violations)
	escalated := a.escalateCrossFile(deduped)

	var kept, waived []model.Violation
	for _, v := range escalated {
		if a.policy == nil {
			kept = append(kept, v)
			continue
		}
		isWaived, diag := a.policy.IsWaived(v, now)
		if diag != nil {
			metrics.Diagnostics = append(metrics.Diagnostics, *diag)
		}
		if isWaived {
			waived = append(waived, v)
			continue
		}
		kept = append(kept, v)
	}

	sortViolations(kept)
	sortViolations(waived)

	summary := a.summarize(kept)
	report := &model.Report{
		Version:          "1.0",
		Tool:             model.Tool{Name: "concore", Version: toolVersion},
		GeneratedAt:      now,
		Summary:          summary,
		Violations:       kept,
		WaivedViolations: waived,
		Metrics:          metrics,
	}
	return report
}

// dedupe collapses violations sharing a fingerprint, keeping the
// higher-severity copy and recording how many were collapsed in
// context["duplicate_count"] (spec.md §4.7).
func (a *Aggregator) dedupe(violations []model.Violation) []model.Violation {
	order := make([]string, 0, len(violations))
	best := make(map[string]model.Violation, len(violations))
	counts := make(map[string]int, len(violations))

	for _, v := range violations {
		key := v.Fingerprint
		if key == "" {
			key = v.FilePath + "|" + v.RuleID + "|" + strconv.Itoa(v.Line) + "|" + strconv.Itoa(v.Column)
		}
		counts[key]++
		existing, ok := best[key]
		if !ok || v.Severity > existing.Severity {
			best[key] = v
			if !ok {
				order = append(order, key)
			}
		}
	}

	out := make([]model.Violation, 0, len(order))
	for _, key := range order {
		v := best[key]
		if counts[key] > 1 {
			if v.Context == nil {
				v.Context = make(map[string]any, 1)
			}
			v.Context["duplicate_count"] = counts[key]
		}
		out = append(out, v)
	}
	return out
}

// escalateCrossFile bumps CoA/CoI violations one severity level when their
// cluster (grouped by context["cluster_id"], falling back to rule_id) spans
// more than one file — a signal only visible once every file's violations
// are aggregated together, never to a single-file detector pass.
func (a *Aggregator) escalateCrossFile(violations []model.Violation) []model.Violation {
	clusterFiles := make(map[string]map[string]bool)
	for _, v := range violations {
		if !crossFileEscalated[v.ConnascenceType] {
			continue
		}
		key := clusterKey(v)
		files, ok := clusterFiles[key]
		if !ok {
			files = make(map[string]bool)
			clusterFiles[key] = files
		}
		files[v.FilePath] = true
	}

	out := make([]model.Violation, len(violations))
	for i, v := range violations {
		out[i] = v
		if !crossFileEscalated[v.ConnascenceType] {
			continue
		}
		if len(clusterFiles[clusterKey(v)]) > 1 {
			out[i].Severity = v.Severity.Escalate()
		}
	}
	return out
}

func clusterKey(v model.Violation) string {
	if v.Context != nil {
		if id, ok := v.Context["cluster_id"]; ok {
			if s, ok := id.(string); ok && s != "" {
				return v.RuleID + "|" + s
			}
		}
	}
	return v.RuleID
}

// SortForReport applies the same final ordering Aggregate uses to any
// violation slice, for callers (core.AnalyzePaths' IncludeWaived path)
// that merge waived violations back into the main list after the fact and
// need to re-establish a single deterministic order across both.
func SortForReport(vs []model.Violation) {
	sortViolations(vs)
}

// sortViolations applies spec.md §4.7's final ordering: severity
// descending, then file path, line, column, rule id, fingerprint ascending.
func sortViolations(vs []model.Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Fingerprint < b.Fingerprint
	})
}

// summarize computes the severity/kind/detector breakdown, the fixed
// scoring formula of spec.md §4.7, and the budget check, over kept
// (non-waived) violations only.
func (a *Aggregator) summarize(kept []model.Violation) model.Summary {
	bySeverity := make(map[string]int)
	byKind := make(map[string]int)
	byDetector := make(map[string]int)
	var clarity, connascence, nasa []model.Violation

	for _, v := range kept {
		bySeverity[v.Severity.String()]++
		byKind[string(v.Kind)]++
		byDetector[detectorID(v)]++

		switch v.Kind {
		case model.KindClarity:
			clarity = append(clarity, v)
		case model.KindConnascence:
			connascence = append(connascence, v)
		case model.KindNASA:
			nasa = append(nasa, v)
		}
	}

	clarityScore := score(clarity)
	connascenceScore := score(connascence)
	nasaScore := score(nasa)
	overall := clarityWeight*clarityScore + connascenceWeight*connascenceScore + nasaWeight*nasaScore

	return model.Summary{
		BySeverity:       bySeverity,
		ByKind:           byKind,
		ByDetector:       byDetector,
		QualityScore:     overall,
		ClarityScore:     clarityScore,
		ConnascenceScore: connascenceScore,
		NASAScore:        nasaScore,
		BudgetViolated:   a.budgetViolated(bySeverity),
	}
}

// detectorID maps a Kind to its owning detector id. Every family's id
// matches its Kind string except god-object, whose emitted Kind is
// KindStructural while its registry id is "god-object".
func detectorID(v model.Violation) string {
	if v.Kind == model.KindStructural {
		return "god-object"
	}
	return string(v.Kind)
}

// score applies spec.md §4.7's exact formula: base 100, minus the sum of
// each violation's severity penalty weight, floored at zero.
func score(vs []model.Violation) float64 {
	total := scoringBase
	for _, v := range vs {
		total -= penaltyWeights[v.Severity]
	}
	if total < 0 {
		return 0
	}
	return total
}

// budgetViolated reports whether any severity's non-waived count exceeds
// its configured budget (spec.md §4.7). No budgets configured means never
// violated.
func (a *Aggregator) budgetViolated(bySeverity map[string]int) bool {
	if a.policy == nil || len(a.policy.Budgets) == 0 {
		return false
	}
	for sev, max := range a.policy.Budgets {
		if bySeverity[sev.String()] > max {
			return true
		}
	}
	return false
}
