// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package duplication implements the Duplication/MECE detector (spec.md
// §4.5.5): an exact-fingerprint pass followed by a shingled-similarity
// clustering pass for survivors. Cross-file comparison uses AnalysisContext
// .AllParses, which carries only parsed symbols (no raw source), so both
// passes key off a structural fingerprint derived from each function's
// call sequence and child-symbol shape rather than raw body text. Within a
// single file this is a coarser proxy than connascence's same-file,
// text-normalized CoA check, but it is the only signal available once a
// comparison crosses a file boundary.
package duplication

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/detectors/dcommon"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

const ruleDuplication = "duplication/mece"

func init() {
	registry.Register(New())
}

// Detector finds exact-structural and near-structural duplicate functions
// across the whole analysis run.
type Detector struct{}

// New returns a Duplication Detector.
func New() *Detector { return &Detector{} }

func (d *Detector) ID() string { return "duplication" }

func (d *Detector) SupportedLanguages() []model.Language {
	return []model.Language{
		model.LangGo, model.LangPython, model.LangJavaScript, model.LangTypeScript,
		model.LangC, model.LangCPP, model.LangJava, model.LangRust,
	}
}

func (d *Detector) Kind() model.Kind { return model.KindDuplication }

func (d *Detector) RuleIDs() []string { return []string{ruleDuplication} }

func (d *Detector) RequiresContext() bool { return false }

type candidate struct {
	path string
	fn   *ast.Symbol
	id   string
	key  string // structural fingerprint
}

// Analyze gathers candidate functions from every parsed file in the run
// (falling back to the current file alone when no cross-file view was
// provided), runs the exact-fingerprint pass, then clusters the survivors
// by shingled similarity, and finally emits one violation per cluster
// member that belongs to the current file.
func (d *Detector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if ac.Parse == nil {
		return nil, nil
	}
	minLines := ac.Policy.Thresholds.DuplicationMinLines
	if minLines <= 0 {
		minLines = 4
	}
	simThreshold := ac.Policy.Thresholds.DuplicationSimilarityThreshold
	if simThreshold <= 0 {
		simThreshold = 0.8
	}

	universe := ac.AllParses
	if len(universe) == 0 {
		universe = map[string]*ast.ParseResult{ac.File.RelPath: ac.Parse}
	}

	var candidates []candidate
	for path, parse := range universe {
		if parse == nil {
			continue
		}
		for _, fn := range allFunctions(parse.Symbols) {
			if fn.EndLine-fn.StartLine+1 < minLines {
				continue
			}
			candidates = append(candidates, candidate{
				path: path,
				fn:   fn,
				id:   path + ":" + fn.Name + ":" + strconv.Itoa(fn.StartLine),
				key:  structuralKey(fn),
			})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })

	exactClusters := make(map[string][]candidate)
	for _, c := range candidates {
		exactClusters[c.key] = append(exactClusters[c.key], c)
	}

	claimed := make(map[string]bool)
	var out []model.Violation
	var exactGroupKeys []string
	for key, group := range exactClusters {
		if len(group) < 2 {
			continue
		}
		exactGroupKeys = append(exactGroupKeys, key)
	}
	sort.Strings(exactGroupKeys)
	for _, key := range exactGroupKeys {
		group := exactClusters[key]
		sort.Slice(group, func(i, j int) bool { return group[i].id < group[j].id })
		for _, c := range group {
			claimed[c.id] = true
		}
		out = append(out, emitClusterViolations(ac, group, "exact-algorithm", key)...)
	}

	var remaining []candidate
	for _, c := range candidates {
		if !claimed[c.id] {
			remaining = append(remaining, c)
		}
	}

	meceClusters := clusterBySimilarity(remaining, simThreshold)
	for _, group := range meceClusters {
		if len(group) < 3 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].id < group[j].id })
		clusterID := group[0].id
		out = append(out, emitClusterViolations(ac, group, "mece-similarity", clusterID)...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

func emitClusterViolations(ac *registry.AnalysisContext, group []candidate, passName, clusterID string) []model.Violation {
	var out []model.Violation
	members := make([]string, 0, len(group))
	for _, c := range group {
		members = append(members, c.id)
	}
	for _, c := range group {
		if c.path != ac.File.RelPath {
			continue
		}
		snippet := dcommon.Snippet(ac.File.Content, c.fn.StartLine)
		v := model.Violation{
			RuleID:          ruleDuplication,
			Kind:            model.KindDuplication,
			ConnascenceType: model.ConnascenceAlgorithm,
			FilePath:        ac.File.RelPath,
			Line:            c.fn.StartLine,
			EndLine:         c.fn.EndLine,
			Description:     "function \"" + c.fn.Name + "\" duplicates other members of a " + passName + " cluster",
			Snippet:         snippet,
			Context: map[string]any{
				"symbol":      c.fn.Name,
				"pass":        passName,
				"cluster_id":  clusterID,
				"cluster_size": len(group),
				"members":     members,
			},
		}
		v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, ruleDuplication, c.fn.Name, clusterID)
		base := model.SeverityHigh
		v.Severity = dcommon.Resolve(ruleDuplication, base, false, dcommon.EscalationContext{SymbolName: c.fn.Name}, ac.Policy)
		out = append(out, v)
	}
	return out
}

func allFunctions(syms []*ast.Symbol) []*ast.Symbol {
	var out []*ast.Symbol
	var walk func([]*ast.Symbol)
	walk = func(syms []*ast.Symbol) {
		for _, s := range syms {
			if s.Kind == ast.SymbolKindFunction || s.Kind == ast.SymbolKindMethod {
				out = append(out, s)
			}
			walk(s.Children)
		}
	}
	walk(syms)
	return out
}

// structuralKey builds an identifier-independent shape fingerprint from a
// function's call sequence and child-symbol kinds: each distinct call
// target is replaced by the order it was first seen, so two functions that
// call the same things in the same order under different names collapse
// to the same key.
func structuralKey(fn *ast.Symbol) string {
	tokens := callTokens(fn)
	childKinds := make([]string, 0, len(fn.Children))
	for _, c := range fn.Children {
		childKinds = append(childKinds, c.Kind.String())
	}
	sort.Strings(childKinds)
	return dcommon.Fingerprint(strings.Join(tokens, ","), strings.Join(childKinds, ","))
}

// callTokens returns the function's call sequence with each distinct
// target canonicalized to its first-seen order ("C0", "C1", ...).
func callTokens(fn *ast.Symbol) []string {
	seen := make(map[string]string)
	tokens := make([]string, 0, len(fn.Calls))
	for _, call := range fn.Calls {
		key := call.Target
		if call.IsMethod {
			key = "method:" + key
		}
		label, ok := seen[key]
		if !ok {
			label = "C" + strconv.Itoa(len(seen))
			seen[key] = label
		}
		tokens = append(tokens, label)
	}
	return tokens
}

// clusterBySimilarity groups candidates whose call-token shingle sets have
// Jaccard similarity >= threshold, using union-find over all-pairs
// comparison. This is quadratic in the survivor count (functions the exact
// pass did not already claim), which spec.md §4.5.5 accepts implicitly by
// scoping pass 2 to "functions not caught by pass 1".
func clusterBySimilarity(candidates []candidate, threshold float64) [][]candidate {
	n := len(candidates)
	if n == 0 {
		return nil
	}
	shingles := make([]map[string]struct{}, n)
	for i, c := range candidates {
		shingles[i] = dcommon.Shingle(callTokens(c.fn), 2)
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dcommon.JaccardSimilarity(shingles[i], shingles[j]) >= threshold {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]candidate)
	for i, c := range candidates {
		root := find(i)
		groups[root] = append(groups[root], c)
	}

	var out [][]candidate
	for _, g := range groups {
		out = append(out, g)
	}
	return out
}
