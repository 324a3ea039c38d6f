// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry holds the set of detector descriptors available to an
// analysis run (spec.md §4.4). Registration is static per process: each
// detector package registers itself from an init() function, so adding a
// detector means shipping code rather than loading a plugin at runtime.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
)

// AnalysisContext is the read-only view a Detector receives for one file
// (spec.md §4.5). Detectors must not mutate the AST; they may only read it
// and the resolved policy view.
type AnalysisContext struct {
	File   model.SourceFile
	Parse  *ast.ParseResult
	Policy policy.PolicyView
	// AllParses gives cross-file detectors (duplication) a read-only view
	// of every file in the current run, keyed by relative path.
	AllParses map[string]*ast.ParseResult
}

// Detector analyzes one file and emits violations (spec.md §4.5's common
// contract). Implementations must be pure with respect to the AST and
// deterministic: identical input always yields identical, identically
// ordered output.
type Detector interface {
	// ID returns the stable detector id (e.g. "connascence", "god-object").
	ID() string
	// SupportedLanguages lists the languages this detector can analyze.
	SupportedLanguages() []model.Language
	// Kind returns the Violation.Kind this detector emits.
	Kind() model.Kind
	// RuleIDs lists every rule id this detector can emit.
	RuleIDs() []string
	// RequiresContext reports whether this detector needs class-context
	// classification (CONFIG/CONSTANT/etc.) to run correctly.
	RequiresContext() bool
	// Analyze runs the detector against one file.
	Analyze(ctx context.Context, ac *AnalysisContext) ([]model.Violation, error)
}

// Registry holds every registered Detector, indexed by id and language.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]Detector
	byLanguage map[model.Language][]Detector
}

// defaultRegistry is the process-wide registry detector packages register
// into from their init() functions.
var defaultRegistry = NewRegistry()

// Default returns the process-wide detector registry.
func Default() *Registry { return defaultRegistry }

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]Detector),
		byLanguage: make(map[model.Language][]Detector),
	}
}

// Register adds d to the registry. Calling Register twice with the same
// detector id replaces the previous registration.
func (r *Registry) Register(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[d.ID()]; ok {
		r.removeFromLanguageIndex(existing)
	}
	r.byID[d.ID()] = d
	for _, lang := range d.SupportedLanguages() {
		r.byLanguage[lang] = append(r.byLanguage[lang], d)
	}
}

func (r *Registry) removeFromLanguageIndex(d Detector) {
	for _, lang := range d.SupportedLanguages() {
		list := r.byLanguage[lang]
		for i, existing := range list {
			if existing.ID() == d.ID() {
				r.byLanguage[lang] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// Register adds d to the process-wide default registry.
func Register(d Detector) { defaultRegistry.Register(d) }

// ForLanguage returns every detector applicable to lang, sorted by id for
// deterministic ordering.
func (r *Registry) ForLanguage(lang model.Language) []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := append([]Detector{}, r.byLanguage[lang]...)
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// EnabledForLanguage returns every detector applicable to lang, filtered by
// bucket's ignore set (spec.md §4.4: "return the enabled detectors
// applicable to a given language"; §4.3's per-rule `enabled` field is
// modeled here as "detector id present in the policy's ignore bucket"). A
// detector whose id matches an ignore pattern is excluded entirely rather
// than run and have its violations discarded downstream, since spec.md
// §4.5.1's detector ids (connascence, nasa, god-object, clarity,
// duplication) are exactly the bucket prefixes presets already use.
func (r *Registry) EnabledForLanguage(lang model.Language, bucket policy.RuleBucket) []Detector {
	all := r.ForLanguage(lang)
	out := make([]Detector, 0, len(all))
	for _, d := range all {
		if bucket.ShouldIgnore(d.ID()) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// All returns every registered detector, sorted by id.
func (r *Registry) All() []Detector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Detector, 0, len(r.byID))
	for _, d := range r.byID {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Get returns the detector registered under id, if any.
func (r *Registry) Get(id string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}
