// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package policy resolves the effective rule configuration for every
// (file, detector) pair (spec.md §4.3): preset thresholds, per-rule
// block/warn/ignore buckets and severity overrides, per-file-profile
// threshold overrides, and waiver expiry.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/manifest"
	"github.com/aleutian-oss/concore/services/concore/model"
)

// Preset names spec.md §4.3 requires every implementation to accept.
const (
	PresetStrictCore      = "strict-core"
	PresetServiceDefaults = "service-defaults"
	PresetExperimental    = "experimental"
	PresetNASAJPLPOT10    = "nasa-jpl-pot10"
	PresetModernGeneral   = "modern-general"
)

// Profile classifies a file for the purpose of threshold and severity
// escalation overrides (spec.md §4.3, §4.5 rule 2).
type Profile string

const (
	ProfileCritical     Profile = "critical"
	ProfileGeneral      Profile = "general"
	ProfileTest         Profile = "test"
	ProfileExperimental Profile = "experimental"
)

// Thresholds holds every numeric/set-valued policy option spec.md §4.3
// enumerates.
type Thresholds struct {
	MaxFunctionLines               int       `yaml:"max_function_lines" toml:"max_function_lines" json:"max_function_lines"`
	MaxCyclomaticComplexity        int       `yaml:"max_cyclomatic_complexity" toml:"max_cyclomatic_complexity" json:"max_cyclomatic_complexity"`
	MaxParameters                  int       `yaml:"max_parameters" toml:"max_parameters" json:"max_parameters"`
	MaxNestingDepth                int       `yaml:"max_nesting_depth" toml:"max_nesting_depth" json:"max_nesting_depth"`
	GodObjectMethodThreshold       int       `yaml:"god_object_method_threshold" toml:"god_object_method_threshold" json:"god_object_method_threshold"`
	GodObjectLOCThreshold          int       `yaml:"god_object_loc_threshold" toml:"god_object_loc_threshold" json:"god_object_loc_threshold"`
	MagicLiteralAllowlist          []float64 `yaml:"magic_literal_allowlist" toml:"magic_literal_allowlist" json:"magic_literal_allowlist"`
	DuplicationMinLines            int       `yaml:"duplication_min_lines" toml:"duplication_min_lines" json:"duplication_min_lines"`
	DuplicationSimilarityThreshold float64   `yaml:"duplication_similarity_threshold" toml:"duplication_similarity_threshold" json:"duplication_similarity_threshold"`
}

// RuleBucket classifies rule ids into block/warn/ignore sets, matched by
// exact id or by a "prefix/" hierarchy match, adapted from the lint
// package's RulePolicy.
type RuleBucket struct {
	BlockOn []string
	WarnOn  []string
	Ignore  []string
}

func matchesRule(rule, pattern string) bool {
	rule = strings.ToLower(rule)
	pattern = strings.ToLower(pattern)
	if rule == pattern {
		return true
	}
	if strings.HasPrefix(rule, pattern+"/") {
		return true
	}
	if strings.HasPrefix(rule, pattern) && len(rule) > len(pattern) {
		next := rule[len(pattern)]
		if next >= '0' && next <= '9' {
			return true
		}
	}
	return false
}

func (b RuleBucket) matches(list []string, rule string) bool {
	for _, pattern := range list {
		if matchesRule(rule, pattern) {
			return true
		}
	}
	return false
}

// ShouldIgnore reports whether rule is in the ignore bucket.
func (b RuleBucket) ShouldIgnore(rule string) bool { return b.matches(b.Ignore, rule) }

// ShouldBlock reports whether rule is in the block bucket.
func (b RuleBucket) ShouldBlock(rule string) bool { return b.matches(b.BlockOn, rule) }

// ShouldWarn reports whether rule is in the warn bucket.
func (b RuleBucket) ShouldWarn(rule string) bool { return b.matches(b.WarnOn, rule) }

// OverrideConfig is the user-supplied override layered on top of a preset.
type OverrideConfig struct {
	Thresholds            Thresholds
	RuleBucket            RuleBucket
	SeverityOverrides     map[string]model.Severity
	SeverityFloors        map[string]model.Severity
	ProfileSeverityFloors map[Profile]map[string]model.Severity
	ProfileOverrides      map[Profile]Thresholds
	ProfileGlobs          map[Profile][]string
	IncludeGlobs          []string
	ExcludeGlobs          []string
	FailOn                model.Severity
	Budgets               map[model.Severity]int
}

// PolicyView is the merged, file-specific resolved configuration returned
// by Policy.ViewFor.
type PolicyView struct {
	Profile    Profile
	Thresholds Thresholds

	// RuleBucket, overrides and floors are carried on the view (not just the
	// parent Policy) so detectors need not receive the whole Policy.
	// dcommon.Resolve applies the bucket tiers and floors via FloorFor; it
	// does not consult overrides, which are readable only through OverrideFor.
	RuleBucket RuleBucket
	overrides  map[string]model.Severity
	floors     map[string]model.Severity
}

// OverrideFor resolves rule's explicit severity_overrides entry (spec.md
// §4.3), matched by exact id or prefix/numeric-suffix the same way waivers
// and floors are. Returns ok=false when no override applies.
func (v PolicyView) OverrideFor(rule string) (model.Severity, bool) {
	for pattern, sev := range v.overrides {
		if matchesRule(rule, pattern) {
			return sev, true
		}
	}
	return 0, false
}

// FloorFor resolves rule's severity_floor (spec.md §4.3's per-rule
// `severity_floor` option): the highest floor among every matching source —
// an explicit floor (profile-specific floors taking precedence over the
// global ones set on the base Policy), or the rule bucket's block/warn tier
// (spec.md §4.3's preset buckets double as coarse floors: BlockOn implies at
// least HIGH, WarnOn implies at least MEDIUM, so a preset's "strict-core"
// block list can't be satisfied by a detector quietly emitting LOW).
// Returns ok=false when nothing matches, in which case dcommon.Resolve must
// not touch severity.
func (v PolicyView) FloorFor(rule string) (model.Severity, bool) {
	var floor model.Severity
	found := false
	raise := func(candidate model.Severity) {
		if !found || candidate > floor {
			floor = candidate
			found = true
		}
	}
	for pattern, sev := range v.floors {
		if matchesRule(rule, pattern) {
			raise(sev)
		}
	}
	if v.RuleBucket.ShouldBlock(rule) {
		raise(model.SeverityHigh)
	} else if v.RuleBucket.ShouldWarn(rule) {
		raise(model.SeverityMedium)
	}
	return floor, found
}

// Policy is the resolved, immutable configuration for a run, built by Load.
type Policy struct {
	PresetName   string
	Thresholds   Thresholds
	RuleBucket   RuleBucket
	Severities   map[string]model.Severity
	Floors       map[string]model.Severity
	Waivers      []model.Waiver
	IncludeGlobs []string
	ExcludeGlobs []string
	FailOn       model.Severity
	Budgets      map[model.Severity]int

	profileGlobs  map[Profile]*manifest.GlobMatcher
	profileOvr    map[Profile]Thresholds
	profileFloors map[Profile]map[string]model.Severity
}

// IsPresetName reports whether name is one of the five built-in presets, as
// opposed to a path to a policy file.
func IsPresetName(name string) bool {
	_, ok := presets[name]
	return ok
}

// presets maps each recognized preset name to its baseline Thresholds,
// RuleBucket and severity_floor set (spec.md §4.3). strict-core and
// nasa-jpl-pot10 tighten limits and set floors that keep their named rule
// families from ever reporting below a minimum severity; experimental
// relaxes everything; modern-general and service-defaults sit in between
// with no floors of their own.
var presets = map[string]struct {
	thresholds Thresholds
	bucket     RuleBucket
	floors     map[string]model.Severity
}{
	PresetStrictCore: {
		thresholds: Thresholds{
			MaxFunctionLines: 40, MaxCyclomaticComplexity: 8, MaxParameters: 4,
			MaxNestingDepth: 3, GodObjectMethodThreshold: 15, GodObjectLOCThreshold: 400,
			DuplicationMinLines: 6, DuplicationSimilarityThreshold: 0.85,
		},
		bucket: RuleBucket{BlockOn: []string{"connascence", "nasa", "god-object"}},
		floors: map[string]model.Severity{"nasa": model.SeverityHigh, "god-object": model.SeverityHigh},
	},
	PresetServiceDefaults: {
		thresholds: Thresholds{
			MaxFunctionLines: 80, MaxCyclomaticComplexity: 12, MaxParameters: 6,
			MaxNestingDepth: 4, GodObjectMethodThreshold: 25, GodObjectLOCThreshold: 750,
			DuplicationMinLines: 8, DuplicationSimilarityThreshold: 0.85,
		},
		bucket: RuleBucket{WarnOn: []string{"connascence", "nasa", "god-object", "clarity", "duplication"}},
	},
	PresetExperimental: {
		thresholds: Thresholds{
			MaxFunctionLines: 150, MaxCyclomaticComplexity: 20, MaxParameters: 8,
			MaxNestingDepth: 6, GodObjectMethodThreshold: 40, GodObjectLOCThreshold: 1200,
			DuplicationMinLines: 10, DuplicationSimilarityThreshold: 0.9,
		},
		bucket: RuleBucket{WarnOn: []string{"connascence", "nasa", "god-object", "clarity", "duplication"}},
	},
	PresetNASAJPLPOT10: {
		thresholds: Thresholds{
			MaxFunctionLines: 60, MaxCyclomaticComplexity: 10, MaxParameters: 5,
			MaxNestingDepth: 3, GodObjectMethodThreshold: 20, GodObjectLOCThreshold: 500,
			DuplicationMinLines: 6, DuplicationSimilarityThreshold: 0.85,
		},
		bucket: RuleBucket{BlockOn: []string{"nasa"}, WarnOn: []string{"connascence", "god-object", "clarity", "duplication"}},
		floors: map[string]model.Severity{"nasa": model.SeverityHigh},
	},
	PresetModernGeneral: {
		thresholds: Thresholds{
			MaxFunctionLines: 100, MaxCyclomaticComplexity: 15, MaxParameters: 6,
			MaxNestingDepth: 5, GodObjectMethodThreshold: 30, GodObjectLOCThreshold: 900,
			DuplicationMinLines: 8, DuplicationSimilarityThreshold: 0.88,
		},
		bucket: RuleBucket{WarnOn: []string{"connascence", "nasa", "god-object", "clarity", "duplication"}},
	},
}

// Load resolves preset, override and waivers into an immutable Policy
// (spec.md §4.3's load operation). An unknown preset name is fatal.
func Load(presetName string, override *OverrideConfig, waivers []model.Waiver) (*Policy, error) {
	base, ok := presets[presetName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", coreerr.ErrPolicyInvalid, presetName)
	}

	p := &Policy{
		PresetName:    presetName,
		Thresholds:    base.thresholds,
		RuleBucket:    base.bucket,
		Severities:    make(map[string]model.Severity),
		Floors:        make(map[string]model.Severity, len(base.floors)),
		Waivers:       waivers,
		FailOn:        model.SeverityHigh,
		profileOvr:    make(map[Profile]Thresholds),
		profileFloors: make(map[Profile]map[string]model.Severity),
	}
	for rule, sev := range base.floors {
		p.Floors[rule] = sev
	}

	if override != nil {
		p.Thresholds = mergeThresholds(p.Thresholds, override.Thresholds)
		p.RuleBucket = mergeBuckets(p.RuleBucket, override.RuleBucket)
		for rule, sev := range override.SeverityOverrides {
			p.Severities[rule] = sev
		}
		for rule, sev := range override.SeverityFloors {
			p.Floors[rule] = sev
		}
		for profile, floors := range override.ProfileSeverityFloors {
			merged := make(map[string]model.Severity, len(floors))
			for rule, sev := range floors {
				merged[rule] = sev
			}
			p.profileFloors[profile] = merged
		}
		if len(override.IncludeGlobs) > 0 {
			p.IncludeGlobs = override.IncludeGlobs
		}
		if len(override.ExcludeGlobs) > 0 {
			p.ExcludeGlobs = override.ExcludeGlobs
		}
		if override.FailOn != 0 {
			p.FailOn = override.FailOn
		}
		if len(override.Budgets) > 0 {
			p.Budgets = override.Budgets
		}
		for profile, thresholds := range override.ProfileOverrides {
			p.profileOvr[profile] = thresholds
		}
		if len(override.ProfileGlobs) > 0 {
			p.profileGlobs = make(map[Profile]*manifest.GlobMatcher, len(override.ProfileGlobs))
			for profile, globs := range override.ProfileGlobs {
				p.profileGlobs[profile] = manifest.NewGlobMatcher(globs, nil)
			}
		}
	}

	return p, nil
}

// mergeThresholds overlays any non-zero field of override onto base.
func mergeThresholds(base, override Thresholds) Thresholds {
	if override.MaxFunctionLines != 0 {
		base.MaxFunctionLines = override.MaxFunctionLines
	}
	if override.MaxCyclomaticComplexity != 0 {
		base.MaxCyclomaticComplexity = override.MaxCyclomaticComplexity
	}
	if override.MaxParameters != 0 {
		base.MaxParameters = override.MaxParameters
	}
	if override.MaxNestingDepth != 0 {
		base.MaxNestingDepth = override.MaxNestingDepth
	}
	if override.GodObjectMethodThreshold != 0 {
		base.GodObjectMethodThreshold = override.GodObjectMethodThreshold
	}
	if override.GodObjectLOCThreshold != 0 {
		base.GodObjectLOCThreshold = override.GodObjectLOCThreshold
	}
	if len(override.MagicLiteralAllowlist) > 0 {
		base.MagicLiteralAllowlist = override.MagicLiteralAllowlist
	}
	if override.DuplicationMinLines != 0 {
		base.DuplicationMinLines = override.DuplicationMinLines
	}
	if override.DuplicationSimilarityThreshold != 0 {
		base.DuplicationSimilarityThreshold = override.DuplicationSimilarityThreshold
	}
	return base
}

func mergeBuckets(base, override RuleBucket) RuleBucket {
	base.BlockOn = append(append([]string{}, base.BlockOn...), override.BlockOn...)
	base.WarnOn = append(append([]string{}, base.WarnOn...), override.WarnOn...)
	base.Ignore = append(append([]string{}, base.Ignore...), override.Ignore...)
	return base
}

// ViewFor returns the merged thresholds for filePath, with any matching
// profile override applied (spec.md §4.3's view_for operation). The first
// profile (in map iteration order made deterministic by checking a fixed
// priority list) whose globs match wins; unmatched files get ProfileGeneral.
func (p *Policy) ViewFor(filePath string) PolicyView {
	for _, profile := range []Profile{ProfileCritical, ProfileTest, ProfileExperimental} {
		matcher, ok := p.profileGlobs[profile]
		if !ok {
			continue
		}
		if matcher.Match(filePath) {
			thresholds := p.Thresholds
			if ovr, ok := p.profileOvr[profile]; ok {
				thresholds = mergeThresholds(thresholds, ovr)
			}
			return PolicyView{Profile: profile, Thresholds: thresholds, RuleBucket: p.RuleBucket, overrides: p.Severities, floors: p.floorsFor(profile)}
		}
	}
	thresholds := p.Thresholds
	if ovr, ok := p.profileOvr[ProfileGeneral]; ok {
		thresholds = mergeThresholds(thresholds, ovr)
	}
	return PolicyView{Profile: ProfileGeneral, Thresholds: thresholds, RuleBucket: p.RuleBucket, overrides: p.Severities, floors: p.floorsFor(ProfileGeneral)}
}

// floorsFor merges the policy's global severity floors with any
// profile-specific floors (glossary: "the minimum severity a rule may take
// for a specific file profile"), the latter taking precedence per rule id.
func (p *Policy) floorsFor(profile Profile) map[string]model.Severity {
	if len(p.Floors) == 0 && len(p.profileFloors[profile]) == 0 {
		return nil
	}
	merged := make(map[string]model.Severity, len(p.Floors)+len(p.profileFloors[profile]))
	for rule, sev := range p.Floors {
		merged[rule] = sev
	}
	for rule, sev := range p.profileFloors[profile] {
		merged[rule] = sev
	}
	return merged
}

// IsWaived reports whether v is covered by an active waiver, matching
// rule_id and path_pattern (spec.md §4.3). An expired waiver is treated as
// inactive and reported via the returned diagnostic instead of silently
// suppressing the violation.
func (p *Policy) IsWaived(v model.Violation, now time.Time) (bool, *model.Diagnostic) {
	for _, w := range p.Waivers {
		if !matchesRule(v.RuleID, w.RuleID) {
			continue
		}
		if w.PathPattern != "" && !manifest.NewGlobMatcher([]string{w.PathPattern}, nil).Match(v.FilePath) {
			continue
		}
		if !w.ExpiresOn.IsZero() && now.After(w.ExpiresOn) {
			return false, &model.Diagnostic{
				FilePath: v.FilePath,
				Kind:     coreerr.KindWaiverExpired,
				Message:  fmt.Sprintf("waiver for %s on %s expired %s", w.RuleID, w.PathPattern, w.ExpiresOn),
			}
		}
		return true, nil
	}
	return false, nil
}
