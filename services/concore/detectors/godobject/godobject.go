// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package godobject implements the God-Object detector (spec.md §4.5.2):
// method count, total LOC, responsibility set and cohesion score per
// class, classified into a context (classifier.go) before the
// context-specific thresholds are applied.
package godobject

import (
	"context"
	"sort"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/detectors/dcommon"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

const ruleGodObject = "structural/god-object"

// cohesionFloor is the minimum acceptable cohesion score; the policy view
// carries no per-context override for it, so it is a fixed constant
// (spec.md §4.5.2 leaves "cohesion_floor" as a detector-owned constant,
// unlike method/loc thresholds which are policy-configurable).
const cohesionFloor = 0.3

// contextMultiplier loosens or tightens the base method/LOC thresholds by
// class context, since UTILITY/CONFIG classes legitimately accumulate more
// small methods than BUSINESS_LOGIC classes should.
var contextMultiplier = map[Context]float64{
	ContextConfig:         1.5,
	ContextDataModel:      1.3,
	ContextAPIController:  1.0,
	ContextUtility:        1.5,
	ContextBusinessLogic:  1.0,
	ContextFramework:      1.2,
	ContextTest:           2.0,
	ContextInfrastructure: 1.2,
	ContextUnknown:        1.0,
}

// responsibility labels a method can be classified into (spec.md §4.5.2).
const (
	respDataManagement = "data_management"
	respBusinessRule    = "business_rule"
	respCoordination    = "coordination"
	respTransformation  = "transformation"
	respValidation      = "validation"
	respPersistence     = "persistence"
	respCommunication   = "communication"
	respConfiguration   = "configuration"
)

var responsibilityPrefixes = map[string]string{
	"get": respDataManagement, "set": respDataManagement, "fetch": respDataManagement,
	"calculate": respBusinessRule, "compute": respBusinessRule, "apply": respBusinessRule,
	"coordinate": respCoordination, "orchestrate": respCoordination, "dispatch": respCoordination,
	"transform": respTransformation, "convert": respTransformation, "parse": respTransformation, "serialize": respTransformation,
	"validate": respValidation, "check": respValidation, "verify": respValidation,
	"save": respPersistence, "load": respPersistence, "persist": respPersistence, "store": respPersistence,
	"send": respCommunication, "publish": respCommunication, "notify": respCommunication, "request": respCommunication,
	"configure": respConfiguration, "init": respConfiguration, "setup": respConfiguration,
}

func init() {
	registry.Register(New())
}

// Detector flags classes/structs that accumulate too much responsibility
// (spec.md §4.5.2).
type Detector struct{}

// New returns a God-Object Detector.
func New() *Detector { return &Detector{} }

func (d *Detector) ID() string { return "god-object" }

func (d *Detector) SupportedLanguages() []model.Language {
	return []model.Language{
		model.LangGo, model.LangPython, model.LangJavaScript, model.LangTypeScript,
		model.LangJava, model.LangCPP, model.LangC, model.LangRust,
	}
}

func (d *Detector) Kind() model.Kind { return model.KindStructural }

func (d *Detector) RuleIDs() []string { return []string{ruleGodObject} }

func (d *Detector) RequiresContext() bool { return true }

// Analyze walks every class/struct/interface symbol in the file and emits
// one violation per class that crosses its context's thresholds.
func (d *Detector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if ac.Parse == nil {
		return nil, nil
	}
	methodThreshold := ac.Policy.Thresholds.GodObjectMethodThreshold
	if methodThreshold <= 0 {
		methodThreshold = 15
	}
	locThreshold := ac.Policy.Thresholds.GodObjectLOCThreshold
	if locThreshold <= 0 {
		locThreshold = 300
	}

	var out []model.Violation
	for _, class := range classSymbols(ac.Parse.Symbols) {
		methods := methodsOf(class)
		methodCount := len(methods)
		totalLOC := class.EndLine - class.StartLine + 1
		responsibilities := responsibilitySet(methods)
		cohesion := cohesionScore(methods)

		classCtx := Classify(class, ac.File.RelPath)
		mult := contextMultiplier[classCtx]
		if mult == 0 {
			mult = 1.0
		}
		adjMethodThreshold := int(float64(methodThreshold) * mult)
		adjLOCThreshold := int(float64(locThreshold) * mult)

		exceedsMethods := methodCount > adjMethodThreshold
		exceedsLOC := totalLOC > adjLOCThreshold
		lowCohesion := cohesion < cohesionFloor && len(responsibilities) >= 3

		if !exceedsMethods && !exceedsLOC && !lowCohesion {
			continue
		}

		reasons := reasonList(exceedsMethods, exceedsLOC, lowCohesion)
		snippet := dcommon.Snippet(ac.File.Content, class.StartLine)
		v := model.Violation{
			RuleID:      ruleGodObject,
			Kind:        model.KindStructural,
			FilePath:    ac.File.RelPath,
			Line:        class.StartLine,
			Column:      class.StartCol,
			EndLine:     class.EndLine,
			EndColumn:   class.EndCol,
			Description: "class \"" + class.Name + "\" accumulates too much responsibility: " + strings.Join(reasons, ", "),
			Snippet:     snippet,
			Context: map[string]any{
				"symbol":            class.Name,
				"class_context":     string(classCtx),
				"method_count":      methodCount,
				"total_loc":         totalLOC,
				"cohesion_score":    cohesion,
				"responsibilities":  sortedResponsibilities(responsibilities),
				"method_threshold":  adjMethodThreshold,
				"loc_threshold":     adjLOCThreshold,
			},
		}
		v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, ruleGodObject, class.Name)
		base := model.SeverityMedium
		if exceedsMethods && exceedsLOC {
			base = model.SeverityHigh
		}
		v.Severity = dcommon.Resolve(ruleGodObject, base, false, dcommon.EscalationContext{
			SymbolName: class.Name,
		}, ac.Policy)
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
}

func classSymbols(syms []*ast.Symbol) []*ast.Symbol {
	var out []*ast.Symbol
	var walk func([]*ast.Symbol)
	walk = func(syms []*ast.Symbol) {
		for _, s := range syms {
			if s.Kind == ast.SymbolKindClass || s.Kind == ast.SymbolKindStruct || s.Kind == ast.SymbolKindInterface {
				out = append(out, s)
			}
			walk(s.Children)
		}
	}
	walk(syms)
	return out
}

func responsibilitySet(methods []*ast.Symbol) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range methods {
		set[responsibilityOf(m)] = struct{}{}
	}
	delete(set, "")
	return set
}

func responsibilityOf(m *ast.Symbol) string {
	lower := strings.ToLower(m.Name)
	for prefix, label := range responsibilityPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return label
		}
	}
	return ""
}

// cohesionScore approximates spec.md §4.5.2's pairwise field-access/
// responsibility-overlap metric using receiver-qualified call targets as a
// proxy for field access, since the AST carries calls, not raw field
// reads.
func cohesionScore(methods []*ast.Symbol) float64 {
	if len(methods) < 2 {
		return 1.0
	}
	type touch struct {
		fields map[string]struct{}
		resp   string
	}
	touches := make([]touch, len(methods))
	for i, m := range methods {
		fields := make(map[string]struct{})
		for _, call := range m.Calls {
			if call.Receiver != "" {
				fields[call.Receiver] = struct{}{}
			}
		}
		touches[i] = touch{fields: fields, resp: responsibilityOf(m)}
	}

	var total float64
	pairs := 0
	for i := 0; i < len(touches); i++ {
		for j := i + 1; j < len(touches); j++ {
			shared := 0
			for f := range touches[i].fields {
				if _, ok := touches[j].fields[f]; ok {
					shared++
				}
			}
			sameResp := 0
			if touches[i].resp != "" && touches[i].resp == touches[j].resp {
				sameResp = 1
			}
			totalFields := len(touches[i].fields) + len(touches[j].fields)
			score := float64(shared+sameResp) / float64(1+totalFields)
			total += score
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}
	avg := total / float64(pairs)
	if avg > 1.0 {
		avg = 1.0
	}
	return avg
}

func reasonList(exceedsMethods, exceedsLOC, lowCohesion bool) []string {
	var reasons []string
	if exceedsMethods {
		reasons = append(reasons, "too many methods")
	}
	if exceedsLOC {
		reasons = append(reasons, "too many lines")
	}
	if lowCohesion {
		reasons = append(reasons, "low cohesion across responsibilities")
	}
	return reasons
}

func sortedResponsibilities(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
