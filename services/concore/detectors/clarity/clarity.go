// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package clarity implements the clarity linter family (spec.md §4.5, open
// question 2): long-line and deep-nesting checks. The remaining clarity
// sub-checks a full product would carry (naming, comment density) are left
// for a future detector package; this one ships real, not stubbed.
package clarity

import (
	"context"
	"sort"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/detectors/dcommon"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

const (
	ruleLongLine    = "clarity/long-line"
	ruleDeepNesting = "clarity/deep-nesting"

	maxLineLength = 120
)

func init() {
	registry.Register(New())
}

// Detector flags lines that exceed the clarity line-length ceiling and
// functions whose body nests deeper than the policy's MaxNestingDepth.
type Detector struct{}

// New returns a clarity Detector.
func New() *Detector { return &Detector{} }

func (d *Detector) ID() string { return "clarity" }

func (d *Detector) SupportedLanguages() []model.Language {
	return []model.Language{
		model.LangGo, model.LangPython, model.LangJavaScript, model.LangTypeScript,
		model.LangC, model.LangCPP, model.LangJava, model.LangRust,
	}
}

func (d *Detector) Kind() model.Kind { return model.KindClarity }

func (d *Detector) RuleIDs() []string { return []string{ruleLongLine, ruleDeepNesting} }

func (d *Detector) RequiresContext() bool { return false }

// Analyze scans the file's raw lines for length violations and walks every
// function-like symbol's body for indentation-depth violations.
func (d *Detector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if ac.Parse == nil {
		return nil, nil
	}
	var violations []model.Violation

	violations = append(violations, d.longLines(ac)...)
	violations = append(violations, d.deepNesting(ac)...)

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		if violations[i].Column != violations[j].Column {
			return violations[i].Column < violations[j].Column
		}
		return violations[i].RuleID < violations[j].RuleID
	})
	return violations, nil
}

func (d *Detector) longLines(ac *registry.AnalysisContext) []model.Violation {
	var out []model.Violation
	lines := strings.Split(string(ac.File.Content), "\n")
	for i, line := range lines {
		length := len(line)
		if length <= maxLineLength {
			continue
		}
		v := model.Violation{
			RuleID:      ruleLongLine,
			Kind:        model.KindClarity,
			FilePath:    ac.File.RelPath,
			Line:        i + 1,
			Column:      maxLineLength + 1,
			EndLine:     i + 1,
			EndColumn:   length,
			Description: "line exceeds the clarity length ceiling",
			Snippet:     dcommon.Snippet(ac.File.Content, i+1),
			Context:     map[string]any{"length": length, "limit": maxLineLength},
		}
		v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, ruleLongLine, v.Snippet)
		v.Severity = dcommon.Resolve(ruleLongLine, model.SeverityLow, false, dcommon.EscalationContext{
			Snippet:       v.Snippet,
			InConditional: dcommon.InConditionalContext(lines, i+1),
		}, ac.Policy)
		out = append(out, v)
	}
	return out
}

func (d *Detector) deepNesting(ac *registry.AnalysisContext) []model.Violation {
	var out []model.Violation
	limit := ac.Policy.Thresholds.MaxNestingDepth
	if limit <= 0 {
		limit = 4
	}
	lines := strings.Split(string(ac.File.Content), "\n")

	var walk func(sym *ast.Symbol)
	walk = func(sym *ast.Symbol) {
		if sym.Kind == ast.SymbolKindFunction || sym.Kind == ast.SymbolKindMethod {
			if depth, line := maxNestingDepth(lines, sym.StartLine, sym.EndLine); depth > limit {
				v := model.Violation{
					RuleID:      ruleDeepNesting,
					Kind:        model.KindClarity,
					FilePath:    ac.File.RelPath,
					Line:        line,
					Column:      sym.StartCol,
					EndLine:     sym.EndLine,
					EndColumn:   sym.EndCol,
					Description: "function body nests deeper than the policy limit",
					Snippet:     dcommon.Snippet(ac.File.Content, line),
					Context:     map[string]any{"depth": depth, "limit": limit, "symbol": sym.Name},
				}
				v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, sym.Name, ruleDeepNesting)
				v.Severity = dcommon.Resolve(ruleDeepNesting, model.SeverityLow, false, dcommon.EscalationContext{
					SymbolName:    sym.Name,
					InConditional: dcommon.InConditionalContext(lines, line),
				}, ac.Policy)
				out = append(out, v)
			}
		}
		for _, child := range sym.Children {
			walk(child)
		}
	}
	for _, sym := range ac.Parse.Symbols {
		walk(sym)
	}
	return out
}

// maxNestingDepth estimates indentation-based nesting depth within
// [startLine, endLine] of lines, returning the deepest level reached and
// the 1-indexed line it was first reached on. Depth is measured in indent
// units relative to the function's own opening line, tolerating both tab
// and space indentation by treating a tab as one unit and every run of two
// spaces as one unit.
func maxNestingDepth(lines []string, startLine, endLine int) (int, int) {
	if startLine <= 0 || startLine > len(lines) {
		return 0, startLine
	}
	base := dcommon.IndentUnits(lines[startLine-1])
	maxDepth, atLine := 0, startLine

	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	for i := startLine; i < end; i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth := dcommon.IndentUnits(line) - base
		if depth > maxDepth {
			maxDepth = depth
			atLine = i + 1
		}
	}
	return maxDepth, atLine
}

