// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package nasa implements the NASA Power-of-Ten detector (spec.md §4.5.4):
// ten rules, each its own rule id NASA-1..NASA-10, severity CRITICAL for
// rules 1-3, HIGH for 4-5, MEDIUM otherwise. Several rules (no dynamic
// allocation after init, variables at smallest scope, unused return
// values) have no ground truth available from a declaration-level AST;
// those are implemented as named, narrow heuristics rather than skipped,
// so the family ships with all ten rule ids wired rather than a partial
// set.
package nasa

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/detectors/dcommon"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

const (
	ruleGoto              = "NASA-1"
	ruleUnboundedLoop      = "NASA-2"
	ruleAllocationInLoop   = "NASA-3"
	ruleFunctionTooLong    = "NASA-4"
	ruleTooFewAssertions   = "NASA-5"
	ruleScopeTooWide       = "NASA-6"
	ruleUnusedReturn       = "NASA-7"
	rulePreprocessorInBody = "NASA-8"
	ruleExcessiveIndirection = "NASA-9"
	ruleWarningSuppressed  = "NASA-10"
)

var (
	gotoPattern        = regexp.MustCompile(`(?m)^\s*goto\s+\w+`)
	infiniteLoopPattern = regexp.MustCompile(`(?i)\b(while\s*\(\s*(true|1)\s*\)|while\s+true|for\s*\(\s*;\s*;\s*\)|for\s*\{)`)
	allocPattern        = regexp.MustCompile(`\b(malloc|calloc|realloc|new\s+\w+|make\(|append\()`)
	assertPattern       = regexp.MustCompile(`(?i)\b(assert|require|panic|errorf|must)\w*\s*\(`)
	varDeclPattern      = regexp.MustCompile(`(?m)^(\s*)(?:var|let)\s+(\w+)`)
	bareCallPattern     = regexp.MustCompile(`(?m)^\s*(Get|Fetch|Compute|Parse|Read|Calculate)\w*\([^)]*\)\s*$`)
	preprocessorPattern = regexp.MustCompile(`(?m)^\s*#\s*(define|include|ifdef|ifndef)\b`)
	doublePointerPattern = regexp.MustCompile(`\*\*\w|->\s*\w[\w.]*->`)
	suppressionPattern  = regexp.MustCompile(`(?i)//\s*(nolint|eslint-disable)|#\s*noqa`)
)

func init() {
	registry.Register(New())
}

// Detector implements the ten NASA Power-of-Ten checks.
type Detector struct{}

// New returns a NASA Detector.
func New() *Detector { return &Detector{} }

func (d *Detector) ID() string { return "nasa" }

func (d *Detector) SupportedLanguages() []model.Language {
	return []model.Language{
		model.LangGo, model.LangC, model.LangCPP, model.LangRust,
		model.LangPython, model.LangJavaScript, model.LangTypeScript, model.LangJava,
	}
}

func (d *Detector) Kind() model.Kind { return model.KindNASA }

func (d *Detector) RuleIDs() []string {
	return []string{
		ruleGoto, ruleUnboundedLoop, ruleAllocationInLoop, ruleFunctionTooLong, ruleTooFewAssertions,
		ruleScopeTooWide, ruleUnusedReturn, rulePreprocessorInBody, ruleExcessiveIndirection, ruleWarningSuppressed,
	}
}

func (d *Detector) RequiresContext() bool { return false }

// Analyze runs each of the ten rules over every function-like symbol in the
// file plus, for rule 1, a call-graph cycle check across the whole file.
func (d *Detector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if ac.Parse == nil {
		return nil, nil
	}
	lines := strings.Split(string(ac.File.Content), "\n")
	fns := allFunctions(ac.Parse.Symbols)

	var out []model.Violation
	out = append(out, checkRecursionCycles(ac, fns)...)
	for _, fn := range fns {
		body := bodyText(lines, fn.StartLine, fn.EndLine)
		out = append(out, checkGoto(ac, fn, body)...)
		out = append(out, checkUnboundedLoop(ac, fn, body)...)
		out = append(out, checkAllocationInLoop(ac, fn, body)...)
		out = append(out, checkFunctionLength(ac, fn)...)
		out = append(out, checkAssertionCount(ac, fn, body)...)
		out = append(out, checkScopeWidth(ac, fn, body)...)
		out = append(out, checkUnusedReturn(ac, fn, body)...)
		out = append(out, checkPreprocessorInBody(ac, fn, body)...)
		out = append(out, checkExcessiveIndirection(ac, fn, body)...)
		out = append(out, checkSuppressedWarning(ac, fn, body)...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		if out[i].RuleID != out[j].RuleID {
			return out[i].RuleID < out[j].RuleID
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	return out, nil
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

func bodyText(lines []string, start, end int) string {
	if start <= 0 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

func violation(ac *registry.AnalysisContext, rule string, base model.Severity, fn *ast.Symbol, line int, desc string, extra map[string]any) model.Violation {
	if line == 0 && fn != nil {
		line = fn.StartLine
	}
	snippet := dcommon.Snippet(ac.File.Content, line)
	name := ""
	if fn != nil {
		name = fn.Name
	}
	v := model.Violation{
		RuleID:      rule,
		Kind:        model.KindNASA,
		FilePath:    ac.File.RelPath,
		Line:        line,
		Description: desc,
		Snippet:     snippet,
		Context:     extra,
	}
	v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, rule, name, snippet)
	lines := strings.Split(string(ac.File.Content), "\n")
	v.Severity = dcommon.Resolve(rule, base, false, dcommon.EscalationContext{
		Snippet:       snippet,
		SymbolName:    name,
		InConditional: dcommon.InConditionalContext(lines, line),
	}, ac.Policy)
	return v
}

func checkGoto(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	if !gotoPattern.MatchString(body) {
		return nil
	}
	return []model.Violation{violation(ac, ruleGoto, model.SeverityCritical, fn, fn.StartLine,
		"function \""+fn.Name+"\" uses goto / unstructured control flow", map[string]any{"symbol": fn.Name})}
}

// checkRecursionCycles builds a same-file call graph and flags functions
// that participate in a cycle (direct or mutual recursion), the other half
// of NASA-1.
func checkRecursionCycles(ac *registry.AnalysisContext, fns []*ast.Symbol) []model.Violation {
	byName := make(map[string]*ast.Symbol, len(fns))
	for _, fn := range fns {
		byName[fn.Name] = fn
	}
	var out []model.Violation
	reported := make(map[string]bool)
	for _, fn := range fns {
		visited := make(map[string]bool)
		if inCycle(fn.Name, fn.Name, byName, visited, true) && !reported[fn.Name] {
			reported[fn.Name] = true
			out = append(out, violation(ac, ruleGoto, model.SeverityCritical, fn, fn.StartLine,
				"function \""+fn.Name+"\" participates in a same-file recursive call cycle", map[string]any{"symbol": fn.Name}))
		}
	}
	return out
}

func inCycle(start, current string, byName map[string]*ast.Symbol, visited map[string]bool, first bool) bool {
	fn, ok := byName[current]
	if !ok {
		return false
	}
	for _, call := range fn.Calls {
		target := call.Target
		if target == start && !first {
			return true
		}
		if target == start {
			continue
		}
		if visited[target] {
			continue
		}
		visited[target] = true
		if inCycle(start, target, byName, visited, false) {
			return true
		}
	}
	return false
}

func checkUnboundedLoop(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	if !infiniteLoopPattern.MatchString(body) {
		return nil
	}
	return []model.Violation{violation(ac, ruleUnboundedLoop, model.SeverityCritical, fn, fn.StartLine,
		"function \""+fn.Name+"\" contains a loop without a statically determinable bound", map[string]any{"symbol": fn.Name})}
}

func checkAllocationInLoop(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	lines := strings.Split(body, "\n")
	base := 0
	if len(lines) > 0 {
		base = indentUnits(lines[0])
	}
	var out []model.Violation
	loopDepth := 0
	for i, line := range lines {
		if isLoopLine(line) {
			loopDepth++
		}
		if loopDepth > 0 && allocPattern.MatchString(line) && indentUnits(line) > base {
			out = append(out, violation(ac, ruleAllocationInLoop, model.SeverityCritical, fn, fn.StartLine+i,
				"dynamic allocation inside a loop in \""+fn.Name+"\"", map[string]any{"symbol": fn.Name}))
		}
	}
	return out
}

func isLoopLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "for ") || strings.HasPrefix(trimmed, "for(") ||
		strings.HasPrefix(trimmed, "while ") || strings.HasPrefix(trimmed, "while(")
}

func indentUnits(line string) int {
	units, spaces := 0, 0
	for _, r := range line {
		switch r {
		case '\t':
			units++
		case ' ':
			spaces++
			if spaces == 2 {
				units++
				spaces = 0
			}
		default:
			return units
		}
	}
	return units
}

func checkFunctionLength(ac *registry.AnalysisContext, fn *ast.Symbol) []model.Violation {
	limit := ac.Policy.Thresholds.MaxFunctionLines
	if limit <= 0 {
		limit = 60
	}
	lines := fn.EndLine - fn.StartLine + 1
	if lines <= limit {
		return nil
	}
	return []model.Violation{violation(ac, ruleFunctionTooLong, model.SeverityHigh, fn, fn.StartLine,
		"function \""+fn.Name+"\" exceeds the policy's function-length limit", map[string]any{"symbol": fn.Name, "lines": lines, "limit": limit})}
}

func checkAssertionCount(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	lines := fn.EndLine - fn.StartLine + 1
	if lines < 10 {
		return nil
	}
	count := len(assertPattern.FindAllString(body, -1))
	if count >= 2 {
		return nil
	}
	return []model.Violation{violation(ac, ruleTooFewAssertions, model.SeverityHigh, fn, fn.StartLine,
		"non-trivial function \""+fn.Name+"\" has fewer than two assertions/preconditions", map[string]any{"symbol": fn.Name, "assertions": count})}
}

func checkScopeWidth(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	var out []model.Violation
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		m := varDeclPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		declIndent := indentUnits(line)
		name := m[2]
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], name) {
				if indentUnits(lines[j]) >= declIndent+2 {
					out = append(out, violation(ac, ruleScopeTooWide, model.SeverityMedium, fn, fn.StartLine+i,
						"variable \""+name+"\" declared wider than its first nested use", map[string]any{"symbol": fn.Name, "variable": name}))
				}
				break
			}
		}
	}
	return out
}

func checkUnusedReturn(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	matches := bareCallPattern.FindAllStringIndex(body, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []model.Violation
	for _, m := range matches {
		line := fn.StartLine + strings.Count(body[:m[0]], "\n")
		out = append(out, violation(ac, ruleUnusedReturn, model.SeverityMedium, fn, line,
			"call result appears unused in \""+fn.Name+"\"", map[string]any{"symbol": fn.Name}))
	}
	return out
}

func checkPreprocessorInBody(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	if !preprocessorPattern.MatchString(body) {
		return nil
	}
	return []model.Violation{violation(ac, rulePreprocessorInBody, model.SeverityMedium, fn, fn.StartLine,
		"preprocessor directive found inside function body of \""+fn.Name+"\"", map[string]any{"symbol": fn.Name})}
}

func checkExcessiveIndirection(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	if !doublePointerPattern.MatchString(fn.Signature) && !doublePointerPattern.MatchString(body) {
		return nil
	}
	return []model.Violation{violation(ac, ruleExcessiveIndirection, model.SeverityMedium, fn, fn.StartLine,
		"function \""+fn.Name+"\" uses multi-level pointer/reference indirection", map[string]any{"symbol": fn.Name})}
}

func checkSuppressedWarning(ac *registry.AnalysisContext, fn *ast.Symbol, body string) []model.Violation {
	if !suppressionPattern.MatchString(body) {
		return nil
	}
	return []model.Violation{violation(ac, ruleWarningSuppressed, model.SeverityMedium, fn, fn.StartLine,
		"lint/compiler warning suppressed instead of fixed in \""+fn.Name+"\"", map[string]any{"symbol": fn.Name})}
}
