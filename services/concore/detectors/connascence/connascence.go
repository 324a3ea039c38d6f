// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connascence implements the nine connascence detectors of
// spec.md §4.5.1: Name, Type, Meaning, Position, Algorithm, Execution,
// Timing, Value and Identity. Each check operates on the symbol/call-site
// shape ast.ParseResult already exposes; none requires a full statement
// AST, since the pipeline only carries declaration-level symbols.
package connascence

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/detectors/dcommon"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

const (
	ruleName      = "connascence/CoN"
	ruleType      = "connascence/CoT"
	ruleMeaning   = "connascence/CoM"
	rulePosition  = "connascence/CoP"
	ruleAlgorithm = "connascence/CoA"
	ruleExecution = "connascence/CoE"
	ruleTiming    = "connascence/CoTi"
	ruleValue     = "connascence/CoV"
	ruleIdentity  = "connascence/CoI"
)

// nameReferenceThreshold is how many distinct scopes an imported symbol may
// be referenced from before CoN fires (spec.md §4.5.1: "> N times across
// distinct scopes").
const nameReferenceThreshold = 3

// meaningRepeatThreshold is how many times a non-allowlisted literal may
// repeat in a file before CoM fires.
const meaningRepeatThreshold = 3

var numberLiteralPattern = regexp.MustCompile(`-?\b\d+(\.\d+)?\b`)
var timingCallPattern = regexp.MustCompile(`(?i)^(sleep|delay|poll|wait|waitfor|setinterval|settimeout)$`)
var pairOpen = regexp.MustCompile(`(?i)^(open|start|connect|begin|acquire|init)`)
var pairClose = regexp.MustCompile(`(?i)^(close|stop|disconnect|end|release)`)

func init() {
	registry.Register(New())
}

// Detector runs all nine connascence checks over one file.
type Detector struct{}

// New returns a connascence Detector.
func New() *Detector { return &Detector{} }

func (d *Detector) ID() string { return "connascence" }

func (d *Detector) SupportedLanguages() []model.Language {
	return []model.Language{
		model.LangGo, model.LangPython, model.LangJavaScript, model.LangTypeScript,
		model.LangC, model.LangCPP, model.LangJava, model.LangRust,
	}
}

func (d *Detector) Kind() model.Kind { return model.KindConnascence }

func (d *Detector) RuleIDs() []string {
	return []string{ruleName, ruleType, ruleMeaning, rulePosition, ruleAlgorithm, ruleExecution, ruleTiming, ruleValue, ruleIdentity}
}

func (d *Detector) RequiresContext() bool { return false }

// Analyze runs every check and returns their merged, deterministically
// ordered output (spec.md §4.5.1: tie-break on line, column, rule_id,
// fingerprint).
func (d *Detector) Analyze(ctx context.Context, ac *registry.AnalysisContext) ([]model.Violation, error) {
	if ac.Parse == nil {
		return nil, nil
	}
	var out []model.Violation
	out = append(out, checkName(ac)...)
	out = append(out, checkType(ac)...)
	out = append(out, checkMeaning(ac)...)
	out = append(out, checkPosition(ac)...)
	out = append(out, checkAlgorithm(ac)...)
	out = append(out, checkExecution(ac)...)
	out = append(out, checkTiming(ac)...)
	out = append(out, checkValue(ac)...)
	out = append(out, checkIdentity(ac)...)

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
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

func makeViolation(rule string, ac *registry.AnalysisContext, sym *ast.Symbol, base model.Severity, isMeaning bool, desc string, extra map[string]any) model.Violation {
	line, col, endLine, endCol := 0, 0, 0, 0
	name := ""
	if sym != nil {
		line, col, endLine, endCol = sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol
		name = sym.Name
	}
	snippet := dcommon.Snippet(ac.File.Content, line)
	v := model.Violation{
		RuleID:      rule,
		Kind:        model.KindConnascence,
		FilePath:    ac.File.RelPath,
		Line:        line,
		Column:      col,
		EndLine:     endLine,
		EndColumn:   endCol,
		Description: desc,
		Snippet:     snippet,
		Context:     extra,
	}
	switch rule {
	case ruleName:
		v.ConnascenceType = model.ConnascenceName
	case ruleType:
		v.ConnascenceType = model.ConnascenceOfType
	case ruleMeaning:
		v.ConnascenceType = model.ConnascenceMeaning
	case rulePosition:
		v.ConnascenceType = model.ConnascencePosition
	case ruleAlgorithm:
		v.ConnascenceType = model.ConnascenceAlgorithm
	case ruleExecution:
		v.ConnascenceType = model.ConnascenceExecution
	case ruleTiming:
		v.ConnascenceType = model.ConnascenceTiming
	case ruleValue:
		v.ConnascenceType = model.ConnascenceValue
	case ruleIdentity:
		v.ConnascenceType = model.ConnascenceIdentity
	}
	v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, rule, name, snippet)
	lines := strings.Split(string(ac.File.Content), "\n")
	v.Severity = dcommon.Resolve(rule, base, isMeaning, dcommon.EscalationContext{
		Snippet:       snippet,
		SymbolName:    name,
		InConditional: dcommon.InConditionalContext(lines, line),
	}, ac.Policy)
	return v
}

// checkName flags imported symbols referenced from more than
// nameReferenceThreshold distinct top-level scopes (spec.md CoN).
func checkName(ac *registry.AnalysisContext) []model.Violation {
	if len(ac.Parse.Imports) == 0 {
		return nil
	}
	imported := make(map[string]struct{}, len(ac.Parse.Imports))
	for _, imp := range ac.Parse.Imports {
		if imp.Alias != "" {
			imported[imp.Alias] = struct{}{}
		}
		for _, n := range imp.Names {
			imported[n] = struct{}{}
		}
	}
	if len(imported) == 0 {
		return nil
	}

	scopesByName := make(map[string]map[string]struct{})
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		for _, call := range fn.Calls {
			target := call.Target
			if call.Receiver != "" {
				target = call.Receiver
			}
			if _, ok := imported[target]; !ok {
				continue
			}
			if scopesByName[target] == nil {
				scopesByName[target] = make(map[string]struct{})
			}
			scopesByName[target][fn.Name] = struct{}{}
		}
	}

	var out []model.Violation
	for name, scopes := range scopesByName {
		if len(scopes) <= nameReferenceThreshold {
			continue
		}
		out = append(out, makeViolation(ruleName, ac, ac.Parse.Symbols[0], model.SeverityLow, false,
			"imported symbol \""+name+"\" referenced across too many scopes",
			map[string]any{"symbol": name, "scopes": len(scopes)}))
	}
	return out
}

// checkType flags a function missing parameter/return annotations when its
// siblings carry them (spec.md CoT), using a crude ":"/"->" heuristic over
// the stored Signature text since no per-parameter type model exists.
func checkType(ac *registry.AnalysisContext) []model.Violation {
	groups := make(map[string][]*ast.Symbol)
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		groups[fn.Receiver] = append(groups[fn.Receiver], fn)
	}

	var out []model.Violation
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		annotated := 0
		for _, fn := range group {
			if isAnnotated(fn.Signature) {
				annotated++
			}
		}
		if annotated == 0 || annotated == len(group) {
			continue
		}
		for _, fn := range group {
			if isAnnotated(fn.Signature) {
				continue
			}
			out = append(out, makeViolation(ruleType, ac, fn, model.SeverityLow, false,
				"function signature lacks type annotations present on sibling functions",
				map[string]any{"symbol": fn.Name}))
		}
	}
	return out
}

func isAnnotated(signature string) bool {
	return strings.Contains(signature, "->") || strings.Contains(signature, ":")
}

// checkMeaning flags numeric literals repeating more than
// meaningRepeatThreshold times in a file without appearing in the policy's
// magic-literal allowlist (spec.md CoM).
func checkMeaning(ac *registry.AnalysisContext) []model.Violation {
	allowed := make(map[float64]struct{}, len(ac.Policy.Thresholds.MagicLiteralAllowlist))
	for _, v := range ac.Policy.Thresholds.MagicLiteralAllowlist {
		allowed[v] = struct{}{}
	}
	allowed[0] = struct{}{}
	allowed[1] = struct{}{}
	allowed[-1] = struct{}{}

	counts := make(map[string]int)
	firstLine := make(map[string]int)
	lines := strings.Split(string(ac.File.Content), "\n")
	for i, line := range lines {
		for _, m := range numberLiteralPattern.FindAllString(line, -1) {
			f, err := strconv.ParseFloat(m, 64)
			if err != nil {
				continue
			}
			if _, skip := allowed[f]; skip {
				continue
			}
			counts[m]++
			if _, ok := firstLine[m]; !ok {
				firstLine[m] = i + 1
			}
		}
	}

	var out []model.Violation
	for literal, n := range counts {
		if n <= meaningRepeatThreshold {
			continue
		}
		line := firstLine[literal]
		snippet := dcommon.Snippet(ac.File.Content, line)
		v := model.Violation{
			RuleID:      ruleMeaning,
			Kind:        model.KindConnascence,
			ConnascenceType: model.ConnascenceMeaning,
			FilePath:    ac.File.RelPath,
			Line:        line,
			Description: "magic literal " + literal + " repeats without a named constant",
			Snippet:     snippet,
			Context:     map[string]any{"literal": literal, "occurrences": n},
		}
		v.Fingerprint = dcommon.Fingerprint(ac.File.RelPath, ruleMeaning, literal)
		v.Severity = dcommon.Resolve(ruleMeaning, model.SeverityMedium, true, dcommon.EscalationContext{
			Snippet:          snippet,
			ConfigOrConstant: isInConstantScope(ac.Parse.Symbols, line),
		}, ac.Policy)
		out = append(out, v)
	}
	return out
}

func isInConstantScope(syms []*ast.Symbol, line int) bool {
	for _, s := range syms {
		if s.Kind == ast.SymbolKindConstant && line >= s.StartLine && line <= s.EndLine {
			return true
		}
		if isInConstantScope(s.Children, line) {
			return true
		}
	}
	return false
}

// checkPosition flags functions whose parameter count exceeds the policy's
// MaxParameters threshold (spec.md CoP).
func checkPosition(ac *registry.AnalysisContext) []model.Violation {
	limit := ac.Policy.Thresholds.MaxParameters
	if limit <= 0 {
		limit = 5
	}
	var out []model.Violation
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		n := countParameters(fn.Signature)
		if n <= limit {
			continue
		}
		out = append(out, makeViolation(rulePosition, ac, fn, model.SeverityMedium, false,
			"function has more positional parameters than the policy allows",
			map[string]any{"symbol": fn.Name, "parameters": n, "limit": limit}))
	}
	return out
}

func countParameters(signature string) int {
	open := strings.Index(signature, "(")
	closeIdx := strings.LastIndex(signature, ")")
	if open < 0 || closeIdx <= open {
		return 0
	}
	body := strings.TrimSpace(signature[open+1 : closeIdx])
	if body == "" {
		return 0
	}
	depth := 0
	count := 1
	for _, r := range body {
		switch r {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '>', '}':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// checkAlgorithm flags two or more function bodies that hash-equal under
// structural normalization (spec.md CoA), restricted to this file; the
// duplication detector runs the cross-file equivalent pass.
func checkAlgorithm(ac *registry.AnalysisContext) []model.Violation {
	minLines := ac.Policy.Thresholds.DuplicationMinLines
	if minLines <= 0 {
		minLines = 4
	}
	lines := strings.Split(string(ac.File.Content), "\n")
	byHash := make(map[string][]*ast.Symbol)
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		if fn.EndLine-fn.StartLine+1 < minLines {
			continue
		}
		body := bodyText(lines, fn.StartLine, fn.EndLine)
		hash := dcommon.Fingerprint(dcommon.NormalizeBody(body))
		byHash[hash] = append(byHash[hash], fn)
	}

	var out []model.Violation
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		for _, fn := range group {
			out = append(out, makeViolation(ruleAlgorithm, ac, fn, model.SeverityHigh, false,
				"function body is structurally identical to another in this file",
				map[string]any{"symbol": fn.Name, "cluster_size": len(group)}))
		}
	}
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

// checkExecution flags calls on the same receiver made out of their
// conventional open/close order, a proxy for an undeclared execution
// dependency (spec.md CoE).
func checkExecution(ac *registry.AnalysisContext) []model.Violation {
	var out []model.Violation
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		seenOpen := make(map[string]bool)
		for _, call := range fn.Calls {
			if call.Receiver == "" {
				continue
			}
			name := lastSegment(call.Target)
			switch {
			case pairOpen.MatchString(name):
				seenOpen[call.Receiver] = true
			case pairClose.MatchString(name):
				if !seenOpen[call.Receiver] {
					out = append(out, makeViolation(ruleExecution, ac, fn, model.SeverityHigh, false,
						"call sequence closes \""+call.Receiver+"\" without an observed open/init call first",
						map[string]any{"symbol": fn.Name, "receiver": call.Receiver}))
				}
			}
		}
	}
	return out
}

func lastSegment(target string) string {
	if i := strings.LastIndex(target, "."); i >= 0 {
		return target[i+1:]
	}
	return target
}

// checkTiming flags sleep/delay/poll calls used as ad hoc synchronization
// (spec.md CoTi).
func checkTiming(ac *registry.AnalysisContext) []model.Violation {
	var out []model.Violation
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		for _, call := range fn.Calls {
			name := lastSegment(call.Target)
			if !timingCallPattern.MatchString(name) {
				continue
			}
			out = append(out, makeViolation(ruleTiming, ac, fn, model.SeverityHigh, false,
				"timer-based call used as a synchronization primitive",
				map[string]any{"symbol": fn.Name, "call": name}))
		}
	}
	return out
}

// checkValue flags literals that appear both in this file's general code
// and inside a symbol that looks configuration-related, a same-file proxy
// for spec.md CoV's "literal also appears in configuration" trigger.
func checkValue(ac *registry.AnalysisContext) []model.Violation {
	var configSyms []*ast.Symbol
	var collectConfig func([]*ast.Symbol)
	collectConfig = func(syms []*ast.Symbol) {
		for _, s := range syms {
			if strings.Contains(strings.ToLower(s.Name), "config") {
				configSyms = append(configSyms, s)
			}
			collectConfig(s.Children)
		}
	}
	collectConfig(ac.Parse.Symbols)
	if len(configSyms) == 0 {
		return nil
	}

	lines := strings.Split(string(ac.File.Content), "\n")
	configLiterals := make(map[string]struct{})
	for _, s := range configSyms {
		for _, m := range numberLiteralPattern.FindAllString(bodyText(lines, s.StartLine, s.EndLine), -1) {
			configLiterals[m] = struct{}{}
		}
	}

	var out []model.Violation
	for _, fn := range allFunctions(ac.Parse.Symbols) {
		if isWithinAny(fn, configSyms) {
			continue
		}
		for _, m := range numberLiteralPattern.FindAllString(bodyText(lines, fn.StartLine, fn.EndLine), -1) {
			if _, ok := configLiterals[m]; !ok {
				continue
			}
			out = append(out, makeViolation(ruleValue, ac, fn, model.SeverityMedium, false,
				"literal "+m+" also appears in a configuration-classified symbol",
				map[string]any{"symbol": fn.Name, "literal": m}))
			break
		}
	}
	return out
}

func isWithinAny(fn *ast.Symbol, syms []*ast.Symbol) bool {
	for _, s := range syms {
		if fn.StartLine >= s.StartLine && fn.EndLine <= s.EndLine {
			return true
		}
	}
	return false
}

// checkIdentity flags package-level mutable (non-constant) variables that
// are referenced as a call receiver or target from more than one file in
// the run (spec.md CoI).
func checkIdentity(ac *registry.AnalysisContext) []model.Violation {
	var globals []*ast.Symbol
	for _, s := range ac.Parse.Symbols {
		if s.Kind == ast.SymbolKindVariable {
			globals = append(globals, s)
		}
	}
	if len(globals) == 0 || len(ac.AllParses) == 0 {
		return nil
	}

	var out []model.Violation
	for _, g := range globals {
		files := make(map[string]struct{})
		for path, parse := range ac.AllParses {
			if referencesSymbol(parse.Symbols, g.Name) {
				files[path] = struct{}{}
			}
		}
		if len(files) <= 1 {
			continue
		}
		out = append(out, makeViolation(ruleIdentity, ac, g, model.SeverityHigh, false,
			"mutable global \""+g.Name+"\" is referenced from multiple files",
			map[string]any{"symbol": g.Name, "files": len(files)}))
	}
	return out
}

func referencesSymbol(syms []*ast.Symbol, name string) bool {
	for _, s := range syms {
		for _, call := range s.Calls {
			if call.Receiver == name || call.Target == name {
				return true
			}
		}
		if referencesSymbol(s.Children, name) {
			return true
		}
	}
	return false
}
