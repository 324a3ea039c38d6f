// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connascence

import (
	"context"
	"testing"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

func defaultView() policy.PolicyView {
	return policy.PolicyView{
		Profile: policy.ProfileGeneral,
		Thresholds: policy.Thresholds{
			MaxParameters:       3,
			DuplicationMinLines: 2,
		},
	}
}

func hasRule(vs []model.Violation, rule string) bool {
	for _, v := range vs {
		if v.RuleID == rule {
			return true
		}
	}
	return false
}

func TestCheckPosition_TooManyParameters(t *testing.T) {
	fn := &ast.Symbol{Name: "f", Kind: ast.SymbolKindFunction, Signature: "f(a, b, c, d, e)", StartLine: 1, EndLine: 2}
	ac := &registry.AnalysisContext{
		File:   model.SourceFile{RelPath: "main.go", Content: []byte("func f(a,b,c,d,e) {}\n")},
		Parse:  &ast.ParseResult{Symbols: []*ast.Symbol{fn}},
		Policy: defaultView(),
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasRule(vs, rulePosition) {
		t.Error("expected a CoP violation")
	}
}

func TestCheckAlgorithm_DuplicateBodies(t *testing.T) {
	content := "func a() {\n\tx := 1\n\treturn x\n}\nfunc b() {\n\ty := 1\n\treturn y\n}\n"
	a := &ast.Symbol{Name: "a", Kind: ast.SymbolKindFunction, StartLine: 1, EndLine: 4}
	b := &ast.Symbol{Name: "b", Kind: ast.SymbolKindFunction, StartLine: 5, EndLine: 8}
	ac := &registry.AnalysisContext{
		File:   model.SourceFile{RelPath: "main.go", Content: []byte(content)},
		Parse:  &ast.ParseResult{Symbols: []*ast.Symbol{a, b}},
		Policy: defaultView(),
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	count := 0
	for _, v := range vs {
		if v.RuleID == ruleAlgorithm {
			count++
		}
	}
	if count != 2 {
		t.Errorf("CoA violations = %d, want 2 (one per cluster member)", count)
	}
}

func TestCheckTiming_SleepAsSync(t *testing.T) {
	fn := &ast.Symbol{
		Name: "poller", Kind: ast.SymbolKindFunction, StartLine: 1, EndLine: 3,
		Calls: []ast.CallSite{{Target: "Sleep"}},
	}
	ac := &registry.AnalysisContext{
		File:   model.SourceFile{RelPath: "main.go", Content: []byte("func poller() {\n\ttime.Sleep(1)\n}\n")},
		Parse:  &ast.ParseResult{Symbols: []*ast.Symbol{fn}},
		Policy: defaultView(),
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasRule(vs, ruleTiming) {
		t.Error("expected a CoTi violation")
	}
}

func TestCheckExecution_CloseWithoutOpen(t *testing.T) {
	fn := &ast.Symbol{
		Name: "handler", Kind: ast.SymbolKindFunction, StartLine: 1, EndLine: 3,
		Calls: []ast.CallSite{{Target: "Close", Receiver: "conn", IsMethod: true}},
	}
	ac := &registry.AnalysisContext{
		File:   model.SourceFile{RelPath: "main.go", Content: []byte("func handler() {\n\tconn.Close()\n}\n")},
		Parse:  &ast.ParseResult{Symbols: []*ast.Symbol{fn}},
		Policy: defaultView(),
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasRule(vs, ruleExecution) {
		t.Error("expected a CoE violation")
	}
}

func TestCheckMeaning_RepeatedMagicLiteral(t *testing.T) {
	content := "func f() {\n\ta := 42\n\tb := 42\n\tc := 42\n\td := 42\n}\n"
	fn := &ast.Symbol{Name: "f", Kind: ast.SymbolKindFunction, StartLine: 1, EndLine: 6}
	ac := &registry.AnalysisContext{
		File:   model.SourceFile{RelPath: "main.go", Content: []byte(content)},
		Parse:  &ast.ParseResult{Symbols: []*ast.Symbol{fn}},
		Policy: defaultView(),
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !hasRule(vs, ruleMeaning) {
		t.Error("expected a CoM violation")
	}
}

func TestDetector_Metadata(t *testing.T) {
	d := New()
	if d.ID() != "connascence" {
		t.Errorf("ID = %s", d.ID())
	}
	if len(d.RuleIDs()) != 9 {
		t.Errorf("RuleIDs = %d, want 9", len(d.RuleIDs()))
	}
}
