// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package godobject

import (
	"context"
	"testing"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/model"
	"github.com/aleutian-oss/concore/services/concore/policy"
	"github.com/aleutian-oss/concore/services/concore/registry"
)

func manyMethods(n int, names []string) []*ast.Symbol {
	var out []*ast.Symbol
	for i := 0; i < n; i++ {
		name := "Get"
		if i < len(names) {
			name = names[i]
		}
		out = append(out, &ast.Symbol{
			Name: name, Kind: ast.SymbolKindMethod, StartLine: i*3 + 1, EndLine: i*3 + 3,
			Calls: []ast.CallSite{{Receiver: "field1"}},
		})
	}
	return out
}

func TestDetector_FlagsTooManyMethods(t *testing.T) {
	class := &ast.Symbol{
		Name:      "OrderManager",
		Kind:      ast.SymbolKindClass,
		StartLine: 1,
		EndLine:   100,
		Children:  manyMethods(20, nil),
	}
	ac := &registry.AnalysisContext{
		File:  model.SourceFile{RelPath: "domain/order.go", Content: []byte("class body\n")},
		Parse: &ast.ParseResult{Symbols: []*ast.Symbol{class}},
		Policy: policy.PolicyView{
			Profile:    policy.ProfileGeneral,
			Thresholds: policy.Thresholds{GodObjectMethodThreshold: 10, GodObjectLOCThreshold: 500},
		},
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("violations = %d, want 1", len(vs))
	}
	if vs[0].RuleID != ruleGodObject {
		t.Errorf("RuleID = %s", vs[0].RuleID)
	}
}

func TestDetector_SmallClassClean(t *testing.T) {
	class := &ast.Symbol{
		Name:      "Point",
		Kind:      ast.SymbolKindStruct,
		StartLine: 1,
		EndLine:   10,
		Children:  manyMethods(2, []string{"GetX", "GetY"}),
	}
	ac := &registry.AnalysisContext{
		File:  model.SourceFile{RelPath: "domain/point.go", Content: []byte("struct body\n")},
		Parse: &ast.ParseResult{Symbols: []*ast.Symbol{class}},
		Policy: policy.PolicyView{
			Profile:    policy.ProfileGeneral,
			Thresholds: policy.Thresholds{GodObjectMethodThreshold: 10, GodObjectLOCThreshold: 500},
		},
	}
	vs, err := New().Analyze(context.Background(), ac)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(vs) != 0 {
		t.Errorf("violations = %d, want 0, got %+v", len(vs), vs)
	}
}

func TestDetector_Metadata(t *testing.T) {
	d := New()
	if d.ID() != "god-object" {
		t.Errorf("ID = %s", d.ID())
	}
	if !d.RequiresContext() {
		t.Error("RequiresContext = false, want true")
	}
}
