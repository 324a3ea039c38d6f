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
	"testing"

	"github.com/aleutian-oss/concore/services/concore/ast"
)

func TestClassify_Test(t *testing.T) {
	class := &ast.Symbol{Name: "LoginTest", Kind: ast.SymbolKindClass}
	if got := Classify(class, "services/auth/login_test.go"); got != ContextTest {
		t.Errorf("Classify = %s, want TEST", got)
	}
}

func TestClassify_APIController(t *testing.T) {
	class := &ast.Symbol{Name: "UserController", Kind: ast.SymbolKindClass}
	if got := Classify(class, "api/user.go"); got != ContextAPIController {
		t.Errorf("Classify = %s, want API_CONTROLLER", got)
	}
}

func TestClassify_Config(t *testing.T) {
	class := &ast.Symbol{Name: "AppSettings", Kind: ast.SymbolKindClass}
	if got := Classify(class, "config/app.go"); got != ContextConfig {
		t.Errorf("Classify = %s, want CONFIG", got)
	}
}

func TestClassify_Infrastructure(t *testing.T) {
	class := &ast.Symbol{Name: "UserRepository", Kind: ast.SymbolKindClass}
	if got := Classify(class, "store/user.go"); got != ContextInfrastructure {
		t.Errorf("Classify = %s, want INFRASTRUCTURE", got)
	}
}

func TestClassify_Utility(t *testing.T) {
	class := &ast.Symbol{Name: "StringHelper", Kind: ast.SymbolKindClass}
	if got := Classify(class, "util/strings.go"); got != ContextUtility {
		t.Errorf("Classify = %s, want UTILITY", got)
	}
}

func TestClassify_BusinessLogicAndUnknown(t *testing.T) {
	withState := &ast.Symbol{
		Name: "OrderProcessor", Kind: ast.SymbolKindClass,
		Children: []*ast.Symbol{
			{Name: "total", Kind: ast.SymbolKindField},
			{Name: "Process", Kind: ast.SymbolKindMethod, StartLine: 1, EndLine: 20},
		},
	}
	if got := Classify(withState, "domain/order.go"); got != ContextBusinessLogic {
		t.Errorf("Classify = %s, want BUSINESS_LOGIC", got)
	}

	empty := &ast.Symbol{Name: "Marker", Kind: ast.SymbolKindClass}
	if got := Classify(empty, "domain/marker.go"); got != ContextUnknown {
		t.Errorf("Classify = %s, want UNKNOWN", got)
	}
}
