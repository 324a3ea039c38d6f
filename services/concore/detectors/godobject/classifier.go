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
	"strings"

	"github.com/aleutian-oss/concore/services/concore/ast"
)

// Context is the class-context classification of spec.md §4.5.3.
type Context string

const (
	ContextConfig        Context = "CONFIG"
	ContextDataModel     Context = "DATA_MODEL"
	ContextAPIController Context = "API_CONTROLLER"
	ContextUtility       Context = "UTILITY"
	ContextBusinessLogic Context = "BUSINESS_LOGIC"
	ContextFramework     Context = "FRAMEWORK"
	ContextTest          Context = "TEST"
	ContextInfrastructure Context = "INFRASTRUCTURE"
	ContextUnknown       Context = "UNKNOWN"
)

var routeDecorators = []string{"route", "get", "post", "put", "delete", "patch", "app.route", "router"}
var frameworkBases = []string{"django", "flask", "react", "component", "service", "module", "controller", "viewset"}

// Classify implements spec.md §4.5.3's first-match-wins classification
// rules over a class/struct-like symbol.
func Classify(class *ast.Symbol, filePath string) Context {
	name := class.Name
	lowerName := strings.ToLower(name)

	// Rule 1: tests.
	if matchesTestPath(filePath) || strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests") {
		return ContextTest
	}

	var decorators []string
	var extends string
	if class.Metadata != nil {
		decorators = class.Metadata.Decorators
		extends = class.Metadata.Extends
	}

	// Rule 2: API controllers.
	if hasRouteDecorator(decorators) || hasAnySuffix(name, "Controller", "Handler", "View") {
		return ContextAPIController
	}

	// Rule 3: data models.
	if strings.Contains(strings.ToLower(extends), "model") || isDataClassMarker(decorators) {
		return ContextDataModel
	}

	// Rule 4: config.
	if hasAnySuffix(name, "Config", "Settings", "Options") || accessorRatio(class) > 0.7 {
		return ContextConfig
	}

	// Rule 5: infrastructure.
	if hasAnySuffix(name, "Repository", "Gateway", "Client", "Connection") {
		return ContextInfrastructure
	}

	// Rule 6: utility.
	if hasAnySuffix(name, "Util", "Helper", "Utils") || onlyStaticMethods(class) {
		return ContextUtility
	}

	// Rule 7: framework.
	if isFrameworkBase(extends) {
		return ContextFramework
	}

	// Rule 8: business logic vs unknown.
	_ = lowerName
	if hasState(class) && hasMethods(class) {
		return ContextBusinessLogic
	}
	return ContextUnknown
}

func matchesTestPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "tests/") || strings.Contains(lower, "test/") || strings.HasSuffix(lower, "_test.go")
}

func hasRouteDecorator(decorators []string) bool {
	for _, d := range decorators {
		lower := strings.ToLower(d)
		for _, marker := range routeDecorators {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func isDataClassMarker(decorators []string) bool {
	for _, d := range decorators {
		lower := strings.ToLower(d)
		if lower == "dataclass" || strings.Contains(lower, "entity") || strings.Contains(lower, "schema") {
			return true
		}
	}
	return false
}

func hasAnySuffix(name string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func isFrameworkBase(extends string) bool {
	lower := strings.ToLower(extends)
	if lower == "" {
		return false
	}
	for _, fw := range frameworkBases {
		if strings.Contains(lower, fw) {
			return true
		}
	}
	return false
}

func accessorRatio(class *ast.Symbol) float64 {
	methods := methodsOf(class)
	if len(methods) == 0 {
		return 0
	}
	trivial := 0
	for _, m := range methods {
		lower := strings.ToLower(m.Name)
		isAccessorName := strings.HasPrefix(lower, "get") || strings.HasPrefix(lower, "set") || strings.HasPrefix(lower, "is")
		isShort := m.EndLine-m.StartLine <= 2
		if isAccessorName && isShort {
			trivial++
		}
	}
	return float64(trivial) / float64(len(methods))
}

func onlyStaticMethods(class *ast.Symbol) bool {
	methods := methodsOf(class)
	if len(methods) == 0 {
		return false
	}
	for _, m := range methods {
		if m.Metadata == nil || !m.Metadata.IsStatic {
			return false
		}
	}
	return true
}

func hasState(class *ast.Symbol) bool {
	for _, c := range class.Children {
		if c.Kind == ast.SymbolKindField || c.Kind == ast.SymbolKindProperty {
			return true
		}
	}
	return false
}

func hasMethods(class *ast.Symbol) bool {
	return len(methodsOf(class)) > 0
}

func methodsOf(class *ast.Symbol) []*ast.Symbol {
	var out []*ast.Symbol
	for _, c := range class.Children {
		if c.Kind == ast.SymbolKindMethod || c.Kind == ast.SymbolKindFunction {
			out = append(out, c)
		}
	}
	return out
}
