// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"fmt"
	"strings"
	"time"
)

// SymbolKind classifies a Symbol extracted from source code.
type SymbolKind int

const (
	SymbolKindUnknown SymbolKind = iota
	SymbolKindPackage
	SymbolKindFile
	SymbolKindFunction
	SymbolKindMethod
	SymbolKindInterface
	SymbolKindStruct
	SymbolKindType
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindField
	SymbolKindImport
	SymbolKindClass
	SymbolKindDecorator
	SymbolKindEnum
	SymbolKindEnumMember
	SymbolKindParameter
	SymbolKindProperty
	SymbolKindCSSClass
	SymbolKindCSSID
	SymbolKindCSSVariable
	SymbolKindAnimation
	SymbolKindMediaQuery
	SymbolKindComponent
	SymbolKindElement
	SymbolKindForm
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindUnknown:     "unknown",
	SymbolKindPackage:     "package",
	SymbolKindFile:        "file",
	SymbolKindFunction:    "function",
	SymbolKindMethod:      "method",
	SymbolKindInterface:   "interface",
	SymbolKindStruct:      "struct",
	SymbolKindType:        "type",
	SymbolKindVariable:    "variable",
	SymbolKindConstant:    "constant",
	SymbolKindField:       "field",
	SymbolKindImport:      "import",
	SymbolKindClass:       "class",
	SymbolKindDecorator:   "decorator",
	SymbolKindEnum:        "enum",
	SymbolKindEnumMember:  "enum_member",
	SymbolKindParameter:   "parameter",
	SymbolKindProperty:    "property",
	SymbolKindCSSClass:    "css_class",
	SymbolKindCSSID:       "css_id",
	SymbolKindCSSVariable: "css_variable",
	SymbolKindAnimation:   "animation",
	SymbolKindMediaQuery:  "media_query",
	SymbolKindComponent:   "component",
	SymbolKindElement:     "element",
	SymbolKindForm:        "form",
}

var symbolKindValues = func() map[string]SymbolKind {
	m := make(map[string]SymbolKind, len(symbolKindNames))
	for k, v := range symbolKindNames {
		m[v] = k
	}
	return m
}()

// String returns the canonical lowercase name of the kind, or "unknown" for
// any value outside the defined range.
func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseSymbolKind parses the canonical name produced by String(), defaulting
// to SymbolKindUnknown for anything unrecognized.
func ParseSymbolKind(s string) SymbolKind {
	if k, ok := symbolKindValues[s]; ok {
		return k
	}
	return SymbolKindUnknown
}

// MarshalJSON encodes the kind as its string name.
func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON accepts either the string name or the raw integer value, so
// that older numerically-encoded reports remain decodable.
func (k *SymbolKind) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		*k = ParseSymbolKind(s[1 : len(s)-1])
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return fmt.Errorf("ast: invalid SymbolKind %q: %w", s, err)
	}
	*k = SymbolKind(n)
	return nil
}

// GenerateID builds the deterministic symbol identity used across runs:
// "<filePath>:<startLine>:<name>".
func GenerateID(filePath string, startLine int, name string) string {
	return fmt.Sprintf("%s:%d:%s", filePath, startLine, name)
}

// Location pinpoints a span of source text.
type Location struct {
	FilePath  string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String renders "file:line:col".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartCol)
}

// Import records a single import/include/require statement.
type Import struct {
	Path       string
	Alias      string
	Names      []string // imported names for "from x import a, b" / "import { a, b }" forms
	IsWildcard bool      // "from x import *"
	IsRelative bool      // "from . import x" / "from ..pkg import x"
	IsDefault  bool      // "import foo from 'module'"
	IsNamespace bool     // "import * as foo from 'module'"
	IsCommonJS  bool     // "const foo = require('module')"
	IsModule    bool     // ES module import statement (as opposed to CommonJS require)
	IsTypeOnly  bool     // "import type { T } from 'module'"
	Location   Location
}

// CallSite records a single call expression found inside a symbol's body.
type CallSite struct {
	Target   string // callee name, or package-qualified/receiver-qualified name
	Receiver string // non-empty for method calls and qualified calls
	IsMethod bool
	Location Location
}

// Validate checks that the call names a target and has a 1-indexed line.
func (c CallSite) Validate() error {
	if c.Target == "" {
		return ValidationError{Field: "Target", Message: "must not be empty"}
	}
	if c.Location.StartLine <= 0 {
		return ValidationError{Field: "Location.StartLine", Message: "must be positive"}
	}
	return nil
}

// MethodSignature describes one method of a type: its name, normalized
// parameter and result lists, their counts, and the receiver type.
type MethodSignature struct {
	Name         string
	Params       string
	Returns      string
	ParamCount   int
	ReturnCount  int
	ReceiverType string
}

// SymbolMetadata carries kind-specific extras that don't apply to every
// Symbol, keeping the common struct lean.
type SymbolMetadata struct {
	// Methods lists the signatures of the methods associated with a
	// struct/interface/class symbol.
	Methods []MethodSignature

	ReturnType     string
	TypeParameters []string
	Decorators     []string
	Extends        string
	Implements     []string
	AccessModifier string // "public" (default), "private", "protected"

	IsAsync     bool
	IsGenerator bool
	IsStatic    bool
	IsAbstract  bool
}

// Symbol is one named declaration extracted from an AST: a function, type,
// variable, CSS class, HTML element, and so on depending on the language.
type Symbol struct {
	ID        string
	Name      string
	Kind      SymbolKind
	FilePath  string
	Package   string
	Language  string
	Exported  bool
	Signature string
	Receiver  string // method receiver type name, without pointer/star
	DocComment string

	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int

	Calls    []CallSite
	Children []*Symbol
	Metadata *SymbolMetadata

	ParsedAtMilli int64
}

// Location returns the symbol's span as a Location value.
func (s *Symbol) Location() Location {
	return Location{
		FilePath:  s.FilePath,
		StartLine: s.StartLine,
		StartCol:  s.StartCol,
		EndLine:   s.EndLine,
		EndCol:    s.EndCol,
	}
}

// SetParsedAt stamps ParsedAtMilli with the current wall-clock time.
func (s *Symbol) SetParsedAt() {
	s.ParsedAtMilli = time.Now().UnixMilli()
}

// ValidationError reports a single field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the structural invariants Parser implementations must
// uphold: a non-empty name and language, a file path that does not escape
// the project root, and a line range where EndLine >= StartLine.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return ValidationError{Field: "Name", Message: "must not be empty"}
	}
	if s.FilePath == "" {
		return ValidationError{Field: "FilePath", Message: "must not be empty"}
	}
	if strings.Contains(s.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal segments"}
	}
	if s.StartLine <= 0 {
		return ValidationError{Field: "StartLine", Message: "must be positive (1-indexed)"}
	}
	if s.EndLine < s.StartLine {
		return ValidationError{Field: "EndLine", Message: "must be >= StartLine"}
	}
	if s.StartCol < 0 {
		return ValidationError{Field: "StartCol", Message: "must not be negative"}
	}
	if s.EndCol < 0 {
		return ValidationError{Field: "EndCol", Message: "must not be negative"}
	}
	if s.Language == "" {
		return ValidationError{Field: "Language", Message: "must not be empty"}
	}
	for i, child := range s.Children {
		if err := child.Validate(); err != nil {
			return ValidationError{Field: fmt.Sprintf("Children[%d]", i), Message: err.Error()}
		}
	}
	return nil
}

// MaxSymbolDepth bounds the default recursion depth of SymbolCount, so a
// pathologically nested file cannot blow the stack during reporting.
const MaxSymbolDepth = 64

// ParseResult is the output of a single Parser.Parse call.
type ParseResult struct {
	FilePath      string
	Language      string
	Hash          string
	ParsedAtMilli int64
	Symbols       []*Symbol
	Imports       []Import
	Errors        []string
}

// SetParsedAt stamps ParsedAtMilli with the current wall-clock time.
func (r *ParseResult) SetParsedAt() {
	r.ParsedAtMilli = time.Now().UnixMilli()
}

// HasErrors reports whether any non-fatal parse errors were recorded.
func (r *ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// SymbolCount returns the total number of symbols including nested
// children, bounded by MaxSymbolDepth.
func (r *ParseResult) SymbolCount() int {
	return r.SymbolCountWithDepth(MaxSymbolDepth)
}

// SymbolCountWithDepth counts symbols down to maxDepth levels of nesting
// (0 means top-level symbols only).
func (r *ParseResult) SymbolCountWithDepth(maxDepth int) int {
	count := 0
	var walk func(syms []*Symbol, depth int)
	walk = func(syms []*Symbol, depth int) {
		for _, s := range syms {
			count++
			if depth < maxDepth {
				walk(s.Children, depth+1)
			}
		}
	}
	walk(r.Symbols, 0)
	return count
}

// Validate checks the result's top-level invariants and recursively
// validates every symbol and import.
func (r *ParseResult) Validate() error {
	if r.FilePath == "" {
		return ValidationError{Field: "FilePath", Message: "must not be empty"}
	}
	if strings.Contains(r.FilePath, "..") {
		return ValidationError{Field: "FilePath", Message: "must not contain path traversal segments"}
	}
	if r.Language == "" {
		return ValidationError{Field: "Language", Message: "must not be empty"}
	}
	for i, s := range r.Symbols {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("Symbols[%d]: %w", i, err)
		}
	}
	for i, imp := range r.Imports {
		if imp.Path == "" {
			return fmt.Errorf("Imports[%d]: %w", i, ValidationError{Field: "Path", Message: "must not be empty"})
		}
		if imp.Location.StartLine <= 0 {
			return fmt.Errorf("Imports[%d]: %w", i, ValidationError{Field: "Location.StartLine", Message: "must be positive"})
		}
	}
	return nil
}
