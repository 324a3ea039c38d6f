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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScript-specific node types not shared with javascript_queries.go. The
// tree-sitter-typescript grammar extends tree-sitter-javascript's grammar
// with these additional constructs.
const (
	tsNodeInterfaceDeclaration = "interface_declaration"
	tsNodeTypeAliasDeclaration = "type_alias_declaration"
	tsNodeEnumDeclaration      = "enum_declaration"
	tsNodeEnumBody             = "enum_body"
	tsNodeEnumAssignment       = "enum_assignment"
	tsNodeObjectType           = "object_type"
	tsNodePropertySignature    = "property_signature"
	tsNodeAbstractClass        = "abstract_class_declaration"
	tsNodeTypeParameters       = "type_parameters"
	tsNodeTypeParameter        = "type_parameter"
	tsNodeAccessibilityMod     = "accessibility_modifier"
	tsNodeAbstractMod          = "abstract"
	tsNodeReadonlyMod          = "readonly"
	tsNodeOptionalMark         = "?"
	tsNodeDecorator            = "decorator"
	tsNodeImportAlias          = "import_alias"
	tsNodeTypeIdentifier       = "type_identifier"
	tsNodeNumber               = "number"
)

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithTypeScriptMaxFileSize sets the maximum file size the parser accepts.
func WithTypeScriptMaxFileSize(n int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) { p.maxFileSize = n }
}

// TypeScriptParser extracts symbols from TypeScript (and TSX) source,
// reusing javascript_parser.go's node-traversal idiom and layering TS-only
// constructs (interfaces, type aliases, enums, decorators, generics) on top.
type TypeScriptParser struct {
	maxFileSize int64
	tsx         bool
}

// NewTypeScriptParser creates a TypeScriptParser with the given options.
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TypeScriptParser) Language() string { return "typescript" }

func (p *TypeScriptParser) Extensions() []string { return []string{".ts", ".tsx", ".mts", ".cts"} }

// Parse extracts imports, functions, classes, interfaces, type aliases and
// enums from TypeScript source.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "typescript", filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "typescript",
		Hash:          hex.EncodeToString(hash[:]),
		ParsedAtMilli: time.Now().UnixMilli(),
		Symbols:       make([]*Symbol, 0),
		Imports:       make([]Import, 0),
		Errors:        make([]string, 0),
	}

	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		return result, nil
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	p.extractSymbols(root, content, filePath, result, false)

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, "typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "typescript", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "typescript", time.Since(start), len(result.Symbols), true)
	return result, nil
}

// extractSymbols walks top-level (and export-unwrapped) declarations.
func (p *TypeScriptParser) extractSymbols(node *sitter.Node, content []byte, filePath string, result *ParseResult, exported bool) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeProgram:
			p.extractSymbols(child, content, filePath, result, false)
		case jsNodeImportStatement:
			p.extractImport(child, content, filePath, result)
		case jsNodeExportStatement:
			p.extractExport(child, content, filePath, result)
		case jsNodeFunctionDeclaration, jsNodeGeneratorFunctionDecl:
			if sym := p.extractFunction(child, content, filePath, exported); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case jsNodeClassDeclaration, tsNodeAbstractClass:
			if sym := p.extractClass(child, content, filePath, exported); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeInterfaceDeclaration:
			if sym := p.extractInterface(child, content, filePath, exported); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeTypeAliasDeclaration:
			if sym := p.extractTypeAlias(child, content, filePath, exported); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeEnumDeclaration:
			if sym := p.extractEnum(child, content, filePath, exported); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case jsNodeLexicalDeclaration, jsNodeVariableDeclaration:
			isConst := child.Child(0) != nil && child.Child(0).Type() == jsNodeConst
			docComment := p.getPrecedingComment(child, content)
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == jsNodeVariableDeclarator {
					decl := child.Child(j)
					nameNode, call := decl.ChildByFieldName("name"), decl.ChildByFieldName("value")
					if nameNode != nil && call != nil && call.Type() == jsNodeCallExpression {
						fn, args := call.ChildByFieldName("function"), call.ChildByFieldName("arguments")
						if fn != nil && args != nil && args.NamedChildCount() > 0 && args.NamedChild(0).Type() == jsNodeString &&
							string(content[fn.StartByte():fn.EndByte()]) == "require" {
							result.Imports = append(result.Imports, Import{
								Path: p.extractStringContent(args.NamedChild(0), content), Alias: string(content[nameNode.StartByte():nameNode.EndByte()]), IsCommonJS: true,
								Location: Location{FilePath: filePath, StartLine: int(child.StartPoint().Row) + 1, EndLine: int(child.EndPoint().Row) + 1, StartCol: int(child.StartPoint().Column), EndCol: int(child.EndPoint().Column)},
							})
						}
					}
					if sym := p.extractVariableDeclarator(child.Child(j), content, filePath, exported, isConst, docComment); sym != nil {
						result.Symbols = append(result.Symbols, sym)
					}
				}
			}
		}
	}
}

func (p *TypeScriptParser) extractExport(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeFunctionDeclaration, jsNodeGeneratorFunctionDecl:
			if sym := p.extractFunction(child, content, filePath, true); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case jsNodeClassDeclaration, tsNodeAbstractClass:
			if sym := p.extractClass(child, content, filePath, true); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeInterfaceDeclaration:
			if sym := p.extractInterface(child, content, filePath, true); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeTypeAliasDeclaration:
			if sym := p.extractTypeAlias(child, content, filePath, true); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case tsNodeEnumDeclaration:
			if sym := p.extractEnum(child, content, filePath, true); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case jsNodeLexicalDeclaration, jsNodeVariableDeclaration:
			isConst := child.Child(0) != nil && child.Child(0).Type() == jsNodeConst
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == jsNodeVariableDeclarator {
					if sym := p.extractVariableDeclarator(child.Child(j), content, filePath, true, isConst, ""); sym != nil {
						result.Symbols = append(result.Symbols, sym)
					}
				}
			}
		}
	}
}

// extractImport handles named, default, namespace, type-only imports and
// bare `const x = require(...)` CommonJS calls.
func (p *TypeScriptParser) extractImport(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	imp := Import{
		IsModule: true,
		Location: Location{
			FilePath:  filePath,
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
			StartCol:  int(node.StartPoint().Column),
			EndCol:    int(node.EndPoint().Column),
		},
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			imp.IsTypeOnly = true
		case jsNodeString:
			imp.Path = p.extractStringContent(child, content)
		case jsNodeImportClause:
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case jsNodeIdentifier:
					imp.Alias = string(content[gc.StartByte():gc.EndByte()])
					imp.IsDefault = true
				case jsNodeNamespaceImport:
					for k := 0; k < int(gc.ChildCount()); k++ {
						if gc.Child(k).Type() == jsNodeIdentifier {
							imp.Alias = string(content[gc.Child(k).StartByte():gc.Child(k).EndByte()])
						}
					}
					imp.IsNamespace = true
				case jsNodeNamedImports:
					for k := 0; k < int(gc.ChildCount()); k++ {
						if gc.Child(k).Type() == jsNodeImportSpecifier {
							name := p.extractImportSpecifierName(gc.Child(k), content)
							if name != "" {
								imp.Names = append(imp.Names, name)
							}
						}
					}
				}
			}
		}
	}

	result.Imports = append(result.Imports, imp)
}

func (p *TypeScriptParser) extractImportSpecifierName(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == jsNodeIdentifier {
			return string(content[node.Child(i).StartByte():node.Child(i).EndByte()])
		}
	}
	return ""
}

func (p *TypeScriptParser) extractStringContent(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == jsNodeStringFragment {
			return string(content[node.Child(i).StartByte():node.Child(i).EndByte()])
		}
	}
	return strings.Trim(string(content[node.StartByte():node.EndByte()]), `"'`)
}

func (p *TypeScriptParser) getPrecedingComment(node *sitter.Node, content []byte) string {
	if parent := node.Parent(); parent != nil && parent.Type() == jsNodeExportStatement {
		node = parent
	}
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != jsNodeComment {
		return ""
	}
	if int(node.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
		return ""
	}
	text := string(content[prev.StartByte():prev.EndByte()])
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*")))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *TypeScriptParser) typeParameters(node *sitter.Node, content []byte) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == tsNodeTypeParameters {
				tp = node.Child(i)
				break
			}
		}
	}
	if tp == nil {
		return nil
	}
	var params []string
	for i := 0; i < int(tp.ChildCount()); i++ {
		if tp.Child(i).Type() == tsNodeTypeParameter {
			params = append(params, string(content[tp.Child(i).StartByte():tp.Child(i).EndByte()]))
		}
	}
	return params
}

func (p *TypeScriptParser) decorators(node *sitter.Node, content []byte) []string {
	var decs []string
	holders := []*sitter.Node{node}
	if parent := node.Parent(); parent != nil && parent.Type() == jsNodeExportStatement {
		holders = []*sitter.Node{parent, node}
	}
	for _, h := range holders {
		for i := 0; i < int(h.ChildCount()); i++ {
			if d := h.Child(i); d.Type() == tsNodeDecorator {
				name := strings.TrimPrefix(string(content[d.StartByte():d.EndByte()]), "@")
				if j := strings.IndexByte(name, '('); j >= 0 {
					name = name[:j]
				}
				decs = append(decs, name)
			}
		}
	}
	return decs
}

func (p *TypeScriptParser) extractFunction(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	name := ""
	var isAsync bool
	var params, returnType string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeIdentifier:
			name = string(content[child.StartByte():child.EndByte()])
		case jsNodeAsync:
			isAsync = true
		case jsNodeFormalParameters:
			params = string(content[child.StartByte():child.EndByte()])
		case tsNodeTypeIdentifier, "predefined_type", "union_type", "generic_type":
			returnType = string(content[child.StartByte():child.EndByte()])
		}
	}
	if name == "" {
		return nil
	}

	signature := name + params
	if isAsync {
		signature = "async " + signature
	}
	if returnType != "" {
		signature += ": " + returnType
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindFunction,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		Signature:     signature,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	tparams := p.typeParameters(node, content)
	if isAsync || returnType != "" || len(tparams) > 0 {
		sym.Metadata = &SymbolMetadata{IsAsync: isAsync, ReturnType: returnType, TypeParameters: tparams}
	}
	return sym
}

func (p *TypeScriptParser) extractClass(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	name := ""
	var extends string
	var implements []string
	var children []*Symbol

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeIdentifier, tsNodeTypeIdentifier:
			if name == "" {
				name = string(content[child.StartByte():child.EndByte()])
			}
		case jsNodeClassHeritage:
			extends = p.extractClassHeritage(child, content)
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if clause := child.NamedChild(j); clause.Type() == "implements_clause" {
					for k := 0; k < int(clause.NamedChildCount()); k++ {
						implements = append(implements, string(content[clause.NamedChild(k).StartByte():clause.NamedChild(k).EndByte()]))
					}
				}
			}
		case jsNodeClassBody:
			children = p.extractClassBody(child, content, filePath, name)
		}
	}
	if name == "" {
		return nil
	}

	isAbstract := node.Type() == tsNodeAbstractClass
	signature := "class " + name
	if extends != "" {
		signature += " extends " + extends
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindClass,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		Signature:     signature,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		Children:      children,
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	decs := p.decorators(node, content)
	if extends != "" || len(implements) > 0 || isAbstract || len(decs) > 0 {
		sym.Metadata = &SymbolMetadata{Extends: extends, Implements: implements, IsAbstract: isAbstract, Decorators: decs}
	}
	return sym
}

func (p *TypeScriptParser) extractClassHeritage(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == jsNodeIdentifier {
			return string(content[node.Child(i).StartByte():node.Child(i).EndByte()])
		}
		if c := node.Child(i); c.Type() == "extends_clause" && c.NamedChildCount() > 0 {
			return string(content[c.NamedChild(0).StartByte():c.NamedChild(0).EndByte()])
		}
	}
	return ""
}

func (p *TypeScriptParser) extractClassBody(node *sitter.Node, content []byte, filePath, className string) []*Symbol {
	var members []*Symbol
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeMethodDefinition:
			if m := p.extractMethod(child, content, filePath, className); m != nil {
				members = append(members, m)
			}
		case jsNodeFieldDefinition, "public_field_definition":
			if f := p.extractField(child, content, filePath, className); f != nil {
				members = append(members, f)
			}
		}
	}
	return members
}

func (p *TypeScriptParser) extractMethod(node *sitter.Node, content []byte, filePath, className string) *Symbol {
	name := ""
	var isAsync, isStatic, isAbstract bool
	accessModifier := ""
	var params, returnType string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodePropertyIdentifier, jsNodePrivatePropertyIdent:
			name = string(content[child.StartByte():child.EndByte()])
		case jsNodeAsync:
			isAsync = true
		case jsNodeStatic:
			isStatic = true
		case tsNodeAbstractMod:
			isAbstract = true
		case tsNodeAccessibilityMod:
			accessModifier = string(content[child.StartByte():child.EndByte()])
		case jsNodeFormalParameters:
			params = string(content[child.StartByte():child.EndByte()])
		case tsNodeTypeIdentifier, "predefined_type":
			returnType = string(content[child.StartByte():child.EndByte()])
		}
	}
	if name == "" {
		return nil
	}

	signature := name + params
	if returnType != "" {
		signature += ": " + returnType
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindMethod,
		FilePath:      filePath,
		Receiver:      className,
		Language:      "typescript",
		Exported:      accessModifier != "private",
		Signature:     signature,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	if isAsync || isStatic || isAbstract || accessModifier != "" || returnType != "" {
		sym.Metadata = &SymbolMetadata{
			IsAsync: isAsync, IsStatic: isStatic, IsAbstract: isAbstract,
			AccessModifier: accessModifier, ReturnType: returnType,
		}
	}
	return sym
}

func (p *TypeScriptParser) extractField(node *sitter.Node, content []byte, filePath, className string) *Symbol {
	name := ""
	var isStatic, isReadonly bool
	accessModifier := ""

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodePropertyIdentifier, jsNodePrivatePropertyIdent:
			name = string(content[child.StartByte():child.EndByte()])
		case jsNodeStatic:
			isStatic = true
		case tsNodeReadonlyMod:
			isReadonly = true
		case tsNodeAccessibilityMod:
			accessModifier = string(content[child.StartByte():child.EndByte()])
		}
	}
	if name == "" {
		return nil
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindField,
		FilePath:      filePath,
		Receiver:      className,
		Language:      "typescript",
		Exported:      accessModifier != "private",
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
	if isStatic || isReadonly || accessModifier != "" {
		sym.Metadata = &SymbolMetadata{IsStatic: isStatic, AccessModifier: accessModifier}
	}
	return sym
}

func (p *TypeScriptParser) extractVariableDeclarator(node *sitter.Node, content []byte, filePath string, exported, isConst bool, docComment string) *Symbol {
	name := ""
	var arrow *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case jsNodeIdentifier:
			if name == "" {
				name = string(content[child.StartByte():child.EndByte()])
			}
		case jsNodeArrowFunction:
			arrow = child
		}
	}
	if name == "" {
		return nil
	}

	kind := SymbolKindVariable
	if isConst {
		kind = SymbolKindConstant
	}
	if arrow != nil {
		kind = SymbolKindFunction
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		DocComment:    docComment,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	if arrow != nil {
		isAsync := false
		for i := 0; i < int(arrow.ChildCount()); i++ {
			if arrow.Child(i).Type() == jsNodeAsync {
				isAsync = true
			}
		}
		sym.Signature = name + " = " + string(content[arrow.StartByte():arrow.EndByte()])
		if isAsync {
			sym.Metadata = &SymbolMetadata{IsAsync: true}
		}
	}
	return sym
}

func (p *TypeScriptParser) extractInterface(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindInterface,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		body := node.Child(i)
		if body.Type() != tsNodeObjectType {
			continue
		}
		for j := 0; j < int(body.ChildCount()); j++ {
			member := body.Child(j)
			if member.Type() != tsNodePropertySignature {
				continue
			}
			propName := ""
			for k := 0; k < int(member.ChildCount()); k++ {
				if member.Child(k).Type() == jsNodePropertyIdentifier {
					propName = string(content[member.Child(k).StartByte():member.Child(k).EndByte()])
					break
				}
			}
			if propName == "" {
				continue
			}
			sym.Children = append(sym.Children, &Symbol{
				ID:            GenerateID(filePath, int(member.StartPoint().Row)+1, propName),
				Name:          propName,
				Kind:          SymbolKindProperty,
				FilePath:      filePath,
				Receiver:      name,
				Language:      "typescript",
				Exported:      true,
				StartLine:     int(member.StartPoint().Row) + 1,
				EndLine:       int(member.EndPoint().Row) + 1,
				StartCol:      int(member.StartPoint().Column),
				EndCol:        int(member.EndPoint().Column),
				ParsedAtMilli: time.Now().UnixMilli(),
			})
		}
	}
	return sym
}

func (p *TypeScriptParser) extractTypeAlias(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindType,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		Signature:     string(content[node.StartByte():node.EndByte()]),
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

func (p *TypeScriptParser) extractEnum(node *sitter.Node, content []byte, filePath string, exported bool) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindEnum,
		FilePath:      filePath,
		Language:      "typescript",
		Exported:      exported,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		body := node.Child(i)
		if body.Type() != tsNodeEnumBody {
			continue
		}
		for j := 0; j < int(body.ChildCount()); j++ {
			member := body.Child(j)
			var memberName string
			switch member.Type() {
			case jsNodePropertyIdentifier:
				memberName = string(content[member.StartByte():member.EndByte()])
			case tsNodeEnumAssignment:
				if member.ChildCount() > 0 && member.Child(0).Type() == jsNodePropertyIdentifier {
					memberName = string(content[member.Child(0).StartByte():member.Child(0).EndByte()])
				}
			}
			if memberName == "" {
				continue
			}
			sym.Children = append(sym.Children, &Symbol{
				ID:            GenerateID(filePath, int(member.StartPoint().Row)+1, memberName),
				Name:          memberName,
				Kind:          SymbolKindEnumMember,
				FilePath:      filePath,
				Receiver:      name,
				Language:      "typescript",
				Exported:      true,
				StartLine:     int(member.StartPoint().Row) + 1,
				EndLine:       int(member.EndPoint().Row) + 1,
				StartCol:      int(member.StartPoint().Column),
				EndCol:        int(member.EndPoint().Column),
				ParsedAtMilli: time.Now().UnixMilli(),
			})
		}
	}
	return sym
}
