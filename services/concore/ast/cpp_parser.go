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
	"github.com/smacker/go-tree-sitter/cpp"
)

// C++-only node types, layered on top of the shared cNode* vocabulary
// (tree-sitter-cpp's grammar extends tree-sitter-c's).
const (
	cppNodeClassSpecifier       = "class_specifier"
	cppNodeNamespaceDefinition  = "namespace_definition"
	cppNodeNamespaceIdentifier  = "namespace_identifier"
	cppNodeFieldDeclarationList = "field_declaration_list"
	cppNodeFunctionDefinition   = "function_definition"
	cppNodeFieldDeclaration     = "field_declaration"
	cppNodeAccessSpecifier      = "access_specifier"
	cppNodeTemplateDeclaration  = "template_declaration"
	cppNodeTemplateParamList    = "template_parameter_list"
	cppNodeTypeParamDecl        = "type_parameter_declaration"
	cppNodeBaseClassClause      = "base_class_clause"
	cppNodeDestructorName       = "destructor_name"
	cppNodeQualifiedIdentifier  = "qualified_identifier"
	cppNodeFunctionDeclarator   = "function_declarator"
)

// CPPParserOption configures a CPPParser instance.
type CPPParserOption func(*CPPParser)

// WithCPPMaxFileSize sets the maximum file size the parser accepts.
func WithCPPMaxFileSize(n int64) CPPParserOption {
	return func(p *CPPParser) { p.maxFileSize = n }
}

// CPPParser extracts functions, classes, namespaces and includes from C++
// source, layering class/namespace/template handling on top of CParser's
// aggregate (struct/union/enum) traversal.
type CPPParser struct {
	maxFileSize int64
	c           *CParser
}

// NewCPPParser creates a CPPParser with the given options.
func NewCPPParser(opts ...CPPParserOption) *CPPParser {
	p := &CPPParser{maxFileSize: DefaultMaxFileSize, c: NewCParser()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *CPPParser) Language() string     { return "cpp" }
func (p *CPPParser) Extensions() []string { return []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"} }

func (p *CPPParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "cpp", filePath, len(content))
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "cpp", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "cpp", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "cpp", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "cpp", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "cpp",
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

	p.walk(root, content, filePath, result)

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, "cpp", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "cpp", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "cpp", time.Since(start), len(result.Symbols), true)
	return result, nil
}

func (p *CPPParser) walk(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case cNodePreprocInclude:
			p.c.extractInclude(child, content, filePath, result)
		case cppNodeNamespaceDefinition:
			p.walkNamespace(child, content, filePath, result)
		case cppNodeTemplateDeclaration:
			p.walkTemplate(child, content, filePath, result)
		case cppNodeClassSpecifier, cNodeStructSpecifier:
			if sym := p.extractClass(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case cppNodeFunctionDefinition, cNodeFunctionDefinition:
			if sym := p.extractFreeFunction(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case cNodeDeclaration, cNodeTypeDefinition:
			if sym := p.c.extractTypeDecl(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			} else if sym := p.c.extractTypedef(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		}
	}
}

func (p *CPPParser) walkNamespace(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	nsName := ""
	if n := node.ChildByFieldName("name"); n != nil {
		nsName = string(content[n.StartByte():n.EndByte()])
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case cppNodeClassSpecifier, cNodeStructSpecifier:
			if sym := p.extractClass(child, content, filePath); sym != nil {
				sym.Package = nsName
				result.Symbols = append(result.Symbols, sym)
			}
		case cppNodeFunctionDefinition, cNodeFunctionDefinition:
			if sym := p.extractFreeFunction(child, content, filePath); sym != nil {
				sym.Package = nsName
				result.Symbols = append(result.Symbols, sym)
			}
		case cppNodeNamespaceDefinition:
			p.walkNamespace(child, content, filePath, result)
		}
	}
}

func (p *CPPParser) walkTemplate(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	var typeParams []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == cppNodeTemplateParamList {
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == cppNodeTypeParamDecl {
					typeParams = append(typeParams, string(content[child.Child(j).StartByte():child.Child(j).EndByte()]))
				}
			}
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		var sym *Symbol
		switch child.Type() {
		case cppNodeClassSpecifier, cNodeStructSpecifier:
			sym = p.extractClass(child, content, filePath)
		case cppNodeFunctionDefinition, cNodeFunctionDefinition:
			sym = p.extractFreeFunction(child, content, filePath)
		}
		if sym == nil {
			continue
		}
		if sym.Metadata == nil {
			sym.Metadata = &SymbolMetadata{}
		}
		sym.Metadata.TypeParameters = typeParams
		result.Symbols = append(result.Symbols, sym)
	}
}

func (p *CPPParser) extractFreeFunction(node *sitter.Node, content []byte, filePath string) *Symbol {
	declarator := node.ChildByFieldName("declarator")
	name, _ := p.c.functionName(declarator, content)
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindFunction,
		FilePath:      filePath,
		Language:      "cpp",
		Exported:      true,
		Signature:     strings.TrimSpace(string(content[node.StartByte():fnBodyStart(node, content)])),
		DocComment:    p.c.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

func (p *CPPParser) extractClass(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	var extends string
	if base := node.ChildByFieldName("base"); base != nil {
		extends = strings.TrimPrefix(strings.TrimSpace(string(content[base.StartByte():base.EndByte()])), ":")
		extends = strings.TrimSpace(extends)
	}

	kind := SymbolKindClass
	if node.Type() == cNodeStructSpecifier {
		kind = SymbolKindStruct
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Language:      "cpp",
		Exported:      true,
		DocComment:    p.c.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
	if extends != "" {
		sym.Metadata = &SymbolMetadata{Extends: extends}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}

	accessModifier := "private"
	if kind == SymbolKindStruct {
		accessModifier = "public"
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case cppNodeAccessSpecifier:
			accessModifier = string(content[member.StartByte():member.EndByte()])
		case cppNodeFunctionDefinition, cNodeFunctionDefinition:
			if m := p.extractMethod(member, content, filePath, name, accessModifier); m != nil {
				sym.Children = append(sym.Children, m)
			}
		case cppNodeFieldDeclaration:
			if f := p.extractField(member, content, filePath, name, accessModifier); f != nil {
				sym.Children = append(sym.Children, f)
			}
		}
	}
	return sym
}

func (p *CPPParser) extractMethod(node *sitter.Node, content []byte, filePath, className, accessModifier string) *Symbol {
	declarator := node.ChildByFieldName("declarator")
	name, _ := p.c.functionName(declarator, content)
	if name == "" {
		if declarator != nil && (declarator.Type() == cppNodeDestructorName || declarator.Type() == cppNodeQualifiedIdentifier) {
			name = string(content[declarator.StartByte():declarator.EndByte()])
		}
	}
	if name == "" {
		return nil
	}
	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindMethod,
		FilePath:      filePath,
		Receiver:      className,
		Language:      "cpp",
		Exported:      accessModifier == "public",
		Signature:     strings.TrimSpace(string(content[node.StartByte():fnBodyStart(node, content)])),
		DocComment:    p.c.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		Metadata:      &SymbolMetadata{AccessModifier: accessModifier},
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

func (p *CPPParser) extractField(node *sitter.Node, content []byte, filePath, className, accessModifier string) *Symbol {
	for i := 0; i < int(node.ChildCount()); i++ {
		if t := node.Child(i).Type(); t == cNodeIdentifier || t == "field_identifier" {
			name := string(content[node.Child(i).StartByte():node.Child(i).EndByte()])
			return &Symbol{
				ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
				Name:          name,
				Kind:          SymbolKindField,
				FilePath:      filePath,
				Receiver:      className,
				Language:      "cpp",
				Exported:      accessModifier == "public",
				StartLine:     int(node.StartPoint().Row) + 1,
				EndLine:       int(node.EndPoint().Row) + 1,
				StartCol:      int(node.StartPoint().Column),
				EndCol:        int(node.EndPoint().Column),
				Metadata:      &SymbolMetadata{AccessModifier: accessModifier},
				ParsedAtMilli: time.Now().UnixMilli(),
			}
		}
	}
	return nil
}
