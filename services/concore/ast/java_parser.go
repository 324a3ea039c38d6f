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
	"github.com/smacker/go-tree-sitter/java"
)

const (
	javaNodeProgram            = "program"
	javaNodePackageDeclaration = "package_declaration"
	javaNodeImportDeclaration  = "import_declaration"
	javaNodeScopedIdentifier   = "scoped_identifier"
	javaNodeIdentifier         = "identifier"
	javaNodeAsterisk           = "asterisk"
	javaNodeClassDeclaration   = "class_declaration"
	javaNodeInterfaceDecl      = "interface_declaration"
	javaNodeEnumDeclaration    = "enum_declaration"
	javaNodeEnumBody           = "enum_body"
	javaNodeEnumConstant       = "enum_constant"
	javaNodeClassBody          = "class_body"
	javaNodeMethodDeclaration  = "method_declaration"
	javaNodeConstructorDecl    = "constructor_declaration"
	javaNodeFieldDeclaration   = "field_declaration"
	javaNodeVariableDeclarator = "variable_declarator"
	javaNodeModifiers          = "modifiers"
	javaNodeSuperclass         = "superclass"
	javaNodeSuperInterfaces    = "super_interfaces"
	javaNodeTypeList           = "type_list"
	javaNodeTypeIdentifier     = "type_identifier"
	javaNodeFormalParameters   = "formal_parameters"
	javaNodeTypeParameters     = "type_parameters"
	javaNodeAnnotation         = "annotation"
	javaNodeMarkerAnnotation   = "marker_annotation"
	javaNodeBlockComment       = "block_comment"
	javaNodeLineComment        = "line_comment"
)

// JavaParserOption configures a JavaParser instance.
type JavaParserOption func(*JavaParser)

// WithJavaMaxFileSize sets the maximum file size the parser accepts.
func WithJavaMaxFileSize(n int64) JavaParserOption {
	return func(p *JavaParser) { p.maxFileSize = n }
}

// JavaParser extracts classes, interfaces, enums, methods, fields and
// imports from Java source.
type JavaParser struct {
	maxFileSize int64
}

// NewJavaParser creates a JavaParser with the given options.
func NewJavaParser(opts ...JavaParserOption) *JavaParser {
	p := &JavaParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *JavaParser) Language() string     { return "java" }
func (p *JavaParser) Extensions() []string { return []string{".java"} }

func (p *JavaParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "java", filePath, len(content))
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "java",
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

	var pkg string
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case javaNodePackageDeclaration:
			pkg = p.extractPackage(child, content)
		case javaNodeImportDeclaration:
			p.extractImport(child, content, filePath, result)
		case javaNodeClassDeclaration:
			if sym := p.extractClass(child, content, filePath); sym != nil {
				sym.Package = pkg
				result.Symbols = append(result.Symbols, sym)
			}
		case javaNodeInterfaceDecl:
			if sym := p.extractInterface(child, content, filePath); sym != nil {
				sym.Package = pkg
				result.Symbols = append(result.Symbols, sym)
			}
		case javaNodeEnumDeclaration:
			if sym := p.extractEnum(child, content, filePath); sym != nil {
				sym.Package = pkg
				result.Symbols = append(result.Symbols, sym)
			}
		}
	}

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, "java", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "java", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "java", time.Since(start), len(result.Symbols), true)
	return result, nil
}

func (p *JavaParser) extractPackage(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == javaNodeScopedIdentifier || child.Type() == javaNodeIdentifier {
			return string(content[child.StartByte():child.EndByte()])
		}
	}
	return ""
}

func (p *JavaParser) extractImport(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	imp := Import{IsModule: true, Location: Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case javaNodeScopedIdentifier, javaNodeIdentifier:
			imp.Path = string(content[child.StartByte():child.EndByte()])
		case javaNodeAsterisk:
			imp.IsWildcard = true
		}
	}
	if imp.Path != "" {
		result.Imports = append(result.Imports, imp)
	}
}

func (p *JavaParser) modifiers(node *sitter.Node, content []byte) (string, []string, bool, bool) {
	accessModifier := "package"
	var annotations []string
	isStatic, isAbstract := false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case javaNodeAnnotation, javaNodeMarkerAnnotation:
			annotations = append(annotations, strings.TrimPrefix(string(content[child.StartByte():child.EndByte()]), "@"))
		case "public", "private", "protected":
			accessModifier = child.Type()
		case "static":
			isStatic = true
		case "abstract":
			isAbstract = true
		}
	}
	return accessModifier, annotations, isStatic, isAbstract
}

func (p *JavaParser) getPrecedingComment(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	for prev != nil && (prev.Type() == javaNodeModifiers) {
		prev = prev.PrevSibling()
	}
	if prev == nil || (prev.Type() != javaNodeBlockComment && prev.Type() != javaNodeLineComment) {
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

func (p *JavaParser) extractClass(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	var modifiersNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == javaNodeModifiers {
			modifiersNode = node.Child(i)
			break
		}
	}
	accessModifier, annotations, _, isAbstract := "package", []string(nil), false, false
	if modifiersNode != nil {
		accessModifier, annotations, _, isAbstract = p.modifiers(modifiersNode, content)
	}

	var extends string
	var implements []string
	if sc := node.ChildByFieldName("superclass"); sc != nil {
		for i := 0; i < int(sc.ChildCount()); i++ {
			if sc.Child(i).Type() == javaNodeTypeIdentifier {
				extends = string(content[sc.Child(i).StartByte():sc.Child(i).EndByte()])
			}
		}
	}
	if si := node.ChildByFieldName("interfaces"); si != nil {
		for i := 0; i < int(si.ChildCount()); i++ {
			tl := si.Child(i)
			if tl.Type() != javaNodeTypeList {
				continue
			}
			for j := 0; j < int(tl.ChildCount()); j++ {
				if tl.Child(j).Type() == javaNodeTypeIdentifier {
					implements = append(implements, string(content[tl.Child(j).StartByte():tl.Child(j).EndByte()]))
				}
			}
		}
	}

	sym := &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:       name,
		Kind:       SymbolKindClass,
		FilePath:   filePath,
		Language:   "java",
		Exported:   accessModifier == "public",
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
		Metadata: &SymbolMetadata{
			AccessModifier: accessModifier,
			Extends:        extends,
			Implements:     implements,
			IsAbstract:     isAbstract,
			Decorators:     annotations,
		},
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case javaNodeMethodDeclaration, javaNodeConstructorDecl:
			if m := p.extractMethod(member, content, filePath, name); m != nil {
				sym.Children = append(sym.Children, m)
			}
		case javaNodeFieldDeclaration:
			sym.Children = append(sym.Children, p.extractFields(member, content, filePath, name)...)
		}
	}
	return sym
}

func (p *JavaParser) extractInterface(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	accessModifier := "package"
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == javaNodeModifiers {
			accessModifier, _, _, _ = p.modifiers(node.Child(i), content)
		}
	}

	sym := &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:       name,
		Kind:       SymbolKindInterface,
		FilePath:   filePath,
		Language:   "java",
		Exported:   accessModifier == "public",
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() == javaNodeMethodDeclaration {
			if m := p.extractMethod(member, content, filePath, name); m != nil {
				sym.Children = append(sym.Children, m)
			}
		}
	}
	return sym
}

func (p *JavaParser) extractEnum(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	accessModifier := "package"
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == javaNodeModifiers {
			accessModifier, _, _, _ = p.modifiers(node.Child(i), content)
		}
	}

	sym := &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:       name,
		Kind:       SymbolKindEnum,
		FilePath:   filePath,
		Language:   "java",
		Exported:   accessModifier == "public",
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		body := node.Child(i)
		if body.Type() != javaNodeEnumBody {
			continue
		}
		for j := 0; j < int(body.ChildCount()); j++ {
			member := body.Child(j)
			if member.Type() != javaNodeEnumConstant {
				continue
			}
			memberName := ""
			for k := 0; k < int(member.ChildCount()); k++ {
				if member.Child(k).Type() == javaNodeIdentifier {
					memberName = string(content[member.Child(k).StartByte():member.Child(k).EndByte()])
					break
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
				Language:      "java",
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

func (p *JavaParser) extractMethod(node *sitter.Node, content []byte, filePath, className string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	accessModifier, annotations, isStatic, isAbstract := "package", []string(nil), false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == javaNodeModifiers {
			accessModifier, annotations, isStatic, isAbstract = p.modifiers(node.Child(i), content)
		}
	}

	var returnType string
	if rt := node.ChildByFieldName("type"); rt != nil {
		returnType = string(content[rt.StartByte():rt.EndByte()])
	}
	var params string
	if pr := node.ChildByFieldName("parameters"); pr != nil {
		params = string(content[pr.StartByte():pr.EndByte()])
	}

	signature := name + params
	if returnType != "" {
		signature += ": " + returnType
	}

	return &Symbol{
		ID:         GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:       name,
		Kind:       SymbolKindMethod,
		FilePath:   filePath,
		Receiver:   className,
		Language:   "java",
		Exported:   accessModifier == "public",
		Signature:  signature,
		DocComment: p.getPrecedingComment(node, content),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		StartCol:   int(node.StartPoint().Column),
		EndCol:     int(node.EndPoint().Column),
		Metadata: &SymbolMetadata{
			AccessModifier: accessModifier,
			ReturnType:     returnType,
			IsStatic:       isStatic,
			IsAbstract:     isAbstract,
			Decorators:     annotations,
		},
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

func (p *JavaParser) extractFields(node *sitter.Node, content []byte, filePath, className string) []*Symbol {
	accessModifier, _, isStatic, _ := "package", []string(nil), false, false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == javaNodeModifiers {
			accessModifier, _, isStatic, _ = p.modifiers(node.Child(i), content)
		}
	}

	var fields []*Symbol
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != javaNodeVariableDeclarator {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := string(content[nameNode.StartByte():nameNode.EndByte()])
		fields = append(fields, &Symbol{
			ID:            GenerateID(filePath, int(child.StartPoint().Row)+1, name),
			Name:          name,
			Kind:          SymbolKindField,
			FilePath:      filePath,
			Receiver:      className,
			Language:      "java",
			Exported:      accessModifier == "public",
			StartLine:     int(child.StartPoint().Row) + 1,
			EndLine:       int(child.EndPoint().Row) + 1,
			StartCol:      int(child.StartPoint().Column),
			EndCol:        int(child.EndPoint().Column),
			Metadata:      &SymbolMetadata{AccessModifier: accessModifier, IsStatic: isStatic},
			ParsedAtMilli: time.Now().UnixMilli(),
		})
	}
	return fields
}
