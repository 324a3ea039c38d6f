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
	"github.com/smacker/go-tree-sitter/c"
)

const (
	cNodeTranslationUnit     = "translation_unit"
	cNodeFunctionDefinition  = "function_definition"
	cNodeDeclaration         = "declaration"
	cNodeFunctionDeclarator  = "function_declarator"
	cNodePointerDeclarator   = "pointer_declarator"
	cNodeIdentifier          = "identifier"
	cNodeStructSpecifier     = "struct_specifier"
	cNodeUnionSpecifier      = "union_specifier"
	cNodeEnumSpecifier       = "enum_specifier"
	cNodeTypeDefinition      = "type_definition"
	cNodeTypeIdentifier      = "type_identifier"
	cNodePreprocInclude      = "preproc_include"
	cNodeStringLiteral       = "string_literal"
	cNodeSystemLibString     = "system_lib_string"
	cNodeFieldDeclarationList = "field_declaration_list"
	cNodeFieldDeclaration    = "field_declaration"
	cNodeComment             = "comment"
)

// CParserOption configures a CParser instance.
type CParserOption func(*CParser)

// WithCMaxFileSize sets the maximum file size the parser accepts.
func WithCMaxFileSize(n int64) CParserOption {
	return func(p *CParser) { p.maxFileSize = n }
}

// CParser extracts functions, structs/unions/enums and includes from C
// source, following the same traversal idiom as GoParser.
type CParser struct {
	maxFileSize int64
}

// NewCParser creates a CParser with the given options.
func NewCParser(opts ...CParserOption) *CParser {
	p := &CParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *CParser) Language() string      { return "c" }
func (p *CParser) Extensions() []string  { return []string{".c", ".h"} }

func (p *CParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "c", filePath, len(content))
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "c", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "c", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "c", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "c", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "c",
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
		recordParseMetrics(ctx, "c", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "c", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "c", time.Since(start), len(result.Symbols), true)
	return result, nil
}

func (p *CParser) walk(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case cNodePreprocInclude:
			p.extractInclude(child, content, filePath, result)
		case cNodeFunctionDefinition:
			if sym := p.extractFunction(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case cNodeDeclaration:
			if sym := p.extractTypeDecl(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case cNodeTypeDefinition:
			if sym := p.extractTypedef(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		}
	}
}

func (p *CParser) extractInclude(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	imp := Import{Location: Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case cNodeStringLiteral:
			imp.Path = strings.Trim(string(content[child.StartByte():child.EndByte()]), `"`)
			imp.IsRelative = true
		case cNodeSystemLibString:
			imp.Path = strings.Trim(string(content[child.StartByte():child.EndByte()]), "<>")
		}
	}
	if imp.Path != "" {
		result.Imports = append(result.Imports, imp)
	}
}

func (p *CParser) functionName(declarator *sitter.Node, content []byte) (string, *sitter.Node) {
	for declarator != nil {
		switch declarator.Type() {
		case cNodeFunctionDeclarator:
			inner := declarator.Child(0)
			if inner != nil && inner.Type() == cNodeIdentifier {
				return string(content[inner.StartByte():inner.EndByte()]), declarator
			}
			declarator = inner
		case cNodePointerDeclarator:
			declarator = declarator.ChildByFieldName("declarator")
		case cNodeIdentifier, "field_identifier":
			return string(content[declarator.StartByte():declarator.EndByte()]), declarator
		default:
			return "", nil
		}
	}
	return "", nil
}

func (p *CParser) extractFunction(node *sitter.Node, content []byte, filePath string) *Symbol {
	declarator := node.ChildByFieldName("declarator")
	name, fd := p.functionName(declarator, content)
	if name == "" {
		return nil
	}

	signature := strings.TrimSpace(string(content[node.StartByte():fnBodyStart(node, content)]))
	_ = fd

	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindFunction,
		FilePath:      filePath,
		Language:      "c",
		Exported:      true,
		Signature:     signature,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

// fnBodyStart returns the byte offset where the function body ("{") begins,
// falling back to the node's end when no body is found (a forward
// declaration misparsed as a definition).
func fnBodyStart(node *sitter.Node, content []byte) uint32 {
	body := node.ChildByFieldName("body")
	if body != nil {
		return body.StartByte()
	}
	return node.EndByte()
}

func (p *CParser) extractTypeDecl(node *sitter.Node, content []byte, filePath string) *Symbol {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case cNodeStructSpecifier, cNodeUnionSpecifier:
			return p.extractAggregate(child, content, filePath, SymbolKindStruct)
		case cNodeEnumSpecifier:
			return p.extractEnum(child, content, filePath)
		}
	}
	return nil
}

func (p *CParser) extractTypedef(node *sitter.Node, content []byte, filePath string) *Symbol {
	var aliasName string
	for i := int(node.ChildCount()) - 1; i >= 0; i-- {
		if node.Child(i).Type() == cNodeTypeIdentifier {
			aliasName = string(content[node.Child(i).StartByte():node.Child(i).EndByte()])
			break
		}
	}
	if aliasName == "" {
		return nil
	}
	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, aliasName),
		Name:          aliasName,
		Kind:          SymbolKindType,
		FilePath:      filePath,
		Language:      "c",
		Exported:      true,
		Signature:     strings.TrimSpace(string(content[node.StartByte():node.EndByte()])),
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

func (p *CParser) extractAggregate(node *sitter.Node, content []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	name := "anonymous"
	if nameNode != nil {
		name = string(content[nameNode.StartByte():nameNode.EndByte()])
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Language:      "c",
		Exported:      true,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		field := body.Child(i)
		if field.Type() != cNodeFieldDeclaration {
			continue
		}
		for j := 0; j < int(field.ChildCount()); j++ {
			if t := field.Child(j).Type(); t == cNodeIdentifier || t == "field_identifier" || t == cNodeFunctionDeclarator {
				fname := p.declaratorIdentifier(field.Child(j), content)
				if fname == "" {
					continue
				}
				sym.Children = append(sym.Children, &Symbol{
					ID:            GenerateID(filePath, int(field.StartPoint().Row)+1, fname),
					Name:          fname,
					Kind:          SymbolKindField,
					FilePath:      filePath,
					Receiver:      name,
					Language:      "c",
					Exported:      true,
					StartLine:     int(field.StartPoint().Row) + 1,
					EndLine:       int(field.EndPoint().Row) + 1,
					StartCol:      int(field.StartPoint().Column),
					EndCol:        int(field.EndPoint().Column),
					ParsedAtMilli: time.Now().UnixMilli(),
				})
			}
		}
	}
	return sym
}

func (p *CParser) declaratorIdentifier(node *sitter.Node, content []byte) string {
	if node.Type() == cNodeIdentifier {
		return string(content[node.StartByte():node.EndByte()])
	}
	name, _ := p.functionName(node, content)
	return name
}

func (p *CParser) extractEnum(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	name := "anonymous"
	if nameNode != nil {
		name = string(content[nameNode.StartByte():nameNode.EndByte()])
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindEnum,
		FilePath:      filePath,
		Language:      "c",
		Exported:      true,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		enumerator := body.Child(i)
		if enumerator.Type() != "enumerator" {
			continue
		}
		memberName := ""
		for j := 0; j < int(enumerator.ChildCount()); j++ {
			if enumerator.Child(j).Type() == cNodeIdentifier {
				memberName = string(content[enumerator.Child(j).StartByte():enumerator.Child(j).EndByte()])
				break
			}
		}
		if memberName == "" {
			continue
		}
		sym.Children = append(sym.Children, &Symbol{
			ID:            GenerateID(filePath, int(enumerator.StartPoint().Row)+1, memberName),
			Name:          memberName,
			Kind:          SymbolKindEnumMember,
			FilePath:      filePath,
			Receiver:      name,
			Language:      "c",
			Exported:      true,
			StartLine:     int(enumerator.StartPoint().Row) + 1,
			EndLine:       int(enumerator.EndPoint().Row) + 1,
			StartCol:      int(enumerator.StartPoint().Column),
			EndCol:        int(enumerator.EndPoint().Column),
			ParsedAtMilli: time.Now().UnixMilli(),
		})
	}
	return sym
}

func (p *CParser) getPrecedingComment(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != cNodeComment {
		return ""
	}
	if int(node.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
		return ""
	}
	text := string(content[prev.StartByte():prev.EndByte()])
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	text = strings.TrimPrefix(text, "//")
	return strings.TrimSpace(text)
}
