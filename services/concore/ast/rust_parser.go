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
	"github.com/smacker/go-tree-sitter/rust"
)

const (
	rustNodeSourceFile      = "source_file"
	rustNodeFunctionItem    = "function_item"
	rustNodeStructItem      = "struct_item"
	rustNodeEnumItem        = "enum_item"
	rustNodeEnumVariantList = "enum_variant_list"
	rustNodeEnumVariant     = "enum_variant"
	rustNodeTraitItem       = "trait_item"
	rustNodeImplItem        = "impl_item"
	rustNodeModItem         = "mod_item"
	rustNodeUseDeclaration  = "use_declaration"
	rustNodeUseList         = "use_list"
	rustNodeUseAsClause     = "use_as_clause"
	rustNodeUseWildcard     = "use_wildcard"
	rustNodeScopedIdent     = "scoped_identifier"
	rustNodeScopedUseList   = "scoped_use_list"
	rustNodeIdentifier      = "identifier"
	rustNodeTypeIdentifier  = "type_identifier"
	rustNodeFieldDeclList   = "field_declaration_list"
	rustNodeFieldDecl       = "field_declaration"
	rustNodeDeclList        = "declaration_list"
	rustNodeVisModifier     = "visibility_modifier"
	rustNodeParameters      = "parameters"
	rustNodeTypeParams      = "type_parameters"
	rustNodeAttributeItem   = "attribute_item"
	rustNodeLineComment     = "line_comment"
	rustNodeBlockComment    = "block_comment"
)

// RustParserOption configures a RustParser instance.
type RustParserOption func(*RustParser)

// WithRustMaxFileSize sets the maximum file size the parser accepts.
func WithRustMaxFileSize(n int64) RustParserOption {
	return func(p *RustParser) { p.maxFileSize = n }
}

// RustParser extracts functions, structs, enums, traits, impl blocks and use
// declarations from Rust source.
type RustParser struct {
	maxFileSize int64
}

// NewRustParser creates a RustParser with the given options.
func NewRustParser(opts ...RustParserOption) *RustParser {
	p := &RustParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RustParser) Language() string     { return "rust" }
func (p *RustParser) Extensions() []string { return []string{".rs"} }

func (p *RustParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "rust", filePath, len(content))
	defer span.End()
	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "rust", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "rust", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "rust", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "rust", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "rust",
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

	p.walk(root, content, filePath, result, "")

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, "rust", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "rust", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "rust", time.Since(start), len(result.Symbols), true)
	return result, nil
}

func (p *RustParser) walk(node *sitter.Node, content []byte, filePath string, result *ParseResult, modPath string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case rustNodeUseDeclaration:
			p.extractUse(child, content, filePath, result)
		case rustNodeFunctionItem:
			if sym := p.extractFunction(child, content, filePath, "", modPath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case rustNodeStructItem:
			if sym := p.extractStruct(child, content, filePath, modPath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case rustNodeEnumItem:
			if sym := p.extractEnum(child, content, filePath, modPath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case rustNodeTraitItem:
			if sym := p.extractTrait(child, content, filePath, modPath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case rustNodeImplItem:
			p.extractImpl(child, content, filePath, result, modPath)
		case rustNodeModItem:
			p.extractMod(child, content, filePath, result, modPath)
		}
	}
}

func (p *RustParser) extractMod(node *sitter.Node, content []byte, filePath string, result *ParseResult, modPath string) {
	nameNode := node.ChildByFieldName("name")
	name := ""
	if nameNode != nil {
		name = string(content[nameNode.StartByte():nameNode.EndByte()])
	}
	childModPath := name
	if modPath != "" {
		childModPath = modPath + "::" + name
	}
	body := node.ChildByFieldName("body")
	if body != nil {
		p.walk(body, content, filePath, result, childModPath)
	}
}

func (p *RustParser) extractUse(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() != "use" && node.Child(i).Type() != ";" {
				arg = node.Child(i)
				break
			}
		}
	}
	if arg == nil {
		return
	}
	p.flattenUse(arg, content, filePath, result, "")
}

func (p *RustParser) flattenUse(node *sitter.Node, content []byte, filePath string, result *ParseResult, prefix string) {
	loc := Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
		EndCol:    int(node.EndPoint().Column),
	}
	switch node.Type() {
	case rustNodeIdentifier, rustNodeTypeIdentifier:
		path := string(content[node.StartByte():node.EndByte()])
		if prefix != "" {
			path = prefix + "::" + path
		}
		result.Imports = append(result.Imports, Import{Path: path, IsModule: true, Location: loc})
	case rustNodeScopedIdent:
		path := string(content[node.StartByte():node.EndByte()])
		result.Imports = append(result.Imports, Import{Path: path, IsModule: true, Location: loc})
	case rustNodeUseAsClause:
		pathNode := node.Child(0)
		aliasNode := node.ChildByFieldName("alias")
		path := ""
		if pathNode != nil {
			path = string(content[pathNode.StartByte():pathNode.EndByte()])
		}
		alias := ""
		if aliasNode != nil {
			alias = string(content[aliasNode.StartByte():aliasNode.EndByte()])
		}
		result.Imports = append(result.Imports, Import{Path: path, Alias: alias, IsModule: true, Location: loc})
	case rustNodeUseWildcard:
		path := prefix
		if path == "" {
			path = string(content[node.StartByte():node.EndByte()])
		}
		result.Imports = append(result.Imports, Import{Path: path, IsWildcard: true, IsModule: true, Location: loc})
	case rustNodeScopedUseList:
		pathNode := node.ChildByFieldName("path")
		base := prefix
		if pathNode != nil {
			base = string(content[pathNode.StartByte():pathNode.EndByte()])
		}
		list := node.ChildByFieldName("list")
		if list != nil {
			for i := 0; i < int(list.ChildCount()); i++ {
				child := list.Child(i)
				if child.Type() == "," || child.Type() == "{" || child.Type() == "}" {
					continue
				}
				p.flattenUse(child, content, filePath, result, base)
			}
		}
	case rustNodeUseList:
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "," || child.Type() == "{" || child.Type() == "}" {
				continue
			}
			p.flattenUse(child, content, filePath, result, prefix)
		}
	}
}

func (p *RustParser) getPrecedingComment(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == rustNodeAttributeItem {
		prev = prev.PrevSibling()
	}
	if prev == nil || (prev.Type() != rustNodeLineComment && prev.Type() != rustNodeBlockComment) {
		return ""
	}
	text := string(content[prev.StartByte():prev.EndByte()])
	text = strings.TrimPrefix(text, "///")
	text = strings.TrimPrefix(text, "//!")
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	return strings.TrimSpace(text)
}

func (p *RustParser) visibility(node *sitter.Node, content []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == rustNodeVisModifier {
			return true
		}
	}
	return false
}

func (p *RustParser) extractFunction(node *sitter.Node, content []byte, filePath, receiver, modPath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	var params, returnType string
	if pr := node.ChildByFieldName("parameters"); pr != nil {
		params = string(content[pr.StartByte():pr.EndByte()])
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		returnType = string(content[rt.StartByte():rt.EndByte()])
	}

	signature := name + params
	if returnType != "" {
		signature += " -> " + returnType
	}

	kind := SymbolKindFunction
	if receiver != "" {
		kind = SymbolKindMethod
	}

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Package:       modPath,
		Receiver:      receiver,
		Language:      "rust",
		Exported:      p.visibility(node, content),
		Signature:     signature,
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
	if returnType != "" {
		sym.Metadata = &SymbolMetadata{ReturnType: returnType}
	}
	return sym
}

func (p *RustParser) extractStruct(node *sitter.Node, content []byte, filePath, modPath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindStruct,
		FilePath:      filePath,
		Package:       modPath,
		Language:      "rust",
		Exported:      p.visibility(node, content),
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil || body.Type() != rustNodeFieldDeclList {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		field := body.Child(i)
		if field.Type() != rustNodeFieldDecl {
			continue
		}
		fnameNode := field.ChildByFieldName("name")
		if fnameNode == nil {
			continue
		}
		fname := string(content[fnameNode.StartByte():fnameNode.EndByte()])
		sym.Children = append(sym.Children, &Symbol{
			ID:            GenerateID(filePath, int(field.StartPoint().Row)+1, fname),
			Name:          fname,
			Kind:          SymbolKindField,
			FilePath:      filePath,
			Receiver:      name,
			Language:      "rust",
			Exported:      p.visibility(field, content),
			StartLine:     int(field.StartPoint().Row) + 1,
			EndLine:       int(field.EndPoint().Row) + 1,
			StartCol:      int(field.StartPoint().Column),
			EndCol:        int(field.EndPoint().Column),
			ParsedAtMilli: time.Now().UnixMilli(),
		})
	}
	return sym
}

func (p *RustParser) extractEnum(node *sitter.Node, content []byte, filePath, modPath string) *Symbol {
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
		Package:       modPath,
		Language:      "rust",
		Exported:      p.visibility(node, content),
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
		variant := body.Child(i)
		if variant.Type() != rustNodeEnumVariant {
			continue
		}
		vnameNode := variant.ChildByFieldName("name")
		if vnameNode == nil {
			continue
		}
		vname := string(content[vnameNode.StartByte():vnameNode.EndByte()])
		sym.Children = append(sym.Children, &Symbol{
			ID:            GenerateID(filePath, int(variant.StartPoint().Row)+1, vname),
			Name:          vname,
			Kind:          SymbolKindEnumMember,
			FilePath:      filePath,
			Receiver:      name,
			Language:      "rust",
			Exported:      true,
			StartLine:     int(variant.StartPoint().Row) + 1,
			EndLine:       int(variant.EndPoint().Row) + 1,
			StartCol:      int(variant.StartPoint().Column),
			EndCol:        int(variant.EndPoint().Column),
			ParsedAtMilli: time.Now().UnixMilli(),
		})
	}
	return sym
}

func (p *RustParser) extractTrait(node *sitter.Node, content []byte, filePath, modPath string) *Symbol {
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
		Package:       modPath,
		Language:      "rust",
		Exported:      p.visibility(node, content),
		DocComment:    p.getPrecedingComment(node, content),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	body := node.ChildByFieldName("body")
	if body == nil || body.Type() != rustNodeDeclList {
		return sym
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		if body.Child(i).Type() == rustNodeFunctionItem {
			if m := p.extractFunction(body.Child(i), content, filePath, name, modPath); m != nil {
				sym.Children = append(sym.Children, m)
			}
		}
	}
	return sym
}

func (p *RustParser) extractImpl(node *sitter.Node, content []byte, filePath string, result *ParseResult, modPath string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	receiver := string(content[typeNode.StartByte():typeNode.EndByte()])

	body := node.ChildByFieldName("body")
	if body == nil || body.Type() != rustNodeDeclList {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		if body.Child(i).Type() == rustNodeFunctionItem {
			if m := p.extractFunction(body.Child(i), content, filePath, receiver, modPath); m != nil {
				result.Symbols = append(result.Symbols, m)
			}
		}
	}
}
