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
	"github.com/smacker/go-tree-sitter/python"
)

// PythonParserOption configures a PythonParser instance.
type PythonParserOption func(*PythonParser)

// WithPythonMaxFileSize sets the maximum file size the parser will accept.
func WithPythonMaxFileSize(n int64) PythonParserOption {
	return func(p *PythonParser) { p.maxFileSize = n }
}

// WithPythonParseOptions sets the ParseOptions used by the parser.
func WithPythonParseOptions(opts ParseOptions) PythonParserOption {
	return func(p *PythonParser) { p.parseOptions = opts }
}

// PythonParser extracts symbols from Python source using direct tree-sitter
// node traversal, mirroring GoParser's approach (see python_queries.go for
// the node-type reference this traversal follows).
type PythonParser struct {
	maxFileSize  int64
	parseOptions ParseOptions
}

// NewPythonParser creates a PythonParser with the given options.
func NewPythonParser(opts ...PythonParserOption) *PythonParser {
	p := &PythonParser{
		maxFileSize:  DefaultMaxFileSize,
		parseOptions: DefaultParseOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PythonParser) Language() string { return "python" }

func (p *PythonParser) Extensions() []string { return []string{".py", ".pyi"} }

// Parse extracts module docstring, imports, functions, classes and
// module-level assignments from Python source.
func (p *PythonParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "python", filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if len(content) > WarnFileSize {
		slog.Warn("parsing large file", slog.String("file", filePath), slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath:      filePath,
		Language:      "python",
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

	if doc := p.moduleDocstring(root, content); doc != "" {
		result.Symbols = append(result.Symbols, &Symbol{
			ID:            GenerateID(filePath, 1, "__module__"),
			Name:          "__module__",
			Kind:          SymbolKindPackage,
			FilePath:      filePath,
			Language:      "python",
			Exported:      true,
			DocComment:    doc,
			StartLine:     1,
			EndLine:       1,
			ParsedAtMilli: time.Now().UnixMilli(),
		})
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case pyNodeImportStatement, pyNodeImportFromStatement:
			p.extractImport(child, content, filePath, result)
		case pyNodeFunctionDefinition, pyNodeAsyncFunctionDefinition:
			if sym := p.extractFunction(child, content, filePath, false); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case pyNodeClassDefinition:
			if sym := p.extractClass(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case pyNodeDecoratedDefinition:
			if sym := p.extractDecorated(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		case pyNodeExpressionStatement:
			if sym := p.extractModuleAssignment(child, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, sym)
			}
		}
	}

	if err := result.Validate(); err != nil {
		recordParseMetrics(ctx, "python", time.Since(start), 0, false)
		return nil, fmt.Errorf("result validation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, "python", time.Since(start), len(result.Symbols), false)
		return nil, fmt.Errorf("parse canceled after extraction: %w", err)
	}

	setParseSpanResult(span, len(result.Symbols), len(result.Errors))
	recordParseMetrics(ctx, "python", time.Since(start), len(result.Symbols), true)
	return result, nil
}

// moduleDocstring returns the text of the module-level docstring, if the
// first statement in the file is a bare string expression.
func (p *PythonParser) moduleDocstring(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == pyNodeComment {
			continue
		}
		if child.Type() == pyNodeExpressionStatement && int(child.ChildCount()) > 0 && child.Child(0).Type() == pyNodeString {
			return unquotePyString(string(content[child.Child(0).StartByte():child.Child(0).EndByte()]))
		}
		return ""
	}
	return ""
}

func unquotePyString(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2 {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// extractImport handles both "import x" and "from x import y" forms.
func (p *PythonParser) extractImport(node *sitter.Node, content []byte, filePath string, result *ParseResult) {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	loc := Location{FilePath: filePath, StartLine: startLine, EndLine: endLine,
		StartCol: int(node.StartPoint().Column), EndCol: int(node.EndPoint().Column)}

	switch node.Type() {
	case pyNodeImportStatement:
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case pyNodeDottedName:
				path := string(content[child.StartByte():child.EndByte()])
				result.Imports = append(result.Imports, Import{Path: path, Location: loc})
			case pyNodeAliasedImport:
				var path, alias string
				for j := 0; j < int(child.ChildCount()); j++ {
					gc := child.Child(j)
					switch gc.Type() {
					case pyNodeDottedName:
						path = string(content[gc.StartByte():gc.EndByte()])
					case pyNodeIdentifier:
						alias = string(content[gc.StartByte():gc.EndByte()])
					}
				}
				if path != "" {
					result.Imports = append(result.Imports, Import{Path: path, Alias: alias, Location: loc})
				}
			}
		}
	case pyNodeImportFromStatement:
		imp := Import{Location: loc}
		moduleSeen := false
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case pyNodeDottedName:
				text := string(content[child.StartByte():child.EndByte()])
				if !moduleSeen {
					imp.Path = text
					moduleSeen = true
				} else {
					imp.Names = append(imp.Names, text)
				}
			case pyNodeRelativeImport:
				imp.IsRelative = true
				dots := strings.Repeat(".", strings.Count(string(content[child.StartByte():child.EndByte()]), "."))
				if dots == "" {
					dots = string(content[child.StartByte():child.EndByte()])
				}
				imp.Path = dots
				moduleSeen = true
				for j := 0; j < int(child.ChildCount()); j++ {
					if child.Child(j).Type() == pyNodeDottedName {
						imp.Path += string(content[child.Child(j).StartByte():child.Child(j).EndByte()])
					}
				}
			case pyNodeWildcardImport:
				imp.IsWildcard = true
			case pyNodeIdentifier:
				imp.Names = append(imp.Names, string(content[child.StartByte():child.EndByte()]))
			case pyNodeAliasedImport:
				for j := 0; j < int(child.ChildCount()); j++ {
					if child.Child(j).Type() == pyNodeIdentifier {
						imp.Names = append(imp.Names, string(content[child.Child(j).StartByte():child.Child(j).EndByte()]))
						break
					}
				}
			}
		}
		result.Imports = append(result.Imports, imp)
	}
}

// extractFunction extracts a function_definition, descending one level for
// async_function_definition. insideClass marks the result as a method.
func (p *PythonParser) extractFunction(node *sitter.Node, content []byte, filePath string, insideClass bool) *Symbol {
	isAsync := node.Type() == pyNodeAsyncFunctionDefinition ||
		(node.ChildCount() > 0 && node.Child(0).Type() == "async")
	fn := node
	if isAsync {
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == pyNodeFunctionDefinition {
				fn = node.Child(i)
				break
			}
		}
	}

	nameNode := fn.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	params := ""
	if pn := fn.ChildByFieldName("parameters"); pn != nil {
		params = string(content[pn.StartByte():pn.EndByte()])
	}
	returnType := ""
	if rn := fn.ChildByFieldName("return_type"); rn != nil {
		returnType = string(content[rn.StartByte():rn.EndByte()])
	}

	signature := "def " + name + params
	if isAsync {
		signature = "async " + signature
	}
	if returnType != "" {
		signature += " -> " + returnType
	}

	kind := SymbolKindFunction
	if insideClass {
		kind = SymbolKindMethod
	}

	exported := !strings.HasPrefix(name, "_") || (strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Language:      "python",
		Exported:      exported,
		Signature:     signature,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	if body := fn.ChildByFieldName("body"); body != nil {
		sym.DocComment = p.blockDocstring(body, content)
		sym.Children = p.extractNestedFunctions(body, content, filePath)
	}

	if isAsync || returnType != "" {
		sym.Metadata = &SymbolMetadata{IsAsync: isAsync, ReturnType: returnType}
	}

	return sym
}

// extractNestedFunctions finds function_definitions directly inside a block,
// so a closure shows up as a child symbol of its enclosing function.
func (p *PythonParser) extractNestedFunctions(block *sitter.Node, content []byte, filePath string) []*Symbol {
	var nested []*Symbol
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() == pyNodeFunctionDefinition || child.Type() == pyNodeAsyncFunctionDefinition {
			if sym := p.extractFunction(child, content, filePath, false); sym != nil {
				nested = append(nested, sym)
			}
		}
	}
	return nested
}

// blockDocstring returns the docstring of a function or class body, if its
// first statement is a bare string expression.
func (p *PythonParser) blockDocstring(block *sitter.Node, content []byte) string {
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() == pyNodeExpressionStatement && int(child.ChildCount()) > 0 && child.Child(0).Type() == pyNodeString {
			return unquotePyString(string(content[child.Child(0).StartByte():child.Child(0).EndByte()]))
		}
		return ""
	}
	return ""
}

// extractClass extracts a class_definition, including its methods and
// class-level field assignments as children.
func (p *PythonParser) extractClass(node *sitter.Node, content []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(content[nameNode.StartByte():nameNode.EndByte()])

	bases := ""
	if bn := node.ChildByFieldName("superclasses"); bn != nil {
		bases = string(content[bn.StartByte():bn.EndByte()])
	}

	signature := "class " + name + bases

	sym := &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindClass,
		FilePath:      filePath,
		Language:      "python",
		Exported:      !strings.HasPrefix(name, "_"),
		Signature:     signature,
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
	sym.DocComment = p.blockDocstring(body, content)

	var methods []MethodSignature
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case pyNodeFunctionDefinition, pyNodeAsyncFunctionDefinition:
			if m := p.extractFunction(child, content, filePath, true); m != nil {
				m.Receiver = name
				sym.Children = append(sym.Children, m)
				methods = append(methods, MethodSignature{Name: m.Name})
			}
		case pyNodeDecoratedDefinition:
			if m := p.extractDecorated(child, content, filePath); m != nil {
				if m.Kind == SymbolKindFunction {
					m.Kind = SymbolKindMethod
				}
				m.Receiver = name
				sym.Children = append(sym.Children, m)
				methods = append(methods, MethodSignature{Name: m.Name})
			}
		case pyNodeExpressionStatement:
			if f := p.extractClassField(child, content, filePath, name); f != nil {
				sym.Children = append(sym.Children, f)
			}
		}
	}
	if len(methods) > 0 {
		if sym.Metadata == nil {
			sym.Metadata = &SymbolMetadata{}
		}
		sym.Metadata.Methods = methods
	}
	if bases != "" {
		if sym.Metadata == nil {
			sym.Metadata = &SymbolMetadata{}
		}
		sym.Metadata.Extends = strings.Trim(bases, "()")
		for _, base := range strings.Split(sym.Metadata.Extends, ",") {
			switch strings.TrimSpace(base) {
			case "Protocol", "typing.Protocol", "ABC", "abc.ABC":
				sym.Kind = SymbolKindInterface
			}
		}
	}

	return sym
}

// extractClassField extracts a class-body assignment (`name: type = value`
// or `name = value`) as a field symbol.
func (p *PythonParser) extractClassField(node *sitter.Node, content []byte, filePath, className string) *Symbol {
	if int(node.ChildCount()) == 0 {
		return nil
	}
	assign := node.Child(0)
	if assign.Type() != pyNodeAssignment {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != pyNodeIdentifier {
		return nil
	}
	name := string(content[left.StartByte():left.EndByte()])

	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          SymbolKindField,
		FilePath:      filePath,
		Language:      "python",
		Receiver:      className,
		Exported:      !strings.HasPrefix(name, "_"),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

// extractModuleAssignment extracts a module-level `name = value` statement,
// classifying ALL_CAPS names as constants.
func (p *PythonParser) extractModuleAssignment(node *sitter.Node, content []byte, filePath string) *Symbol {
	if int(node.ChildCount()) == 0 {
		return nil
	}
	assign := node.Child(0)
	if assign.Type() != pyNodeAssignment {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != pyNodeIdentifier {
		return nil
	}
	name := string(content[left.StartByte():left.EndByte()])

	kind := SymbolKindVariable
	if strings.ToUpper(name) == name {
		kind = SymbolKindConstant
	}

	return &Symbol{
		ID:            GenerateID(filePath, int(node.StartPoint().Row)+1, name),
		Name:          name,
		Kind:          kind,
		FilePath:      filePath,
		Language:      "python",
		Exported:      !strings.HasPrefix(name, "_"),
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		StartCol:      int(node.StartPoint().Column),
		EndCol:        int(node.EndPoint().Column),
		ParsedAtMilli: time.Now().UnixMilli(),
	}
}

// extractDecorated unwraps a decorated_definition, attaching the collected
// decorator names to the underlying function or class symbol.
func (p *PythonParser) extractDecorated(node *sitter.Node, content []byte, filePath string) *Symbol {
	var decorators []string
	var inner *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case pyNodeDecorator:
			decorators = append(decorators, p.decoratorName(child, content))
		case pyNodeFunctionDefinition, pyNodeAsyncFunctionDefinition, pyNodeClassDefinition:
			inner = child
		}
	}
	if inner == nil {
		return nil
	}

	var sym *Symbol
	switch inner.Type() {
	case pyNodeClassDefinition:
		sym = p.extractClass(inner, content, filePath)
	default:
		sym = p.extractFunction(inner, content, filePath, false)
	}
	if sym == nil {
		return nil
	}

	for _, d := range decorators {
		switch d {
		case "property":
			sym.Kind = SymbolKindProperty
		case "staticmethod", "classmethod":
			if sym.Metadata == nil {
				sym.Metadata = &SymbolMetadata{}
			}
			sym.Metadata.IsStatic = true
		case "abstractmethod":
			if sym.Metadata == nil {
				sym.Metadata = &SymbolMetadata{}
			}
			sym.Metadata.IsAbstract = true
		}
	}
	if len(decorators) > 0 {
		if sym.Metadata == nil {
			sym.Metadata = &SymbolMetadata{}
		}
		sym.Metadata.Decorators = decorators
	}
	// Start line should reflect the decorator, not the wrapped definition.
	sym.StartLine = int(node.StartPoint().Row) + 1
	sym.ID = GenerateID(filePath, sym.StartLine, sym.Name)

	return sym
}

func (p *PythonParser) decoratorName(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case pyNodeIdentifier:
			return string(content[child.StartByte():child.EndByte()])
		case pyNodeAttribute:
			return string(content[child.StartByte():child.EndByte()])
		case pyNodeCall:
			if fn := child.ChildByFieldName("function"); fn != nil {
				return string(content[fn.StartByte():fn.EndByte()])
			}
			return string(content[child.StartByte():child.EndByte()])
		}
	}
	return ""
}
