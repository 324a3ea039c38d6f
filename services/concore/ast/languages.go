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

// NewDefaultRegistry builds a ParserRegistry with one parser registered per
// supported language: python, javascript, typescript, c, cpp, java, go and
// rust. Callers that only need a subset of languages can build a
// ParserRegistry directly and Register individual parsers instead.
func NewDefaultRegistry(opts ...RegistryOption) *ParserRegistry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	registry := NewParserRegistry()
	registry.Register(NewGoParser(goOptsFrom(cfg)...))
	registry.Register(NewJavaScriptParser(jsOptsFrom(cfg)...))
	registry.Register(NewTypeScriptParser(tsOptsFrom(cfg)...))
	registry.Register(NewPythonParser(pyOptsFrom(cfg)...))
	registry.Register(NewCParser(cOptsFrom(cfg)...))
	registry.Register(NewCPPParser(cppOptsFrom(cfg)...))
	registry.Register(NewJavaParser(javaOptsFrom(cfg)...))
	registry.Register(NewRustParser(rustOptsFrom(cfg)...))
	return registry
}

// registryConfig carries the single cross-language knob (max file size) that
// NewDefaultRegistry exposes; per-language parsers may grow their own knobs
// independently without changing this surface.
type registryConfig struct {
	maxFileSize int64
}

// RegistryOption configures NewDefaultRegistry.
type RegistryOption func(*registryConfig)

// WithRegistryMaxFileSize applies the given maximum file size to every
// registered parser.
func WithRegistryMaxFileSize(n int64) RegistryOption {
	return func(c *registryConfig) { c.maxFileSize = n }
}

func goOptsFrom(cfg registryConfig) []GoParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []GoParserOption{WithMaxFileSize(cfg.maxFileSize)}
}

func jsOptsFrom(cfg registryConfig) []JavaScriptParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []JavaScriptParserOption{WithJSMaxFileSize(int(cfg.maxFileSize))}
}

func tsOptsFrom(cfg registryConfig) []TypeScriptParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []TypeScriptParserOption{WithTypeScriptMaxFileSize(cfg.maxFileSize)}
}

func pyOptsFrom(cfg registryConfig) []PythonParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []PythonParserOption{WithPythonMaxFileSize(cfg.maxFileSize)}
}

func cOptsFrom(cfg registryConfig) []CParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []CParserOption{WithCMaxFileSize(cfg.maxFileSize)}
}

func cppOptsFrom(cfg registryConfig) []CPPParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []CPPParserOption{WithCPPMaxFileSize(cfg.maxFileSize)}
}

func javaOptsFrom(cfg registryConfig) []JavaParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []JavaParserOption{WithJavaMaxFileSize(cfg.maxFileSize)}
}

func rustOptsFrom(cfg registryConfig) []RustParserOption {
	if cfg.maxFileSize == 0 {
		return nil
	}
	return []RustParserOption{WithRustMaxFileSize(cfg.maxFileSize)}
}
