// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery expands a set of input paths into a deterministic,
// ordered sequence of model.SourceFile records (spec.md §4.1): glob
// filtering and content hashing via manifest.ManifestManager, symlink
// canonicalization, and extension/shebang language inference.
package discovery

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/manifest"
	"github.com/aleutian-oss/concore/services/concore/model"
)

// extensionLanguages maps file extensions to languages, covering every
// language the AST layer can parse.
var extensionLanguages = map[string]model.Language{
	".go":  model.LangGo,
	".py":  model.LangPython,
	".js":  model.LangJavaScript,
	".jsx": model.LangJavaScript,
	".mjs": model.LangJavaScript,
	".cjs": model.LangJavaScript,
	".ts":  model.LangTypeScript,
	".tsx": model.LangTypeScript,
	".mts": model.LangTypeScript,
	".cts": model.LangTypeScript,
	".c":   model.LangC,
	".h":   model.LangC,
	".cc":  model.LangCPP,
	".cpp": model.LangCPP,
	".cxx": model.LangCPP,
	".hpp": model.LangCPP,
	".hh":  model.LangCPP,
	".hxx": model.LangCPP,
	".java": model.LangJava,
	".rs":  model.LangRust,
}

// shebangLanguages maps the interpreter named on a script's shebang line
// to a language, for extensionless scripts (spec.md §4.1 rule 4).
var shebangLanguages = map[string]model.Language{
	"python":  model.LangPython,
	"python3": model.LangPython,
	"node":    model.LangJavaScript,
	"nodejs":  model.LangJavaScript,
}

// Options configures a Discover call.
type Options struct {
	Includes    []string
	Excludes    []string
	MaxFileSize int64
}

// Discover expands inputs (files or directories) into an ordered,
// deduplicated sequence of SourceFile records plus any INFO-level
// diagnostics recorded along the way (oversized or unreadable files).
// Missing input paths are fatal (coreerr.ErrInputNotFound); everything
// else recoverable is skipped with a diagnostic instead of aborting.
func Discover(ctx context.Context, inputs []string, opts Options) ([]model.SourceFile, []model.Diagnostic, error) {
	var managerOpts []manifest.ManagerOption
	if len(opts.Includes) > 0 {
		managerOpts = append(managerOpts, manifest.WithIncludes(opts.Includes...))
	}
	if len(opts.Excludes) > 0 {
		managerOpts = append(managerOpts, manifest.WithExcludes(opts.Excludes...))
	}
	if opts.MaxFileSize > 0 {
		managerOpts = append(managerOpts, manifest.WithMaxFileSize(opts.MaxFileSize))
	}
	manager := manifest.NewManifestManager(managerOpts...)

	seen := make(map[string]struct{})
	var files []model.SourceFile
	var diags []model.Diagnostic

	for _, input := range inputs {
		real, err := canonicalize(input)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", coreerr.ErrInputNotFound, input)
		}

		info, err := os.Stat(real)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", coreerr.ErrInputNotFound, input)
		}

		if !info.IsDir() {
			sf, diag, err := loadSourceFile(real, real, opts.MaxFileSize)
			if err != nil {
				diags = append(diags, model.Diagnostic{FilePath: real, Kind: coreerr.KindSkippedUnreadable, Message: err.Error()})
				continue
			}
			if diag != nil {
				diags = append(diags, *diag)
				continue
			}
			if sf == nil {
				continue
			}
			if _, dup := seen[sf.Path]; dup {
				continue
			}
			seen[sf.Path] = struct{}{}
			files = append(files, *sf)
			continue
		}

		m, err := manager.Scan(ctx, real)
		if err != nil {
			return nil, nil, fmt.Errorf("discovery: scanning %s: %w", real, err)
		}
		for _, scanErr := range m.Errors {
			if errors.Is(scanErr.Err, manifest.ErrFileTooLarge) {
				diags = append(diags, model.Diagnostic{FilePath: scanErr.Path, Kind: coreerr.KindSkippedSize, Message: scanErr.Error()})
			} else {
				diags = append(diags, model.Diagnostic{FilePath: scanErr.Path, Kind: coreerr.KindSkippedUnreadable, Message: scanErr.Error()})
			}
		}

		relPaths := make([]string, 0, len(m.Files))
		for rel := range m.Files {
			relPaths = append(relPaths, rel)
		}
		sort.Strings(relPaths)

		for _, rel := range relPaths {
			full := filepath.Join(real, rel)
			canonicalFull, err := canonicalize(full)
			if err != nil {
				continue
			}
			if _, dup := seen[canonicalFull]; dup {
				continue
			}

			lang := languageFor(canonicalFull)
			if lang == model.LangUnknown {
				continue
			}

			content, err := os.ReadFile(canonicalFull)
			if err != nil {
				diags = append(diags, model.Diagnostic{FilePath: canonicalFull, Kind: coreerr.KindSkippedUnreadable, Message: err.Error()})
				continue
			}

			seen[canonicalFull] = struct{}{}
			files = append(files, model.SourceFile{
				Path:        canonicalFull,
				RelPath:     filepath.ToSlash(rel),
				Language:    lang,
				ContentHash: contentHash(content),
				SizeBytes:   int64(len(content)),
				Content:     content,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, diags, nil
}

// loadSourceFile handles a single explicit (non-directory) input path,
// applying the same size ceiling as a directory scan would.
func loadSourceFile(canonicalPath, relPath string, maxFileSize int64) (*model.SourceFile, *model.Diagnostic, error) {
	info, err := os.Stat(canonicalPath)
	if err != nil {
		return nil, nil, err
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return nil, &model.Diagnostic{
			FilePath: canonicalPath,
			Kind:     coreerr.KindSkippedSize,
			Message:  fmt.Sprintf("file exceeds max size: %d > %d", info.Size(), maxFileSize),
		}, nil
	}

	lang := languageFor(canonicalPath)
	if lang == model.LangUnknown {
		return nil, nil, nil
	}

	content, err := os.ReadFile(canonicalPath)
	if err != nil {
		return nil, nil, err
	}

	return &model.SourceFile{
		Path:        canonicalPath,
		RelPath:     filepath.ToSlash(filepath.Base(relPath)),
		Language:    lang,
		ContentHash: contentHash(content),
		SizeBytes:   int64(len(content)),
		Content:     content,
	}, nil, nil
}

// canonicalize resolves symlinks to their real path so that a file visited
// under two different paths is recorded only once (spec.md §4.1 rule 1).
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Broken symlink or nonexistent path: surface the absolute path so
		// the caller's os.Stat still reports the real failure.
		return abs, nil
	}
	return real, nil
}

// languageFor infers a language from a file's extension first, falling
// back to its shebang line for extensionless scripts.
func languageFor(path string) model.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	if ext != "" {
		return model.LangUnknown
	}
	return languageFromShebang(path)
}

// languageFromShebang reads a file's first line and, if it is a shebang,
// maps the named interpreter to a language.
func languageFromShebang(path string) model.Language {
	f, err := os.Open(path)
	if err != nil {
		return model.LangUnknown
	}
	defer f.Close()

	reader := bufio.NewReader(io.LimitReader(f, 256))
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return model.LangUnknown
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "#!") {
		return model.LangUnknown
	}

	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return model.LangUnknown
	}
	interpreter := filepath.Base(fields[0])
	// `#!/usr/bin/env python3` style: the real interpreter is the second field.
	if interpreter == "env" && len(fields) > 1 {
		interpreter = filepath.Base(fields[1])
	}
	if lang, ok := shebangLanguages[interpreter]; ok {
		return lang
	}
	return model.LangUnknown
}

// contentHash computes a 128-bit (32 hex char) sha-256 prefix, matching
// SourceFile.ContentHash's documented width.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:16])
}
