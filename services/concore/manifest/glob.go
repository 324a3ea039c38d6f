// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package manifest discovers and fingerprints the set of source files an
// analysis run should consider (spec.md §4.1): glob include/exclude
// filtering, SHA-256 content hashing, and manifest diffing for incremental
// scans.
package manifest

import (
	"path/filepath"
	"strings"
)

// DefaultIncludes covers common extensions of the eight supported languages,
// plus "**/*.css"; discovery drops files whose language it cannot infer.
var DefaultIncludes = []string{
	"**/*.go", "**/*.py", "**/*.js", "**/*.jsx", "**/*.ts", "**/*.tsx",
	"**/*.c", "**/*.h", "**/*.cc", "**/*.cpp", "**/*.cxx", "**/*.hpp",
	"**/*.java", "**/*.rs", "**/*.css",
}

// DefaultExcludes filters out dependency directories, VCS metadata and
// generated/test artifacts that should never be analyzed by default.
var DefaultExcludes = []string{
	"vendor/**", "node_modules/**", ".git/**", "**/dist/**", "**/build/**",
	"**/*_test.go", "**/*.min.js", "**/testdata/**",
}

// GlobMatcher decides whether a relative path should be included, applying
// exclude patterns after includes so that excludes always win.
type GlobMatcher struct {
	includes []string
	excludes []string
}

// NewGlobMatcher builds a matcher from include/exclude pattern lists. A nil
// or empty includes list matches every path (subject to excludes).
func NewGlobMatcher(includes, excludes []string) *GlobMatcher {
	return &GlobMatcher{includes: includes, excludes: excludes}
}

// Match reports whether path satisfies the matcher: at least one include
// pattern matches (or there are no include patterns), and no exclude
// pattern matches.
func (m *GlobMatcher) Match(path string) bool {
	path = filepath.ToSlash(path)

	for _, pattern := range m.excludes {
		if matchGlob(pattern, path) {
			return false
		}
	}

	if len(m.includes) == 0 {
		return true
	}
	for _, pattern := range m.includes {
		if matchGlob(pattern, path) {
			return true
		}
	}
	return false
}

// matchGlob matches path against a glob pattern supporting "**" (match zero
// or more path segments) in addition to filepath.Match's single-segment
// wildcards. Patterns and paths are always forward-slash separated.
func matchGlob(pattern, path string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	if !strings.Contains(pattern, "**") {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		// A plain pattern with no slash still matches the file's base name
		// at any depth, mirroring how .gitignore-style patterns behave.
		if !strings.Contains(pattern, "/") {
			if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
				return true
			}
		}
		return false
	}

	return matchDoubleStarSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

// matchDoubleStarSegments matches segment-by-segment, letting a "**"
// segment consume zero or more path segments.
func matchDoubleStarSegments(patternSegs, pathSegs []string) bool {
	if len(patternSegs) == 0 {
		return len(pathSegs) == 0
	}
	head := patternSegs[0]
	if head == "**" {
		if len(patternSegs) == 1 {
			return true
		}
		for i := 0; i <= len(pathSegs); i++ {
			if matchDoubleStarSegments(patternSegs[1:], pathSegs[i:]) {
				return true
			}
		}
		return false
	}
	if len(pathSegs) == 0 {
		return false
	}
	if ok, _ := filepath.Match(head, pathSegs[0]); !ok {
		return false
	}
	return matchDoubleStarSegments(patternSegs[1:], pathSegs[1:])
}
