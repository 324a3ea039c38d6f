// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ManifestManager scans a directory tree into a Manifest and diffs
// manifests against each other for incremental rescans.
type ManifestManager struct {
	includes    []string
	excludes    []string
	maxFileSize int64
	retries     int
}

// ManagerOption configures a ManifestManager.
type ManagerOption func(*ManifestManager)

// WithIncludes overrides the default include glob patterns.
func WithIncludes(patterns ...string) ManagerOption {
	return func(m *ManifestManager) { m.includes = patterns }
}

// WithExcludes overrides the default exclude glob patterns.
func WithExcludes(patterns ...string) ManagerOption {
	return func(m *ManifestManager) { m.excludes = patterns }
}

// WithMaxFileSize bounds the size of any single file the manager will
// hash; files larger than this are recorded as scan errors instead.
func WithMaxFileSize(bytes int64) ManagerOption {
	return func(m *ManifestManager) { m.maxFileSize = bytes }
}

// WithHashRetries sets the number of atomic-hash retry attempts for files
// that appear to change mid-read.
func WithHashRetries(retries int) ManagerOption {
	return func(m *ManifestManager) { m.retries = retries }
}

// NewManifestManager returns a manager using DefaultIncludes/DefaultExcludes
// and DefaultMaxFileSize unless overridden by opts.
func NewManifestManager(opts ...ManagerOption) *ManifestManager {
	m := &ManifestManager{
		includes:    DefaultIncludes,
		excludes:    DefaultExcludes,
		maxFileSize: DefaultMaxFileSize,
		retries:     2,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// validatePath ensures that path (relative to root, or already absolute)
// resolves to a location inside root, rejecting "../" traversal.
func validatePath(root, path string) error {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	return nil
}

// Scan walks root and returns a Manifest of every included file's
// FileEntry. Files that fail to hash (including files over the size
// limit) are recorded in Manifest.Errors rather than aborting the scan.
// If ctx is cancelled mid-walk, Scan returns the partial manifest with
// Incomplete set rather than an error.
func (m *ManifestManager) Scan(ctx context.Context, root string) (*Manifest, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, ErrInvalidRoot
	}

	manifest := NewManifest(root)
	matcher := NewGlobMatcher(m.includes, m.excludes)
	hasher := NewSHA256Hasher(m.maxFileSize)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			manifest.Incomplete = true
			return filepath.SkipAll
		}
		if walkErr != nil {
			manifest.Errors = append(manifest.Errors, ScanError{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			for _, pattern := range m.excludes {
				if matchGlob(pattern, rel+"/") || matchGlob(pattern, rel) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !matcher.Match(rel) {
			return nil
		}

		entry, hashErr := hasher.HashFileAtomic(path, m.retries)
		if hashErr != nil {
			manifest.Errors = append(manifest.Errors, ScanError{Path: rel, Err: hashErr})
			return nil
		}
		entry.Path = rel
		manifest.Files[rel] = entry
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		return manifest, fmt.Errorf("manifest: walk %s: %w", root, walkErr)
	}

	return manifest, nil
}

// QuickCheck reports whether entry's file has changed on disk since it was
// recorded, without rehashing: size and mtime both matching the recorded
// FileEntry is treated as unchanged (false); any mismatch, or the file
// having been deleted, is reported as changed (true) so the caller falls
// back to a full rehash.
func (m *ManifestManager) QuickCheck(ctx context.Context, root string, entry FileEntry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validatePath(root, entry.Path); err != nil {
		return false, err
	}

	info, err := os.Stat(filepath.Join(root, entry.Path))
	if err != nil {
		return true, nil
	}
	if info.Size() != entry.Size {
		return true, nil
	}
	if info.ModTime().UnixNano() != entry.Mtime {
		return true, nil
	}
	return false, nil
}

// Diff compares an old and a new manifest and reports which root-relative
// paths were added, modified (hash differs) or deleted.
func (m *ManifestManager) Diff(old, new *Manifest) *Changes {
	changes := &Changes{}
	if old == nil {
		old = NewManifest("")
	}
	if new == nil {
		new = NewManifest("")
	}

	for path, newEntry := range new.Files {
		oldEntry, existed := old.Files[path]
		if !existed {
			changes.Added = append(changes.Added, path)
			continue
		}
		if oldEntry.Hash != newEntry.Hash {
			changes.Modified = append(changes.Modified, path)
		}
	}
	for path := range old.Files {
		if _, stillPresent := new.Files[path]; !stillPresent {
			changes.Deleted = append(changes.Deleted, path)
		}
	}
	return changes
}
