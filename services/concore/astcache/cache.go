// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package astcache memoizes ast.ParseResult by content hash (spec.md §4.2):
// a ristretto in-memory cache with a byte-cost ceiling, singleflight
// coalescing of concurrent misses for the same key, and an optional
// badger-backed persistent tier.
package astcache

import (
	"context"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/aleutian-oss/concore/services/concore/ast"
	"github.com/aleutian-oss/concore/services/concore/coreerr"
	"github.com/aleutian-oss/concore/services/concore/model"
)

// DefaultMaxEntries is the cache's default expected entry count (spec.md
// §4.2). It sizes ristretto's admission counters (ten per entry); the number
// of cached entries is not capped by it, since eviction is driven only by
// the byte-cost ceiling.
const DefaultMaxEntries = 10_000

// DefaultMaxCostBytes bounds the ristretto cache's approximate memory
// footprint when no explicit byte-cost ceiling is configured.
const DefaultMaxCostBytes = 256 * 1024 * 1024

// Cache memoizes parse results by SourceFile.ContentHash. A cache hit never
// re-parses; invalidation is purely by hash mismatch, never by timestamp.
type Cache struct {
	registry *ast.ParserRegistry
	mem      *ristretto.Cache[string, *ast.ParseResult]
	group    singleflight.Group
	disk     *badger.DB

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats returns the cumulative hit and miss counts this Cache has served,
// for Report.metrics (spec.md §3's cache_hit_ratio); the otel counters in
// metrics.go expose the same numbers to an external collector but aren't
// readable in-process.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	maxEntries   int64
	maxCostBytes int64
	diskPath     string
}

// WithMaxEntries overrides DefaultMaxEntries.
func WithMaxEntries(n int64) Option {
	return func(c *config) { c.maxEntries = n }
}

// WithMaxCostBytes overrides DefaultMaxCostBytes.
func WithMaxCostBytes(n int64) Option {
	return func(c *config) { c.maxCostBytes = n }
}

// WithDiskTier enables a badger-backed persistent tier rooted at dir, used
// as a second-level cache behind the in-memory ristretto tier (spec.md §6's
// on-disk cache directory).
func WithDiskTier(dir string) Option {
	return func(c *config) { c.diskPath = dir }
}

// New builds a Cache backed by registry for cache misses.
func New(registry *ast.ParserRegistry, opts ...Option) (*Cache, error) {
	cfg := config{maxEntries: DefaultMaxEntries, maxCostBytes: DefaultMaxCostBytes}
	for _, opt := range opts {
		opt(&cfg)
	}

	mem, err := ristretto.NewCache(&ristretto.Config[string, *ast.ParseResult]{
		NumCounters: cfg.maxEntries * 10,
		MaxCost:     cfg.maxCostBytes,
		BufferItems: 64,
		OnEvict: func(item *ristretto.Item[*ast.ParseResult]) {
			recordEviction()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("astcache: new ristretto cache: %w", err)
	}

	c := &Cache{registry: registry, mem: mem}

	if cfg.diskPath != "" {
		opts := badger.DefaultOptions(cfg.diskPath).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("astcache: open disk tier: %w", err)
		}
		c.disk = db
	}

	return c, nil
}

// Close releases the disk tier, if one is configured.
func (c *Cache) Close() error {
	c.mem.Close()
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

// Get returns the parse result for file, parsing it on a cache miss.
// Concurrent Get calls for the same content hash coalesce into a single
// parse (spec.md §4.2's concurrency contract); the result is then shared
// with every waiter. Parse failures surface as coreerr.KindParseError.
func (c *Cache) Get(ctx context.Context, file model.SourceFile) (*ast.ParseResult, error) {
	ctx, span := startCacheSpan(ctx, "Get", file.Path)
	defer span.End()

	key := cacheKey(file)

	if result, ok := c.mem.Get(key); ok {
		c.hits.Add(1)
		recordHit()
		setCacheSpanResult(span, true)
		return result, nil
	}

	if c.disk != nil {
		if result, ok := c.getDisk(key); ok {
			c.hits.Add(1)
			recordHit()
			c.mem.SetWithTTL(key, result, estimateCost(result), 0)
			setCacheSpanResult(span, true)
			return result, nil
		}
	}

	c.misses.Add(1)
	recordMiss()
	setCacheSpanResult(span, false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.parse(ctx, file)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ast.ParseResult), nil
}

func (c *Cache) parse(ctx context.Context, file model.SourceFile) (*ast.ParseResult, error) {
	parser, ok := c.registry.GetByLanguage(string(file.Language))
	if !ok {
		parser, ok = c.registry.GetByExtension(extOf(file.Path))
	}
	if !ok {
		return nil, coreerr.NewFileError(coreerr.KindParseError, file.Path, "no parser registered for language", nil)
	}

	result, err := parser.Parse(ctx, file.Content, file.Path)
	if err != nil {
		return nil, coreerr.NewFileError(coreerr.KindParseError, file.Path, "parse failed", err)
	}

	key := cacheKey(file)
	c.mem.SetWithTTL(key, result, estimateCost(result), 0)
	if c.disk != nil {
		c.putDisk(key, result)
	}
	return result, nil
}

// Invalidate drops any cached entry for file's current content hash,
// forcing the next Get to reparse.
func (c *Cache) Invalidate(file model.SourceFile) {
	key := cacheKey(file)
	c.mem.Del(key)
	if c.disk != nil {
		_ = c.disk.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
	}
}

func cacheKey(file model.SourceFile) string {
	return file.ContentHash
}

// estimateCost approximates a ParseResult's memory footprint from the
// symbol count it reports, since ristretto's cost model needs a cheap
// proxy rather than an exact byte count.
func estimateCost(result *ast.ParseResult) int64 {
	if result == nil {
		return 1
	}
	return int64(64 + result.SymbolCount()*128)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
