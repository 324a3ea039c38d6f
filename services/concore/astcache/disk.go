// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package astcache

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleutian-oss/concore/services/concore/ast"
)

// getDisk looks up key in the badger-backed persistent tier, returning ok
// false on any miss or decode failure (a corrupt disk entry is treated as
// absent rather than a fatal error).
func (c *Cache) getDisk(key string) (*ast.ParseResult, bool) {
	var result ast.ParseResult
	err := c.disk.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, false
	}
	return &result, true
}

// putDisk persists result under key. Write failures are swallowed: the
// disk tier is a best-effort accelerator, never a source of truth the
// in-memory tier depends on.
func (c *Cache) putDisk(key string, result *ast.ParseResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.disk.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}
