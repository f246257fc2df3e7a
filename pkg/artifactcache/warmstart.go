// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package artifactcache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperledger/firefly-common/pkg/log"
)

// warmStart iterates the cache root, parses each params.json, reconstructs
// the key, and lazily registers the on-disk entry - skipping, with a
// warning, entries with missing or malformed params.json (spec.md §4.F).
// It never loads an artifact eagerly; GetArtifact still performs its own
// shared-lock disk read on first use of each entry.
func (c *Cache) warmStart(ctx context.Context) {
	if _, err := os.Stat(c.conf.Root); err != nil {
		return
	}
	log.L(ctx).Infof("Warm-starting artifact cache from %s", c.conf.Root)
	count := 0
	_ = filepath.WalkDir(c.conf.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != paramsFilename {
			return nil
		}
		b, readErr := os.ReadFile(path)
		if readErr != nil {
			log.L(ctx).Warnf("Skipping unreadable cache entry at '%s': %s", path, readErr)
			warmStartSkips.WithLabelValues().Inc()
			return nil
		}
		var pf paramsFile
		if jsonErr := json.Unmarshal(b, &pf); jsonErr != nil {
			log.L(ctx).Warnf("Skipping malformed params.json at '%s': %s", path, jsonErr)
			warmStartSkips.WithLabelValues().Inc()
			return nil
		}
		key := Key{LogicalName: pf.LogicalName, Fingerprint: pf.Fingerprint, Params: pf.Params}
		c.mux.Lock()
		c.registry[memoKey(key)] = key
		c.mux.Unlock()
		count++
		return nil
	})
	log.L(ctx).Infof("Warm-start registered %d cache entries", count)
}

// Entries returns every key currently known to this Cache (warm-started
// or generated this process), for introspection and testing.
func (c *Cache) Entries() []Key {
	c.mux.Lock()
	defer c.mux.Unlock()
	out := make([]Key, 0, len(c.registry))
	for _, k := range c.registry {
		out = append(out, k)
	}
	return out
}
