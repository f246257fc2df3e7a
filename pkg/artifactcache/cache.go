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
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/karlseguin/ccache"
	"golang.org/x/sync/singleflight"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/specializer"
)

const (
	paramsFilename   = "params.json"
	artifactFilename = "artifact.json"
)

// Config configures a Cache. Unlike the teacher's fswallet.Config, this
// is a plain struct read directly by pkg/jitabi rather than bound
// through firefly-common/pkg/config - this module has no HTTP server
// surface to compose that config section hierarchy against (documented
// in DESIGN.md).
type Config struct {
	Root            string
	ReadOnly        bool
	MemoMaxSize     int64
	MemoTTL         time.Duration
	DisableListener bool
}

// Cache is the filesystem-backed artifact store of spec.md §4.F, with
// two layers of memoization on top of the single shared mutable
// resource (the on-disk cache root): an in-memory ccache keyed by
// logical_name/fingerprint and a singleflight group collapsing concurrent
// in-process generations. Unless disabled, an fsnotify watcher on the
// root logs filesystem events; lookups and lock waits do not consult it.
type Cache struct {
	conf    Config
	memo    *ccache.Cache
	sf      singleflight.Group
	watcher *fsWatcher

	mux      sync.Mutex
	registry map[string]Key // warm-started + generated entries, for introspection
}

// New constructs a Cache rooted at conf.Root, performs the warm-start
// directory walk (spec.md §4.F), and - unless disabled - starts an
// fsnotify listener on the root.
func New(ctx context.Context, conf Config) (*Cache, error) {
	registerMetrics()
	if conf.Root == "" {
		conf.Root = DefaultCacheRoot()
	}
	if !conf.ReadOnly {
		if err := os.MkdirAll(conf.Root, 0o755); err != nil {
			return nil, i18n.NewError(ctx, codecmsgs.MsgCacheGenFailed, conf.Root, err)
		}
	}
	c := &Cache{
		conf:     conf,
		memo:     ccache.New(ccache.Configure().MaxSize(maxOf(conf.MemoMaxSize, 1000))),
		registry: map[string]Key{},
	}
	c.warmStart(ctx)
	if !conf.DisableListener {
		w, err := startWatcher(ctx, conf.Root)
		if err != nil {
			log.L(ctx).Warnf("Artifact cache filesystem listener disabled: %s", err)
		} else {
			c.watcher = w
		}
	}
	return c, nil
}

func maxOf(v, floor int64) int64 {
	if v <= 0 {
		return floor
	}
	return v
}

// Close stops the filesystem listener, if one is running.
func (c *Cache) Close() {
	if c.watcher != nil {
		c.watcher.Close()
	}
}

// ModuleDir returns the directory a given key's artifact lives (or would
// live) under.
func (c *Cache) ModuleDir(key Key) string {
	return filepath.Join(c.conf.Root, key.LogicalName, key.Fingerprint)
}

// lockPath returns the path of key's lock file - a sibling of its
// fingerprint directory, not a file nested inside it. See dirLock's
// doc comment for why.
func (c *Cache) lockPath(key Key) string {
	return filepath.Join(c.conf.Root, key.LogicalName, key.Fingerprint+".lock")
}

// DirLock acquires a shared or exclusive lock on key's lock file,
// creating its parent directory first if needed.
func (c *Cache) DirLock(ctx context.Context, key Key, shared bool) (*dirLock, error) {
	if err := os.MkdirAll(filepath.Dir(c.lockPath(key)), 0o755); err != nil {
		return nil, err
	}
	return lockDir(ctx, c.lockPath(key), shared)
}

type paramsFile struct {
	LogicalName string                  `json:"logical_name"`
	Fingerprint string                  `json:"fingerprint"`
	Params      specializer.BuildParams `json:"params"`
}

// GetSource returns the persisted generator source text for key, if an
// AOT backend previously wrote one. The interpretive backend wired into
// this module never calls SetSource, so this will normally report absent.
func (c *Cache) GetSource(key Key) (string, bool) {
	b, err := os.ReadFile(filepath.Join(c.ModuleDir(key), key.LogicalName+".source"))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// SetSource persists generator source text for key. Fails in read-only mode.
func (c *Cache) SetSource(ctx context.Context, key Key, text string) error {
	if c.conf.ReadOnly {
		return i18n.NewError(ctx, codecmsgs.MsgCacheReadonly, key.LogicalName)
	}
	dir := c.ModuleDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, key.LogicalName+".source"), []byte(text), 0o644)
}

// GetArtifact returns the specializer.Artifact for key, building raw
// into an ABIView and generating a fresh artifact on a fingerprint miss
// (requires write mode). forceReload bypasses the in-memory memo table
// only - the caller is expected to have already bumped the logical
// name's version (spec.md §4.F "Logical-name versioning"). The
// fingerprint does not depend on the logical name; the new name gives a
// different memo key and module directory, so a true miss occurs.
func (c *Cache) GetArtifact(ctx context.Context, key Key, raw *abiview.RawABI, forceReload bool) (*specializer.Artifact, error) {
	mk := memoKey(key)

	if !forceReload {
		if item := c.memo.Get(mk); item != nil {
			item.Extend(c.conf.MemoTTL)
			cacheHits.WithLabelValues(key.LogicalName).Inc()
			return item.Value().(*specializer.Artifact), nil
		}
	}

	v, err, _ := c.sf.Do(mk, func() (interface{}, error) {
		return c.loadOrBuild(ctx, key, raw)
	})
	if err != nil {
		return nil, err
	}
	artifact := v.(*specializer.Artifact)
	c.memo.Set(mk, artifact, c.conf.MemoTTL)
	return artifact, nil
}

func (c *Cache) loadOrBuild(ctx context.Context, key Key, raw *abiview.RawABI) (*specializer.Artifact, error) {
	dir := c.ModuleDir(key)

	if existing, err := c.tryLoad(ctx, key, dir); err == nil && existing != nil {
		cacheHits.WithLabelValues(key.LogicalName).Inc()
		return existing, nil
	}

	if c.conf.ReadOnly {
		return nil, i18n.NewError(ctx, codecmsgs.MsgCacheMiss, key.LogicalName)
	}

	cacheMisses.WithLabelValues(key.LogicalName).Inc()
	start := time.Now()
	artifact, err := c.generate(ctx, key, dir, raw)
	generationDuration.WithLabelValues(key.LogicalName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	c.mux.Lock()
	c.registry[memoKey(key)] = key
	c.mux.Unlock()

	return artifact, nil
}

// tryLoad attempts a shared-lock disk read of an already-generated
// artifact (spec.md §4.F "On first load per process, reads from disk
// under a shared lock"). Returns (nil, nil) on a clean miss.
func (c *Cache) tryLoad(ctx context.Context, key Key, dir string) (*specializer.Artifact, error) {
	if _, err := os.Stat(filepath.Join(dir, paramsFilename)); err != nil {
		return nil, nil
	}
	if _, err := os.Stat(c.lockPath(key)); err != nil {
		return nil, nil
	}
	lock, err := lockDir(ctx, c.lockPath(key), true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	snapBytes, err := os.ReadFile(filepath.Join(dir, artifactFilename))
	if err != nil {
		return nil, nil
	}
	var snap rawABISnapshot
	if err := json.Unmarshal(snapBytes, &snap); err != nil {
		log.L(ctx).Warnf("Ignoring corrupt artifact snapshot at '%s': %s", dir, err)
		return nil, nil
	}
	view, err := abiview.NewABIView(ctx, snap.toRawABI())
	if err != nil {
		return nil, nil
	}
	return specializer.Build(ctx, view, key.Params)
}

// generate builds a fresh artifact under an exclusive lock, writing it
// into a uuid-named temp sibling directory and renaming it into place on
// success, so a concurrent reader never observes a partially written
// fingerprint directory (spec.md §5's recommended atomic-publish pattern).
// dir itself is never created ahead of the rename - the lock file lives
// at the stable sibling path c.lockPath(key) instead, so the directory
// the rename targets stays absent until the whole artifact is ready.
func (c *Cache) generate(ctx context.Context, key Key, dir string, raw *abiview.RawABI) (*specializer.Artifact, error) {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, err
	}

	lock, err := lockDir(ctx, c.lockPath(key), false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	// Another writer may have finished while we waited on the lock.
	if existing, err := c.tryLoadLocked(ctx, key, dir); err == nil && existing != nil {
		return existing, nil
	}

	view, err := abiview.NewABIView(ctx, raw)
	if err != nil {
		return nil, err
	}
	artifact, err := specializer.Build(ctx, view, key.Params)
	if err != nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgCacheGenFailed, key.LogicalName, err)
	}

	tmp := filepath.Join(parent, "."+uuid.NewString()+".tmp")
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp) // no-op once renamed

	snapBytes, err := json.Marshal(snapshotFromRawABI(raw))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(tmp, artifactFilename), snapBytes, 0o644); err != nil {
		return nil, err
	}

	// params.json is written last: its presence is the completeness
	// marker tryLoad checks for before trusting a directory's contents.
	pf := paramsFile{LogicalName: key.LogicalName, Fingerprint: key.Fingerprint, Params: key.Params}
	pfBytes, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(tmp, paramsFilename), pfBytes, 0o644); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp, dir); err != nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgCacheGenFailed, key.LogicalName, err)
	}
	return artifact, nil
}

// tryLoadLocked is tryLoad's body without its own lock acquisition, used
// once generate() already holds the exclusive lock on key's lock file.
func (c *Cache) tryLoadLocked(ctx context.Context, key Key, dir string) (*specializer.Artifact, error) {
	if _, err := os.Stat(filepath.Join(dir, paramsFilename)); err != nil {
		return nil, nil
	}
	snapBytes, err := os.ReadFile(filepath.Join(dir, artifactFilename))
	if err != nil {
		return nil, nil
	}
	var snap rawABISnapshot
	if err := json.Unmarshal(snapBytes, &snap); err != nil {
		return nil, nil
	}
	view, err := abiview.NewABIView(ctx, snap.toRawABI())
	if err != nil {
		return nil, nil
	}
	return specializer.Build(ctx, view, key.Params)
}

// DefaultCacheRoot returns ~/.jitabi (spec.md §6's cache-root override
// default), falling back to a relative path if the home directory can't
// be determined.
func DefaultCacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jitabi"
	}
	return filepath.Join(home, ".jitabi")
}
