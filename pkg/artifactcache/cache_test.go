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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/specializer"
)

func sampleRaw() *abiview.RawABI {
	return &abiview.RawABI{
		Structs: []abiview.StructDef{{Name: "record", Fields: []abiview.FieldDef{{Name: "id", TypeExpr: "uint64"}}}},
	}
}

func newTestCache(t *testing.T, readOnly bool) (*Cache, string) {
	t.Helper()
	root := t.TempDir()
	c, err := New(context.Background(), Config{Root: root, ReadOnly: readOnly, DisableListener: true})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, root
}

func testKey(t *testing.T, raw *abiview.RawABI, logicalName string) Key {
	t.Helper()
	view, err := abiview.NewABIView(context.Background(), raw)
	require.NoError(t, err)
	fp, err := Fingerprint(view, specializer.DefaultBuildParams())
	require.NoError(t, err)
	return Key{LogicalName: logicalName, Fingerprint: fp, Params: specializer.DefaultBuildParams()}
}

func TestGetArtifactBuildsThenHitsFromDisk(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, false)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")

	a1, err := c.GetArtifact(ctx, key, raw, false)
	require.NoError(t, err)
	require.NotNil(t, a1)

	// A fresh Cache instance pointed at the same root must warm-start and
	// load the same artifact from disk without regenerating it.
	c2, err := New(ctx, Config{Root: c.conf.Root, DisableListener: true})
	require.NoError(t, err)
	defer c2.Close()
	require.Len(t, c2.Entries(), 1)

	a2, err := c2.GetArtifact(ctx, key, raw, false)
	require.NoError(t, err)
	require.NotNil(t, a2)
}

func TestReadOnlyCacheMissSurfacesError(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, true)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")

	_, err := c.GetArtifact(ctx, key, raw, false)
	require.Error(t, err)
}

func TestReadOnlyCacheReadsExistingArtifact(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writer, err := New(ctx, Config{Root: root, DisableListener: true})
	require.NoError(t, err)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")
	_, err = writer.GetArtifact(ctx, key, raw, false)
	require.NoError(t, err)
	writer.Close()

	reader, err := New(ctx, Config{Root: root, ReadOnly: true, DisableListener: true})
	require.NoError(t, err)
	defer reader.Close()

	artifact, err := reader.GetArtifact(ctx, key, raw, false)
	require.NoError(t, err)
	require.NotNil(t, artifact)
}

func TestConcurrentBuildSameFingerprintProducesOneDirectory(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, false)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.GetArtifact(ctx, key, raw, false)
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(c.ModuleDir(key))
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names[paramsFilename])
	assert.True(t, names[artifactFilename])
}

func TestForceReloadNewLogicalNameGetsOwnDirAndOldDirIsUntouched(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, false)
	raw := sampleRaw()
	key1 := testKey(t, raw, "mod_0")
	_, err := c.GetArtifact(ctx, key1, raw, false)
	require.NoError(t, err)

	key2 := testKey(t, raw, "mod_1")
	_, err = c.GetArtifact(ctx, key2, raw, true)
	require.NoError(t, err)

	assert.NotEqual(t, c.ModuleDir(key1), c.ModuleDir(key2))
	_, err = os.Stat(filepath.Join(c.ModuleDir(key1), paramsFilename))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.ModuleDir(key2), paramsFilename))
	assert.NoError(t, err)
}

func TestWarmStartSkipsMalformedParams(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "broken_0", "deadbeef")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, paramsFilename), []byte("not json"), 0o644))

	c, err := New(ctx, Config{Root: root, DisableListener: true})
	require.NoError(t, err)
	defer c.Close()
	assert.Empty(t, c.Entries())
}

func TestGeneratePublishesParamsAndSiblingLockFile(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, false)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")

	_, err := c.GetArtifact(ctx, key, raw, false)
	require.NoError(t, err)

	dir := c.ModuleDir(key)
	b, err := os.ReadFile(filepath.Join(dir, paramsFilename))
	require.NoError(t, err)
	var pf paramsFile
	require.NoError(t, json.Unmarshal(b, &pf))
	assert.Equal(t, key.LogicalName, pf.LogicalName)
	assert.Equal(t, key.Fingerprint, pf.Fingerprint)

	// The lock file is a sibling of the published directory, not nested
	// inside it, so the directory itself never pre-exists the rename.
	_, err = os.Stat(c.lockPath(key))
	assert.NoError(t, err)
}

func TestSetSourceFailsReadOnly(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, true)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")
	err := c.SetSource(ctx, key, "source text")
	require.Error(t, err)
}

func TestGetSourceAbsentByDefault(t *testing.T) {
	c, _ := newTestCache(t, false)
	raw := sampleRaw()
	key := testKey(t, raw, "mod")
	_, ok := c.GetSource(key)
	assert.False(t, ok)
}
