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

package jitabi

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/wire"
)

const sampleDoc = `{
	"version": "eosio::abi/1.1",
	"types": [],
	"structs": [{"name": "record", "fields": [{"name": "id", "type": "uint64"}]}],
	"variants": []
}`

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(context.Background(), Config{CacheRoot: t.TempDir(), DisableListener: true})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestModuleForABIFromRawBytes(t *testing.T) {
	ctx := context.Background()
	c := newTestContext(t)

	key, artifact, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "token_0", key.LogicalName)

	v := wire.MapValue(map[string]*wire.Value{"id": wire.IntValue(big.NewInt(9))})
	enc, err := artifact.Pack(ctx, "record", v)
	require.NoError(t, err)
	dec, err := artifact.Unpack(ctx, "record", enc)
	require.NoError(t, err)
	assert.Equal(t, int64(9), dec.Map["id"].Int.Int64())
}

func TestModuleForABIFromRawABIAndExistingView(t *testing.T) {
	ctx := context.Background()
	c := newTestContext(t)

	raw, err := abiview.ParseABI(ctx, []byte(sampleDoc))
	require.NoError(t, err)
	_, _, err = c.ModuleForABI(ctx, "a", raw)
	require.NoError(t, err)

	view, err := abiview.NewABIView(ctx, raw)
	require.NoError(t, err)
	_, _, err = c.ModuleForABI(ctx, "b", view)
	require.NoError(t, err)
}

func TestModuleForABIRejectsUnsupportedInput(t *testing.T) {
	ctx := context.Background()
	c := newTestContext(t)
	_, _, err := c.ModuleForABI(ctx, "bad", 42)
	require.Error(t, err)
}

func TestModuleForABIForceReloadBumpsVersion(t *testing.T) {
	ctx := context.Background()
	c := newTestContext(t)

	key1, _, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "token_0", key1.LogicalName)

	key2, _, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc), WithForceReload())
	require.NoError(t, err)
	assert.Equal(t, "token_1", key2.LogicalName)

	key3, _, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "token_1", key3.LogicalName)
}

func TestModuleForABISameInputsHitCacheOnSecondCall(t *testing.T) {
	ctx := context.Background()
	c := newTestContext(t)

	key1, _, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)
	key2, _, err := c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestModuleForABIReadOnlyContextCannotGenerate(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	c, err := NewContext(ctx, Config{CacheRoot: root, DisableListener: true})
	require.NoError(t, err)
	defer c.Close()
	_, _, err = c.ModuleForABI(ctx, "token", []byte(sampleDoc))
	require.NoError(t, err)

	ro, err := NewContext(ctx, Config{CacheRoot: root, ReadOnly: true, DisableListener: true})
	require.NoError(t, err)
	defer ro.Close()

	_, _, err = ro.ModuleForABI(ctx, "missing", []byte(sampleDoc))
	require.Error(t, err)
}
