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

package specializer

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/wire"
)

func TestBuildExposesNamedPackUnpack(t *testing.T) {
	ctx := context.Background()
	view, err := abiview.NewABIView(ctx, &abiview.RawABI{
		Structs: []abiview.StructDef{{Name: "record", Fields: []abiview.FieldDef{
			{Name: "id", TypeExpr: "uint64"},
		}}},
	})
	require.NoError(t, err)

	artifact, err := Build(ctx, view, DefaultBuildParams())
	require.NoError(t, err)

	v := wire.MapValue(map[string]*wire.Value{"id": wire.IntValue(big.NewInt(42))})
	enc, err := artifact.Pack(ctx, "record", v)
	require.NoError(t, err)

	dec, err := artifact.Unpack(ctx, "record", enc)
	require.NoError(t, err)
	assert.Equal(t, int64(42), dec.Map["id"].Int.Int64())
}

func TestBuildFallsBackToBuiltinNames(t *testing.T) {
	ctx := context.Background()
	view, err := abiview.NewABIView(ctx, &abiview.RawABI{})
	require.NoError(t, err)
	artifact, err := Build(ctx, view, DefaultBuildParams())
	require.NoError(t, err)

	enc, err := artifact.Pack(ctx, "uint8", wire.IntValue(big.NewInt(7)))
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, enc)
}

func TestPackUnpackDisabledByParams(t *testing.T) {
	ctx := context.Background()
	view, err := abiview.NewABIView(ctx, &abiview.RawABI{})
	require.NoError(t, err)

	packOnly := BuildParams{WithPack: true, WithUnpack: false}
	artifact, err := Build(ctx, view, packOnly)
	require.NoError(t, err)

	_, err = artifact.Unpack(ctx, "uint8", []byte{7})
	require.Error(t, err)
}

func TestUnknownFieldTypeRejectedBeforeBuild(t *testing.T) {
	ctx := context.Background()
	view, err := abiview.NewABIView(ctx, &abiview.RawABI{
		Structs: []abiview.StructDef{{Name: "bad", Fields: []abiview.FieldDef{{Name: "a", TypeExpr: "nope"}}}},
	})
	require.Error(t, err)
	assert.Nil(t, view)
}

func TestDefaultBuildParams(t *testing.T) {
	p := DefaultBuildParams()
	assert.True(t, p.WithPack)
	assert.True(t, p.WithUnpack)
	assert.False(t, p.Debug)
}
