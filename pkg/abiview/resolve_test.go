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

package abiview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStdType(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{})
	require.NoError(t, err)
	rt, err := Resolve(ctx, v, "uint64")
	require.NoError(t, err)
	assert.Equal(t, KindStd, rt.Kind)
	assert.Empty(t, rt.Modifiers)
}

func TestResolveRawLiteral(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{})
	require.NoError(t, err)
	rt, err := Resolve(ctx, v, "raw(12)")
	require.NoError(t, err)
	assert.Equal(t, KindRaw, rt.Kind)
	assert.Equal(t, []int{12}, rt.Args)
}

func TestResolveModifierOrderOuterToInner(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{})
	require.NoError(t, err)
	rt, err := Resolve(ctx, v, "uint8[]?")
	require.NoError(t, err)
	require.Len(t, rt.Modifiers, 2)
	assert.Equal(t, ModOptional, rt.Modifiers[0])
	assert.Equal(t, ModArray, rt.Modifiers[1])
}

func TestResolveAliasChainAppendsModifiers(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{
		Aliases: []AliasDef{{NewTypeName: "ids_t", Target: "uint64[]"}},
	})
	require.NoError(t, err)
	rt, err := Resolve(ctx, v, "ids_t?")
	require.NoError(t, err)
	require.Len(t, rt.Modifiers, 2)
	assert.Equal(t, ModOptional, rt.Modifiers[0])
	assert.Equal(t, ModArray, rt.Modifiers[1])
	assert.Equal(t, "uint64", rt.BaseName)
	assert.True(t, rt.IsAlias)
}

func TestResolveIsPureAndIdempotent(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{
		Aliases: []AliasDef{{NewTypeName: "ids_t", Target: "uint64[]"}},
	})
	require.NoError(t, err)
	rt1, err := Resolve(ctx, v, "ids_t?")
	require.NoError(t, err)
	rt2, err := Resolve(ctx, v, "ids_t?")
	require.NoError(t, err)
	assert.Equal(t, rt1, rt2)
}

func TestResolveUnknownTypeIncludesValidNames(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{})
	require.NoError(t, err)
	_, err = Resolve(ctx, v, "not_a_type")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid names")
}

func TestResolveStructAndVariantKinds(t *testing.T) {
	ctx := context.Background()
	v, err := NewABIView(ctx, &RawABI{
		Structs:  []StructDef{{Name: "s", Fields: []FieldDef{{Name: "a", TypeExpr: "bool"}}}},
		Variants: []VariantDef{{Name: "vr", Members: []string{"bool", "uint8"}}},
	})
	require.NoError(t, err)

	rtS, err := Resolve(ctx, v, "s")
	require.NoError(t, err)
	assert.Equal(t, KindStruct, rtS.Kind)

	rtV, err := Resolve(ctx, v, "vr")
	require.NoError(t, err)
	assert.Equal(t, KindVariant, rtV.Kind)
}
