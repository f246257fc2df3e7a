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

package wire

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrepublic/jitabi-go/pkg/abiview"
)

func mustView(t *testing.T, raw *abiview.RawABI) *abiview.ABIView {
	t.Helper()
	v, err := abiview.NewABIView(context.Background(), raw)
	require.NoError(t, err)
	return v
}

// roundTrip packs name/value then unpacks the result, asserting the
// unpacked value encodes back to the identical bytes (unpacking then
// re-packing is identity on wire bytes).
func roundTrip(t *testing.T, view *abiview.ABIView, name string, v *Value) []byte {
	t.Helper()
	ctx := context.Background()
	enc, err := PackNamed(ctx, view, name, v)
	require.NoError(t, err)
	dec, err := UnpackNamed(ctx, view, name, enc)
	require.NoError(t, err)
	reenc, err := PackNamed(ctx, view, name, dec)
	require.NoError(t, err)
	assert.Equal(t, enc, reenc)
	return enc
}

func TestScalarHexFixtures(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()

	cases := []struct {
		name string
		v    *Value
		hex  string
	}{
		{"bool", BoolValue(true), "01"},
		{"bool", BoolValue(false), "00"},
		{"uint8", IntValue(big.NewInt(255)), "ff"},
		{"uint16", IntValue(big.NewInt(1)), "0100"},
		{"int32", IntValue(big.NewInt(-1)), "ffffffff"},
		{"varuint32", IntValue(big.NewInt(300)), "ac02"},
		{"varint32", IntValue(big.NewInt(-1)), "01"},
		{"varint32", IntValue(big.NewInt(1)), "02"},
		{"string", StringValue("abc"), "03616263"},
		{"bytes", BytesValue([]byte{0xde, 0xad}), "02dead"},
	}
	for _, c := range cases {
		enc, err := PackNamed(ctx, view, c.name, c.v)
		require.NoError(t, err)
		assert.Equal(t, c.hex, hex.EncodeToString(enc), "pack %s", c.name)
		roundTrip(t, view, c.name, c.v)
	}
}

func TestVarintMultiByte(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()

	// 128 needs two LEB128 bytes: 0x80, 0x01
	enc, err := PackNamed(ctx, view, "varuint32", IntValue(big.NewInt(128)))
	require.NoError(t, err)
	assert.Equal(t, "8001", hex.EncodeToString(enc))

	dec, err := UnpackNamed(ctx, view, "varuint32", enc)
	require.NoError(t, err)
	assert.Equal(t, int64(128), dec.Int.Int64())
}

func TestArrayAndOptional(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()

	arr := ArrayValue([]*Value{IntValue(big.NewInt(1)), IntValue(big.NewInt(2)), IntValue(big.NewInt(3))})
	enc := roundTrip(t, view, "uint8[]", arr)
	assert.Equal(t, "03010203", hex.EncodeToString(enc))

	present := roundTrip(t, view, "uint8?", IntValue(big.NewInt(9)))
	assert.Equal(t, "0109", hex.EncodeToString(present))

	absent := roundTrip(t, view, "uint8?", Absent())
	assert.Equal(t, "00", hex.EncodeToString(absent))
}

func TestStructWithBaseAndExtension(t *testing.T) {
	raw := &abiview.RawABI{
		Structs: []abiview.StructDef{
			{Name: "base_t", Fields: []abiview.FieldDef{{Name: "a", TypeExpr: "uint8"}}},
			{Name: "derived_t", Base: "base_t", Fields: []abiview.FieldDef{
				{Name: "b", TypeExpr: "uint8"},
				{Name: "c", TypeExpr: "uint8$"},
			}},
		},
	}
	view := mustView(t, raw)
	ctx := context.Background()

	full := MapValue(map[string]*Value{
		"a": IntValue(big.NewInt(1)),
		"b": IntValue(big.NewInt(2)),
		"c": IntValue(big.NewInt(3)),
	})
	enc, err := PackNamed(ctx, view, "derived_t", full)
	require.NoError(t, err)
	assert.Equal(t, "010203", hex.EncodeToString(enc))

	dec, err := UnpackNamed(ctx, view, "derived_t", enc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dec.Map["a"].Int.Int64())
	assert.Equal(t, int64(3), dec.Map["c"].Int.Int64())

	// Binary extension: a buffer that ends before field c must decode c
	// as absent rather than underflowing (spec.md §4.D I3 decode side).
	truncated := enc[:2]
	dec2, err := UnpackNamed(ctx, view, "derived_t", truncated)
	require.NoError(t, err)
	assert.True(t, dec2.Map["c"].IsAbsent())

	// Pack side: an absent trailing extension field truncates the
	// encoding rather than writing a marker byte.
	withoutC := MapValue(map[string]*Value{
		"a": IntValue(big.NewInt(1)),
		"b": IntValue(big.NewInt(2)),
	})
	encShort, err := PackNamed(ctx, view, "derived_t", withoutC)
	require.NoError(t, err)
	assert.Equal(t, "0102", hex.EncodeToString(encShort))
}

func TestVariantTagAndScalarInference(t *testing.T) {
	raw := &abiview.RawABI{
		Variants: []abiview.VariantDef{
			{Name: "int_or_string", Members: []string{"uint8", "string"}},
		},
	}
	view := mustView(t, raw)
	ctx := context.Background()

	enc, err := PackNamed(ctx, view, "int_or_string", IntValue(big.NewInt(7)))
	require.NoError(t, err)
	assert.Equal(t, "0007", hex.EncodeToString(enc))

	dec, err := UnpackNamed(ctx, view, "int_or_string", enc)
	require.NoError(t, err)
	// A scalar alternative decodes to the bare scalar; only mapping
	// payloads carry a "type" entry.
	assert.Equal(t, KindInt, dec.Kind)
	assert.Equal(t, int64(7), dec.Int.Int64())

	encStr, err := PackNamed(ctx, view, "int_or_string", StringValue("hi"))
	require.NoError(t, err)
	assert.Equal(t, "01026869", hex.EncodeToString(encStr))
}

func TestVariantExplicitTypeWins(t *testing.T) {
	raw := &abiview.RawABI{
		Variants: []abiview.VariantDef{
			{Name: "two_uints", Members: []string{"uint8", "uint16"}},
		},
	}
	view := mustView(t, raw)
	ctx := context.Background()

	explicit := MapValue(map[string]*Value{
		"type":  StringValue("uint16"),
		"value": IntValue(big.NewInt(5)),
	})
	enc, err := PackNamed(ctx, view, "two_uints", explicit)
	require.NoError(t, err)
	assert.Equal(t, "010500", hex.EncodeToString(enc))
}

func TestDecodeTrailingBytesRejected(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()
	_, err := UnpackNamed(ctx, view, "uint8", []byte{0x01, 0x02})
	require.Error(t, err)
}

func TestEncodeRangeRejected(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()
	_, err := PackNamed(ctx, view, "uint8", IntValue(big.NewInt(256)))
	require.Error(t, err)
}

func TestVarintEncodeRangeRejected(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()

	// 2^33 passes IsUint64() but overflows a 32-bit varuint32 - must be
	// rejected rather than silently truncated.
	huge := new(big.Int).Lsh(big.NewInt(1), 33)
	_, err := PackNamed(ctx, view, "varuint32", IntValue(huge))
	require.Error(t, err)

	// 2^31 is a valid uint64 and a valid int64, but overflows signed
	// 32-bit range.
	tooBig := new(big.Int).Lsh(big.NewInt(1), 31)
	_, err = PackNamed(ctx, view, "varint32", IntValue(tooBig))
	require.Error(t, err)

	_, err = PackNamed(ctx, view, "varint32", IntValue(big.NewInt(-1)))
	require.NoError(t, err)
}

func TestEncodeInvalidUTF8Rejected(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()
	_, err := PackNamed(ctx, view, "string", StringValue(string([]byte{0xff, 0xfe})))
	require.Error(t, err)
}

func TestRawFixedWidth(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()
	enc, err := PackNamed(ctx, view, "sha256", BytesValue(make([]byte, 32)))
	require.NoError(t, err)
	assert.Len(t, enc, 32)

	_, err = PackNamed(ctx, view, "sha256", BytesValue(make([]byte, 31)))
	require.Error(t, err)
}

func TestWideIntTwosComplement(t *testing.T) {
	view := mustView(t, &abiview.RawABI{})
	ctx := context.Background()
	neg := big.NewInt(-1)
	roundTrip(t, view, "int128", IntValue(neg))

	enc, err := PackNamed(ctx, view, "int128", IntValue(neg))
	require.NoError(t, err)
	for _, b := range enc {
		assert.Equal(t, byte(0xff), b)
	}
}
