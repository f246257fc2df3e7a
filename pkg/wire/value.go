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

// Package wire implements the byte-level codec (spec component 4.D):
// LEB128 varints, fixed little-endian integers, length-prefixed
// bytes/strings, arrays, optionals, extension fields, structs and
// variants - and the dynamically typed in-memory Value that stands
// between a resolved ABI type tree and a host-language value.
package wire

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
)

// Kind discriminates the dynamic shape of a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindBool
	KindInt
	KindFloat32
	KindFloat64
	KindBytes
	KindString
	KindArray
	KindMap
)

// Value is the tagged union every Pack/Unpack call produces or consumes.
// Int is backed by *big.Int so a single representation covers every
// width from int8 to the unsigned/signed 128-bit aliases uniformly -
// mirroring how the teacher's ComponentValue carries a *big.Int for
// every numeric ABI type regardless of declared width.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     *big.Int
	Float32 float32
	Float64 float64
	Bytes   []byte
	Str     string
	Array   []*Value
	Map     map[string]*Value
}

func Absent() *Value                { return &Value{Kind: KindAbsent} }
func BoolValue(b bool) *Value       { return &Value{Kind: KindBool, Bool: b} }
func IntValue(i *big.Int) *Value    { return &Value{Kind: KindInt, Int: i} }
func Float32Value(f float32) *Value { return &Value{Kind: KindFloat32, Float32: f} }
func Float64Value(f float64) *Value { return &Value{Kind: KindFloat64, Float64: f} }
func BytesValue(b []byte) *Value    { return &Value{Kind: KindBytes, Bytes: b} }
func StringValue(s string) *Value   { return &Value{Kind: KindString, Str: s} }
func ArrayValue(a []*Value) *Value  { return &Value{Kind: KindArray, Array: a} }
func MapValue(m map[string]*Value) *Value {
	return &Value{Kind: KindMap, Map: m}
}

// IsAbsent reports whether v represents the absent value of an optional
// or a not-yet-decoded trailing extension field.
func (v *Value) IsAbsent() bool {
	return v == nil || v.Kind == KindAbsent
}

// MarshalJSON renders Bytes/raw payloads as lowercase hex strings,
// mirroring the reference implementation's JSONHexEncoder so byte
// payloads round-trip through JSON without base64 surprises.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil || v.Kind == KindAbsent {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int.String())
	case KindFloat32:
		return json.Marshal(v.Float32)
	case KindFloat64:
		return json.Marshal(v.Float64)
	case KindBytes:
		return json.Marshal(hex.EncodeToString(v.Bytes))
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		return json.Marshal(v.Array)
	case KindMap:
		return json.Marshal(v.Map)
	default:
		return []byte("null"), nil
	}
}
