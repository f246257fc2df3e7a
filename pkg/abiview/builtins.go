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

import "crypto/sha256"

// StdTypes are the built-in scalar types every ABI understands without
// any alias/struct/variant declaration.
var StdTypes = []string{
	"bool",
	"uint8", "uint16", "uint32", "uint64", "uint128",
	"int8", "int16", "int32", "int64", "int128",
	"varuint32", "varint32",
	"float32", "float64",
	"bytes", "string",
}

var stdTypeSet = func() map[string]bool {
	m := make(map[string]bool, len(StdTypes))
	for _, t := range StdTypes {
		m[t] = true
	}
	return m
}()

// IsStdType reports whether name is one of the built-in scalars.
func IsStdType(name string) bool {
	return stdTypeSet[name]
}

// defaultAliases are injected into every ABIView, after the document's
// own alias table (so a document alias of the same name takes
// precedence), mirroring the Python reference's DEFAULT_ALIASES.
var defaultAliases = []AliasDef{
	{NewTypeName: "name", Target: "uint64"},
	{NewTypeName: "account_name", Target: "uint64"},
	{NewTypeName: "symbol", Target: "uint64"},
	{NewTypeName: "symbol_code", Target: "uint64"},
	{NewTypeName: "time_point", Target: "uint64"},
	{NewTypeName: "time_point_sec", Target: "uint32"},
	{NewTypeName: "block_timestamp_type", Target: "uint32"},
	{NewTypeName: "float128", Target: "raw(16)"},
	{NewTypeName: "rd160", Target: "raw(20)"},
	{NewTypeName: "checksum160", Target: "raw(20)"},
	{NewTypeName: "sha256", Target: "raw(32)"},
	{NewTypeName: "checksum256", Target: "raw(32)"},
	{NewTypeName: "checksum512", Target: "raw(64)"},
	{NewTypeName: "public_key", Target: "raw(34)"},
	{NewTypeName: "signature", Target: "raw(66)"},
}

// defaultStructs are injected into every ABIView alongside the document's
// own structs, mirroring the Python reference's DEFAULT_STRUCTS.
var defaultStructs = []StructDef{
	{
		Name: "asset",
		Fields: []FieldDef{
			{Name: "amount", TypeExpr: "int64"},
			{Name: "symbol", TypeExpr: "symbol"},
		},
	},
	{
		Name: "extended_asset",
		Fields: []FieldDef{
			{Name: "quantity", TypeExpr: "asset"},
			{Name: "contract", TypeExpr: "name"},
		},
	},
}

// builtinSeedHash is folded into every ABIView's content hash ahead of the
// document's own structs/variants/aliases, so that a future change to the
// built-in set changes every fingerprint - even for ABIs that never
// reference the changed built-in. Computed once at package init over the
// same ordered traversal used by ContentHash.
var builtinSeedHash = func() [32]byte {
	h := sha256.New()
	for _, t := range StdTypes {
		h.Write([]byte(t))
	}
	for _, s := range defaultStructs {
		h.Write([]byte(s.Name))
		h.Write([]byte(s.Base))
		for _, f := range s.Fields {
			h.Write([]byte(f.Name))
			h.Write([]byte(f.TypeExpr))
		}
	}
	for _, a := range defaultAliases {
		h.Write([]byte(a.NewTypeName))
		h.Write([]byte(a.Target))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}()
