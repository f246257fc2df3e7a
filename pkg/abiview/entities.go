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

// Modifier is one of the trailing type-expression tokens []/?/$.
type Modifier int

const (
	ModArray     Modifier = iota // []
	ModOptional                  // ?
	ModExtension                 // $ - only legal as the outermost modifier on a struct field
)

func (m Modifier) String() string {
	switch m {
	case ModArray:
		return "[]"
	case ModOptional:
		return "?"
	case ModExtension:
		return "$"
	default:
		return "?unknown?"
	}
}

// Kind classifies the base of a ResolvedType.
type Kind int

const (
	KindStd Kind = iota
	KindStruct
	KindVariant
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindStd:
		return "std"
	case KindStruct:
		return "struct"
	case KindVariant:
		return "variant"
	case KindRaw:
		return "raw"
	default:
		return "?unknown?"
	}
}

// AliasDef is a named shorthand for another type expression.
type AliasDef struct {
	NewTypeName string `json:"new_type_name"`
	Target      string `json:"type"`
}

// FieldDef is one field of a struct.
type FieldDef struct {
	Name     string `json:"name"`
	TypeExpr string `json:"type"`
}

// StructDef describes a struct: an optional base whose fields are
// logically prepended, and an ordered field list that may end in a
// trailing run of extension ($) fields.
type StructDef struct {
	Name   string     `json:"name"`
	Base   string     `json:"base,omitempty"`
	Fields []FieldDef `json:"fields"`
}

// VariantDef is a tagged union: the position of each member in the
// ordered list is its wire tag.
type VariantDef struct {
	Name    string   `json:"name"`
	Members []string `json:"types"`
}

// ResolvedType is the canonical (base, modifier-chain, args) triple that
// every type expression resolves to.
//
// Modifiers is ordered outer to inner, matching the order the expression's
// trailing tokens were peeled in - so Modifiers[0] is the outermost wire
// wrapper (the first one Pack/Unpack must apply) and the last entry is
// closest to the base type.
type ResolvedType struct {
	Original  string
	BaseName  string
	Args      []int
	Modifiers []Modifier
	Kind      Kind
	IsAlias   bool
}

// IsScalar reports whether this resolved type carries no array/optional/
// extension wrapper - i.e. Pack/Unpack operate directly on the base type.
func (rt ResolvedType) IsScalar() bool {
	return len(rt.Modifiers) == 0
}

// Outer returns the outermost modifier and the resolved type with that
// modifier peeled off, for recursive Pack/Unpack walks.
func (rt ResolvedType) Outer() (Modifier, ResolvedType) {
	inner := rt
	inner.Modifiers = rt.Modifiers[1:]
	return rt.Modifiers[0], inner
}
