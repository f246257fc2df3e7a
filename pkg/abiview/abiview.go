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
	"crypto/sha256"
	"encoding/hex"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// RawABI is the parser's (component B) output: the document's own
// structs/variants/aliases, before built-in expansion or resolution.
type RawABI struct {
	Structs  []StructDef
	Variants []VariantDef
	Aliases  []AliasDef
}

// ABIView is the immutable, resolved bundle every downstream component
// (wire codec, specializer, cache) consumes: alias/struct/variant tables,
// the set of every name any type expression may legally reference, and a
// stable content hash (I5).
type ABIView struct {
	AliasMap   map[string]string
	StructMap  map[string]*StructDef
	VariantMap map[string]*VariantDef
	ValidNames map[string]bool

	structList  []StructDef // preserves declaration order, for ContentHash
	variantList []VariantDef
	aliasList   []AliasDef

	contentHash string
	sourceRaw   *RawABI
}

// NewABIView builds, validates and resolves a RawABI into an immutable
// ABIView. Built-in std types, aliases and structs are injected as
// described in spec.md §3; every field/variant-member/alias-target type
// expression is checked via the Validator (4.A) and must resolve via the
// Resolver (4.C) - that is the injection barrier referenced in spec.md
// §4.A for any backend that would otherwise generate source from names.
func NewABIView(ctx context.Context, raw *RawABI) (*ABIView, error) {
	v := &ABIView{
		AliasMap:   map[string]string{},
		StructMap:  map[string]*StructDef{},
		VariantMap: map[string]*VariantDef{},
		ValidNames: map[string]bool{},
		sourceRaw:  raw,
	}

	// Aliases: document aliases take priority over built-ins of the same
	// name (first occurrence wins), mirroring the original reference's
	// maybe_resolve_alias linear scan over [document..., defaults...].
	v.aliasList = append(append([]AliasDef{}, raw.Aliases...), defaultAliases...)
	for _, a := range v.aliasList {
		if err := ValidIdent(ctx, a.NewTypeName); err != nil {
			return nil, err
		}
		if err := ValidTypeExpr(ctx, a.Target); err != nil {
			return nil, err
		}
		if _, exists := v.AliasMap[a.NewTypeName]; !exists {
			v.AliasMap[a.NewTypeName] = a.Target
		}
		v.ValidNames[a.NewTypeName] = true
	}

	// Structs: built-ins are appended after the document's own structs,
	// and (mirroring the reference implementation's {s.name(): s for s in
	// structs} map construction) a built-in struct name always wins the
	// map entry if the document redeclares it.
	v.structList = append(append([]StructDef{}, raw.Structs...), defaultStructs...)
	for i := range v.structList {
		s := &v.structList[i]
		if err := ValidIdent(ctx, s.Name); err != nil {
			return nil, err
		}
		if s.Base != "" {
			if err := ValidIdent(ctx, s.Base); err != nil {
				return nil, err
			}
		}
		if err := validateExtensionOrdering(ctx, s); err != nil {
			return nil, err
		}
		for _, f := range s.Fields {
			if err := ValidIdent(ctx, f.Name); err != nil {
				return nil, err
			}
			if err := ValidTypeExpr(ctx, f.TypeExpr); err != nil {
				return nil, err
			}
		}
		v.StructMap[s.Name] = s
		v.ValidNames[s.Name] = true
	}

	// Variants: no built-in variants exist.
	v.variantList = append([]VariantDef{}, raw.Variants...)
	for i := range v.variantList {
		vr := &v.variantList[i]
		if err := ValidIdent(ctx, vr.Name); err != nil {
			return nil, err
		}
		if len(vr.Members) == 0 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEmptyVariant, vr.Name)
		}
		for _, m := range vr.Members {
			if err := ValidTypeExpr(ctx, m); err != nil {
				return nil, err
			}
		}
		v.VariantMap[vr.Name] = vr
		v.ValidNames[vr.Name] = true
	}
	for _, t := range StdTypes {
		v.ValidNames[t] = true
	}

	if err := v.checkBaseChains(ctx); err != nil {
		return nil, err
	}

	// I1/I2: every referenced type expression must resolve, and alias
	// cycles must be caught here rather than lazily on first use.
	for _, a := range v.aliasList {
		if _, err := Resolve(ctx, v, a.NewTypeName); err != nil {
			return nil, err
		}
	}
	for _, s := range v.structList {
		for _, f := range s.Fields {
			if _, err := Resolve(ctx, v, f.TypeExpr); err != nil {
				return nil, err
			}
		}
	}
	for _, vr := range v.variantList {
		for _, m := range vr.Members {
			if _, err := Resolve(ctx, v, m); err != nil {
				return nil, err
			}
		}
	}

	v.contentHash = v.computeContentHash()
	return v, nil
}

// validateExtensionOrdering enforces I3: once an extension ($) field
// appears, every field to its right must also be an extension field.
func validateExtensionOrdering(ctx context.Context, s *StructDef) error {
	seenExtension := false
	for _, f := range s.Fields {
		mods, _ := peelTrailingModifiers(f.TypeExpr)
		isExt := len(mods) > 0 && mods[0] == ModExtension
		if seenExtension && !isExt {
			return i18n.NewError(ctx, codecmsgs.MsgBadExtension, f.Name, s.Name)
		}
		if isExt {
			seenExtension = true
		}
	}
	return nil
}

// checkBaseChains validates that every struct's base names a known
// struct, and that no cycle exists among base references.
func (v *ABIView) checkBaseChains(ctx context.Context) error {
	for _, s := range v.structList {
		if s.Base == "" {
			continue
		}
		visited := map[string]bool{s.Name: true}
		cur := s.Base
		for cur != "" {
			base, ok := v.StructMap[cur]
			if !ok {
				return i18n.NewError(ctx, codecmsgs.MsgUnknownBase, s.Name, cur)
			}
			if visited[cur] {
				return i18n.NewError(ctx, codecmsgs.MsgAliasCycle, s.Name, cur)
			}
			visited[cur] = true
			cur = base.Base
		}
	}
	return nil
}

// ContentHash returns the I5 content hash: a hex-encoded sha256 over the
// ordered triple (structs, variants, aliases), seeded by a hash of the
// built-in set, independent of document whitespace/field order/section
// presence.
func (v *ABIView) ContentHash() string {
	return v.contentHash
}

func (v *ABIView) computeContentHash() string {
	h := sha256.New()
	h.Write(builtinSeedHash[:])

	h.Write([]byte("structs"))
	for _, s := range v.structList {
		h.Write([]byte(s.Name))
		h.Write([]byte(s.Base))
		for _, f := range s.Fields {
			h.Write([]byte(f.Name))
			h.Write([]byte(f.TypeExpr))
		}
	}

	h.Write([]byte("variants"))
	for _, vr := range v.variantList {
		h.Write([]byte(vr.Name))
		for _, m := range vr.Members {
			h.Write([]byte(m))
		}
	}

	h.Write([]byte("aliases"))
	for _, a := range v.aliasList {
		h.Write([]byte(a.NewTypeName))
		h.Write([]byte(a.Target))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// SourceRaw returns the RawABI this view was built from - the document's
// own structs/variants/aliases, before built-in injection. The artifact
// cache persists this (not the expanded view) so a warm reload can
// reconstruct an equivalent ABIView without re-running the Parser.
func (v *ABIView) SourceRaw() *RawABI {
	return v.sourceRaw
}

// NamedTypes returns every struct, variant and alias name declared or
// injected into this view - the set the Specializer (4.E) walks to build
// pack_<T>/unpack_<T> per type.
func (v *ABIView) NamedTypes() []string {
	names := make([]string, 0, len(v.StructMap)+len(v.VariantMap)+len(v.AliasMap))
	for n := range v.StructMap {
		names = append(names, n)
	}
	for n := range v.VariantMap {
		names = append(names, n)
	}
	for n := range v.AliasMap {
		names = append(names, n)
	}
	return names
}
