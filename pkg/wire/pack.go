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
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
	"github.com/openrepublic/jitabi-go/pkg/abiview"
)

// PackNamed resolves name against view and packs v into its wire
// encoding - the core's pack_<name> entry point (spec.md §4.E).
func PackNamed(ctx context.Context, view *abiview.ABIView, name string, v *Value) ([]byte, error) {
	rt, err := abiview.Resolve(ctx, view, name)
	if err != nil {
		return nil, err
	}
	return Pack(ctx, view, rt, v, name)
}

// Pack encodes v according to rt, walking modifiers outer to inner
// exactly as the Resolver peeled them, then dispatching on the base kind.
func Pack(ctx context.Context, view *abiview.ABIView, rt abiview.ResolvedType, v *Value, breadcrumb string) ([]byte, error) {
	if len(rt.Modifiers) > 0 {
		mod, inner := rt.Outer()
		switch mod {
		case abiview.ModArray:
			if v.IsAbsent() || v.Kind != KindArray {
				return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), rt.Original, breadcrumb)
			}
			buf := putUvarint32(nil, uint32(len(v.Array)))
			for i, el := range v.Array {
				enc, err := Pack(ctx, view, inner, el, fmt.Sprintf("%s[%d]", breadcrumb, i))
				if err != nil {
					return nil, err
				}
				buf = append(buf, enc...)
			}
			return buf, nil

		case abiview.ModOptional:
			if v.IsAbsent() {
				return []byte{0x00}, nil
			}
			enc, err := Pack(ctx, view, inner, v, breadcrumb)
			if err != nil {
				return nil, err
			}
			return append([]byte{0x01}, enc...), nil

		case abiview.ModExtension:
			if v.IsAbsent() {
				return nil, nil
			}
			return Pack(ctx, view, inner, v, breadcrumb)
		}
	}

	switch rt.Kind {
	case abiview.KindRaw:
		return packRaw(ctx, rt, v, breadcrumb)
	case abiview.KindStruct:
		return packStruct(ctx, view, rt.BaseName, v, breadcrumb)
	case abiview.KindVariant:
		return packVariant(ctx, view, rt.BaseName, v, breadcrumb)
	default:
		return packStd(ctx, rt.BaseName, v, breadcrumb)
	}
}

func packRaw(ctx context.Context, rt abiview.ResolvedType, v *Value, breadcrumb string) ([]byte, error) {
	if v.IsAbsent() || v.Kind != KindBytes {
		return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), rt.Original, breadcrumb)
	}
	n := rt.Args[0]
	if len(v.Bytes) != n {
		return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeRange, fmt.Sprintf("%d byte(s)", len(v.Bytes)), fmt.Sprintf("raw(%d)", n), breadcrumb)
	}
	return append([]byte{}, v.Bytes...), nil
}

func packStd(ctx context.Context, name string, v *Value, breadcrumb string) ([]byte, error) {
	switch name {
	case "bool":
		if v.IsAbsent() || v.Kind != KindBool {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		if v.Bool {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil

	case "varuint32":
		if v.IsAbsent() || v.Kind != KindInt {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		min, max := intRange(4, true)
		if v.Int.Cmp(min) < 0 || v.Int.Cmp(max) > 0 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeRange, v.Int.String(), name, breadcrumb)
		}
		return putUvarint32(nil, uint32(v.Int.Uint64())), nil

	case "varint32":
		if v.IsAbsent() || v.Kind != KindInt {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		min, max := intRange(4, false)
		if v.Int.Cmp(min) < 0 || v.Int.Cmp(max) > 0 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeRange, v.Int.String(), name, breadcrumb)
		}
		return putVarint32(nil, int32(v.Int.Int64())), nil

	case "float32":
		if v.IsAbsent() || v.Kind != KindFloat32 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		return leUint32(math.Float32bits(v.Float32)), nil

	case "float64":
		if v.IsAbsent() || v.Kind != KindFloat64 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		return leUint64(math.Float64bits(v.Float64)), nil

	case "bytes":
		if v.IsAbsent() || v.Kind != KindBytes {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		buf := putUvarint32(nil, uint32(len(v.Bytes)))
		return append(buf, v.Bytes...), nil

	case "string":
		if v.IsAbsent() || v.Kind != KindString {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		if !utf8.ValidString(v.Str) {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeInvalidUTF8, breadcrumb)
		}
		payload := []byte(v.Str)
		buf := putUvarint32(nil, uint32(len(payload)))
		return append(buf, payload...), nil

	default:
		width, ok := fixedIntWidths[name]
		if !ok {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		if v.IsAbsent() || v.Kind != KindInt {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
		}
		unsigned := isUnsignedInt(name)
		min, max := intRange(width, unsigned)
		if v.Int.Cmp(min) < 0 || v.Int.Cmp(max) > 0 {
			return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeRange, v.Int.String(), name, breadcrumb)
		}
		return encodeFixedInt(v.Int, width), nil
	}
}

// packStruct encodes base (recursively, no marker) followed by own
// fields in declaration order, stopping at the first absent extension
// field per I3/spec.md §4.D.
func packStruct(ctx context.Context, view *abiview.ABIView, name string, v *Value, breadcrumb string) ([]byte, error) {
	if v.IsAbsent() || v.Kind != KindMap {
		return nil, i18n.NewError(ctx, codecmsgs.MsgEncodeType, categoryOf(v), name, breadcrumb)
	}
	s := view.StructMap[name]
	if s == nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgUnknownNamedType, name)
	}
	var out []byte
	if s.Base != "" {
		enc, err := packStruct(ctx, view, s.Base, v, breadcrumb)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	for _, f := range s.Fields {
		rt, err := abiview.Resolve(ctx, view, f.TypeExpr)
		if err != nil {
			return nil, err
		}
		fv := v.Map[f.Name]
		if fv == nil {
			fv = Absent()
		}
		isExtension := len(rt.Modifiers) > 0 && rt.Modifiers[0] == abiview.ModExtension
		if isExtension && fv.IsAbsent() {
			break // I3: stop at the first absent extension field
		}
		enc, err := Pack(ctx, view, rt, fv, breadcrumb+"."+f.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// packVariant encodes the tag (0-based index into members) followed by
// the selected alternative's encoding.
func packVariant(ctx context.Context, view *abiview.ABIView, name string, v *Value, breadcrumb string) ([]byte, error) {
	vr := view.VariantMap[name]
	if vr == nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgUnknownNamedType, name)
	}
	altName, altValue, tag, err := selectVariantAlternative(ctx, view, vr, v, breadcrumb)
	if err != nil {
		return nil, err
	}
	altRT, err := abiview.Resolve(ctx, view, altName)
	if err != nil {
		return nil, err
	}
	out := putUvarint32(nil, uint32(tag))
	enc, err := Pack(ctx, view, altRT, altValue, breadcrumb)
	if err != nil {
		return nil, err
	}
	return append(out, enc...), nil
}

// selectVariantAlternative implements spec.md §4.D's variant host-value
// convention: an explicit {"type": name, "value": v} object always wins;
// otherwise a mapping carrying a "type" entry selects by that name;
// otherwise a bare scalar's dynamic Go kind is matched against the
// alternatives in category order, failing if more than one alternative
// of that category exists (ambiguous).
func selectVariantAlternative(ctx context.Context, view *abiview.ABIView, vr *abiview.VariantDef, v *Value, breadcrumb string) (altName string, altValue *Value, tag int, err error) {
	if v.Kind == KindMap {
		if typeField, ok := v.Map["type"]; ok && typeField.Kind == KindString {
			for i, m := range vr.Members {
				if m == typeField.Str {
					if valueField, ok := v.Map["value"]; ok {
						return m, valueField, i, nil
					}
					return m, v, i, nil
				}
			}
			return "", nil, 0, i18n.NewError(ctx, codecmsgs.MsgEncodeNoAlt, vr.Name, breadcrumb)
		}
	}

	var matches []int
	for i, m := range vr.Members {
		rt, rerr := abiview.Resolve(ctx, view, m)
		if rerr != nil {
			return "", nil, 0, rerr
		}
		if !rt.IsScalar() && v.Kind != KindMap {
			continue
		}
		if variantCategoryMatches(rt, v) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil, 0, i18n.NewError(ctx, codecmsgs.MsgEncodeNoAlt, vr.Name, breadcrumb)
	case 1:
		return vr.Members[matches[0]], v, matches[0], nil
	default:
		return "", nil, 0, i18n.NewError(ctx, codecmsgs.MsgEncodeAmbiguous, breadcrumb, categoryOf(v), vr.Name)
	}
}

// variantCategoryMatches reports whether v's dynamic host category
// matches the one the resolved alternative type would accept.
func variantCategoryMatches(rt abiview.ResolvedType, v *Value) bool {
	if !rt.IsScalar() {
		return v.Kind == KindArray || v.Kind == KindMap
	}
	switch rt.Kind {
	case abiview.KindRaw:
		return v.Kind == KindBytes
	case abiview.KindStruct:
		return v.Kind == KindMap
	case abiview.KindVariant:
		return v.Kind == KindMap
	}
	switch rt.BaseName {
	case "bool":
		return v.Kind == KindBool
	case "float32":
		return v.Kind == KindFloat32
	case "float64":
		return v.Kind == KindFloat64
	case "bytes":
		return v.Kind == KindBytes
	case "string":
		return v.Kind == KindString
	default:
		_, isFixedInt := fixedIntWidths[rt.BaseName]
		return (isFixedInt || rt.BaseName == "varuint32" || rt.BaseName == "varint32") && v.Kind == KindInt
	}
}

func categoryOf(v *Value) string {
	if v == nil {
		return "absent"
	}
	switch v.Kind {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindFloat32, KindFloat64:
		return "float"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "struct"
	default:
		return "unknown"
	}
}

func leUint32(n uint32) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

func leUint64(n uint64) []byte {
	return []byte{
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
		byte(n >> 32), byte(n >> 40), byte(n >> 48), byte(n >> 56),
	}
}
