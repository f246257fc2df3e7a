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

// UnpackNamed resolves name against view and decodes buf, requiring the
// entire input be consumed unless T is a struct with trailing extension
// fields that decode as absent (spec.md §4.D "Failure semantics").
func UnpackNamed(ctx context.Context, view *abiview.ABIView, name string, buf []byte) (*Value, error) {
	rt, err := abiview.Resolve(ctx, view, name)
	if err != nil {
		return nil, err
	}
	v, n, err := Unpack(ctx, view, rt, buf, 0, name)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, i18n.NewError(ctx, codecmsgs.MsgDecodeTrailing, len(buf)-n, name)
	}
	return v, nil
}

// Unpack decodes a value of type rt from buf starting at offset,
// returning the value and the new offset.
func Unpack(ctx context.Context, view *abiview.ABIView, rt abiview.ResolvedType, buf []byte, offset int, breadcrumb string) (*Value, int, error) {
	if len(rt.Modifiers) > 0 {
		mod, inner := rt.Outer()
		switch mod {
		case abiview.ModArray:
			count, n, err := takeUvarint32(ctx, buf, offset, breadcrumb)
			if err != nil {
				return nil, 0, err
			}
			offset += n
			elements := make([]*Value, 0, count)
			for i := uint32(0); i < count; i++ {
				el, newOffset, err := Unpack(ctx, view, inner, buf, offset, fmt.Sprintf("%s[%d]", breadcrumb, i))
				if err != nil {
					return nil, 0, err
				}
				offset = newOffset
				elements = append(elements, el)
			}
			return ArrayValue(elements), offset, nil

		case abiview.ModOptional:
			if offset >= len(buf) {
				return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, 1, 0)
			}
			flag := buf[offset]
			offset++
			switch flag {
			case 0x00:
				return Absent(), offset, nil
			case 0x01:
				return Unpack(ctx, view, inner, buf, offset, breadcrumb)
			default:
				return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeBadBool, flag, offset-1)
			}

		case abiview.ModExtension:
			if offset >= len(buf) {
				return Absent(), offset, nil
			}
			return Unpack(ctx, view, inner, buf, offset, breadcrumb)
		}
	}

	switch rt.Kind {
	case abiview.KindRaw:
		return unpackRaw(ctx, rt, buf, offset, breadcrumb)
	case abiview.KindStruct:
		return unpackStruct(ctx, view, rt.BaseName, buf, offset, breadcrumb)
	case abiview.KindVariant:
		return unpackVariant(ctx, view, rt.BaseName, buf, offset, breadcrumb)
	default:
		return unpackStd(ctx, rt.BaseName, buf, offset, breadcrumb)
	}
}

func unpackRaw(ctx context.Context, rt abiview.ResolvedType, buf []byte, offset int, breadcrumb string) (*Value, int, error) {
	n := rt.Args[0]
	if offset+n > len(buf) {
		return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, n, len(buf)-offset)
	}
	out := append([]byte{}, buf[offset:offset+n]...)
	return BytesValue(out), offset + n, nil
}

func unpackStd(ctx context.Context, name string, buf []byte, offset int, breadcrumb string) (*Value, int, error) {
	switch name {
	case "bool":
		if offset >= len(buf) {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, 1, 0)
		}
		b := buf[offset]
		if b != 0x00 && b != 0x01 {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeBadBool, b, offset)
		}
		return BoolValue(b == 0x01), offset + 1, nil

	case "varuint32":
		n, width, err := takeUvarint32(ctx, buf, offset, breadcrumb)
		if err != nil {
			return nil, 0, err
		}
		return IntValue(bigFromUint64(uint64(n))), offset + width, nil

	case "varint32":
		n, width, err := takeVarint32(ctx, buf, offset, breadcrumb)
		if err != nil {
			return nil, 0, err
		}
		return IntValue(bigFromInt64(int64(n))), offset + width, nil

	case "float32":
		if offset+4 > len(buf) {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, 4, len(buf)-offset)
		}
		bits := leGetUint32(buf[offset : offset+4])
		return Float32Value(math.Float32frombits(bits)), offset + 4, nil

	case "float64":
		if offset+8 > len(buf) {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, 8, len(buf)-offset)
		}
		bits := leGetUint64(buf[offset : offset+8])
		return Float64Value(math.Float64frombits(bits)), offset + 8, nil

	case "bytes", "string":
		count, n, err := takeUvarint32(ctx, buf, offset, breadcrumb)
		if err != nil {
			return nil, 0, err
		}
		offset += n
		if offset+int(count) > len(buf) {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, int(count), len(buf)-offset)
		}
		payload := buf[offset : offset+int(count)]
		offset += int(count)
		if name == "string" {
			if !utf8.Valid(payload) {
				return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeBadUTF8, breadcrumb)
			}
			return StringValue(string(payload)), offset, nil
		}
		return BytesValue(append([]byte{}, payload...)), offset, nil

	default:
		width, ok := fixedIntWidths[name]
		if !ok {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgUnknownNamedType, name)
		}
		if offset+width > len(buf) {
			return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeUnderflow, offset, breadcrumb, width, len(buf)-offset)
		}
		val := decodeFixedInt(buf[offset:offset+width], width, isUnsignedInt(name))
		return IntValue(val), offset + width, nil
	}
}

// unpackStruct decodes base (recursively) into the same flat map as own
// fields, stopping at the first field for which the buffer is exhausted
// if (and only if) that field is an extension field.
func unpackStruct(ctx context.Context, view *abiview.ABIView, name string, buf []byte, offset int, breadcrumb string) (*Value, int, error) {
	s := view.StructMap[name]
	if s == nil {
		return nil, 0, i18n.NewError(ctx, codecmsgs.MsgUnknownNamedType, name)
	}
	out := map[string]*Value{}
	if s.Base != "" {
		baseVal, newOffset, err := unpackStruct(ctx, view, s.Base, buf, offset, breadcrumb)
		if err != nil {
			return nil, 0, err
		}
		for k, v := range baseVal.Map {
			out[k] = v
		}
		offset = newOffset
	}
	for _, f := range s.Fields {
		rt, err := abiview.Resolve(ctx, view, f.TypeExpr)
		if err != nil {
			return nil, 0, err
		}
		isExtension := len(rt.Modifiers) > 0 && rt.Modifiers[0] == abiview.ModExtension
		if isExtension && offset >= len(buf) {
			out[f.Name] = Absent()
			continue
		}
		fv, newOffset, err := Unpack(ctx, view, rt, buf, offset, breadcrumb+"."+f.Name)
		if err != nil {
			return nil, 0, err
		}
		out[f.Name] = fv
		offset = newOffset
	}
	return MapValue(out), offset, nil
}

func unpackVariant(ctx context.Context, view *abiview.ABIView, name string, buf []byte, offset int, breadcrumb string) (*Value, int, error) {
	vr := view.VariantMap[name]
	if vr == nil {
		return nil, 0, i18n.NewError(ctx, codecmsgs.MsgUnknownNamedType, name)
	}
	tag, n, err := takeUvarint32(ctx, buf, offset, breadcrumb)
	if err != nil {
		return nil, 0, err
	}
	offset += n
	if int(tag) >= len(vr.Members) {
		return nil, 0, i18n.NewError(ctx, codecmsgs.MsgDecodeInvalidTag, tag, name, len(vr.Members))
	}
	altName := vr.Members[tag]
	altRT, err := abiview.Resolve(ctx, view, altName)
	if err != nil {
		return nil, 0, err
	}
	altVal, offset, err := Unpack(ctx, view, altRT, buf, offset, breadcrumb)
	if err != nil {
		return nil, 0, err
	}
	if altVal.Kind == KindMap {
		merged := map[string]*Value{"type": StringValue(altName)}
		for k, v := range altVal.Map {
			merged[k] = v
		}
		return MapValue(merged), offset, nil
	}
	return altVal, offset, nil
}

func leGetUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leGetUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
