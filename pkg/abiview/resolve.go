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
	"sort"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// peelTrailingModifiers strips the trailing []/?/$ tokens from s,
// right-to-left, returning them in the order they were peeled (outermost
// first) along with the unmodified base remainder.
func peelTrailingModifiers(s string) (mods []Modifier, base string) {
	for {
		switch {
		case strings.HasSuffix(s, "$"):
			mods = append(mods, ModExtension)
			s = s[:len(s)-1]
		case strings.HasSuffix(s, "?"):
			mods = append(mods, ModOptional)
			s = s[:len(s)-1]
		case strings.HasSuffix(s, "[]"):
			mods = append(mods, ModArray)
			s = s[:len(s)-2]
		default:
			return mods, s
		}
	}
}

// Resolve is a pure function of view: resolve(e).original == e is
// idempotent (resolving the result's Original again returns the same
// triple), and it never performs I/O.
func Resolve(ctx context.Context, view *ABIView, typeExpr string) (ResolvedType, error) {
	original := typeExpr
	remainder := typeExpr
	var modifiers []Modifier
	isAlias := false
	visited := map[string]bool{}

	for {
		peeled, base := peelTrailingModifiers(remainder)
		modifiers = append(modifiers, peeled...)
		remainder = base

		if n, ok, err := isRawTypeLiteral(ctx, remainder); err != nil {
			return ResolvedType{}, err
		} else if ok {
			return ResolvedType{
				Original:  original,
				BaseName:  "raw",
				Args:      []int{n},
				Modifiers: modifiers,
				Kind:      KindRaw,
				IsAlias:   isAlias,
			}, nil
		}

		if target, ok := view.AliasMap[remainder]; ok {
			if visited[remainder] {
				return ResolvedType{}, i18n.NewError(ctx, codecmsgs.MsgAliasCycle, original, remainder)
			}
			visited[remainder] = true
			isAlias = true
			remainder = target
			continue
		}

		switch {
		case IsStdType(remainder):
			return ResolvedType{Original: original, BaseName: remainder, Modifiers: modifiers, Kind: KindStd, IsAlias: isAlias}, nil
		case view.StructMap[remainder] != nil:
			return ResolvedType{Original: original, BaseName: remainder, Modifiers: modifiers, Kind: KindStruct, IsAlias: isAlias}, nil
		case view.VariantMap[remainder] != nil:
			return ResolvedType{Original: original, BaseName: remainder, Modifiers: modifiers, Kind: KindVariant, IsAlias: isAlias}, nil
		default:
			return ResolvedType{}, i18n.NewError(ctx, codecmsgs.MsgUnknownType, original, strings.Join(view.sortedValidNames(), ", "))
		}
	}
}

// sortedValidNames is used only to build a helpful UnknownType error
// message (spec.md §7: "include list of valid names in message").
func (v *ABIView) sortedValidNames() []string {
	names := make([]string, 0, len(v.ValidNames))
	for n := range v.ValidNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
