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

// Package abiview ingests ABI documents, canonicalizes their aliases,
// expands built-in types, resolves trailing type modifiers, and exposes a
// fully resolved, validated type graph - the "ABIView" that every
// downstream component (wire codec, specializer, cache) consumes.
package abiview

import (
	"context"
	"regexp"
	"strconv"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// identRe matches field/identifier names: a letter or underscore, then any
// run of letters, digits or underscores.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// typeExprRe matches an identifier optionally followed by any sequence of
// the trailing modifier tokens []/?/$. It deliberately does NOT accept a
// digit run inside brackets (T[N]) - that is the explicitly unsupported
// fixed-size array syntax, rejected with its own diagnostic below.
var typeExprRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\[\]|\?|\$)*$`)

// fixedArrayRe detects the unsupported T[N] syntax so ValidTypeExpr can
// give a precise diagnostic instead of a generic "malformed" one.
var fixedArrayRe = regexp.MustCompile(`\[[0-9]+\]`)

// rawTypeRe matches the synthetic raw(N) type expression.
var rawTypeRe = regexp.MustCompile(`^raw\(([0-9]+)\)$`)

// ValidIdent reports whether s is a well-formed field/identifier name.
func ValidIdent(ctx context.Context, s string) error {
	if !identRe.MatchString(s) {
		return i18n.NewError(ctx, codecmsgs.MsgInvalidIdent, s)
	}
	return nil
}

// ValidTypeExpr reports whether s is a well-formed type expression: an
// identifier (or a raw(N) literal) optionally followed by any sequence of
// []/?/$ modifiers. Fixed-size array syntax T[N] is rejected explicitly.
func ValidTypeExpr(ctx context.Context, s string) error {
	if fixedArrayRe.MatchString(s) {
		return i18n.NewError(ctx, codecmsgs.MsgFixedArrayUnsup, s)
	}
	if rawTypeRe.MatchString(s) {
		return nil
	}
	if !typeExprRe.MatchString(s) {
		return i18n.NewError(ctx, codecmsgs.MsgInvalidTypeExpr, s)
	}
	return nil
}

// isRawTypeLiteral reports whether s is a raw(N) literal and returns N.
func isRawTypeLiteral(ctx context.Context, s string) (n int, ok bool, err error) {
	m := rawTypeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false, nil
	}
	v, convErr := strconv.Atoi(m[1])
	if convErr != nil || v < 0 {
		return 0, false, i18n.NewError(ctx, codecmsgs.MsgBadRawTypeLiteral, s)
	}
	return v, true, nil
}
