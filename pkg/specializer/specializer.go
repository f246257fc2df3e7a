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

// Package specializer builds an Artifact from a resolved ABIView: a
// closure table exposing pack_<name>/unpack_<name> for every struct,
// variant and alias the ABI declares, plus a generic name-dispatched
// entry point (spec.md §4.E).
package specializer

import (
	"context"

	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/wire"
)

// BuildParams selects which tables an Artifact builds. Every field
// participates in the artifact cache's fingerprint (spec.md §6).
type BuildParams struct {
	WithPack   bool `json:"with_pack"`
	WithUnpack bool `json:"with_unpack"`
	Debug      bool `json:"debug"`
}

// DefaultBuildParams matches spec.md §6: with_pack and with_unpack
// default true, debug defaults false.
func DefaultBuildParams() BuildParams {
	return BuildParams{WithPack: true, WithUnpack: true}
}

// PackFunc and UnpackFunc are the per-type functions an Artifact exposes.
type PackFunc func(ctx context.Context, v *wire.Value) ([]byte, error)
type UnpackFunc func(ctx context.Context, buf []byte) (*wire.Value, error)

// Artifact is the interpretive backend named in spec.md §4.E: a flat
// closure table built once per ABIView, walking every named struct,
// variant and alias and capturing its resolved type - matching the
// teacher's model of parsing once into a tree and repeatedly
// encoding/decoding against it.
type Artifact struct {
	view        *abiview.ABIView
	params      BuildParams
	packTable   map[string]PackFunc
	unpackTable map[string]UnpackFunc
}

// Build walks every named type in view and captures a closure per
// pack_<name>/unpack_<name> per params. Built-in scalars are resolvable
// through Pack/Unpack dispatch too, even though they have no named entry
// in the closure table, via the fallback in Pack/Unpack below.
func Build(ctx context.Context, view *abiview.ABIView, params BuildParams) (*Artifact, error) {
	a := &Artifact{
		view:        view,
		params:      params,
		packTable:   map[string]PackFunc{},
		unpackTable: map[string]UnpackFunc{},
	}
	for _, name := range view.NamedTypes() {
		n := name // capture
		if _, err := abiview.Resolve(ctx, view, n); err != nil {
			return nil, err
		}
		if params.WithPack {
			a.packTable[n] = func(ctx context.Context, v *wire.Value) ([]byte, error) {
				return wire.PackNamed(ctx, view, n, v)
			}
		}
		if params.WithUnpack {
			a.unpackTable[n] = func(ctx context.Context, buf []byte) (*wire.Value, error) {
				return wire.UnpackNamed(ctx, view, n, buf)
			}
		}
	}
	return a, nil
}

// Pack dispatches to the captured pack_<name> closure, or falls back to
// a direct Resolve+Pack for a bare built-in type name not present in the
// ABI's own declarations (spec.md §4.E: "Type names that were not in the
// ABI ... are resolvable through dispatch via the built-in alias
// expansion").
func (a *Artifact) Pack(ctx context.Context, name string, v *wire.Value) ([]byte, error) {
	if !a.params.WithPack {
		return nil, i18n.NewError(ctx, codecmsgs.MsgNoPackBuilt)
	}
	if fn, ok := a.packTable[name]; ok {
		return fn(ctx, v)
	}
	return wire.PackNamed(ctx, a.view, name, v)
}

// Unpack dispatches to the captured unpack_<name> closure, with the
// same built-in fallback as Pack.
func (a *Artifact) Unpack(ctx context.Context, name string, buf []byte) (*wire.Value, error) {
	if !a.params.WithUnpack {
		return nil, i18n.NewError(ctx, codecmsgs.MsgNoUnpackBuilt)
	}
	if fn, ok := a.unpackTable[name]; ok {
		return fn(ctx, buf)
	}
	return wire.UnpackNamed(ctx, a.view, name, buf)
}

// View returns the ABIView this artifact was built from.
func (a *Artifact) View() *abiview.ABIView { return a.view }

// Params returns the build parameters this artifact was built with.
func (a *Artifact) Params() BuildParams { return a.params }
