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

package artifactcache

import "github.com/openrepublic/jitabi-go/pkg/abiview"

// rawABISnapshot is the on-disk "artifact.json" payload
// for the interpretive specializer backend: there is no native loadable
// module to persist (spec.md §4.E's ahead-of-time strategy is not
// implemented), so the cached artifact is the document's own
// structs/variants/aliases - everything specializer.Build needs to
// reconstruct the closure table without re-running the Parser.
type rawABISnapshot struct {
	Structs  []abiview.StructDef  `json:"structs"`
	Variants []abiview.VariantDef `json:"variants"`
	Aliases  []abiview.AliasDef   `json:"aliases"`
}

func snapshotFromRawABI(raw *abiview.RawABI) rawABISnapshot {
	return rawABISnapshot{Structs: raw.Structs, Variants: raw.Variants, Aliases: raw.Aliases}
}

func (s rawABISnapshot) toRawABI() *abiview.RawABI {
	return &abiview.RawABI{Structs: s.Structs, Variants: s.Variants, Aliases: s.Aliases}
}
