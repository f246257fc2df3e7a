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

// Package artifactcache is the filesystem-backed, content-addressed,
// inter-process-locked store for built specializer.Artifact values
// (spec.md §4.F): on-disk layout, fingerprinting, warm-start, and the
// in-memory/in-process memoization layers on top of it.
package artifactcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/specializer"
)

// pipelineVersion is folded into every fingerprint: the Specializer's
// deterministic inputs (its own code, not any particular ABI) are fixed
// for a given build of this module, so a single constant stands in for
// "hash of the generator's templates/code-emission module contents"
// (spec.md §4.F) - bump it whenever the interpretive Artifact's encode/
// decode semantics change in a way that would invalidate prior artifacts.
const pipelineVersion = "jitabi-go/v1-interpretive"

// Key identifies one cached artifact: a versioned logical name, the
// fingerprint computed from it, and the build parameters that produced
// it (spec.md §4.F "all on a given key = (logical_name, fingerprint,
// params)").
type Key struct {
	LogicalName string                  `json:"logical_name"`
	Fingerprint string                  `json:"fingerprint"`
	Params      specializer.BuildParams `json:"params"`
}

// canonicalParams renders params as canonical JSON: keys in BuildParams'
// field declaration order, no insignificant whitespace. params.json
// persists the same params values, wrapped with the logical name and
// fingerprint and indented, so its bytes differ from the hashed ones.
func canonicalParams(params specializer.BuildParams) ([]byte, error) {
	// BuildParams has a fixed field set, so a struct-based json.Marshal
	// already emits a stable key order; compact removes any whitespace.
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var buf []byte
	compacted := json.RawMessage{}
	if err := json.Unmarshal(raw, &compacted); err != nil {
		return nil, err
	}
	buf, err = json.Marshal(compacted)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Fingerprint computes the stable 256-bit hash named in spec.md §4.F:
// pipeline version digest, then the ABI content hash (I5), then the
// canonical build-parameter encoding, hex-encoded for use as a directory
// name.
func Fingerprint(view *abiview.ABIView, params specializer.BuildParams) (string, error) {
	paramBytes, err := canonicalParams(params)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(pipelineVersion))
	h.Write([]byte(view.ContentHash()))
	h.Write(paramBytes)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func memoKey(k Key) string {
	return k.LogicalName + "/" + k.Fingerprint
}
