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

package jitabi

import "github.com/openrepublic/jitabi-go/pkg/specializer"

type moduleOpts struct {
	forceReload bool
	params      specializer.BuildParams
	haveParams  bool
}

// Option customizes a single ModuleForABI call.
type Option func(*moduleOpts)

// WithForceReload bumps name's logical-name version before building the
// key, so a stale fingerprint hit can never be returned (spec.md §4.F
// "Logical-name versioning").
func WithForceReload() Option {
	return func(o *moduleOpts) { o.forceReload = true }
}

// WithParams overrides the default build parameters (with_pack=true,
// with_unpack=true, debug=false).
func WithParams(params specializer.BuildParams) Option {
	return func(o *moduleOpts) { o.params = params; o.haveParams = true }
}

func resolveOpts(opts []Option) moduleOpts {
	o := moduleOpts{params: specializer.DefaultBuildParams()}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
