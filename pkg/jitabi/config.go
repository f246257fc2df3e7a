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

// Package jitabi is the Context Façade of spec.md §4.G: the single
// public entry point composing the Parser/Resolver (pkg/abiview), the
// Specializer (pkg/specializer) and the Artifact Cache (pkg/artifactcache)
// behind one ModuleForABI call.
package jitabi

import (
	"time"

	"github.com/spf13/viper"

	"github.com/openrepublic/jitabi-go/pkg/artifactcache"
)

// cacheRootKey is the one recognized environment variable (spec.md §6):
// a cache-root override, falling back to ~/.jitabi. Scaled down from the
// teacher's internal/signerconfig, which binds a whole config.Section
// tree through firefly-common/pkg/config against an HTTP server's
// section hierarchy this module has no analogue for (DESIGN.md).
const cacheRootKey = "cache_root"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("JITABI")
	v.SetDefault(cacheRootKey, artifactcache.DefaultCacheRoot())
	_ = v.BindEnv(cacheRootKey, "JITABI_CACHE_ROOT")
	return v
}

// Config configures a Context. ReadOnly, MemoMaxSize, MemoTTL and
// DisableListener pass straight through to the underlying
// artifactcache.Cache; CacheRoot defaults from JITABI_CACHE_ROOT (or
// ~/.jitabi) when left empty.
type Config struct {
	CacheRoot       string
	ReadOnly        bool
	MemoMaxSize     int64
	MemoTTL         time.Duration
	DisableListener bool
}

// resolveCacheRoot applies the viper-bound default/env override when
// conf.CacheRoot was left unset by the caller.
func resolveCacheRoot(conf Config) string {
	if conf.CacheRoot != "" {
		return conf.CacheRoot
	}
	return newViper().GetString(cacheRootKey)
}
