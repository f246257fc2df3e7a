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

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
	"github.com/openrepublic/jitabi-go/pkg/abiview"
	"github.com/openrepublic/jitabi-go/pkg/artifactcache"
	"github.com/openrepublic/jitabi-go/pkg/specializer"
)

// Context is the Context Façade of spec.md §4.G: one per process,
// composing the Parser/Resolver, the Specializer and the Artifact Cache
// behind the single ModuleForABI contract. Safe for concurrent use by
// multiple goroutines (the version map and the underlying Cache each
// guard their own state), though the core itself only requires
// single-threaded callers with multi-process safety (spec.md §5).
type Context struct {
	cache *artifactcache.Cache

	vmux     sync.Mutex
	versions map[string]uint64
}

// NewContext constructs a Context, performing the underlying cache's
// warm-start directory walk.
func NewContext(ctx context.Context, conf Config) (*Context, error) {
	cache, err := artifactcache.New(ctx, artifactcache.Config{
		Root:            resolveCacheRoot(conf),
		ReadOnly:        conf.ReadOnly,
		MemoMaxSize:     conf.MemoMaxSize,
		MemoTTL:         conf.MemoTTL,
		DisableListener: conf.DisableListener,
	})
	if err != nil {
		return nil, err
	}
	return &Context{cache: cache, versions: map[string]uint64{}}, nil
}

// Close stops the underlying cache's filesystem listener, if any.
func (c *Context) Close() {
	c.cache.Close()
}

// ModuleForABI is the single public contract of spec.md §4.G: accept
// either raw ABI document bytes, an already-parsed *abiview.RawABI or an
// already-built *abiview.ABIView; materialize the effective logical name
// under the current per-process version for name; compute the
// fingerprint; look up (or, in write mode, generate) the artifact; and
// return the resolved key alongside the loaded Artifact handle.
func (c *Context) ModuleForABI(ctx context.Context, name string, abiOrView interface{}, opts ...Option) (artifactcache.Key, *specializer.Artifact, error) {
	o := resolveOpts(opts)

	view, err := toView(ctx, abiOrView)
	if err != nil {
		return artifactcache.Key{}, nil, err
	}

	logicalName := c.effectiveLogicalName(name, o.forceReload)

	fingerprint, err := artifactcache.Fingerprint(view, o.params)
	if err != nil {
		return artifactcache.Key{}, nil, err
	}
	key := artifactcache.Key{LogicalName: logicalName, Fingerprint: fingerprint, Params: o.params}

	log.L(ctx).Debugf("Resolving module '%s' (fingerprint %s)", logicalName, fingerprint)
	artifact, err := c.cache.GetArtifact(ctx, key, view.SourceRaw(), o.forceReload)
	if err != nil {
		return artifactcache.Key{}, nil, err
	}
	return key, artifact, nil
}

// effectiveLogicalName returns "<name>_<version>", bumping the
// per-process version counter first when forceReload is set (spec.md
// §4.F "Logical-name versioning").
func (c *Context) effectiveLogicalName(name string, forceReload bool) string {
	c.vmux.Lock()
	defer c.vmux.Unlock()
	if forceReload {
		c.versions[name]++
	}
	return fmt.Sprintf("%s_%d", name, c.versions[name])
}

// toView lifts abiOrView to an *abiview.ABIView: raw JSON bytes are
// parsed and resolved, a *abiview.RawABI is resolved, and an
// *abiview.ABIView passes through unchanged (spec.md §4.G "accept either
// a parsed ABIDef or an already-built ABIView").
func toView(ctx context.Context, abiOrView interface{}) (*abiview.ABIView, error) {
	switch t := abiOrView.(type) {
	case *abiview.ABIView:
		return t, nil
	case *abiview.RawABI:
		return abiview.NewABIView(ctx, t)
	case []byte:
		raw, err := abiview.ParseABI(ctx, t)
		if err != nil {
			return nil, err
		}
		return abiview.NewABIView(ctx, raw)
	default:
		return nil, i18n.NewError(ctx, codecmsgs.MsgUnsupportedInput, abiOrView)
	}
}
