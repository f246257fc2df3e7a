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

import (
	"context"

	"github.com/gofrs/flock"
	"github.com/hyperledger/firefly-common/pkg/i18n"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// dirLock is a scoped handle over an artifact directory's lock file
// (spec.md §4.F "Locking"): writers take it exclusively, readers
// shared. The lock file is created but never deleted - it outlives any
// single generation.
//
// The lock file lives as a sibling of the fingerprint directory
// (<logical_name>/<fingerprint>.lock), not nested inside it, because the
// fingerprint directory itself is published by a single atomic
// os.Rename of a uuid-named temp directory (spec.md §5) - nesting the
// lock inside the published directory would make that rename target a
// pre-existing non-empty directory and fail.
type dirLock struct {
	fl     *flock.Flock
	shared bool
}

// lockDir acquires a shared or exclusive lock on lockPath, blocking
// until it is available (spec.md §5 "Filesystem locks block until
// acquired").
func lockDir(ctx context.Context, lockPath string, shared bool) (*dirLock, error) {
	fl := flock.New(lockPath)
	var err error
	if shared {
		err = fl.RLock()
	} else {
		err = fl.Lock()
	}
	if err != nil {
		kind := "exclusive"
		if shared {
			kind = "shared"
		}
		return nil, i18n.NewError(ctx, codecmsgs.MsgCacheLockFailed, kind, lockPath, err)
	}
	return &dirLock{fl: fl, shared: shared}, nil
}

func (l *dirLock) Unlock() error {
	return l.fl.Unlock()
}
