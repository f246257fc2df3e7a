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

	"github.com/fsnotify/fsnotify"
	"github.com/hyperledger/firefly-common/pkg/log"
)

// fsWatcher mirrors pkg/fswallet/fslistener.go's pattern: an fsnotify
// watcher on the cache root (not its subdirectories), run in its own
// goroutine, that logs each filesystem event at trace level and each
// watcher error. Nothing else in the cache waits on or reacts to these
// events; a new artifact directory is still discovered by the next
// GetArtifact call.
type fsWatcher struct {
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

func startWatcher(ctx context.Context, root string) (*fsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	lCtx, cancel := context.WithCancel(log.WithLogField(ctx, "artifactcache", root))
	w := &fsWatcher{watcher: watcher, cancel: cancel, done: make(chan struct{})}
	go w.loop(lCtx)
	return w, nil
}

func (w *fsWatcher) loop(ctx context.Context) {
	defer func() {
		_ = w.watcher.Close()
		close(w.done)
	}()
	for {
		select {
		case <-ctx.Done():
			log.L(ctx).Debugf("Artifact cache listener exiting")
			return
		case event, ok := <-w.watcher.Events:
			if ok {
				log.L(ctx).Tracef("Artifact cache FSEvent [%s]: %s", event.Op, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if ok {
				log.L(ctx).Errorf("Artifact cache FSEvent error: %s", err)
			}
		}
	}
}

// Close stops the listener goroutine and releases the underlying watcher.
func (w *fsWatcher) Close() {
	w.cancel()
	<-w.done
}
