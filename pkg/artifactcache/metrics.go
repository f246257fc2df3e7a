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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics are process-global: every artifactcache.Cache instance in the
// process shares one registration, guarded by registerOnce so opening
// multiple caches (e.g. in tests) never panics on a duplicate
// registration with the default registry.
var (
	registerOnce sync.Once

	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jitabi_artifact_cache_hits_total",
		Help: "Count of artifact cache lookups served from memory or disk without generation.",
	}, []string{"logical_name"})

	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jitabi_artifact_cache_misses_total",
		Help: "Count of artifact cache lookups that required generating a new artifact.",
	}, []string{"logical_name"})

	generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jitabi_artifact_generation_duration_seconds",
		Help:    "Time spent generating a new artifact on a cache miss.",
		Buckets: prometheus.DefBuckets,
	}, []string{"logical_name"})

	warmStartSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jitabi_artifact_cache_warmstart_skips_total",
		Help: "Count of on-disk cache entries skipped during warm-start due to missing or malformed params.json.",
	}, []string{})
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(cacheHits, cacheMisses, generationDuration, warmStartSkips)
	})
}
