// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CachePreloadTotal tracks preload attempts by media kind and result.
	CachePreloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_cache_preload_total",
		Help: "Media preload attempts by kind and result",
	}, []string{"kind", "result"})

	// CacheEvictionTotal counts cache entries released on window shifts.
	CacheEvictionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reels_cache_eviction_total",
		Help: "Cache entries released because they left the preload window",
	})

	// CacheEntries tracks the current number of cached media handles.
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reels_cache_entries",
		Help: "Current number of cached media handles",
	})

	// ResolverTotal tracks music resolution outcomes.
	ResolverTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_music_resolve_total",
		Help: "Music track resolution outcomes",
	}, []string{"source"})
)

// IncCachePreload records a preload attempt outcome.
func IncCachePreload(kind, result string) {
	CachePreloadTotal.WithLabelValues(kind, result).Inc()
}

// IncCacheEviction records n entries evicted on a window shift.
func IncCacheEviction(n int) {
	CacheEvictionTotal.Add(float64(n))
}

// SetCacheEntries updates the cached-handle gauge.
func SetCacheEntries(n int) {
	CacheEntries.Set(float64(n))
}

// IncResolve records where a feed item's music came from
// ("embedded", "lookup", "none", "error").
func IncResolve(source string) {
	ResolverTotal.WithLabelValues(source).Inc()
}
