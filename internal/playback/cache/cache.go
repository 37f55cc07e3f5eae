// SPDX-License-Identifier: MIT

// Package cache preloads media for feed items near the current index and
// releases everything that falls outside the sliding window.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/playback/model"
	"github.com/glintworks/reels/internal/playback/ports"
)

// Config bounds the window and the preload fan-out.
type Config struct {
	// LookAhead is the number of items after the current one to retain.
	LookAhead int
	// LookBehind is the number of items before the current one to
	// retain. Zero picks the default of 1; negative disables
	// look-behind entirely.
	LookBehind int
	// Concurrency caps simultaneous preload requests.
	Concurrency int
	// GalleryPrefetch is how many gallery images to warm per item.
	GalleryPrefetch int
	// BufferPoll / BufferPolls bound the wait for video readiness. A
	// video that never buffers is kept anyway; preloading is best effort.
	BufferPoll  time.Duration
	BufferPolls int
}

func (c Config) withDefaults() Config {
	if c.LookAhead <= 0 {
		c.LookAhead = 2
	}
	if c.LookBehind == 0 {
		c.LookBehind = 1
	} else if c.LookBehind < 0 {
		c.LookBehind = 0
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.GalleryPrefetch <= 0 {
		c.GalleryPrefetch = 3
	}
	if c.BufferPoll <= 0 {
		c.BufferPoll = 15 * time.Millisecond
	}
	if c.BufferPolls <= 0 {
		c.BufferPolls = 40
	}
	return c
}

type entry struct {
	itemID string
	video  ports.VideoElement
	images []ports.ImageElement
}

func (e *entry) release() {
	if e.video != nil {
		e.video.ClearSource()
	}
	for _, img := range e.images {
		img.ClearSource()
	}
}

// Cache holds preloaded elements for the items inside the current
// window, keyed by feed item id. Stored elements are read-only hand-offs
// to the synchronizer; only the cache's own eviction path mutates them.
type Cache struct {
	factory ports.MediaFactory
	cfg     Config
	logger  zerolog.Logger

	mu sync.Mutex
	// gen stamps each shift; preloads from a superseded shift discard
	// their results instead of inserting outside the live window.
	gen     model.Generation
	entries map[string]*entry
	closed  bool
}

// New returns an empty cache building elements through factory.
func New(factory ports.MediaFactory, cfg Config) *Cache {
	return &Cache{
		factory: factory,
		cfg:     cfg.withDefaults(),
		logger:  xglog.WithComponent("cache"),
		entries: make(map[string]*entry),
	}
}

// windowBounds clamps the retained index range to the list; the feed is
// a flat list here, wrap-around is the navigator's concern.
func (c *Cache) windowBounds(current, length int) (int, int) {
	lo := current - c.cfg.LookBehind
	if lo < 0 {
		lo = 0
	}
	hi := current + c.cfg.LookAhead
	if hi > length-1 {
		hi = length - 1
	}
	return lo, hi
}

// Shift recomputes the window around current, evicts everything outside
// it and preloads what is missing. Preload failures are swallowed; the
// caller runs Shift off the navigation hot path.
func (c *Cache) Shift(ctx context.Context, items []feed.Item, current int) {
	if len(items) == 0 || current < 0 || current >= len(items) {
		return
	}
	lo, hi := c.windowBounds(current, len(items))

	keep := make(map[string]feed.Item, hi-lo+1)
	for i := lo; i <= hi; i++ {
		keep[items[i].ID] = items[i]
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// Taken under the lock so token order matches eviction order.
	tok := c.gen.Next()
	var todo []feed.Item
	for id, it := range keep {
		if _, ok := c.entries[id]; !ok {
			todo = append(todo, it)
		}
	}
	evicted := 0
	for id, e := range c.entries {
		if _, ok := keep[id]; !ok {
			e.release()
			delete(c.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.IncCacheEviction(evicted)
	}
	metrics.SetCacheEntries(len(c.entries))
	c.mu.Unlock()

	if len(todo) == 0 {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, it := range todo {
		g.Go(func() error {
			c.preload(ctx, tok, it)
			return nil
		})
	}
	_ = g.Wait()
}

// preload warms one item: its video buffer or poster plus leading
// gallery images, and an audio prefetch hint for its music url.
func (c *Cache) preload(ctx context.Context, tok model.Token, item feed.Item) {
	e := &entry{itemID: item.ID}

	if item.HasVideo() {
		v := c.factory.NewVideo()
		v.Load(item.VideoURL)
		v.SetMuted(true)
		e.video = v
		if c.waitBuffered(ctx, v) {
			metrics.IncCachePreload("video", "ok")
		} else {
			metrics.IncCachePreload("video", "pending")
		}
	}

	for _, url := range c.imageURLs(item) {
		img := c.factory.NewImage()
		img.Load(url)
		e.images = append(e.images, img)
		if img.Loaded() {
			metrics.IncCachePreload("image", "ok")
		} else {
			metrics.IncCachePreload("image", "failed")
		}
	}

	if item.Music != nil && item.Music.URL != "" {
		if err := c.factory.PrefetchAudio(ctx, item.Music.URL); err != nil {
			metrics.IncCachePreload("audio", "failed")
			c.logger.Debug().Err(err).
				Str(xglog.FieldFeedItemID, item.ID).
				Str(xglog.FieldURL, item.Music.URL).
				Msg("audio prefetch failed")
		} else {
			metrics.IncCachePreload("audio", "ok")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.gen.Holds(tok) {
		// Closed, or a newer shift moved the window past this item.
		e.release()
		return
	}
	if _, ok := c.entries[item.ID]; ok {
		// A concurrent shift won the race; keep the existing entry.
		e.release()
		return
	}
	c.entries[item.ID] = e
	metrics.SetCacheEntries(len(c.entries))
}

func (c *Cache) imageURLs(item feed.Item) []string {
	var urls []string
	if item.PosterURL != "" {
		urls = append(urls, item.PosterURL)
	}
	n := c.cfg.GalleryPrefetch
	if n > len(item.GalleryImages) {
		n = len(item.GalleryImages)
	}
	for _, u := range item.GalleryImages[:n] {
		if u != "" && u != item.PosterURL {
			urls = append(urls, u)
		}
	}
	return urls
}

func (c *Cache) waitBuffered(ctx context.Context, v ports.VideoElement) bool {
	for i := 0; i < c.cfg.BufferPolls; i++ {
		if v.Err() != nil {
			return false
		}
		if v.ReadyState() >= ports.HaveFutureData {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.cfg.BufferPoll):
		}
	}
	return false
}

// Video returns the preloaded element for the item, or nil on a miss.
// The synchronizer takes over playback control of a returned element;
// the cache keeps ownership of its source lifecycle.
func (c *Cache) Video(itemID string) ports.VideoElement {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[itemID]; ok {
		return e.video
	}
	return nil
}

// Has reports whether the item currently has a cache entry.
func (c *Cache) Has(itemID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[itemID]
	return ok
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases every entry and rejects further preloads. Used on
// unmount.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if n := len(c.entries); n > 0 {
		metrics.IncCacheEviction(n)
	}
	for id, e := range c.entries {
		e.release()
		delete(c.entries, id)
	}
	metrics.SetCacheEntries(0)
}
