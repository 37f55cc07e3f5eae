// SPDX-License-Identifier: MIT

// Package navigator turns swipe, wheel and key input into paced index
// transitions over the feed list.
package navigator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/playback/ports"
)

// Config tunes pacing and gesture thresholds.
type Config struct {
	// CoolDown is the minimum interval between committed transitions.
	// Requests arriving earlier are dropped, not queued.
	CoolDown time.Duration
	// SwipeMinPx is the vertical displacement below which a drag is
	// treated as tap or scroll noise.
	SwipeMinPx float64
	// WheelMinDelta is the wheel delta below which the event is ignored.
	WheelMinDelta float64
}

func (c Config) withDefaults() Config {
	if c.CoolDown <= 0 {
		c.CoolDown = 600 * time.Millisecond
	}
	if c.SwipeMinPx <= 0 {
		c.SwipeMinPx = 50
	}
	if c.WheelMinDelta <= 0 {
		c.WheelMinDelta = 30
	}
	return c
}

// Stopper synchronously silences and unloads all active media before an
// index change commits.
type Stopper interface {
	ForceStop()
}

// CommitFunc is invoked for every committed index change.
type CommitFunc func(index int, item feed.Item)

// Navigator owns the current feed index. It enforces the cool-down,
// interprets gestures, keeps the deep-link parameter current, and runs
// the stop-before-commit ordering on every change.
type Navigator struct {
	cfg     Config
	stopper Stopper
	link    ports.LinkState
	commit  CommitFunc
	logger  zerolog.Logger

	mu          sync.Mutex
	items       []feed.Item
	idx         int
	limiter     *rate.Limiter
	pointerDown bool
	startY      float64
	lastY       float64
}

// New builds a navigator over items. The initial index comes from the
// deep link when it matches an item id, otherwise 0. The initial item
// is not committed; the caller runs the first transition itself.
func New(items []feed.Item, link ports.LinkState, stopper Stopper, commit CommitFunc, cfg Config) *Navigator {
	cfg = cfg.withDefaults()
	n := &Navigator{
		cfg:     cfg,
		stopper: stopper,
		link:    link,
		commit:  commit,
		logger:  xglog.WithComponent("navigator"),
		items:   items,
		limiter: rate.NewLimiter(rate.Every(cfg.CoolDown), 1),
	}
	if link != nil {
		if i, ok := indexOf(items, link.Current()); ok {
			n.idx = i
		}
	}
	return n
}

func indexOf(items []feed.Item, id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := range items {
		if items[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// Current returns the active index.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.idx
}

// CurrentItem returns the active item.
func (n *Navigator) CurrentItem() (feed.Item, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return feed.Item{}, false
	}
	return n.items[n.idx], true
}

// Len returns the feed length.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

// Next advances one item, wrapping at the end. Reports whether the
// change committed.
func (n *Navigator) Next() bool { return n.navigate(1) }

// Prev goes back one item, wrapping at the start.
func (n *Navigator) Prev() bool { return n.navigate(-1) }

func (n *Navigator) navigate(dir int) bool {
	n.mu.Lock()
	if len(n.items) < 2 {
		n.mu.Unlock()
		return false
	}
	if !n.limiter.Allow() {
		n.mu.Unlock()
		metrics.IncNavigationDropped()
		n.logger.Debug().Msg("navigation dropped, cool-down active")
		return false
	}
	n.idx = (n.idx + dir + len(n.items)) % len(n.items)
	idx, item := n.idx, n.items[n.idx]
	n.mu.Unlock()

	n.commitChange(idx, item)
	return true
}

// Select jumps straight to the item with the given id, bypassing the
// cool-down. Used for deep-link changes arriving after mount. Selecting
// the already-active item is a no-op.
func (n *Navigator) Select(id string) bool {
	n.mu.Lock()
	i, ok := indexOf(n.items, id)
	if !ok || i == n.idx {
		n.mu.Unlock()
		return false
	}
	n.idx = i
	item := n.items[i]
	n.mu.Unlock()

	n.commitChange(i, item)
	return true
}

// commitChange runs the stop-before-commit ordering: all active media
// is silenced synchronously before the new index becomes visible to
// the rest of the system.
func (n *Navigator) commitChange(idx int, item feed.Item) {
	if n.stopper != nil {
		n.stopper.ForceStop()
	}
	if n.link != nil {
		if err := n.link.Replace(item.ID); err != nil {
			n.logger.Warn().Err(err).Str(xglog.FieldFeedItemID, item.ID).Msg("deep link update failed")
		}
	}
	if n.commit != nil {
		n.commit(idx, item)
	}
}

// PointerDown begins gesture tracking at the given vertical position.
func (n *Navigator) PointerDown(y float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pointerDown = true
	n.startY = y
	n.lastY = y
}

// PointerMove updates the tracked position while the pointer is down.
func (n *Navigator) PointerMove(y float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pointerDown {
		n.lastY = y
	}
}

// PointerUp ends the gesture. An upward drag past the threshold
// advances, a downward one goes back; anything shorter is ignored.
func (n *Navigator) PointerUp() bool {
	n.mu.Lock()
	if !n.pointerDown {
		n.mu.Unlock()
		return false
	}
	n.pointerDown = false
	delta := n.startY - n.lastY
	n.mu.Unlock()

	switch {
	case delta >= n.cfg.SwipeMinPx:
		return n.Next()
	case delta <= -n.cfg.SwipeMinPx:
		return n.Prev()
	default:
		return false
	}
}

// Wheel maps a wheel delta to a navigation request.
func (n *Navigator) Wheel(deltaY float64) bool {
	switch {
	case deltaY >= n.cfg.WheelMinDelta:
		return n.Next()
	case deltaY <= -n.cfg.WheelMinDelta:
		return n.Prev()
	default:
		return false
	}
}

// Key maps arrow keys to navigation requests.
func (n *Navigator) Key(key string) bool {
	switch key {
	case "ArrowDown", "PageDown":
		return n.Next()
	case "ArrowUp", "PageUp":
		return n.Prev()
	default:
		return false
	}
}

// SetItems swaps the feed list on a reload, keeping the active item
// when it survives the swap and clamping to 0 otherwise.
func (n *Navigator) SetItems(items []feed.Item) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var currentID string
	if len(n.items) > 0 {
		currentID = n.items[n.idx].ID
	}
	n.items = items
	if i, ok := indexOf(items, currentID); ok {
		n.idx = i
	} else {
		n.idx = 0
	}
}
