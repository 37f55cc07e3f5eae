// SPDX-License-Identifier: MIT

package navigator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintworks/reels/internal/feed"
	"github.com/glintworks/reels/internal/playback/testkit"
)

type recorder struct {
	mu      sync.Mutex
	stops   int
	commits []int
	// order interleaves "stop" and "commit" markers
	order []string
}

func (r *recorder) ForceStop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.order = append(r.order, "stop")
}

func (r *recorder) commit(index int, _ feed.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, index)
	r.order = append(r.order, "commit")
}

func (r *recorder) committed() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.commits))
	copy(out, r.commits)
	return out
}

func testItems(n int) []feed.Item {
	items := make([]feed.Item, n)
	for i := range items {
		items[i] = feed.Item{
			ID:        fmt.Sprintf("r%d", i),
			ProductID: "1",
			VideoURL:  fmt.Sprintf("v%d.mp4", i),
			Products:  []feed.Product{{ID: "1", Name: "Ring", Price: 10}},
		}
	}
	return items
}

func newNavigator(items []feed.Item, link *testkit.MemLink, cfg Config) (*Navigator, *recorder) {
	rec := &recorder{}
	if link == nil {
		link = testkit.NewMemLink("")
	}
	return New(items, link, rec, rec.commit, cfg), rec
}

func TestWrapAround(t *testing.T) {
	nav, rec := newNavigator(testItems(3), nil, Config{CoolDown: time.Millisecond})

	require.True(t, nav.Next())
	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Next())
	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Next())
	assert.Equal(t, 0, nav.Current(), "forward wraps to the start")

	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Prev())
	assert.Equal(t, 2, nav.Current(), "backward wraps to the end")

	assert.Equal(t, []int{1, 2, 0, 2}, rec.committed())
}

func TestCoolDownDropsRapidRequests(t *testing.T) {
	nav, rec := newNavigator(testItems(5), nil, Config{CoolDown: 250 * time.Millisecond})

	committed := 0
	for i := 0; i < 6; i++ {
		if nav.Next() {
			committed++
		}
	}
	assert.Equal(t, 1, committed, "burst within the cool-down commits exactly once")
	assert.Equal(t, 1, nav.Current())
	assert.Equal(t, []int{1}, rec.committed())
}

func TestRequestsSpacedBeyondCoolDownEachCommit(t *testing.T) {
	nav, _ := newNavigator(testItems(5), nil, Config{CoolDown: 20 * time.Millisecond})

	for i := 0; i < 3; i++ {
		require.True(t, nav.Next())
		time.Sleep(30 * time.Millisecond)
	}
	assert.Equal(t, 3, nav.Current())
}

func TestForceStopPrecedesEveryCommit(t *testing.T) {
	nav, rec := newNavigator(testItems(3), nil, Config{CoolDown: time.Millisecond})

	require.True(t, nav.Next())
	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Prev())

	assert.Equal(t, []string{"stop", "commit", "stop", "commit"}, rec.order)
}

func TestSwipeThreshold(t *testing.T) {
	nav, _ := newNavigator(testItems(5), nil, Config{CoolDown: time.Millisecond, SwipeMinPx: 50})

	// Upward drag past the threshold advances.
	nav.PointerDown(400)
	nav.PointerMove(380)
	nav.PointerMove(320)
	require.True(t, nav.PointerUp())
	assert.Equal(t, 1, nav.Current())

	time.Sleep(2 * time.Millisecond)

	// Short drag is tap noise.
	nav.PointerDown(400)
	nav.PointerMove(380)
	assert.False(t, nav.PointerUp())
	assert.Equal(t, 1, nav.Current())

	// Downward drag goes back.
	nav.PointerDown(300)
	nav.PointerMove(420)
	require.True(t, nav.PointerUp())
	assert.Equal(t, 0, nav.Current())

	// Up without down is ignored.
	assert.False(t, nav.PointerUp())
}

func TestWheelThreshold(t *testing.T) {
	nav, _ := newNavigator(testItems(5), nil, Config{CoolDown: time.Millisecond, WheelMinDelta: 30})

	assert.False(t, nav.Wheel(10), "small delta is scroll noise")
	require.True(t, nav.Wheel(120))
	assert.Equal(t, 1, nav.Current())

	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Wheel(-120))
	assert.Equal(t, 0, nav.Current())
}

func TestKeyNavigation(t *testing.T) {
	nav, _ := newNavigator(testItems(5), nil, Config{CoolDown: time.Millisecond})

	require.True(t, nav.Key("ArrowDown"))
	assert.Equal(t, 1, nav.Current())

	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Key("ArrowUp"))
	assert.Equal(t, 0, nav.Current())

	assert.False(t, nav.Key("Enter"))
}

func TestDeepLinkInitialIndex(t *testing.T) {
	items := testItems(5)

	nav, _ := newNavigator(items, testkit.NewMemLink("r3"), Config{})
	assert.Equal(t, 3, nav.Current())

	nav, _ = newNavigator(items, testkit.NewMemLink("nope"), Config{})
	assert.Equal(t, 0, nav.Current(), "unknown deep link falls back to the first item")

	nav, _ = newNavigator(items, testkit.NewMemLink(""), Config{})
	assert.Equal(t, 0, nav.Current())
}

func TestDeepLinkUpdatedOnCommit(t *testing.T) {
	link := testkit.NewMemLink("")
	nav, _ := newNavigator(testItems(3), link, Config{CoolDown: time.Millisecond})

	require.True(t, nav.Next())
	time.Sleep(2 * time.Millisecond)
	require.True(t, nav.Next())

	assert.Equal(t, "r2", link.Current())
	assert.Equal(t, []string{"r1", "r2"}, link.Replaces())
}

func TestSelectBypassesCoolDown(t *testing.T) {
	nav, rec := newNavigator(testItems(5), nil, Config{CoolDown: time.Hour})

	require.True(t, nav.Select("r4"))
	assert.Equal(t, 4, nav.Current())
	assert.Equal(t, []int{4}, rec.committed())

	assert.False(t, nav.Select("r4"), "selecting the active item is a no-op")
	assert.False(t, nav.Select("nope"))
	assert.Equal(t, []int{4}, rec.committed())
}

func TestSingleItemFeedNeverNavigates(t *testing.T) {
	nav, rec := newNavigator(testItems(1), nil, Config{CoolDown: time.Millisecond})

	assert.False(t, nav.Next())
	assert.False(t, nav.Prev())
	assert.Empty(t, rec.committed())
}

func TestSetItemsKeepsActiveItem(t *testing.T) {
	items := testItems(5)
	nav, _ := newNavigator(items, nil, Config{CoolDown: time.Millisecond})
	require.True(t, nav.Next())
	require.Equal(t, 1, nav.Current())

	// Reload with r1 shifted to a new position.
	reloaded := []feed.Item{items[3], items[1], items[4]}
	nav.SetItems(reloaded)
	assert.Equal(t, 1, nav.Current())
	it, ok := nav.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "r1", it.ID)

	// Reload dropping the active item clamps to the head.
	nav.SetItems(testItems(2))
	assert.Equal(t, 0, nav.Current())
}
