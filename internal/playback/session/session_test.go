// SPDX-License-Identifier: MIT

package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/glintworks/reels/internal/feed"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/cache"
	"github.com/glintworks/reels/internal/playback/navigator"
	"github.com/glintworks/reels/internal/playback/syncer"
	"github.com/glintworks/reels/internal/playback/testkit"
)

func testItems(n int) []feed.Item {
	items := make([]feed.Item, n)
	for i := range items {
		items[i] = feed.Item{
			ID:        fmt.Sprintf("r%d", i),
			ProductID: "1",
			VideoURL:  fmt.Sprintf("v%d.mp4", i),
			Music:     &feed.MusicRef{URL: fmt.Sprintf("t%d.mp3", i)},
			Products:  []feed.Product{{ID: "1", Name: "Ring", Price: 10}},
		}
	}
	return items
}

func fastConfig() Config {
	return Config{
		Audio: audio.Config{
			FadeIn:    10 * time.Millisecond,
			FadeOut:   10 * time.Millisecond,
			FadeSteps: 2,
		},
		Syncer: syncer.Config{
			SettleDelay:  2 * time.Millisecond,
			BufferPoll:   2 * time.Millisecond,
			SlideAdvance: 20 * time.Millisecond,
		},
		Navigator: navigator.Config{CoolDown: 5 * time.Millisecond},
		Cache:     cache.Config{BufferPoll: time.Millisecond, BufferPolls: 2},
	}
}

type harness struct {
	sess *Session
	out  *testkit.StubOutput
	dec  *testkit.ScriptedDecoder
	fac  *testkit.FakeFactory
	link *testkit.MemLink
}

func mountSession(t *testing.T, items []feed.Item, deepLink string) *harness {
	t.Helper()
	h := &harness{
		out:  testkit.NewStubOutput(),
		dec:  testkit.NewScriptedDecoder(),
		fac:  testkit.NewFakeFactory(),
		link: testkit.NewMemLink(deepLink),
	}
	sess, err := Mount(items, Deps{
		Output:  h.out,
		Decoder: h.dec,
		Factory: h.fac,
		Link:    h.link,
	}, fastConfig())
	require.NoError(t, err)
	t.Cleanup(sess.Unmount)
	h.sess = sess
	return h
}

func waitForItem(t *testing.T, h *harness, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		st := h.sess.State()
		return st.Playback.ItemID == id && st.Playback.Playing
	}, time.Second, 2*time.Millisecond, "expected settled playback of %s", id)
}

func TestMountStartsAtDeepLink(t *testing.T) {
	h := mountSession(t, testItems(5), "r3")
	waitForItem(t, h, "r3")
	assert.Equal(t, 3, h.sess.State().Index)
}

func TestMountUnknownDeepLinkStartsAtHead(t *testing.T) {
	h := mountSession(t, testItems(3), "nope")
	waitForItem(t, h, "r0")
	assert.Equal(t, 0, h.sess.State().Index)
}

func TestMountRequiresPorts(t *testing.T) {
	_, err := Mount(testItems(1), Deps{}, fastConfig())
	require.Error(t, err)
}

func TestNavigationCommitsAndUpdatesDeepLink(t *testing.T) {
	h := mountSession(t, testItems(4), "")
	waitForItem(t, h, "r0")

	h.sess.PointerDown(400)
	h.sess.PointerMove(300)
	require.True(t, h.sess.PointerUp())
	waitForItem(t, h, "r1")

	assert.Equal(t, "r1", h.link.Current())
	assert.Equal(t, 1, h.sess.State().Index)
}

func TestRapidInputNeverOverlapsAudio(t *testing.T) {
	h := mountSession(t, testItems(6), "")
	waitForItem(t, h, "r0")
	h.sess.PointerDown(400)
	h.sess.PointerUp()

	for i := 0; i < 20; i++ {
		h.sess.Wheel(120)
		h.sess.Key("ArrowUp")
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return h.sess.State().Playback.Playing
	}, time.Second, 2*time.Millisecond)

	assert.LessOrEqual(t, h.out.MaxAttached(), 1,
		"one audio graph at most across the whole input storm")
}

func TestFirstTapEnablesPendingSound(t *testing.T) {
	h := mountSession(t, testItems(2), "")
	require.Eventually(t, func() bool {
		return h.sess.State().Playback.SoundPending
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, 0, h.out.Attached())

	h.sess.Tap()

	require.Eventually(t, func() bool {
		return h.out.AudibleCount() == 1
	}, time.Second, 2*time.Millisecond)
	st := h.sess.State()
	assert.True(t, st.Interacted)
	assert.False(t, st.Playback.SoundPending)
	assert.False(t, st.Playback.Paused, "the enabling tap does not pause")
}

func TestTapTogglesPauseOnceInteracted(t *testing.T) {
	h := mountSession(t, testItems(2), "")
	h.sess.PointerDown(0)
	h.sess.PointerUp()
	waitForItem(t, h, "r0")

	h.sess.Tap()
	assert.True(t, h.sess.State().Playback.Paused)
	h.sess.Tap()
	assert.False(t, h.sess.State().Playback.Paused)
}

func TestMuteAndLikeAreSessionState(t *testing.T) {
	h := mountSession(t, testItems(2), "")
	waitForItem(t, h, "r0")

	assert.True(t, h.sess.ToggleMute())
	assert.True(t, h.sess.State().Playback.Muted)
	assert.False(t, h.sess.ToggleMute())

	assert.True(t, h.sess.ToggleLike())
	assert.True(t, h.sess.State().Liked)
	assert.False(t, h.sess.ToggleLike())
	assert.False(t, h.sess.State().Liked)
}

func TestCacheFollowsNavigation(t *testing.T) {
	h := mountSession(t, testItems(8), "")
	waitForItem(t, h, "r0")

	require.True(t, h.sess.Select("r4"))
	waitForItem(t, h, "r4")

	// Look-behind 1 / look-ahead 2 around index 4.
	require.Eventually(t, func() bool {
		for _, v := range h.fac.Videos() {
			src := v.Src()
			if src == "" {
				continue
			}
			switch src {
			case "v3.mp4", "v4.mp4", "v5.mp4", "v6.mp4", "v0.mp4", "v1.mp4", "v2.mp4":
			default:
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestUnmountReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	items := testItems(4)
	out := testkit.NewStubOutput()
	dec := testkit.NewScriptedDecoder()
	fac := testkit.NewFakeFactory()
	sess, err := Mount(items, Deps{
		Output:  out,
		Decoder: dec,
		Factory: fac,
		Link:    testkit.NewMemLink(""),
	}, fastConfig())
	require.NoError(t, err)

	sess.PointerDown(0)
	sess.PointerUp()
	require.Eventually(t, func() bool {
		return sess.State().Playback.Playing
	}, time.Second, 2*time.Millisecond)

	sess.Unmount()
	sess.Unmount() // idempotent

	assert.Equal(t, 0, out.Attached())
	assert.Equal(t, 0, dec.OpenSources())
	for _, v := range fac.Videos() {
		assert.Empty(t, v.Src(), "cached video sources cleared on unmount")
	}
	assert.False(t, sess.State().Playback.Playing)
}
