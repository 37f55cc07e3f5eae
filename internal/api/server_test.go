// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintworks/reels/internal/feed"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/cache"
	"github.com/glintworks/reels/internal/playback/navigator"
	"github.com/glintworks/reels/internal/playback/session"
	"github.com/glintworks/reels/internal/playback/syncer"
	"github.com/glintworks/reels/internal/playback/testkit"
)

type staticSource struct{ items []feed.Item }

func (s *staticSource) Items() []feed.Item { return s.items }

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

func mountTestSession(t *testing.T, items []feed.Item) *session.Session {
	t.Helper()
	sess, err := session.Mount(items, session.Deps{
		Output:  testkit.NewStubOutput(),
		Decoder: testkit.NewScriptedDecoder(),
		Factory: testkit.NewFakeFactory(),
		Link:    testkit.NewMemLink(""),
	}, session.Config{
		Audio:     audio.Config{FadeIn: 10 * time.Millisecond, FadeOut: 10 * time.Millisecond, FadeSteps: 2},
		Syncer:    syncer.Config{SettleDelay: 2 * time.Millisecond, BufferPoll: 2 * time.Millisecond},
		Navigator: navigator.Config{CoolDown: 2 * time.Millisecond},
		Cache:     cache.Config{BufferPoll: time.Millisecond, BufferPolls: 2},
	})
	require.NoError(t, err)
	t.Cleanup(sess.Unmount)
	return sess
}

func newTestServer(t *testing.T, items []feed.Item, sess *session.Session) *httptest.Server {
	t.Helper()
	srv := New(Config{RateLimit: 10000}, &staticSource{items: items}, func() *session.Session { return sess })
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postInput(t *testing.T, url string, ev any) (int, session.State) {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/v1/session/input", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var st session.State
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	}
	return resp.StatusCode, st
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, testItems(2), mountTestSession(t, testItems(2)))
	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestReadyzReflectsFeedAndSession(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/readyz", nil))

	items := testItems(2)
	ts = newTestServer(t, items, nil)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/readyz", nil))

	ts = newTestServer(t, items, mountTestSession(t, items))
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/readyz", nil))
}

func TestFeedEndpoints(t *testing.T) {
	items := testItems(3)
	ts := newTestServer(t, items, mountTestSession(t, items))

	var listing struct {
		Items []feed.Item `json:"items"`
		Count int         `json:"count"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/feed", &listing))
	assert.Equal(t, 3, listing.Count)
	assert.Len(t, listing.Items, 3)

	var item feed.Item
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/feed/r1", &item))
	assert.Equal(t, "r1", item.ID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/v1/feed/nope", nil))
}

func TestSessionStateEndpoint(t *testing.T) {
	items := testItems(3)
	sess := mountTestSession(t, items)
	ts := newTestServer(t, items, sess)

	var st session.State
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/session", &st))
	assert.Equal(t, sess.ID(), st.SessionID)
	assert.Equal(t, 3, st.Length)
}

func TestSessionStateWithoutMount(t *testing.T) {
	ts := newTestServer(t, testItems(1), nil)
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/api/v1/session", nil))
}

func TestInputEventsDriveTheSession(t *testing.T) {
	items := testItems(4)
	sess := mountTestSession(t, items)
	ts := newTestServer(t, items, sess)

	status, st := postInput(t, ts.URL, map[string]any{"type": "key", "key": "ArrowDown"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, st.Index)
	assert.True(t, st.Interacted)

	status, st = postInput(t, ts.URL, map[string]any{"type": "mute", "value": true})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, st.Playback.Muted)

	status, st = postInput(t, ts.URL, map[string]any{"type": "like"})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, st.Liked)

	status, st = postInput(t, ts.URL, map[string]any{"type": "select", "itemId": "r3"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, st.Index)
}

func TestInputValidation(t *testing.T) {
	items := testItems(2)
	ts := newTestServer(t, items, mountTestSession(t, items))

	status, _ := postInput(t, ts.URL, map[string]any{"type": "teleport"})
	assert.Equal(t, http.StatusBadRequest, status)

	resp, err := http.Post(ts.URL+"/api/v1/session/input", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInputRateLimit(t *testing.T) {
	items := testItems(2)
	sess := mountTestSession(t, items)
	srv := New(Config{RateLimit: 3}, &staticSource{items: items}, func() *session.Session { return sess })
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	var last int
	for i := 0; i < 5; i++ {
		last, _ = postInput(t, ts.URL, map[string]any{"type": "tap"})
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRequestIDEchoed(t *testing.T) {
	items := testItems(1)
	ts := newTestServer(t, items, mountTestSession(t, items))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), "generated when absent")
}
