// SPDX-License-Identifier: MIT

package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintworks/reels/internal/playback/ports"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.mp4", "/ok.jpg", "/ok.mp3":
			w.Write([]byte("payload"))
		case "/headless.mp4":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.Write([]byte("payload"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVideoBecomesReadyAfterProbe(t *testing.T) {
	srv := testServer(t)
	f := NewFactory(srv.Client())

	v := f.NewVideo()
	v.Load(srv.URL + "/ok.mp4")

	require.Eventually(t, func() bool {
		return v.ReadyState() >= ports.HaveFutureData
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, v.Err())

	select {
	case ev := <-v.Events():
		assert.Equal(t, ports.VideoCanPlay, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no canplay event")
	}
}

func TestVideoProbeFallsBackToRangedGet(t *testing.T) {
	srv := testServer(t)
	f := NewFactory(srv.Client())

	v := f.NewVideo()
	v.Load(srv.URL + "/headless.mp4")

	require.Eventually(t, func() bool {
		return v.ReadyState() >= ports.HaveFutureData
	}, time.Second, 5*time.Millisecond)
}

func TestVideoProbeFailureSurfacesError(t *testing.T) {
	srv := testServer(t)
	f := NewFactory(srv.Client())

	v := f.NewVideo()
	v.Load(srv.URL + "/missing.mp4")

	require.Eventually(t, func() bool {
		return v.Err() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ports.HaveNothing, v.ReadyState())

	select {
	case ev := <-v.Events():
		assert.Equal(t, ports.VideoError, ev.Kind)
		assert.Error(t, ev.Err)
	case <-time.After(time.Second):
		t.Fatal("no error event")
	}
}

func TestVideoClockPosition(t *testing.T) {
	srv := testServer(t)
	v := NewFactory(srv.Client()).NewVideo()
	v.Load(srv.URL + "/ok.mp4")
	require.Eventually(t, func() bool {
		return v.ReadyState() >= ports.HaveFutureData
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, v.Play())
	assert.True(t, v.Playing())
	time.Sleep(30 * time.Millisecond)
	v.Pause()
	pos := v.CurrentTime()
	assert.Greater(t, pos, 0.0)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, v.CurrentTime(), "position frozen while paused")

	v.Seek(1.5)
	assert.InDelta(t, 1.5, v.CurrentTime(), 0.01)
}

func TestVideoClearSourceSupersedesProbe(t *testing.T) {
	srv := testServer(t)
	v := NewFactory(srv.Client()).NewVideo()

	v.Load(srv.URL + "/ok.mp4")
	v.ClearSource()

	assert.Empty(t, v.Src())
	assert.Equal(t, ports.HaveNothing, v.ReadyState())
	assert.False(t, v.Playing())

	// A fresh load after clearing still works.
	v.Load(srv.URL + "/ok.mp4")
	require.Eventually(t, func() bool {
		return v.ReadyState() >= ports.HaveFutureData
	}, time.Second, 5*time.Millisecond)
}

func TestImageLoads(t *testing.T) {
	srv := testServer(t)
	f := NewFactory(srv.Client())

	img := f.NewImage()
	img.Load(srv.URL + "/ok.jpg")
	assert.True(t, img.Loaded())
	assert.Equal(t, srv.URL+"/ok.jpg", img.Src())

	img.Load(srv.URL + "/missing.jpg")
	assert.False(t, img.Loaded())

	img.ClearSource()
	assert.Empty(t, img.Src())
}

func TestPrefetchAudio(t *testing.T) {
	srv := testServer(t)
	f := NewFactory(srv.Client())

	require.NoError(t, f.PrefetchAudio(context.Background(), srv.URL+"/ok.mp3"))
	assert.Error(t, f.PrefetchAudio(context.Background(), srv.URL+"/missing.mp3"))
}
