// SPDX-License-Identifier: MIT

package media

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/glintworks/reels/internal/playback/ports"
)

// probeVideo satisfies ports.VideoElement for a surface-less process:
// readiness comes from an availability probe and the playback position
// advances on the wall clock while playing.
type probeVideo struct {
	client *http.Client

	mu      sync.Mutex
	src     string
	lastErr error
	ready   ports.ReadyState
	muted   bool
	playing bool
	base    float64   // position when playback state last changed
	since   time.Time // wall-clock anchor while playing
	events  chan ports.VideoEvent
	cancel  context.CancelFunc
}

func newProbeVideo(client *http.Client) *probeVideo {
	return &probeVideo{client: client}
}

// Load implements ports.VideoElement. The availability probe runs in
// the background; readiness and errors surface through ReadyState/Err
// and the event channel.
func (v *probeVideo) Load(url string) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.src = url
	v.lastErr = nil
	v.ready = ports.HaveNothing
	v.playing = false
	v.base = 0
	v.events = make(chan ports.VideoEvent, 16)
	events := v.events
	v.mu.Unlock()

	go func() {
		err := probe(ctx, v.client, url)
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.events != events {
			// A newer Load or ClearSource superseded this probe.
			return
		}
		ev := ports.VideoEvent{Kind: ports.VideoCanPlay}
		if err != nil {
			v.lastErr = err
			ev = ports.VideoEvent{Kind: ports.VideoError, Err: err}
		} else {
			v.ready = ports.HaveEnoughData
		}
		// Non-blocking: drop the event if nobody is draining. The
		// channel cannot be closed here, ClearSource holds the lock.
		select {
		case events <- ev:
		default:
		}
	}()
}

// Src implements ports.VideoElement.
func (v *probeVideo) Src() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src
}

// Play implements ports.VideoElement. A headless surface has no
// autoplay policy, so Play only fails on a failed source.
func (v *probeVideo) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastErr != nil {
		return v.lastErr
	}
	if !v.playing {
		v.playing = true
		v.since = time.Now()
	}
	return nil
}

// Pause implements ports.VideoElement.
func (v *probeVideo) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		v.base += time.Since(v.since).Seconds()
		v.playing = false
	}
}

// Playing implements ports.VideoElement.
func (v *probeVideo) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

// SetMuted implements ports.VideoElement.
func (v *probeVideo) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = muted
}

// Muted implements ports.VideoElement.
func (v *probeVideo) Muted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.muted
}

// CurrentTime implements ports.VideoElement.
func (v *probeVideo) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playing {
		return v.base + time.Since(v.since).Seconds()
	}
	return v.base
}

// Seek implements ports.VideoElement.
func (v *probeVideo) Seek(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	v.base = seconds
	v.since = time.Now()
}

// ReadyState implements ports.VideoElement.
func (v *probeVideo) ReadyState() ports.ReadyState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// Err implements ports.VideoElement.
func (v *probeVideo) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// ClearSource implements ports.VideoElement.
func (v *probeVideo) ClearSource() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.src = ""
	v.playing = false
	v.ready = ports.HaveNothing
	v.base = 0
	if v.events != nil {
		close(v.events)
		v.events = nil
	}
}

// Events implements ports.VideoElement.
func (v *probeVideo) Events() <-chan ports.VideoEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.events == nil {
		v.events = make(chan ports.VideoEvent, 16)
	}
	return v.events
}

// probeImage satisfies ports.ImageElement with a synchronous
// availability probe; image preloading already runs off the hot path.
type probeImage struct {
	client *http.Client

	mu     sync.Mutex
	src    string
	loaded bool
}

// Load implements ports.ImageElement.
func (i *probeImage) Load(url string) {
	err := probe(context.Background(), i.client, url)
	i.mu.Lock()
	defer i.mu.Unlock()
	i.src = url
	i.loaded = err == nil
}

// Src implements ports.ImageElement.
func (i *probeImage) Src() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.src
}

// Loaded implements ports.ImageElement.
func (i *probeImage) Loaded() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loaded
}

// ClearSource implements ports.ImageElement.
func (i *probeImage) ClearSource() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.src = ""
	i.loaded = false
}
