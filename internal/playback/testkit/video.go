// SPDX-License-Identifier: MIT

package testkit

import (
	"context"
	"sync"

	"github.com/glintworks/reels/internal/playback/model"
	"github.com/glintworks/reels/internal/playback/ports"
)

// FakeVideo simulates a video element: readiness, playback flags,
// scripted errors and event delivery.
type FakeVideo struct {
	mu sync.Mutex

	src        string
	playing    bool
	muted      bool
	current    float64
	ready      ports.ReadyState
	lastErr    error
	events     chan ports.VideoEvent
	loadCount  int
	seekCount  int
	playCalls  int
	pauseCalls int

	// scripting
	ReadyOnLoad   ports.ReadyState // readiness reached right after Load
	FailURLs      map[string]error // Load of these urls emits an error event
	BlockPlay     bool             // Play returns model.ErrAutoplayBlocked
	BlockUnmuted  bool             // Play fails only while unmuted
	clearedSrcLog []string
}

// NewFakeVideo returns an element that buffers instantly.
func NewFakeVideo() *FakeVideo {
	return &FakeVideo{
		ReadyOnLoad: ports.HaveEnoughData,
		FailURLs:    make(map[string]error),
	}
}

// Load implements ports.VideoElement.
func (v *FakeVideo) Load(url string) {
	v.mu.Lock()
	v.src = url
	v.current = 0
	v.playing = false
	v.lastErr = nil
	v.loadCount++
	v.events = make(chan ports.VideoEvent, 16)
	if err, ok := v.FailURLs[url]; ok {
		v.ready = ports.HaveNothing
		v.lastErr = err
		ev := v.events
		v.mu.Unlock()
		ev <- ports.VideoEvent{Kind: ports.VideoError, Err: err}
		return
	}
	v.ready = v.ReadyOnLoad
	v.mu.Unlock()
}

// Src implements ports.VideoElement.
func (v *FakeVideo) Src() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src
}

// Play implements ports.VideoElement.
func (v *FakeVideo) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playCalls++
	if v.lastErr != nil {
		return v.lastErr
	}
	if v.BlockPlay || (v.BlockUnmuted && !v.muted) {
		return model.ErrAutoplayBlocked
	}
	v.playing = true
	return nil
}

// Pause implements ports.VideoElement.
func (v *FakeVideo) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pauseCalls++
	v.playing = false
}

// Playing implements ports.VideoElement.
func (v *FakeVideo) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

// SetMuted implements ports.VideoElement.
func (v *FakeVideo) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.muted = muted
}

// Muted implements ports.VideoElement.
func (v *FakeVideo) Muted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.muted
}

// CurrentTime implements ports.VideoElement.
func (v *FakeVideo) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Seek implements ports.VideoElement.
func (v *FakeVideo) Seek(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = seconds
	v.seekCount++
}

// ReadyState implements ports.VideoElement.
func (v *FakeVideo) ReadyState() ports.ReadyState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// SetReadyState drives buffering progress from a test.
func (v *FakeVideo) SetReadyState(s ports.ReadyState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ready = s
}

// Err implements ports.VideoElement.
func (v *FakeVideo) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// Emit delivers an event to the element's listeners.
func (v *FakeVideo) Emit(ev ports.VideoEvent) {
	v.mu.Lock()
	ch := v.events
	if ev.Kind == ports.VideoError {
		v.lastErr = ev.Err
	}
	v.mu.Unlock()
	if ch != nil {
		ch <- ev
	}
}

// ClearSource implements ports.VideoElement.
func (v *FakeVideo) ClearSource() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.src != "" {
		v.clearedSrcLog = append(v.clearedSrcLog, v.src)
	}
	v.src = ""
	v.playing = false
	v.ready = ports.HaveNothing
	if v.events != nil {
		close(v.events)
		v.events = nil
	}
}

// Events implements ports.VideoElement.
func (v *FakeVideo) Events() <-chan ports.VideoEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.events == nil {
		v.events = make(chan ports.VideoEvent, 16)
	}
	return v.events
}

// Cleared reports whether the source was released at least once.
func (v *FakeVideo) Cleared() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.clearedSrcLog) > 0
}

// LoadCount returns how many times Load was called.
func (v *FakeVideo) LoadCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadCount
}

// SeekCount returns how many times Seek was called.
func (v *FakeVideo) SeekCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seekCount
}

// PauseCalls returns how many times Pause was called.
func (v *FakeVideo) PauseCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pauseCalls
}

// FakeImage simulates a preloadable image.
type FakeImage struct {
	mu      sync.Mutex
	src     string
	loaded  bool
	cleared bool

	FailLoad bool
}

// Load implements ports.ImageElement.
func (i *FakeImage) Load(url string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.src = url
	i.loaded = !i.FailLoad
}

// Src implements ports.ImageElement.
func (i *FakeImage) Src() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.src
}

// Loaded implements ports.ImageElement.
func (i *FakeImage) Loaded() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.loaded
}

// ClearSource implements ports.ImageElement.
func (i *FakeImage) ClearSource() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.src = ""
	i.loaded = false
	i.cleared = true
}

// Cleared reports whether the image source was released.
func (i *FakeImage) Cleared() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cleared
}

// FakeFactory builds fake elements and records prefetch hints.
type FakeFactory struct {
	mu       sync.Mutex
	videos   []*FakeVideo
	images   []*FakeImage
	prefetch []string

	// VideoTemplate configures scripting applied to each new video.
	VideoTemplate func(*FakeVideo)
}

// NewFakeFactory returns an empty factory.
func NewFakeFactory() *FakeFactory {
	return &FakeFactory{}
}

// NewVideo implements ports.MediaFactory.
func (f *FakeFactory) NewVideo() ports.VideoElement {
	v := NewFakeVideo()
	if f.VideoTemplate != nil {
		f.VideoTemplate(v)
	}
	f.mu.Lock()
	f.videos = append(f.videos, v)
	f.mu.Unlock()
	return v
}

// NewImage implements ports.MediaFactory.
func (f *FakeFactory) NewImage() ports.ImageElement {
	i := &FakeImage{}
	f.mu.Lock()
	f.images = append(f.images, i)
	f.mu.Unlock()
	return i
}

// PrefetchAudio implements ports.MediaFactory.
func (f *FakeFactory) PrefetchAudio(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefetch = append(f.prefetch, url)
	return nil
}

// Videos returns every video element created so far.
func (f *FakeFactory) Videos() []*FakeVideo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeVideo, len(f.videos))
	copy(out, f.videos)
	return out
}

// Images returns every image element created so far.
func (f *FakeFactory) Images() []*FakeImage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeImage, len(f.images))
	copy(out, f.images)
	return out
}

// PrefetchedAudio returns the recorded audio prefetch hints.
func (f *FakeFactory) PrefetchedAudio() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prefetch))
	copy(out, f.prefetch)
	return out
}

// MemLink is an in-memory ports.LinkState.
type MemLink struct {
	mu       sync.Mutex
	value    string
	replaces []string
}

// NewMemLink returns a link primed with the given initial deep link.
func NewMemLink(initial string) *MemLink {
	return &MemLink{value: initial}
}

// Current implements ports.LinkState.
func (l *MemLink) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// Replace implements ports.LinkState.
func (l *MemLink) Replace(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = id
	l.replaces = append(l.replaces, id)
	return nil
}

// Replaces returns every Replace call in order.
func (l *MemLink) Replaces() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.replaces))
	copy(out, l.replaces)
	return out
}
