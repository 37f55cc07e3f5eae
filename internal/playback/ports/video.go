// SPDX-License-Identifier: MIT

package ports

import "context"

// ReadyState mirrors the media element readiness ladder.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// VideoEventKind identifies an asynchronous video element notification.
type VideoEventKind string

const (
	VideoWaiting VideoEventKind = "waiting"
	VideoStalled VideoEventKind = "stalled"
	VideoCanPlay VideoEventKind = "canplay"
	VideoEnded   VideoEventKind = "ended"
	VideoError   VideoEventKind = "error"
)

// VideoEvent is delivered on a VideoElement's event channel.
type VideoEvent struct {
	Kind VideoEventKind
	Err  error
}

// VideoElement abstracts one video surface. Elements are owned by the
// media cache; the synchronizer receives them as read-mostly hand-offs
// and may only drive playback state, never source lifecycle (except
// through the cache's own eviction path).
type VideoElement interface {
	Load(url string)
	Src() string

	// Play starts playback. It returns model.ErrAutoplayBlocked when
	// the platform rejects the attempt.
	Play() error
	Pause()
	Playing() bool

	SetMuted(muted bool)
	Muted() bool

	CurrentTime() float64
	Seek(seconds float64)

	ReadyState() ReadyState
	Err() error

	// ClearSource detaches the media source, releasing decoder and
	// network resources. The element may be reused after a new Load.
	ClearSource()

	// Events delivers buffering/stall/error notifications. The channel
	// is owned by the element and closed by ClearSource.
	Events() <-chan VideoEvent
}

// ImageElement abstracts one preloadable image.
type ImageElement interface {
	Load(url string)
	Src() string
	Loaded() bool
	ClearSource()
}

// MediaFactory constructs media elements and issues prefetch hints.
type MediaFactory interface {
	NewVideo() VideoElement
	NewImage() ImageElement

	// PrefetchAudio hints the platform to warm the audio URL. Failures
	// are advisory only.
	PrefetchAudio(ctx context.Context, url string) error
}
