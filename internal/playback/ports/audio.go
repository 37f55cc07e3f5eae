// SPDX-License-Identifier: MIT

// Package ports defines the contracts between the playback engine and
// the platform media primitives. Implementations live in
// internal/infra and internal/playback/testkit.
package ports

import (
	"context"

	"github.com/faiface/beep"
)

// AudioSource is a decoded, seekable audio stream plus its metadata.
// Close releases the decoder and any backing network resources; it must
// be safe to call more than once.
type AudioSource interface {
	Stream() beep.StreamSeeker
	SampleRate() beep.SampleRate
	Close() error
}

// Decoder fetches and decodes the audio at url into a playable source.
// Decode is a suspension point: callers stamp it with a generation token
// and discard the result (closing the source) when superseded.
type Decoder interface {
	Decode(ctx context.Context, url string) (AudioSource, error)
}

// Output is the single audio sink. Init is called once per process;
// Play attaches a streamer, Clear detaches everything. Lock/Unlock
// guard mutation of attached streamers (volume, pause) against the
// sink's sample pump.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}
