// SPDX-License-Identifier: MIT

package model

import "errors"

// ReasonCode classifies why a playback operation ended the way it did.
type ReasonCode string

const (
	RNone            ReasonCode = "none"
	RSuperseded      ReasonCode = "superseded"
	RDecodeFailed    ReasonCode = "decode_failed"
	RVideoFailed     ReasonCode = "video_failed"
	RAutoplayBlocked ReasonCode = "autoplay_blocked"
	RUserStop        ReasonCode = "user_stop"
	RUnmounted       ReasonCode = "unmounted"
)

// Sentinel errors shared across the playback packages.
var (
	// ErrSuperseded marks an async completion that lost to a newer
	// transition; callers treat it as an expected outcome, not a failure.
	ErrSuperseded = errors.New("superseded by newer transition")

	// ErrAutoplayBlocked signals the platform rejected unmuted playback
	// absent a user gesture.
	ErrAutoplayBlocked = errors.New("autoplay blocked by policy")

	// ErrNoActiveTrack is returned by operations that need a loaded track.
	ErrNoActiveTrack = errors.New("no active audio track")
)

// ReasonForError maps an error to its reason code for metrics/logging.
func ReasonForError(err error) ReasonCode {
	switch {
	case err == nil:
		return RNone
	case errors.Is(err, ErrSuperseded):
		return RSuperseded
	case errors.Is(err, ErrAutoplayBlocked):
		return RAutoplayBlocked
	default:
		return RDecodeFailed
	}
}
