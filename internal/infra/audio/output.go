// SPDX-License-Identifier: MIT

// Package audio provides the speaker-backed output and the fetching
// decoder used by the daemon; tests use the in-memory testkit instead.
package audio

import (
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// SpeakerOutput plays through the host audio device via beep/speaker.
// The speaker owns a global mixer, so there is at most one per process.
type SpeakerOutput struct{}

// NewSpeakerOutput returns the device-backed output.
func NewSpeakerOutput() *SpeakerOutput {
	return &SpeakerOutput{}
}

// Init implements ports.Output.
func (*SpeakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}

// Play implements ports.Output.
func (*SpeakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

// Clear implements ports.Output.
func (*SpeakerOutput) Clear() {
	speaker.Clear()
}

// Lock implements ports.Output.
func (*SpeakerOutput) Lock() {
	speaker.Lock()
}

// Unlock implements ports.Output.
func (*SpeakerOutput) Unlock() {
	speaker.Unlock()
}
