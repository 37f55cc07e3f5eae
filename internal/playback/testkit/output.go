// SPDX-License-Identifier: MIT

// Package testkit provides in-memory stand-ins for the playback ports,
// used by unit tests and the soak harness.
package testkit

import (
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
)

// StubOutput is a silent audio sink that records what is attached to it.
type StubOutput struct {
	mu sync.Mutex

	inited     bool
	rate       beep.SampleRate
	attached   []beep.Streamer
	maxAttach  int
	initCalls  int
	clearCalls int
}

// NewStubOutput returns a ready-to-use silent sink.
func NewStubOutput() *StubOutput {
	return &StubOutput{}
}

// Init implements ports.Output.
func (o *StubOutput) Init(rate beep.SampleRate, bufferSize int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inited = true
	o.rate = rate
	o.initCalls++
	return nil
}

// Play implements ports.Output.
func (o *StubOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = append(o.attached, s)
	if len(o.attached) > o.maxAttach {
		o.maxAttach = len(o.attached)
	}
}

// Clear implements ports.Output.
func (o *StubOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attached = nil
	o.clearCalls++
}

// Lock implements ports.Output.
func (o *StubOutput) Lock() { o.mu.Lock() }

// Unlock implements ports.Output.
func (o *StubOutput) Unlock() { o.mu.Unlock() }

// Attached returns the number of currently attached streamers.
func (o *StubOutput) Attached() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.attached)
}

// MaxAttached returns the high-water mark of simultaneously attached
// streamers over the sink's lifetime.
func (o *StubOutput) MaxAttached() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxAttach
}

// AudibleCount returns the number of attached streamers currently
// producing non-silent gain.
func (o *StubOutput) AudibleCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, s := range o.attached {
		if v, ok := s.(*effects.Volume); ok && !v.Silent {
			n++
		}
	}
	return n
}

// ClearCalls returns how many times the sink was cleared.
func (o *StubOutput) ClearCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clearCalls
}

// Pump streams n samples through every attached streamer, simulating
// the platform sample callback.
func (o *StubOutput) Pump(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	buf := make([][2]float64, n)
	for _, s := range o.attached {
		_, _ = s.Stream(buf)
	}
}
