// SPDX-License-Identifier: MIT

package testkit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/faiface/beep"

	"github.com/glintworks/reels/internal/playback/ports"
)

// MemSource is a decoded silent track of a fixed sample length.
type MemSource struct {
	url    string
	rate   beep.SampleRate
	length int
	pos    int

	closed atomic.Int32
}

// NewMemSource returns a silent source of the given length.
func NewMemSource(url string, rate beep.SampleRate, length int) *MemSource {
	return &MemSource{url: url, rate: rate, length: length}
}

// Stream implements beep.StreamSeeker with silence.
func (m *MemSource) Stream(samples [][2]float64) (int, bool) {
	if m.pos >= m.length {
		return 0, false
	}
	n := len(samples)
	if remain := m.length - m.pos; remain < n {
		n = remain
	}
	for i := 0; i < n; i++ {
		samples[i] = [2]float64{}
	}
	m.pos += n
	return n, true
}

func (m *MemSource) Err() error { return nil }

// Len implements beep.StreamSeeker.
func (m *MemSource) Len() int { return m.length }

// Position implements beep.StreamSeeker.
func (m *MemSource) Position() int { return m.pos }

// Seek implements beep.StreamSeeker.
func (m *MemSource) Seek(p int) error {
	m.pos = p
	return nil
}

// URL returns the url this source was decoded from.
func (m *MemSource) URL() string { return m.url }

// Closed reports whether Close was called at least once.
func (m *MemSource) Closed() bool { return m.closed.Load() > 0 }

type memSourceHandle struct {
	*MemSource
}

func (h memSourceHandle) Stream() beep.StreamSeeker   { return h.MemSource }
func (h memSourceHandle) SampleRate() beep.SampleRate { return h.rate }
func (h memSourceHandle) Close() error                { h.closed.Add(1); return nil }

// ScriptedDecoder decodes every URL into a silent MemSource. It can be
// gated (decode blocks until allowed) and scripted to fail per URL,
// mirroring the stepper pipeline used for orchestration tests.
type ScriptedDecoder struct {
	Rate   beep.SampleRate
	Length int

	mu      sync.Mutex
	fail    map[string]error
	gated   bool
	allow   chan struct{}
	started chan string
	decoded []*MemSource
}

// NewScriptedDecoder returns an ungated decoder producing 1s of silence.
func NewScriptedDecoder() *ScriptedDecoder {
	return &ScriptedDecoder{
		Rate:    44100,
		Length:  44100,
		fail:    make(map[string]error),
		allow:   make(chan struct{}),
		started: make(chan string, 16),
	}
}

// Gate makes subsequent Decode calls block until Allow is called.
func (d *ScriptedDecoder) Gate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gated = true
}

// Allow unblocks exactly one gated Decode call.
func (d *ScriptedDecoder) Allow() {
	d.allow <- struct{}{}
}

// FailWith makes Decode fail for the given url.
func (d *ScriptedDecoder) FailWith(url string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[url] = err
}

// DecodeStarted delivers the url of each Decode call as it begins.
func (d *ScriptedDecoder) DecodeStarted() <-chan string {
	return d.started
}

// Decode implements ports.Decoder.
func (d *ScriptedDecoder) Decode(ctx context.Context, url string) (ports.AudioSource, error) {
	select {
	case d.started <- url:
	default:
	}

	d.mu.Lock()
	gated := d.gated
	failErr := d.fail[url]
	d.mu.Unlock()

	if gated {
		select {
		case <-d.allow:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}

	src := NewMemSource(url, d.Rate, d.Length)
	d.mu.Lock()
	d.decoded = append(d.decoded, src)
	d.mu.Unlock()
	return memSourceHandle{src}, nil
}

// Decoded returns every source handed out so far.
func (d *ScriptedDecoder) Decoded() []*MemSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MemSource, len(d.decoded))
	copy(out, d.decoded)
	return out
}

// OpenSources returns the decoded sources not yet closed.
func (d *ScriptedDecoder) OpenSources() int {
	n := 0
	for _, s := range d.Decoded() {
		if !s.Closed() {
			n++
		}
	}
	return n
}
