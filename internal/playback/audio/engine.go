// SPDX-License-Identifier: MIT

// Package audio implements the audio playback engine: one looping track
// at a time, smooth volume fades, and generation-token cancellation of
// stale async completions.
package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/rs/zerolog"

	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/playback/model"
	"github.com/glintworks/reels/internal/playback/ports"
)

// Config tunes the engine. Zero values are replaced by defaults.
type Config struct {
	FadeIn     time.Duration
	FadeOut    time.Duration
	FadeSteps  int
	SampleRate beep.SampleRate
	// QuietFloor is the volume exponent a fade starts from / ends at
	// (base 2; -8 is roughly 1/256 of target gain).
	QuietFloor float64
}

func (c Config) withDefaults() Config {
	if c.FadeIn <= 0 {
		c.FadeIn = 500 * time.Millisecond
	}
	if c.FadeOut <= 0 {
		c.FadeOut = 500 * time.Millisecond
	}
	if c.FadeSteps <= 0 {
		c.FadeSteps = 20
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.QuietFloor >= 0 {
		c.QuietFloor = -8
	}
	return c
}

// PlayOptions control a single Play call.
type PlayOptions struct {
	FadeIn bool
	// StartOffset/EndOffset bound the loop region in seconds.
	// EndOffset nil means loop to end of track.
	StartOffset float64
	EndOffset   *float64
}

// graph is one constructed playback chain: source -> ctrl -> gain.
type graph struct {
	src  ports.AudioSource
	ctrl *beep.Ctrl
	vol  *effects.Volume
}

// Engine plays exactly one looping audio track at a time. All mutating
// operations are safe for concurrent use; stale async completions are
// discarded via generation tokens rather than abort signals.
type Engine struct {
	out    ports.Output
	dec    ports.Decoder
	cfg    Config
	logger zerolog.Logger

	gen model.Generation

	initOnce sync.Once
	initErr  error

	mu       sync.Mutex
	state    model.EngineState
	graph    *graph
	muted    bool
	stopDone chan struct{} // non-nil while a stop cycle is in flight
}

// New constructs an engine bound to the given output sink and decoder.
func New(out ports.Output, dec ports.Decoder, cfg Config) *Engine {
	return &Engine{
		out:    out,
		dec:    dec,
		cfg:    cfg.withDefaults(),
		logger: xglog.WithComponent("audio-engine"),
		state:  model.EngineIdle,
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() model.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Muted reports the current mute flag.
func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) ensureInit() error {
	e.initOnce.Do(func() {
		buf := e.cfg.SampleRate.N(100 * time.Millisecond)
		e.initErr = e.out.Init(e.cfg.SampleRate, buf)
	})
	return e.initErr
}

// stepLocked advances the state machine; illegal events are a bug and
// are logged loudly but do not panic the caller.
func (e *Engine) stepLocked(ev model.EventKind) bool {
	next, ok := model.Step(e.state, ev)
	if !ok {
		e.logger.Error().
			Str(xglog.FieldOldState, string(e.state)).
			Str(xglog.FieldEvent, string(ev)).
			Msg("illegal engine transition")
		return false
	}
	e.logger.Debug().
		Str(xglog.FieldOldState, string(e.state)).
		Str(xglog.FieldNewState, string(next)).
		Str(xglog.FieldEvent, string(ev)).
		Msg("engine transition")
	e.state = next
	return true
}

// teardownLocked releases the active graph, if any. Idempotent.
func (e *Engine) teardownLocked() {
	if e.graph == nil {
		return
	}
	e.out.Clear()
	if err := e.graph.src.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("audio source close failed")
	}
	e.graph = nil
}

// Play fully stops and releases any active track, then fetches, decodes
// and starts the track at url, looped over its offset region. With
// opts.FadeIn the volume ramps from near-silence to target over the
// configured fade duration; otherwise it starts at target immediately.
//
// If a newer Play/Stop/Dispose arrives before decode completes, the
// stale completion is discarded, its resources released, and
// model.ErrSuperseded returned.
func (e *Engine) Play(ctx context.Context, url string, opts PlayOptions) error {
	if err := e.ensureInit(); err != nil {
		return fmt.Errorf("audio output init: %w", err)
	}

	tok := e.gen.Next()

	e.mu.Lock()
	// Preempt whatever is active, including an in-flight stop cycle.
	e.finishStopCycleLocked()
	e.teardownLocked()
	if e.state != model.EngineIdle {
		e.stepLocked(model.EvDisposed)
	}
	e.stepLocked(model.EvPlayRequested)
	e.mu.Unlock()

	src, err := e.dec.Decode(ctx, url)
	if err != nil {
		e.mu.Lock()
		if e.gen.Holds(tok) && e.state == model.EngineLoading {
			e.stepLocked(model.EvLoadFailed)
		}
		e.mu.Unlock()
		metrics.IncAudioStart("decode_error")
		return fmt.Errorf("decode %s: %w", url, err)
	}

	e.mu.Lock()
	if !e.gen.Holds(tok) {
		e.mu.Unlock()
		_ = src.Close()
		metrics.IncStaleCompletion("play")
		return model.ErrSuperseded
	}

	looped, err := newLoopRegion(src, opts.StartOffset, opts.EndOffset)
	if err != nil {
		e.stepLocked(model.EvLoadFailed)
		e.mu.Unlock()
		_ = src.Close()
		metrics.IncAudioStart("seek_error")
		return fmt.Errorf("loop region for %s: %w", url, err)
	}

	var streamer beep.Streamer = looped
	if src.SampleRate() != e.cfg.SampleRate {
		streamer = beep.Resample(4, src.SampleRate(), e.cfg.SampleRate, looped)
	}

	ctrl := &beep.Ctrl{Streamer: streamer}
	vol := &effects.Volume{
		Streamer: ctrl,
		Base:     2,
		Volume:   0,
		Silent:   e.muted,
	}
	if opts.FadeIn {
		vol.Volume = e.cfg.QuietFloor
	}

	g := &graph{src: src, ctrl: ctrl, vol: vol}
	e.stepLocked(model.EvLoaded)
	e.graph = g
	e.out.Play(vol)
	e.stepLocked(model.EvStarted)
	e.mu.Unlock()

	metrics.IncAudioStart("success")

	if opts.FadeIn {
		e.ramp(tok, g, e.cfg.QuietFloor, 0, e.cfg.FadeIn, "in")
	}
	return nil
}

// Stop fades the active track to silence (when fadeOut is set), then
// tears down the playback graph and releases all decoder resources.
// A Stop while already stopping waits for the in-flight cycle instead
// of double-unloading. Stop when idle is a no-op.
func (e *Engine) Stop(fadeOut bool) {
	e.mu.Lock()

	switch {
	case e.state == model.EngineIdle:
		e.mu.Unlock()
		return

	case e.state == model.EngineLoading:
		// Cancel the pending decode; its completion will observe the
		// newer generation and discard itself.
		e.gen.Next()
		e.stepLocked(model.EvDisposed)
		e.mu.Unlock()
		return

	case e.state.IsTransient():
		done := e.stopDone
		e.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}

	// ready or playing
	tok := e.gen.Next()
	done := make(chan struct{})
	e.stopDone = done
	g := e.graph
	e.stepLocked(model.EvStopRequested)
	e.mu.Unlock()

	if fadeOut && g != nil {
		e.ramp(tok, g, e.currentVolume(g), e.cfg.QuietFloor, e.cfg.FadeOut, "out")
	}

	e.mu.Lock()
	if e.stopDone != done {
		// A newer Play/Dispose finished this cycle for us.
		e.mu.Unlock()
		return
	}
	e.stepLocked(model.EvFadedOut)
	e.teardownLocked()
	e.stepLocked(model.EvUnloaded)
	e.stopDone = nil
	close(done)
	e.mu.Unlock()
}

// finishStopCycleLocked resolves an in-flight stop cycle immediately so
// a preempting operation never leaves waiters blocked.
func (e *Engine) finishStopCycleLocked() {
	if e.stopDone == nil {
		return
	}
	close(e.stopDone)
	e.stopDone = nil
}

// SetMuted silences or restores the active track without restarting
// playback. The flag is sticky across subsequent Play calls.
func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
	if e.graph == nil {
		return
	}
	e.out.Lock()
	e.graph.vol.Silent = muted
	e.out.Unlock()
}

// SetPaused suspends or resumes the active track in place, without
// touching the decoded graph.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return
	}
	e.out.Lock()
	e.graph.ctrl.Paused = paused
	e.out.Unlock()
}

// Dispose forcefully stops playback and releases everything. Used on
// session unmount.
func (e *Engine) Dispose() {
	e.gen.Next()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishStopCycleLocked()
	e.teardownLocked()
	if e.state != model.EngineIdle {
		e.stepLocked(model.EvDisposed)
	}
}

func (e *Engine) currentVolume(g *graph) float64 {
	e.out.Lock()
	defer e.out.Unlock()
	return g.vol.Volume
}
