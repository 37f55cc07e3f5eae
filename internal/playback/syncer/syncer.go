// SPDX-License-Identifier: MIT

// Package syncer keeps one video element and the audio engine's current
// track in lockstep across feed item transitions.
package syncer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/music"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/model"
	"github.com/glintworks/reels/internal/playback/ports"
)

// Config tunes the synchronizer. Zero values are replaced by defaults.
type Config struct {
	// SettleDelay is the short wait before starting new audio, so rapid
	// successive transitions do not thrash the decoder.
	SettleDelay time.Duration
	// BufferPoll is the video readiness polling interval.
	BufferPoll time.Duration
	// SlideAdvance is the image slideshow interval.
	SlideAdvance time.Duration
	// NudgeSeconds is the seek applied when the platform reports a stall.
	NudgeSeconds float64
}

func (c Config) withDefaults() Config {
	if c.SettleDelay <= 0 {
		c.SettleDelay = 40 * time.Millisecond
	}
	if c.BufferPoll <= 0 {
		c.BufferPoll = 15 * time.Millisecond
	}
	if c.SlideAdvance <= 0 {
		c.SlideAdvance = 3 * time.Second
	}
	if c.NudgeSeconds <= 0 {
		c.NudgeSeconds = 0.05
	}
	return c
}

// State is a read-only snapshot of the synchronizer.
type State struct {
	ItemID       string `json:"itemId"`
	Muted        bool   `json:"muted"`
	Paused       bool   `json:"paused"`
	Playing      bool   `json:"playing"`
	VideoFailed  bool   `json:"videoFailed"`
	SlideIndex   int    `json:"slideIndex"`
	SoundPending bool   `json:"soundPending"`
}

// Syncer sequences stop-old/start-new across the video element and the
// audio engine so no two tracks are ever audible at once. It owns the
// one engine instance for the mounted feed view.
type Syncer struct {
	engine *audio.Engine
	gate   *InteractionGate
	cfg    Config
	logger zerolog.Logger

	gen model.Generation
	wg  sync.WaitGroup

	mu          sync.Mutex
	item        feed.Item
	video       ports.VideoElement
	track       *music.Track
	muted       bool
	paused      bool
	visible     bool
	playing     bool
	videoFailed bool
	retriedAlt  bool
	slideIdx    int
	pendingSnd  bool
	quit        chan struct{}
}

// New constructs a synchronizer around the given engine and gate.
func New(engine *audio.Engine, gate *InteractionGate, cfg Config) *Syncer {
	return &Syncer{
		engine:  engine,
		gate:    gate,
		cfg:     cfg.withDefaults(),
		logger:  xglog.WithComponent("syncer"),
		visible: true,
	}
}

// Snapshot returns the current playback state.
func (s *Syncer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ItemID:       s.item.ID,
		Muted:        s.muted,
		Paused:       s.paused,
		Playing:      s.playing,
		VideoFailed:  s.videoFailed,
		SlideIndex:   s.slideIdx,
		SoundPending: s.pendingSnd,
	}
}

// beginTransition invalidates every in-flight async step and replaces
// the watcher quit channel.
func (s *Syncer) beginTransition() (model.Token, chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := s.gen.Next()
	if s.quit != nil {
		close(s.quit)
	}
	s.quit = make(chan struct{})
	return tok, s.quit
}

// Transition runs the sequenced item-change protocol: silence the old
// track, reset and prepare the new media, start audio (fade-in) and
// muted video, then apply the current mute flag. Any step that
// completes after a newer transition has begun no-ops and returns
// model.ErrSuperseded.
func (s *Syncer) Transition(ctx context.Context, item feed.Item, video ports.VideoElement, track *music.Track) error {
	tok, quit := s.beginTransition()
	started := time.Now()

	logger := s.logger.With().
		Str(xglog.FieldFeedItemID, item.ID).
		Int64(xglog.FieldGen, int64(tok)).
		Logger()

	// Silence before anything else: fade out and fully release the
	// previous track so the next item's audio can never overlap it.
	s.engine.Stop(true)
	if !s.gen.Holds(tok) {
		metrics.IncTransition("superseded", string(model.RSuperseded))
		return model.ErrSuperseded
	}

	s.mu.Lock()
	if prev := s.video; prev != nil && prev != video {
		prev.Pause()
		prev.Seek(0)
	}
	s.item = item
	s.video = video
	s.track = track
	s.playing = false
	s.videoFailed = false
	s.retriedAlt = false
	s.slideIdx = 0
	s.pendingSnd = false
	s.mu.Unlock()

	// Reset the incoming element to a known start position.
	if video != nil {
		video.Pause()
		video.Seek(0)
	}

	// Short settling delay before audio, in case another swipe is
	// already on its way.
	if track != nil {
		select {
		case <-time.After(s.cfg.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if !s.gen.Holds(tok) {
			metrics.IncTransition("superseded", string(model.RSuperseded))
			return model.ErrSuperseded
		}

		if !s.gate.Interacted() {
			s.deferAudio(tok, track)
		} else if err := s.startAudio(ctx, tok, track); err != nil && !errors.Is(err, model.ErrSuperseded) {
			// Audio failure leaves the item silent, never breaks navigation.
			logger.Warn().Err(err).Str(xglog.FieldTrack, track.URL).Msg("audio start failed, item stays silent")
		}
	}

	if item.HasVideo() && video != nil {
		// The element stays muted forever; the engine is the sole
		// audible source.
		video.SetMuted(true)
		if err := s.waitBuffered(ctx, tok, quit, video); err != nil {
			if errors.Is(err, model.ErrSuperseded) {
				metrics.IncTransition("superseded", string(model.RSuperseded))
				return err
			}
			return err
		}
		if err := video.Play(); err != nil {
			if errors.Is(err, model.ErrAutoplayBlocked) {
				metrics.IncAutoplayFallback("video_muted_start")
			} else {
				s.handleVideoError(tok, quit, video, err)
			}
		}
		s.wg.Add(1)
		go s.watchVideo(tok, quit, video)
	} else {
		n := len(item.GalleryImages)
		if n > 1 {
			s.wg.Add(1)
			go s.runSlideshow(tok, quit, n)
		}
	}

	s.mu.Lock()
	muted := s.muted
	s.playing = true
	s.paused = false
	s.mu.Unlock()
	s.engine.SetMuted(muted)

	if !s.gen.Holds(tok) {
		metrics.IncTransition("superseded", string(model.RSuperseded))
		return model.ErrSuperseded
	}
	metrics.IncTransition("success", string(model.RNone))
	metrics.ObserveTransitionDuration(time.Since(started))
	logger.Debug().Msg("transition settled")
	return nil
}

func (s *Syncer) startAudio(ctx context.Context, tok model.Token, track *music.Track) error {
	if !s.gen.Holds(tok) {
		return model.ErrSuperseded
	}
	err := s.engine.Play(ctx, track.URL, audio.PlayOptions{
		FadeIn:      true,
		StartOffset: track.StartAt,
		EndOffset:   track.EndAt,
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	muted := s.muted
	s.mu.Unlock()
	s.engine.SetMuted(muted)
	return nil
}

// deferAudio parks the track until the first user interaction, then
// issues the playback attempt immediately.
func (s *Syncer) deferAudio(tok model.Token, track *music.Track) {
	s.mu.Lock()
	s.pendingSnd = true
	s.mu.Unlock()
	metrics.IncAutoplayFallback("deferred")

	s.gate.OnFirstInteraction(func() {
		if !s.gen.Holds(tok) {
			return
		}
		s.mu.Lock()
		s.pendingSnd = false
		s.mu.Unlock()
		if err := s.startAudio(context.Background(), tok, track); err != nil && !errors.Is(err, model.ErrSuperseded) {
			s.logger.Warn().Err(err).Str(xglog.FieldTrack, track.URL).Msg("deferred audio start failed")
		}
	})
}

// waitBuffered blocks until the element reports enough buffered data to
// begin playback. Buffering delay alone never abandons the item: the
// wait only ends on readiness, supersession, element error, or caller
// cancellation. Long stalls get a small position nudge so the platform
// can resume.
func (s *Syncer) waitBuffered(ctx context.Context, tok model.Token, quit <-chan struct{}, video ports.VideoElement) error {
	ticker := time.NewTicker(s.cfg.BufferPoll)
	defer ticker.Stop()

	stalledPolls := 0
	for {
		if !s.gen.Holds(tok) {
			return model.ErrSuperseded
		}
		if err := video.Err(); err != nil {
			s.handleVideoError(tok, quit, video, err)
			return nil
		}
		if video.ReadyState() >= ports.HaveFutureData {
			return nil
		}
		stalledPolls++
		if stalledPolls%20 == 0 {
			video.Seek(video.CurrentTime() + s.cfg.NudgeSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quit:
			return model.ErrSuperseded
		case <-ticker.C:
		}
	}
}

// watchVideo reacts to element notifications for the lifetime of one
// item: stall nudges, loop-on-ended, and the error fallback chain.
func (s *Syncer) watchVideo(tok model.Token, quit <-chan struct{}, video ports.VideoElement) {
	defer s.wg.Done()
	events := video.Events()
	for {
		select {
		case <-quit:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !s.gen.Holds(tok) {
				return
			}
			switch ev.Kind {
			case ports.VideoWaiting, ports.VideoStalled:
				video.Seek(video.CurrentTime() + s.cfg.NudgeSeconds)
			case ports.VideoEnded:
				video.Seek(0)
				_ = video.Play()
			case ports.VideoError:
				if s.handleVideoError(tok, quit, video, ev.Err) {
					// Load replaced the element's channel; keep
					// draining the live one so a failed retry still
					// reaches the gallery fallback.
					events = video.Events()
				}
			case ports.VideoCanPlay:
				// informational only
			}
		}
	}
}

// handleVideoError runs the recovery ladder: one alternate-container
// retry, then the image-slideshow fallback for the rest of the item.
// It reports whether the element was reloaded with the alternate
// source, which invalidates any previously obtained events channel.
func (s *Syncer) handleVideoError(tok model.Token, quit <-chan struct{}, video ports.VideoElement, cause error) bool {
	s.mu.Lock()
	if s.videoFailed || !s.gen.Holds(tok) {
		s.mu.Unlock()
		return false
	}
	reloaded := false
	if !s.retriedAlt {
		s.retriedAlt = true
		src := video.Src()
		if src == "" {
			src = s.item.VideoURL
		}
		alt := alternateContainer(src)
		item := s.item
		s.mu.Unlock()

		if alt != "" && alt != src {
			metrics.IncVideoError("retry")
			s.logger.Info().
				Str(xglog.FieldFeedItemID, item.ID).
				Str(xglog.FieldURL, alt).
				Msg("video failed, retrying alternate container")
			video.Load(alt)
			reloaded = true
			video.SetMuted(true)
			if err := video.Play(); err == nil || errors.Is(err, model.ErrAutoplayBlocked) {
				return true
			}
		}
		// Retry impossible or immediately failed: fall through.
		s.mu.Lock()
	}

	s.videoFailed = true
	n := len(s.item.GalleryImages)
	itemID := s.item.ID
	s.mu.Unlock()

	metrics.IncVideoError("fallback")
	s.logger.Warn().Err(cause).
		Str(xglog.FieldFeedItemID, itemID).
		Msg("video failed, falling back to image gallery")

	video.Pause()
	if n > 1 {
		s.wg.Add(1)
		go s.runSlideshow(tok, quit, n)
	}
	return reloaded
}

// runSlideshow auto-advances the gallery index at a fixed interval
// until the item is superseded.
func (s *Syncer) runSlideshow(tok model.Token, quit <-chan struct{}, n int) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SlideAdvance)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if !s.gen.Holds(tok) {
				return
			}
			s.mu.Lock()
			if s.visible && !s.paused {
				s.slideIdx = (s.slideIdx + 1) % n
			}
			s.mu.Unlock()
		}
	}
}

// SetMuted applies the global mute flag; the video element always stays
// muted so the engine remains the single audible control point.
func (s *Syncer) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
	s.engine.SetMuted(muted)
}

// Muted returns the global mute flag.
func (s *Syncer) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetPaused suspends or resumes both the video element and the audio
// track in lockstep.
func (s *Syncer) SetPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	video := s.video
	hasVideo := s.item.HasVideo() && !s.videoFailed
	s.mu.Unlock()

	if video != nil && hasVideo {
		if paused {
			video.Pause()
		} else {
			_ = video.Play()
		}
	}
	s.engine.SetPaused(paused)
}

// SetVisible pauses the active video when the document is hidden and
// resumes it on return, per the visibility policy.
func (s *Syncer) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	video := s.video
	resume := visible && s.item.HasVideo() && !s.videoFailed && !s.paused
	s.mu.Unlock()

	if video == nil {
		return
	}
	if !visible {
		video.Pause()
	} else if resume {
		_ = video.Play()
	}
}

// ForceStop synchronously silences and unloads all active media. The
// navigator calls this before committing an index change, beyond the
// transition protocol's own sequencing.
func (s *Syncer) ForceStop() {
	s.mu.Lock()
	s.gen.Next()
	if s.quit != nil {
		close(s.quit)
		s.quit = nil
	}
	video := s.video
	s.playing = false
	s.mu.Unlock()

	if video != nil {
		video.Pause()
	}
	s.engine.Stop(false)
}

// Close tears the synchronizer down: supersedes all in-flight work,
// disposes the engine and releases the video binding. Used on unmount.
func (s *Syncer) Close() {
	s.mu.Lock()
	s.gen.Next()
	if s.quit != nil {
		close(s.quit)
		s.quit = nil
	}
	video := s.video
	s.video = nil
	s.playing = false
	s.mu.Unlock()

	if video != nil {
		video.Pause()
		video.ClearSource()
	}
	s.engine.Dispose()
	s.wg.Wait()
}

// alternateContainer swaps the container extension for the one retry
// the storefront serves both of.
func alternateContainer(url string) string {
	base, query, hasQuery := strings.Cut(url, "?")
	var alt string
	switch {
	case strings.HasSuffix(base, ".mp4"):
		alt = strings.TrimSuffix(base, ".mp4") + ".webm"
	case strings.HasSuffix(base, ".webm"):
		alt = strings.TrimSuffix(base, ".webm") + ".mp4"
	default:
		return ""
	}
	if hasQuery {
		return alt + "?" + query
	}
	return alt
}
