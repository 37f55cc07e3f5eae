// SPDX-License-Identifier: MIT

// Package session is the composition root for one mounted feed view: it
// owns the audio engine, synchronizer, cache and navigator, and routes
// user input between them.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glintworks/reels/internal/feed"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/music"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/cache"
	"github.com/glintworks/reels/internal/playback/model"
	"github.com/glintworks/reels/internal/playback/navigator"
	"github.com/glintworks/reels/internal/playback/ports"
	"github.com/glintworks/reels/internal/playback/syncer"
)

// Config aggregates the tunables of every owned component.
type Config struct {
	Audio     audio.Config
	Syncer    syncer.Config
	Navigator navigator.Config
	Cache     cache.Config
}

// Deps are the platform ports a session is mounted onto.
type Deps struct {
	Output   ports.Output
	Decoder  ports.Decoder
	Factory  ports.MediaFactory
	Link     ports.LinkState
	Resolver *music.Resolver
}

// State is a read-only snapshot of the whole session.
type State struct {
	SessionID  string       `json:"sessionId"`
	Index      int          `json:"index"`
	Length     int          `json:"length"`
	Interacted bool         `json:"interacted"`
	Liked      bool         `json:"liked"`
	Playback   syncer.State `json:"playback"`
}

// Session ties the playback components to one feed view. There is
// exactly one audio engine per session, reused across transitions.
type Session struct {
	id     string
	deps   Deps
	logger zerolog.Logger

	engine *audio.Engine
	gate   *syncer.InteractionGate
	sync   *syncer.Syncer
	cache  *cache.Cache
	nav    *navigator.Navigator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	items  []feed.Item
	liked  map[string]bool
	closed bool
}

// Mount builds a session over the feed and starts the first transition
// at the deep-link index (or 0). Unmount must be called to release it.
func Mount(items []feed.Item, deps Deps, cfg Config) (*Session, error) {
	if deps.Output == nil || deps.Decoder == nil || deps.Factory == nil {
		return nil, errors.New("session: output, decoder and factory are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     uuid.NewString(),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		items:  items,
		liked:  make(map[string]bool),
	}
	s.logger = xglog.WithComponent("session").With().
		Str(xglog.FieldSessionID, s.id).Logger()

	s.engine = audio.New(deps.Output, deps.Decoder, cfg.Audio)
	s.gate = syncer.NewInteractionGate()
	s.sync = syncer.New(s.engine, s.gate, cfg.Syncer)
	s.cache = cache.New(deps.Factory, cfg.Cache)
	s.nav = navigator.New(items, deps.Link, s.sync, s.dispatch, cfg.Navigator)

	metrics.SessionsActive.Inc()
	s.logger.Info().Int("items", len(items)).Msg("session mounted")

	if it, ok := s.nav.CurrentItem(); ok {
		s.dispatch(s.nav.Current(), it)
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// dispatch runs the transition and the cache window shift for a newly
// committed index. Both are asynchronous; supersession is handled by
// the synchronizer's generation token.
func (s *Session) dispatch(index int, item feed.Item) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	items := s.items
	s.wg.Add(2)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.runTransition(item)
	}()
	go func() {
		defer s.wg.Done()
		s.cache.Shift(s.ctx, items, index)
	}()
}

func (s *Session) runTransition(item feed.Item) {
	var video ports.VideoElement
	if item.HasVideo() {
		if video = s.cache.Video(item.ID); video == nil {
			video = s.deps.Factory.NewVideo()
			video.Load(item.VideoURL)
		}
	}

	var track *music.Track
	if s.deps.Resolver != nil {
		track = s.deps.Resolver.Resolve(s.ctx, item)
	}

	err := s.sync.Transition(s.ctx, item, video, track)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrSuperseded):
		s.logger.Debug().Str(xglog.FieldFeedItemID, item.ID).Msg("transition superseded")
	case errors.Is(err, context.Canceled):
	default:
		s.logger.Warn().Err(err).Str(xglog.FieldFeedItemID, item.ID).Msg("transition failed")
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	pb := s.sync.Snapshot()
	s.mu.Lock()
	liked := s.liked[pb.ItemID]
	length := len(s.items)
	s.mu.Unlock()
	return State{
		SessionID:  s.id,
		Index:      s.nav.Current(),
		Length:     length,
		Interacted: s.gate.Interacted(),
		Liked:      liked,
		Playback:   pb,
	}
}

// PointerDown records a qualifying interaction and starts gesture
// tracking.
func (s *Session) PointerDown(y float64) {
	s.gate.MarkInteracted()
	s.nav.PointerDown(y)
}

// PointerMove updates the tracked gesture position.
func (s *Session) PointerMove(y float64) { s.nav.PointerMove(y) }

// PointerUp completes the gesture and may commit a navigation.
func (s *Session) PointerUp() bool { return s.nav.PointerUp() }

// Wheel routes a wheel delta. Wheel events are not qualifying
// interactions for the autoplay gate.
func (s *Session) Wheel(deltaY float64) bool { return s.nav.Wheel(deltaY) }

// Key records a qualifying interaction and routes the key.
func (s *Session) Key(key string) bool {
	s.gate.MarkInteracted()
	return s.nav.Key(key)
}

// Tap records a qualifying interaction. The first tap while sound is
// pending only enables audio; any other tap toggles pause.
func (s *Session) Tap() {
	pending := s.sync.Snapshot().SoundPending
	s.gate.MarkInteracted()
	if pending {
		return
	}
	s.sync.SetPaused(!s.sync.Snapshot().Paused)
}

// Next advances to the next item.
func (s *Session) Next() bool { return s.nav.Next() }

// Prev goes back to the previous item.
func (s *Session) Prev() bool { return s.nav.Prev() }

// Select jumps to the item with the given id.
func (s *Session) Select(id string) bool { return s.nav.Select(id) }

// SetMuted applies the global mute flag.
func (s *Session) SetMuted(muted bool) { s.sync.SetMuted(muted) }

// ToggleMute flips the global mute flag and returns the new value.
func (s *Session) ToggleMute() bool {
	muted := !s.sync.Muted()
	s.sync.SetMuted(muted)
	return muted
}

// SetVisible applies document visibility to the active media.
func (s *Session) SetVisible(visible bool) { s.sync.SetVisible(visible) }

// ToggleLike flips the session-local liked flag for the active item and
// returns the new value. Likes are never persisted.
func (s *Session) ToggleLike() bool {
	it, ok := s.nav.CurrentItem()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liked[it.ID] = !s.liked[it.ID]
	return s.liked[it.ID]
}

// SetItems swaps in a reloaded feed, keeping the active item where
// possible.
func (s *Session) SetItems(items []feed.Item) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.nav.SetItems(items)
}

// Unmount force-stops and releases everything the session owns. It is
// idempotent and blocks until all owned goroutines have exited.
func (s *Session) Unmount() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	// Cancel first and drain dispatch goroutines so nothing can reach
	// the engine after it is disposed.
	s.cancel()
	s.wg.Wait()
	s.sync.Close()
	s.cache.Close()
	metrics.SessionsActive.Dec()
	s.logger.Info().Msg("session unmounted")
}
