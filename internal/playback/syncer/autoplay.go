// SPDX-License-Identifier: MIT

package syncer

import "sync"

// InteractionGate tracks whether the user has performed at least one
// qualifying interaction (pointer-down or key-down). Until then audio
// playback attempts are suppressed and a "tap to enable sound"
// affordance is shown instead. The gate is owned by the mounted
// session, not global state, so teardown stays deterministic.
type InteractionGate struct {
	mu         sync.Mutex
	interacted bool
	deferred   []func()
}

// NewInteractionGate returns a gate with no interaction recorded.
func NewInteractionGate() *InteractionGate {
	return &InteractionGate{}
}

// Interacted reports whether a qualifying interaction has occurred.
func (g *InteractionGate) Interacted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.interacted
}

// MarkInteracted records the first interaction and fires any deferred
// playback attempts exactly once. Subsequent calls are no-ops.
func (g *InteractionGate) MarkInteracted() {
	g.mu.Lock()
	if g.interacted {
		g.mu.Unlock()
		return
	}
	g.interacted = true
	fns := g.deferred
	g.deferred = nil
	g.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// OnFirstInteraction registers fn to run when the first interaction
// arrives. If it already has, fn runs immediately.
func (g *InteractionGate) OnFirstInteraction(fn func()) {
	g.mu.Lock()
	if g.interacted {
		g.mu.Unlock()
		fn()
		return
	}
	g.deferred = append(g.deferred, fn)
	g.mu.Unlock()
}
