// SPDX-License-Identifier: MIT

package model

import "sync/atomic"

// Token is a generation stamp issued to an asynchronous media operation.
// An operation re-checks its token before applying side effects and
// discards them when a newer generation has been issued. This is the
// sole cancellation mechanism in the playback engine.
type Token int64

// Generation is a monotonically increasing token source. The zero value
// is ready to use.
type Generation struct {
	n atomic.Int64
}

// Next invalidates all previously issued tokens and returns a fresh one.
func (g *Generation) Next() Token {
	return Token(g.n.Add(1))
}

// Current returns the most recently issued token without invalidating it.
func (g *Generation) Current() Token {
	return Token(g.n.Load())
}

// Holds reports whether t is still the current generation.
func (g *Generation) Holds(t Token) bool {
	return Token(g.n.Load()) == t
}
