// SPDX-License-Identifier: MIT

package audio

import (
	"time"

	"github.com/glintworks/reels/internal/metrics"
	"github.com/glintworks/reels/internal/playback/model"
)

// ramp moves the graph's volume exponent linearly from from to to over
// dur. Every step is a suspension point: when the token is no longer
// current the ramp aborts without touching the graph again.
func (e *Engine) ramp(tok model.Token, g *graph, from, to float64, dur time.Duration, direction string) bool {
	steps := e.cfg.FadeSteps
	interval := dur / time.Duration(steps)
	start := time.Now()

	for i := 1; i <= steps; i++ {
		if !e.gen.Holds(tok) {
			metrics.IncStaleCompletion("fade")
			return false
		}
		frac := float64(i) / float64(steps)
		e.out.Lock()
		g.vol.Volume = from + (to-from)*frac
		e.out.Unlock()
		time.Sleep(interval)
	}

	if direction == "out" {
		// Hold hard silence while the teardown completes.
		e.out.Lock()
		g.vol.Silent = true
		e.out.Unlock()
	}
	metrics.ObserveFade(direction, time.Since(start))
	return true
}
