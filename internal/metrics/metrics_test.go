// SPDX-License-Identifier: MIT

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTransitionCounter(t *testing.T) {
	before := testutil.ToFloat64(TransitionTotal.WithLabelValues("success", "none"))
	IncTransition("success", "none")
	after := testutil.ToFloat64(TransitionTotal.WithLabelValues("success", "none"))
	assert.Equal(t, before+1, after)
}

func TestStaleCompletionCounter(t *testing.T) {
	before := testutil.ToFloat64(StaleCompletionTotal.WithLabelValues("play"))
	IncStaleCompletion("play")
	after := testutil.ToFloat64(StaleCompletionTotal.WithLabelValues("play"))
	assert.Equal(t, before+1, after)
}

func TestCacheGauges(t *testing.T) {
	SetCacheEntries(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(CacheEntries))

	before := testutil.ToFloat64(CacheEvictionTotal)
	IncCacheEviction(3)
	assert.Equal(t, before+3, testutil.ToFloat64(CacheEvictionTotal))
}

func TestObserveHelpersDoNotPanic(t *testing.T) {
	ObserveTransitionDuration(120 * time.Millisecond)
	ObserveFade("in", 500*time.Millisecond)
	ObserveFade("out", 500*time.Millisecond)
	IncAudioStart("success")
	IncAutoplayFallback("deferred")
	IncVideoError("retry")
	IncResolve("embedded")
	NavigationDroppedTotal.Inc()
}
