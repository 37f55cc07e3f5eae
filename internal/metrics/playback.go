// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the reels engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionTotal tracks the outcome of feed item transitions.
	TransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_transition_total",
		Help: "Total number of feed item transitions by result and reason",
	}, []string{"result", "reason"})

	// TransitionDuration tracks the time from transition start to settled playback.
	TransitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reels_transition_duration_seconds",
		Help:    "Time from transition start to settled playback",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	// AudioStartTotal tracks the outcome of audio track start attempts.
	AudioStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_audio_start_total",
		Help: "Total number of audio track start attempts by result",
	}, []string{"result"})

	// AudioFadeDuration tracks observed fade ramp durations.
	AudioFadeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reels_audio_fade_duration_seconds",
		Help:    "Observed audio fade ramp durations",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1},
	}, []string{"direction"})

	// StaleCompletionTotal counts async media completions discarded as superseded.
	StaleCompletionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_stale_completion_total",
		Help: "Async media completions discarded because a newer transition superseded them",
	}, []string{"op"})

	// AutoplayFallbackTotal counts playback attempts deferred or downgraded by autoplay policy.
	AutoplayFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_autoplay_fallback_total",
		Help: "Playback attempts deferred or downgraded by autoplay policy",
	}, []string{"kind"})

	// VideoErrorTotal counts video element failures by recovery stage.
	VideoErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reels_video_error_total",
		Help: "Video element failures by recovery stage",
	}, []string{"stage"})

	// SessionsActive tracks the number of mounted playback sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reels_sessions_active",
		Help: "Number of mounted playback sessions",
	})

	// NavigationDroppedTotal counts navigation requests dropped by the cool-down.
	NavigationDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reels_navigation_dropped_total",
		Help: "Navigation requests dropped because the cool-down had not elapsed",
	})
)

// IncTransition records a transition outcome.
func IncTransition(result, reason string) {
	TransitionTotal.WithLabelValues(result, reason).Inc()
}

// ObserveTransitionDuration records the elapsed transition time.
func ObserveTransitionDuration(d time.Duration) {
	TransitionDuration.Observe(d.Seconds())
}

// IncAudioStart records an audio start attempt outcome.
func IncAudioStart(result string) {
	AudioStartTotal.WithLabelValues(result).Inc()
}

// ObserveFade records a completed fade ramp.
func ObserveFade(direction string, d time.Duration) {
	AudioFadeDuration.WithLabelValues(direction).Observe(d.Seconds())
}

// IncStaleCompletion records a discarded stale async completion.
func IncStaleCompletion(op string) {
	StaleCompletionTotal.WithLabelValues(op).Inc()
}

// IncAutoplayFallback records an autoplay policy fallback.
func IncAutoplayFallback(kind string) {
	AutoplayFallbackTotal.WithLabelValues(kind).Inc()
}

// IncVideoError records a video failure at the given recovery stage.
func IncVideoError(stage string) {
	VideoErrorTotal.WithLabelValues(stage).Inc()
}

// IncNavigationDropped records a navigation request dropped by the cool-down.
func IncNavigationDropped() {
	NavigationDroppedTotal.Inc()
}
