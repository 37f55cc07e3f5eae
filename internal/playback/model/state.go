// SPDX-License-Identifier: MIT

// Package model holds the dependency-free playback domain types:
// engine states, transition events, reason codes and generation tokens.
package model

// EngineState is the lifecycle state of the audio playback engine.
type EngineState string

const (
	EngineIdle      EngineState = "idle"
	EngineLoading   EngineState = "loading"
	EngineReady     EngineState = "ready"
	EnginePlaying   EngineState = "playing"
	EngineStopping  EngineState = "stopping"
	EngineUnloading EngineState = "unloading"
)

// EventKind identifies an engine lifecycle event.
type EventKind string

const (
	EvPlayRequested EventKind = "play_requested"
	EvLoaded        EventKind = "loaded"
	EvStarted       EventKind = "started"
	EvLoadFailed    EventKind = "load_failed"
	EvStopRequested EventKind = "stop_requested"
	EvFadedOut      EventKind = "faded_out"
	EvUnloaded      EventKind = "unloaded"
	EvDisposed      EventKind = "disposed"
)

// Transition is a single allowed edge in the engine state machine.
type Transition struct {
	From  EngineState
	To    EngineState
	Event EventKind
}

var transitionsTable = []Transition{
	// Start path
	{From: EngineIdle, To: EngineLoading, Event: EvPlayRequested},
	{From: EngineLoading, To: EngineReady, Event: EvLoaded},
	{From: EngineReady, To: EnginePlaying, Event: EvStarted},

	// Load failure returns to idle
	{From: EngineLoading, To: EngineIdle, Event: EvLoadFailed},

	// Stop path (fade, then unload)
	{From: EnginePlaying, To: EngineStopping, Event: EvStopRequested},
	{From: EngineReady, To: EngineStopping, Event: EvStopRequested},
	{From: EngineStopping, To: EngineUnloading, Event: EvFadedOut},
	{From: EngineUnloading, To: EngineIdle, Event: EvUnloaded},

	// Dispose forces idle from any non-idle state
	{From: EngineLoading, To: EngineIdle, Event: EvDisposed},
	{From: EngineReady, To: EngineIdle, Event: EvDisposed},
	{From: EnginePlaying, To: EngineIdle, Event: EvDisposed},
	{From: EngineStopping, To: EngineIdle, Event: EvDisposed},
	{From: EngineUnloading, To: EngineIdle, Event: EvDisposed},
}

// Step returns the successor state for (from, event), or ok=false when
// the event is not legal in that state.
func Step(from EngineState, event EventKind) (EngineState, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == event {
			return tr.To, true
		}
	}
	return from, false
}

// IsTransient reports whether the state blocks concurrent stop calls
// until the in-flight teardown resolves.
func (s EngineState) IsTransient() bool {
	return s == EngineStopping || s == EngineUnloading
}
