// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz reports ready once the feed is loaded and a session is
// mounted.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if len(s.source.Items()) == 0 {
		writeError(w, http.StatusServiceUnavailable, "feed not loaded")
		return
	}
	if s.session() == nil {
		writeError(w, http.StatusServiceUnavailable, "session not mounted")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	items := s.source.Items()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleFeedItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, it := range s.source.Items() {
		if it.ID == id {
			writeJSON(w, http.StatusOK, it)
			return
		}
	}
	writeError(w, http.StatusNotFound, "unknown feed item")
}

func (s *Server) handleSessionState(w http.ResponseWriter, _ *http.Request) {
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusServiceUnavailable, "session not mounted")
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// inputEvent is one user input routed into the session, mirroring the
// pointer/wheel/key surface the playback core reacts to.
type inputEvent struct {
	Type string `json:"type"`

	// Pointer events
	Y float64 `json:"y,omitempty"`
	// Wheel events
	DeltaY float64 `json:"deltaY,omitempty"`
	// Key events
	Key string `json:"key,omitempty"`
	// mute / visibility
	Value bool `json:"value,omitempty"`
	// select
	ItemID string `json:"itemId,omitempty"`
}

func (s *Server) handleSessionInput(w http.ResponseWriter, r *http.Request) {
	sess := s.session()
	if sess == nil {
		writeError(w, http.StatusServiceUnavailable, "session not mounted")
		return
	}

	var ev inputEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "malformed input event")
		return
	}

	switch ev.Type {
	case "pointerdown":
		sess.PointerDown(ev.Y)
	case "pointermove":
		sess.PointerMove(ev.Y)
	case "pointerup":
		sess.PointerUp()
	case "wheel":
		sess.Wheel(ev.DeltaY)
	case "key":
		sess.Key(ev.Key)
	case "tap":
		sess.Tap()
	case "next":
		sess.Next()
	case "prev":
		sess.Prev()
	case "select":
		sess.Select(ev.ItemID)
	case "mute":
		sess.SetMuted(ev.Value)
	case "togglemute":
		sess.ToggleMute()
	case "visibility":
		sess.SetVisible(ev.Value)
	case "like":
		sess.ToggleLike()
	default:
		writeError(w, http.StatusBadRequest, "unknown input event type")
		return
	}

	writeJSON(w, http.StatusOK, sess.State())
}
