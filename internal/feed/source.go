// SPDX-License-Identifier: MIT

package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/glintworks/reels/internal/log"
)

// Source supplies the ordered, already-materialized feed item list.
// Implementations must return items safe for concurrent reads.
type Source interface {
	Items() []Item
}

// FileSource loads the feed from a JSON file and supports atomic reloads.
type FileSource struct {
	path   string
	logger zerolog.Logger

	mu      sync.RWMutex
	items   []Item
	version uint64
}

// NewFileSource reads and normalizes the feed file at path.
func NewFileSource(path string) (*FileSource, error) {
	s := &FileSource{path: path, logger: xglog.WithComponent("feed")}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Items returns the current feed snapshot. The returned slice must be
// treated as read-only.
func (s *FileSource) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Version increments on every successful reload, letting consumers
// detect snapshot changes cheaply.
func (s *FileSource) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reload re-reads the feed file, replacing the snapshot only when the
// new content parses and normalizes cleanly.
func (s *FileSource) Reload() error {
	data, err := os.ReadFile(s.path) // #nosec G304 -- operator-supplied feed path
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}

	var raw []Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for n := range raw {
		if err := Normalize(&raw[n]); err != nil {
			// Skip unusable items instead of failing the whole feed.
			s.logger.Warn().Err(err).Int("index", n).Msg("dropping invalid feed item")
			continue
		}
		items = append(items, raw[n])
	}
	if len(items) == 0 {
		return fmt.Errorf("feed %s: no valid items", s.path)
	}

	s.mu.Lock()
	s.items = items
	s.version++
	s.mu.Unlock()

	s.logger.Info().Int("items", len(items)).Str("path", s.path).Msg("feed loaded")
	return nil
}
