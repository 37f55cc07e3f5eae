// SPDX-License-Identifier: MIT

// Package deeplink persists the shareable item id the way a browser
// keeps it in the query string: read once at mount, replaced in place
// on every committed index change.
package deeplink

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/renameio/v2"
)

// FileLink is a ports.LinkState backed by a small state file. Writes
// are atomic so a crash can never leave a torn id behind.
type FileLink struct {
	path string

	mu    sync.Mutex
	value string
}

// Open loads the link state from path. A missing file is an empty link.
func Open(path string) (*FileLink, error) {
	l := &FileLink{path: path}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("deeplink: read %s: %w", path, err)
	default:
		l.value = strings.TrimSpace(string(data))
	}
	return l, nil
}

// Current implements ports.LinkState.
func (l *FileLink) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}

// Replace implements ports.LinkState.
func (l *FileLink) Replace(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == l.value {
		return nil
	}
	if err := renameio.WriteFile(l.path, []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("deeplink: write %s: %w", l.path, err)
	}
	l.value = id
	return nil
}
