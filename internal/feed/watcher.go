// SPDX-License-Identifier: MIT

package feed

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	xglog "github.com/glintworks/reels/internal/log"
)

// Watch reloads the source whenever its backing file changes, until ctx
// is cancelled. Editors and atomic writers (rename-into-place) emit
// bursts of events, so reloads are debounced.
func Watch(ctx context.Context, src *FileSource, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Watch the directory: atomic replaces swap the file inode, and a
	// watch on the old inode would go silent after the first reload.
	dir := filepath.Dir(src.path)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger := xglog.WithComponent("feed-watcher")
	target := filepath.Clean(src.path)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("feed watch error")
		case <-fire:
			if err := src.Reload(); err != nil {
				// Keep serving the previous snapshot on bad writes.
				logger.Warn().Err(err).Msg("feed reload failed, keeping previous snapshot")
				continue
			}
			logger.Info().Msg("feed reloaded")
		}
	}
}
