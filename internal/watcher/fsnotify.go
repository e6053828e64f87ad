package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raoulx24/backup-rotator/internal/backup"
)

// startFsNotify triggers a rotation pass when fsnotify reports new backup
// files in the arrivals directory. Events are debounced so that a burst of
// writes from a backup producer yields a single pass.
func (w *Watcher) startFsNotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w.mu.RLock()
	dir := w.dir
	debounce := w.debounce
	w.mu.RUnlock()

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Channel to request debounce resets
	resetCh := make(chan struct{}, 1)
	defer close(resetCh)

	go func() {
		var t *time.Timer
		for range resetCh {
			if t != nil {
				t.Stop()
			}
			t = time.AfterFunc(debounce, func() {
				w.trigger("arrival detected")
			})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				w.log.Error("events channel closed")
				return nil
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.RLock()
			exts := w.extensions
			w.mu.RUnlock()

			if _, ok := backup.MatchExtension(filepath.Base(ev.Name), exts); !ok {
				continue
			}

			w.log.Debug("arrival event", "name", ev.Name, "op", ev.Op.String())

			// Non-blocking send to reset debounce
			select {
			case resetCh <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error", "error", err)
		}
	}
}
