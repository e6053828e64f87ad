package watcher

import (
	"context"
	"os"
	"time"

	"github.com/raoulx24/backup-rotator/internal/backup"
)

// startPolling scans the arrivals directory on a fixed interval and triggers
// a pass whenever a backup file that was not seen before shows up.
func (w *Watcher) startPolling(ctx context.Context) {
	w.mu.RLock()
	interval := w.interval
	w.mu.RUnlock()

	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := map[string]time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(seen)
		}
	}
}

// scan looks for new or rewritten backup files since the last tick.
func (w *Watcher) scan(seen map[string]time.Time) {
	w.mu.RLock()
	dir := w.dir
	exts := w.extensions
	w.mu.RUnlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.Error("arrivals poll failed", "dir", dir, "error", err)
		return
	}

	fresh := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := backup.MatchExtension(e.Name(), exts); !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		mod := info.ModTime()
		last, ok := seen[e.Name()]
		if !ok || mod.After(last) {
			seen[e.Name()] = mod
			fresh = true
		}
	}

	if fresh {
		w.trigger("arrival detected by poll")
	}
}
