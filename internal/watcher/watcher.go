// Package watcher monitors the arrivals directory in daemon mode and asks
// for a rotation pass whenever new backup files show up.
package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raoulx24/backup-rotator/internal/config"
	"github.com/raoulx24/backup-rotator/internal/fsprobe"
	"github.com/raoulx24/backup-rotator/internal/logging"
	"github.com/raoulx24/backup-rotator/internal/mailbox"
	"github.com/raoulx24/backup-rotator/internal/rotation"
)

// Watcher observes the arrivals directory and puts coalesced triggers in the
// mailbox when backup files appear.
type Watcher struct {
	mu sync.RWMutex

	dir        string
	extensions []string
	mode       string
	interval   time.Duration
	debounce   time.Duration

	log logging.Logger
	mb  *mailbox.Mailbox[rotation.Trigger]
}

// New creates a watcher for the configured arrivals directory.
func New(cfg *config.Config, log logging.Logger, mb *mailbox.Mailbox[rotation.Trigger]) *Watcher {
	return &Watcher{
		dir:        cfg.BackupsDir,
		extensions: cfg.BackupExtensions,
		mode:       cfg.Daemon.Watch.Mode,
		interval:   cfg.Daemon.Watch.PollDuration(),
		debounce:   cfg.Daemon.Watch.DebounceDuration(),
		log:        log,
		mb:         mb,
	}
}

// Start chooses the watching strategy based on config.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := w.dir
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.startFsNotify(ctx)

	case "poll":
		w.startPolling(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.startFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, falling back to polling", "reason", res.Reason)
		w.startPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown watch mode %q", mode)
	}
}

// UpdateConfig updates watcher fields atomically for hot-reload. Mode changes
// take effect on the next daemon restart; directory and extension changes are
// picked up immediately by the polling loop.
func (w *Watcher) UpdateConfig(cfg *config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dir = cfg.BackupsDir
	w.extensions = cfg.BackupExtensions
	w.interval = cfg.Daemon.Watch.PollDuration()
	w.debounce = cfg.Daemon.Watch.DebounceDuration()
}

// trigger requests one rotation pass. Puts coalesce in the mailbox.
func (w *Watcher) trigger(reason string) {
	w.mb.Put(rotation.Trigger{Reason: reason, At: time.Now()})
	w.log.Debug("rotation triggered", "reason", reason)
}
