// Package fsprobe checks whether fsnotify delivers events for a directory.
// Some filesystems (NFS, certain FUSE mounts) accept watches but never emit
// events; the watcher's "auto" mode uses the probe to decide between
// fsnotify and polling.
package fsprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Result reports whether fsnotify is usable for a directory and, when it is
// not, why.
type Result struct {
	FsnotifySupported bool
	Reason            string
}

const probeTimeout = 200 * time.Millisecond

// Probe writes a throwaway dotfile into dir and verifies that a create or
// write event actually arrives. Arrivals are detected through exactly those
// events, so this mirrors the real workload.
func Probe(dir string) Result {
	st, err := os.Stat(dir)
	if err != nil {
		return Result{false, fmt.Sprintf("stat failed: %v", err)}
	}
	if !st.IsDir() {
		return Result{false, "not a directory"}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{false, fmt.Sprintf("fsnotify unavailable: %v", err)}
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return Result{false, fmt.Sprintf("cannot watch directory: %v", err)}
	}

	marker := filepath.Join(dir, ".rotator-probe")
	f, err := os.Create(marker)
	if err != nil {
		return Result{false, fmt.Sprintf("cannot create probe file: %v", err)}
	}
	_, _ = f.WriteString("probe")
	_ = f.Close()
	defer os.Remove(marker)

	deadline := time.After(probeTimeout)
	for {
		select {
		case ev := <-w.Events:
			if filepath.Base(ev.Name) == ".rotator-probe" && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				return Result{true, ""}
			}
		case err := <-w.Errors:
			return Result{false, fmt.Sprintf("watch error: %v", err)}
		case <-deadline:
			return Result{false, "no events received"}
		}
	}
}
