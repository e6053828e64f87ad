// Package fs defines the filesystem abstraction used by backup-rotator.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"time"
)

type FileInfo struct {
	Name  string
	Path  string
	Size  int64
	MTime time.Time
}

type FS interface {
	// List returns the regular files in dir, skipping subdirectories.
	// Files whose metadata cannot be read come back with a zero MTime.
	List(dir string) ([]FileInfo, error)
	// ListDirs returns the names of the subdirectories of dir.
	ListDirs(dir string) ([]string, error)
	// Rename renames a file within its directory.
	Rename(ctx context.Context, oldPath, newPath string) error
	// Move relocates a file into destDir, keeping its base name.
	Move(ctx context.Context, path, destDir string) error
	Remove(path string) error
	MkdirAll(path string) error
}
