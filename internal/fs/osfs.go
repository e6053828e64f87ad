package fs

import (
	"context"
	"os"
	"path/filepath"
)

type OSFS struct{}

// the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (such as inode extraction) are handled in build-tagged files.

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// stat failure on one file must not hide the rest of the
			// directory; a zero MTime marks the entry as unreadable
			files = append(files, FileInfo{
				Name: e.Name(),
				Path: filepath.Join(dir, e.Name()),
			})
			continue
		}
		files = append(files, FileInfo{
			Name:  e.Name(),
			Path:  filepath.Join(dir, e.Name()),
			Size:  info.Size(),
			MTime: info.ModTime(),
		})
	}
	return files, nil
}

func (o *OSFS) ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := renameWithRetry(ctx, oldPath, newPath); err != nil {
		return &IOError{Op: "rename", Path: oldPath, Err: err}
	}
	return nil
}

func (o *OSFS) Move(ctx context.Context, path, destDir string) error {
	if err := moveWithRetry(ctx, path, destDir); err != nil {
		return &IOError{Op: "move", Path: path, Err: err}
	}
	return nil
}

func (o *OSFS) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func (o *OSFS) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}
