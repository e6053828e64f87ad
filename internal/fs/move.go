package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// implements moving a file into another directory. A plain rename is tried
// first; when the destination lives on a different filesystem the move falls
// back to copy+remove, aborting if the source changes mid-copy. An existing
// destination file is never overwritten.

func moveWithRetry(ctx context.Context, path, destDir string) error {
	dst := filepath.Join(destDir, filepath.Base(path))

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %s already exists", dst)
	} else if !os.IsNotExist(err) {
		return err
	}

	return retry(ctx, "move", func() error {
		err := os.Rename(path, dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EXDEV) {
			return err
		}
		return copyThenRemove(path, dst)
	})
}

func copyThenRemove(src, dst string) error {
	orig, err := statFile(src)
	if err != nil {
		return err
	}

	if err := copyOnce(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}

	now, err := statFile(src)
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if sourceChanged(orig, now) {
		_ = os.Remove(dst)
		return errors.New("source changed during copy")
	}

	return os.Remove(src)
}

type statInfo struct {
	size  int64
	mtime int64
	inode uint64
}

func statFile(path string) (statInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return statInfo{}, err
	}
	return statInfo{
		size:  st.Size(),
		mtime: st.ModTime().UnixNano(),
		inode: inodeOf(st),
	}, nil
}

func sourceChanged(orig, now statInfo) bool {
	if now.inode != 0 && orig.inode != 0 && now.inode != orig.inode {
		return true
	}
	if now.mtime != orig.mtime {
		return true
	}
	if now.size != orig.size {
		return true
	}
	return false
}

func copyOnce(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}
