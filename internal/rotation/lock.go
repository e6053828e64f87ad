package rotation

import (
	"fmt"
	"os"
	"strconv"
)

const lockFileName = ".rotation.lock"

// acquireLock takes an exclusive lock file inside the archive root.
// Concurrent passes against the same archive would break the one-backup-per-
// bucket rule, so a second invocation fails fast instead of proceeding.
// A leftover lock from a crashed run must be removed by the operator.
func acquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("archive is locked by another rotation (%s exists)", path)
		}
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}

	_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	_ = f.Close()

	return func() { _ = os.Remove(path) }, nil
}
