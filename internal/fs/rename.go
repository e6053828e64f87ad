package fs

import (
	"context"
	"os"
)

// wraps os.Rename with retry logic.
// It provides a resilient rename for arrival stamping and tier promotion.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
