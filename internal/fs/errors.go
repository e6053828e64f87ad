package fs

import (
	"errors"
	"fmt"
	"syscall"
)

// IOError wraps a failed filesystem operation with the path it targeted.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// isTransient reports whether an operation should retry rather than fail
// immediately.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// extend here for network FS specific errors if needed
	return false
}
