package ingest

import (
	"errors"
	"fmt"
	"io/fs"
)

// LockCheck reports whether a file is still held by a writer. Contention is
// (true, nil). Any other failure is returned as an error and is not retryable.
type LockCheck func(path string) (bool, error)

// ErrFileMissing is returned when a candidate file vanished before it could be checked or read.
var ErrFileMissing = errors.New("file no longer exists")

// IsLocked tests path with a non-blocking exclusive lock attempt.
// Parameters:
//   - path: file to check.
// Returns:
//   - bool: true if another handle holds a conflicting lock.
//   - error: ErrFileMissing, a permission error, or another I/O fault.
func IsLocked(path string) (bool, error) {
	return tryLock(path)
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileMissing, path)
	}
	return fmt.Errorf("failed to open %s: %w", path, err)
}
