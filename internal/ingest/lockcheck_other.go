//go:build !unix

package ingest

import (
	"errors"
	"io/fs"
	"os"
)

// On platforms without flock an open failure other than a missing file or a
// permission problem is taken as a sharing violation.
func tryLock(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return false, openError(path, err)
		}
		return true, nil
	}
	f.Close()
	return false, nil
}
