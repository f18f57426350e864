//go:build windows

package mark

import (
	"fmt"
	"os"
	"path/filepath"
)

// Windows stub: file locking not supported via syscall.Flock.
// Operations are process-safe but not cross-process safe on Windows.

// acquireLock opens the lock file but does not acquire a cross-process lock.
func acquireLock(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// releaseLock closes the lock file.
func releaseLock(f *os.File) {
	if f == nil {
		return
	}
	_ = f.Close()
}
