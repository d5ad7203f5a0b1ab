// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrBuildInProgress is returned when another process holds the output lock.
var ErrBuildInProgress = errors.New("another build of this archive is in progress")

// outputLock serializes builds writing the same archive. The lock file sits
// next to the archive and is dot-prefixed so that no build ever packages it.
type outputLock struct {
	path string
	lock *flock.Flock
}

func lockPath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".lock")
}

// acquireOutputLock creates the output directory and takes the lock without
// blocking.
func acquireOutputLock(output string) (*outputLock, error) {
	path := lockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	l := &outputLock{path: path, lock: flock.New(path)}
	ok, err := l.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrBuildInProgress, path)
	}
	return l, nil
}

// release unlocks and removes the lock file.
func (l *outputLock) release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
