// SPDX-License-Identifier: MPL-2.0

//go:build unix

package state

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// registryLock holds a blocking exclusive flock on the registry lock file.
// The zero-byte lock file is harmless if orphaned: the kernel releases the
// flock automatically when the fd closes, including on process crash.
type registryLock struct {
	file *os.File
}

// acquireLock opens (or creates) the lock file and blocks until the
// exclusive flock is available.
func acquireLock(path string) (*registryLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}
	return &registryLock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call multiple times.
func (l *registryLock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
