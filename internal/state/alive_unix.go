// SPDX-License-Identifier: MPL-2.0

//go:build unix

package state

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive probes a pid with signal 0. EPERM still means the process
// exists, it just belongs to someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

// Terminate delivers SIGTERM to a detached run's process.
func Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// ForceKill delivers SIGKILL to a detached run's process.
func ForceKill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}
