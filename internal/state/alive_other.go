// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package state

import "os"

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// os.FindProcess fails for a nonexistent pid on non-unix platforms.
	_, err := os.FindProcess(pid)
	return err == nil
}

// Terminate asks a detached run's process to exit.
func Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(os.Interrupt)
}

// ForceKill kills a detached run's process outright.
func ForceKill(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
