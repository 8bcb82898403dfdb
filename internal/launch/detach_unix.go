// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Detach starts the process described by spec in its own session, with
// stdin from /dev/null and combined output appended to logPath, then
// returns without waiting. The child survives the launcher's exit and any
// terminal hangup, which is what nohup plus a background redirect used to
// provide. The caller records the returned PID in the state registry.
func Detach(spec *ProcessSpec, logPath string) (int, error) {
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = EnvToSlice(spec.Env)
	cmd.Stdin = devNull
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	// Setsid detaches the child from the launcher's controlling terminal,
	// so SIGHUP on terminal close never reaches it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %s: %w", spec.Name, err)
	}

	pid := cmd.Process.Pid
	// Release drops the handle without waiting; init reaps the child.
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("releasing %s: %w", spec.Name, err)
	}
	return pid, nil
}
