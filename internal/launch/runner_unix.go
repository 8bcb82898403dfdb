// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launch

import (
	"errors"
	"io"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

const (
	terminateSignal = unix.SIGTERM
	killSignal      = unix.SIGKILL
)

// startForeground starts cmd with combined output going to opts.Output and
// returns a wait function. In interactive mode the child runs on a
// pseudo-terminal, so programs that sniff isatty keep color and line
// buffering; otherwise plain pipes are used. Either way the child lands in
// its own process group so group signals never hit the launcher itself.
func startForeground(cmd *exec.Cmd, opts ForegroundOptions) (func() error, error) {
	if opts.Interactive {
		return startWithPTY(cmd, opts)
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = opts.Output
	cmd.Stderr = opts.Output
	cmd.Stdin = opts.Stdin
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Wait, nil
}

func startWithPTY(cmd *exec.Cmd, opts ForegroundOptions) (func() error, error) {
	// pty.Start puts the child in a new session with the pty as its
	// controlling terminal, which also gives it its own process group.
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	if opts.Stdin != nil {
		go func() {
			_, _ = io.Copy(ptmx, opts.Stdin)
		}()
	}

	wait := func() error {
		// The copy ends with EIO once the child side of the pty closes.
		_, copyErr := io.Copy(opts.Output, ptmx)
		_ = ptmx.Close()
		waitErr := cmd.Wait()
		if waitErr != nil {
			return waitErr
		}
		if copyErr != nil && !errors.Is(copyErr, unix.EIO) {
			return copyErr
		}
		return nil
	}
	return wait, nil
}

// signalGroup delivers sig to the child's whole process group.
func signalGroup(cmd *exec.Cmd, sig unix.Signal) {
	if cmd.Process == nil {
		return
	}
	_ = unix.Kill(-cmd.Process.Pid, sig)
}

// terminationSignal reports the signal that killed the child, if any.
func terminationSignal(exitErr *exec.ExitError) (int, bool) {
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return 0, false
	}
	return int(status.Signal()), true
}
