// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package launch

import (
	"os"
	"os/exec"
)

const (
	terminateSignal = os.Interrupt
	killSignal      = os.Kill
)

// startForeground starts cmd with plain pipes. Pseudo-terminals and
// process groups are unix facilities, so Interactive is ignored here.
func startForeground(cmd *exec.Cmd, opts ForegroundOptions) (func() error, error) {
	cmd.Stdout = opts.Output
	cmd.Stderr = opts.Output
	cmd.Stdin = opts.Stdin
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Wait, nil
}

func signalGroup(cmd *exec.Cmd, sig os.Signal) {
	if cmd.Process == nil {
		return
	}
	if sig == os.Kill {
		_ = cmd.Process.Kill()
		return
	}
	_ = cmd.Process.Signal(sig)
}

func terminationSignal(_ *exec.ExitError) (int, bool) {
	return 0, false
}
