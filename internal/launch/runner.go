// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"stackup-cli/pkg/types"
)

// DefaultGracePeriod separates SIGTERM from SIGKILL when a foreground run
// is interrupted and no grace period is configured.
const DefaultGracePeriod = 10 * time.Second

// ForegroundOptions controls a foreground run.
type ForegroundOptions struct {
	// Output receives the combined stdout and stderr of the child,
	// typically a Tee over the terminal and the log sink.
	Output io.Writer
	// Stdin is passed through to the child. Nil means no stdin.
	Stdin io.Reader
	// Grace is the SIGTERM-to-SIGKILL window on interruption.
	// Zero means DefaultGracePeriod.
	Grace time.Duration
	// Interactive allocates a pseudo-terminal for the child so that it
	// keeps color output and line buffering. Only honored when the
	// platform supports it.
	Interactive bool
}

func (o *ForegroundOptions) grace() time.Duration {
	if o.Grace <= 0 {
		return DefaultGracePeriod
	}
	return o.Grace
}

// Foreground starts the process described by spec and waits for it to
// exit, mirroring its exit code. Cancelling ctx delivers SIGTERM to the
// child's process group and escalates to SIGKILL after the grace period.
// A child killed by a signal maps to exit code 128+signal, matching shell
// convention.
func Foreground(ctx context.Context, spec *ProcessSpec, opts ForegroundOptions) (types.ExitCode, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = EnvToSlice(spec.Env)

	wait, err := startForeground(cmd, opts)
	if err != nil {
		return 1, fmt.Errorf("starting %s: %w", spec.Name, err)
	}

	done := make(chan error, 1)
	go func() { done <- wait() }()

	select {
	case err := <-done:
		return exitCodeFromWait(err)
	case <-ctx.Done():
	}

	// Interrupted. Ask the whole process group to stop, then force it.
	signalGroup(cmd, terminateSignal)
	select {
	case err := <-done:
		return exitCodeFromWait(err)
	case <-time.After(opts.grace()):
		signalGroup(cmd, killSignal)
		err := <-done
		return exitCodeFromWait(err)
	}
}

// exitCodeFromWait maps cmd.Wait errors to the exit code the shell would
// report for the same outcome.
func exitCodeFromWait(err error) (types.ExitCode, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if sig, ok := terminationSignal(exitErr); ok {
			return types.ExitCodeSignalBase + types.ExitCode(sig), nil
		}
		return types.ExitCode(exitErr.ExitCode()), nil
	}
	return 1, err
}
