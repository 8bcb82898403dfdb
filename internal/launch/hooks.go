// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"stackup-cli/pkg/stackfile"
)

// ErrPreStartFailed is the sentinel error wrapped by PreStartError.
var ErrPreStartFailed = errors.New("pre-start hook failed")

// PreStartError reports a pre-start hook that exited non-zero.
type PreStartError struct {
	Service  stackfile.ServiceName
	ExitCode int
}

func (e *PreStartError) Error() string {
	return fmt.Sprintf("service %q: pre-start hook exited with code %d", e.Service, e.ExitCode)
}

func (e *PreStartError) Unwrap() error { return ErrPreStartFailed }

// RunPreStart executes the process spec's pre-start hook in the embedded POSIX
// shell interpreter, in the service's working directory and environment.
// No hook set is a no-op. The hook's stdout and stderr go to out, the same
// destination the service output does, so hook diagnostics land in the log.
func RunPreStart(ctx context.Context, spec *ProcessSpec, out io.Writer) error {
	if !spec.PreStart.IsSet() {
		return nil
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(spec.PreStart.String()), "pre_start")
	if err != nil {
		return fmt.Errorf("service %q: parsing pre-start hook: %w", spec.Name, err)
	}

	runner, err := interp.New(
		interp.Dir(spec.Dir),
		interp.Env(expand.ListEnviron(EnvToSlice(spec.Env)...)),
		interp.StdIO(nil, out, out),
	)
	if err != nil {
		return fmt.Errorf("creating hook interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &PreStartError{Service: spec.Name, ExitCode: int(exitStatus)}
		}
		return fmt.Errorf("service %q: pre-start hook: %w", spec.Name, err)
	}
	return nil
}
