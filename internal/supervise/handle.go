// SPDX-License-Identifier: MPL-2.0

package supervise

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"stackup-cli/internal/launch"
	"stackup-cli/pkg/types"
)

// Handle supervises one foreground service process.
//
// A handle is single-use: once stopped or failed, create a new one. State
// transitions are atomic CAS operations, so State() is a lock-free read
// safe from any goroutine.
type Handle struct {
	spec *launch.ProcessSpec

	state   atomic.Int32
	stateMu sync.Mutex
	lastErr error

	output      io.Writer
	stdin       io.Reader
	interactive bool
	grace       time.Duration

	cancel   context.CancelFunc
	doneCh   chan struct{}
	exitCode types.ExitCode
}

// HandleOptions configures a Handle.
type HandleOptions struct {
	// Output receives the service's combined stdout and stderr.
	Output io.Writer
	// Stdin is passed through to the service. Nil means no stdin.
	Stdin io.Reader
	// Interactive runs the service on a pseudo-terminal.
	Interactive bool
	// Grace is the SIGTERM-to-SIGKILL window on stop.
	Grace time.Duration
}

// NewHandle creates a handle for spec in the Created state.
func NewHandle(spec *launch.ProcessSpec, opts HandleOptions) *Handle {
	h := &Handle{
		spec:        spec,
		output:      opts.Output,
		stdin:       opts.Stdin,
		interactive: opts.Interactive,
		grace:       opts.Grace,
		doneCh:      make(chan struct{}),
	}
	h.state.Store(int32(StateCreated))
	return h
}

// Spec returns the launch request this handle supervises.
func (h *Handle) Spec() *launch.ProcessSpec { return h.spec }

// State returns the current lifecycle state (atomic, lock-free read).
func (h *Handle) State() State {
	return State(h.state.Load())
}

// LastError returns the error that caused the Failed state, or nil.
func (h *Handle) LastError() error {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.lastErr
}

// Done returns a channel closed when the service reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.doneCh }

// ExitCode returns the service's exit code. Only meaningful once Done()
// is closed.
func (h *Handle) ExitCode() types.ExitCode { return h.exitCode }

// Start runs the pre-start hook and launches the service process, then
// returns while the process runs in the background. The caller observes
// completion through Done().
func (h *Handle) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		h.fail(1, fmt.Errorf("context cancelled before start: %w", ctx.Err()))
		return h.lastErr
	default:
	}

	if !h.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start service %q in state %s", h.spec.Name, h.State())
	}

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	if err := launch.RunPreStart(runCtx, h.spec, h.output); err != nil {
		cancel()
		h.fail(1, err)
		return err
	}

	h.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))

	go func() {
		defer cancel()
		code, err := launch.Foreground(runCtx, h.spec, launch.ForegroundOptions{
			Output:      h.output,
			Stdin:       h.stdin,
			Grace:       h.grace,
			Interactive: h.interactive,
		})
		// A non-zero code after a requested stop is the expected signal
		// death, not a failure.
		if h.State() != StateStopping && (err != nil || code != 0) {
			h.fail(code, err)
			return
		}
		h.stop(code)
	}()

	return nil
}

// Stop requests a graceful shutdown. The process group receives SIGTERM,
// then SIGKILL after the grace period. Safe to call multiple times and
// from any state.
func (h *Handle) Stop() {
	h.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	if h.cancel != nil {
		h.cancel()
	}
}

// Wait blocks until the service reaches a terminal state and returns its
// exit code and failure, if any.
func (h *Handle) Wait() (types.ExitCode, error) {
	<-h.doneCh
	return h.exitCode, h.LastError()
}

func (h *Handle) fail(code types.ExitCode, err error) {
	h.stateMu.Lock()
	if h.lastErr == nil {
		h.lastErr = err
	}
	h.stateMu.Unlock()

	h.exitCode = code
	h.state.Store(int32(StateFailed))
	h.closeDone()
}

func (h *Handle) stop(code types.ExitCode) {
	h.exitCode = code
	h.state.Store(int32(StateStopped))
	h.closeDone()
}

func (h *Handle) closeDone() {
	select {
	case <-h.doneCh:
	default:
		close(h.doneCh)
	}
}
