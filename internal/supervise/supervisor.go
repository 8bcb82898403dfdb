// SPDX-License-Identifier: MPL-2.0

package supervise

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"stackup-cli/internal/launch"
	"stackup-cli/pkg/stackfile"
	"stackup-cli/pkg/types"
)

type (
	// Member is one service in a supervised group.
	Member struct {
		// Spec is the resolved launch request.
		Spec *launch.ProcessSpec
		// Output receives the service's combined output.
		Output io.Writer
		// Stdin is passed through to the service. Usually nil; the
		// single-service commands wire the terminal here.
		Stdin io.Reader
		// Interactive runs the service on a pseudo-terminal.
		Interactive bool
		// Restart, when non-nil, delivers restart requests: the service
		// is stopped gracefully and started again instead of bringing
		// the group down. Used by the file watcher.
		Restart <-chan struct{}
	}

	// Supervisor runs a group of services until the first one exits or
	// the context is cancelled.
	Supervisor struct {
		// Grace is the per-service SIGTERM-to-SIGKILL window.
		Grace time.Duration
		// Logger reports lifecycle events. Nil disables logging.
		Logger *log.Logger
	}

	// memberResult is the terminal outcome of one member.
	memberResult struct {
		name stackfile.ServiceName
		code types.ExitCode
		err  error
	}
)

// Run starts every member and blocks until the first member exits or ctx
// is cancelled, then stops the rest gracefully and waits for them. The
// returned exit code mirrors the first finisher's; an interrupted group
// that shut down cleanly returns 0.
func (s *Supervisor) Run(ctx context.Context, members []Member) (types.ExitCode, error) {
	groupCtx, cancelGroup := context.WithCancel(ctx)
	defer cancelGroup()

	results := make(chan memberResult, len(members))
	var wg sync.WaitGroup
	for i := range members {
		m := members[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := s.runMember(groupCtx, m)
			results <- memberResult{name: m.Spec.Name, code: code, err: err}
		}()
	}

	var first *memberResult
	interrupted := false
	select {
	case res := <-results:
		first = &res
		s.logf("service exited", "service", res.name, "exit_code", int(res.code))
	case <-ctx.Done():
		interrupted = true
		s.logf("shutting down")
	}

	// Bring the rest of the group down and drain it.
	cancelGroup()
	wg.Wait()
	close(results)
	for res := range results {
		if first == nil {
			first = &res
		}
		if res.err != nil && s.Logger != nil {
			s.Logger.Error("service failed", "service", res.name, "error", res.err)
		}
	}

	if first == nil {
		return 0, nil
	}
	if interrupted && first.err == nil {
		// Signal-death exit codes from our own SIGTERM are not failures.
		return 0, nil
	}
	return first.code, first.err
}

// runMember runs one member, honoring restart requests until the group
// context is cancelled or the service exits on its own.
func (s *Supervisor) runMember(ctx context.Context, m Member) (types.ExitCode, error) {
	for {
		handle := NewHandle(m.Spec, HandleOptions{
			Output:      m.Output,
			Stdin:       m.Stdin,
			Interactive: m.Interactive,
			Grace:       s.Grace,
		})

		runCtx, cancelRun := context.WithCancel(ctx)
		var restarting atomic.Bool
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			if m.Restart == nil {
				return
			}
			for {
				select {
				case <-runCtx.Done():
					return
				case _, ok := <-m.Restart:
					if !ok {
						return
					}
					restarting.Store(true)
					s.logf("restarting on change", "service", m.Spec.Name)
					handle.Stop()
					cancelRun()
					return
				}
			}
		}()

		s.logf("starting", "service", m.Spec.Name, "program", m.Spec.Path)
		if err := handle.Start(runCtx); err != nil {
			cancelRun()
			<-watchDone
			return 1, err
		}

		code, err := handle.Wait()
		cancelRun()
		<-watchDone

		if restarting.Load() && ctx.Err() == nil {
			continue
		}
		return code, err
	}
}

func (s *Supervisor) logf(msg string, keyvals ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Info(msg, keyvals...)
}
