// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stackup-cli/internal/issue"
	"stackup-cli/internal/state"
	"stackup-cli/pkg/stackfile"
)

// newStopCommand creates the `stackup stop` command.
func newStopCommand(flags *rootFlags) *cobra.Command {
	var (
		stopAll  bool
		stopKill bool
	)

	stopCmd := &cobra.Command{
		Use:   "stop [service...]",
		Short: "Stop detached services",
		Long: `Stop detached services gracefully.

Each service's process receives SIGTERM; if it is still alive after the
configured grace period it is killed. Stopped services are removed from
the state registry.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			if stopAll == (len(args) > 0) {
				return errors.New("name the services to stop, or pass --all (not both)")
			}

			registry, err := app.registry()
			if err != nil {
				return err
			}

			var names []stackfile.ServiceName
			if stopAll {
				runs, err := registry.List()
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(app.stdout, SubtitleStyle.Render("Nothing to stop."))
					return nil
				}
				for _, run := range runs {
					names = append(names, stackfile.ServiceName(run.Service))
				}
			} else {
				for _, arg := range args {
					names = append(names, stackfile.ServiceName(arg))
				}
			}

			grace := time.Duration(app.Config.GracePeriodSeconds) * time.Second
			for _, name := range names {
				if err := app.stopService(registry, name, grace, stopKill); err != nil {
					return app.reportError(err)
				}
			}
			return nil
		},
	}

	stopCmd.Flags().BoolVar(&stopAll, "all", false, "stop every detached service")
	stopCmd.Flags().BoolVar(&stopKill, "kill", false, "send SIGKILL immediately instead of SIGTERM with a grace period")
	return stopCmd
}

// stopService terminates one detached run: SIGTERM, a grace window, then
// SIGKILL, and finally registry cleanup. With force set the grace dance is
// skipped and the process is killed outright.
func (a *App) stopService(registry *state.Registry, name stackfile.ServiceName, grace time.Duration, force bool) error {
	run, err := registry.Lookup(name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation(fmt.Sprintf("stopping service %q", name)).
			WithSuggestion("run 'stackup status' to see what is running").
			Wrap(err).
			BuildError()
	}

	if !force {
		if err := state.Terminate(run.PID); err != nil {
			a.logger.Debug("SIGTERM failed, process likely already gone", "service", name, "error", err)
		}

		deadline := time.Now().Add(grace)
		for time.Now().Before(deadline) {
			if !registry.Alive(run) {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	if registry.Alive(run) {
		if !force {
			a.logger.Warn("grace period expired, killing", "service", name, "pid", run.PID)
		}
		if err := state.ForceKill(run.PID); err != nil {
			return fmt.Errorf("killing service %q (pid %d): %w", name, run.PID, err)
		}
	}

	if _, err := registry.Remove(name); err != nil && !errors.Is(err, state.ErrRunNotFound) {
		return err
	}

	fmt.Fprintf(a.stdout, "%s stopped %s (pid %d)\n",
		SuccessStyle.Render("✓"),
		ServiceStyle.Render(string(name)),
		run.PID)
	return nil
}
