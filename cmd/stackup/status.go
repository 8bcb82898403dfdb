// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stackup-cli/internal/state"
)

// newStatusCommand creates the `stackup status` command.
func newStatusCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show detached services and the stackfile's service list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}
			return app.showStatus()
		},
	}
}

func (a *App) showStatus() error {
	registry, err := a.registry()
	if err != nil {
		return err
	}
	runs, err := registry.List()
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Detached services"))
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("  none running"))
	} else {
		tw := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  SERVICE\tRUN ID\tPID\tUPTIME\tLOG")
		for _, run := range runs {
			// List pruned dead runs already, but a process can exit
			// between the prune and this probe.
			marker := SuccessStyle.Render("●")
			if !registry.Alive(&run) {
				marker = WarningStyle.Render("○")
			}
			fmt.Fprintf(tw, "  %s %s\t%s\t%d\t%s\t%s\n",
				marker,
				ServiceStyle.Render(run.Service),
				run.ID,
				run.PID,
				formatUptime(time.Since(run.StartedAt)),
				run.LogPath)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if a.Stack == nil {
		fmt.Fprintln(a.stdout)
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("No stackfile found; worker and server are synthesized from configuration."))
		return nil
	}

	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, TitleStyle.Render("Defined services"))
	tw := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	for _, svc := range a.Stack.Services {
		marker := SubtitleStyle.Render("○")
		if hasRun(runs, svc.Name) {
			marker = SuccessStyle.Render("●")
		}
		fmt.Fprintf(tw, "  %s %s\t%s\n", marker, ServiceStyle.Render(svc.Name), svc.Description)
	}
	return tw.Flush()
}

func hasRun(runs []state.Run, service string) bool {
	for _, run := range runs {
		if run.Service == service {
			return true
		}
	}
	return false
}

// formatUptime renders a duration the way `ps` users expect: no
// sub-second noise, coarser units as it grows.
func formatUptime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}
