// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"stackup-cli/pkg/stackfile"
)

// newRunCommand creates the `stackup run` command.
func newRunCommand(flags *rootFlags) *cobra.Command {
	opts := startOptions{}

	runCmd := &cobra.Command{
		Use:   "run <service>...",
		Short: "Start specific services from the stackfile",
		Long: `Start one or more services by name.

Services come from the stackfile; the well-known "worker" and "server"
names also work without a manifest. Multiple services are supervised
together the way 'stackup up' supervises the whole stack.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			names := make([]stackfile.ServiceName, len(args))
			for i, arg := range args {
				names[i] = stackfile.ServiceName(arg)
			}
			return app.reportError(app.startServices(cmd.Context(), names, opts))
		},
	}

	addStartFlags(runCmd, &opts)
	runCmd.Flags().BoolVar(&opts.watch, "watch", false, "restart services when their watched files change")

	return runCmd
}
