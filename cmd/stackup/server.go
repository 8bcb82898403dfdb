// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"stackup-cli/pkg/stackfile"
	"stackup-cli/pkg/types"
)

// newServerCommand creates the `stackup server` command.
func newServerCommand(flags *rootFlags) *cobra.Command {
	opts := startOptions{}
	var (
		host    string
		port    int
		debug   bool
		noDebug bool
	)

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the web dev server",
		Long: `Start the web dev server on its configured host and port.

With --watch the server restarts whenever a watched source file changes;
the patterns come from the stackfile's "server" entry, defaulting to the
whole working directory. A "server" entry in the stackfile replaces the
synthesized command line entirely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				app.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				app.Config.Server.Port = types.ListenPort(port)
			}
			if debug {
				app.Config.Server.Debug = true
			}
			if noDebug {
				app.Config.Server.Debug = false
			}
			if err := app.Config.Validate(); err != nil {
				return err
			}

			return app.reportError(app.startServices(cmd.Context(), []stackfile.ServiceName{stackfile.ServiceServer}, opts))
		},
	}

	addStartFlags(serverCmd, &opts)
	serverCmd.Flags().BoolVar(&opts.watch, "watch", false, "restart the server when source files change")
	serverCmd.Flags().StringVar(&host, "host", "", "bind address (overrides configuration)")
	serverCmd.Flags().IntVarP(&port, "port", "p", 0, "bind port (overrides configuration)")
	serverCmd.Flags().BoolVar(&debug, "debug", false, "enable the server's debug mode")
	serverCmd.Flags().BoolVar(&noDebug, "no-debug", false, "disable the server's debug mode")
	serverCmd.MarkFlagsMutuallyExclusive("debug", "no-debug")

	return serverCmd
}
