// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"stackup-cli/pkg/stackfile"
)

// newUpCommand creates the `stackup up` command.
func newUpCommand(flags *rootFlags) *cobra.Command {
	opts := startOptions{}

	upCmd := &cobra.Command{
		Use:   "up [service...]",
		Short: "Start the dev stack",
		Long: `Start the dev stack: every service the stackfile defines, or the
well-known worker and server services when the project has no manifest.

Without -d the services run supervised in the foreground, their combined
output teed to the terminal and to date-stamped log files. The first
service to exit brings the stack down and its exit code becomes stackup's.
With -d each service detaches into its own session, logging to its file;
use 'stackup status' and 'stackup stop' to manage them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			names := serviceArgs(app, args)
			return app.reportError(app.startServices(cmd.Context(), names, opts))
		},
	}

	addStartFlags(upCmd, &opts)
	upCmd.Flags().BoolVar(&opts.watch, "watch", false, "restart services when their watched files change")

	return upCmd
}

// addStartFlags registers the launch flags shared by up, worker, server,
// and run.
func addStartFlags(cmd *cobra.Command, opts *startOptions) {
	cmd.Flags().BoolVarP(&opts.detach, "detach", "d", false, "run in the background, detached from the terminal")
	cmd.Flags().StringVar(&opts.logDir, "log-dir", "", "write date-stamped logs here instead of the configured log_dir")
	cmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "extra dotenv file applied on top of the stackfile env (repeatable)")
	cmd.Flags().StringArrayVar(&opts.envVars, "env-var", nil, "extra KEY=VALUE applied last (repeatable)")
}

// serviceArgs resolves the positional service names: explicit args win,
// then the manifest's services, then the well-known pair.
func serviceArgs(app *App, args []string) []stackfile.ServiceName {
	if len(args) > 0 {
		names := make([]stackfile.ServiceName, len(args))
		for i, arg := range args {
			names[i] = stackfile.ServiceName(arg)
		}
		return names
	}
	if app.Stack != nil && len(app.Stack.Services) > 0 {
		return app.Stack.ServiceNames()
	}
	return []stackfile.ServiceName{stackfile.ServiceWorker, stackfile.ServiceServer}
}
