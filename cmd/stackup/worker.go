// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"stackup-cli/internal/config"
	"stackup-cli/pkg/stackfile"
)

// newWorkerCommand creates the `stackup worker` command.
func newWorkerCommand(flags *rootFlags) *cobra.Command {
	opts := startOptions{}
	var (
		queues      []string
		concurrency int
		pool        string
		logLevel    string
	)

	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the task-queue worker",
		Long: `Start the task-queue worker on its configured queues.

The command line is assembled from configuration and can be adjusted per
invocation with the flags below. A "worker" entry in the stackfile
replaces the synthesized command line entirely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			// Flag overrides mutate the invocation's config copy only.
			if cmd.Flags().Changed("queue") {
				app.Config.Worker.Queues = make([]config.QueueName, len(queues))
				for i, q := range queues {
					app.Config.Worker.Queues[i] = config.QueueName(q)
				}
			}
			if cmd.Flags().Changed("concurrency") {
				app.Config.Worker.Concurrency = config.Concurrency(concurrency)
			}
			if cmd.Flags().Changed("pool") {
				app.Config.Worker.Pool = config.PoolMode(pool)
			}
			if cmd.Flags().Changed("loglevel") {
				app.Config.Worker.LogLevel = config.WorkerLogLevel(logLevel)
			}
			if err := app.Config.Validate(); err != nil {
				return err
			}

			return app.reportError(app.startServices(cmd.Context(), []stackfile.ServiceName{stackfile.ServiceWorker}, opts))
		},
	}

	addStartFlags(workerCmd, &opts)
	workerCmd.Flags().StringSliceVarP(&queues, "queue", "Q", nil, "queues to consume (overrides configuration)")
	workerCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "worker pool size (overrides configuration)")
	workerCmd.Flags().StringVarP(&pool, "pool", "P", "", "pool mode: prefork, threads, solo, gevent, eventlet")
	workerCmd.Flags().StringVar(&logLevel, "loglevel", "", "worker log level: DEBUG, INFO, WARNING, ERROR, CRITICAL")

	return workerCmd
}
