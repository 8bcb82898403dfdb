// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stackup-cli/internal/issue"
	"stackup-cli/internal/launch"
	"stackup-cli/internal/logsink"
	"stackup-cli/internal/state"
	"stackup-cli/pkg/stackfile"
)

// newLogsCommand creates the `stackup logs` command.
func newLogsCommand(flags *rootFlags) *cobra.Command {
	var (
		lines    int
		follow   bool
		pathOnly bool
	)

	logsCmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Show a service's log file",
		Long: `Show the tail of a service's current log file.

For a detached service the file recorded at launch is used; otherwise
today's date-stamped file in the log directory. With --follow the command
keeps printing as the service writes, moving to the new date-stamped file
when the day changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFromCommand(cmd, flags)
			if err != nil {
				return err
			}

			name := stackfile.ServiceName(args[0])
			logPath, resolve, err := app.resolveLogPath(name)
			if err != nil {
				return err
			}

			if pathOnly {
				fmt.Fprintln(app.stdout, logPath)
				return nil
			}
			return app.showLogs(cmd.Context(), logPath, lines, follow, resolve)
		},
	}

	logsCmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of trailing lines to show")
	logsCmd.Flags().BoolVarP(&follow, "follow", "F", false, "keep printing as the log grows")
	logsCmd.Flags().BoolVar(&pathOnly, "path", false, "print the log file path and exit")

	return logsCmd
}

// resolveLogPath finds the service's current log file: the registry's
// record for a detached run, or today's file in the configured log dir.
// For the date-stamped case the returned resolve function names the file
// the current day writes to, so --follow can track the midnight rollover;
// a detached child keeps writing to the file it was started with, so its
// recorded path needs no re-resolution and resolve is nil.
func (a *App) resolveLogPath(name stackfile.ServiceName) (string, func() string, error) {
	registry, err := a.registry()
	if err != nil {
		return "", nil, err
	}
	if run, err := registry.Lookup(name); err == nil {
		return run.LogPath, nil, nil
	} else if !errors.Is(err, state.ErrRunNotFound) {
		return "", nil, err
	}

	builder := a.specBuilder(launch.EnvOverlay{})
	logDir := builder.LogDir()
	resolve := func() string { return logsink.FilePath(logDir, name, time.Now()) }
	return resolve(), resolve, nil
}

func (a *App) showLogs(ctx context.Context, path string, lines int, follow bool, resolve func() string) error {
	f, err := os.Open(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("reading log file").
			WithResource(path).
			WithSuggestion("check that the service has been started at least once today").
			WithSuggestion("run 'stackup status' to see log locations for detached services").
			Wrap(err).
			BuildError()
	}
	defer f.Close()

	offset, err := printTail(a.stdout, f, lines)
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return a.followLog(ctx, f, offset, resolve)
}

// printTail writes the last n lines of f and returns the end offset.
func printTail(w io.Writer, f *os.File, n int) (int64, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return 0, err
	}
	text := strings.TrimRight(string(data), "\n")
	if text != "" {
		all := strings.Split(text, "\n")
		if n > 0 && len(all) > n {
			all = all[len(all)-n:]
		}
		for _, line := range all {
			fmt.Fprintln(w, line)
		}
	}
	return int64(len(data)), nil
}

// followLog polls for appended data until ctx is cancelled. A shrinking
// file means in-place truncation; a changed resolve result means the day
// rolled over to a new date-stamped file. Either way reading restarts from
// the top.
func (a *App) followLog(ctx context.Context, f *os.File, offset int64, resolve func() string) error {
	cur := f
	defer func() {
		if cur != f {
			cur.Close()
		}
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		info, err := cur.Stat()
		if err != nil {
			return err
		}
		if info.Size() < offset {
			offset = 0
		}
		if info.Size() > offset {
			if _, err := cur.Seek(offset, io.SeekStart); err != nil {
				return err
			}
			n, err := io.Copy(a.stdout, cur)
			if err != nil {
				return err
			}
			offset += n
		}

		// The remainder of the old file was drained above; switch to the
		// new day's file once it exists.
		if resolve == nil {
			continue
		}
		if next := resolve(); next != cur.Name() {
			nf, err := os.Open(next)
			if err != nil {
				continue
			}
			if cur != f {
				cur.Close()
			}
			cur = nf
			offset = 0
		}
	}
}
