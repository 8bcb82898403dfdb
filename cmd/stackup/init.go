// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stackup-cli/pkg/stackfile"
)

// newInitCommand creates the `stackup init` command.
func newInitCommand() *cobra.Command {
	var initForce bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a stackfile in the current directory",
		Long: `Create a stackfile in the current directory.

The generated manifest defines the worker and server services with the
same command lines the configuration synthesizes, as a starting point
for customization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := stackfile.FileName

			if _, err := os.Stat(filename); err == nil && !initForce {
				return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
			}

			if err := os.WriteFile(filename, []byte(stackfile.StarterManifest), 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			absPath, _ := filepath.Abs(filename)
			fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
			fmt.Println()
			fmt.Println(SubtitleStyle.Render("Next steps:"))
			fmt.Println("  1. Edit the stackfile to match your project's services")
			fmt.Println("  2. Run 'stackup up' to start the stack")
			fmt.Println("  3. Run 'stackup status' to see what is running")
			return nil
		},
	}

	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing stackfile")
	return initCmd
}
