// Package cli provides the cobra command tree for atclint.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/atclint/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root atclint command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var (
		debug bool
		color string
	)

	rootCmd := &cobra.Command{
		Use:   "atclint",
		Short: "A C# style checker with safe, atomic auto-fixes",
		Long: `atclint checks C# sources against layout, using-directive and performance
rules, and can rewrite the code to fix what it finds.

Fixes are verified by re-linting the result before anything is written. When a
fix needs a namespace moved into the shared global usings file, the source
file and GlobalUsings.cs are updated together or not at all.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if debug {
				level = "debug"
			}
			logger, err := logging.FromEnv(level)
			if err != nil {
				return usageError(fmt.Errorf("configure logging: %w", err))
			}
			logging.SetDefault(logger)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "path to config file (layered above the project config)")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto", "colorize output: auto, always, never")

	rootCmd.AddCommand(
		newLintCommand(info),
		newRulesCommand(),
		newInitCommand(),
		newVersionCommand(info),
	)

	NewHelpFormatter(color, os.Stdout).ApplyToCommand(rootCmd)

	return rootCmd
}
