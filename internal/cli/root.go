// Package cli provides the Cobra command tree for fileferry.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"fileferry/internal/version"
)

// GlobalOpts holds global options parsed before subcommand dispatch.
type GlobalOpts struct {
	ConfigPath string
	Verbose    bool
}

var globalOpts = GlobalOpts{ConfigPath: "fileferry.toml"}

// GetGlobalOpts returns the parsed global options.
func GetGlobalOpts() GlobalOpts {
	return globalOpts
}

// NewRootCmd creates the root cobra command for fileferry.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fileferry",
		Short: "Pick up extractor output files and deliver them over HTTP",
		Long: `fileferry - acquisition-and-delivery pipeline for extractor output files

fileferry watches a directory for freshly produced report files, waits for
the producer to finish writing, optionally normalizes the tabular content,
uploads the result to an HTTP endpoint with bounded retries, and archives
the file on success.`,
		Version:       version.FullVersion(),
		SilenceErrors: true, // error printing happens in main.go
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigPath, "config", "fileferry.toml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Verbose, "verbose", false, "show detailed error context")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(
		newRunCmd(),
		newWatchCmd(),
		newEnrichCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with the given output writers.
func Execute(stdout, stderr io.Writer) error {
	rootCmd := NewRootCmd()
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}
