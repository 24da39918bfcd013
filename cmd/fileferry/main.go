// Command fileferry acquires freshly produced data files from a watched
// directory and delivers them to an HTTP endpoint with bounded retries.
package main

import (
	"os"

	"fileferry/internal/cli"
	"fileferry/internal/errors"
)

func main() {
	err := cli.Execute(os.Stdout, os.Stderr)
	if err != nil {
		opts := errors.PrintOptions{
			Verbose: cli.GetGlobalOpts().Verbose,
		}
		errors.PrintWithOptions(os.Stderr, err, opts)
		os.Exit(errors.ExitCode(err))
	}
}
