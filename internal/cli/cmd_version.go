package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fileferry/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fileferry version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "fileferry "+version.FullVersion())
			return nil
		},
	}
}
