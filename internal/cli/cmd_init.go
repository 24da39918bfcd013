package cli

import (
	"github.com/spf13/cobra"

	"fileferry/internal/commands"
	ferryfs "fileferry/internal/fs"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented starter fileferry.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Init(ferryfs.NewRealFS(), globalOpts.ConfigPath, cmd.OutOrStdout())
		},
	}
	return cmd
}
