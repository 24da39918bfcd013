package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fileferry/internal/commands"
)

func newWatchCmd() *cobra.Command {
	ov := commands.Overrides{Interval: -1}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run cycles on the configured interval until interrupted",
		Long: `Run the pipeline in a loop, sleeping loop.interval_seconds between
cycles regardless of each cycle's outcome. An interval of 0 runs a single
cycle. SIGINT/SIGTERM stop the loop promptly, including mid-wait.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return commands.Run(ctx, commands.RunOpts{
				ConfigPath: globalOpts.ConfigPath,
				Overrides:  ov,
				Watch:      true,
			})
		},
	}

	runOverrideFlags(cmd, &ov)
	cmd.Flags().IntVar(&ov.Interval, "interval", -1, "override loop.interval_seconds")
	return cmd
}
