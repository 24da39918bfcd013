package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fileferry/internal/commands"
)

func runOverrideFlags(cmd *cobra.Command, ov *commands.Overrides) {
	cmd.Flags().StringVar(&ov.Endpoint, "endpoint", "", "override api.endpoint")
	cmd.Flags().StringVar(&ov.Mode, "mode", "", "override api.mode (multipart or json_base64)")
	cmd.Flags().StringVar(&ov.WatchDir, "watch-dir", "", "override files.watch_dir")
	cmd.Flags().StringVar(&ov.Pattern, "pattern", "", "override files.pattern")
	cmd.Flags().StringVar(&ov.LogLevel, "log-level", "", "override log.level")
	cmd.Flags().BoolVar(&ov.SkipProducer, "skip-producer", false, "do not spawn the producer this run")
}

func newRunCmd() *cobra.Command {
	ov := commands.Overrides{Interval: -1}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one full cycle and exit",
		Long: `Run one full cycle: spawn the producer (if enabled), select the newest
matching file, wait for it to stabilize, transform and upload it, then
archive it on success. Exits after a single pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return commands.Run(ctx, commands.RunOpts{
				ConfigPath: globalOpts.ConfigPath,
				Overrides:  ov,
				Watch:      false,
			})
		},
	}

	runOverrideFlags(cmd, &ov)
	return cmd
}
