package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fileferry/internal/commands"
)

func newEnrichCmd() *cobra.Command {
	ov := commands.Overrides{Interval: -1}

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich and post the latest file only (no producer spawn)",
		Long: `Select the newest matching file, wait for it to stabilize, resolve its
part numbers against the lookup endpoint, and post the enriched rows.
Requires lookup.enabled = true.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return commands.Enrich(ctx, globalOpts.ConfigPath, ov)
		},
	}

	cmd.Flags().StringVar(&ov.WatchDir, "watch-dir", "", "override files.watch_dir")
	cmd.Flags().StringVar(&ov.Pattern, "pattern", "", "override files.pattern")
	cmd.Flags().StringVar(&ov.LogLevel, "log-level", "", "override log.level")
	return cmd
}
