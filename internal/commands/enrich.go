package commands

import (
	"context"

	"fileferry/internal/config"
	"fileferry/internal/errors"
	"fileferry/internal/logging"
)

// Enrich runs the enrich-latest-file-only flow: no producer spawn, the
// newest matching file is stabilized, enriched against the lookup endpoint,
// posted, and archived when enabled.
func Enrich(ctx context.Context, configPath string, overrides Overrides) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = overrides.Apply(cfg)

	if !cfg.Lookup.Enabled {
		return errors.New(errors.EUsage, "lookup enrichment is not enabled; set lookup.enabled = true")
	}
	cfg.API.Mode = "lookup_enrich"
	cfg.Producer.Enabled = false
	cfg.Loop.IntervalSeconds = 0

	if err := config.Validate(cfg); err != nil {
		return err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("enriching latest file only")

	controller, err := buildController(cfg, log)
	if err != nil {
		return err
	}
	return controller.Loop(ctx)
}
