// Package commands implements the CLI command bodies. The cobra layer in
// internal/cli parses flags and delegates here.
package commands

import (
	"github.com/sirupsen/logrus"

	"fileferry/internal/archive"
	"fileferry/internal/clock"
	"fileferry/internal/config"
	"fileferry/internal/cycle"
	"fileferry/internal/enrich"
	ferryfs "fileferry/internal/fs"
	"fileferry/internal/producer"
	"fileferry/internal/selector"
	"fileferry/internal/stability"
	"fileferry/internal/transform"
	"fileferry/internal/upload"
)

// buildController wires the pipeline stages from a validated config.
func buildController(cfg config.Config, log *logrus.Logger) (*cycle.Controller, error) {
	fsys := ferryfs.NewRealFS()
	var tick clock.Real

	deps := cycle.Deps{
		FS:      fsys,
		Sleeper: tick,
		Selector: selector.New(fsys, cfg.Files.WatchDir,
			selector.GlobMatcher{Pattern: cfg.Files.Pattern}, cfg.Files.TimestampPrefix),
		Gate: stability.New(fsys, tick,
			cfg.Stability.PollInterval(), cfg.Stability.MaxWait()),
		Engine: transform.New(cfg.Transform),
		Log:    log,
	}

	if cfg.Producer.Enabled {
		deps.Producer = producer.New(producer.ExecRunner{}, cfg.Producer, log)
	}

	if cfg.API.Mode == "lookup_enrich" {
		deps.Enricher = enrich.New(cfg.Lookup, log)
	} else {
		client, err := upload.NewClient(cfg.API, log)
		if err != nil {
			return nil, err
		}
		policy := retryPolicy(cfg.Retry)
		deps.Uploader = upload.New(client, policy, tick, log)
	}

	if cfg.Archive.Enabled {
		deps.Archiver = archive.New(fsys, cfg.Archive.Dir)
	}

	return cycle.New(cfg, deps), nil
}
