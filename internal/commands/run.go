package commands

import (
	"context"

	"fileferry/internal/config"
	"fileferry/internal/logging"
	"fileferry/internal/retry"
)

// Overrides carries CLI flag overrides applied on top of the config file.
type Overrides struct {
	Endpoint     string
	Mode         string
	WatchDir     string
	Pattern      string
	Interval     int // -1 = not set
	LogLevel     string
	SkipProducer bool
}

// Apply folds non-empty overrides into cfg.
func (o Overrides) Apply(cfg config.Config) config.Config {
	if o.Endpoint != "" {
		cfg.API.Endpoint = o.Endpoint
	}
	if o.Mode != "" {
		cfg.API.Mode = o.Mode
	}
	if o.WatchDir != "" {
		cfg.Files.WatchDir = o.WatchDir
	}
	if o.Pattern != "" {
		cfg.Files.Pattern = o.Pattern
	}
	if o.Interval >= 0 {
		cfg.Loop.IntervalSeconds = o.Interval
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.SkipProducer {
		cfg.Producer.Enabled = false
	}
	return cfg
}

// RunOpts configures Run.
type RunOpts struct {
	ConfigPath string
	Overrides  Overrides
	// Watch loops on loop.interval_seconds; false forces a single cycle.
	Watch bool
}

// Run loads configuration and executes the pipeline once or in a loop.
func Run(ctx context.Context, opts RunOpts) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg = opts.Overrides.Apply(cfg)
	if !opts.Watch {
		cfg.Loop.IntervalSeconds = 0
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.WithField("watch_dir", cfg.Files.WatchDir).Info("starting fileferry")

	controller, err := buildController(cfg, log)
	if err != nil {
		return err
	}
	return controller.Loop(ctx)
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay(),
		Multiplier:  cfg.Multiplier,
		MaxDelay:    cfg.MaxDelay(),
	}
}
