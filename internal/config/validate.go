package config

import (
	"fileferry/internal/errors"
)

var (
	validFormats     = map[string]bool{"tsv": true, "csv": true}
	validLineEndings = map[string]bool{"lf": true, "crlf": true}
	validModes       = map[string]bool{"multipart": true, "json_base64": true, "lookup_enrich": true}
	validAuth        = map[string]bool{"none": true, "bearer": true, "basic": true}
	validLevels      = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats  = map[string]bool{"text": true, "json": true}
)

// Validate checks semantic configuration rules. All violations are
// E_CONFIG_INVALID and process-fatal.
func Validate(cfg Config) error {
	if cfg.Files.WatchDir == "" {
		return errors.New(errors.EConfigInvalid, "files.watch_dir cannot be empty")
	}
	if cfg.Files.Pattern == "" {
		return errors.New(errors.EConfigInvalid, "files.pattern cannot be empty")
	}

	if cfg.Producer.Enabled && cfg.Producer.Command == "" {
		return errors.New(errors.EConfigInvalid, "producer.command cannot be empty when producer.enabled")
	}

	if cfg.Stability.QuietPeriodSecs <= 0 {
		return errors.New(errors.EConfigInvalid, "stability.quiet_period_secs must be positive")
	}
	if cfg.Stability.PollIntervalSecs < 0 {
		return errors.New(errors.EConfigInvalid, "stability.poll_interval_secs cannot be negative")
	}
	if cfg.Stability.PollIntervalSecs > cfg.Stability.QuietPeriodSecs {
		return errors.New(errors.EConfigInvalid, "stability.poll_interval_secs cannot exceed stability.quiet_period_secs")
	}
	if cfg.Stability.MaxWaitSecs <= 0 {
		return errors.New(errors.EConfigInvalid, "stability.max_wait_secs must be positive")
	}

	if !validFormats[cfg.Transform.Format] {
		return errors.New(errors.EConfigInvalid, "transform.format must be 'tsv' or 'csv'")
	}
	if !validLineEndings[cfg.Transform.LineEnding] {
		return errors.New(errors.EConfigInvalid, "transform.line_ending must be 'lf' or 'crlf'")
	}
	if cfg.Transform.SkipRows < 0 {
		return errors.New(errors.EConfigInvalid, "transform.skip_rows cannot be negative")
	}
	if cfg.Transform.Enabled && len(cfg.Transform.Header) == 0 {
		return errors.New(errors.EConfigInvalid, "transform.header cannot be empty when transform.enabled")
	}

	if cfg.API.Endpoint == "" && cfg.API.Mode != "lookup_enrich" {
		return errors.New(errors.EConfigInvalid, "api.endpoint cannot be empty")
	}
	if !validModes[cfg.API.Mode] {
		return errors.New(errors.EConfigInvalid, "api.mode must be 'multipart', 'json_base64', or 'lookup_enrich'")
	}
	if !validAuth[cfg.API.Auth] {
		return errors.New(errors.EConfigInvalid, "api.auth must be 'none', 'bearer', or 'basic'")
	}
	if cfg.API.TimeoutSecs <= 0 {
		return errors.New(errors.EConfigInvalid, "api.timeout_secs must be positive")
	}
	if cfg.API.Mode == "multipart" && cfg.API.FieldName == "" {
		return errors.New(errors.EConfigInvalid, "api.field_name cannot be empty in multipart mode")
	}
	if cfg.API.Mode == "json_base64" && (cfg.API.FilenameKey == "" || cfg.API.DataKey == "") {
		return errors.New(errors.EConfigInvalid, "api.filename_key and api.data_key cannot be empty in json_base64 mode")
	}

	if cfg.API.Mode == "lookup_enrich" {
		if !cfg.Lookup.Enabled {
			return errors.New(errors.EConfigInvalid, "api.mode 'lookup_enrich' requires lookup.enabled")
		}
		if cfg.Lookup.URL == "" || cfg.Lookup.PostURL == "" {
			return errors.New(errors.EConfigInvalid, "lookup.url and lookup.post_url cannot be empty when lookup is enabled")
		}
		if cfg.Lookup.ChunkSize <= 0 {
			return errors.New(errors.EConfigInvalid, "lookup.chunk_size must be positive")
		}
	}

	if cfg.Retry.MaxAttempts <= 0 {
		return errors.New(errors.EConfigInvalid, "retry.max_attempts must be positive")
	}
	if cfg.Retry.BaseDelaySecs < 0 || cfg.Retry.MaxDelaySecs < 0 {
		return errors.New(errors.EConfigInvalid, "retry delays cannot be negative")
	}
	if cfg.Retry.Multiplier < 1 {
		return errors.New(errors.EConfigInvalid, "retry.multiplier must be >= 1")
	}

	if cfg.Loop.IntervalSeconds < 0 {
		return errors.New(errors.EConfigInvalid, "loop.interval_seconds cannot be negative")
	}

	if cfg.Archive.Enabled && cfg.Archive.Dir == "" {
		return errors.New(errors.EConfigInvalid, "archive.dir cannot be empty when archive.enabled")
	}

	if !validLevels[cfg.Log.Level] {
		return errors.New(errors.EConfigInvalid, "log.level must be 'debug', 'info', 'warn', or 'error'")
	}
	if !validLogFormats[cfg.Log.Format] {
		return errors.New(errors.EConfigInvalid, "log.format must be 'text' or 'json'")
	}

	return nil
}

// ValidateCredentials checks that the selected auth scheme has its
// credentials present. Kept separate from Validate so the same rule can be
// reported as a local fatal upload condition (E_AUTH_INVALID) per attempt.
func ValidateCredentials(api APIConfig) error {
	switch api.Auth {
	case "bearer":
		if api.BearerToken == "" {
			return errors.New(errors.EAuthInvalid, "api.auth is 'bearer' but no bearer token is configured")
		}
	case "basic":
		if api.BasicUser == "" || api.BasicPassword == "" {
			return errors.New(errors.EAuthInvalid, "api.auth is 'basic' but username or password is missing")
		}
	}
	return nil
}
